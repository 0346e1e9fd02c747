package services

import (
	"errors"
	"log"

	"accounts/internal/apperr"
	"accounts/internal/models"
	"accounts/internal/repositories"
	"accounts/pkg/rabbitmq"
)

// UserService handles listing, retrieval, update and deletion of accounts.
type UserService struct {
	userRepo repositories.UserRepository
	mqClient *rabbitmq.Client
}

// NewUserService creates a new UserService. The RabbitMQ client may be nil.
func NewUserService(userRepo repositories.UserRepository, mqClient *rabbitmq.Client) *UserService {
	return &UserService{
		userRepo: userRepo,
		mqClient: mqClient,
	}
}

// GetAllUsers retrieves all users.
func (s *UserService) GetAllUsers() ([]models.User, error) {
	users, err := s.userRepo.GetAll()
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Could not retrieve users", err)
	}
	return users, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "Could not retrieve user", err)
	}
	return user, nil
}

// UpdateUser applies any subset of name, email and password to an existing
// user. An empty field is left unchanged. A new password is re-hashed, and
// a new email must not belong to another account.
func (s *UserService) UpdateUser(id, name, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "Could not update user", err)
	}

	if name != "" {
		user.Name = name
	}

	if email != "" {
		normalized := NormalizeEmail(email)
		if normalized != user.Email {
			if _, err := s.userRepo.GetByEmail(normalized); err == nil {
				return nil, apperr.New(apperr.Conflict, "Email already exists")
			} else if !errors.Is(err, repositories.ErrUserNotFound) {
				return nil, apperr.Wrap(apperr.Internal, "Could not update user", err)
			}
		}
		user.Email = normalized
	}

	if password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Could not update user", err)
	}
	return user, nil
}

// DeleteUser removes an account by its ID.
func (s *UserService) DeleteUser(id string) error {
	if err := s.userRepo.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperr.New(apperr.NotFound, "User not found")
		}
		return apperr.Wrap(apperr.Internal, "Could not delete user", err)
	}

	if s.mqClient != nil {
		if err := s.mqClient.PublishUserEvent(rabbitmq.EventUserDeleted, id); err != nil {
			log.Printf("Failed to publish %s event for user %s: %v", rabbitmq.EventUserDeleted, id, err)
		}
	}
	return nil
}
