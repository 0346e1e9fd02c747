package repositories

import (
	"errors"

	"accounts/internal/models"
)

// ErrUserNotFound is returned by lookups for an id or email that has no
// record. Services translate it into the appropriate API error.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetAll() ([]models.User, error)
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id string) error
}
