package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"accounts/internal/apperr"
	"accounts/internal/models"
	"accounts/internal/repositories"
	"accounts/pkg/rabbitmq"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword produces a salted bcrypt hash of the plaintext. The salt is
// random per call, so hashing the same password twice yields different
// strings. A failure here is an internal error, never a credential error.
func HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "Could not process password", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
// A malformed hash counts as a mismatch rather than an error.
func CheckPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// NormalizeEmail canonicalizes an email for storage and lookup so
// uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// tokenClaims is the session token payload: the subject user id plus the
// registered expiry claim.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// AuthService handles credential hashing, session tokens and the
// registration and login flows.
type AuthService struct {
	userRepo  repositories.UserRepository
	mqClient  *rabbitmq.Client
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService. The signing secret comes from
// process configuration and is fixed for the life of the service. The
// RabbitMQ client may be nil, in which case account events are disabled.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, mqClient *rabbitmq.Client) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		mqClient:  mqClient,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  24 * time.Hour,
	}
}

// IssueToken mints a signed token for the user, expiring 24 hours from now.
func (s *AuthService) IssueToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "Could not issue token", err)
	}
	return signed, nil
}

// VerifyToken checks signature and expiry and returns the embedded user id.
// Every failure mode collapses into apperr.ErrInvalidToken so callers
// cannot distinguish expired from malformed or forged tokens.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", apperr.ErrInvalidToken
	}
	return claims.UserID, nil
}

// Register creates a new account with a hashed credential. The email must
// not already be registered.
func (s *AuthService) Register(name, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)

	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, apperr.New(apperr.Conflict, "Email already exists")
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "Could not register user", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hash,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Could not register user", err)
	}

	s.publishEvent(rabbitmq.EventUserCreated, user.ID)
	return user, nil
}

// Login verifies credentials and returns a session token plus the user.
// Unknown email and wrong password produce the same generic error.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", nil, apperr.ErrInvalidCredentials
		}
		return "", nil, apperr.Wrap(apperr.Internal, "Could not log in", err)
	}

	if !CheckPassword(password, user.Password) {
		return "", nil, apperr.ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// publishEvent emits an account event if a queue client is configured.
// Event delivery is best effort and never fails the request.
func (s *AuthService) publishEvent(eventType, userID string) {
	if s.mqClient == nil {
		return
	}
	if err := s.mqClient.PublishUserEvent(eventType, userID); err != nil {
		log.Printf("Failed to publish %s event for user %s: %v", eventType, userID, err)
	}
}
