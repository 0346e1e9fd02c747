package services_test

import (
	"errors"
	"testing"
	"time"

	"accounts/internal/apperr"
	"accounts/internal/models"
	"accounts/internal/repositories"
	"accounts/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetAll() ([]models.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func TestHashPassword(t *testing.T) {
	hash, err := services.HashPassword("secret1")
	assert.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, services.CheckPassword("secret1", hash))

	// A second hash of the same password differs because of the random
	// salt, yet still verifies.
	hash2, err := services.HashPassword("secret1")
	assert.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
	assert.True(t, services.CheckPassword("secret1", hash2))
}

func TestCheckPassword_Mismatch(t *testing.T) {
	hash, err := services.HashPassword("secret1")
	assert.NoError(t, err)

	assert.False(t, services.CheckPassword("secret2", hash))
	assert.False(t, services.CheckPassword("", hash))

	// A malformed stored hash is a mismatch, not a panic.
	assert.False(t, services.CheckPassword("secret1", "not-a-bcrypt-hash"))
	assert.False(t, services.CheckPassword("secret1", ""))
}

func TestAuthService_IssueAndVerifyToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), "test_jwt_secret", nil)

	token, err := authService.IssueToken("user-123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := authService.VerifyToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestAuthService_VerifyToken_Failures(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), "test_jwt_secret", nil)

	// Malformed token
	_, err := authService.VerifyToken("not.a.jwt")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	// Token signed with a different secret
	otherService := services.NewAuthService(new(MockUserRepository), "other_secret", nil)
	forged, err := otherService.IssueToken("user-123")
	assert.NoError(t, err)
	_, err = authService.VerifyToken(forged)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	// Expired token, signed with the right secret
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "user-123",
		"exp":    time.Now().Add(-time.Hour).Unix(),
	})
	expiredString, err := expired.SignedString([]byte("test_jwt_secret"))
	assert.NoError(t, err)
	_, err = authService.VerifyToken(expiredString)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	// All failure modes carry the same message so callers cannot tell
	// them apart.
	assert.Equal(t, "Invalid token", err.Error())
}

func TestAuthService_Register(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_jwt_secret", nil)

	mockRepo.On("GetByEmail", "a@x.com").Return(nil, repositories.ErrUserNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once().Run(func(args mock.Arguments) {
		args.Get(0).(*models.User).ID = "user-1"
	})

	user, err := authService.Register("A", "A@X.com", "secret1")
	assert.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	// Email is normalized to lower case before lookup and storage.
	assert.Equal(t, "a@x.com", user.Email)
	// The persisted credential is a hash of the plaintext, never the
	// plaintext itself.
	assert.NotEqual(t, "secret1", user.Password)
	assert.True(t, services.CheckPassword("secret1", user.Password))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_jwt_secret", nil)

	existing := &models.User{ID: "user-1", Email: "a@x.com"}
	mockRepo.On("GetByEmail", "a@x.com").Return(existing, nil).Once()

	_, err := authService.Register("B", "a@x.com", "secret2")
	assert.Error(t, err)

	var appErr *apperr.Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.Conflict, appErr.Kind)
	assert.Equal(t, "Email already exists", appErr.Message)
	// No record is created for a duplicate registration.
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_jwt_secret", nil)

	hash, err := services.HashPassword("secret1")
	assert.NoError(t, err)
	user := &models.User{ID: "user-123", Name: "A", Email: "a@x.com", Password: hash}

	mockRepo.On("GetByEmail", "a@x.com").Return(user, nil).Once()

	token, loggedIn, err := authService.Login("a@x.com", "secret1")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user, loggedIn)

	// The issued token verifies back to the user's id.
	userID, err := authService.VerifyToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", userID)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_jwt_secret", nil)

	hash, err := services.HashPassword("secret1")
	assert.NoError(t, err)
	user := &models.User{ID: "user-123", Email: "a@x.com", Password: hash}

	// Wrong password
	mockRepo.On("GetByEmail", "a@x.com").Return(user, nil).Once()
	_, _, wrongPassErr := authService.Login("a@x.com", "wrongpassword")
	assert.ErrorIs(t, wrongPassErr, apperr.ErrInvalidCredentials)

	// Unknown email
	mockRepo.On("GetByEmail", "nobody@x.com").Return(nil, repositories.ErrUserNotFound).Once()
	_, _, unknownErr := authService.Login("nobody@x.com", "secret1")
	assert.ErrorIs(t, unknownErr, apperr.ErrInvalidCredentials)

	// Both failures are indistinguishable to the caller.
	assert.Equal(t, wrongPassErr.Error(), unknownErr.Error())
	mockRepo.AssertExpectations(t)
}
