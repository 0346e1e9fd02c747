package handlers

import (
	"errors"
	"fmt"
	"time"

	"accounts/internal/apperr"
	"accounts/internal/middleware"
	"accounts/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for registration, login and user CRUD.
type UserHandler struct {
	authService   *services.AuthService
	userService   *services.UserService
	validate      *validator.Validate
	secureCookies bool
}

// NewUserHandler creates a new UserHandler. secureCookies marks the session
// cookie Secure, which production configuration enables.
func NewUserHandler(authService *services.AuthService, userService *services.UserService, secureCookies bool) *UserHandler {
	return &UserHandler{
		authService:   authService,
		userService:   userService,
		validate:      validator.New(),
		secureCookies: secureCookies,
	}
}

// RegisterRoutes registers the user routes. Registration and login are
// public; everything registered after the AuthRequired middleware needs a
// valid bearer token.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	users := router.Group("/users")

	users.Post("/", h.HandleRegister)
	users.Post("/login", h.HandleLogin)

	users.Use(middleware.AuthRequired(h.authService))

	users.Get("/", h.HandleGetUsers)
	users.Get("/:id", h.HandleGetUser)
	users.Put("/:id", h.HandleUpdateUser)
	users.Delete("/:id", h.HandleDeleteUser)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleRegister handles new user registration.
func (h *UserHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.Validation, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return apperr.New(apperr.Validation, validationMessage(err))
	}

	user, err := h.authService.Register(req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues a session token, returned in
// the body and as an http-only cookie.
func (h *UserHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.Validation, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperr.New(apperr.Validation, "All fields are required")
	}

	token, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    token,
		MaxAge:   int((24 * time.Hour).Seconds()),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteNoneMode,
	})

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// HandleGetUsers retrieves all users.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers()
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// HandleGetUser retrieves a single user by their ID.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	user, err := h.userService.GetUserByID(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// UpdateUserRequest represents the request body for update. Every field is
// optional; empty fields are left unchanged.
type UpdateUserRequest struct {
	Name     string `json:"name" validate:"omitempty,min=2,max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// HandleUpdateUser applies a partial update to a user.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.Validation, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return apperr.New(apperr.Validation, validationMessage(err))
	}

	user, err := h.userService.UpdateUser(c.Params("id"), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"user":    user,
	})
}

// HandleDeleteUser deletes a user by their ID.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	if err := h.userService.DeleteUser(c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "User deleted successfully",
	})
}

// validationMessage renders the first failed validation rule as a
// client-facing message.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		e := validationErrors[0]
		return fmt.Sprintf("Field '%s' failed on the '%s' rule", e.Field(), e.Tag())
	}
	return "Validation failed"
}
