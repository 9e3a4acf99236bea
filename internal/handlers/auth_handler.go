package handlers

import (
	"bakehub/internal/middleware"
	"bakehub/internal/services"
	"bakehub/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication and user profiles.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	log         *logger.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		log:         log,
	}
}

// RegisterRoutes registers the authentication and baker profile routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/logout", authRequired, h.HandleLogout)
	authRoutes.Post("/token/refresh", authRequired, h.HandleRefreshToken)
	authRoutes.Get("/me", authRequired, h.HandleMe)
	authRoutes.Patch("/me/push-token", authRequired, h.HandleUpdatePushToken)

	router.Get("/bakers/:id", h.HandleGetBaker)
}

// HandleRegister handles new customer registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	user, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.log, err, "Could not register user")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	token, user, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err, "Authentication failed")
	}
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// HandleLogout revokes the bearer token used for this request.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.CurrentClaims(c)); err != nil {
		return respondError(c, h.log, err, "Could not log out")
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// HandleRefreshToken swaps the bearer token for a new one.
func (h *AuthHandler) HandleRefreshToken(c *fiber.Ctx) error {
	token, err := h.authService.Refresh(c.UserContext(), middleware.CurrentClaims(c))
	if err != nil {
		return respondError(c, h.log, err, "Could not refresh token")
	}
	return c.JSON(fiber.Map{"token": token})
}

// HandleMe returns the caller's profile.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.authService.Profile(c.UserContext(), middleware.CurrentActor(c).UserID)
	if err != nil {
		return respondError(c, h.log, err, "Could not load profile")
	}
	return c.JSON(user)
}

type pushTokenRequest struct {
	PushToken string `json:"push_token" validate:"required"`
}

// HandleUpdatePushToken stores the caller's Expo device token.
func (h *AuthHandler) HandleUpdatePushToken(c *fiber.Ctx) error {
	var req pushTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	if err := h.authService.UpdatePushToken(c.UserContext(), middleware.CurrentActor(c).UserID, req.PushToken); err != nil {
		return respondError(c, h.log, err, "Could not update push token")
	}
	return c.JSON(fiber.Map{"message": "Push token updated"})
}

// HandleGetBaker returns the public profile of a baker.
func (h *AuthHandler) HandleGetBaker(c *fiber.Ctx) error {
	baker, err := h.authService.Baker(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err, "Could not load baker")
	}
	return c.JSON(fiber.Map{
		"id":    baker.ID,
		"name":  baker.Name,
		"email": baker.Email,
		"phone": baker.Phone,
		"place": baker.Place,
	})
}
