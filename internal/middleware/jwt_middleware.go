package middleware

import (
	"strings"

	"bakehub/internal/models"
	"bakehub/internal/services"
	"bakehub/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

const claimsKey = "claims"

// AuthRequired is a Fiber middleware to check for a valid, unrevoked JWT.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := authService.ValidateToken(c.UserContext(), parts[1])
		if err != nil {
			status := fiber.StatusUnauthorized
			if !apperror.Is(err, apperror.CodeUnauthorized) {
				status = fiber.StatusInternalServerError
			}
			message := "Invalid or expired token"
			if typed := apperror.As(err); typed != nil {
				message = typed.Message()
			}
			return c.Status(status).JSON(fiber.Map{
				"message": message,
			})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("role", string(claims.Role))
		c.Locals(claimsKey, claims)

		return c.Next()
	}
}

// RequireRole rejects authenticated callers that lack role.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentActor(c).Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "You do not have permission to perform this action",
			})
		}
		return c.Next()
	}
}

// CurrentActor returns the caller stored by AuthRequired.
func CurrentActor(c *fiber.Ctx) services.Actor {
	claims := CurrentClaims(c)
	if claims == nil {
		return services.Actor{}
	}
	return services.Actor{UserID: claims.UserID, Role: claims.Role}
}

// CurrentClaims returns the validated token claims, or nil.
func CurrentClaims(c *fiber.Ctx) *services.Claims {
	claims, _ := c.Locals(claimsKey).(*services.Claims)
	return claims
}
