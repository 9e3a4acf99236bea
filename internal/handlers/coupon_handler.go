package handlers

import (
	"bakehub/internal/middleware"
	"bakehub/internal/services"
	"bakehub/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CouponHandler lets customers check a coupon before ordering.
type CouponHandler struct {
	service  *services.CouponService
	validate *validator.Validate
	log      *logger.Logger
}

func NewCouponHandler(service *services.CouponService, log *logger.Logger) *CouponHandler {
	return &CouponHandler{service: service, validate: validator.New(), log: log}
}

func (h *CouponHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	router.Post("/coupons/validate", authRequired, h.HandleValidateCoupon)
}

type validateCouponRequest struct {
	Code       string          `json:"code" validate:"required"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

// HandleValidateCoupon reports the discount a coupon would grant, or why it
// is rejected.
func (h *CouponHandler) HandleValidateCoupon(c *fiber.Ctx) error {
	var req validateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	if req.OrderTotal.IsNegative() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fiber.Map{"OrderTotal": "order_total must not be negative"},
		})
	}

	result, err := h.service.Validate(c.UserContext(), req.Code, req.OrderTotal, middleware.CurrentActor(c).UserID)
	if err != nil {
		return respondError(c, h.log, err, "Could not validate coupon")
	}
	return c.JSON(fiber.Map{
		"valid":        true,
		"code":         result.Code,
		"discount":     result.Discount,
		"final_amount": req.OrderTotal.Sub(result.Discount),
	})
}
