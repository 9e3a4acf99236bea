package handlers

import (
	"bakehub/internal/middleware"
	"bakehub/internal/models"
	"bakehub/internal/services"
	"bakehub/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders and the baker dashboard.
type OrderHandler struct {
	service   *services.OrderService
	analytics *services.AnalyticsService
	validate  *validator.Validate
	log       *logger.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, analytics *services.AnalyticsService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		service:   service,
		analytics: analytics,
		validate:  validator.New(),
		log:       log,
	}
}

// RegisterRoutes registers the order routes. Every route needs a token;
// the dashboard and status changes are for bakers.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	bakerOnly := middleware.RequireRole(models.RoleBaker)

	orderRoutes := router.Group("/orders", authRequired)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/analytics", bakerOnly, h.HandleAnalytics)
	orderRoutes.Post("/preview", h.HandlePreviewOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", bakerOnly, h.HandleUpdateOrderStatus)
	orderRoutes.Patch("/:id/payment-status", bakerOnly, h.HandleUpdatePaymentStatus)
}

// HandleCreateOrder places an order for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	order, err := h.service.CreateOrder(c.UserContext(), middleware.CurrentActor(c), req)
	if err != nil {
		return respondError(c, h.log, err, "Could not create order")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetOrders lists orders visible to the caller, optionally by status.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.UserContext(), middleware.CurrentActor(c), c.Query("status"))
	if err != nil {
		return respondError(c, h.log, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), middleware.CurrentActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandlePreviewOrder prices a cart without placing it.
func (h *OrderHandler) HandlePreviewOrder(c *fiber.Ctx) error {
	var req services.PreviewInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	preview, err := h.service.PreviewOrder(c.UserContext(), middleware.CurrentActor(c), req)
	if err != nil {
		return respondError(c, h.log, err, "Could not preview order")
	}
	return c.JSON(preview)
}

type statusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus updates the fulfillment status of an order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req statusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), middleware.CurrentActor(c), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, h.log, err, "Could not update order status")
	}
	return c.JSON(fiber.Map{
		"message": "Order status updated successfully",
		"order":   order,
	})
}

type paymentStatusUpdateRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}

// HandleUpdatePaymentStatus updates the payment status of an order.
func (h *OrderHandler) HandleUpdatePaymentStatus(c *fiber.Ctx) error {
	var req paymentStatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	order, err := h.service.UpdatePaymentStatus(c.UserContext(), middleware.CurrentActor(c), c.Params("id"), req.PaymentStatus)
	if err != nil {
		return respondError(c, h.log, err, "Could not update payment status")
	}
	return c.JSON(fiber.Map{
		"message": "Payment status updated successfully",
		"order":   order,
	})
}

// HandleAnalytics returns the baker dashboard figures.
func (h *OrderHandler) HandleAnalytics(c *fiber.Ctx) error {
	summary, err := h.analytics.Summary(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return respondError(c, h.log, err, "Could not compute analytics")
	}
	return c.JSON(summary)
}
