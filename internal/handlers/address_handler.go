package handlers

import (
	"bakehub/internal/middleware"
	"bakehub/internal/services"
	"bakehub/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AddressHandler manages the caller's address book.
type AddressHandler struct {
	service  *services.AddressService
	validate *validator.Validate
	log      *logger.Logger
}

func NewAddressHandler(service *services.AddressService, log *logger.Logger) *AddressHandler {
	return &AddressHandler{service: service, validate: validator.New(), log: log}
}

// RegisterRoutes registers the address routes behind authRequired.
func (h *AddressHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	addressRoutes := router.Group("/addresses", authRequired)
	addressRoutes.Get("/", h.HandleGetAddresses)
	addressRoutes.Post("/", h.HandleCreateAddress)
	addressRoutes.Delete("/:id", h.HandleDeleteAddress)
}

func (h *AddressHandler) HandleGetAddresses(c *fiber.Ctx) error {
	addresses, err := h.service.List(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return respondError(c, h.log, err, "Could not retrieve addresses")
	}
	return c.JSON(addresses)
}

func (h *AddressHandler) HandleCreateAddress(c *fiber.Ctx) error {
	var req services.AddressInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	address, err := h.service.Create(c.UserContext(), middleware.CurrentActor(c), req)
	if err != nil {
		return respondError(c, h.log, err, "Could not save address")
	}
	return c.Status(fiber.StatusCreated).JSON(address)
}

// HandleDeleteAddress removes an address; orders that used it keep no reference.
func (h *AddressHandler) HandleDeleteAddress(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.CurrentActor(c), c.Params("id")); err != nil {
		return respondError(c, h.log, err, "Could not delete address")
	}
	return c.JSON(fiber.Map{"message": "Address deleted"})
}
