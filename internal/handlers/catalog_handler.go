package handlers

import (
	"bakehub/internal/services"
	"bakehub/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves the read-only product catalog and custom cake pricing.
type CatalogHandler struct {
	products *services.ProductService
	pricing  *services.PricingService
	log      *logger.Logger
}

func NewCatalogHandler(products *services.ProductService, pricing *services.PricingService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{products: products, pricing: pricing, log: log}
}

// RegisterRoutes registers the public catalog routes.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/products", h.HandleGetProducts)
	router.Get("/products/:id", h.HandleGetProduct)
	router.Get("/custom-cake/options", h.HandleGetCustomCakeOptions)
	router.Post("/custom-cake/price", h.HandleCustomCakePrice)
}

func (h *CatalogHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.products.ListProducts(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err, "Could not retrieve products")
	}
	return c.JSON(products)
}

func (h *CatalogHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.products.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

func (h *CatalogHandler) HandleGetCustomCakeOptions(c *fiber.Ctx) error {
	options, err := h.products.CustomCakeOptions(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err, "Could not retrieve custom cake options")
	}
	return c.JSON(options)
}

type customCakePriceRequest struct {
	Options []string `json:"options"`
}

// HandleCustomCakePrice quotes a custom cake from its option ids.
func (h *CatalogHandler) HandleCustomCakePrice(c *fiber.Ctx) error {
	var req customCakePriceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	quote, err := h.pricing.CustomCakePrice(c.UserContext(), req.Options)
	if err != nil {
		return respondError(c, h.log, err, "Could not price custom cake")
	}
	return c.JSON(quote)
}
