package repositories

import (
	"context"

	"bakehub/internal/models"
)

// ProductRepository defines read access to the catalog plus seeding.
type ProductRepository interface {
	GetAll(ctx context.Context, activeOnly bool) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetVariantByID(ctx context.Context, id string) (*models.ProductVariant, error)
	Create(ctx context.Context, product *models.Product) error
}

// CustomCakeOptionRepository defines access to custom cake add-ons.
type CustomCakeOptionRepository interface {
	GetAll(ctx context.Context) ([]models.CustomCakeOption, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.CustomCakeOption, error)
	Create(ctx context.Context, option *models.CustomCakeOption) error
}
