package services

import (
	"context"

	"bakehub/internal/models"
	"bakehub/internal/repositories"
	"bakehub/pkg/apperror"

	"github.com/shopspring/decimal"
)

// ProductView is a catalog product with its derived display fields.
type ProductView struct {
	models.Product
	DisplayPrice decimal.Decimal `json:"display_price"`
	DisplayImage string          `json:"display_image,omitempty"`
}

// ProductService handles read access to the catalog.
type ProductService struct {
	repo    repositories.ProductRepository
	options repositories.CustomCakeOptionRepository
	pricing *PricingService
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, options repositories.CustomCakeOptionRepository, pricing *PricingService) *ProductService {
	return &ProductService{
		repo:    repo,
		options: options,
		pricing: pricing,
	}
}

// ListProducts retrieves all active products.
func (s *ProductService) ListProducts(ctx context.Context) ([]ProductView, error) {
	products, err := s.repo.GetAll(ctx, true)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list products")
	}
	views := make([]ProductView, 0, len(products))
	for i := range products {
		views = append(views, s.view(&products[i]))
	}
	return views, nil
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*ProductView, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "product")
	}
	view := s.view(product)
	return &view, nil
}

// CustomCakeOptions returns every option grouped by its type.
func (s *ProductService) CustomCakeOptions(ctx context.Context) (map[models.CustomCakeOptionType][]models.CustomCakeOption, error) {
	options, err := s.options.GetAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load custom cake options")
	}
	grouped := make(map[models.CustomCakeOptionType][]models.CustomCakeOption)
	for _, opt := range options {
		grouped[opt.Type] = append(grouped[opt.Type], opt)
	}
	return grouped, nil
}

func (s *ProductService) view(p *models.Product) ProductView {
	return ProductView{
		Product:      *p,
		DisplayPrice: s.pricing.DisplayPrice(p),
		DisplayImage: s.pricing.DisplayImage(p),
	}
}
