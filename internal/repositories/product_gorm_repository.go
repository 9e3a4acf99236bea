package repositories

import (
	"context"
	"fmt"

	"bakehub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves products with their variants and images.
func (r *GORMProductRepository) GetAll(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	var products []models.Product
	q := r.db.WithContext(ctx).Preload("Variants").Preload("Images").Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product with variants and images.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Variants").Preload("Images").First(&product, "id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("product with ID %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetVariantByID retrieves a variant together with its product.
func (r *GORMProductRepository) GetVariantByID(ctx context.Context, id string) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).Preload("Product").First(&variant, "id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("variant with ID %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get variant by ID %s: %w", id, err)
	}
	return &variant, nil
}

// Create stores a product with its variants and images.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	for i := range product.Variants {
		if product.Variants[i].ID == "" {
			product.Variants[i].ID = uuid.New().String()
		}
	}
	for i := range product.Images {
		if product.Images[i].ID == "" {
			product.Images[i].ID = uuid.New().String()
		}
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GORMCustomCakeOptionRepository is a GORM implementation of CustomCakeOptionRepository.
type GORMCustomCakeOptionRepository struct {
	db *gorm.DB
}

func NewGORMCustomCakeOptionRepository(db *gorm.DB) *GORMCustomCakeOptionRepository {
	return &GORMCustomCakeOptionRepository{db: db}
}

func (r *GORMCustomCakeOptionRepository) GetAll(ctx context.Context) ([]models.CustomCakeOption, error) {
	var options []models.CustomCakeOption
	if err := r.db.WithContext(ctx).Order("type ASC, extra_price ASC, label ASC").Find(&options).Error; err != nil {
		return nil, fmt.Errorf("failed to get custom cake options: %w", err)
	}
	return options, nil
}

// GetByIDs returns the options that exist among ids; unknown ids are skipped.
func (r *GORMCustomCakeOptionRepository) GetByIDs(ctx context.Context, ids []string) ([]models.CustomCakeOption, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var options []models.CustomCakeOption
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&options).Error; err != nil {
		return nil, fmt.Errorf("failed to get custom cake options by ids: %w", err)
	}
	return options, nil
}

func (r *GORMCustomCakeOptionRepository) Create(ctx context.Context, option *models.CustomCakeOption) error {
	if option.ID == "" {
		option.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(option).Error; err != nil {
		return fmt.Errorf("failed to create custom cake option: %w", err)
	}
	return nil
}
