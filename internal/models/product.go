package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Its price comes from its variants.
type Product struct {
	ID             string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name           string           `json:"name" gorm:"type:varchar(255);not null"`
	Description    string           `json:"description" gorm:"type:text"`
	Category       string           `json:"category" gorm:"type:varchar(255)"`
	IsCustomizable bool             `json:"is_customizable" gorm:"not null;default:false"`
	IsActive       bool             `json:"is_active" gorm:"not null"`
	Variants       []ProductVariant `json:"variants" gorm:"constraint:OnDelete:CASCADE"`
	Images         []ProductImage   `json:"images" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ProductVariant is a purchasable size/configuration of a product.
type ProductVariant struct {
	ID               string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID        string          `json:"product_id" gorm:"type:varchar(36);index;not null"`
	Product          *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Label            string          `json:"label" gorm:"type:varchar(100);not null"`
	Price            decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	PreparationHours decimal.Decimal `json:"preparation_hours" gorm:"type:numeric(5,2);not null;default:0"`
	IsEggless        bool            `json:"is_eggless" gorm:"not null;default:false"`
}

// ProductImage references an externally stored image.
type ProductImage struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string `json:"product_id" gorm:"type:varchar(36);index;not null"`
	ImageURL  string `json:"image_url" gorm:"type:varchar(500)"`
	IsPrimary bool   `json:"is_primary" gorm:"not null;default:false"`
}
