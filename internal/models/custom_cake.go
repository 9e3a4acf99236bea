package models

import "github.com/shopspring/decimal"

// CustomCakeOptionType groups custom cake add-ons.
type CustomCakeOptionType string

const (
	OptionBase    CustomCakeOptionType = "base"
	OptionFlavour CustomCakeOptionType = "flavour"
	OptionFilling CustomCakeOptionType = "filling"
	OptionTopping CustomCakeOptionType = "topping"
	OptionShape   CustomCakeOptionType = "shape"
	OptionWeight  CustomCakeOptionType = "weight"
)

// CustomCakeOption is an add-on with an additive price delta.
type CustomCakeOption struct {
	ID         string               `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Type       CustomCakeOptionType `json:"type" gorm:"type:varchar(20);index;not null"`
	Label      string               `json:"label" gorm:"type:varchar(255);not null"`
	ExtraPrice decimal.Decimal      `json:"extra_price" gorm:"type:numeric(10,2);not null;default:0"`
}
