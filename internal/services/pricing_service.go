package services

import (
	"context"

	"bakehub/internal/models"
	"bakehub/internal/repositories"
	"bakehub/pkg/apperror"

	"github.com/shopspring/decimal"
)

// CustomCakeBasePrice is the price of a custom cake before options.
var CustomCakeBasePrice = decimal.NewFromInt(500)

// CustomCakeQuote is the priced result of a custom cake configuration.
type CustomCakeQuote struct {
	BasePrice         decimal.Decimal `json:"base_price"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	OptionsCount      int             `json:"options_count"`
	ValidOptionsCount int             `json:"valid_options_count"`
}

// PricingService derives display and custom cake prices from the catalog.
type PricingService struct {
	options repositories.CustomCakeOptionRepository
}

func NewPricingService(options repositories.CustomCakeOptionRepository) *PricingService {
	return &PricingService{options: options}
}

// DisplayPrice is the lowest variant price, or zero without variants.
func (s *PricingService) DisplayPrice(product *models.Product) decimal.Decimal {
	if product == nil || len(product.Variants) == 0 {
		return decimal.Zero
	}
	lowest := product.Variants[0].Price
	for _, v := range product.Variants[1:] {
		if v.Price.LessThan(lowest) {
			lowest = v.Price
		}
	}
	return lowest
}

// DisplayImage is the primary image, else the first one. Empty when the
// product has no images.
func (s *PricingService) DisplayImage(product *models.Product) string {
	if product == nil || len(product.Images) == 0 {
		return ""
	}
	for _, img := range product.Images {
		if img.IsPrimary {
			return img.ImageURL
		}
	}
	return product.Images[0].ImageURL
}

// CustomCakePrice adds the extra price of every known option id to the base
// price. Unknown ids are ignored and a repeated id counts once per mention.
func (s *PricingService) CustomCakePrice(ctx context.Context, optionIDs []string) (*CustomCakeQuote, error) {
	quote := &CustomCakeQuote{
		BasePrice:    CustomCakeBasePrice,
		TotalPrice:   CustomCakeBasePrice,
		OptionsCount: len(optionIDs),
	}
	if len(optionIDs) == 0 {
		return quote, nil
	}

	found, err := s.options.GetByIDs(ctx, optionIDs)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load custom cake options")
	}
	byID := make(map[string]models.CustomCakeOption, len(found))
	for _, opt := range found {
		byID[opt.ID] = opt
	}
	for _, id := range optionIDs {
		opt, ok := byID[id]
		if !ok {
			continue
		}
		quote.TotalPrice = quote.TotalPrice.Add(opt.ExtraPrice)
		quote.ValidOptionsCount++
	}
	quote.TotalPrice = quote.TotalPrice.Round(2)
	return quote, nil
}
