package services

import (
	"context"
	"strings"

	"bakehub/internal/models"
	"bakehub/internal/repositories"
	"bakehub/pkg/apperror"
)

// AddressInput is a new delivery address.
type AddressInput struct {
	Line1     string `json:"line1" validate:"required"`
	Line2     string `json:"line2"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Pincode   string `json:"pincode" validate:"required"`
	MapLink   string `json:"map_link" validate:"omitempty,url"`
	IsDefault bool   `json:"is_default"`
}

// AddressService manages a user's address book.
type AddressService struct {
	repo repositories.AddressRepository
}

func NewAddressService(repo repositories.AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

func (s *AddressService) List(ctx context.Context, actor Actor) ([]models.Address, error) {
	addresses, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, apperror.Internal(err, "could not retrieve addresses")
	}
	return addresses, nil
}

// Create adds an address. The first address a user saves becomes the default.
func (s *AddressService) Create(ctx context.Context, actor Actor, in AddressInput) (*models.Address, error) {
	existing, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, apperror.Internal(err, "could not retrieve addresses")
	}
	address := &models.Address{
		UserID:    actor.UserID,
		Line1:     strings.TrimSpace(in.Line1),
		Line2:     strings.TrimSpace(in.Line2),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		Pincode:   strings.TrimSpace(in.Pincode),
		MapLink:   strings.TrimSpace(in.MapLink),
		IsDefault: in.IsDefault || len(existing) == 0,
	}
	if err := s.repo.Create(ctx, address); err != nil {
		return nil, apperror.Internal(err, "could not save address")
	}
	return address, nil
}

// Delete removes one of the actor's addresses. Orders that used it keep
// their data with no address reference.
func (s *AddressService) Delete(ctx context.Context, actor Actor, id string) error {
	address, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return lookupError(err, "address")
	}
	if address.UserID != actor.UserID {
		return apperror.NotFound("address not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "address")
	}
	return nil
}
