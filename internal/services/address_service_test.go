package services_test

import (
	"context"
	"testing"

	"bakehub/internal/models"
	"bakehub/internal/services"
	"bakehub/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAddressService_FirstAddressBecomesDefault(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAddressRepository)
	svc := services.NewAddressService(repo)

	repo.On("ListByUser", ctx, "cust-1").Return([]models.Address{}, nil).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(a *models.Address) bool { return a.IsDefault && a.UserID == "cust-1" })).Return(nil).Once()

	address, err := svc.Create(ctx, customer, services.AddressInput{Line1: " 12 MG Road ", City: "Kochi", State: "Kerala", Pincode: "682001"})
	require.NoError(t, err)
	assert.Equal(t, "12 MG Road", address.Line1)
	repo.AssertExpectations(t)
}

func TestAddressService_DeleteChecksOwnership(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAddressRepository)
	svc := services.NewAddressService(repo)

	repo.On("GetByID", ctx, "addr-1").Return(&models.Address{ID: "addr-1", UserID: "cust-2"}, nil)
	err := svc.Delete(ctx, customer, "addr-1")
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	repo.On("GetByID", ctx, "addr-2").Return(&models.Address{ID: "addr-2", UserID: "cust-1"}, nil)
	repo.On("Delete", ctx, "addr-2").Return(nil).Once()
	assert.NoError(t, svc.Delete(ctx, customer, "addr-2"))
}
