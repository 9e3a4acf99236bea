package services

import (
	"errors"
	"fmt"

	"bakehub/internal/models"
	"bakehub/internal/repositories"
	"bakehub/pkg/apperror"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   models.Role
}

// IsBaker reports whether the actor may perform baker-only operations.
func (a Actor) IsBaker() bool {
	return a.Role == models.RoleBaker
}

func requireBaker(actor Actor, action string) error {
	if !actor.IsBaker() {
		return apperror.Forbidden(fmt.Sprintf("only bakers can %s", action))
	}
	return nil
}

// lookupError turns a repository failure into a typed error.
func lookupError(err error, what string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.NotFound(fmt.Sprintf("%s not found", what))
	}
	return apperror.Internal(err, fmt.Sprintf("failed to load %s", what))
}
