// Package users persists accounts for the credential store.
package users

import (
	"context"

	"github.com/dmitrijs2005/tumordetect/internal/server/models"
)

// Repository stores and looks up users.
//
// Create inserts exactly once and relies on the unique constraint on
// username: a duplicate yields common.ErrDuplicateUsername. GetUserByLogin
// returns common.ErrorNotFound for an unknown username.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, username string) (*models.User, error)
}
