// Package users persists identity records: creation with case-insensitive
// email uniqueness, and lookup by email or id.
package users

import (
	"context"

	"finledger/internal/server/models"
)

type Repository interface {
	// Create inserts the user and fills in the generated id and timestamps.
	// A duplicate email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail looks a user up case-insensitively.
	// common.ErrorNotFound when no such user exists.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID fetches a user by primary key.
	// common.ErrorNotFound when no such user exists.
	GetByID(ctx context.Context, id int64) (*models.User, error)
}
