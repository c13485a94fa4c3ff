// Package transactions persists financial records scoped by their owning
// user: creation, filtered listing, partial update, deletion and aggregate
// summation.
package transactions

import (
	"context"

	"finledger/internal/server/models"
)

type Repository interface {
	// Create inserts the record and fills in the generated id and timestamps.
	Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)

	// GetByID fetches a record regardless of owner; the ownership check is
	// the service's job. common.ErrorNotFound when no row matches.
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)

	// ListByUser returns the user's records matching the filter, newest date
	// first (id descending within a date).
	ListByUser(ctx context.Context, userID int64, filter models.TransactionFilter) ([]models.Transaction, error)

	// Update applies the non-nil patch fields to the row with the given id
	// and returns the updated record. common.ErrorNotFound when no row
	// matches.
	Update(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error)

	// Delete removes the row with the given id, reporting whether a row was
	// actually removed.
	Delete(ctx context.Context, id int64) (bool, error)

	// SumByKind returns the total cents and row count of the user's records
	// of one kind. Zeroes when there are none.
	SumByKind(ctx context.Context, userID int64, kind models.TransactionKind) (totalCents int64, count int64, err error)
}
