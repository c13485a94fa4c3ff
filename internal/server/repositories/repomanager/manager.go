package repomanager

import (
	"context"
	"database/sql"

	"finledger/internal/dbx"
	"finledger/internal/server/repositories/transactions"
	"finledger/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a database
// handle. Passing a transactional DBTX yields repositories that run inside
// that transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Transactions(db dbx.DBTX) transactions.Repository
}
