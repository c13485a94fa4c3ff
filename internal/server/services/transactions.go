package services

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/sync/errgroup"

	"finledger/internal/common"
	"finledger/internal/dbx"
	"finledger/internal/logging"
	"finledger/internal/server/events"
	"finledger/internal/server/models"
	"finledger/internal/server/repositories/repomanager"
)

const (
	// DefaultListLimit is used when a listing request names no page size.
	DefaultListLimit = 50
	// MaxListLimit caps the page size a client may request.
	MaxListLimit = 200
)

type TransactionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	publisher   events.Publisher
	logger      logging.Logger
}

func NewTransactionService(db *sql.DB, m repomanager.RepositoryManager, p events.Publisher, l logging.Logger) *TransactionService {
	return &TransactionService{
		db:          db,
		repomanager: m,
		publisher:   p,
		logger:      l,
	}
}

// publishEvent emits a change notification. Events are best-effort: a broker
// failure is logged and does not fail the mutation that triggered it.
func (s *TransactionService) publishEvent(ctx context.Context, action string, t *models.Transaction) {
	if err := s.publisher.Publish(ctx, events.NewTransactionEvent(action, t)); err != nil {
		s.logger.Warn(ctx, "failed to publish transaction event", "action", action, "id", t.ID, "error", err)
	}
}

// Create validates and stores a new record owned by userID.
func (s *TransactionService) Create(ctx context.Context, userID int64, t *models.Transaction) (*models.Transaction, error) {
	t.UserID = userID

	if err := t.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Transactions(s.db)

	created, err := repo.Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("error creating transaction: %w", err)
	}

	s.publishEvent(ctx, events.ActionCreated, created)

	return created, nil
}

// List returns the user's records matching the filter, newest first. The
// page size is clamped to [1, MaxListLimit]; a negative offset is treated
// as zero.
func (s *TransactionService) List(ctx context.Context, userID int64, filter models.TransactionFilter) ([]models.Transaction, error) {
	if filter.Kind != nil && !filter.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind must be INCOME or EXPENSE", common.ErrorValidation)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%w: date range end precedes start", common.ErrorValidation)
	}

	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	repo := s.repomanager.Transactions(s.db)

	list, err := repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}

	return list, nil
}

// Get fetches a single record, enforcing ownership: a record that does not
// exist yields common.ErrorNotFound, one owned by someone else yields
// common.ErrorForbidden.
func (s *TransactionService) Get(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	repo := s.repomanager.Transactions(s.db)

	t, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, common.ErrorForbidden
	}

	return t, nil
}

// Update applies a partial update to a record the user owns. The existence
// check, the ownership check and the write run in one transaction so a
// concurrent delete cannot slip between them.
func (s *TransactionService) Update(ctx context.Context, userID, id int64, patch models.TransactionPatch) (*models.Transaction, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", common.ErrorValidation)
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var updated *models.Transaction

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Transactions(tx)

		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing.UserID != userID {
			return common.ErrorForbidden
		}

		updated, err = repo.Update(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.ActionUpdated, updated)

	return updated, nil
}

// Delete removes a record the user owns, under the same transactional
// existence-then-ownership discipline as Update.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	var deleted *models.Transaction

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Transactions(tx)

		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing.UserID != userID {
			return common.ErrorForbidden
		}

		ok, err := repo.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrorNotFound
		}

		deleted = existing
		return nil
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, events.ActionDeleted, deleted)

	return nil
}

// Summary aggregates the user's whole ledger. The two kind totals are
// computed concurrently.
func (s *TransactionService) Summary(ctx context.Context, userID int64) (*models.Summary, error) {
	repo := s.repomanager.Transactions(s.db)

	var (
		incomeCents, incomeCount   int64
		expenseCents, expenseCount int64
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		incomeCents, incomeCount, err = repo.SumByKind(ctx, userID, models.KindIncome)
		return err
	})
	g.Go(func() error {
		var err error
		expenseCents, expenseCount, err = repo.SumByKind(ctx, userID, models.KindExpense)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error computing summary: %w", err)
	}

	return &models.Summary{
		TotalIncomeCents:  incomeCents,
		TotalExpenseCents: expenseCents,
		BalanceCents:      incomeCents - expenseCents,
		Count:             incomeCount + expenseCount,
	}, nil
}

func validatePatch(p models.TransactionPatch) error {
	if p.Kind != nil && !p.Kind.Valid() {
		return fmt.Errorf("%w: kind must be INCOME or EXPENSE", common.ErrorValidation)
	}
	if p.AmountCents != nil {
		if *p.AmountCents <= 0 {
			return fmt.Errorf("%w: amount must be positive", common.ErrorValidation)
		}
		if *p.AmountCents > models.MaxAmountCents {
			return fmt.Errorf("%w: amount exceeds %s", common.ErrorValidation, models.FormatCents(models.MaxAmountCents))
		}
	}
	if p.Description != nil && len(*p.Description) > models.MaxDescriptionLength {
		return fmt.Errorf("%w: description longer than %d characters", common.ErrorValidation, models.MaxDescriptionLength)
	}
	if p.Date != nil && p.Date.IsZero() {
		return fmt.Errorf("%w: date is required", common.ErrorValidation)
	}
	return nil
}
