package models

import (
	"fmt"
	"time"

	"finledger/internal/common"
)

// TransactionKind distinguishes money coming in from money going out.
type TransactionKind string

const (
	KindIncome  TransactionKind = "INCOME"
	KindExpense TransactionKind = "EXPENSE"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

const (
	// MaxAmountCents is the amount ceiling (999999.99) expressed in cents.
	MaxAmountCents = 99_999_999

	// MaxDescriptionLength bounds the optional free-text description.
	MaxDescriptionLength = 500
)

// Transaction is one financial record, owned by exactly one user. Amounts are
// stored as integer cents; the decimal representation exists only at the API
// boundary.
type Transaction struct {
	ID          int64
	UserID      int64
	Kind        TransactionKind
	AmountCents int64
	Description string // optional, "" when absent
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the record against the domain invariants. All failures wrap
// common.ErrorValidation.
func (t *Transaction) Validate() error {
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: kind must be INCOME or EXPENSE", common.ErrorValidation)
	}
	if t.AmountCents <= 0 {
		return fmt.Errorf("%w: amount must be positive", common.ErrorValidation)
	}
	if t.AmountCents > MaxAmountCents {
		return fmt.Errorf("%w: amount exceeds %s", common.ErrorValidation, FormatCents(MaxAmountCents))
	}
	if len(t.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description longer than %d characters", common.ErrorValidation, MaxDescriptionLength)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is required", common.ErrorValidation)
	}
	return nil
}

// TransactionFilter narrows a listing. Nil fields do not constrain; set fields
// are AND-combined.
type TransactionFilter struct {
	Kind   *TransactionKind
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// TransactionPatch carries a partial update. Only non-nil fields are applied.
type TransactionPatch struct {
	Kind        *TransactionKind
	AmountCents *int64
	Description *string
	Date        *time.Time
}

// Empty reports whether the patch changes nothing.
func (p TransactionPatch) Empty() bool {
	return p.Kind == nil && p.AmountCents == nil && p.Description == nil && p.Date == nil
}

// Summary aggregates a user's records. Zero-valued when the user has none.
type Summary struct {
	TotalIncomeCents  int64
	TotalExpenseCents int64
	BalanceCents      int64
	Count             int64
}
