package httpapi

import (
	"context"
	"time"

	"finledger/internal/server/models"
	"finledger/internal/server/services"
)

// Service interfaces consumed by the HTTP layer. The concrete implementations
// live in the services package; handlers depend only on these so tests can
// substitute fakes.

type UserProvider interface {
	Register(ctx context.Context, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type LedgerProvider interface {
	Create(ctx context.Context, userID int64, t *models.Transaction) (*models.Transaction, error)
	List(ctx context.Context, userID int64, filter models.TransactionFilter) ([]models.Transaction, error)
	Get(ctx context.Context, userID, id int64) (*models.Transaction, error)
	Update(ctx context.Context, userID, id int64, patch models.TransactionPatch) (*models.Transaction, error)
	Delete(ctx context.Context, userID, id int64) error
	Summary(ctx context.Context, userID int64) (*models.Summary, error)
}

type ExportProvider interface {
	Export(ctx context.Context, userID int64, filter models.TransactionFilter) (*services.ExportResult, error)
}

// dateLayout is the wire format for transaction dates.
const dateLayout = "2006-01-02"

// --- wire DTOs ---

type userResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type transactionResponse struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

type transactionListResponse struct {
	Transactions []transactionResponse `json:"transactions"`
}

type summaryResponse struct {
	TotalIncome  string `json:"total_income"`
	TotalExpense string `json:"total_expense"`
	Balance      string `json:"balance"`
	Count        int64  `json:"count"`
}

type exportResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func toUserResponse(u *models.User) userResponse {
	resp := userResponse{ID: u.ID, Email: u.Email}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func toTransactionResponse(t *models.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          t.ID,
		Kind:        string(t.Kind),
		Amount:      models.FormatCents(t.AmountCents),
		Description: t.Description,
		Date:        t.Date.Format(dateLayout),
	}
	if !t.CreatedAt.IsZero() {
		resp.CreatedAt = t.CreatedAt.Format(time.RFC3339)
	}
	if !t.UpdatedAt.IsZero() {
		resp.UpdatedAt = t.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

func toSummaryResponse(s *models.Summary) summaryResponse {
	return summaryResponse{
		TotalIncome:  models.FormatCents(s.TotalIncomeCents),
		TotalExpense: models.FormatCents(s.TotalExpenseCents),
		Balance:      models.FormatCents(s.BalanceCents),
		Count:        s.Count,
	}
}
