package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finledger/internal/common"
	"finledger/internal/logging"
	"finledger/internal/server/auth"
	"finledger/internal/server/config"
	"finledger/internal/server/models"
	"finledger/internal/server/services"
)

const testSecret = "test-secret"

// --- in-memory providers ---

type memUsers struct {
	nextID int64
	byMail map[string]*models.User
	pass   map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byMail: make(map[string]*models.User), pass: make(map[string]string)}
}

func (m *memUsers) Register(ctx context.Context, email, password string) (*services.AuthResult, error) {
	email = strings.ToLower(email)
	if len(password) < services.MinPasswordLength {
		return nil, fmt.Errorf("%w: password too short", common.ErrorValidation)
	}
	if _, exists := m.byMail[email]; exists {
		return nil, common.ErrorAlreadyExists
	}
	m.nextID++
	user := &models.User{ID: m.nextID, Email: email, CreatedAt: time.Now()}
	m.byMail[email] = user
	m.pass[email] = password
	token, err := auth.GenerateToken(user.ID, user.Email, []byte(testSecret), time.Hour)
	if err != nil {
		return nil, err
	}
	return &services.AuthResult{User: user, Token: token}, nil
}

func (m *memUsers) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	email = strings.ToLower(email)
	user, exists := m.byMail[email]
	if !exists || m.pass[email] != password {
		return nil, common.ErrorUnauthorized
	}
	token, err := auth.GenerateToken(user.ID, user.Email, []byte(testSecret), time.Hour)
	if err != nil {
		return nil, err
	}
	return &services.AuthResult{User: user, Token: token}, nil
}

func (m *memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range m.byMail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type memLedger struct {
	nextID int64
	byID   map[int64]*models.Transaction
}

func newMemLedger() *memLedger {
	return &memLedger{byID: make(map[int64]*models.Transaction)}
}

func (m *memLedger) Create(ctx context.Context, userID int64, t *models.Transaction) (*models.Transaction, error) {
	t.UserID = userID
	if err := t.Validate(); err != nil {
		return nil, err
	}
	m.nextID++
	t.ID = m.nextID
	m.byID[t.ID] = t
	return t, nil
}

func (m *memLedger) List(ctx context.Context, userID int64, filter models.TransactionFilter) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range m.byID {
		if t.UserID != userID {
			continue
		}
		if filter.Kind != nil && t.Kind != *filter.Kind {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *memLedger) Get(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if t.UserID != userID {
		return nil, common.ErrorForbidden
	}
	return t, nil
}

func (m *memLedger) Update(ctx context.Context, userID, id int64, patch models.TransactionPatch) (*models.Transaction, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", common.ErrorValidation)
	}
	t, err := m.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Kind != nil {
		t.Kind = *patch.Kind
	}
	if patch.AmountCents != nil {
		t.AmountCents = *patch.AmountCents
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	return t, nil
}

func (m *memLedger) Delete(ctx context.Context, userID, id int64) error {
	if _, err := m.Get(ctx, userID, id); err != nil {
		return err
	}
	delete(m.byID, id)
	return nil
}

func (m *memLedger) Summary(ctx context.Context, userID int64) (*models.Summary, error) {
	s := &models.Summary{}
	for _, t := range m.byID {
		if t.UserID != userID {
			continue
		}
		s.Count++
		if t.Kind == models.KindIncome {
			s.TotalIncomeCents += t.AmountCents
		} else {
			s.TotalExpenseCents += t.AmountCents
		}
	}
	s.BalanceCents = s.TotalIncomeCents - s.TotalExpenseCents
	return s, nil
}

type memExport struct {
	lastUserID int64
}

func (m *memExport) Export(ctx context.Context, userID int64, filter models.TransactionFilter) (*services.ExportResult, error) {
	m.lastUserID = userID
	return &services.ExportResult{Key: "exports/x.csv", URL: "http://s3.local/exports/x.csv?signed"}, nil
}

// --- harness ---

func newTestServer(t *testing.T) (*Server, *memLedger) {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = testSecret
	cfg.RateLimitMax = 1000
	cfg.RateLimitWindow = time.Minute

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ledger := newMemLedger()

	srv := NewServer(cfg, logger, nil, newMemUsers(), ledger, &memExport{})
	t.Cleanup(func() { srv.limiter.Stop() })

	return srv, ledger
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[errorResponse](t, rec).Error.Code
}

// --- tests ---

func TestAuthAndLedgerFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	// Register.
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": "A@B.com", "password": "GoodPass123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	reg := decodeBody[authResponse](t, rec)
	require.NotEmpty(t, reg.Token)
	assert.Equal(t, "a@b.com", reg.User.Email)

	// Duplicate registration.
	rec = doJSON(t, h, http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": "a@b.com", "password": "GoodPass123"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", errorCode(t, rec))

	// Login with the wrong password.
	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "a@b.com", "password": "WrongPass123"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, rec))

	// Login with the right one.
	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "a@b.com", "password": "GoodPass123"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeBody[authResponse](t, rec).Token

	// Who am I.
	rec = doJSON(t, h, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.com", decodeBody[userResponse](t, rec).Email)

	// Create an expense.
	rec = doJSON(t, h, http.MethodPost, "/api/transactions", token,
		map[string]string{"kind": "EXPENSE", "amount": "50.00", "date": "2025-06-21"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[transactionResponse](t, rec)
	assert.Equal(t, "50.00", created.Amount)
	assert.Equal(t, "EXPENSE", created.Kind)
	assert.Equal(t, "2025-06-21", created.Date)

	// Summary reflects it.
	rec = doJSON(t, h, http.MethodGet, "/api/summary", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decodeBody[summaryResponse](t, rec)
	assert.Equal(t, "0.00", sum.TotalIncome)
	assert.Equal(t, "50.00", sum.TotalExpense)
	assert.Equal(t, "-50.00", sum.Balance)
	assert.Equal(t, int64(1), sum.Count)

	// Patch the amount.
	rec = doJSON(t, h, http.MethodPatch, fmt.Sprintf("/api/transactions/%d", created.ID), token,
		map[string]string{"amount": "75.50"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "75.50", decodeBody[transactionResponse](t, rec).Amount)

	// Delete it.
	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/me"},
		{http.MethodGet, "/api/transactions"},
		{http.MethodPost, "/api/transactions"},
		{http.MethodGet, "/api/summary"},
		{http.MethodPost, "/api/transactions/export"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := doJSON(t, h, tt.method, tt.path, "", nil)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "UNAUTHENTICATED", errorCode(t, rec))
		})
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	// Token signed with another secret.
	foreign, err := auth.GenerateToken(1, "a@b.com", []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodGet, "/api/me", foreign, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = doJSON(t, h, http.MethodGet, "/api/me", "not.a.token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOwnershipEnforcedAcrossUsers(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	register := func(email string) string {
		rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "",
			map[string]string{"email": email, "password": "GoodPass123"})
		require.Equal(t, http.StatusCreated, rec.Code)
		return decodeBody[authResponse](t, rec).Token
	}

	alice := register("alice@example.com")
	mallory := register("mallory@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/transactions", alice,
		map[string]string{"kind": "INCOME", "amount": "2500.00", "date": "2025-06-01"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[transactionResponse](t, rec).ID

	path := fmt.Sprintf("/api/transactions/%d", id)

	rec = doJSON(t, h, http.MethodGet, path, mallory, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = doJSON(t, h, http.MethodPatch, path, mallory, map[string]string{"amount": "1.00"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, path, mallory, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// The record is intact for its owner.
	rec = doJSON(t, h, http.MethodGet, path, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2500.00", decodeBody[transactionResponse](t, rec).Amount)
}

func TestCreateValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": "v@example.com", "password": "GoodPass123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody[authResponse](t, rec).Token

	tests := []struct {
		name string
		body map[string]string
	}{
		{"bad kind", map[string]string{"kind": "TRANSFER", "amount": "10.00", "date": "2025-06-01"}},
		{"zero amount", map[string]string{"kind": "EXPENSE", "amount": "0", "date": "2025-06-01"}},
		{"negative amount", map[string]string{"kind": "EXPENSE", "amount": "-5.00", "date": "2025-06-01"}},
		{"three decimals", map[string]string{"kind": "EXPENSE", "amount": "1.999", "date": "2025-06-01"}},
		{"amount over ceiling", map[string]string{"kind": "EXPENSE", "amount": "1000000.00", "date": "2025-06-01"}},
		{"bad date", map[string]string{"kind": "EXPENSE", "amount": "10.00", "date": "21-06-2025"}},
		{"missing date", map[string]string{"kind": "EXPENSE", "amount": "10.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/transactions", token, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
		})
	}
}

func TestListFilterByKind(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": "f@example.com", "password": "GoodPass123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody[authResponse](t, rec).Token

	for _, body := range []map[string]string{
		{"kind": "INCOME", "amount": "100.00", "date": "2025-06-01"},
		{"kind": "EXPENSE", "amount": "40.00", "date": "2025-06-02"},
		{"kind": "EXPENSE", "amount": "60.00", "date": "2025-06-03"},
	} {
		rec := doJSON(t, h, http.MethodPost, "/api/transactions", token, body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/transactions?kind=EXPENSE", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[transactionListResponse](t, rec)
	require.Len(t, list.Transactions, 2)
	for _, tx := range list.Transactions {
		assert.Equal(t, "EXPENSE", tx.Kind)
	}
}

func TestExportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": "e@example.com", "password": "GoodPass123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody[authResponse](t, rec).Token

	rec = doJSON(t, h, http.MethodPost, "/api/transactions/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody[exportResponse](t, rec)
	assert.NotEmpty(t, out.Key)
	assert.Contains(t, out.URL, "?signed")
}

func TestMalformedJSONBody(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
}

func TestRateLimitedResponse(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = testSecret
	cfg.RateLimitMax = 2
	cfg.RateLimitWindow = time.Minute

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := NewServer(cfg, logger, nil, newMemUsers(), newMemLedger(), &memExport{})
	t.Cleanup(func() { srv.limiter.Stop() })
	h := srv.Handler()

	for i := 0; i < 2; i++ {
		rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
