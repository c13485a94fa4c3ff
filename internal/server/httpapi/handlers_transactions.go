package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"finledger/internal/common"
	"finledger/internal/logging"
	"finledger/internal/server/models"
)

type TransactionHandler struct {
	env       *Env
	ledger    LedgerProvider
	summarize func(context.Context, int64) (*models.Summary, error)
}

func NewTransactionHandler(env *Env, ledger LedgerProvider) *TransactionHandler {
	return &TransactionHandler{
		env:       env,
		ledger:    ledger,
		summarize: logging.Timed(env.Logger, "ledger.summary", ledger.Summary),
	}
}

type createTransactionRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type patchTransactionRequest struct {
	Kind        *string `json:"kind"`
	Amount      *string `json:"amount"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be in YYYY-MM-DD form", common.ErrorValidation)
	}
	return d, nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed id", common.ErrorValidation)
	}
	return id, nil
}

// Create handles POST /api/transactions.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.env.writeError(w, r, fmt.Errorf("%w: malformed request body", common.ErrorValidation))
		return
	}

	cents, err := models.ParseAmountToCents(req.Amount)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	created, err := h.ledger.Create(r.Context(), user.ID, &models.Transaction{
		Kind:        models.TransactionKind(req.Kind),
		AmountCents: cents,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	h.env.writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

// parseListFilter reads the filter query parameters shared by listing and
// export: kind, from, to, limit, offset.
func parseListFilter(r *http.Request) (models.TransactionFilter, error) {
	var filter models.TransactionFilter
	q := r.URL.Query()

	if raw := q.Get("kind"); raw != "" {
		kind := models.TransactionKind(raw)
		filter.Kind = &kind
	}
	if raw := q.Get("from"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.To = &to
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("%w: malformed limit", common.ErrorValidation)
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("%w: malformed offset", common.ErrorValidation)
		}
		filter.Offset = offset
	}

	return filter, nil
}

// List handles GET /api/transactions.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())

	filter, err := parseListFilter(r)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	list, err := h.ledger.List(r.Context(), user.ID, filter)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	resp := transactionListResponse{Transactions: make([]transactionResponse, 0, len(list))}
	for i := range list {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(&list[i]))
	}

	h.env.writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())

	id, err := pathID(r)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	t, err := h.ledger.Get(r.Context(), user.ID, id)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	h.env.writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

// Update handles PATCH /api/transactions/{id}. Only fields present in the
// body change; absent fields keep their stored values.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())

	id, err := pathID(r)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	var req patchTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.env.writeError(w, r, fmt.Errorf("%w: malformed request body", common.ErrorValidation))
		return
	}

	var patch models.TransactionPatch
	if req.Kind != nil {
		kind := models.TransactionKind(*req.Kind)
		patch.Kind = &kind
	}
	if req.Amount != nil {
		cents, err := models.ParseAmountToCents(*req.Amount)
		if err != nil {
			h.env.writeError(w, r, err)
			return
		}
		patch.AmountCents = &cents
	}
	if req.Description != nil {
		patch.Description = req.Description
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			h.env.writeError(w, r, err)
			return
		}
		patch.Date = &date
	}

	updated, err := h.ledger.Update(r.Context(), user.ID, id, patch)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	h.env.writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

// Delete handles DELETE /api/transactions/{id}.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())

	id, err := pathID(r)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	if err := h.ledger.Delete(r.Context(), user.ID, id); err != nil {
		h.env.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/summary.
func (h *TransactionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())

	summary, err := h.summarize(r.Context(), user.ID)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	h.env.writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}
