package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"finledger/internal/common"
	"finledger/internal/logging"
	"finledger/internal/server/config"
)

// Env carries what every handler and boundary helper needs.
type Env struct {
	Logger logging.Logger
	Config *config.Config
}

// Stable machine-readable error codes of the API.
const (
	codeUnauthenticated  = "UNAUTHENTICATED"
	codeForbidden        = "FORBIDDEN"
	codeNotFound         = "NOT_FOUND"
	codeEmailTaken       = "EMAIL_TAKEN"
	codeValidationFailed = "VALIDATION_FAILED"
	codeRateLimited      = "RATE_LIMITED"
	codeInternal         = "INTERNAL"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (e *Env) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			e.Logger.Error(context.Background(), "failed to encode response", "error", err)
		}
	}
}

// writeError maps a service error to status and error code. Internal detail
// reaches the client only in development mode; production answers with the
// generic message and the detail stays in the log.
func (e *Env) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Code: codeInternal, Message: "internal error"}

	switch {
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		status = http.StatusUnauthorized
		body = errorBody{Code: codeUnauthenticated, Message: "authentication required"}
	case errors.Is(err, common.ErrorForbidden):
		status = http.StatusForbidden
		body = errorBody{Code: codeForbidden, Message: "access denied"}
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
		body = errorBody{Code: codeNotFound, Message: "resource not found"}
	case errors.Is(err, common.ErrorAlreadyExists):
		status = http.StatusConflict
		body = errorBody{Code: codeEmailTaken, Message: "email already registered"}
	case errors.Is(err, common.ErrorValidation):
		status = http.StatusBadRequest
		body = errorBody{Code: codeValidationFailed, Message: err.Error()}
	case errors.Is(err, common.ErrorRateLimited):
		status = http.StatusTooManyRequests
		body = errorBody{Code: codeRateLimited, Message: "rate limit exceeded"}
	default:
		e.Logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		if e.Config.IsDevelopment() {
			body.Detail = err.Error()
		}
	}

	e.writeJSON(w, status, errorResponse{Error: body})
}
