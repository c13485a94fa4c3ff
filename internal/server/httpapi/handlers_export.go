package httpapi

import (
	"net/http"
)

type ExportHandler struct {
	env    *Env
	export ExportProvider
}

func NewExportHandler(env *Env, export ExportProvider) *ExportHandler {
	return &ExportHandler{env: env, export: export}
}

// Export handles POST /api/transactions/export: renders the caller's records
// matching the query filter as CSV, uploads the file and answers with a
// time-limited download link.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())

	filter, err := parseListFilter(r)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	res, err := h.export.Export(r.Context(), user.ID, filter)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	h.env.writeJSON(w, http.StatusOK, exportResponse{Key: res.Key, URL: res.URL})
}
