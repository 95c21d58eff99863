package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domanalysis "github.com/bryanwahyu/skillscope/internal/domain/analysis"
	"github.com/bryanwahyu/skillscope/internal/domain/identity"
	"github.com/bryanwahyu/skillscope/internal/middleware"
)

// GET /session
func (r *Router) handleSession(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, identity.FromContext(req.Context()))
}

// DELETE /session
// Tokens are not tracked server-side; the client drops its token.
func (r *Router) handleSignOut(w http.ResponseWriter, req *http.Request) error {
	r.log.Info("signed out", "user_id", identity.UserID(req.Context()))
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /interests?limit=5
func (r *Router) handleInterests(w http.ResponseWriter, req *http.Request) error {
	limit := middleware.ValidateLimit(queryInt(req, "limit"), 5, 20)
	list, err := r.analysis.TopInterests(req.Context(), limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /analyses?page=&page_size=
func (r *Router) handleListAnalyses(w http.ResponseWriter, req *http.Request) error {
	page := middleware.ValidatePage(queryInt(req, "page"))
	size := middleware.ValidateLimit(queryInt(req, "page_size"), 20, 100)

	list, err := r.analysis.ListHistory(req.Context(), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"items":     list,
		"page":      page,
		"page_size": size,
	})
}

// GET /analyses/{id}
func (r *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.analysis.GetHistory(req.Context(), domanalysis.RecordID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}
