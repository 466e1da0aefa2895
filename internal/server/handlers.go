package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
)

// listRequest is the decoded query string of GET /api/recipes.
type listRequest struct {
	Offset int    `json:"offset" validate:"gte=0"`
	Limit  int    `json:"limit" validate:"gte=1,lte=200"`
	Sort   string `json:"sort" validate:"omitempty,sortkey"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	req := listRequest{Limit: domain.PageSize, Sort: params.Get("sort")}

	var err error
	if v := params.Get("offset"); v != "" {
		if req.Offset, err = strconv.Atoi(v); err != nil {
			respondError(w, http.StatusBadRequest, "offset must be an integer")
			return
		}
	}
	if v := params.Get("limit"); v != "" {
		if req.Limit, err = strconv.Atoi(v); err != nil {
			respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var q domain.Query
	if raw := params.Get("filters"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &q.Filters); err != nil {
			respondError(w, http.StatusBadRequest, "filters: "+err.Error())
			return
		}
	}
	q.Sort, _ = domain.ParseSortKey(req.Sort)

	page, err := s.provider.FetchRecipes(r.Context(), q, req.Offset, req.Limit)
	if err != nil {
		s.log.Error("server: fetching %s: %v", q, err)
		respondError(w, statusFor(err), "could not load recipes")
		return
	}
	if page.Items == nil {
		page.Items = []domain.Recipe{}
	}
	respondJSON(w, http.StatusOK, page)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.listCatalog(w, r, domain.Catalog.Categories)
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	s.listCatalog(w, r, domain.Catalog.Tags)
}

func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request, list func(domain.Catalog, context.Context) ([]string, error)) {
	cat, ok := s.provider.(domain.Catalog)
	if !ok {
		respondError(w, http.StatusNotImplemented, "catalog not available")
		return
	}
	vals, err := list(cat, r.Context())
	if err != nil {
		s.log.Error("server: listing catalog: %v", err)
		respondError(w, statusFor(err), "could not list values")
		return
	}
	if vals == nil {
		vals = []string{}
	}
	respondJSON(w, http.StatusOK, vals)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
