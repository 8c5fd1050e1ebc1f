package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

// parsePeriod reads year/month query params, defaulting to the session's
// selected month.
func (s *Server) parsePeriod(r *http.Request) (int, time.Month, bool) {
	year, month := s.ledger.View().Month()
	q := r.URL.Query()
	if raw := q.Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1970 || y > 9999 {
			return 0, 0, false
		}
		year = y
	}
	if raw := q.Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, false
		}
		month = time.Month(m)
	}
	return year, month, true
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	year, month, ok := s.parsePeriod(r)
	if !ok {
		badRequest(w, "invalid year or month")
		return
	}
	categories, err := s.store.Categories(r.Context(), year, month)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) postCategory(w http.ResponseWriter, r *http.Request) {
	var req postCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}

	cat := core.Category{
		Name:  req.Name,
		Type:  req.Type,
		Group: req.Group,
		Icon:  core.ResolveIconKind(req.Name),
	}
	if err := cat.Validate(); err != nil {
		unprocessable(w, err.Error(), "validation_error")
		return
	}

	created, err := s.store.CreateCategory(r.Context(), cat)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := s.ledger.Reload(r.Context()); err != nil {
		s.log.Error("reload after category create", "err", err)
	}
	toJSON(w, http.StatusCreated, toCategoryResponse(created))
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid category id")
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}

	updated, err := s.store.UpdateCategory(r.Context(), id, req.Name, req.Group)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := s.ledger.Reload(r.Context()); err != nil {
		s.log.Error("reload after category update", "err", err)
	}
	toJSON(w, http.StatusOK, toCategoryResponse(updated))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid category id")
		return
	}
	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := s.ledger.Reload(r.Context()); err != nil {
		s.log.Error("reload after category delete", "err", err)
	}
	s.InvalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) putCategoryBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid category id")
		return
	}
	var req putBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}

	if err := s.allocator.UpdateCategoryBudget(r.Context(), id, core.Money{Cents: req.LimitCents}); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.InvalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) allocateBudgets(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if len(req.Allocations) == 0 {
		badRequest(w, "allocations is required")
		return
	}

	allocations := make(map[uuid.UUID]core.Money, len(req.Allocations))
	for id, cents := range req.Allocations {
		allocations[id] = core.Money{Cents: cents}
	}

	if err := s.allocator.Allocate(r.Context(), allocations); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.InvalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}
