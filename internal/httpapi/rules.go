package httpapi

import (
	"errors"
	"net/http"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/errs"
)

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.Rules(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) postRule(w http.ResponseWriter, r *http.Request) {
	var req postRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}

	cents, err := requestCents(req.Amount, req.AmountCents)
	if err != nil {
		unprocessable(w, err.Error(), "validation_error")
		return
	}

	rule := core.RecurringRule{
		Type:       req.Type,
		Amount:     core.Money{Cents: cents},
		CategoryID: req.CategoryID,
		WalletID:   req.WalletID,
		ToWalletID: req.ToWalletID,
		Note:       req.Note,
		Frequency:  req.Frequency,
		StartDate:  req.StartDate,
		NextDue:    req.StartDate,
	}
	if err := rule.Validate(); err != nil {
		unprocessable(w, err.Error(), "validation_error")
		return
	}

	created, err := s.store.CreateRule(r.Context(), rule)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toRuleResponse(created))
}

func (s *Server) deleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid rule id")
		return
	}
	if err := s.store.DeleteRule(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// catchUpRules replays overdue recurring occurrences. A truncated run is
// reported as 202: work happened, more remains for the next call.
func (s *Server) catchUpRules(w http.ResponseWriter, r *http.Request) {
	err := s.scheduler.CatchUp(r.Context(), time.Now())
	s.InvalidateSummaries()
	switch {
	case err == nil:
		toJSON(w, http.StatusOK, catchUpResponse{Status: "ok"})
	case errors.Is(err, errs.ErrAlreadyRunning):
		writeErr(w, http.StatusConflict, err.Error(), "already_running")
	case errors.Is(err, errs.ErrCatchUpTruncated):
		toJSON(w, http.StatusAccepted, catchUpResponse{Status: "truncated", Detail: err.Error()})
	default:
		writeDomainErr(w, err)
	}
}
