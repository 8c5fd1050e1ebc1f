package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bilancio/internal/core"
)

func parseID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func (s *Server) listWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := s.store.Wallets(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]walletResponse, 0, len(wallets))
	for _, wallet := range wallets {
		out = append(out, toWalletResponse(wallet))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid wallet id")
		return
	}
	wallet, err := s.store.Wallet(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toWalletResponse(wallet))
}

func (s *Server) postWallet(w http.ResponseWriter, r *http.Request) {
	var req postWalletRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}

	wallet := core.Wallet{
		Name:    req.Name,
		Balance: core.Money{Cents: req.OpeningCents},
		Icon:    walletIcon(req.Icon, req.Name),
	}
	if err := wallet.Validate(); err != nil {
		unprocessable(w, err.Error(), "validation_error")
		return
	}

	created, err := s.store.CreateWallet(r.Context(), wallet)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := s.ledger.Reload(r.Context()); err != nil {
		s.log.Error("reload after wallet create", "err", err)
	}
	s.InvalidateSummaries()
	toJSON(w, http.StatusCreated, toWalletResponse(created))
}

func (s *Server) updateWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid wallet id")
		return
	}
	var req updateWalletRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if err := (core.Wallet{Name: req.Name}).Validate(); err != nil {
		unprocessable(w, err.Error(), "validation_error")
		return
	}

	updated, err := s.store.UpdateWallet(r.Context(), id, req.Name, core.ResolveIconKind(req.Name))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := s.ledger.Reload(r.Context()); err != nil {
		s.log.Error("reload after wallet update", "err", err)
	}
	toJSON(w, http.StatusOK, toWalletResponse(updated))
}

func (s *Server) deleteWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid wallet id")
		return
	}
	if err := s.store.DeleteWallet(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := s.ledger.Reload(r.Context()); err != nil {
		s.log.Error("reload after wallet delete", "err", err)
	}
	s.InvalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}

// walletIcon honors an explicit icon choice, falling back to name-based
// resolution.
func walletIcon(explicit, name string) core.IconKind {
	if kind := core.IconKind(explicit); kind.Valid() {
		return kind
	}
	return core.ResolveIconKind(name)
}
