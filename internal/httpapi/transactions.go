package httpapi

import (
	"net/http"

	"bilancio/internal/storage"
)

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	filter := storage.TransactionFilter{}
	if r.URL.Query().Get("year") != "" || r.URL.Query().Get("month") != "" {
		year, month, ok := s.parsePeriod(r)
		if !ok {
			badRequest(w, "invalid year or month")
			return
		}
		filter = storage.TransactionFilter{Year: year, Month: month}
	}

	txs, err := s.store.Transactions(r.Context(), filter)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid transaction id")
		return
	}
	tx, err := s.store.Transaction(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	var req postTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}

	tx, err := toTransactionDomain(req)
	if err != nil {
		unprocessable(w, err.Error(), "validation_error")
		return
	}

	created, err := s.ledger.RecordTransaction(r.Context(), tx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.InvalidateSummaries()
	toJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) putTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid transaction id")
		return
	}
	var req postTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}

	tx, err := toTransactionDomain(req)
	if err != nil {
		unprocessable(w, err.Error(), "validation_error")
		return
	}

	updated, err := s.ledger.ReviseTransaction(r.Context(), id, tx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.InvalidateSummaries()
	toJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid transaction id")
		return
	}
	if err := s.ledger.RemoveTransaction(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.InvalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}
