package httpapi

import (
	"fmt"
	"net/http"

	"bilancio/internal/budget"
	"bilancio/internal/storage"
)

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	year, month, ok := s.parsePeriod(r)
	if !ok {
		badRequest(w, "invalid year or month")
		return
	}

	key := fmt.Sprintf("%04d-%02d", year, int(month))
	if cached, hit := s.summaries.Get(key); hit {
		toJSON(w, http.StatusOK, toSummaryResponse(cached))
		return
	}

	ctx := r.Context()
	txs, err := s.store.Transactions(ctx, storage.TransactionFilter{Year: year, Month: month})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	categories, err := s.store.Categories(ctx, year, month)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	wallets, err := s.store.Wallets(ctx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	summary := budget.Summarize(txs, categories, wallets, year, month)
	s.summaries.Set(key, summary)
	toJSON(w, http.StatusOK, toSummaryResponse(summary))
}
