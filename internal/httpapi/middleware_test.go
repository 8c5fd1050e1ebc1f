package httpapi

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bilancio/internal/log"
)

func TestRequestLoggerFieldNames(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := requestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/wallets", nil))

	out := buf.String()
	for _, key := range []string{
		log.FieldRequestID,
		log.FieldMethod,
		log.FieldPath,
		log.FieldStatusCode,
		log.FieldDuration,
	} {
		if !strings.Contains(out, key+"=") {
			t.Errorf("request log missing field %q in %q", key, out)
		}
	}
}
