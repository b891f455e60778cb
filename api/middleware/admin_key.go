package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/omanfreight/quote-service/api/responses"
	pkgerrors "github.com/omanfreight/quote-service/pkg/errors"
	"github.com/omanfreight/quote-service/pkg/logger"
)

const adminKeyHeader = "X-Admin-Key"

// AdminKey admits requests carrying the shared catalog maintenance key.
func AdminKey(key string, logg *logger.Logger) func(http.Handler) http.Handler {
	expected := []byte(strings.TrimSpace(key))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(strings.TrimSpace(r.Header.Get(adminKeyHeader)))
			if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin key required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
