package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/omanfreight/quote-service/pkg/errors"
	"github.com/omanfreight/quote-service/pkg/pagination"
)

// ParseQueryInt reads an optional integer query parameter. Failures use the
// same field-keyed details as body validation.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError(key, "must be a whole number")
	}
	if value < min || value > max {
		return 0, queryError(key, fmt.Sprintf("must be between %d and %d", min, max))
	}
	return value, nil
}

// ParsePage reads limit and cursor for list endpoints. A cursor that does not
// decode is rejected here rather than reaching the repository.
func ParsePage(r *http.Request) (pagination.Params, error) {
	limit, err := ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	if _, err := pagination.ParseCursor(cursor); err != nil {
		return pagination.Params{}, queryError("cursor", "is not a valid page cursor")
	}
	return pagination.Params{Limit: limit, Cursor: cursor}, nil
}

func queryError(field, msg string) error {
	return pkgerrors.Fields("invalid query parameter", map[string]string{field: msg})
}
