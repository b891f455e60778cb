package pricing

import (
	"strings"

	"github.com/omanfreight/quote-service/pkg/validation"
)

// ValidateRequest checks the request shape before any product lookup.
func ValidateRequest(req Request) error {
	return validation.Struct(req)
}

// Normalize trims surrounding whitespace from the free-text fields.
func (r Request) Normalize() Request {
	r.ProductID = strings.TrimSpace(r.ProductID)
	r.DeliveryCity = strings.TrimSpace(r.DeliveryCity)
	r.DeliveryCountry = strings.TrimSpace(r.DeliveryCountry)
	return r
}
