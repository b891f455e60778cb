package validators

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/omanfreight/quote-service/pkg/errors"
	"github.com/omanfreight/quote-service/pkg/pagination"
)

type calcBody struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=10000"`
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"productId":"6f1c2a4e-8d3b-4b7a-9c1e-2f5d8a9b0c3d","quantity":3,"extra":true}`))
	var body calcBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyEmpty(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(""))
	var body calcBody
	err := DecodeJSONBody(req, &body)
	if typed := pkgerrors.As(err); typed == nil || typed.Message() != "request body is required" {
		t.Fatalf("expected empty body error, got %v", err)
	}
}

func TestDecodeJSONBodyRunsValidation(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"productId":"6f1c2a4e-8d3b-4b7a-9c1e-2f5d8a9b0c3d","quantity":20000}`))
	var body calcBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error")
	}
	details := typed.Details().(map[string]string)
	if details["quantity"] != "must be at most 10000" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=500", nil)
	_, err := ParseQueryInt(req, "limit", 20, 1, 100)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected range error, got %v", err)
	}
	if details := typed.Details().(map[string]string); details["limit"] != "must be between 1 and 100" {
		t.Fatalf("unexpected details %v", typed.Details())
	}
	req = httptest.NewRequest("GET", "/", nil)
	v, err := ParseQueryInt(req, "limit", 20, 1, 100)
	if err != nil || v != 20 {
		t.Fatalf("expected default 20, got %d (%v)", v, err)
	}
}

func TestParsePage(t *testing.T) {
	cursor := pagination.EncodeCursor(pagination.Cursor{
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		ID:        uuid.New(),
	})
	req := httptest.NewRequest("GET", "/?limit=5&cursor="+cursor, nil)
	params, err := ParsePage(req)
	if err != nil || params.Limit != 5 || params.Cursor != cursor {
		t.Fatalf("unexpected page %+v (%v)", params, err)
	}

	params, err = ParsePage(httptest.NewRequest("GET", "/", nil))
	if err != nil || params.Limit != pagination.DefaultLimit || params.Cursor != "" {
		t.Fatalf("unexpected default page %+v (%v)", params, err)
	}

	_, err = ParsePage(httptest.NewRequest("GET", "/?cursor=not-a-cursor", nil))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := typed.Details().(map[string]string)["cursor"]; !ok {
		t.Fatalf("expected cursor detail, got %v", typed.Details())
	}
}

func TestDecodeJSONBodyCapsSize(t *testing.T) {
	body := `{"productId":"` + strings.Repeat("a", maxBodyBytes) + `","quantity":3}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	var dest struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	err := DecodeJSONBody(req, &dest)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "request body too large" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}
