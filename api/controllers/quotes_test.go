package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/omanfreight/quote-service/api/middleware"
	"github.com/omanfreight/quote-service/internal/pricing"
	"github.com/omanfreight/quote-service/internal/quotes"
	pkgerrors "github.com/omanfreight/quote-service/pkg/errors"
	"github.com/omanfreight/quote-service/pkg/logger"
)

const testProductID = "6f1c2a4e-8d3b-4b7a-9c1e-2f5d8a9b0c3d"

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

type stubQuoteService struct {
	engine    *pricing.Engine
	product   pricing.Product
	submitted quotes.SubmitInput
	stored    *quotes.QuoteDTO
	err       error
}

func newStubQuoteService() *stubQuoteService {
	lead := 10
	return &stubQuoteService{
		engine: pricing.NewEngine(pricing.DefaultOptions()),
		product: pricing.Product{
			ID:            testProductID,
			BaseUnitPrice: decimal.NewFromInt(10),
			MinOrderQty:   5,
			PricingTiers:  []pricing.Tier{{MinQty: 50, UnitPrice: decimal.NewFromInt(8)}},
			WeightKg:      decimal.NewFromInt(20),
			VolumeCbm:     decimal.NewFromInt(1),
			Currency:      "OMR",
			LeadTimeDays:  &lead,
		},
	}
}

func (s *stubQuoteService) Calculate(_ context.Context, req pricing.Request) (*pricing.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	res, err := s.engine.Quote(s.product, req)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *stubQuoteService) Submit(ctx context.Context, input quotes.SubmitInput) (*quotes.QuoteDTO, error) {
	s.submitted = input
	res, err := s.Calculate(ctx, input.Request.PricingRequest())
	if err != nil {
		return nil, err
	}
	return &quotes.QuoteDTO{Reference: "Q-2026-000001", Status: "pending", QuoteResultDTO: quotes.FromResult(*res)}, nil
}

func (s *stubQuoteService) GetByReference(_ context.Context, reference string) (*quotes.QuoteDTO, error) {
	if s.stored == nil || s.stored.Reference != reference {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	return s.stored, nil
}

func postJSON(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestQuoteCalculateSoharExample(t *testing.T) {
	handler := QuoteCalculate(newStubQuoteService(), testLogger())
	rec := postJSON(handler, "/api/v1/quotes/calculate",
		`{"productId":"`+testProductID+`","quantity":60,"deliveryCity":"Sohar","deliveryCountry":"Oman"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"productId":      testProductID,
		"unitPrice":      8.0,
		"subtotal":       480.0,
		"shippingFee":    228.0,
		"discountAmount": 14.4,
		"total":          693.6,
		"eta":            10.0,
		"currency":       "OMR",
	}
	for k, v := range want {
		if body[k] != v {
			t.Fatalf("%s: expected %v got %v", k, v, body[k])
		}
	}
	if _, ok := body["discount"].(string); !ok {
		t.Fatalf("expected discount label, got %v", body["discount"])
	}
	breakdown, ok := body["breakdown"].(map[string]any)
	if !ok || breakdown["city"] != "Sohar" || breakdown["cityMultiplier"] != 1.2 || breakdown["subtotal"] != 190.0 {
		t.Fatalf("unexpected breakdown %v", body["breakdown"])
	}
}

func TestQuoteCalculateDiscountNullWhenAbsent(t *testing.T) {
	handler := QuoteCalculate(newStubQuoteService(), testLogger())
	rec := postJSON(handler, "/api/v1/quotes/calculate",
		`{"productId":"`+testProductID+`","quantity":5,"deliveryCity":"Muscat","deliveryCountry":"Oman"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"discount":null`) {
		t.Fatalf("expected explicit null discount, got %s", rec.Body.String())
	}
}

func TestQuoteCalculateErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		svc  func(*stubQuoteService)
		want int
		code pkgerrors.Code
	}{
		{"empty body", ``, nil, http.StatusBadRequest, pkgerrors.CodeValidation},
		{"unknown field", `{"productId":"` + testProductID + `","quantity":60,"deliveryCity":"Sohar","deliveryCountry":"Oman","x":1}`, nil, http.StatusBadRequest, pkgerrors.CodeValidation},
		{"bad city", `{"productId":"` + testProductID + `","quantity":60,"deliveryCity":"S0har","deliveryCountry":"Oman"}`, nil, http.StatusBadRequest, pkgerrors.CodeValidation},
		{"below moq", `{"productId":"` + testProductID + `","quantity":2,"deliveryCity":"Sohar","deliveryCountry":"Oman"}`, nil, http.StatusUnprocessableEntity, pkgerrors.CodeBusinessRule},
		{"unknown product", `{"productId":"` + testProductID + `","quantity":60,"deliveryCity":"Sohar","deliveryCountry":"Oman"}`,
			func(s *stubQuoteService) { s.err = pkgerrors.New(pkgerrors.CodeNotFound, "product not found") }, http.StatusNotFound, pkgerrors.CodeNotFound},
		{"unexpected", `{"productId":"` + testProductID + `","quantity":60,"deliveryCity":"Sohar","deliveryCountry":"Oman"}`,
			func(s *stubQuoteService) { s.err = errors.New("pq: connection reset") }, http.StatusInternalServerError, pkgerrors.CodeInternal},
	}
	for _, tt := range tests {
		svc := newStubQuoteService()
		if tt.svc != nil {
			tt.svc(svc)
		}
		rec := postJSON(QuoteCalculate(svc, testLogger()), "/api/v1/quotes/calculate", tt.body)
		if rec.Code != tt.want {
			t.Fatalf("%s: expected %d got %d: %s", tt.name, tt.want, rec.Code, rec.Body.String())
		}
		var body struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", tt.name, err)
		}
		if body.Code != string(tt.code) || body.Error == "" {
			t.Fatalf("%s: unexpected body %s", tt.name, rec.Body.String())
		}
		if strings.Contains(body.Error, "pq:") {
			t.Fatalf("%s: internal detail leaked: %s", tt.name, body.Error)
		}
	}
}

func TestQuoteSubmitCreated(t *testing.T) {
	svc := newStubQuoteService()
	handler := middleware.ClientIP(0, nil)(QuoteSubmit(svc, testLogger()))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(
		`{"productId":"`+testProductID+`","quantity":60,"deliveryCity":"Sohar","deliveryCountry":"Oman",`+
			`"customerName":"Aisha","customerEmail":"aisha@example.com"}`))
	req.RemoteAddr = "198.51.100.4:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != "/api/v1/quotes/Q-2026-000001" {
		t.Fatalf("unexpected location %q", got)
	}
	if svc.submitted.ClientIP != "198.51.100.4" {
		t.Fatalf("expected client ip forwarded, got %q", svc.submitted.ClientIP)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["reference"] != "Q-2026-000001" || body["total"] != 693.6 {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestQuoteSubmitRequiresContact(t *testing.T) {
	rec := postJSON(QuoteSubmit(newStubQuoteService(), testLogger()), "/api/v1/quotes",
		`{"productId":"`+testProductID+`","quantity":60,"deliveryCity":"Sohar","deliveryCountry":"Oman"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestQuoteGet(t *testing.T) {
	svc := newStubQuoteService()
	svc.stored = &quotes.QuoteDTO{Reference: "Q-2026-000009", Status: "pending"}

	get := func(ref string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/"+ref, nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("reference", ref)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		QuoteGet(svc, testLogger()).ServeHTTP(rec, req)
		return rec
	}

	if rec := get("Q-2026-000009"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := get("Q-2026-000010"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandlersRejectNilService(t *testing.T) {
	rec := postJSON(QuoteCalculate(nil, testLogger()), "/api/v1/quotes/calculate", `{}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
