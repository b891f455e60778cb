package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	product "github.com/omanfreight/quote-service/internal/products"
	"github.com/omanfreight/quote-service/internal/quotes"
	"github.com/omanfreight/quote-service/pkg/config"
	"github.com/omanfreight/quote-service/pkg/db"
	"github.com/omanfreight/quote-service/pkg/db/models"
	"github.com/omanfreight/quote-service/pkg/logger"
	"github.com/omanfreight/quote-service/pkg/metrics"
	"github.com/omanfreight/quote-service/pkg/outbox"
	"github.com/omanfreight/quote-service/pkg/ratelimit"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memoryIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryIdempotencyStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type counterReferences struct {
	mu sync.Mutex
	n  int64
}

func (c *counterReferences) Next(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return quotes.FormatReference("Q", 2026, c.n), nil
}

func (c *counterReferences) Reseed(_ context.Context, latest string) error {
	_, seq, err := quotes.ParseReference(latest)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n < seq {
		c.n = seq
	}
	return nil
}

type testServer struct {
	handler  http.Handler
	conn     *gorm.DB
	registry *prometheus.Registry
	product  *models.Product
}

func newTestServer(t *testing.T, quoteLimit int) testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	lead := 10
	p := &models.Product{
		SKU:           "CEM-50",
		Name:          "Cement 50kg",
		BaseUnitPrice: decimal.NewFromInt(10),
		MinOrderQty:   5,
		WeightKg:      decimal.NewFromInt(20),
		VolumeCbm:     decimal.NewFromInt(1),
		Tags:          []string{},
		Currency:      "OMR",
		LeadTimeDays:  &lead,
		IsActive:      true,
		PricingTiers:  []models.ProductPricingTier{{MinQty: 50, UnitPrice: decimal.NewFromInt(8)}},
	}
	require.NoError(t, conn.Create(p).Error)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client := db.NewFromConn(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	products, err := product.NewService(product.NewRepository(conn), client, emitter)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	quoteMetrics := metrics.NewQuoteMetrics(registry)
	quoteSvc, err := quotes.NewService(quotes.ServiceParams{
		Products:   products,
		Repository: quotes.NewRepository(conn),
		TxRunner:   client,
		Outbox:     emitter,
		References: &counterReferences{},
		Metrics:    quoteMetrics,
		Logger:     logg,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		App:   config.AppConfig{Env: "dev"},
		CORS:  config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Admin: config.AdminConfig{APIKey: "admin-key"},
	}
	handler := NewRouter(Dependencies{
		Config:      cfg,
		Logger:      logg,
		DB:          stubPinger{},
		Redis:       stubPinger{},
		Idempotency: &memoryIdempotencyStore{data: map[string]string{}},
		QuoteLimit:  ratelimit.NewMemoryLimiter(ratelimit.Policy{Name: ratelimit.PolicyQuote, Limit: quoteLimit, Window: time.Minute}, nil),
		SubmitLimit: ratelimit.NewMemoryLimiter(ratelimit.Policy{Name: ratelimit.PolicyQuoteSubmit, Limit: 5, Window: time.Minute}, nil),
		Metrics:     quoteMetrics,
		Gatherer:    registry,
		Quotes:      quoteSvc,
		Products:    products,
	})
	return testServer{handler: handler, conn: conn, registry: registry, product: p}
}

func (s testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.10:4000"
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s testServer) calculateBody(qty int) string {
	return fmt.Sprintf(`{"productId":%q,"quantity":%d,"deliveryCity":"Sohar","deliveryCountry":"Oman"}`, s.product.ID.String(), qty)
}

func TestHealthRoutes(t *testing.T) {
	srv := newTestServer(t, 20)
	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/health/ready", "", nil).Code)
}

func TestCalculateRoute(t *testing.T) {
	srv := newTestServer(t, 20)
	rec := srv.do(http.MethodPost, "/api/v1/quotes/calculate", srv.calculateBody(60), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 693.6, body["total"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestCalculateRouteRateLimited(t *testing.T) {
	srv := newTestServer(t, 2)
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, srv.do(http.MethodPost, "/api/v1/quotes/calculate", srv.calculateBody(60), nil).Code)
	}
	rec := srv.do(http.MethodPost, "/api/v1/quotes/calculate", srv.calculateBody(60), nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	metricsRec := srv.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), `rate_limit_rejections_total{policy="quote"} 1`)
	assert.Contains(t, metricsRec.Body.String(), `quote_requests_total{operation="calculate",outcome="ok"} 2`)
}

func TestSubmitAndLookupRoutes(t *testing.T) {
	srv := newTestServer(t, 20)
	body := strings.TrimSuffix(srv.calculateBody(60), "}") + `,"customerName":"Aisha","customerEmail":"aisha@example.com"}`
	headers := map[string]string{"Idempotency-Key": "form-1"}

	first := srv.do(http.MethodPost, "/api/v1/quotes", body, headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	replay := srv.do(http.MethodPost, "/api/v1/quotes", body, headers)
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.JSONEq(t, first.Body.String(), replay.Body.String())

	var count int64
	require.NoError(t, srv.conn.Model(&models.Quote{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "replayed submission must not create a second quote")

	var created map[string]any
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &created))
	ref, _ := created["reference"].(string)
	require.Equal(t, "Q-2026-000001", ref)

	got := srv.do(http.MethodGet, "/api/v1/quotes/"+ref, "", nil)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Contains(t, got.Body.String(), `"status":"pending"`)
	assert.NotContains(t, got.Body.String(), "aisha@example.com")

	assert.Equal(t, http.StatusNotFound, srv.do(http.MethodGet, "/api/v1/quotes/Q-2026-000999", "", nil).Code)
}

func TestProductRoutes(t *testing.T) {
	srv := newTestServer(t, 20)
	rec := srv.do(http.MethodGet, "/api/v1/products/"+srv.product.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sku":"CEM-50"`)

	list := srv.do(http.MethodGet, "/api/v1/products?limit=10", "", nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), srv.product.ID.String())

	assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodGet, "/api/v1/products?limit=500", "", nil).Code)
}

func TestAdminRoutesRequireKey(t *testing.T) {
	srv := newTestServer(t, 20)
	body := `{"sku":"RACK-1","name":"Rack","baseUnitPrice":"12.5","minOrderQty":1,"weightKg":"3","volumeCbm":"0.2"}`

	assert.Equal(t, http.StatusUnauthorized, srv.do(http.MethodPost, "/api/v1/admin/products", body, nil).Code)

	rec := srv.do(http.MethodPost, "/api/v1/admin/products", body, map[string]string{"X-Admin-Key": "admin-key"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tiers := srv.do(http.MethodPut, "/api/v1/admin/products/"+srv.product.ID.String()+"/tiers",
		`{"tiers":[{"minQty":20,"unitPrice":"9"}]}`, map[string]string{"X-Admin-Key": "admin-key"})
	require.Equal(t, http.StatusOK, tiers.Code, tiers.Body.String())

	calc := srv.do(http.MethodPost, "/api/v1/quotes/calculate", srv.calculateBody(30), nil)
	require.Equal(t, http.StatusOK, calc.Code)
	assert.Contains(t, calc.Body.String(), `"unitPrice":9`)
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	srv := newTestServer(t, 20)
	rec := srv.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}
