package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/api/middleware"
	"github.com/angelmondragon/bookstore-backend/internal/books"
	"github.com/angelmondragon/bookstore-backend/internal/cart"
	"github.com/angelmondragon/bookstore-backend/internal/pricing"
	"github.com/angelmondragon/bookstore-backend/internal/sessioncart"
	"github.com/angelmondragon/bookstore-backend/internal/shipping"
	pkgAuth "github.com/angelmondragon/bookstore-backend/pkg/auth"
	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	"github.com/angelmondragon/bookstore-backend/pkg/fx"
	"github.com/angelmondragon/bookstore-backend/pkg/idempotency"
	"github.com/angelmondragon/bookstore-backend/pkg/kv"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
	"github.com/angelmondragon/bookstore-backend/pkg/redis"
	"github.com/angelmondragon/bookstore-backend/pkg/storeapi"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubRates struct{}

func (stubRates) Latest(_ context.Context, base string) (fx.RateTable, error) {
	return fx.RateTable{Base: base, Rates: map[string]decimal.Decimal{"EUR": decimal.RequireFromString("0.5")}}, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type stack struct {
	cfg        *config.Config
	conn       *gorm.DB
	backend    *httptest.Server
	storefront *httptest.Server
	bookA      *models.Book
	bookB      *models.Book
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "bookstore-test", ExpirationMinutes: 60},
		Cart: config.CartConfig{
			AnonymousTTL:       time.Hour,
			SessionViewTTL:     time.Minute,
			ReconcileGuardTTL:  time.Hour,
			RefreshConcurrency: 4,
		},
		Pricing: config.PricingConfig{
			BaseCurrency:        "USD",
			TaxRate:             decimal.RequireFromString("0.08"),
			DefaultShippingCost: decimal.RequireFromString("9.99"),
		},
		Shipping: config.ShippingConfig{
			DefaultCost:    decimal.RequireFromString("9.99"),
			DefaultMinDays: 7,
			DefaultMaxDays: 21,
		},
		Storefront: config.StorefrontConfig{GuestCookieTTL: time.Hour},
	}
}

func newStack(t *testing.T) *stack {
	t.Helper()
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&models.Book{}, &models.CartLine{}, &models.ShippingRate{}))

	bookA := &models.Book{Title: "Dune", Author: "Frank Herbert", Price: decimal.RequireFromString("10.00"), Stock: 5, Condition: enums.BookConditionGood}
	bookB := &models.Book{Title: "Emma", Author: "Jane Austen", Price: decimal.RequireFromString("8.00"), Stock: 1, Condition: enums.BookConditionLikeNew}
	require.NoError(t, conn.Create(bookA).Error)
	require.NoError(t, conn.Create(bookB).Error)
	require.NoError(t, conn.Create(&models.ShippingRate{
		CountryCode: "US", Cost: decimal.RequireFromString("4.50"), MinDeliveryDays: 2, MaxDeliveryDays: 5,
	}).Error)

	bookSvc, err := books.NewService(books.NewRepository(conn))
	require.NoError(t, err)
	shippingSvc, err := shipping.NewService(shipping.NewRepository(conn), cfg.Shipping)
	require.NoError(t, err)
	cartSvc, err := sessioncart.NewService(sessioncart.NewRepository(conn), db.Wrap(conn))
	require.NoError(t, err)

	backend := httptest.NewServer(NewRouter(cfg, logg, nil, stubPinger{}, stubPinger{}, bookSvc, shippingSvc, cartSvc))
	t.Cleanup(backend.Close)

	api, err := storeapi.NewClient(backend.URL)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	redisClient := redis.Wrap(raw)

	reg := prometheus.NewRegistry()
	cartMetrics := metrics.NewCartMetrics(reg)
	store := kv.NewRedis(redisClient)

	guard, err := idempotency.NewManager(redisClient, cfg.Cart.ReconcileGuardTTL)
	require.NoError(t, err)

	rates := pricing.NewRateCache(store, stubRates{}, time.Hour, logg, cartMetrics)
	deps := StorefrontDeps{
		Carts:       cart.NewProvider(store, api, api, cfg.Cart, logg, cartMetrics),
		Pricer:      pricing.NewEngine(cfg.Pricing, api, rates, logg, cartMetrics),
		Reconciler:  cart.NewReconciler(guard, logg, cartMetrics),
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg, "storefront"),
		Redis:       redisClient,
	}
	front := httptest.NewServer(NewStorefrontRouter(cfg, logg, deps))
	t.Cleanup(front.Close)

	return &stack{cfg: cfg, conn: conn, backend: backend, storefront: front, bookA: bookA, bookB: bookB}
}

type call struct {
	method string
	url    string
	body   any
	guest  string
	token  string
}

func do(t *testing.T, c call) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(c.method, c.url, reader)
	require.NoError(t, err)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.guest != "" {
		req.Header.Set(middleware.GuestHeader, c.guest)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func mintToken(t *testing.T, cfg config.JWTConfig, userID, loginID string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID, JTI: loginID})
	require.NoError(t, err)
	return token
}

func TestBackendHealthAndBooks(t *testing.T) {
	s := newStack(t)

	resp, _ := do(t, call{method: http.MethodGet, url: s.backend.URL + "/health/ready"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "test", resp.Header.Get("X-Bookstore-Env"))

	resp, env := do(t, call{method: http.MethodGet, url: fmt.Sprintf("%s/books/%d", s.backend.URL, s.bookA.ID)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var book map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &book))
	for _, field := range []string{"id", "title", "author", "price", "stock", "condition", "featured", "bestseller", "createdAt", "updatedAt"} {
		assert.Contains(t, book, field)
	}
	assert.Equal(t, "Dune", book["title"])

	resp, env = do(t, call{method: http.MethodGet, url: s.backend.URL + "/books/9999"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestBackendShippingRate(t *testing.T) {
	s := newStack(t)

	_, env := do(t, call{method: http.MethodGet, url: s.backend.URL + "/shipping-rate/NZ"})
	var rate map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &rate))
	assert.Equal(t, true, rate["isDefault"])
	assert.Equal(t, float64(7), rate["minDeliveryDays"])
}

func TestBackendCartRequiresToken(t *testing.T) {
	s := newStack(t)

	resp, env := do(t, call{method: http.MethodGet, url: s.backend.URL + "/cart"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestGuestCartRejectsOverStock(t *testing.T) {
	s := newStack(t)
	items := s.storefront.URL + "/api/v1/cart/items"

	resp, _ := do(t, call{method: http.MethodPost, url: items, body: map[string]any{"bookId": s.bookB.ID}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	guest := resp.Header.Get(middleware.GuestHeader)
	require.NotEmpty(t, guest)

	resp, env := do(t, call{method: http.MethodPost, url: items, guest: guest, body: map[string]any{"bookId": s.bookB.ID, "quantity": 1}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "STOCK_EXCEEDED", env.Error.Code)
	var details map[string]any
	require.NoError(t, json.Unmarshal(env.Error.Details, &details))
	assert.Equal(t, float64(1), details["available"])
	assert.Equal(t, float64(1), details["inCart"])

	_, env = do(t, call{method: http.MethodGet, url: s.storefront.URL + "/api/v1/cart", guest: guest})
	var lines []cart.Line
	require.NoError(t, json.Unmarshal(env.Data, &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestLoginMigratesGuestCart(t *testing.T) {
	s := newStack(t)
	items := s.storefront.URL + "/api/v1/cart/items"

	resp, _ := do(t, call{method: http.MethodPost, url: items, body: map[string]any{"bookId": s.bookA.ID, "quantity": 2}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	guest := resp.Header.Get(middleware.GuestHeader)
	resp, _ = do(t, call{method: http.MethodPost, url: items, guest: guest, body: map[string]any{"bookId": s.bookB.ID}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Book B sells out before the shopper signs in.
	require.NoError(t, s.conn.Model(s.bookB).Update("stock", 0).Error)

	token := mintToken(t, s.cfg.JWT, "user-1", "login-1")
	resp, env := do(t, call{method: http.MethodPost, url: s.storefront.URL + "/api/v1/session/login", guest: guest, token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report cart.Report
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 1, report.Migrated)
	assert.Equal(t, 1, report.Failed)
	assert.True(t, report.Drained)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "OUT_OF_STOCK", string(report.Outcomes[1].Code))

	_, env = do(t, call{method: http.MethodGet, url: s.storefront.URL + "/api/v1/cart", guest: guest, token: token})
	var lines []cart.Line
	require.NoError(t, json.Unmarshal(env.Data, &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, s.bookA.ID, lines[0].BookID)
	assert.Equal(t, 2, lines[0].Quantity)
	require.NotNil(t, lines[0].OwnerID)
	assert.Equal(t, "user-1", *lines[0].OwnerID)

	_, env = do(t, call{method: http.MethodGet, url: s.storefront.URL + "/api/v1/cart", guest: guest})
	var guestLines []cart.Line
	require.NoError(t, json.Unmarshal(env.Data, &guestLines))
	assert.Empty(t, guestLines)

	_, env = do(t, call{method: http.MethodPost, url: s.storefront.URL + "/api/v1/session/login", guest: guest, token: token})
	var replay cart.Report
	require.NoError(t, json.Unmarshal(env.Data, &replay))
	assert.True(t, replay.Skipped)
}

func TestCheckoutSummary(t *testing.T) {
	s := newStack(t)
	items := s.storefront.URL + "/api/v1/cart/items"

	resp, _ := do(t, call{method: http.MethodPost, url: items, body: map[string]any{"bookId": s.bookA.ID, "quantity": 2}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	guest := resp.Header.Get(middleware.GuestHeader)

	resp, env := do(t, call{method: http.MethodGet, url: s.storefront.URL + "/api/v1/checkout/summary?country=us", guest: guest})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary struct {
		Totals pricing.CheckoutTotals `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.True(t, decimal.RequireFromString("20.00").Equal(summary.Totals.Base.Subtotal.Amount))
	assert.True(t, decimal.RequireFromString("4.50").Equal(summary.Totals.Base.ShippingCost.Amount))
	assert.True(t, decimal.RequireFromString("1.60").Equal(summary.Totals.Base.Tax.Amount))
	assert.True(t, decimal.RequireFromString("26.10").Equal(summary.Totals.Base.GrandTotal.Amount))
	assert.False(t, summary.Totals.ShippingIsDefault)

	_, env = do(t, call{method: http.MethodGet, url: s.storefront.URL + "/api/v1/checkout/summary?country=NZ&currency=EUR", guest: guest})
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.True(t, summary.Totals.ShippingIsDefault)
	assert.Equal(t, "EUR", summary.Totals.Display.GrandTotal.Currency)
	assert.True(t, decimal.RequireFromString("15.80").Equal(summary.Totals.Display.GrandTotal.Amount))

	resp, env = do(t, call{method: http.MethodGet, url: s.storefront.URL + "/api/v1/checkout/summary", guest: guest})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestStorefrontExposesMetrics(t *testing.T) {
	s := newStack(t)

	do(t, call{method: http.MethodGet, url: s.storefront.URL + "/health/live"})
	req, err := http.NewRequest(http.MethodGet, s.storefront.URL+"/metrics", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "bookstore_http_request_duration_seconds")
}
