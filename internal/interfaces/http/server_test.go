package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/auth"
	"github.com/your-org/storefront-core/internal/domain/catalog"
	"github.com/your-org/storefront-core/internal/domain/checkout"
	"github.com/your-org/storefront-core/internal/domain/pricing"
	"github.com/your-org/storefront-core/internal/infrastructure/storage"
	"github.com/your-org/storefront-core/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-core/internal/interfaces/http/routes"
	"github.com/your-org/storefront-core/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedCatalog []catalog.Product

func (f fixedCatalog) List(context.Context) ([]catalog.Product, error) {
	return f, nil
}

func (f fixedCatalog) Get(_ context.Context, id int64) (*catalog.Product, error) {
	for _, p := range f {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, catalog.ErrProductNotFound
}

type downCatalog struct{}

func (downCatalog) List(context.Context) ([]catalog.Product, error) {
	return nil, errors.Join(catalog.ErrSourceUnavailable, errors.New("dial tcp: connection refused"))
}

func (downCatalog) Get(context.Context, int64) (*catalog.Product, error) {
	return nil, errors.Join(catalog.ErrSourceUnavailable, errors.New("dial tcp: connection refused"))
}

type passwordSource map[string]string

func (p passwordSource) Login(_ context.Context, username, password string) (string, error) {
	if p[username] != password {
		return "", &auth.RejectedError{Status: http.StatusUnauthorized, Message: "username or password is incorrect"}
	}
	return "token-" + username, nil
}

var testProducts = fixedCatalog{
	{ID: 1, Title: "Backpack", Description: "Fits a laptop", Price: 20, Category: "bags", Rating: catalog.Rating{Rate: 3.9, Count: 120}},
	{ID: 2, Title: "T-Shirt", Description: "Cotton", Price: 15, Category: "clothing", Rating: catalog.Rating{Rate: 4.1, Count: 259}},
	{ID: 3, Title: "SSD", Description: "Fast storage", Price: 109.95, Category: "electronics", Rating: catalog.Rating{Rate: 4.8, Count: 319}},
	{ID: 4, Title: "Monitor", Description: "Wide screen", Price: 99.99, Category: "electronics", Rating: catalog.Rating{Rate: 4.2, Count: 90}},
}

type testEnv struct {
	server *Server
	hub    *storage.MemoryHub
}

func newTestEnv(t *testing.T, source catalog.ProductSource) *testEnv {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{
		App:    config.AppConfig{Name: "Storefront", Environment: "test"},
		Server: config.ServerConfig{Port: "0", WriteTimeout: 5 * time.Second},
		Redis:  config.RedisConfig{KeyPrefix: "storefront"},
		Security: config.SecurityConfig{
			RateLimitPerMinute: 1000,
			CORSAllowedOrigins: []string{"*"},
		},
	}

	log := logger.Discard()
	resolver, err := pricing.NewResolver(map[string]decimal.Decimal{
		"SAVE10": decimal.RequireFromString("0.10"),
		"SAVE20": decimal.RequireFromString("0.20"),
	})
	require.NoError(t, err)
	engine := pricing.NewEngine(decimal.RequireFromString("5.99"), decimal.NewFromInt(100))

	hub := storage.NewMemoryHub()
	deps := routes.Dependencies{
		Stores:     hub,
		Catalog:    catalog.NewService(source, client, "storefront", time.Minute, log),
		AuthSource: passwordSource{"mor_2314": "83r5^_"},
		Checkout:   checkout.NewService(engine, resolver, 0, log),
		Logger:     log,
	}

	return &testEnv{server: NewServer(cfg, nil, client, deps), hub: hub}
}

type tabClient struct {
	t         *testing.T
	env       *testEnv
	origin    string
	contextID string
}

func (e *testEnv) tab(t *testing.T, origin, contextID string) *tabClient {
	return &tabClient{t: t, env: e, origin: origin, contextID: contextID}
}

func (c *tabClient) do(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ContextHeader, c.contextID)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: c.origin})

	w := httptest.NewRecorder()
	c.env.server.Handler().ServeHTTP(w, req)

	var payload map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &payload)
	return w, payload
}

func (c *tabClient) login() {
	w, _ := c.do(http.MethodPost, "/auth/login", map[string]string{"username": "mor_2314", "password": "83r5^_"})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
}

func data(payload map[string]interface{}) map[string]interface{} {
	return payload["data"].(map[string]interface{})
}

func TestServer_ProtectedRoutesRequireLogin(t *testing.T) {
	env := newTestEnv(t, testProducts)
	tab := env.tab(t, "origin-1", "tab-1")

	w, payload := tab.do(http.MethodGet, "/products", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/login", payload["redirect"])

	w, payload = tab.do(http.MethodPost, "/auth/login", map[string]string{"username": "mor_2314", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "username or password is incorrect", payload["error"])

	tab.login()
	w, _ = tab.do(http.MethodGet, "/products", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// another tab of the same browser shares the login, another browser does not
	w, _ = env.tab(t, "origin-1", "tab-2").do(http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = env.tab(t, "origin-2", "tab-1").do(http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_ProductListingQuery(t *testing.T) {
	env := newTestEnv(t, testProducts)
	tab := env.tab(t, "origin-1", "tab-1")
	tab.login()

	w, payload := tab.do(http.MethodGet, "/products?category=electronics&sort=price-low", nil)
	require.Equal(t, http.StatusOK, w.Code)

	products := payload["data"].([]interface{})
	require.Len(t, products, 2)
	assert.Equal(t, float64(4), products[0].(map[string]interface{})["id"])
	assert.Equal(t, float64(3), products[1].(map[string]interface{})["id"])

	w, payload = tab.do(http.MethodGet, "/products?search=LAPTOP&sort=bogus", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), payload["count"])

	w, payload = tab.do(http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"all", "bags", "clothing", "electronics"}, payload["data"])

	w, _ = tab.do(http.MethodGet, "/products/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = tab.do(http.MethodGet, "/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_SourceUnavailable(t *testing.T) {
	env := newTestEnv(t, downCatalog{})
	tab := env.tab(t, "origin-1", "tab-1")
	tab.login()

	w, payload := tab.do(http.MethodGet, "/products", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to load products", payload["error"])
}

func TestServer_CartPricingAndCheckout(t *testing.T) {
	env := newTestEnv(t, testProducts)
	tab := env.tab(t, "origin-1", "tab-1")
	tab.login()

	w, _ := tab.do(http.MethodPost, "/cart/items", map[string]interface{}{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, payload := tab.do(http.MethodPost, "/cart/items", map[string]interface{}{"product_id": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), data(payload)["item_count"])

	w, payload = tab.do(http.MethodGet, "/cart/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{
		"subtotal": "55.00", "shipping": "5.99", "discount": "0.00", "total": "60.99",
	}, data(payload)["pricing"])

	w, payload = tab.do(http.MethodPost, "/cart/coupon", map[string]string{"code": "save10"})
	require.Equal(t, http.StatusOK, w.Code)
	summary := data(payload)["summary"].(map[string]interface{})
	assert.Equal(t, "55.49", summary["pricing"].(map[string]interface{})["total"])

	w, payload = tab.do(http.MethodPost, "/cart/coupon", map[string]string{"code": "FOO"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Invalid coupon code", payload["message"])
	assert.Equal(t, false, data(payload)["coupon"].(map[string]interface{})["valid"])
	summary = data(payload)["summary"].(map[string]interface{})
	assert.Equal(t, "5.50", summary["pricing"].(map[string]interface{})["discount"])

	w, payload = tab.do(http.MethodPut, "/cart/items/2", map[string]interface{}{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data(payload)["items"], 1)

	w, payload = tab.do(http.MethodPost, "/checkout", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	receipt := data(payload)
	assert.NotEmpty(t, receipt["order_id"])
	assert.Equal(t, "SAVE10", receipt["coupon"])
	assert.Equal(t, "41.99", receipt["pricing"].(map[string]interface{})["total"])

	w, payload = tab.do(http.MethodGet, "/cart/count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), data(payload)["item_count"])

	w, _ = tab.do(http.MethodPost, "/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_CartValidation(t *testing.T) {
	env := newTestEnv(t, testProducts)
	tab := env.tab(t, "origin-1", "tab-1")
	tab.login()

	w, _ := tab.do(http.MethodPost, "/cart/items", map[string]interface{}{"product_id": 1, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = tab.do(http.MethodPost, "/cart/items", map[string]interface{}{"product_id": 42})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = tab.do(http.MethodPut, "/cart/items/1", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = tab.do(http.MethodPost, "/cart/items", map[string]interface{}{"product_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = tab.do(http.MethodPost, "/cart/items", map[string]interface{}{"product_id": 1, "quantity": math.MaxInt64})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, payload := tab.do(http.MethodGet, "/cart/count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), data(payload)["item_count"])

	w, payload = tab.do(http.MethodDelete, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, data(payload)["items"])
}

func TestServer_LogoutClearsTokenAndCart(t *testing.T) {
	env := newTestEnv(t, testProducts)
	tabA := env.tab(t, "origin-1", "tab-a")
	tabB := env.tab(t, "origin-1", "tab-b")
	tabA.login()

	w, _ := tabA.do(http.MethodPost, "/cart/items", map[string]interface{}{"product_id": 3})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = tabB.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, ok := env.hub.Raw("origin-1", storage.KeyCart)
	assert.False(t, ok)

	w, payload := tabA.do(http.MethodGet, "/auth/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, data(payload)["authorized"])

	w, _ = tabA.do(http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_EventStreamReportsOtherTabs(t *testing.T) {
	env := newTestEnv(t, testProducts)
	tabA := env.tab(t, "origin-1", "tab-a")
	tabB := env.tab(t, "origin-1", "tab-b")
	tabA.login()

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events?context_id=tab-a", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "origin-1"})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		var event string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				events <- event + " " + strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
		}
		close(events)
	}()

	next := func() string {
		select {
		case e, ok := <-events:
			require.True(t, ok, "stream closed")
			return e
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for event")
			return ""
		}
	}

	assert.Equal(t, `cart {"item_count":0,"line_count":0,"subtotal":"0.00"}`, next())

	w, _ := tabB.do(http.MethodPost, "/cart/items", map[string]interface{}{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `cart {"item_count":2,"line_count":1,"subtotal":"40.00"}`, next())

	w, _ = tabB.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// logout deletes the token and the cart; both are reported
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		seen[next()] = true
	}
	assert.True(t, seen[`auth {"authorized":false}`])
	assert.True(t, seen[`cart {"item_count":0,"line_count":0,"subtotal":"0.00"}`])
}
