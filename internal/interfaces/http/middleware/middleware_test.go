package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/infrastructure/storage"
	"github.com/your-org/storefront-core/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func echoSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"origin":     GetOrigin(c),
		"context_id": GetContextID(c),
		"request_id": c.GetString(RequestIDKey),
	})
}

func TestSession_CreatesOriginAndContext(t *testing.T) {
	router := gin.New()
	router.Use(Session())
	router.GET("/", echoSession)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.NotEmpty(t, w.Header().Get(ContextHeader))
}

func TestSession_ReusesClientValues(t *testing.T) {
	router := gin.New()
	router.Use(Session())
	router.GET("/", echoSession)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "origin-1"})
	req.Header.Set(ContextHeader, "tab-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, "tab-1", w.Header().Get(ContextHeader))
	assert.JSONEq(t, `{"origin":"origin-1","context_id":"tab-1","request_id":""}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/?context_id=tab-2", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "origin-1"})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "tab-2", w.Header().Get(ContextHeader))
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", echoSession)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequireToken(t *testing.T) {
	hub := storage.NewMemoryHub()
	router := gin.New()
	router.Use(Session(), RequireToken(hub, logger.Discard()))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	request := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "origin-1"})
		req.Header.Set(ContextHeader, "tab-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := request()
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "/login")

	// a token stored by another tab of the same origin is enough
	require.NoError(t, hub.Open("origin-1", "tab-2").Set(context.Background(), storage.KeyToken, "tok"))
	assert.Equal(t, http.StatusNoContent, request().Code)
}

func TestTimeout(t *testing.T) {
	router := gin.New()
	router.Use(Timeout(20 * time.Millisecond))
	router.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	router.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusRequestTimeout, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	router := gin.New()
	router.Use(RateLimit(client, "storefront", 2, logger.Discard()))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	mr.FastForward(time.Minute + time.Second)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_AllowsWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	router := gin.New()
	router.Use(RateLimit(client, "storefront", 1, logger.Discard()))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	cfg := &config.Config{Security: config.SecurityConfig{
		CORSAllowedOrigins: []string{"http://localhost:5173", "*.example.com"},
		CORSAllowedMethods: []string{"GET", "POST"},
		CORSAllowedHeaders: []string{"Content-Type", ContextHeader},
	}}

	router := gin.New()
	router.Use(CORS(cfg))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), ContextHeader)
}
