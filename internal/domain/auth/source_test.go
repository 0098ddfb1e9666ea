package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-core/internal/config"
	pkgauth "github.com/your-org/storefront-core/internal/pkg/auth"
	"github.com/your-org/storefront-core/internal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

func newFakeAuthAPI(t *testing.T, hits *int32) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		switch req.Username {
		case "mor_2314":
			_ = json.NewEncoder(w).Encode(loginResponse{Token: "eyJ.token"})
		case "no_token":
			_, _ = w.Write([]byte(`{}`))
		case "broken":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("username or password is incorrect"))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRemoteSource_Login(t *testing.T) {
	var hits int32
	server := newFakeAuthAPI(t, &hits)
	source := NewRemoteSource(server.URL, time.Second, 3, time.Minute, logger.Discard())
	ctx := context.Background()

	token, err := source.Login(ctx, "mor_2314", "83r5^_")
	require.NoError(t, err)
	assert.Equal(t, "eyJ.token", token)

	_, err = source.Login(ctx, "nobody", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "username or password is incorrect", UserMessage(err))

	_, err = source.Login(ctx, "no_token", "x")
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = source.Login(ctx, "broken", "x")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestRemoteSource_RejectionsDoNotTripBreaker(t *testing.T) {
	var hits int32
	server := newFakeAuthAPI(t, &hits)
	source := NewRemoteSource(server.URL, time.Second, 1, time.Minute, logger.Discard())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := source.Login(ctx, "nobody", "x")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := source.Login(ctx, "mor_2314", "x")
	assert.NoError(t, err)
}

func TestRemoteSource_BreakerFailsFast(t *testing.T) {
	var hits int32
	server := newFakeAuthAPI(t, &hits)
	source := NewRemoteSource(server.URL, time.Second, 1, time.Minute, logger.Discard())
	ctx := context.Background()

	_, err := source.Login(ctx, "broken", "x")
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	_, err = source.Login(ctx, "mor_2314", "x")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, "Server not responding", UserMessage(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRemoteSource_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	source := NewRemoteSource(url, 200*time.Millisecond, 5, time.Minute, logger.Discard())
	_, err := source.Login(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestLocalSource_Login(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Name: "Storefront"},
		JWT: config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", AccessTokenExpiry: time.Hour},
	}
	passwords := pkgauth.NewPasswordManager(bcrypt.MinCost)
	hash, err := passwords.HashPassword("secret-pass")
	require.NoError(t, err)

	tokens := pkgauth.NewJWTManager(cfg)
	source := NewLocalSource("admin", hash, passwords, tokens)
	ctx := context.Background()

	token, err := source.Login(ctx, "admin", "secret-pass")
	require.NoError(t, err)
	claims, err := tokens.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	_, err = source.Login(ctx, "admin", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = source.Login(ctx, "root", "secret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRemoteSource_CancelledCallersDoNotTripBreaker(t *testing.T) {
	var hits int32
	server := newFakeAuthAPI(t, &hits)
	source := NewRemoteSource(server.URL, time.Second, 1, time.Minute, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, err := source.Login(ctx, "mor_2314", "83r5^_")
		assert.ErrorIs(t, err, context.Canceled)
	}

	token, err := source.Login(context.Background(), "mor_2314", "83r5^_")
	require.NoError(t, err)
	assert.Equal(t, "eyJ.token", token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
