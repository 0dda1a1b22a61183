package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arnavshah/manifest-api-go/internal/config"
	"github.com/arnavshah/manifest-api-go/pkg/auth"
	"github.com/arnavshah/manifest-api-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	auth.BcryptCost = 4
}

func testConfig() *config.Config {
	return &config.Config{
		AppVersion:        "test",
		DataPath:          ":memory:",
		StoreBackend:      config.StoreSQL,
		DefaultMaximumPOB: 200,
		VisibleWeeks:      10,
		JWTSecret:         "jwt",
		APIMasterSecret:   "master",
		AdminUsername:     "admin",
		AdminPassword:     "admin-password",
	}
}

func TestNew_SQLBackend(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), logger.NewNop())
	require.NoError(t, err)
	defer a.Close(ctx)

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	body := strings.NewReader(`{"username":"admin","password":"admin-password"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNew_StoreErrors(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.StoreBackend = "carrier-pigeon"
	_, err := New(ctx, cfg, logger.NewNop())
	assert.ErrorContains(t, err, "unknown store backend")

	cfg = testConfig()
	cfg.StoreBackend = config.StoreRemote
	_, err = New(ctx, cfg, logger.NewNop())
	assert.ErrorContains(t, err, "REMOTE_BASE_URL")
}

func TestNew_RemoteBackendStartsWhenUpstreamIsDown(t *testing.T) {
	ctx := context.Background()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.StoreBackend = config.StoreRemote
	cfg.RemoteBaseURL = upstream.URL
	a, err := New(ctx, cfg, logger.NewNop())
	require.NoError(t, err)
	defer a.Close(ctx)

	assert.True(t, a.Coord.RefreshedAt().IsZero())
}

func TestRefreshingHandler(t *testing.T) {
	ctx := context.Background()
	var down atomic.Bool
	down.Store(true)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.StoreBackend = config.StoreRemote
	cfg.RemoteBaseURL = upstream.URL
	a, err := New(ctx, cfg, logger.NewNop())
	require.NoError(t, err)
	defer a.Close(ctx)

	serve := a.RefreshingHandler(time.Minute)

	w := httptest.NewRecorder()
	serve.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Manifest-Stale"))

	down.Store(false)
	w = httptest.NewRecorder()
	serve.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Manifest-Stale"))
	assert.False(t, a.Coord.RefreshedAt().IsZero())
}
