package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-intake/config"
	"github.com/kendall-kelly/order-intake/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DatabaseURL:  "sqlite://" + filepath.Join(t.TempDir(), "order_intake.db"),
		Port:         "8080",
		GoEnv:        "test",
		LogLevel:     "error",
		SessionStore: config.SessionStoreMemory,
		SessionTTL:   30 * time.Minute,
		SeedOnBoot:   true,
	}
}

func TestSetupServesHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine, cleanup, err := setup(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer cleanup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/health", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response, 2)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Order intake is running", response["message"])
}

func TestSetupMigratesAndSeeds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine, cleanup, err := setup(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer cleanup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/database/status", nil)
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var status struct {
		Tables []string `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	for _, table := range []string{"products", "payment_methods", "inflow_sources", "orders", "order_products", "order_inflow_sources"} {
		assert.Contains(t, status.Tables, table)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/orders/new", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "商品A"))
}

func TestSetupRejectsUnknownDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseURL = "mysql://localhost/orders"

	_, _, err := setup(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRootRedirectsToEntry(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine, cleanup, err := setup(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer cleanup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/orders/new", w.Header().Get("Location"))
}

func TestOpenSessionStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, closeStore, err := openSessionStore(context.Background(), testConfig(t))
		require.NoError(t, err)
		defer closeStore()
		assert.IsType(t, &session.MemoryStore{}, store)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.SessionStore = config.SessionStoreRedis
		cfg.RedisAddr = "127.0.0.1:1"

		_, _, err := openSessionStore(context.Background(), cfg)
		assert.Error(t, err)
	})
}
