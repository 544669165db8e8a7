package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerverse/internal/config"
)

func newTestApp(t *testing.T, driver, dsn string) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("POKERVERSE_AUTH_JWT_SECRET", "test-secret")
	t.Setenv("POKERVERSE_STORE_DRIVER", driver)
	t.Setenv("POKERVERSE_STORE_DSN", dsn)
	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestRouter_Surfaces(t *testing.T) {
	for _, tc := range []struct{ driver, dsn string }{
		{"memory", ""},
		{"sqlite", ":memory:"},
	} {
		t.Run(tc.driver, func(t *testing.T) {
			app := newTestApp(t, tc.driver, tc.dsn)
			h := app.HTTP.Handler

			for _, path := range []string{"/health", "/leaderboard", "/rooms", "/metrics"} {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				assert.Equal(t, http.StatusOK, w.Code, path)
			}

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/abc", nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"username":"alice","password":"secret12"}`))
			req.Header.Set("Content-Type", "application/json")
			w = httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, http.StatusCreated, w.Code)
		})
	}
}

func TestNew_BadStoreDriver(t *testing.T) {
	t.Setenv("POKERVERSE_AUTH_JWT_SECRET", "test-secret")
	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)
	cfg.Store.Driver = "mysql"
	_, err = New(cfg)
	assert.Error(t, err)
}
