package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHTTPHandler(newTestManager(t, NewMemoryStore())).RegisterRoutes(r)
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHTTP_RegisterTokenMe(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"username":"alice_01","password":"secret12"}`))
	req.Header.Set("Content-Type", "application/json")
	w := do(r, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	form := url.Values{"username": {"alice_01"}, "password": {"secret12"}}
	req = httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = do(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tok tokenResponse
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &tok))
	assert.Equal(t, "bearer", tok.TokenType)
	require.NotEmpty(t, tok.AccessToken)

	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	w = do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice_01"`)

	req = httptest.NewRequest(http.MethodGet, "/users/me?token="+tok.AccessToken, nil)
	assert.Equal(t, http.StatusOK, do(r, req).Code)
}

func TestHTTP_Errors(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"username":"x","password":"secret12"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(`{"username":"ghost","password":"secret12"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestRequestToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws/abc?token=q", nil)
	assert.Equal(t, "q", RequestToken(req))
	req.Header.Set("Authorization", "bearer h")
	assert.Equal(t, "h", RequestToken(req))
	req.Header.Set("Authorization", "Basic zzz")
	assert.Equal(t, "q", RequestToken(req))
}
