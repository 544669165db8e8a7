package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const accountKey = "auth.account"

type HTTPHandler struct {
	service Service
}

type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type meResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(service Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/register", h.handleRegister)
	r.POST("/token", h.handleToken)
	r.GET("/users/me", h.RequireAuth(), h.handleMe)
}

func (h *HTTPHandler) handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	acct, err := h.service.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		case errors.Is(err, ErrUsernameTaken):
			c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
		default:
			logger.Error().Err(err).Msg("Register failed")
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "register failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, meResponse{ID: acct.ID, Username: acct.Username})
}

// handleToken accepts form or JSON credentials.
func (h *HTTPHandler) handleToken(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	token, _, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid username or password"})
			return
		}
		logger.Error().Err(err).Msg("Login failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "login failed"})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *HTTPHandler) handleMe(c *gin.Context) {
	acct := c.MustGet(accountKey).(Account)
	c.JSON(http.StatusOK, meResponse{ID: acct.ID, Username: acct.Username})
}

// RequireAuth rejects requests without a valid bearer token and stores
// the account in the context.
func (h *HTTPHandler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := RequestToken(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}
		acct, err := h.service.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid bearer token"})
			return
		}
		c.Set(accountKey, acct)
		c.Next()
	}
}

// AccountFrom returns the account stored by RequireAuth.
func AccountFrom(c *gin.Context) (Account, bool) {
	v, ok := c.Get(accountKey)
	if !ok {
		return Account{}, false
	}
	acct, ok := v.(Account)
	return acct, ok
}

// RequestToken reads the bearer token from the Authorization header or,
// for browsers opening a WebSocket, the "token" query parameter.
func RequestToken(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func bearerToken(raw string) string {
	if len(raw) < 7 || !strings.EqualFold(raw[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(raw[7:])
}
