package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sysmon/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newRouter(RateLimitMiddleware(NewRateLimiter(rate.Limit(0.001), 2)))

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCORSMiddleware(t *testing.T) {
	r := newRouter(CORSMiddleware([]string{"https://dash.example.com", "localhost:3000"}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://dash.example.com/")
	w := serve(r, req)
	assert.Equal(t, "https://dash.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = serve(r, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = serve(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	w = serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestIPWhitelist(t *testing.T) {
	wl := NewIPWhitelist([]string{"10.0.0.5"})

	assert.True(t, wl.IsAllowed("127.0.0.1"))
	assert.True(t, wl.IsAllowed("::1"))
	assert.True(t, wl.IsAllowed("10.0.0.5:1234"))
	assert.False(t, wl.IsAllowed("10.0.0.6"))

	assert.True(t, NewIPWhitelist(nil).IsAllowed("192.168.1.1"))
}

func TestIPWhitelistMiddleware(t *testing.T) {
	r := newRouter(IPWhitelistMiddleware(NewIPWhitelist([]string{"10.0.0.5"})))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.5:5555"
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestAuthMiddleware(t *testing.T) {
	NewSecurityLogger()
	services.InitAuthService(strings.Repeat("s", 40), "", time.Hour)
	token, err := services.GenerateToken("web-01")
	require.NoError(t, err)

	r := newRouter(AuthMiddleware())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/ping?token="+token, nil)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestWebSocketOriginChecker(t *testing.T) {
	check := WebSocketOriginChecker([]string{"http://good.example"})

	newReq := func(origin string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:8080/ws", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		return req
	}

	assert.True(t, check(newReq("")))
	assert.True(t, check(newReq("http://127.0.0.1:8080")))
	assert.True(t, check(newReq("http://good.example")))
	assert.False(t, check(newReq("http://evil.example")))
	assert.False(t, WebSocketOriginChecker(nil)(newReq("http://good.example")))
}

func TestAuthenticate(t *testing.T) {
	NewSecurityLogger()
	services.InitAuthService(strings.Repeat("s", 40), "", time.Hour)
	token, err := services.GenerateToken("web-01")
	require.NoError(t, err)

	authenticate := func(target string) (*services.CustomClaims, error) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)
		return Authenticate(c)
	}

	_, err = authenticate("/ws")
	assert.ErrorIs(t, err, ErrMissingToken)
	assert.Equal(t, "missing token", AuthError(err))

	_, err = authenticate("/ws?token=not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformedToken)
	assert.Equal(t, "invalid token", AuthError(err))

	// well-formed but signed with another key
	_, err = authenticate("/ws?token=" + strings.Repeat("a", 10) + "." + strings.Repeat("b", 10) + ".c")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedToken))

	claims, err := authenticate("/ws?token=" + token)
	require.NoError(t, err)
	assert.Equal(t, "web-01", claims.ServerName)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	r := newRouter(SecurityHeadersMiddleware())
	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestInputValidator(t *testing.T) {
	v := NewInputValidator()
	assert.True(t, v.ValidateServerName("web-01.prod"))
	assert.False(t, v.ValidateServerName("web 01"))
	assert.False(t, v.ValidateServerName(""))
	assert.False(t, v.ValidateToken("abc"))
	assert.True(t, v.ValidateToken(strings.Repeat("a", 10)+"."+strings.Repeat("b", 10)+".c"))
}
