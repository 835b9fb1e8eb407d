package middleware

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"sysmon/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Package-level security logger instance
var GlobalSecurityLogger *SecurityLogger

// RateLimiter implements token bucket rate limiting per IP
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
}

// NewRateLimiter creates a per-IP limiter allowing limit events per second
func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// NewGeneralRateLimiter allows 100 requests per second per IP, burst of 200
func NewGeneralRateLimiter() *RateLimiter {
	return NewRateLimiter(rate.Limit(100), 200)
}

// NewClickRateLimiter allows one refresh click per second per IP, burst of 5.
// Every click re-polls the disks, so it is kept much stricter.
func NewClickRateLimiter() *RateLimiter {
	return NewRateLimiter(rate.Limit(1), 5)
}

// GetLimiter gets or creates a limiter for an IP address
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[ip]; exists {
		return limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[ip] = limiter
	return limiter
}

// RateLimitMiddleware enforces rate limiting per IP
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.GetLimiter(ip).Allow() {
			logrus.WithField("component", "security").Warnf("Rate limit exceeded for IP: %s", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": 1,
			})
			return
		}
		c.Next()
	}
}

// SecurityHeadersMiddleware adds security headers to all responses
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// CORSMiddleware allows the listed origins. An entry without a scheme
// matches on host only; "*" matches everything.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimRight(c.GetHeader("Origin"), "/")

		if OriginAllowed(origin, allowedOrigins) {
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// OriginAllowed reports whether origin matches an entry of allowedOrigins
func OriginAllowed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, o := range allowedOrigins {
		trimmed := strings.TrimRight(strings.TrimSpace(o), "/")
		if trimmed == "" {
			continue
		}
		if trimmed == "*" || trimmed == origin {
			return true
		}
		if !strings.Contains(trimmed, "://") {
			if parsed, err := url.Parse(origin); err == nil && parsed.Host == trimmed {
				return true
			}
		}
	}
	return false
}

// WebSocketOriginChecker returns a CheckOrigin func for websocket upgrades.
// Browsers do not apply CORS to upgrades, so the allow-list is enforced here.
// Requests without an Origin header and same-host origins are accepted.
func WebSocketOriginChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := strings.TrimRight(r.Header.Get("Origin"), "/")
		if origin == "" {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && strings.EqualFold(parsed.Host, r.Host) {
			return true
		}
		if OriginAllowed(origin, allowedOrigins) {
			return true
		}
		logrus.WithField("component", "security").Warnf("Rejected websocket origin %s", origin)
		return false
	}
}

// IPWhitelist restricts access to a fixed set of IPs
type IPWhitelist struct {
	ips map[string]bool
	mu  sync.RWMutex
}

// NewIPWhitelist creates a new IP whitelist
func NewIPWhitelist(ips []string) *IPWhitelist {
	wl := &IPWhitelist{
		ips: make(map[string]bool),
	}
	for _, ip := range ips {
		wl.ips[strings.TrimSpace(ip)] = true
	}
	return wl
}

// IsAllowed checks if an IP is whitelisted. Loopback is always allowed and an
// empty list allows everyone.
func (wl *IPWhitelist) IsAllowed(ip string) bool {
	wl.mu.RLock()
	defer wl.mu.RUnlock()

	ipOnly, _, err := net.SplitHostPort(ip)
	if err != nil {
		ipOnly = ip
	}

	if parsed := net.ParseIP(ipOnly); parsed != nil && parsed.IsLoopback() {
		return true
	}
	if ipOnly == "localhost" || len(wl.ips) == 0 {
		return true
	}

	return wl.ips[ipOnly]
}

// IPWhitelistMiddleware enforces IP whitelisting
func IPWhitelistMiddleware(whitelist *IPWhitelist) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !whitelist.IsAllowed(ip) {
			logrus.WithField("component", "security").Warnf("Access denied for non-whitelisted IP: %s", ip)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

// BearerToken extracts a token from the Authorization header, falling back to
// the token query parameter
func BearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}

var (
	ErrMissingToken   = errors.New("missing token")
	ErrMalformedToken = errors.New("malformed token")
)

// Authenticate checks the request's token format and signature. Failures are
// recorded by the security logger.
func Authenticate(c *gin.Context) (*services.CustomClaims, error) {
	token := BearerToken(c)
	if token == "" {
		GlobalSecurityLogger.LogFailedAuth(c.ClientIP(), "missing token")
		return nil, ErrMissingToken
	}
	if !NewInputValidator().ValidateToken(token) {
		GlobalSecurityLogger.LogFailedAuth(c.ClientIP(), "malformed token")
		return nil, ErrMalformedToken
	}

	claims, err := services.ValidateToken(token)
	if err != nil {
		GlobalSecurityLogger.LogFailedAuth(c.ClientIP(), "invalid token: "+err.Error())
		return nil, err
	}
	return claims, nil
}

// AuthError is the client-facing message for an Authenticate error
func AuthError(err error) string {
	if errors.Is(err, ErrMissingToken) {
		return "missing token"
	}
	return "invalid token"
}

// AuthMiddleware rejects requests without a valid JWT
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := Authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": AuthError(err)})
			return
		}

		c.Set("server_name", claims.ServerName)
		c.Next()
	}
}

// SecurityLogger logs security events
type SecurityLogger struct {
	log *logrus.Entry
}

// NewSecurityLogger creates a new security logger and installs it globally
func NewSecurityLogger() *SecurityLogger {
	sl := &SecurityLogger{log: logrus.WithField("component", "security")}
	GlobalSecurityLogger = sl
	return sl
}

// LogFailedAuth logs failed authentication attempts
func (sl *SecurityLogger) LogFailedAuth(ip string, reason string) {
	if sl == nil {
		return
	}
	sl.log.WithField("ip", ip).Warnf("Failed authentication: %s", reason)
}

// LogTokenGenerated logs successful token generation
func (sl *SecurityLogger) LogTokenGenerated(source string, serverName string) {
	if sl == nil {
		return
	}
	sl.log.WithField("source", source).Infof("Token generated for server %s", serverName)
}

// LogWebSocketConnected logs successful WebSocket connections
func (sl *SecurityLogger) LogWebSocketConnected(ip string, serverName string) {
	if sl == nil {
		return
	}
	sl.log.WithField("ip", ip).Infof("WebSocket connected for server %s", serverName)
}

// LogWebSocketDisconnected logs WebSocket disconnections
func (sl *SecurityLogger) LogWebSocketDisconnected(ip string, clientID string) {
	if sl == nil {
		return
	}
	sl.log.WithField("ip", ip).Infof("WebSocket disconnected: %s", clientID)
}

// InputValidator validates and sanitizes user input
type InputValidator struct{}

// NewInputValidator creates a new input validator
func NewInputValidator() *InputValidator {
	return &InputValidator{}
}

// ValidateToken checks if token format is valid
func (iv *InputValidator) ValidateToken(token string) bool {
	// JWT tokens are in format: header.payload.signature
	if len(token) < 20 || len(token) > 4096 {
		return false
	}
	return strings.Count(token, ".") == 2
}

// ValidateServerName checks if server name is safe
func (iv *InputValidator) ValidateServerName(name string) bool {
	if len(name) < 1 || len(name) > 255 {
		return false
	}

	// Allow alphanumeric, hyphens, underscores, dots
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.') {
			return false
		}
	}

	return true
}
