package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	secretKeyFileName = ".sysmon-secret-key"
	minSecretLength   = 32
)

var ErrAuthNotInitialized = errors.New("auth service not initialized")

// AuthService manages JWT token generation and validation
type AuthService struct {
	secretKey   string
	tokenExpiry time.Duration
}

// CustomClaims represents the JWT claims structure
type CustomClaims struct {
	ServerName string `json:"server_name"`
	jwt.RegisteredClaims
}

var authService *AuthService

// DefaultSecretKeyFile returns where a generated secret is persisted
func DefaultSecretKeyFile() string {
	homeDir, _ := os.UserHomeDir()
	if homeDir == "" {
		return filepath.Join(os.TempDir(), secretKeyFileName)
	}
	return filepath.Join(homeDir, secretKeyFileName)
}

// InitAuthService initializes the authentication service. An empty secretKey
// is loaded from keyFile, or generated and persisted there.
func InitAuthService(secretKey, keyFile string, tokenExpiry time.Duration) *AuthService {
	log := logrus.WithField("component", "auth")

	if secretKey == "" {
		if data, err := os.ReadFile(keyFile); err == nil && len(data) > 0 {
			secretKey = strings.TrimSpace(string(data))
			log.Infof("Loaded persisted secret key from %s (length: %d bytes)", keyFile, len(secretKey))
		} else {
			secretKey = generateSecret()
			if err := os.WriteFile(keyFile, []byte(secretKey), 0600); err != nil {
				log.Warnf("Could not persist secret key to %s: %v", keyFile, err)
			} else {
				log.Infof("Generated and persisted secret key to %s", keyFile)
			}
		}
	}

	if tokenExpiry == 0 {
		tokenExpiry = 90 * 24 * time.Hour
	}

	secretKey = strings.TrimSpace(secretKey)
	if len(secretKey) < minSecretLength {
		log.Warnf("Secret key is only %d bytes, padding to %d for HMAC-SHA256", len(secretKey), minSecretLength)
		padding := make([]byte, minSecretLength-len(secretKey))
		_, _ = rand.Read(padding)
		secretKey += hex.EncodeToString(padding)
	}

	authService = &AuthService{
		secretKey:   secretKey,
		tokenExpiry: tokenExpiry,
	}
	return authService
}

func generateSecret() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "sysmon"
	}

	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		logrus.WithField("component", "auth").Warn("Random generation failed, using fallback key")
		return fmt.Sprintf("sysmon-%s-%d-backup", hostname, time.Now().UnixNano())
	}
	return fmt.Sprintf("sysmon-%s-%s", hostname, hex.EncodeToString(randomBytes))
}

// GenerateToken creates a new JWT token for serverName
func GenerateToken(serverName string) (string, error) {
	if authService == nil {
		return "", ErrAuthNotInitialized
	}

	now := time.Now()
	claims := CustomClaims{
		ServerName: serverName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(authService.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "sysmon",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(authService.secretKey))
}

// ValidateToken verifies and parses a JWT token
func ValidateToken(tokenString string) (*CustomClaims, error) {
	if authService == nil {
		return nil, ErrAuthNotInitialized
	}

	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(authService.secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// GetTokenExpiry returns when a token generated now would expire
func GetTokenExpiry() time.Time {
	if authService == nil {
		return time.Time{}
	}
	return time.Now().Add(authService.tokenExpiry)
}
