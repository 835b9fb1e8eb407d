package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	InitAuthService(strings.Repeat("k", 40), "", time.Hour)

	token, err := GenerateToken("web-01")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "web-01", claims.ServerName)
	assert.Equal(t, "sysmon", claims.Issuer)
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	InitAuthService(strings.Repeat("a", 40), "", time.Hour)
	token, err := GenerateToken("web-01")
	require.NoError(t, err)

	InitAuthService(strings.Repeat("b", 40), "", time.Hour)
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestInitAuthServicePersistsGeneratedSecret(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "secret")

	InitAuthService("", keyFile, time.Hour)
	token, err := GenerateToken("web-01")
	require.NoError(t, err)

	data, err := os.ReadFile(keyFile)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	// a second init loads the same key, so old tokens stay valid
	InitAuthService("", keyFile, time.Hour)
	_, err = ValidateToken(token)
	assert.NoError(t, err)
}

func TestInitAuthServicePadsShortSecret(t *testing.T) {
	svc := InitAuthService("short", "", time.Hour)
	assert.GreaterOrEqual(t, len(svc.secretKey), minSecretLength)
}
