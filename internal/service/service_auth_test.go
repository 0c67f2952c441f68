package service

import (
	"context"
	"testing"
	"time"

	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSignKey = "test-sign-key"
	testIssuer  = "compvault-sso"
)

func newTestTokenService() TokenParser {
	cfg := config.Auth{TokenSignKey: testSignKey, TokenIssuer: testIssuer}
	return NewTokenService(cfg, logger.Nop())
}

func signedTestToken(t *testing.T, issuer string, userID int64, ttl time.Duration) string {
	t.Helper()
	token, err := utils.GenerateJWTToken(issuer, userID, ttl, testSignKey)
	require.NoError(t, err)
	return token.SignedString
}

func TestParseToken_Valid(t *testing.T) {
	svc := newTestTokenService()
	signed := signedTestToken(t, testIssuer, 42, time.Hour)

	token, err := svc.ParseToken(context.Background(), signed)

	require.NoError(t, err)
	assert.Equal(t, int64(42), token.UserID)
}

func TestParseToken_WrongIssuer(t *testing.T) {
	svc := newTestTokenService()
	signed := signedTestToken(t, "some-other-idp", 42, time.Hour)

	_, err := svc.ParseToken(context.Background(), signed)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestParseToken_Expired(t *testing.T) {
	svc := newTestTokenService()
	signed := signedTestToken(t, testIssuer, 42, -time.Minute)

	_, err := svc.ParseToken(context.Background(), signed)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestParseToken_WrongSignKey(t *testing.T) {
	other, err := utils.GenerateJWTToken(testIssuer, 42, time.Hour, "not-the-shared-key")
	require.NoError(t, err)

	svc := newTestTokenService()
	_, err = svc.ParseToken(context.Background(), other.SignedString)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestParseToken_Garbage(t *testing.T) {
	svc := newTestTokenService()

	_, err := svc.ParseToken(context.Background(), "not.a.jwt")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthentication)
}
