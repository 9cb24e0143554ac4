package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/logger"
)

func newTestAuthService(key, issuer string, d time.Duration) AuthService {
	return NewAuthService(config.ServerConfig{TokenSignKey: key, TokenIssuer: issuer, TokenDuration: d}, logger.Nop())
}

func TestAuthService_RoundTrip(t *testing.T) {
	a := newTestAuthService("secret", "repcue-dev", time.Hour)
	ctx := testContext()

	token, err := a.CreateToken(ctx, "user-42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	owner, err := a.ParseToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", owner)
}

func TestAuthService_CreateToken_Errors(t *testing.T) {
	tests := []struct {
		name  string
		svc   AuthService
		owner string
	}{
		{name: "empty owner", svc: newTestAuthService("secret", "repcue-dev", time.Hour), owner: ""},
		{name: "no sign key", svc: newTestAuthService("", "repcue-dev", time.Hour), owner: "user-1"},
		{name: "no duration", svc: newTestAuthService("secret", "repcue-dev", 0), owner: "user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.CreateToken(testContext(), tt.owner)
			assert.ErrorIs(t, err, ErrTokenCreationFailed)
		})
	}
}

func TestAuthService_ParseToken_Rejects(t *testing.T) {
	issuer := newTestAuthService("secret", "repcue-dev", time.Hour)
	ctx := testContext()

	valid, err := issuer.CreateToken(ctx, "user-1")
	require.NoError(t, err)
	expired, err := newTestAuthService("secret", "repcue-dev", -time.Minute).CreateToken(ctx, "user-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		parser AuthService
		token  string
	}{
		{name: "garbage", parser: issuer, token: "not-a-jwt"},
		{name: "empty", parser: issuer, token: ""},
		{name: "wrong key", parser: newTestAuthService("other", "repcue-dev", time.Hour), token: valid},
		{name: "wrong issuer", parser: newTestAuthService("secret", "someone-else", time.Hour), token: valid},
		{name: "expired", parser: issuer, token: expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, err := tt.parser.ParseToken(ctx, tt.token)
			assert.ErrorIs(t, err, ErrTokenIsExpiredOrInvalid)
			assert.Empty(t, owner)
		})
	}
}
