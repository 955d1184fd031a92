package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/EnuliForge/kwikorder-engine/internal/auth"
	"github.com/EnuliForge/kwikorder-engine/internal/config"
	"github.com/EnuliForge/kwikorder-engine/internal/domain"
)

func newStationAuth(t *testing.T, pin string) *StationAuthService {
	t.Helper()
	cfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5}
	if pin != "" {
		hash, err := auth.HashPassword(pin, bcrypt.MinCost)
		require.NoError(t, err)
		cfg.StationPINHash = hash
	}
	return NewStationAuthService(cfg)
}

func TestStationLogin(t *testing.T) {
	svc := newStationAuth(t, "4321")

	token, exp, err := svc.Login(context.Background(), "", domain.StreamBar, "4321")
	require.NoError(t, err)
	assert.False(t, exp.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "bar", claims.StationID)
	assert.Equal(t, domain.StreamBar, claims.Stream)
}

func TestStationLoginFailures(t *testing.T) {
	svc := newStationAuth(t, "4321")

	_, _, err := svc.Login(context.Background(), "s1", domain.StreamKitchen, "0000")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))

	_, _, err = svc.Login(context.Background(), "s1", domain.Stream("grill"), "4321")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	disabled := newStationAuth(t, "")
	_, _, err = disabled.Login(context.Background(), "s1", domain.StreamKitchen, "4321")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))
}
