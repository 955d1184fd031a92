package service

import (
	"context"
	"strings"
	"time"

	"github.com/EnuliForge/kwikorder-engine/internal/auth"
	"github.com/EnuliForge/kwikorder-engine/internal/config"
	"github.com/EnuliForge/kwikorder-engine/internal/domain"
	apperrors "github.com/EnuliForge/kwikorder-engine/pkg/util/errorutil"
)

// StationAuthService signs in kitchen and bar stations with the shared station PIN.
type StationAuthService struct {
	tokenMgr *auth.TokenManager
	pinHash  string
}

// NewStationAuthService builds the service. An empty PIN hash disables login.
func NewStationAuthService(cfg config.AuthConfig) *StationAuthService {
	return &StationAuthService{
		tokenMgr: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		pinHash:  strings.TrimSpace(cfg.StationPINHash),
	}
}

// Login verifies pin and returns a token bound to the station and its stream.
func (s *StationAuthService) Login(_ context.Context, stationID string, stream domain.Stream, pin string) (string, time.Time, error) {
	if !stream.Valid() {
		return "", time.Time{}, apperrors.NewValidationError("unknown stream", map[string]any{"stream": stream})
	}
	if s.pinHash == "" {
		return "", time.Time{}, apperrors.NewUnauthorized("station login disabled")
	}
	if err := auth.ComparePassword(s.pinHash, pin); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		stationID = string(stream)
	}
	return s.tokenMgr.GenerateToken(stationID, stream)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *StationAuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
