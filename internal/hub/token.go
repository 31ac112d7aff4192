package hub

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// WarnIfTokenExpiring inspects a hub token without verifying its signature
// and logs a warning when it is expired or about to expire. Opaque tokens
// pass silently; only the hub can truly validate them.
func WarnIfTokenExpiring(token string) {
	if token == "" {
		log.Warn().Msg("No hub token configured; pushes will likely be rejected")
		return
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Not a JWT. Hub tokens may be opaque; nothing to check.
		return
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}

	remaining := time.Until(exp.Time)
	switch {
	case remaining <= 0:
		log.Warn().Time("expired_at", exp.Time).Msg("Hub token is expired")
	case remaining < 24*time.Hour:
		log.Warn().Dur("remaining", remaining).Msg("Hub token expires soon")
	}
}
