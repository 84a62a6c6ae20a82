package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"
)

// ErrBadToken rejects a reconnect token that fails validation for any reason.
var ErrBadToken = errors.New("invalid reconnect token")

// SessionService issues and validates reconnect tokens. A token binds a
// user to the seat it held in a specific game, so a dropped player can
// resume after the transport connection is gone.
type SessionService struct {
	secret string
	issuer string
	ttl    time.Duration
}

func NewSessionService(secret, issuer string, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultReconnectTokenTTL
	}
	return &SessionService{secret: secret, issuer: issuer, ttl: ttl}
}

// IssueReconnectToken signs a token for the user's seat in the given game.
func (s *SessionService) IssueReconnectToken(userID, gameID string, slot int) (string, error) {
	if s == nil {
		return "", fmt.Errorf("session service is nil")
	}
	if userID == "" {
		return "", fmt.Errorf("user is required")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("session config is incomplete")
	}

	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  userID,
		"gid":  gameID,
		"slot": slot,
		"jti":  uuid.NewString(),
		"exp":  time.Now().Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// ValidateReconnectToken checks signature, expiry, issuer and binding, and
// returns the seat the token grants.
func (s *SessionService) ValidateReconnectToken(token, userID, gameID string) (int, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrBadToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrBadToken
	}
	if iss, _ := claims["iss"].(string); iss != s.issuer {
		return 0, ErrBadToken
	}
	if sub, _ := claims["sub"].(string); sub != userID {
		return 0, ErrBadToken
	}
	if gid, _ := claims["gid"].(string); gid != gameID {
		return 0, ErrBadToken
	}
	slot, ok := claims["slot"].(float64)
	if !ok || slot < 0 {
		return 0, ErrBadToken
	}
	return int(slot), nil
}
