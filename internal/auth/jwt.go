// Package auth issues the tokens that tie a visitor to their booking session.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "hostel-booking-backend"

// RenewedTokenHeader carries a replacement token once the presented one has
// used up half of its lifetime.
const RenewedTokenHeader = "X-Session-Token"

var ErrInvalidToken = errors.New("invalid session token")

// Claims defines the JWT claims embedded in a session token. The subject is
// the session id.
type Claims struct {
	SessionID string `json:"-"`
	RoomID    int64  `json:"room_id"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates booking session tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

// NewJWTManager creates a manager whose tokens expire after ttl. Tokens of
// active visitors are renewed so they follow the session's idle timeout.
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		ttl:    ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// GenerateSessionToken creates a signed JWT granting access to one session.
func (m *JWTManager) GenerateSessionToken(sessionID string, roomID int64) (string, error) {
	now := time.Now().UTC()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RoomID: roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ParseAndValidate checks signature, issuer and expiry and returns the claims.
func (m *JWTManager) ParseAndValidate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	claims.SessionID = claims.Subject
	return claims, nil
}

// Renew returns a fresh token for the same session when less than half of
// the lifetime of claims is left. ok is false when no renewal is due.
func (m *JWTManager) Renew(claims *Claims) (token string, ok bool, err error) {
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > m.ttl/2 {
		return "", false, nil
	}
	token, err = m.GenerateSessionToken(claims.SessionID, claims.RoomID)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}
