package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/noob2628/Inventory-App/types"
)

const defaultTokenTTL = time.Hour

var (
	// ErrUnauthorized is returned for missing, malformed, forged or expired tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller's role is not allowed.
	ErrForbidden = errors.New("forbidden")
)

// Claims identify the caller of an operation.
type Claims struct {
	UserID int
	Role   types.Role
}

// Authenticated reports whether the claims carry a usable identity.
func (c Claims) Authenticated() bool {
	return c.UserID > 0 && c.Role != ""
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens. It keeps no state
// beyond the signing secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token embedding the caller's id and role.
func (m *TokenManager) Issue(claims Claims) (string, error) {
	if !claims.Authenticated() {
		return "", errors.New("cannot issue token for empty claims")
	}
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Role: string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(claims.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	return token.SignedString(m.secret)
}

// Verify checks signature and expiry and returns the embedded claims.
// Every failure is reported as ErrUnauthorized.
func (m *TokenManager) Verify(tokenString string) (Claims, error) {
	parsed := tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &parsed, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !token.Valid {
		return Claims{}, ErrUnauthorized
	}

	userID, err := strconv.Atoi(strings.TrimSpace(parsed.Subject))
	if err != nil || userID < 1 {
		return Claims{}, fmt.Errorf("%w: invalid subject", ErrUnauthorized)
	}
	claims := Claims{UserID: userID, Role: types.Role(parsed.Role)}
	if !claims.Authenticated() {
		return Claims{}, fmt.Errorf("%w: missing role", ErrUnauthorized)
	}
	return claims, nil
}

// TTL returns how long issued tokens stay valid.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// RequireRole allows the caller when its role is one of allowed.
func RequireRole(claims Claims, allowed ...types.Role) error {
	if !claims.Authenticated() {
		return ErrUnauthorized
	}
	for _, role := range allowed {
		if strings.EqualFold(string(claims.Role), string(role)) {
			return nil
		}
	}
	return ErrForbidden
}
