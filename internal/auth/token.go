package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"billify.site/internal/user"
)

// AccessTokenTTL is the lifetime of an access token.
const AccessTokenTTL = 15 * time.Minute

var (
	errTokenSigningEmptyKey = errors.New("token signing error: no secret configured")
	errMissingIDClaim       = errors.New("missing id claim")
)

// Claims is the payload of an access token.
type Claims struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`

	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for u and its expiry.
func (t *TokenIssuer) Issue(u *user.User) (string, time.Time, error) {
	if len(t.secret) == 0 {
		return "", time.Time{}, errTokenSigningEmptyKey
	}

	now := t.now()
	exp := now.Add(t.ttl)

	claims := Claims{
		ID:    u.ID.Hex(),
		Roles: u.RoleNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, exp, nil
}

// Verify parses tokenString and checks its signature, algorithm and expiry.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}

	if claims.ID == "" {
		return nil, errMissingIDClaim
	}

	return &claims, nil
}
