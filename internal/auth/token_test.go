package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billify.site/internal/user"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	u, err := user.NewUser("ada@example.com", "ada", "Ada", "Lovelace", "Str0ng!pw")
	require.NoError(t, err)

	issuer := NewTokenIssuer("secret", AccessTokenTTL)

	token, exp, err := issuer.Issue(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(AccessTokenTTL), exp, 5*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.ID)
	assert.Equal(t, u.ID.Hex(), claims.Subject)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	u, err := user.NewUser("ada@example.com", "ada", "Ada", "Lovelace", "Str0ng!pw")
	require.NoError(t, err)

	issuer := NewTokenIssuer("secret", AccessTokenTTL)

	expired := NewTokenIssuer("secret", AccessTokenTTL)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }

	old, _, err := expired.Issue(u)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ID: u.ID.Hex()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		desc  string
		token string
		err   error
	}{
		{"expired", old, jwt.ErrTokenExpired},
		{"unsigned", none, jwt.ErrTokenSignatureInvalid},
		{"missing id", noID, errMissingIDClaim},
	}

	for i, tc := range tests {
		_, err := issuer.Verify(tc.token)

		assert.ErrorIs(t, err, tc.err, "TEST[%d], Failed.\n%s", i, tc.desc)
	}

	_, _, err = NewTokenIssuer("", AccessTokenTTL).Issue(u)
	assert.ErrorIs(t, err, errTokenSigningEmptyKey)
}
