package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/anjiri1684/elevate_lms/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		require.NoError(t, err)
		assert.Len(t, otp, 6)
		assert.Equal(t, -1, strings.IndexFunc(otp, func(r rune) bool { return r < '0' || r > '9' }))
	}
}

func TestULIDsAreSortable(t *testing.T) {
	a := NewULID()
	b := NewULID()
	assert.Less(t, a, b)
	assert.True(t, strings.HasPrefix(ReceiptNumber(), "order_"))
	assert.True(t, strings.HasPrefix(CertificateNumber(), "CERT-"))
}

func TestGeneratePasswordMeetsRule(t *testing.T) {
	p, err := GeneratePassword()
	require.NoError(t, err)
	assert.Len(t, p, 12)
	assert.True(t, strings.ContainsAny(p, "ABCDEFGHJKLMNPQRSTUVWXYZ"))
	assert.True(t, strings.ContainsAny(p, "abcdefghijkmnopqrstuvwxyz"))
	assert.True(t, strings.ContainsAny(p, "23456789"))
	assert.True(t, strings.ContainsAny(p, passwordSymbols))
}

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")

	id := uuid.New()
	pair, err := IssueTokenPair(id, models.RoleTutor)
	require.NoError(t, err)

	claims, err := ParseToken(AccessToken, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, id, claims.ID)
	assert.Equal(t, models.RoleTutor, claims.Role)

	_, err = ParseToken(AccessToken, pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token must not pass as access token")

	_, err = ParseToken(RefreshToken, pair.Refresh)
	assert.NoError(t, err)
}

func TestCheckSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")
	assert.ErrorIs(t, CheckSecrets(), ErrMissingSecret)

	// an empty key must never sign or verify
	_, err := SignToken(AccessToken, uuid.New(), models.RoleUser)
	assert.ErrorIs(t, err, ErrMissingSecret)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": uuid.NewString(), "role": "admin", "typ": "access",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(""))
	require.NoError(t, err)
	_, err = ParseToken(AccessToken, forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// the shared secret covers access tokens only
	t.Setenv("JWT_SECRET", "shared")
	assert.ErrorIs(t, CheckSecrets(), ErrMissingSecret)
	assert.Empty(t, RefreshSecret())

	t.Setenv("JWT_REFRESH_SECRET", "shared")
	assert.Error(t, CheckSecrets())

	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
	assert.NoError(t, CheckSecrets())
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": uuid.NewString(), "role": "user", "typ": "access",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	s, err := tok.SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = ParseToken(AccessToken, s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCookieName(t *testing.T) {
	assert.Equal(t, "admin_refresh_token", CookieName(models.RoleAdmin, RefreshToken))

	t.Setenv("USER_ACCESS_TOKEN_NAME", "uat")
	assert.Equal(t, "uat", CookieName(models.RoleUser, AccessToken))
}
