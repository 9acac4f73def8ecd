package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestJWT(t *testing.T, clock *fakeClock) *JWTService {
	t.Helper()
	svc, err := NewJWTService(testSecret, WithClock(clock.Now))
	require.NoError(t, err)
	return svc
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	_, err := NewJWTService("short")
	assert.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestJWT(t, clock)

	token, exp, err := svc.Issue("user-1", models.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(24*time.Hour), exp)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, models.RoleEditor, claims.Role)
	assert.Equal(t, clock.t.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, 24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestVerifyExpired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestJWT(t, clock)

	token, _, err := svc.Issue("user-1", models.RoleVisitor)
	require.NoError(t, err)

	clock.t = clock.t.Add(24*time.Hour + time.Second)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.True(t, errors.Is(err, errs.ErrUnauthenticated))
}

func TestVerifyWrongSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestJWT(t, clock)
	other, err := NewJWTService(strings.Repeat("x", 40), WithClock(clock.Now))
	require.NoError(t, err)

	token, _, err := other.Issue("user-1", models.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestVerifyTamperedPayload(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestJWT(t, clock)

	token, _, err := svc.Issue("user-1", models.RoleVisitor)
	require.NoError(t, err)

	// 使用另一个合法载荷替换中段，签名不再匹配
	forged, _, err := svc.Issue("user-2", models.RoleAdmin)
	require.NoError(t, err)
	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forged, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestVerifyMalformed(t *testing.T) {
	svc := newTestJWT(t, &fakeClock{t: time.Now()})

	for _, token := range []string{"", "abc", "a.b.c"} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, ErrTokenMalformed, token)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestJWT(t, clock)

	claims := Claims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(clock.t),
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestJWT(t, clock)

	claims := Claims{
		Role: models.Role("Root"),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(clock.t),
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestIssueRejectsInvalidInput(t *testing.T) {
	svc := newTestJWT(t, &fakeClock{t: time.Now()})

	_, _, err := svc.Issue("", models.RoleAdmin)
	assert.Error(t, err)
	_, _, err = svc.Issue("u", models.Role("nope"))
	assert.Error(t, err)
}
