package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(cfg TokenConfig, now time.Time) *JWTService {
	s := NewJWTService(cfg)
	s.now = func() time.Time { return now }
	return s
}

var testConfig = TokenConfig{
	Secret:   "test-secret",
	Issuer:   "mini-tasks-app",
	Audience: "mini-tasks-users",
}

func TestJWTService_RoundTrip(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(testConfig, issuedAt)
	userID := uuid.New()

	token, err := s.Issue(userID, "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "a@x.com", identity.Email)
	assert.True(t, identity.IssuedAt.Equal(issuedAt))
	assert.True(t, identity.ExpiresAt.Equal(issuedAt.Add(TokenLifetime)))
}

func TestJWTService_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := newTestService(testConfig, issuedAt)
	token, err := issuer.Issue(uuid.New(), "a@x.com")
	require.NoError(t, err)

	expiresAt := issuedAt.Add(TokenLifetime)

	before := newTestService(testConfig, expiresAt.Add(-time.Second))
	_, err = before.Verify(token)
	assert.NoError(t, err)

	after := newTestService(testConfig, expiresAt.Add(time.Second))
	_, err = after.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTService_UniqueTokens(t *testing.T) {
	s := newTestService(testConfig, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	userID := uuid.New()

	first, err := s.Issue(userID, "a@x.com")
	require.NoError(t, err)
	second, err := s.Issue(userID, "a@x.com")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestJWTService_Rejects(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(testConfig, now)
	token, err := s.Issue(uuid.New(), "a@x.com")
	require.NoError(t, err)
	other, err := s.Issue(uuid.New(), "b@x.com")
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *JWTService
		token    string
		want     error
	}{
		{
			name:     "wrong secret",
			verifier: newTestService(TokenConfig{Secret: "other", Issuer: testConfig.Issuer, Audience: testConfig.Audience}, now),
			token:    token,
			want:     jwt.ErrTokenSignatureInvalid,
		},
		{
			name:     "issuer mismatch",
			verifier: newTestService(TokenConfig{Secret: testConfig.Secret, Issuer: "someone-else", Audience: testConfig.Audience}, now),
			token:    token,
			want:     jwt.ErrTokenInvalidIssuer,
		},
		{
			name:     "audience mismatch",
			verifier: newTestService(TokenConfig{Secret: testConfig.Secret, Issuer: testConfig.Issuer, Audience: "admins"}, now),
			token:    token,
			want:     jwt.ErrTokenInvalidAudience,
		},
		{
			name:     "malformed",
			verifier: s,
			token:    "not-a-jwt",
			want:     jwt.ErrTokenMalformed,
		},
		{
			name:     "swapped payload",
			verifier: s,
			token:    swapPayload(token, other),
			want:     jwt.ErrTokenSignatureInvalid,
		},
		{
			name:     "tampered signature",
			verifier: s,
			token:    tamperSignature(token),
			want:     jwt.ErrTokenSignatureInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := tt.verifier.Verify(tt.token)
			assert.Nil(t, identity)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestJWTService_RejectsUnsignedToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	claims := &Claims{
		UserID: uuid.New().String(),
		Email:  "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testConfig.Issuer,
			Audience:  jwt.ClaimStrings{testConfig.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestService(testConfig, now).Verify(unsigned)
	assert.Error(t, err)
}

func TestJWTService_RejectsBadUserID(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	claims := &Claims{
		UserID: "42",
		Email:  "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testConfig.Issuer,
			Audience:  jwt.ClaimStrings{testConfig.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testConfig.Secret))
	require.NoError(t, err)

	_, err = newTestService(testConfig, now).Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidClaims)
}

func TestJWTService_WithoutIssuerAndAudience(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(TokenConfig{Secret: "plain"}, now)

	token, err := s.Issue(uuid.New(), "a@x.com")
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.NoError(t, err)

	// A verifier that demands an issuer rejects tokens issued without one.
	strict := newTestService(TokenConfig{Secret: "plain", Issuer: "mini-tasks-app"}, now)
	_, err = strict.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)
}

// swapPayload keeps the header and signature of token but carries the claims of donor.
func swapPayload(token, donor string) string {
	parts := strings.Split(token, ".")
	parts[1] = strings.Split(donor, ".")[1]
	return strings.Join(parts, ".")
}

// tamperSignature flips the first character of the signature segment.
func tamperSignature(token string) string {
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)
	return strings.Join(parts, ".")
}
