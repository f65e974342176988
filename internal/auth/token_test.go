package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/auth"
)

const (
	testAdminSecret   = "admin-signing-secret-for-tests!!"
	testRegularSecret = "regular-signing-secret-for-tests"
)

func testKeys() auth.SigningKeys {
	return auth.SigningKeys{Admin: testAdminSecret, Regular: testRegularSecret}
}

func newTestTokenService() *auth.TokenService {
	return auth.NewTokenService(testKeys())
}

func TestBuildClaims(t *testing.T) {
	now := time.Unix(1700000000, 750_000_000)

	claims := auth.BuildClaims(now, "user@example.com", auth.ActorAdmin, map[string]any{"email": "user@example.com"})

	assert.Equal(t, int64(1700000000), claims.IssuedAt.Unix())
	assert.Equal(t, 0, claims.IssuedAt.Nanosecond())
	assert.True(t, claims.NotBefore.Equal(claims.IssuedAt))
	assert.Equal(t, int64(86400), claims.ExpiresAt.Unix()-claims.IssuedAt.Unix())
	assert.Equal(t, "user@example.com", claims.SubjectID)
	assert.False(t, claims.IsAnonymous)
	assert.Equal(t, map[string]any{"email": "user@example.com"}, claims.Extra)
}

func TestBuildClaims_AnonymousFlag(t *testing.T) {
	for _, class := range []auth.ActorClass{auth.ActorAdmin, auth.ActorRegular, auth.ActorAnonymous} {
		claims := auth.BuildClaims(time.Now(), "subject", class, nil)
		assert.Equal(t, class == auth.ActorAnonymous, claims.IsAnonymous, string(class))
		assert.NotNil(t, claims.Extra)
	}
}

func TestBuildClaims_CopiesExtra(t *testing.T) {
	extra := map[string]any{"cpf": "123"}
	claims := auth.BuildClaims(time.Now(), "123", auth.ActorRegular, extra)
	extra["cpf"] = "changed"
	assert.Equal(t, "123", claims.Extra["cpf"])
}

func TestSignVerify_RoundTrip(t *testing.T) {
	claims := auth.BuildClaims(time.Now(), "anonymous_1_abc", auth.ActorAnonymous, map[string]any{"is_anonymous": true})

	token, err := auth.Sign(claims, []byte(testRegularSecret))
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	got, err := auth.Verify(token, []byte(testRegularSecret))
	require.NoError(t, err)

	assert.Equal(t, claims.SubjectID, got.SubjectID)
	assert.Equal(t, claims.ActorClass, got.ActorClass)
	assert.Equal(t, claims.IsAnonymous, got.IsAnonymous)
	assert.True(t, claims.IssuedAt.Equal(got.IssuedAt))
	assert.True(t, claims.NotBefore.Equal(got.NotBefore))
	assert.True(t, claims.ExpiresAt.Equal(got.ExpiresAt))
	assert.Equal(t, claims.Extra, got.Extra)
}

func TestSign_WireClaimNames(t *testing.T) {
	claims := auth.BuildClaims(time.Now(), "12345678900", auth.ActorRegular, map[string]any{"cpf": "12345678900"})
	token, err := auth.Sign(claims, []byte(testRegularSecret))
	require.NoError(t, err)

	parsed := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, parsed)
	require.NoError(t, err)

	for _, name := range []string{"exp", "iat", "nbf", "userID", "userType", "is_anonymous", "custom"} {
		assert.Contains(t, parsed, name)
	}
	assert.Equal(t, "regular", parsed["userType"])
	assert.Equal(t, false, parsed["is_anonymous"])
}

func TestSign_EmptySecret(t *testing.T) {
	claims := auth.BuildClaims(time.Now(), "subject", auth.ActorAdmin, nil)
	_, err := auth.Sign(claims, nil)
	assert.ErrorIs(t, err, auth.ErrSecretNotConfigured)
}

func TestSign_EmptySubject(t *testing.T) {
	claims := auth.BuildClaims(time.Now(), "", auth.ActorAdmin, nil)
	_, err := auth.Sign(claims, []byte(testAdminSecret))
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestVerify_WrongSecret(t *testing.T) {
	claims := auth.BuildClaims(time.Now(), "subject", auth.ActorAdmin, nil)
	token, err := auth.Sign(claims, []byte(testAdminSecret))
	require.NoError(t, err)

	_, err = auth.Verify(token, []byte(testRegularSecret))
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestVerify_Expired(t *testing.T) {
	claims := auth.BuildClaims(time.Now().Add(-48*time.Hour), "subject", auth.ActorRegular, nil)
	token, err := auth.Sign(claims, []byte(testRegularSecret))
	require.NoError(t, err)

	_, err = auth.Verify(token, []byte(testRegularSecret))
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"userID":       "subject",
		"userType":     "admin",
		"is_anonymous": false,
		"exp":          time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testAdminSecret))
	require.NoError(t, err)

	_, err = auth.Verify(signed, []byte(testAdminSecret))
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestVerify_RejectsInconsistentAnonymousFlag(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID":       "subject",
		"userType":     "regular",
		"is_anonymous": true,
		"exp":          time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testRegularSecret))
	require.NoError(t, err)

	_, err = auth.Verify(signed, []byte(testRegularSecret))
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestTokenService_IssueUsesFamilySecret(t *testing.T) {
	svc := newTestTokenService()

	tests := []struct {
		class  auth.ActorClass
		secret string
	}{
		{auth.ActorAdmin, testAdminSecret},
		{auth.ActorRegular, testRegularSecret},
		{auth.ActorAnonymous, testRegularSecret},
	}
	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			claims := auth.BuildClaims(time.Now(), "subject", tt.class, nil)
			token, err := svc.Issue(claims)
			require.NoError(t, err)

			_, err = auth.Verify(token, []byte(tt.secret))
			assert.NoError(t, err)

			got, err := svc.Validate(token)
			require.NoError(t, err)
			assert.Equal(t, tt.class, got.ActorClass)
		})
	}
}

func TestTokenService_ValidateRejectsForgedClass(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID":       "someone",
		"userType":     "admin",
		"is_anonymous": false,
		"exp":          time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testRegularSecret))
	require.NoError(t, err)

	_, err = newTestTokenService().Validate(signed)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestTokenService_IssueMissingSecret(t *testing.T) {
	svc := auth.NewTokenService(auth.SigningKeys{Regular: testRegularSecret})
	claims := auth.BuildClaims(time.Now(), "subject", auth.ActorAdmin, nil)

	_, err := svc.Issue(claims)
	assert.ErrorIs(t, err, auth.ErrSecretNotConfigured)
}

func TestSigningKeys_For(t *testing.T) {
	keys := testKeys()

	secret, err := keys.For(auth.ActorAnonymous)
	require.NoError(t, err)
	assert.Equal(t, []byte(testRegularSecret), secret)

	_, err = keys.For(auth.ActorClass("root"))
	assert.ErrorIs(t, err, auth.ErrUnknownActorClass)
}
