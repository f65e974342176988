package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID      string         `json:"userID"`
	UserType    string         `json:"userType"`
	IsAnonymous bool           `json:"is_anonymous"`
	Custom      map[string]any `json:"custom"`
}

// TokenService signs and verifies tokens with the per-family secrets.
type TokenService struct {
	keys SigningKeys
}

func NewTokenService(keys SigningKeys) *TokenService {
	return &TokenService{keys: keys}
}

// Issue signs claims with the secret of their actor class.
func (s *TokenService) Issue(claims ClaimSet) (string, error) {
	secret, err := s.keys.For(claims.ActorClass)
	if err != nil {
		return "", err
	}
	return Sign(claims, secret)
}

// Validate verifies a token of any actor class. The secret is chosen from
// the token's declared userType, so a regular token presented as admin
// fails signature verification.
func (s *TokenService) Validate(tokenString string) (ClaimSet, error) {
	return parse(tokenString, func(c *tokenClaims) ([]byte, error) {
		return s.keys.For(ActorClass(c.UserType))
	})
}

// Sign produces a compact HS256 token for claims.
func Sign(claims ClaimSet, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrSecretNotConfigured
	}
	if claims.SubjectID == "" {
		return "", fmt.Errorf("%w: empty subject", ErrTokenInvalid)
	}
	if !claims.ActorClass.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownActorClass, claims.ActorClass)
	}

	custom := claims.Extra
	if custom == nil {
		custom = map[string]any{}
	}

	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			NotBefore: jwt.NewNumericDate(claims.NotBefore),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
		UserID:      claims.SubjectID,
		UserType:    string(claims.ActorClass),
		IsAnonymous: claims.IsAnonymous,
		Custom:      custom,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tc)
	return token.SignedString(secret)
}

// Verify checks the signature and time window of a token signed with secret.
func Verify(tokenString string, secret []byte) (ClaimSet, error) {
	if len(secret) == 0 {
		return ClaimSet{}, ErrSecretNotConfigured
	}
	return parse(tokenString, func(*tokenClaims) ([]byte, error) {
		return secret, nil
	})
}

func parse(tokenString string, keyFor func(*tokenClaims) ([]byte, error)) (ClaimSet, error) {
	tc := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, tc, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		key, err := keyFor(tc)
		if err != nil {
			return nil, err
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ClaimSet{}, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return ClaimSet{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return ClaimSet{}, ErrTokenInvalid
	}

	class := ActorClass(tc.UserType)
	if !class.Valid() {
		return ClaimSet{}, fmt.Errorf("%w: %w: %q", ErrTokenInvalid, ErrUnknownActorClass, tc.UserType)
	}
	if tc.IsAnonymous != (class == ActorAnonymous) {
		return ClaimSet{}, fmt.Errorf("%w: is_anonymous does not match userType", ErrTokenInvalid)
	}
	if tc.UserID == "" {
		return ClaimSet{}, fmt.Errorf("%w: missing userID", ErrTokenInvalid)
	}

	return ClaimSet{
		SubjectID:   tc.UserID,
		ActorClass:  class,
		IsAnonymous: tc.IsAnonymous,
		IssuedAt:    numericTime(tc.IssuedAt),
		NotBefore:   numericTime(tc.NotBefore),
		ExpiresAt:   numericTime(tc.ExpiresAt),
		Extra:       tc.Custom,
	}, nil
}

func numericTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}
