package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type claimsContextKey struct{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims ClaimSet) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// GetClaims retrieves the verified claims from the request context.
func GetClaims(ctx context.Context) (ClaimSet, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(ClaimSet)
	return claims, ok
}

// Middleware returns HTTP middleware that verifies bearer tokens of any
// actor class.
func Middleware(tokenSvc *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractBearerToken(r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, ErrorBody{Message: err.Error()})
				return
			}

			claims, err := tokenSvc.Validate(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, ErrorBody{Message: "invalid token"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("invalid authorization header format")
	}

	return parts[1], nil
}
