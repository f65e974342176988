package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrSecretNotConfigured = errors.New("signing secret not configured")
	ErrNotConfigured       = errors.New("identity provider not configured")
	ErrNotAdmin            = errors.New("user is not a member of the admin group")
	ErrUnknownActorClass   = errors.New("unknown actor class")
)

// ActorClass identifies the kind of principal a token was issued to.
type ActorClass string

const (
	ActorAdmin     ActorClass = "admin"
	ActorRegular   ActorClass = "regular"
	ActorAnonymous ActorClass = "anonymous"
)

func (c ActorClass) Valid() bool {
	switch c {
	case ActorAdmin, ActorRegular, ActorAnonymous:
		return true
	}
	return false
}

// AdminGroup is the provider group whose members may use the admin flows.
const AdminGroup = "admins"

// TokenLifetime is the validity window of every issued token.
const TokenLifetime = 24 * time.Hour

// SigningKeys holds the HMAC secrets per token family. Admin tokens are
// signed with Admin; regular and anonymous tokens are signed with Regular.
type SigningKeys struct {
	Admin   string
	Regular string
}

// For returns the secret that signs tokens of the given class.
func (k SigningKeys) For(class ActorClass) ([]byte, error) {
	var secret string
	switch class {
	case ActorAdmin:
		secret = k.Admin
	case ActorRegular, ActorAnonymous:
		secret = k.Regular
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActorClass, class)
	}
	if secret == "" {
		return nil, fmt.Errorf("%w for %s tokens", ErrSecretNotConfigured, class)
	}
	return []byte(secret), nil
}
