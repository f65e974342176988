package auth

import (
	"context"
	"fmt"
)

// FailureCode is the normalized reason an identity provider call failed.
type FailureCode int

const (
	FailureOther FailureCode = iota
	FailureUserNotFound
	FailureNotAuthorized
	FailurePasswordResetRequired
	FailureUserNotConfirmed
	FailureUsernameExists
	FailureInvalidPassword
	FailureResourceNotFound
)

// AllFailureCodes lists every FailureCode.
var AllFailureCodes = []FailureCode{
	FailureOther,
	FailureUserNotFound,
	FailureNotAuthorized,
	FailurePasswordResetRequired,
	FailureUserNotConfirmed,
	FailureUsernameExists,
	FailureInvalidPassword,
	FailureResourceNotFound,
}

func (c FailureCode) String() string {
	switch c {
	case FailureUserNotFound:
		return "UserNotFound"
	case FailureNotAuthorized:
		return "NotAuthorized"
	case FailurePasswordResetRequired:
		return "PasswordResetRequired"
	case FailureUserNotConfirmed:
		return "UserNotConfirmed"
	case FailureUsernameExists:
		return "UsernameExists"
	case FailureInvalidPassword:
		return "InvalidPassword"
	case FailureResourceNotFound:
		return "ResourceNotFound"
	default:
		return "Other"
	}
}

// ProviderFailure is returned by IdentityProvider implementations.
type ProviderFailure struct {
	Code   FailureCode
	Detail string
	Err    error
}

func (f *ProviderFailure) Error() string {
	if f.Detail == "" {
		return f.Code.String()
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Detail)
}

func (f *ProviderFailure) Unwrap() error { return f.Err }

// ProviderTokens is the result of a successful password authentication.
type ProviderTokens struct {
	AccessToken   string
	IDToken       string
	RefreshToken  string
	ExpiresIn     int32
	ChallengeName string
}

// ProviderUser describes an account created in the provider.
type ProviderUser struct {
	Username string
	Status   string
}

// Attribute is a single user attribute stored by the provider.
type Attribute struct {
	Name  string
	Value string
}

// IdentityProvider is the external user directory. Implementations return
// *ProviderFailure for provider-reported errors and wrap ErrNotConfigured
// when pool or client identifiers are missing.
type IdentityProvider interface {
	// Authenticate performs an admin-initiated username/password login.
	Authenticate(ctx context.Context, username, password string) (*ProviderTokens, error)
	// CreateUser creates a user with a permanent-until-changed temporary
	// password. The provider's welcome message is always suppressed.
	CreateUser(ctx context.Context, username string, attributes []Attribute, temporaryPassword string) (*ProviderUser, error)
	// AddToGroup adds username to group.
	AddToGroup(ctx context.Context, username, group string) error
	// ListGroups returns every group name username belongs to.
	ListGroups(ctx context.Context, username string) ([]string, error)
}
