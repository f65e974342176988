// Package authtest provides an in-memory identity provider for tests.
package authtest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/authgate/authgate/internal/auth"
)

// Call records one provider invocation.
type Call struct {
	Op       string
	Username string
	Group    string
}

type user struct {
	password   string
	attributes []auth.Attribute
	status     string
	groups     []string
}

// Provider is an auth.IdentityProvider backed by a map. Errors set on the
// exported fields are returned by the matching operation instead of its
// normal result.
type Provider struct {
	mu    sync.Mutex
	users map[string]*user
	calls []Call

	AuthenticateErr error
	CreateUserErr   error
	AddToGroupErr   error
	ListGroupsErr   error

	// Challenge, when set, is returned by Authenticate without tokens.
	Challenge string
}

var _ auth.IdentityProvider = (*Provider)(nil)

func NewProvider() *Provider {
	return &Provider{users: make(map[string]*user)}
}

// AddUser seeds a confirmed user with the given groups.
func (p *Provider) AddUser(username, password string, groups ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[username] = &user{password: password, status: "CONFIRMED", groups: groups}
}

// Calls returns the invocations recorded so far.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

// Ops returns the operation names recorded so far.
func (p *Provider) Ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ops := make([]string, len(p.calls))
	for i, c := range p.calls {
		ops[i] = c.Op
	}
	return ops
}

// Attributes returns the attributes stored for username.
func (p *Provider) Attributes(username string) []auth.Attribute {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.users[username]; ok {
		return slices.Clone(u.attributes)
	}
	return nil
}

// Password returns the password stored for username.
func (p *Provider) Password(username string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[username]
	if !ok {
		return "", false
	}
	return u.password, true
}

// Groups returns the groups username belongs to.
func (p *Provider) Groups(username string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.users[username]; ok {
		return slices.Clone(u.groups)
	}
	return nil
}

func (p *Provider) record(c Call) {
	p.calls = append(p.calls, c)
}

func (p *Provider) Authenticate(_ context.Context, username, password string) (*auth.ProviderTokens, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(Call{Op: "Authenticate", Username: username})

	if p.AuthenticateErr != nil {
		return nil, p.AuthenticateErr
	}
	u, ok := p.users[username]
	if !ok {
		return nil, &auth.ProviderFailure{Code: auth.FailureUserNotFound, Detail: "User does not exist."}
	}
	if u.password != password {
		return nil, &auth.ProviderFailure{Code: auth.FailureNotAuthorized, Detail: "Incorrect username or password."}
	}
	if p.Challenge != "" {
		return &auth.ProviderTokens{ChallengeName: p.Challenge}, nil
	}
	return &auth.ProviderTokens{
		AccessToken:  "access-" + username,
		IDToken:      "id-" + username,
		RefreshToken: "refresh-" + username,
		ExpiresIn:    3600,
	}, nil
}

func (p *Provider) CreateUser(_ context.Context, username string, attributes []auth.Attribute, temporaryPassword string) (*auth.ProviderUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(Call{Op: "CreateUser", Username: username})

	if p.CreateUserErr != nil {
		return nil, p.CreateUserErr
	}
	if _, exists := p.users[username]; exists {
		return nil, &auth.ProviderFailure{Code: auth.FailureUsernameExists, Detail: "User account already exists"}
	}
	p.users[username] = &user{
		password:   temporaryPassword,
		attributes: slices.Clone(attributes),
		status:     "FORCE_CHANGE_PASSWORD",
	}
	return &auth.ProviderUser{Username: username, Status: "FORCE_CHANGE_PASSWORD"}, nil
}

func (p *Provider) AddToGroup(_ context.Context, username, group string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(Call{Op: "AddToGroup", Username: username, Group: group})

	if p.AddToGroupErr != nil {
		return p.AddToGroupErr
	}
	u, ok := p.users[username]
	if !ok {
		return &auth.ProviderFailure{Code: auth.FailureUserNotFound, Detail: fmt.Sprintf("user %s not found", username)}
	}
	if !slices.Contains(u.groups, group) {
		u.groups = append(u.groups, group)
	}
	return nil
}

func (p *Provider) ListGroups(_ context.Context, username string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(Call{Op: "ListGroups", Username: username})

	if p.ListGroupsErr != nil {
		return nil, p.ListGroupsErr
	}
	u, ok := p.users[username]
	if !ok {
		return nil, &auth.ProviderFailure{Code: auth.FailureUserNotFound}
	}
	return slices.Clone(u.groups), nil
}
