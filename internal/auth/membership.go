package auth

import (
	"context"
	"log/slog"
	"slices"
)

// MembershipGate decides whether a provider user holds admin rights.
type MembershipGate struct {
	provider IdentityProvider
	logger   *slog.Logger
}

func NewMembershipGate(provider IdentityProvider, logger *slog.Logger) *MembershipGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &MembershipGate{provider: provider, logger: logger}
}

// IsAdmin reports whether username belongs to AdminGroup. Lookup failures
// count as not a member.
func (g *MembershipGate) IsAdmin(ctx context.Context, username string) bool {
	groups, err := g.provider.ListGroups(ctx, username)
	if err != nil {
		g.logger.WarnContext(ctx, "admin group lookup failed", "username", username, "error", err)
		return false
	}
	return slices.Contains(groups, AdminGroup)
}
