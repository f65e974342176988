package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/auth/authtest"
)

func TestMembershipGate_IsAdmin(t *testing.T) {
	provider := authtest.NewProvider()
	provider.AddUser("root@example.com", "pw", "staff", auth.AdminGroup)
	provider.AddUser("user@example.com", "pw", "staff")

	gate := auth.NewMembershipGate(provider, nil)
	ctx := context.Background()

	assert.True(t, gate.IsAdmin(ctx, "root@example.com"))
	assert.False(t, gate.IsAdmin(ctx, "user@example.com"))
	assert.False(t, gate.IsAdmin(ctx, "ghost@example.com"))
}

func TestMembershipGate_FailsClosed(t *testing.T) {
	provider := authtest.NewProvider()
	provider.AddUser("root@example.com", "pw", auth.AdminGroup)
	provider.ListGroupsErr = errors.New("throttled")

	gate := auth.NewMembershipGate(provider, nil)
	assert.False(t, gate.IsAdmin(context.Background(), "root@example.com"))
}
