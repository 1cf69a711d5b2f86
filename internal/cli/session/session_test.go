package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habithero/internal/cli/clitest"
	"github.com/julianstephens/habithero/internal/identity"
)

func TestLoginWhoamiLogout(t *testing.T) {
	ctx, out := clitest.New(t, "", "")

	require.NoError(t, (&WhoamiCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "Not signed in")

	out.Reset()
	require.NoError(t, (&LoginCmd{User: "alice"}).Run(ctx))
	assert.Contains(t, out.String(), "Signed in as alice")

	out.Reset()
	require.NoError(t, (&WhoamiCmd{}).Run(ctx))
	assert.Equal(t, "alice\n", out.String())

	out.Reset()
	require.NoError(t, (&LogoutCmd{}).Run(ctx))
	assert.Equal(t, "Signed out.\n", out.String())

	out.Reset()
	require.NoError(t, (&LogoutCmd{}).Run(ctx))
	assert.Equal(t, "Not signed in.\n", out.String())
}

func TestTokenCmd(t *testing.T) {
	ctx, out := clitest.New(t, "alice", "")

	require.NoError(t, (&TokenCmd{TTL: time.Minute}).Run(ctx))
	token := strings.TrimSpace(out.String())

	sub, err := identity.ParseToken(ctx.Config.Auth.JWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestTokenCmdRequiresLogin(t *testing.T) {
	ctx, _ := clitest.New(t, "", "")
	err := (&TokenCmd{}).Run(ctx)
	assert.ErrorIs(t, err, identity.ErrNoUser)
}

func TestTokenCmdRequiresSecret(t *testing.T) {
	ctx, _ := clitest.New(t, "alice", "")
	ctx.Config.Auth.JWTSecret = ""
	assert.Error(t, (&TokenCmd{}).Run(ctx))
}
