package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habithero/internal/cli"
	"github.com/julianstephens/habithero/internal/identity"
)

type LoginCmd struct {
	User string `arg:"" help:"User ID to act as."`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	if err := ctx.Session.Login(c.User); err != nil {
		return err
	}
	ctx.Printf("%s Signed in as %s\n", cli.SuccessStyle.Render("✓"), c.User)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	err := ctx.Session.Logout()
	if errors.Is(err, identity.ErrNoUser) {
		ctx.Println("Not signed in.")
		return nil
	}
	if err != nil {
		return err
	}
	ctx.Println("Signed out.")
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *cli.Context) error {
	id, err := ctx.Session.CurrentUserID(context.Background())
	if errors.Is(err, identity.ErrNoUser) {
		ctx.Println("Not signed in. Use 'habithero login USER'.")
		return nil
	}
	if err != nil {
		return err
	}
	ctx.Println(id)
	return nil
}

// TokenCmd issues an API bearer token for the signed-in user.
type TokenCmd struct {
	TTL time.Duration `help:"Token lifetime. Defaults to the configured token TTL."`
}

func (c *TokenCmd) Run(ctx *cli.Context) error {
	id, err := ctx.Session.CurrentUserID(context.Background())
	if err != nil {
		return fmt.Errorf("sign in before requesting a token: %w", err)
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = ctx.Config.Auth.TokenTTL
	}
	token, err := identity.IssueToken(ctx.Config.Auth.JWTSecret, id, ttl, time.Now())
	if err != nil {
		return err
	}
	ctx.Println(token)
	return nil
}
