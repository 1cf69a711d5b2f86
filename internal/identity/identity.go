// Package identity answers "who is the current user" for the CLI and the API.
package identity

import (
	"context"
	"errors"
	"strings"
)

// ErrNoUser is returned when no user is signed in.
var ErrNoUser = errors.New("no user signed in")

// Provider resolves the user that habit operations act on.
type Provider interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// Static always returns the same user. An empty ID means nobody is signed in.
type Static string

func (s Static) CurrentUserID(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoUser
	}
	return string(s), nil
}

type ctxKey struct{}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserIDFromContext returns the user placed in ctx by WithUserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// ContextProvider reads the user the API authentication middleware stored
// in the request context.
type ContextProvider struct{}

func (ContextProvider) CurrentUserID(ctx context.Context) (string, error) {
	if id, ok := UserIDFromContext(ctx); ok {
		return id, nil
	}
	return "", ErrNoUser
}
