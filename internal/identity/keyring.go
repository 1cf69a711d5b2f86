package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/habithero/internal/constants"
)

// ErrKeyringUnavailable is returned when the OS keyring cannot be reached.
var ErrKeyringUnavailable = errors.New("OS keyring is not available")

// Keyring keeps the signed-in CLI user in the OS keyring.
type Keyring struct {
	service string
	account string
}

// NewKeyring returns the session store under the application's keyring service.
func NewKeyring() *Keyring {
	return &Keyring{service: constants.AppName, account: constants.DefaultKeyringUser}
}

// Login records userID as the current user.
func (k *Keyring) Login(userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("user id cannot be empty")
	}
	if err := keyring.Set(k.service, k.account, userID); err != nil {
		return fmt.Errorf("failed to store session in keyring: %w", err)
	}
	return nil
}

// Logout forgets the current user. It returns ErrNoUser when nobody was signed in.
func (k *Keyring) Logout() error {
	err := keyring.Delete(k.service, k.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNoUser
		}
		return fmt.Errorf("failed to delete session from keyring: %w", err)
	}
	return nil
}

func (k *Keyring) CurrentUserID(context.Context) (string, error) {
	id, err := keyring.Get(k.service, k.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoUser
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return id, nil
}

// IsAvailable reports whether the OS keyring answers at all.
func (k *Keyring) IsAvailable() bool {
	_, err := keyring.Get(k.service, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
