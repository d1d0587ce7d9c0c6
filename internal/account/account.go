// Package account tracks whose activities are being viewed: the
// signed-in user by default, or an explicit override for looking at
// another person's timeline.
package account

import (
	"sync"

	"github.com/nhle/activity-timeline/internal/model"
)

// Account holds the current user identity and an optional viewing
// override.
type Account struct {
	mu       sync.Mutex
	user     model.User
	override string
}

// New returns an Account with an optional initial override.
func New(override string) *Account {
	return &Account{override: override}
}

// Update records the signed-in user, as reported by the initial lists
// load.
func (a *Account) Update(user model.User) {
	a.mu.Lock()
	a.user = user
	a.mu.Unlock()
}

// SetOverride switches the viewed account; empty reverts to the
// signed-in user. The caller re-triggers a load afterwards.
func (a *Account) SetOverride(name string) {
	a.mu.Lock()
	a.override = name
	a.mu.Unlock()
}

// User returns the signed-in user.
func (a *Account) User() model.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

// Name returns the account whose activities should be loaded.
func (a *Account) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.override != "" {
		return a.override
	}
	return a.user.Email
}
