// Package identity tracks the signed-in user. Domain operations take the
// acting user as an explicit argument; this package only answers "who is
// signed in right now" at the edges, so no component reads user state out
// of an ambient global.
package identity

import (
	"errors"
	"sync"

	"github.com/notefolio/notefolio/pkg/models"
)

// ErrNotSignedIn is returned by Current when no user is signed in.
var ErrNotSignedIn = errors.New("identity: not signed in")

// Provider reports the current user and notifies on sign-in changes.
type Provider interface {
	// Current returns the signed-in user, or ErrNotSignedIn.
	Current() (models.User, error)

	// OnChange registers fn to run after every sign-in or sign-out,
	// with the new user (zero-value on sign-out). The returned cancel
	// removes the registration; it is idempotent.
	OnChange(fn func(models.User)) (cancel func())
}

// Memory is an in-process Provider. Sign-in state is set directly by the
// HTTP layer; listeners fire synchronously on the mutating call.
type Memory struct {
	mu        sync.Mutex
	user      models.User
	signedIn  bool
	listeners map[int]func(models.User)
	next      int
}

var _ Provider = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{listeners: map[int]func(models.User){}}
}

func (m *Memory) Current() (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.signedIn {
		return models.User{}, ErrNotSignedIn
	}
	return m.user, nil
}

func (m *Memory) OnChange(fn func(models.User)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// SignIn sets the current user and fires listeners.
func (m *Memory) SignIn(user models.User) {
	m.mu.Lock()
	m.user = user
	m.signedIn = true
	fns := m.snapshotListenersLocked()
	m.mu.Unlock()
	for _, fn := range fns {
		fn(user)
	}
}

// SignOut clears the current user and fires listeners with the zero user.
func (m *Memory) SignOut() {
	m.mu.Lock()
	m.user = models.User{}
	m.signedIn = false
	fns := m.snapshotListenersLocked()
	m.mu.Unlock()
	for _, fn := range fns {
		fn(models.User{})
	}
}

func (m *Memory) snapshotListenersLocked() []func(models.User) {
	fns := make([]func(models.User), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	return fns
}
