// Package identity is the port to the external identity provider. The core
// only needs the current user's id (the persistence namespace root) and a
// way to hear about login/logout transitions.
package identity

import "sync"

// User is the authenticated principal as far as the cashbook is concerned.
type User struct {
	ID string
}

// Provider supplies the current user, if any.
type Provider interface {
	// CurrentUser returns the signed-in user and true, or a zero User and
	// false when nobody is signed in.
	CurrentUser() (User, bool)
}

// Notifier fans out authentication-state transitions. Subscribers receive
// the new user (or ok=false on logout).
type Notifier interface {
	Subscribe(fn func(u User, ok bool))
}

// Static is a provider fixed at construction time. Used when the host
// resolves identity out of band (for example a reverse proxy header or a
// configured single-user deployment).
type Static struct {
	user User
}

func NewStatic(id string) *Static {
	return &Static{user: User{ID: id}}
}

func (s *Static) CurrentUser() (User, bool) {
	if s.user.ID == "" {
		return User{}, false
	}
	return s.user, true
}

// Switchable is a provider whose user can change at runtime; it implements
// both Provider and Notifier and drives the logged-in/logged-out boundary.
type Switchable struct {
	mu   sync.Mutex
	user User
	ok   bool
	subs []func(User, bool)
}

func NewSwitchable() *Switchable {
	return &Switchable{}
}

func (s *Switchable) CurrentUser() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.ok
}

func (s *Switchable) Subscribe(fn func(User, bool)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Login sets the current user and notifies subscribers.
func (s *Switchable) Login(id string) {
	s.mu.Lock()
	s.user = User{ID: id}
	s.ok = id != ""
	subs := append([]func(User, bool){}, s.subs...)
	u, ok := s.user, s.ok
	s.mu.Unlock()
	for _, fn := range subs {
		fn(u, ok)
	}
}

// Logout clears the current user and notifies subscribers.
func (s *Switchable) Logout() {
	s.mu.Lock()
	s.user = User{}
	s.ok = false
	subs := append([]func(User, bool){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(User{}, false)
	}
}
