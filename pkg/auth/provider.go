package auth

import (
	"errors"
	"fmt"
	"strings"
)

// Provider resolves and invalidates the bearer credential for outgoing requests.
type Provider interface {
	// Token returns the current token, or "" when none is available.
	Token() (string, error)
	// Clear drops the persisted copy of the token. Clearing an absent token is a no-op.
	Clear() error
}

// KeyValueStore is the persistent slot storage a StoreProvider reads and clears.
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// State is the locally believed session state.
type State int

const (
	StateAbsent State = iota
	StatePresent
)

func (s State) String() string {
	if s == StatePresent {
		return "present"
	}
	return "absent"
}

// DefaultTokenKey names the storage slot holding the token.
const DefaultTokenKey = "token"

var ErrEmptyToken = errors.New("auth: empty token")

// Option configures a StoreProvider.
type Option func(*StoreProvider)

// WithObserver registers fn to be told about Absent/Present transitions caused by Save or Clear.
func WithObserver(fn func(from, to State)) Option {
	return func(p *StoreProvider) { p.observe = fn }
}

// StoreProvider resolves the token from a key-value slot first and a cookie
// string second. It only ever writes the slot; cookies are read-only.
type StoreProvider struct {
	store   KeyValueStore
	key     string
	cookies CookieSource
	observe func(from, to State)
}

// NewStoreProvider builds a provider over store. cookies may be nil.
func NewStoreProvider(store KeyValueStore, key string, cookies CookieSource, opts ...Option) *StoreProvider {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultTokenKey
	}
	p := &StoreProvider{store: store, key: key, cookies: cookies}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token reads the slot and falls back to the `token` cookie.
func (p *StoreProvider) Token() (string, error) {
	if p.store != nil {
		v, ok, err := p.store.Get(p.key)
		if err != nil {
			return "", fmt.Errorf("read token slot: %w", err)
		}
		if v = strings.TrimSpace(v); ok && v != "" {
			return v, nil
		}
	}

	if p.cookies == nil {
		return "", nil
	}
	raw, err := p.cookies.Cookies()
	if err != nil {
		return "", fmt.Errorf("read cookies: %w", err)
	}
	return TokenFromCookie(raw), nil
}

// Save persists token into the slot (login).
func (p *StoreProvider) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if p.store == nil {
		return fmt.Errorf("auth: no token store configured")
	}

	from := p.currentState()
	if err := p.store.Set(p.key, token); err != nil {
		return fmt.Errorf("write token slot: %w", err)
	}
	p.notify(from, StatePresent)
	return nil
}

// Clear deletes the slot (401 or logout). The cookie fallback is left alone.
func (p *StoreProvider) Clear() error {
	if p.store == nil {
		return nil
	}

	from := p.currentState()
	if err := p.store.Delete(p.key); err != nil {
		return fmt.Errorf("clear token slot: %w", err)
	}
	p.notify(from, p.currentState())
	return nil
}

// Key names the storage slot this provider reads and clears.
func (p *StoreProvider) Key() string { return p.key }

// State reports whether a token is currently resolvable.
func (p *StoreProvider) State() (State, error) {
	tok, err := p.Token()
	if err != nil {
		return StateAbsent, err
	}
	if tok == "" {
		return StateAbsent, nil
	}
	return StatePresent, nil
}

func (p *StoreProvider) currentState() State {
	s, _ := p.State()
	return s
}

func (p *StoreProvider) notify(from, to State) {
	if p.observe != nil && from != to {
		p.observe(from, to)
	}
}
