// Package session owns the client side authentication state of the dashboard.
//
// A Manager moves between four states:
//
//	uninitialized --Start--> loading --> authenticated | anonymous
//	anonymous --Login ok--> authenticated
//	any --Logout--> anonymous
//
// Every failure degrades to anonymous. Logout always wins: results of a
// Start or Login still in flight when Logout runs are dropped.
package session

import (
	"context"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/masomo/dashboard/core"
	"github.com/masomo/dashboard/core/identity"
	"github.com/masomo/dashboard/core/policy"
)

type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

type (
	// AuthResponse is the backend's answer to a successful login.
	AuthResponse struct {
		Token    string            `json:"token"`
		Identity identity.Identity `json:"user"`
	}

	// Backend is the REST collaborator the Manager authenticates against.
	Backend interface {
		Authenticate(ctx context.Context, email, password string) (AuthResponse, error)
		FetchCurrentIdentity(ctx context.Context, token string) (identity.Identity, error)
	}

	// Session is a read-only snapshot of the Manager state.
	Session struct {
		State         State
		Loading       bool
		Authenticated bool
		Identity      *identity.Identity
	}

	// LoginResult is the outcome of Login. Error is set iff Success is false.
	LoginResult struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}

	Options struct {
		Store      TokenStore
		Backend    Backend
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Manager struct {
		store      TokenStore
		backend    Backend
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator

		mu       sync.RWMutex
		state    State
		token    string
		hasToken bool
		ident    *identity.Identity

		// generation is bumped by every transition that makes a pending
		// identity resolution stale; logouts only by Logout.
		generation uint64
		logouts    uint64
	}
)

func NewManager(opts Options) *Manager {
	m := &Manager{
		store:      opts.Store,
		backend:    opts.Backend,
		logger:     opts.Logger,
		validate:   opts.Validate,
		translator: opts.Translator,
		state:      StateUninitialized,
	}
	if m.logger == nil {
		m.logger = nopLogger{}
	}
	if m.validate == nil || m.translator == nil {
		m.validate, m.translator = core.NewValidator()
	}
	return m
}

// Start resolves a previously persisted credential. It returns once the
// Manager is anonymous or authenticated; calling it again is a no-op.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateUninitialized {
		m.mu.Unlock()
		return
	}
	m.state = StateLoading
	gen := m.generation

	token, found, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("session: reading stored credential", errors.Wrap(err, "loading token"))
		m.clearLocked()
		m.mu.Unlock()
		return
	}
	if !found {
		m.state = StateAnonymous
		m.mu.Unlock()
		return
	}
	m.token, m.hasToken = token, true
	m.mu.Unlock()

	ident, err := m.resolve(ctx, token)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		m.logger.Debug("session: dropping stale identity resolution")
		return
	}
	if err != nil {
		m.logger.Warn("session: stored credential revoked", errors.Wrap(ErrIdentityResolutionFailed, err.Error()))
		m.clearLocked()
		return
	}
	m.ident = &ident
	m.state = StateAuthenticated
	m.logger.Info("session: resumed", ident)
}

// Login authenticates against the backend. Ordinary rejections come back as
// a failed LoginResult; the session is left untouched on failure.
func (m *Manager) Login(ctx context.Context, email, password string) LoginResult {
	creds := identity.Credentials{Email: email, Password: password}
	if err := creds.Validate(m.validate); err != nil {
		return LoginResult{Error: core.TranslateFirst(err, m.translator)}
	}

	m.mu.RLock()
	logouts := m.logouts
	m.mu.RUnlock()

	resp, err := m.backend.Authenticate(ctx, creds.Email, creds.Password)
	if err != nil {
		m.logger.Info("session: login failed", errors.Wrap(err, "authenticating "+creds.Email))
		return LoginResult{Error: loginErrorMessage(err)}
	}
	if resp.Token == "" || resp.Identity.IsZero() {
		m.logger.Warn("session: incomplete login response", errors.Wrap(ErrTransportFailure, "missing token or user"))
		return LoginResult{Error: DefaultLoginError}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if logouts != m.logouts {
		m.logger.Info("session: login dropped", errLoginSuperseded)
		return LoginResult{Error: DefaultLoginError}
	}
	// persist first: nobody may see authenticated with an unsaved token
	if err := m.store.Save(ctx, resp.Token); err != nil {
		m.logger.Error("session: persisting credential", errors.Wrap(err, "saving token"))
		return LoginResult{Error: DefaultLoginError}
	}
	ident := resp.Identity
	m.token, m.hasToken = resp.Token, true
	m.ident = &ident
	m.state = StateAuthenticated
	m.generation++
	m.logger.Info("session: logged in", ident)
	return LoginResult{Success: true}
}

// Logout ends the session unconditionally. Safe to call at any time, any number of times.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logouts++
	m.clearLocked()
}

// clearLocked drops the credential and identity and bumps the generation.
// Must be called with mu held.
func (m *Manager) clearLocked() {
	if err := m.store.Clear(context.Background()); err != nil {
		m.logger.Error("session: clearing stored credential", errors.Wrap(err, "clearing token"))
	}
	m.token, m.hasToken = "", false
	m.ident = nil
	m.state = StateAnonymous
	m.generation++
}

// ReloadIdentity re-fetches the identity, e.g. after a profile update.
// A credential the backend no longer honours ends the session.
func (m *Manager) ReloadIdentity(ctx context.Context) error {
	m.mu.RLock()
	if m.state != StateAuthenticated {
		m.mu.RUnlock()
		return ErrNotAuthenticated
	}
	token, gen := m.token, m.generation
	m.mu.RUnlock()

	ident, err := m.resolve(ctx, token)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return ErrNotAuthenticated
	}
	if err != nil {
		m.logger.Warn("session: credential revoked on reload", errors.Wrap(err, "fetching identity"))
		m.clearLocked()
		return errors.Wrap(ErrIdentityResolutionFailed, err.Error())
	}
	m.ident = &ident
	return nil
}

// resolve fetches the identity behind token. An empty identity counts as a failure.
func (m *Manager) resolve(ctx context.Context, token string) (identity.Identity, error) {
	ident, err := m.backend.FetchCurrentIdentity(ctx, token)
	if err != nil {
		return identity.Identity{}, err
	}
	if ident.IsZero() {
		return identity.Identity{}, errors.Wrap(ErrTransportFailure, "empty identity")
	}
	return ident, nil
}

// RotateCredential swaps the bearer token of an authenticated session, e.g.
// after a token refresh. The old token stays in place if the new one cannot be saved.
func (m *Manager) RotateCredential(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return ErrNotAuthenticated
	}
	if token == "" {
		return errors.New("session: empty credential")
	}
	if err := m.store.Save(ctx, token); err != nil {
		return errors.Wrap(err, "saving token")
	}
	m.token = token
	return nil
}

func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Session{
		State:         m.state,
		Loading:       m.state == StateLoading,
		Authenticated: m.state == StateAuthenticated,
	}
	if m.ident != nil {
		ident := *m.ident
		s.Identity = &ident
	}
	return s
}

func (m *Manager) CurrentIdentity() (identity.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ident == nil {
		return identity.Identity{}, false
	}
	return *m.ident, true
}

// Credential returns the bearer token of an authenticated session.
func (m *Manager) Credential() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateAuthenticated {
		return "", false
	}
	return m.token, m.hasToken
}

// HasCapability reports whether the current identity's role grants c.
func (m *Manager) HasCapability(c policy.Capability) bool {
	ident, ok := m.CurrentIdentity()
	return ok && policy.Can(ident.Role, c)
}

// Capabilities lists what the current identity may do; empty when anonymous.
func (m *Manager) Capabilities() []policy.Capability {
	ident, ok := m.CurrentIdentity()
	if !ok {
		return []policy.Capability{}
	}
	return policy.Capabilities(ident.Role)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}
