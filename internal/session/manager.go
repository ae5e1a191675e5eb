// Package session owns the credential and user profile. The Manager is the
// only component allowed to mutate them; every other component observes the
// session through AuthState or tears it down through SignOut when a remote
// service reports the credential invalid.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/logging"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/protocol"
)

// ErrSignInInProgress is returned when a second interactive sign-in starts
// while one is still pending. Only the first reaches the identity provider.
var ErrSignInInProgress = errors.New("sign-in already in progress")

// Provider is the host identity provider the manager authenticates against.
type Provider interface {
	// RequestCredential obtains a credential. Interactive requests may
	// involve user consent; non-interactive requests only consult cached
	// material and fail quietly when none exists.
	RequestCredential(ctx context.Context, interactive bool) (string, error)
	// FetchProfile resolves the profile behind a credential. A credential
	// whose profile cannot be fetched is treated as invalid.
	FetchProfile(ctx context.Context, credential string) (*protocol.Profile, error)
	// RemoveCached drops the credential from the host cache. Best-effort.
	RemoveCached(credential string) error
	// Revoke revokes the credential remotely. Best-effort.
	Revoke(ctx context.Context, credential string) error
}

// Notifier receives session-changed broadcasts. Satisfied by push.Bus.
type Notifier interface {
	Broadcast(ev protocol.Event) int
}

// Manager holds the session. Invariant: credential and profile are either
// both set or both empty; no caller can observe a half-valid pair.
type Manager struct {
	mu             sync.Mutex
	credential     string
	profile        *protocol.Profile
	signInInFlight bool

	provider Provider
	notifier Notifier
}

// NewManager creates a signed-out manager.
func NewManager(provider Provider, notifier Notifier) *Manager {
	return &Manager{provider: provider, notifier: notifier}
}

// SignIn runs the interactive sign-in flow. Exactly one sign-in may be in
// flight; concurrent calls fail immediately with ErrSignInInProgress without
// contacting the identity provider.
func (m *Manager) SignIn(ctx context.Context) (*protocol.Profile, error) {
	m.mu.Lock()
	if m.signInInFlight {
		m.mu.Unlock()
		logging.SessionWarn("sign-in rejected: already in progress")
		return nil, ErrSignInInProgress
	}
	m.signInInFlight = true
	hadCredential := m.credential != ""
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.signInInFlight = false
		m.mu.Unlock()
	}()

	credential, err := m.provider.RequestCredential(ctx, true)
	if err != nil {
		logging.SessionError("interactive credential request failed: %v", err)
		// A prior session may be half-valid now; a full sign-out is the
		// only state we can vouch for.
		if hadCredential {
			m.SignOut(ctx)
		}
		return nil, fmt.Errorf("sign-in failed: %w", err)
	}

	profile, err := m.provider.FetchProfile(ctx, credential)
	if err != nil {
		// A credential with no retrievable profile is invalid, not
		// partially valid: scrub it and any prior session.
		logging.SessionError("profile fetch failed, discarding credential: %v", err)
		m.discardCredential(ctx, credential)
		m.SignOut(ctx)
		return nil, fmt.Errorf("sign-in failed: %w", err)
	}

	m.mu.Lock()
	m.credential = credential
	m.profile = profile
	m.mu.Unlock()

	logging.Session("signed in as %s", profile.Email)
	m.broadcastState()
	return profile, nil
}

// SignOut clears the session. Idempotent. State is nulled before any
// revocation attempt so dependents observe signed-out promptly; cache
// removal and remote revocation are best-effort.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	credential := m.credential
	m.credential = ""
	m.profile = nil
	m.mu.Unlock()

	logging.Session("signed out")
	m.broadcastState()

	if credential == "" {
		return
	}
	if err := m.provider.RemoveCached(credential); err != nil {
		logging.SessionWarn("failed to remove cached credential: %v", err)
	}
	if err := m.provider.Revoke(ctx, credential); err != nil {
		logging.SessionWarn("remote revocation failed: %v", err)
	}
}

// AuthState is a synchronous read of the session; no I/O.
func (m *Manager) AuthState() (bool, *protocol.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.credential == "" {
		return false, nil
	}
	p := *m.profile
	return true, &p
}

// IsSignedIn reports whether a session is active.
func (m *Manager) IsSignedIn() bool {
	signedIn, _ := m.AuthState()
	return signedIn
}

// Credential returns the current credential, or false when signed out.
func (m *Manager) Credential() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential, m.credential != ""
}

// CheckInitialState runs once at startup: it tries a non-interactive
// credential, commits the session when the profile resolves, and broadcasts
// the resulting state either way so contexts that asked before startup
// finished receive a follow-up.
func (m *Manager) CheckInitialState(ctx context.Context) {
	credential, err := m.provider.RequestCredential(ctx, false)
	if err != nil || credential == "" {
		if err != nil {
			logging.SessionDebug("no cached credential at startup: %v", err)
		}
		m.broadcastState()
		return
	}

	profile, err := m.provider.FetchProfile(ctx, credential)
	if err != nil {
		logging.SessionWarn("cached credential rejected at startup: %v", err)
		m.discardCredential(ctx, credential)
		m.SignOut(ctx)
		return
	}

	m.mu.Lock()
	m.credential = credential
	m.profile = profile
	m.mu.Unlock()

	logging.Session("restored session for %s", profile.Email)
	m.broadcastState()
}

// discardCredential scrubs a credential that never became a session: it is
// removed from the host cache and revoked so it cannot be silently reused.
// Best-effort, like the sign-out path.
func (m *Manager) discardCredential(ctx context.Context, credential string) {
	if credential == "" {
		return
	}
	if err := m.provider.RemoveCached(credential); err != nil {
		logging.SessionWarn("failed to remove rejected credential from cache: %v", err)
	}
	if err := m.provider.Revoke(ctx, credential); err != nil {
		logging.SessionWarn("failed to revoke rejected credential: %v", err)
	}
}

func (m *Manager) broadcastState() {
	if m.notifier == nil {
		return
	}
	signedIn, profile := m.AuthState()
	m.notifier.Broadcast(protocol.SessionChanged{IsSignedIn: signedIn, Profile: profile})
}
