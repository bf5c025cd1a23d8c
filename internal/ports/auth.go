// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration
// in internal/service.
package ports

import (
	"context"
	"errors"

	domainauth "github.com/itm-kmutnb/classroom-api/internal/domain/auth"
)

// Sentinel errors shared across store implementations. Stores wrap these so
// callers can branch with errors.Is without importing a concrete adapter.
var (
	// ErrIdentityNotFound is returned by IdentityStore.GetBySubject when no
	// platform identity exists for the subject id.
	ErrIdentityNotFound = errors.New("platform identity not found")

	// ErrNotListed is returned by IdentityStore.CreateInstructor when the
	// email has no unconsumed allow-list entry.
	ErrNotListed = errors.New("email not on instructor allow-list")
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// IdentityStore persists platform identities.
type IdentityStore interface {
	// GetBySubject returns the identity for an external subject id, or an
	// error wrapping ErrIdentityNotFound.
	GetBySubject(ctx context.Context, subjectID string) (domainauth.PlatformIdentity, error)

	// CreateStudent inserts a student identity for the subject.
	CreateStudent(ctx context.Context, subjectID, email string) (domainauth.PlatformIdentity, error)

	// CreateInstructor consumes the email's allow-list entry and inserts an
	// instructor identity, atomically. Returns an error wrapping ErrNotListed
	// when no unconsumed entry exists for the email.
	CreateInstructor(ctx context.Context, subjectID, email string) (domainauth.PlatformIdentity, error)

	// List returns all platform identities, newest first.
	List(ctx context.Context) ([]domainauth.PlatformIdentity, error)
}

// AllowlistStore manages the instructor allow-list (admin provisioning
// surface; consumption happens through IdentityStore.CreateInstructor).
type AllowlistStore interface {
	Create(ctx context.Context, email string) (domainauth.AllowlistEntry, error)
	GetByEmail(ctx context.Context, email string) (domainauth.AllowlistEntry, error)
	List(ctx context.Context) ([]domainauth.AllowlistEntry, error)
	Delete(ctx context.Context, email string) error
}
