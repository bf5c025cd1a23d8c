package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/itm-kmutnb/classroom-api/internal/domain/auth"
	apperrors "github.com/itm-kmutnb/classroom-api/internal/errors"
	"github.com/itm-kmutnb/classroom-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider   = (*MockAuthProvider)(nil)
	_ ports.SessionStore   = (*MemorySessionStore)(nil)
	_ ports.IdentityStore  = (*MemoryIdentityStore)(nil)
	_ ports.AllowlistStore = (*MemoryAllowlistStore)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL         string
	StatePrefix     string
	NoncePrefix     string
	DefaultIdentity domainauth.Identity

	// Internal state tracking for deterministic behavior
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultIdentity: domainauth.Identity{
			SubjectID: "mock-sub-1",
			Email:     "s6506021420123@email.kmutnb.ac.th",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}

	// Generate deterministic state and nonce based on call count
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	state := fmt.Sprintf("%s-%d", statePrefix, m.callCount)
	nonce := fmt.Sprintf("%s-%d", noncePrefix, m.callCount)

	return authURL, state, nonce, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	// Return a copy of the default identity with a fresh expiration time
	ident := m.DefaultIdentity
	if ident.SubjectID == "" {
		ident = domainauth.Identity{
			SubjectID: "mock-sub-1",
			Email:     "s6506021420123@email.kmutnb.ac.th",
		}
	}
	ident.ExpiresAt = time.Now().Add(time.Hour)

	return ident, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// ErrNotFound is returned by mocks when an entity is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// MemoryAllowlistStore is an in-memory instructor allow-list for unit tests.
// It is safe for concurrent use so resolver race tests behave like the real
// transactional store.
type MemoryAllowlistStore struct {
	mu      sync.Mutex
	entries map[string]domainauth.AllowlistEntry

	// Err, when set, is returned by every operation (storage outage tests).
	Err error
}

// NewMemoryAllowlistStore creates a new in-memory allow-list store.
func NewMemoryAllowlistStore() *MemoryAllowlistStore {
	return &MemoryAllowlistStore{entries: make(map[string]domainauth.AllowlistEntry)}
}

func (m *MemoryAllowlistStore) Create(_ context.Context, email string) (domainauth.AllowlistEntry, error) {
	if m.Err != nil {
		return domainauth.AllowlistEntry{}, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[email]; exists {
		return domainauth.AllowlistEntry{}, apperrors.ValidationField("email", "already provisioned")
	}
	entry := domainauth.AllowlistEntry{Email: email, CreatedAt: time.Now()}
	m.entries[email] = entry
	return entry, nil
}

func (m *MemoryAllowlistStore) GetByEmail(_ context.Context, email string) (domainauth.AllowlistEntry, error) {
	if m.Err != nil {
		return domainauth.AllowlistEntry{}, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[email]
	if !ok {
		return domainauth.AllowlistEntry{}, apperrors.NotFoundf("allow-list entry for %s not found", email)
	}
	return entry, nil
}

func (m *MemoryAllowlistStore) List(_ context.Context) ([]domainauth.AllowlistEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]domainauth.AllowlistEntry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Email < entries[j].Email })
	return entries, nil
}

func (m *MemoryAllowlistStore) Delete(_ context.Context, email string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[email]
	if !ok {
		return apperrors.NotFoundf("allow-list entry for %s not found", email)
	}
	if entry.Consumed {
		return apperrors.Conflictf("allow-list entry for %s is already consumed", email)
	}
	delete(m.entries, email)
	return nil
}

// consume flips an unconsumed entry. Must be called with m.mu held by the
// identity store's CreateInstructor, which owns the combined critical section.
func (m *MemoryAllowlistStore) consume(email string) bool {
	entry, ok := m.entries[email]
	if !ok || entry.Consumed {
		return false
	}
	now := time.Now()
	entry.Consumed = true
	entry.ConsumedAt = &now
	m.entries[email] = entry
	return true
}

// MemoryIdentityStore is an in-memory platform identity store for unit
// tests. CreateInstructor consumes from the linked MemoryAllowlistStore
// under a single lock, mirroring the real store's transaction.
type MemoryIdentityStore struct {
	mu        sync.Mutex
	bySubject map[string]domainauth.PlatformIdentity
	allowlist *MemoryAllowlistStore

	// Err, when set, is returned by every operation (storage outage tests).
	Err error
}

// NewMemoryIdentityStore creates an identity store backed by the given
// allow-list store.
func NewMemoryIdentityStore(allowlist *MemoryAllowlistStore) *MemoryIdentityStore {
	return &MemoryIdentityStore{
		bySubject: make(map[string]domainauth.PlatformIdentity),
		allowlist: allowlist,
	}
}

func (m *MemoryIdentityStore) GetBySubject(_ context.Context, subjectID string) (domainauth.PlatformIdentity, error) {
	if m.Err != nil {
		return domainauth.PlatformIdentity{}, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.bySubject[subjectID]
	if !ok {
		return domainauth.PlatformIdentity{},
			fmt.Errorf("subject %q: %w", subjectID, ports.ErrIdentityNotFound)
	}
	return identity, nil
}

func (m *MemoryIdentityStore) CreateStudent(_ context.Context, subjectID, email string) (domainauth.PlatformIdentity, error) {
	if m.Err != nil {
		return domainauth.PlatformIdentity{}, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(subjectID, email, domainauth.RoleStudent)
}

func (m *MemoryIdentityStore) CreateInstructor(_ context.Context, subjectID, email string) (domainauth.PlatformIdentity, error) {
	if m.Err != nil {
		return domainauth.PlatformIdentity{}, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allowlist.mu.Lock()
	defer m.allowlist.mu.Unlock()

	// Check the subject before consuming so a failed insert does not leave
	// the entry consumed, matching the real store's transaction rollback.
	if _, exists := m.bySubject[subjectID]; exists {
		return domainauth.PlatformIdentity{}, subjectConflict()
	}
	if !m.allowlist.consume(email) {
		return domainauth.PlatformIdentity{}, fmt.Errorf("email %q: %w", email, ports.ErrNotListed)
	}
	return m.insert(subjectID, email, domainauth.RoleInstructor)
}

func (m *MemoryIdentityStore) List(_ context.Context) ([]domainauth.PlatformIdentity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	identities := make([]domainauth.PlatformIdentity, 0, len(m.bySubject))
	for _, id := range m.bySubject {
		identities = append(identities, id)
	}
	sort.Slice(identities, func(i, j int) bool {
		return identities[i].CreatedAt.After(identities[j].CreatedAt)
	})
	return identities, nil
}

// Seed inserts an identity directly, bypassing classification.
func (m *MemoryIdentityStore) Seed(identity domainauth.PlatformIdentity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bySubject[identity.ExternalSubjectID] = identity
}

// subjectConflict mirrors the conflict the real store maps from a unique
// violation on external_subject_id.
func subjectConflict() error {
	return &apperrors.AppError{
		Code:    apperrors.ErrCodeConflict,
		Message: "This value already exists. Please choose a different one.",
		Field:   "external_subject_id",
	}
}

// insert must be called with m.mu held.
func (m *MemoryIdentityStore) insert(subjectID, email string, role domainauth.Role) (domainauth.PlatformIdentity, error) {
	if _, exists := m.bySubject[subjectID]; exists {
		return domainauth.PlatformIdentity{}, subjectConflict()
	}
	identity := domainauth.PlatformIdentity{
		ID:                uuid.NewString(),
		ExternalSubjectID: subjectID,
		Email:             email,
		Role:              role,
		CreatedAt:         time.Now(),
	}
	m.bySubject[subjectID] = identity
	return identity, nil
}
