package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	domainauth "github.com/itm-kmutnb/classroom-api/internal/domain/auth"
	mocks "github.com/itm-kmutnb/classroom-api/internal/mocks/auth"
)

func newTestClassifier(t *testing.T) *domainauth.Classifier {
	t.Helper()
	c, err := domainauth.NewClassifier("", "")
	require.NoError(t, err)
	return c
}

func newTestResolver(t *testing.T, identities *mocks.MemoryIdentityStore) *RoleResolver {
	t.Helper()
	return NewRoleResolver(RoleResolverOptions{
		Classifier: newTestClassifier(t),
		Identities: identities,
	})
}

func studentIdentity(subjectID string) domainauth.Identity {
	return domainauth.Identity{
		SubjectID: subjectID,
		Email:     "s6506021420123@email.kmutnb.ac.th",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func instructorIdentity(subjectID, email string) domainauth.Identity {
	return domainauth.Identity{
		SubjectID: subjectID,
		Email:     email,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestRoleResolver_Resolve_RejectedDomain(t *testing.T) {
	allowlist := mocks.NewMemoryAllowlistStore()
	identities := mocks.NewMemoryIdentityStore(allowlist)
	resolver := newTestResolver(t, identities)

	_, err := resolver.Resolve(context.Background(), domainauth.Identity{
		SubjectID: "sub-1",
		Email:     "somchai.p@gmail.com",
	})

	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, DenialReasonDomain, UnauthorizedReason(err))

	// No identity row may exist after a rejection
	list, listErr := identities.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, list)
}

func TestRoleResolver_Resolve_StudentFirstLogin(t *testing.T) {
	identities := mocks.NewMemoryIdentityStore(mocks.NewMemoryAllowlistStore())
	resolver := newTestResolver(t, identities)

	identity, err := resolver.Resolve(context.Background(), studentIdentity("sub-1"))

	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleStudent, identity.Role)
	assert.Equal(t, "sub-1", identity.ExternalSubjectID)
	assert.NotEmpty(t, identity.ID)
}

func TestRoleResolver_Resolve_Idempotent(t *testing.T) {
	identities := mocks.NewMemoryIdentityStore(mocks.NewMemoryAllowlistStore())
	resolver := newTestResolver(t, identities)
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, studentIdentity("sub-1"))
	require.NoError(t, err)

	second, err := resolver.Resolve(ctx, studentIdentity("sub-1"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	list, err := identities.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRoleResolver_Resolve_ExistingRoleWins(t *testing.T) {
	// A stored identity is returned unchanged even when the current
	// classification of the email would disagree with the stored role.
	identities := mocks.NewMemoryIdentityStore(mocks.NewMemoryAllowlistStore())
	identities.Seed(domainauth.PlatformIdentity{
		ID:                "pid-1",
		ExternalSubjectID: "sub-1",
		Email:             "s6506021420123@email.kmutnb.ac.th",
		Role:              domainauth.RoleAdmin,
		CreatedAt:         time.Now(),
	})
	resolver := newTestResolver(t, identities)

	identity, err := resolver.Resolve(context.Background(), studentIdentity("sub-1"))

	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, identity.Role)
	assert.Equal(t, "pid-1", identity.ID)
}

func TestRoleResolver_Resolve_InstructorListed(t *testing.T) {
	allowlist := mocks.NewMemoryAllowlistStore()
	identities := mocks.NewMemoryIdentityStore(allowlist)
	resolver := newTestResolver(t, identities)
	ctx := context.Background()

	_, err := allowlist.Create(ctx, "somchai.p@kmutnb.ac.th")
	require.NoError(t, err)

	identity, err := resolver.Resolve(ctx, instructorIdentity("sub-2", "somchai.p@kmutnb.ac.th"))

	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleInstructor, identity.Role)

	entry, err := allowlist.GetByEmail(ctx, "somchai.p@kmutnb.ac.th")
	require.NoError(t, err)
	assert.True(t, entry.Consumed)
}

func TestRoleResolver_Resolve_InstructorNotListed(t *testing.T) {
	identities := mocks.NewMemoryIdentityStore(mocks.NewMemoryAllowlistStore())
	resolver := newTestResolver(t, identities)

	_, err := resolver.Resolve(context.Background(),
		instructorIdentity("sub-2", "somchai.p@kmutnb.ac.th"))

	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, DenialReasonNotListed, UnauthorizedReason(err))
}

func TestRoleResolver_Resolve_ConsumedEntryNeverMatchesAgain(t *testing.T) {
	allowlist := mocks.NewMemoryAllowlistStore()
	identities := mocks.NewMemoryIdentityStore(allowlist)
	resolver := newTestResolver(t, identities)
	ctx := context.Background()

	_, err := allowlist.Create(ctx, "somchai.p@kmutnb.ac.th")
	require.NoError(t, err)

	_, err = resolver.Resolve(ctx, instructorIdentity("sub-2", "somchai.p@kmutnb.ac.th"))
	require.NoError(t, err)

	// A different subject presenting the same email gets no second claim
	_, err = resolver.Resolve(ctx, instructorIdentity("sub-3", "somchai.p@kmutnb.ac.th"))
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, DenialReasonNotListed, UnauthorizedReason(err))

	list, err := identities.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRoleResolver_Resolve_StorageFailurePropagates(t *testing.T) {
	identities := mocks.NewMemoryIdentityStore(mocks.NewMemoryAllowlistStore())
	identities.Err = errors.New("connection refused")
	resolver := newTestResolver(t, identities)

	_, err := resolver.Resolve(context.Background(), studentIdentity("sub-1"))

	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRoleResolver_Resolve_ConcurrentFirstLogins(t *testing.T) {
	identities := mocks.NewMemoryIdentityStore(mocks.NewMemoryAllowlistStore())
	resolver := newTestResolver(t, identities)
	ctx := context.Background()

	const n = 16
	var (
		mu      sync.Mutex
		results []domainauth.PlatformIdentity
	)
	var g errgroup.Group
	for range n {
		g.Go(func() error {
			identity, err := resolver.Resolve(ctx, studentIdentity("sub-1"))
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, identity)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Len(t, results, n)

	// Every resolve observed the same single row
	for _, r := range results {
		assert.Equal(t, results[0].ID, r.ID)
	}
	list, err := identities.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRoleResolver_Resolve_ConcurrentInstructorFirstLogins(t *testing.T) {
	allowlist := mocks.NewMemoryAllowlistStore()
	identities := mocks.NewMemoryIdentityStore(allowlist)
	resolver := newTestResolver(t, identities)
	ctx := context.Background()

	_, err := allowlist.Create(ctx, "somchai.p@kmutnb.ac.th")
	require.NoError(t, err)

	const n = 8
	var g errgroup.Group
	for range n {
		g.Go(func() error {
			identity, resolveErr := resolver.Resolve(ctx,
				instructorIdentity("sub-2", "somchai.p@kmutnb.ac.th"))
			if resolveErr != nil {
				return resolveErr
			}
			if identity.Role != domainauth.RoleInstructor {
				return errors.New("unexpected role")
			}
			return nil
		})
	}
	// All logins share the same subject, so the losers adopt the winner's row
	require.NoError(t, g.Wait())

	list, err := identities.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
