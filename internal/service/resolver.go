package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/itm-kmutnb/classroom-api/internal/domain/auth"
	apperrors "github.com/itm-kmutnb/classroom-api/internal/errors"
	"github.com/itm-kmutnb/classroom-api/internal/observability/statsd"
	"github.com/itm-kmutnb/classroom-api/internal/ports"
)

// RoleResolverOptions groups dependencies for RoleResolver.
type RoleResolverOptions struct {
	Classifier *domainauth.Classifier
	Identities ports.IdentityStore
	Metrics    statsd.Sink  // optional
	Logger     *slog.Logger // optional, defaults to slog.Default
}

// RoleResolver maps a verified IdP identity to a durable platform identity.
//
// Resolution is idempotent: the first login for a subject creates the
// identity with a role derived from the email classification, and every
// later login returns that stored row unchanged, even if the classification
// rules have since changed.
//
// Concurrent first logins for the same subject are reconciled by retrying
// the lookup once after a create fails: the instructor path loses the
// allow-list row to the winner's transaction, the student path hits the
// unique constraint on the subject id, and in both cases the loser adopts
// the row the winner committed.
type RoleResolver struct {
	classifier *domainauth.Classifier
	identities ports.IdentityStore
	metrics    statsd.Sink
	logger     *slog.Logger
}

// NewRoleResolver constructs a new RoleResolver.
func NewRoleResolver(opts RoleResolverOptions) *RoleResolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleResolver{
		classifier: opts.Classifier,
		identities: opts.Identities,
		metrics:    opts.Metrics,
		logger:     logger.With("component", "role_resolver"),
	}
}

// Resolve returns the platform identity for ident, creating it on first
// login. It returns *UnauthorizedError when the email is outside the
// organization or an instructor candidate without an unconsumed allow-list
// entry. Storage failures propagate as-is; no partial state is left behind.
func (r *RoleResolver) Resolve(
	ctx context.Context,
	ident domainauth.Identity,
) (domainauth.PlatformIdentity, error) {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.Timing("auth.resolve.duration", time.Since(start), nil)
		}
	}()

	class := r.classifier.Classify(ident.Email)
	if class == domainauth.ClassRejected {
		r.logger.InfoContext(ctx, "login rejected", "reason", DenialReasonDomain)
		return domainauth.PlatformIdentity{}, &UnauthorizedError{Reason: DenialReasonDomain}
	}

	identity, err := r.identities.GetBySubject(ctx, ident.SubjectID)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, ports.ErrIdentityNotFound) {
		return domainauth.PlatformIdentity{}, fmt.Errorf("lookup identity: %w", err)
	}

	identity, err = r.create(ctx, ident, class)
	if err == nil {
		if r.metrics != nil {
			r.metrics.Count("auth.identity.created", 1, map[string]string{"role": string(identity.Role)})
		}
		r.logger.InfoContext(ctx, "platform identity created",
			"platform_id", identity.ID, "role", identity.Role)
		return identity, nil
	}

	// A concurrent first login may have created the row between our lookup
	// and create: the student path surfaces a unique violation on the
	// subject id, the instructor path finds the allow-list entry already
	// consumed by the winner's transaction. One retry of the lookup adopts
	// the winner's row in either case.
	if apperrors.IsConflict(err) || errors.Is(err, ports.ErrNotListed) {
		if identity, lookupErr := r.identities.GetBySubject(ctx, ident.SubjectID); lookupErr == nil {
			return identity, nil
		}
	}

	if errors.Is(err, ports.ErrNotListed) {
		r.logger.InfoContext(ctx, "login rejected", "reason", DenialReasonNotListed)
		return domainauth.PlatformIdentity{}, &UnauthorizedError{Reason: DenialReasonNotListed}
	}

	return domainauth.PlatformIdentity{}, fmt.Errorf("create identity: %w", err)
}

func (r *RoleResolver) create(
	ctx context.Context,
	ident domainauth.Identity,
	class domainauth.Classification,
) (domainauth.PlatformIdentity, error) {
	switch class {
	case domainauth.ClassInstructorCandidate:
		return r.identities.CreateInstructor(ctx, ident.SubjectID, ident.Email)
	case domainauth.ClassStudent:
		return r.identities.CreateStudent(ctx, ident.SubjectID, ident.Email)
	default:
		return domainauth.PlatformIdentity{}, fmt.Errorf("unexpected classification %q", class)
	}
}
