package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	domainauth "github.com/itm-kmutnb/classroom-api/internal/domain/auth"
	apperrors "github.com/itm-kmutnb/classroom-api/internal/errors"
	"github.com/itm-kmutnb/classroom-api/internal/ports"
)

// AllowlistServiceOptions groups dependencies for AllowlistService.
type AllowlistServiceOptions struct {
	Store      ports.AllowlistStore
	Classifier *domainauth.Classifier
	Logger     *slog.Logger // optional, defaults to slog.Default
}

// AllowlistService is the admin-facing surface for provisioning instructor
// emails ahead of their first login.
type AllowlistService struct {
	store      ports.AllowlistStore
	classifier *domainauth.Classifier
	logger     *slog.Logger
}

// NewAllowlistService constructs a new AllowlistService.
func NewAllowlistService(opts AllowlistServiceOptions) *AllowlistService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AllowlistService{
		store:      opts.Store,
		classifier: opts.Classifier,
		logger:     logger.With("component", "allowlist_service"),
	}
}

// Add provisions an instructor email. The address must classify as an
// instructor candidate: provisioning a student-shaped or foreign address
// would create an entry no login could ever consume.
func (s *AllowlistService) Add(ctx context.Context, email string) (domainauth.AllowlistEntry, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domainauth.AllowlistEntry{}, apperrors.ValidationField("email", "email is required")
	}
	if s.classifier.Classify(email) != domainauth.ClassInstructorCandidate {
		return domainauth.AllowlistEntry{},
			apperrors.ValidationField("email", "email is not an instructor address for this organization")
	}

	entry, err := s.store.Create(ctx, email)
	if err != nil {
		return domainauth.AllowlistEntry{}, fmt.Errorf("create allow-list entry: %w", err)
	}

	s.logger.InfoContext(ctx, "instructor email provisioned", "email", entry.Email)
	return entry, nil
}

// Get returns a single allow-list entry so admins can inspect whether a
// provisioned email has already been consumed by a first login.
func (s *AllowlistService) Get(ctx context.Context, email string) (domainauth.AllowlistEntry, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domainauth.AllowlistEntry{}, apperrors.ValidationField("email", "email is required")
	}

	entry, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return domainauth.AllowlistEntry{}, fmt.Errorf("get allow-list entry: %w", err)
	}
	return entry, nil
}

// List returns all allow-list entries, consumed ones included.
func (s *AllowlistService) List(ctx context.Context) ([]domainauth.AllowlistEntry, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list allow-list entries: %w", err)
	}
	return entries, nil
}

// Remove deletes an unconsumed entry, revoking a pending instructor sign-up.
func (s *AllowlistService) Remove(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperrors.ValidationField("email", "email is required")
	}

	if err := s.store.Delete(ctx, email); err != nil {
		return fmt.Errorf("delete allow-list entry: %w", err)
	}

	s.logger.InfoContext(ctx, "instructor email revoked", "email", email)
	return nil
}
