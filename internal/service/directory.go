package service

import (
	"context"
	"fmt"

	domainauth "github.com/itm-kmutnb/classroom-api/internal/domain/auth"
	"github.com/itm-kmutnb/classroom-api/internal/ports"
)

// DirectoryService exposes read-only views over platform identities.
type DirectoryService struct {
	identities ports.IdentityStore
}

// NewDirectoryService constructs a new DirectoryService.
func NewDirectoryService(identities ports.IdentityStore) *DirectoryService {
	return &DirectoryService{identities: identities}
}

// ListIdentities returns every platform identity (admin view).
func (s *DirectoryService) ListIdentities(ctx context.Context) ([]domainauth.PlatformIdentity, error) {
	identities, err := s.identities.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return identities, nil
}

// Roster returns the student identities (instructor view).
func (s *DirectoryService) Roster(ctx context.Context) ([]domainauth.PlatformIdentity, error) {
	identities, err := s.identities.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}

	students := make([]domainauth.PlatformIdentity, 0, len(identities))
	for _, id := range identities {
		if id.Role == domainauth.RoleStudent {
			students = append(students, id)
		}
	}
	return students, nil
}

// Profile returns the platform identity behind a session.
func (s *DirectoryService) Profile(ctx context.Context, subjectID string) (domainauth.PlatformIdentity, error) {
	identity, err := s.identities.GetBySubject(ctx, subjectID)
	if err != nil {
		return domainauth.PlatformIdentity{}, fmt.Errorf("get identity: %w", err)
	}
	return identity, nil
}
