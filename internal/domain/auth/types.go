package auth

// Package auth contains domain-level types for authentication, role
// classification, and sessions. It is pure and free of framework/adapter
// concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// Roles are deliberately not ranked. Each endpoint gate accepts an explicit
// set of roles; an admin does not implicitly pass a student-only gate.

// IsAdmin reports whether the role is admin.
func IsAdmin(r Role) bool { return r == RoleAdmin }

// IsInstructorOrAdmin reports whether the role may access instructor surfaces.
func IsInstructorOrAdmin(r Role) bool { return r == RoleInstructor || r == RoleAdmin }

// IsStudent reports whether the role is student. Admins and instructors are
// excluded; student surfaces show self-scoped data that has no meaning for
// staff accounts.
func IsStudent(r Role) bool { return r == RoleStudent }

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape. It is per-request
// and never persisted.
type Identity struct {
	SubjectID string // stable subject identifier from the IdP (sub claim)
	Email     string
	ExpiresAt time.Time // absolute expiry from IdP token
}

// PlatformIdentity is the durable record the platform keeps for a user.
// Exactly one row exists per external subject id; the role is assigned at
// creation and never changes afterwards.
type PlatformIdentity struct {
	ID                string    `json:"id" db:"id"`
	ExternalSubjectID string    `json:"external_subject_id" db:"external_subject_id"`
	Email             string    `json:"email" db:"email"`
	Role              Role      `json:"role" db:"role"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// AllowlistEntry is a pre-provisioned instructor email. Each entry grants
// exactly one instructor sign-up: Consumed flips to true in the same
// transaction that creates the instructor's platform identity, and a
// consumed entry never matches again.
type AllowlistEntry struct {
	Email      string     `json:"email" db:"email"`
	Consumed   bool       `json:"consumed" db:"consumed"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty" db:"consumed_at"`
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
// PlatformID and Role are resolved once at login; requests read them from
// the session without re-resolving.
type Session struct {
	ID         string    `json:"id"`
	PlatformID string    `json:"platform_id"`
	SubjectID  string    `json:"subject_id"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	ExpiresAt  time.Time `json:"expires_at"`
}
