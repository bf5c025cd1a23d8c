package auth

import (
	"testing"
	"time"
)

func TestRolePredicates(t *testing.T) {
	tests := []struct {
		role              Role
		admin             bool
		instructorOrAdmin bool
		student           bool
	}{
		{RoleAdmin, true, true, false},
		{RoleInstructor, false, true, false},
		{RoleStudent, false, false, true},
		{Role("unknown"), false, false, false},
		{Role(""), false, false, false},
	}

	for _, tt := range tests {
		if got := IsAdmin(tt.role); got != tt.admin {
			t.Errorf("IsAdmin(%q) = %v, want %v", tt.role, got, tt.admin)
		}
		if got := IsInstructorOrAdmin(tt.role); got != tt.instructorOrAdmin {
			t.Errorf("IsInstructorOrAdmin(%q) = %v, want %v", tt.role, got, tt.instructorOrAdmin)
		}
		if got := IsStudent(tt.role); got != tt.student {
			t.Errorf("IsStudent(%q) = %v, want %v", tt.role, got, tt.student)
		}
	}
}

func TestIdentity_SimpleFields(t *testing.T) {
	id := Identity{SubjectID: "sub-1", Email: "e", ExpiresAt: time.Now().Add(time.Hour)}
	if id.SubjectID != "sub-1" || id.Email != "e" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}
