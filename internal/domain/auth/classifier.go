package auth

import (
	"fmt"
	"regexp"
)

// Classification is the outcome of classifying a login email.
type Classification string

const (
	// ClassRejected means the email is outside the organization and may not
	// sign in at all.
	ClassRejected Classification = "rejected"
	// ClassInstructorCandidate means the email belongs to the organization
	// but is not student-shaped; the holder may sign in as an instructor if
	// an allow-list entry exists for the address.
	ClassInstructorCandidate Classification = "instructor_candidate"
	// ClassStudent means the email matches the university's student scheme.
	ClassStudent Classification = "student"
)

// Default email patterns for the university scheme. Both are configuration;
// deployments for other institutions override them via environment.
const (
	DefaultOrgEmailPattern     = `^[A-Za-z0-9._%+-]+@(?:[A-Za-z0-9-]+\.)*kmutnb\.ac\.th$`
	DefaultStudentEmailPattern = `^s[0-9]{9,10}@email\.kmutnb\.ac\.th$`
)

// Classifier classifies login emails by organization membership and student
// shape. It is pure: no I/O, no mutation, same answer for the same input.
type Classifier struct {
	org     *regexp.Regexp
	student *regexp.Regexp
}

// NewClassifier compiles the org and student patterns. Empty patterns fall
// back to the university defaults.
func NewClassifier(orgPattern, studentPattern string) (*Classifier, error) {
	if orgPattern == "" {
		orgPattern = DefaultOrgEmailPattern
	}
	if studentPattern == "" {
		studentPattern = DefaultStudentEmailPattern
	}

	org, err := regexp.Compile(orgPattern)
	if err != nil {
		return nil, fmt.Errorf("compile org email pattern: %w", err)
	}
	student, err := regexp.Compile(studentPattern)
	if err != nil {
		return nil, fmt.Errorf("compile student email pattern: %w", err)
	}

	return &Classifier{org: org, student: student}, nil
}

// Classify buckets an email address. The org check runs first: a
// student-shaped local part on a foreign domain is rejected, not treated as
// a student.
func (c *Classifier) Classify(email string) Classification {
	if !c.org.MatchString(email) {
		return ClassRejected
	}
	if c.student.MatchString(email) {
		return ClassStudent
	}
	return ClassInstructorCandidate
}
