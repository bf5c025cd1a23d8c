package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/itm-kmutnb/classroom-api/internal/domain/auth"
	"github.com/itm-kmutnb/classroom-api/internal/service"
)

// mockAuthServiceForMiddleware is a test double for AuthServiceInterface.
type mockAuthServiceForMiddleware struct {
	getSessionFunc func(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

func (m *mockAuthServiceForMiddleware) GetSession(
	ctx context.Context,
	sessionID string,
) (*domainauth.Session, error) {
	if m.getSessionFunc != nil {
		return m.getSessionFunc(ctx, sessionID)
	}
	return &domainauth.Session{
		ID:        sessionID,
		SubjectID: "test-sub",
		Email:     "s6506021420123@email.kmutnb.ac.th",
		Role:      domainauth.RoleStudent,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

// Implement other methods to satisfy the interface.
func (m *mockAuthServiceForMiddleware) BeginLogin(
	_ctx context.Context,
	_redirectURL string,
) (*service.BeginLoginResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAuthServiceForMiddleware) CompleteLogin(
	_ctx context.Context,
	_input service.CompleteLoginInput,
) (*service.CompleteLoginResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAuthServiceForMiddleware) Logout(_ctx context.Context, _sessionID string) error {
	return errors.New("not implemented")
}

func sessionServiceWithRole(role domainauth.Role) *mockAuthServiceForMiddleware {
	return &mockAuthServiceForMiddleware{
		getSessionFunc: func(_ context.Context, sessionID string) (*domainauth.Session, error) {
			return &domainauth.Session{
				ID:        sessionID,
				SubjectID: "test-sub",
				Email:     "test@kmutnb.ac.th",
				Role:      role,
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
}

func TestRequireAuth_Success(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{}
	middleware := RequireAuth(mockSvc)

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := GetUserSessionFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "test-session-id", session.ID)
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware(testHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "test-session-id"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_NoSession(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{}
	middleware := RequireAuth(mockSvc)

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	})

	handler := middleware(testHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication_required")
}

func TestRequireAuth_InvalidSession(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{
		getSessionFunc: func(ctx context.Context, sessionID string) (*domainauth.Session, error) {
			return nil, errors.New("session not found")
		},
	}
	middleware := RequireAuth(mockSvc)

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	})

	handler := middleware(testHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "invalid-session"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// The gates are independent predicates: each role passes exactly the gates
// its surface needs, and admin does not inherit student access.
func TestRoleGates_Matrix(t *testing.T) {
	gates := map[string]func(AuthServiceInterface) func(http.Handler) http.Handler{
		"admin":      RequireAdmin,
		"instructor": RequireInstructor,
		"student":    RequireStudent,
	}
	tests := []struct {
		role    domainauth.Role
		allowed map[string]bool
	}{
		{domainauth.RoleAdmin, map[string]bool{"admin": true, "instructor": true, "student": false}},
		{domainauth.RoleInstructor, map[string]bool{"admin": false, "instructor": true, "student": false}},
		{domainauth.RoleStudent, map[string]bool{"admin": false, "instructor": false, "student": true}},
	}

	for _, tt := range tests {
		for gateName, gate := range gates {
			t.Run(string(tt.role)+" at "+gateName+" gate", func(t *testing.T) {
				middleware := gate(sessionServiceWithRole(tt.role))
				handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				}))

				req := httptest.NewRequest(http.MethodGet, "/gated", nil)
				req.AddCookie(&http.Cookie{Name: "session_id", Value: "s1"})
				w := httptest.NewRecorder()

				handler.ServeHTTP(w, req)

				if tt.allowed[gateName] {
					assert.Equal(t, http.StatusOK, w.Code)
				} else {
					assert.Equal(t, http.StatusForbidden, w.Code)
					assert.Contains(t, w.Body.String(), "insufficient_permissions")
				}
			})
		}
	}
}

func TestRoleGates_NoSessionIs401Not403(t *testing.T) {
	middleware := RequireAdmin(&mockAuthServiceForMiddleware{
		getSessionFunc: func(context.Context, string) (*domainauth.Session, error) {
			return nil, errors.New("session not found")
		},
	})
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
