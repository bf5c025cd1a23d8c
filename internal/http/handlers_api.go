package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/itm-kmutnb/classroom-api/internal/errors"
	"github.com/itm-kmutnb/classroom-api/internal/ports"
	"github.com/itm-kmutnb/classroom-api/internal/service"
)

// DirectoryHandlers serves identity views scoped by the caller's role.
type DirectoryHandlers struct {
	Directory *service.DirectoryService
	Logger    *slog.Logger
}

// Profile returns the platform identity behind the current session.
// GET /api/profile.
func (h *DirectoryHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	session, ok := GetUserSessionFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	identity, err := h.Directory.Profile(r.Context(), session.SubjectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"identity": identity})
}

// Identities lists every platform identity, newest first.
// GET /api/admin/identities.
func (h *DirectoryHandlers) Identities(w http.ResponseWriter, r *http.Request) {
	identities, err := h.Directory.ListIdentities(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"identities": identities})
}

// Roster lists student identities for course surfaces.
// GET /api/roster.
func (h *DirectoryHandlers) Roster(w http.ResponseWriter, r *http.Request) {
	students, err := h.Directory.Roster(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"students": students})
}

// Enrollments returns the calling student's enrollment view.
// GET /api/enrollments.
// TODO: join against course enrollments once the courses schema lands.
func (h *DirectoryHandlers) Enrollments(w http.ResponseWriter, r *http.Request) {
	session, ok := GetUserSessionFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	identity, err := h.Directory.Profile(r.Context(), session.SubjectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"student": identity,
		"courses": []any{},
	})
}

// AllowlistHandlers is the admin surface for instructor pre-provisioning.
type AllowlistHandlers struct {
	Svc    *service.AllowlistService
	Logger *slog.Logger
}

type allowlistCreateRequest struct {
	Email string `json:"email"`
}

// List returns every allow-list entry, consumed ones included.
// GET /api/admin/allowlist.
func (h *AllowlistHandlers) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// Get returns one allow-list entry, surfacing its consumed state.
// GET /api/admin/allowlist/{email}.
func (h *AllowlistHandlers) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Svc.Get(r.Context(), r.PathValue("email"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

// Create provisions an instructor email ahead of their first login.
// POST /api/admin/allowlist.
func (h *AllowlistHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req allowlistCreateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	entry, err := h.Svc.Add(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

// Delete revokes an unconsumed allow-list entry.
// DELETE /api/admin/allowlist/{email}.
func (h *AllowlistHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	if err := h.Svc.Remove(r.Context(), email); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// writeServiceError maps service-layer errors onto HTTP responses. Unknown
// errors get a generic 500 body so storage details never reach the client.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation_failed",
			Err:     err,
		})
	case apperrors.IsNotFound(err) || errors.Is(err, ports.ErrIdentityNotFound):
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("resource not found"),
		})
	case apperrors.IsConflict(err):
		WriteError(w, ErrorParams{
			Code:    http.StatusConflict,
			ErrCode: "conflict",
			Err:     err,
		})
	default:
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "internal_error",
			Err:     errors.New("internal server error"),
		})
	}
}
