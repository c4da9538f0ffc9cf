package handler

import (
	"errors"
	"net/http"

	"github.com/msomdec/jobly/internal/domain"
	"github.com/msomdec/jobly/internal/service"
)

// ApplicationHandler handles candidate applications.
type ApplicationHandler struct {
	apps *service.ApplicationService
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(apps *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps}
}

// HandleApply submits an application for the authenticated candidate.
// POST /api/apply/{jobId}
func (h *ApplicationHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}
	jobID, ok := pathID(w, r, "jobId")
	if !ok {
		return
	}

	app, err := h.apps.Apply(r.Context(), claims, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			writeError(w, http.StatusForbidden, "Only candidates can apply")
			return
		}
		writeServiceError(w, "apply to job", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Application submitted",
		"application": toApplicationDTO(*app),
	})
}

// HandleMine lists the authenticated user's applications.
// GET /api/my-applications
func (h *ApplicationHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	apps, err := h.apps.ListMine(r.Context(), claims)
	if err != nil {
		writeServiceError(w, "list applications", err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTOs(apps))
}
