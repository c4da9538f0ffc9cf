package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/msomdec/jobly/internal/domain"
	"github.com/msomdec/jobly/internal/service"
)

// JobHandler handles job listing and posting.
type JobHandler struct {
	jobs *service.JobService
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// HandleList returns all jobs, newest first.
// GET /api/jobs
func (h *JobHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.List(r.Context())
	if err != nil {
		writeServiceError(w, "list jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, toJobDTOs(jobs))
}

// HandleGet returns one job.
// GET /api/jobs/{id}
func (h *JobHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get job", err)
		return
	}
	writeJSON(w, http.StatusOK, toJobDTO(*job))
}

// HandleCreate posts a job as the authenticated employer or admin.
// POST /api/jobs
// Request:  {"title":"...","company":"...","location":"...","salary":"...","description":"...","type":"..."}
// Response: 201 {"message":"Job posted","job":{...}}
func (h *JobHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	var req struct {
		Title       string `json:"title"`
		Company     string `json:"company"`
		Location    string `json:"location"`
		Salary      string `json:"salary"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	job, err := h.jobs.Create(r.Context(), claims, service.JobInput{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		Salary:      req.Salary,
		Description: req.Description,
		Type:        req.Type,
	})
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			writeError(w, http.StatusForbidden, "Only employers can post jobs.")
			return
		}
		writeServiceError(w, "create job", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Job posted",
		"job":     toJobDTO(*job),
	})
}

// pathID parses a positive integer path parameter, writing 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id.")
		return 0, false
	}
	return id, true
}
