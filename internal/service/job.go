package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/msomdec/jobly/internal/domain"
)

// JobInput holds the caller-supplied fields of a new posting.
type JobInput struct {
	Title       string
	Company     string
	Location    string
	Salary      string
	Description string
	Type        string
}

// JobService handles job listing and posting.
type JobService struct {
	jobs domain.JobRepository
}

// NewJobService creates a new JobService.
func NewJobService(jobs domain.JobRepository) *JobService {
	return &JobService{jobs: jobs}
}

// List returns every job, newest first.
func (s *JobService) List(ctx context.Context) ([]domain.Job, error) {
	return s.jobs.List(ctx)
}

// Get returns a single job.
func (s *JobService) Get(ctx context.Context, id int64) (*domain.Job, error) {
	return s.jobs.GetByID(ctx, id)
}

// Create posts a job on behalf of caller. Only employers and admins may post.
func (s *JobService) Create(ctx context.Context, caller Claims, in JobInput) (*domain.Job, error) {
	if !caller.Role.CanPostJobs() {
		return nil, fmt.Errorf("%w: role %s cannot post jobs", domain.ErrForbidden, caller.Role)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	job := &domain.Job{
		Title:       title,
		Company:     strings.TrimSpace(in.Company),
		Location:    strings.TrimSpace(in.Location),
		Salary:      strings.TrimSpace(in.Salary),
		Description: in.Description,
		Type:        strings.TrimSpace(in.Type),
		PostedBy:    caller.ID,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}
