package service

import (
	"context"
	"fmt"

	"github.com/msomdec/jobly/internal/domain"
)

// ApplicationService handles candidate applications.
type ApplicationService struct {
	apps domain.ApplicationRepository
}

// NewApplicationService creates a new ApplicationService.
func NewApplicationService(apps domain.ApplicationRepository) *ApplicationService {
	return &ApplicationService{apps: apps}
}

// Apply records caller's application to jobID. Only candidates may apply,
// and only once per job.
func (s *ApplicationService) Apply(ctx context.Context, caller Claims, jobID int64) (*domain.Application, error) {
	if !caller.Role.CanApply() {
		return nil, fmt.Errorf("%w: only candidates can apply", domain.ErrForbidden)
	}

	app := &domain.Application{JobID: jobID, UserID: caller.ID}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return app, nil
}

// ListMine returns caller's applications with the job title and company.
func (s *ApplicationService) ListMine(ctx context.Context, caller Claims) ([]domain.Application, error) {
	return s.apps.ListByUser(ctx, caller.ID)
}
