package domain

import (
	"context"
	"time"
)

const (
	ApplicationStatusApplied      = "applied"
	ApplicationStatusReviewing    = "reviewing"
	ApplicationStatusInterviewing = "interviewing"
	ApplicationStatusOffered      = "offered"
	ApplicationStatusRejected     = "rejected"
)

// Application links a candidate to a job. At most one exists per
// (JobID, UserID) pair.
type Application struct {
	ID        int64
	JobID     int64
	UserID    int64
	Status    string
	AppliedAt time.Time

	// Populated by listings that join the job.
	JobTitle   string
	JobCompany string
}

type ApplicationRepository interface {
	// Create inserts the application after confirming the job exists.
	// Returns ErrNotFound for a missing job and ErrDuplicateApplication
	// when the user already applied.
	Create(ctx context.Context, app *Application) error
	ListByUser(ctx context.Context, userID int64) ([]Application, error)
}
