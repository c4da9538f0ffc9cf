package domain

import (
	"context"
	"time"
)

// Job is a posting created by an employer or admin.
type Job struct {
	ID          int64
	Title       string
	Company     string
	Location    string
	Salary      string
	Description string
	Type        string
	PostedBy    int64
	CreatedAt   time.Time
}

type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id int64) (*Job, error)
	// List returns all jobs, newest first.
	List(ctx context.Context) ([]Job, error)
}
