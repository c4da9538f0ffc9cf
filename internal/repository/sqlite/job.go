package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/jobly/internal/domain"
)

const jobColumns = `id, title, company, location, salary, description, type, posted_by, created_at`

// JobRepository implements domain.JobRepository on the in-memory handle.
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new SQLite-backed JobRepository.
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts the job and reads back the stored row so CreatedAt reflects
// the database default.
func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	return r.db.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.Exec(ctx,
			`INSERT INTO jobs (title, company, location, salary, description, type, posted_by)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			job.Title, job.Company, job.Location, job.Salary, job.Description, job.Type, job.PostedBy,
		)
		if err != nil {
			if errors.Is(err, domain.ErrConstraintViolation) {
				return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
			}
			return fmt.Errorf("insert job: %w", err)
		}

		rows, err := tx.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, res.LastInsertID)
		if err != nil {
			return fmt.Errorf("read back job: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("read back job %d: %w", res.LastInsertID, domain.ErrNotFound)
		}
		*job = scanJob(rows[0])
		return nil
	})
}

func (r *JobRepository) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	rows, err := r.db.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query job by id: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	job := scanJob(rows[0])
	return &job, nil
}

func (r *JobRepository) List(ctx context.Context) ([]domain.Job, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	jobs := make([]domain.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, scanJob(row))
	}
	return jobs, nil
}

func scanJob(row Row) domain.Job {
	return domain.Job{
		ID:          row.Int64("id"),
		Title:       row.String("title"),
		Company:     row.String("company"),
		Location:    row.String("location"),
		Salary:      row.String("salary"),
		Description: row.String("description"),
		Type:        row.String("type"),
		PostedBy:    row.Int64("posted_by"),
		CreatedAt:   row.Time("created_at"),
	}
}
