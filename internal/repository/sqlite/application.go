package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/jobly/internal/domain"
)

// ApplicationRepository implements domain.ApplicationRepository on the
// in-memory handle.
type ApplicationRepository struct {
	db *DB
}

// NewApplicationRepository creates a new SQLite-backed ApplicationRepository.
func NewApplicationRepository(db *DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create checks that the job exists and inserts the application in one
// transaction. The UNIQUE (job_id, user_id) constraint rejects repeats.
func (r *ApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	return r.db.WithTx(ctx, func(tx *Tx) error {
		jobs, err := tx.Query(ctx, `SELECT id FROM jobs WHERE id = ?`, app.JobID)
		if err != nil {
			return fmt.Errorf("check job: %w", err)
		}
		if len(jobs) == 0 {
			return fmt.Errorf("job %d: %w", app.JobID, domain.ErrNotFound)
		}

		res, err := tx.Exec(ctx,
			`INSERT INTO applications (job_id, user_id) VALUES (?, ?)`,
			app.JobID, app.UserID,
		)
		if err != nil {
			if errors.Is(err, domain.ErrConstraintViolation) {
				if isUniqueConstraintError(err, "applications.job_id") {
					return fmt.Errorf("%w: %w", domain.ErrDuplicateApplication, err)
				}
				return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
			}
			return fmt.Errorf("insert application: %w", err)
		}

		rows, err := tx.Query(ctx,
			`SELECT id, job_id, user_id, status, applied_at FROM applications WHERE id = ?`,
			res.LastInsertID)
		if err != nil {
			return fmt.Errorf("read back application: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("read back application %d: %w", res.LastInsertID, domain.ErrNotFound)
		}
		*app = scanApplication(rows[0])
		return nil
	})
}

// ListByUser returns the user's applications joined with job title and
// company, most recent first.
func (r *ApplicationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Application, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.id AS id, a.job_id AS job_id, a.user_id AS user_id,
		        a.status AS status, a.applied_at AS applied_at,
		        j.title AS title, j.company AS company
		 FROM applications a
		 JOIN jobs j ON a.job_id = j.id
		 WHERE a.user_id = ?
		 ORDER BY a.applied_at DESC, a.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}

	apps := make([]domain.Application, 0, len(rows))
	for _, row := range rows {
		app := scanApplication(row)
		app.JobTitle = row.String("title")
		app.JobCompany = row.String("company")
		apps = append(apps, app)
	}
	return apps, nil
}

func scanApplication(row Row) domain.Application {
	return domain.Application{
		ID:        row.Int64("id"),
		JobID:     row.Int64("job_id"),
		UserID:    row.Int64("user_id"),
		Status:    row.String("status"),
		AppliedAt: row.Time("applied_at"),
	}
}
