package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/msomdec/jobly/internal/domain"
)

// UserRepository implements domain.UserRepository on the in-memory handle.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	res, err := r.db.Exec(ctx,
		`INSERT INTO users (name, email, password, role) VALUES (?, ?, ?, ?)`,
		user.Name, user.Email, user.PasswordHash, string(user.Role),
	)
	if err != nil {
		if errors.Is(err, domain.ErrConstraintViolation) {
			if isUniqueConstraintError(err, "users.email") {
				return fmt.Errorf("%w: %w", domain.ErrDuplicateEmail, err)
			}
			return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = res.LastInsertID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, password, role FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return scanUser(rows[0]), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, password, role FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return scanUser(rows[0]), nil
}

func scanUser(row Row) *domain.User {
	return &domain.User{
		ID:           row.Int64("id"),
		Name:         row.String("name"),
		Email:        row.String("email"),
		PasswordHash: row.String("password"),
		Role:         domain.Role(row.String("role")),
	}
}

// isUniqueConstraintError checks if err is a UNIQUE violation on the given
// table.column target (SQLite names it in the message).
func isUniqueConstraintError(err error, target string) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, target)
}
