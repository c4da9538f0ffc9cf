package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/msomdec/jobly/internal/domain"
)

// SeedPassword is the plaintext password shared by every seeded account.
const SeedPassword = "password"

type seedUser struct {
	name  string
	email string
	role  domain.Role
}

type seedJob struct {
	title       string
	company     string
	location    string
	salary      string
	description string
	jobType     string
	postedBy    string // email of a seeded user
}

var seedUsers = []seedUser{
	{"Alice Smith", "alice@example.com", domain.RoleEmployer},
	{"Bob Johnson", "bob@example.com", domain.RoleCandidate},
	{"Charlie Brown", "charlie@example.com", domain.RoleEmployer},
	{"David Lee", "david@example.com", domain.RoleCandidate},
}

var seedJobs = []seedJob{
	{
		"Frontend Developer", "Tech Solutions Inc.", "New York, NY", "$90,000 - $110,000",
		"We are looking for a skilled Frontend Developer to join our dynamic team. Experience with React, Vue, or Angular is a plus.",
		"Full-time", "alice@example.com",
	},
	{
		"Senior Software Engineer", "Global Innovations", "San Francisco, CA", "$130,000 - $160,000",
		"Seeking a Senior Software Engineer with strong backend experience in Node.js and Python. Must have experience with distributed systems.",
		"Full-time", "alice@example.com",
	},
	{
		"UI/UX Designer", "Creative Minds Studio", "Remote", "$75,000 - $95,000",
		"Passionate UI/UX Designer needed to craft intuitive and beautiful user interfaces. Portfolio required.",
		"Remote", "charlie@example.com",
	},
	{
		"Backend Developer", "DataFlow Systems", "Austin, TX", "$100,000 - $120,000",
		"Join our team as a Backend Developer focusing on API development and database management. Node.js and SQL experience preferred.",
		"Full-time", "charlie@example.com",
	},
	{
		"Fullstack Software Developer", "Innovate Corp", "Seattle, WA", "$110,000 - $140,000",
		"We need a versatile Fullstack Software Developer proficient in both frontend (React) and backend (Node.js) technologies.",
		"Full-time", "alice@example.com",
	},
	{
		"DevOps Engineer", "Cloud Solutions Ltd.", "Remote", "$120,000 - $150,000",
		"Experienced DevOps Engineer to manage CI/CD pipelines, cloud infrastructure (AWS/Azure), and automation tools.",
		"Remote", "charlie@example.com",
	},
	{
		"Data Scientist", "Quant Analytics", "Boston, MA", "$100,000 - $130,000",
		"Seeking a Data Scientist with strong statistical modeling and machine learning skills. Python and R experience required.",
		"Full-time", "alice@example.com",
	},
	{
		"Mobile App Developer", "AppGenius", "Los Angeles, CA", "$95,000 - $125,000",
		"Develop cutting-edge mobile applications for iOS and Android. Experience with React Native or Flutter is a plus.",
		"Full-time", "charlie@example.com",
	},
}

// Seed inserts the demonstration users and jobs in a single transaction.
// Callers run it only for a freshly created database; it does not check
// whether rows already exist.
func Seed(ctx context.Context, db *DB, hasher domain.PasswordHasher) error {
	hash, err := hasher.Hash(SeedPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	err = db.WithTx(ctx, func(tx *Tx) error {
		for _, u := range seedUsers {
			if _, err := tx.Exec(ctx,
				`INSERT INTO users (name, email, password, role) VALUES (?, ?, ?, ?)`,
				u.name, u.email, hash, string(u.role),
			); err != nil {
				return fmt.Errorf("seed user %s: %w", u.email, err)
			}
		}

		ids := make(map[string]int64, len(seedUsers))
		for _, u := range seedUsers {
			rows, err := tx.Query(ctx, `SELECT id FROM users WHERE email = ?`, u.email)
			if err != nil {
				return fmt.Errorf("look up seed user %s: %w", u.email, err)
			}
			if len(rows) == 0 {
				return fmt.Errorf("look up seed user %s: %w", u.email, domain.ErrNotFound)
			}
			ids[u.email] = rows[0].Int64("id")
		}

		for _, j := range seedJobs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO jobs (title, company, location, salary, description, type, posted_by)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				j.title, j.company, j.location, j.salary, j.description, j.jobType, ids[j.postedBy],
			); err != nil {
				return fmt.Errorf("seed job %q: %w", j.title, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("initial data seeded", "users", len(seedUsers), "jobs", len(seedJobs))
	return nil
}
