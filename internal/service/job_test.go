package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/jobly/internal/domain"
	"github.com/msomdec/jobly/internal/service"
)

func createUser(t *testing.T, auth *service.AuthService, name, email, role string) service.Claims {
	t.Helper()
	u, err := auth.Register(context.Background(), name, email, "password123", role)
	if err != nil {
		t.Fatalf("Register %s: %v", email, err)
	}
	return service.Claims{ID: u.ID, Role: u.Role, Name: u.Name}
}

func TestJobService_Create(t *testing.T) {
	auth, db := newTestAuthService(t)
	jobs := service.NewJobService(db.Jobs())
	ctx := context.Background()

	employer := createUser(t, auth, "Emp", "emp@example.com", "employer")
	admin := createUser(t, auth, "Adm", "adm@example.com", "admin")

	for _, caller := range []service.Claims{employer, admin} {
		job, err := jobs.Create(ctx, caller, service.JobInput{
			Title:   "  Platform Engineer ",
			Company: "Acme",
			Type:    "Full-time",
		})
		if err != nil {
			t.Fatalf("Create as %s: %v", caller.Role, err)
		}
		if job.Title != "Platform Engineer" {
			t.Fatalf("expected trimmed title, got %q", job.Title)
		}
		if job.PostedBy != caller.ID {
			t.Fatalf("expected posted_by %d, got %d", caller.ID, job.PostedBy)
		}
		if job.CreatedAt.IsZero() {
			t.Fatal("expected created_at to be set")
		}
	}

	list, err := jobs.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(list))
	}
}

func TestJobService_Create_Forbidden(t *testing.T) {
	auth, db := newTestAuthService(t)
	jobs := service.NewJobService(db.Jobs())

	candidate := createUser(t, auth, "Cand", "cand@example.com", "candidate")

	_, err := jobs.Create(context.Background(), candidate, service.JobInput{Title: "Nope"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestJobService_Create_TitleRequired(t *testing.T) {
	auth, db := newTestAuthService(t)
	jobs := service.NewJobService(db.Jobs())

	employer := createUser(t, auth, "Emp", "emp@example.com", "employer")

	_, err := jobs.Create(context.Background(), employer, service.JobInput{Title: "   ", Company: "Acme"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestJobService_Get_NotFound(t *testing.T) {
	_, db := newTestAuthService(t)
	jobs := service.NewJobService(db.Jobs())

	if _, err := jobs.Get(context.Background(), 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
