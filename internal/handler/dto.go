package handler

import (
	"time"

	"github.com/msomdec/jobly/internal/domain"
)

// UserDTO is the JSON representation of a user. The hash never leaves the
// service layer.
type UserDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}

// JobDTO is the JSON representation of a job.
type JobDTO struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Salary      string `json:"salary"`
	Description string `json:"description"`
	Type        string `json:"type"`
	PostedBy    int64  `json:"posted_by"`
	CreatedAt   string `json:"created_at"`
}

func toJobDTO(j domain.Job) JobDTO {
	return JobDTO{
		ID:          j.ID,
		Title:       j.Title,
		Company:     j.Company,
		Location:    j.Location,
		Salary:      j.Salary,
		Description: j.Description,
		Type:        j.Type,
		PostedBy:    j.PostedBy,
		CreatedAt:   j.CreatedAt.Format(time.RFC3339),
	}
}

func toJobDTOs(jobs []domain.Job) []JobDTO {
	dtos := make([]JobDTO, len(jobs))
	for i, j := range jobs {
		dtos[i] = toJobDTO(j)
	}
	return dtos
}

// ApplicationDTO is an application joined with the job's title and company.
type ApplicationDTO struct {
	ID        int64  `json:"id"`
	JobID     int64  `json:"job_id"`
	UserID    int64  `json:"user_id"`
	Status    string `json:"status"`
	AppliedAt string `json:"applied_at"`
	Title     string `json:"title,omitempty"`
	Company   string `json:"company,omitempty"`
}

func toApplicationDTO(a domain.Application) ApplicationDTO {
	return ApplicationDTO{
		ID:        a.ID,
		JobID:     a.JobID,
		UserID:    a.UserID,
		Status:    a.Status,
		AppliedAt: a.AppliedAt.Format(time.RFC3339),
		Title:     a.JobTitle,
		Company:   a.JobCompany,
	}
}

func toApplicationDTOs(apps []domain.Application) []ApplicationDTO {
	dtos := make([]ApplicationDTO, len(apps))
	for i, a := range apps {
		dtos[i] = toApplicationDTO(a)
	}
	return dtos
}
