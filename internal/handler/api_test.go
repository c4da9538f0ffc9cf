package handler_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/jobly/internal/domain"
	"github.com/msomdec/jobly/internal/handler"
)

type jobJSON struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Company   string `json:"company"`
	PostedBy  int64  `json:"posted_by"`
	CreatedAt string `json:"created_at"`
}

type applicationJSON struct {
	ID      int64  `json:"id"`
	JobID   int64  `json:"job_id"`
	UserID  int64  `json:"user_id"`
	Status  string `json:"status"`
	Title   string `json:"title"`
	Company string `json:"company"`
}

func TestAPI_LoginSeededEmployer(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	resp := api.login(t, "alice@example.com", "password")
	assert.Equal(t, "Alice Smith", resp.User.Name)
	assert.Equal(t, "employer", resp.User.Role)

	claims, err := api.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployer, claims.Role)
	assert.Equal(t, resp.User.ID, claims.ID)
	assert.Equal(t, "Alice Smith", claims.Name)
}

func TestAPI_LoginWrongPassword(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	var resp loginResponse
	status := api.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "not-the-password",
	}, &resp)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Empty(t, resp.Token)
	assert.Equal(t, "Invalid credentials", resp.Error)
}

func TestAPI_LoginUnknownEmail(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	status := api.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPI_LoginRateLimited(t *testing.T) {
	api := newTestAPI(t, handler.Options{LoginRateLimit: 1})

	body := map[string]string{"email": "alice@example.com", "password": "wrong"}
	first := api.do(t, http.MethodPost, "/api/login", "", body, nil)
	second := api.do(t, http.MethodPost, "/api/login", "", body, nil)

	assert.Equal(t, http.StatusUnauthorized, first)
	assert.Equal(t, http.StatusTooManyRequests, second)
}

func TestAPI_RegisterAndLogin(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	status := api.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"name":     "Erin Candidate",
		"email":    "erin@example.com",
		"password": "hunter22",
		"role":     "candidate",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	resp := api.login(t, "erin@example.com", "hunter22")
	assert.Equal(t, "candidate", resp.User.Role)
}

func TestAPI_RegisterDuplicateEmail(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	body := map[string]string{
		"name":     "Dup",
		"email":    "dup@example.com",
		"password": "password123",
		"role":     "candidate",
	}
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/register", "", body, nil))

	var errResp struct {
		Error string `json:"error"`
	}
	status := api.do(t, http.MethodPost, "/api/register", "", body, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already exists.", errResp.Error)

	rows, err := api.db.Query(t.Context(), "SELECT COUNT(*) AS n FROM users WHERE email = ?", "dup@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows[0].Int64("n"))
}

func TestAPI_RegisterInvalid(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	tests := []struct {
		name string
		body map[string]string
	}{
		{"unknown role", map[string]string{"email": "x@example.com", "password": "pw", "role": "superuser"}},
		{"missing email", map[string]string{"password": "pw", "role": "candidate"}},
		{"missing password", map[string]string{"email": "y@example.com", "role": "candidate"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status := api.do(t, http.MethodPost, "/api/register", "", tc.body, nil)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestAPI_ListJobsNewestFirst(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	var jobs []jobJSON
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/jobs", "", nil, &jobs))
	require.Len(t, jobs, 8)
	assert.Equal(t, "Mobile App Developer", jobs[0].Title)
	assert.Equal(t, "Frontend Developer", jobs[len(jobs)-1].Title)

	alice := api.login(t, "alice@example.com", "password")
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/jobs", alice.Token, map[string]string{
		"title":   "Site Reliability Engineer",
		"company": "Uptime Co",
	}, nil))

	jobs = nil
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/jobs", "", nil, &jobs))
	require.Len(t, jobs, 9)
	assert.Equal(t, "Site Reliability Engineer", jobs[0].Title)
}

func TestAPI_GetJob(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	var job jobJSON
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/jobs/1", "", nil, &job))
	assert.Equal(t, "Frontend Developer", job.Title)
	assert.NotEmpty(t, job.CreatedAt)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/jobs/999", "", nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/jobs/abc", "", nil, nil))
}

func TestAPI_CreateJobRoleGating(t *testing.T) {
	api := newTestAPI(t, handler.Options{})
	body := map[string]string{
		"title":       "Platform Engineer",
		"company":     "Infra Ltd",
		"location":    "Remote",
		"salary":      "$100,000",
		"description": "Build the platform.",
		"type":        "Full-time",
	}

	bob := api.login(t, "bob@example.com", "password")
	var errResp struct {
		Error string `json:"error"`
	}
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPost, "/api/jobs", bob.Token, body, &errResp))
	assert.Equal(t, "Only employers can post jobs.", errResp.Error)
	assert.Equal(t, 0, countJobs(t, api, "Platform Engineer"))

	alice := api.login(t, "alice@example.com", "password")
	var created struct {
		Message string  `json:"message"`
		Job     jobJSON `json:"job"`
	}
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/jobs", alice.Token, body, &created))
	assert.Equal(t, "Job posted", created.Message)
	assert.Equal(t, alice.User.ID, created.Job.PostedBy)
	assert.Equal(t, 1, countJobs(t, api, "Platform Engineer"))
}

func TestAPI_CreateJobAuthFailures(t *testing.T) {
	api := newTestAPI(t, handler.Options{})
	body := map[string]string{"title": "Nope"}

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodPost, "/api/jobs", "", body, nil))
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPost, "/api/jobs", "garbage", body, nil))
	assert.Equal(t, 0, countJobs(t, api, "Nope"))
}

func TestAPI_CreateJobMissingTitle(t *testing.T) {
	api := newTestAPI(t, handler.Options{})
	alice := api.login(t, "alice@example.com", "password")

	status := api.do(t, http.MethodPost, "/api/jobs", alice.Token, map[string]string{"company": "NoTitle"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_ApplyAndListMine(t *testing.T) {
	api := newTestAPI(t, handler.Options{})
	bob := api.login(t, "bob@example.com", "password")

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/apply/1", bob.Token, nil, nil))

	var errResp struct {
		Error string `json:"error"`
	}
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, "/api/apply/1", bob.Token, nil, &errResp))
	assert.Equal(t, "Already applied to this job.", errResp.Error)

	rows, err := api.db.Query(t.Context(),
		"SELECT COUNT(*) AS n FROM applications WHERE job_id = ? AND user_id = ?", 1, bob.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows[0].Int64("n"))

	var mine []applicationJSON
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/my-applications", bob.Token, nil, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, int64(1), mine[0].JobID)
	assert.Equal(t, bob.User.ID, mine[0].UserID)
	assert.Equal(t, "applied", mine[0].Status)
	assert.Equal(t, "Frontend Developer", mine[0].Title)
	assert.Equal(t, "Tech Solutions Inc.", mine[0].Company)
}

func TestAPI_ApplyFailures(t *testing.T) {
	api := newTestAPI(t, handler.Options{})
	bob := api.login(t, "bob@example.com", "password")
	alice := api.login(t, "alice@example.com", "password")

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodPost, "/api/apply/1", "", nil, nil))
	var errResp struct {
		Error string `json:"error"`
	}
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPost, "/api/apply/1", alice.Token, nil, &errResp))
	assert.Equal(t, "Only candidates can apply", errResp.Error)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodPost, "/api/apply/999", bob.Token, nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, "/api/apply/zero", bob.Token, nil, nil))
}

func TestAPI_MyApplicationsRequiresToken(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/my-applications", "", nil, nil))

	david := api.login(t, "david@example.com", "password")
	var mine []applicationJSON
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/my-applications", david.Token, nil, &mine))
	assert.Empty(t, mine)
}

func TestAPI_Me(t *testing.T) {
	api := newTestAPI(t, handler.Options{})
	charlie := api.login(t, "charlie@example.com", "password")

	var resp struct {
		User struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/me", charlie.Token, nil, &resp))
	assert.Equal(t, "charlie@example.com", resp.User.Email)
	assert.Equal(t, "employer", resp.User.Role)
	assert.Equal(t, charlie.User.ID, resp.User.ID)
}

func countJobs(t *testing.T, api *testAPI, title string) int {
	t.Helper()
	rows, err := api.db.Query(t.Context(), "SELECT COUNT(*) AS n FROM jobs WHERE title = ?", title)
	require.NoError(t, err)
	n, err := strconv.Atoi(rows[0].String("n"))
	require.NoError(t, err)
	return n
}
