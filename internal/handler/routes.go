package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/msomdec/jobly/internal/metrics"
	"github.com/msomdec/jobly/internal/service"
)

// Options tunes the middleware stack.
type Options struct {
	Version        string
	LoginRateLimit float64 // login requests per second per client IP; 0 disables
	MaxBodyBytes   int64
	Metrics        *metrics.Metrics
	Health         HealthCheck
}

// Routes builds the HTTP handler for the JSON API.
func Routes(auth *service.AuthService, jobs *service.JobService, apps *service.ApplicationService, opts Options) http.Handler {
	authHandler := NewAuthHandler(auth)
	jobHandler := NewJobHandler(jobs)
	appHandler := NewApplicationHandler(apps)

	recoverLog := lgr.Func(func(format string, args ...any) {
		slog.Error("handler panic", "detail", fmt.Sprintf(format, args...))
	})

	router := routegroup.New(http.NewServeMux())
	if opts.Metrics != nil {
		// Root middlewares already see the matched pattern, so this one
		// labels series by route.
		router.Use(opts.Metrics.Middleware)
	}
	router.Use(
		rest.RealIP,
		rest.Recoverer(recoverLog),
		rest.AppInfo("jobly", "msomdec", opts.Version),
		rest.Ping,
		SecurityHeaders,
		CORS,
	)
	if opts.MaxBodyBytes > 0 {
		router.Use(rest.SizeLimit(opts.MaxBodyBytes))
	}

	router.HandleFunc("GET /healthz", HandleHealthz(opts.Health))
	if opts.Metrics != nil {
		router.Handle("GET /metrics", opts.Metrics.Handler())
	}

	router.Mount("/api").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)

		api.HandleFunc("POST /register", authHandler.HandleRegister)
		if opts.LoginRateLimit > 0 {
			api.With(tollbooth.HTTPMiddleware(loginLimiter(opts.LoginRateLimit))).
				HandleFunc("POST /login", authHandler.HandleLogin)
		} else {
			api.HandleFunc("POST /login", authHandler.HandleLogin)
		}

		api.HandleFunc("GET /jobs", jobHandler.HandleList)
		api.HandleFunc("GET /jobs/{id}", jobHandler.HandleGet)

		protected := func(fn http.HandlerFunc) http.Handler {
			return RequireAuth(auth, fn)
		}
		api.Handle("POST /jobs", protected(jobHandler.HandleCreate))
		api.Handle("POST /apply/{jobId}", protected(appHandler.HandleApply))
		api.Handle("GET /my-applications", protected(appHandler.HandleMine))
		api.Handle("GET /me", protected(authHandler.HandleMe))
	})

	return router
}

func loginLimiter(perSecond float64) *limiter.Limiter {
	lmt := tollbooth.NewLimiter(perSecond, nil)
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
	lmt.SetMessageContentType("application/json")
	lmt.SetMessage(`{"error":"Too many login attempts. Please try again later."}`)
	return lmt
}
