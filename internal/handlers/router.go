package handlers

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions holds the optional pieces mounted next to the task routes.
type RouterOptions struct {
	// Static is served under /static/ when set.
	Static fs.FS
	// Metrics is served under /metrics when set.
	Metrics http.Handler
	// Logger receives one line per request. Defaults to chi's logger.
	Logger middleware.LoggerInterface
}

// NewRouter wires the handlers into a chi router.
func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Middleware
	if opts.Logger != nil {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: opts.Logger, NoColor: true}))
	} else {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Static files
	if opts.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(opts.Static))))
	}

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}
	r.Get("/healthz", h.Health)

	// Task routes
	r.Get("/", h.Home)
	r.Post("/add", h.AddTask)
	r.Get("/complete/{id}", h.CompleteTask)
	r.Get("/delete/{id}", h.DeleteTask)

	return r
}
