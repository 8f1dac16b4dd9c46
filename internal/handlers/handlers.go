package handlers

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"todolist/internal/models"
	"todolist/internal/service"
)

// TaskService is the set of task operations the handlers call into.
type TaskService interface {
	ListTasks(ctx context.Context) (*service.Listing, error)
	CreateTask(ctx context.Context, content string) (*models.Task, error)
	CompleteTask(ctx context.Context, id int64) error
	DeleteTask(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	tasks     TaskService
	templates *template.Template
	log       logrus.FieldLogger
}

// New creates a new Handlers instance.
func New(tasks TaskService, tmpl *template.Template, log logrus.FieldLogger) *Handlers {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handlers{
		tasks:     tasks,
		templates: tmpl,
		log:       log,
	}
}

// parseID extracts and parses an integer ID from URL parameters.
func parseID(r *http.Request, param string) (int64, error) {
	idStr := chi.URLParam(r, param)
	return strconv.ParseInt(idStr, 10, 64)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(message))
}

func (h *Handlers) respondServerError(w http.ResponseWriter, err error) {
	h.log.WithError(err).Error("internal server error")
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// respondServiceError maps task service errors to HTTP status codes.
func (h *Handlers) respondServiceError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, "task not found")
	default:
		h.respondServerError(w, err)
	}
}

func (h *Handlers) render(w http.ResponseWriter, name string, data interface{}) {
	if h.templates == nil {
		// For testing without templates
		w.WriteHeader(http.StatusOK)
		return
	}

	// Render fully before writing so a failed template still yields a 500.
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.respondServerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
