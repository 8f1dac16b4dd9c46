package handlers

import (
	"net/http"

	"todolist/internal/models"
	"todolist/internal/store"
)

// HomeData holds data for the index page template.
type HomeData struct {
	Title       string
	ShowHistory bool
	Tasks       []models.Task
	Completed   []models.CompletedTask
	Deleted     []models.DeletedTask
}

// Home renders the task list. Under the history policy the completed and
// deleted records are shown below the open tasks.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	listing, err := h.tasks.ListTasks(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	data := HomeData{
		Title:       "Todo List",
		ShowHistory: listing.Policy == store.PolicyHistory,
		Tasks:       listing.Active,
		Completed:   listing.Completed,
		Deleted:     listing.Deleted,
	}

	h.render(w, "index.html", data)
}

// Health reports whether the store is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Ping(r.Context()); err != nil {
		h.log.WithError(err).Warn("health check failed")
		respondError(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	respondError(w, http.StatusOK, "ok")
}
