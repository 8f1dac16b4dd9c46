package handlers

import (
	"net/http"
)

// AddTask creates a task from the "todo" form field and redirects home.
func (h *Handlers) AddTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	if _, err := h.tasks.CreateTask(r.Context(), r.PostFormValue("todo")); err != nil {
		h.respondServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// CompleteTask completes a task and redirects home.
func (h *Handlers) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := h.tasks.CompleteTask(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// DeleteTask deletes a task and redirects home.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}
