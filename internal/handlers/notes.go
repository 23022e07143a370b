package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RedDeadth/Typeimp-Repository/internal/domain"
	"github.com/RedDeadth/Typeimp-Repository/internal/service/note"
	"github.com/RedDeadth/Typeimp-Repository/pkg/api"
)

// NoteHandler serves /notes.
type NoteHandler struct {
	service note.Service
	errors  ErrorWriter
}

// NewNoteHandler creates a NoteHandler.
func NewNoteHandler(service note.Service, errors ErrorWriter) *NoteHandler {
	return &NoteHandler{service: service, errors: errors}
}

// List handles GET /notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	notes, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.OK("notes", notes))
}

// Get handles GET /notes/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	n, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.OK("note", n))
}

// Create handles POST /notes.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	var in note.CreateInput
	if err := decode(r, &in); err != nil {
		h.errors.Write(w, r, err)
		return
	}

	n, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	api.Success(w, http.StatusCreated, api.OK("message", "Note created successfully", "note", n))
}

// Update handles PUT /notes/{id}.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	var patch domain.NotePatch
	if err := decode(r, &patch); err != nil {
		h.errors.Write(w, r, err)
		return
	}

	n, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.OK("message", "Note updated successfully", "note", n))
}

// Delete handles DELETE /notes/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.OK("message", "Note deleted successfully."))
}
