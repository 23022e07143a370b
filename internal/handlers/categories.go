package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RedDeadth/Typeimp-Repository/internal/domain"
	"github.com/RedDeadth/Typeimp-Repository/internal/service/category"
	"github.com/RedDeadth/Typeimp-Repository/internal/service/note"
	"github.com/RedDeadth/Typeimp-Repository/pkg/api"
)

// CategoryHandler serves /categories.
type CategoryHandler struct {
	service category.Service
	notes   note.Service
	errors  ErrorWriter
}

// NewCategoryHandler creates a CategoryHandler. notes backs the per-category
// note listing.
func NewCategoryHandler(service category.Service, notes note.Service, errors ErrorWriter) *CategoryHandler {
	return &CategoryHandler{service: service, notes: notes, errors: errors}
}

// List handles GET /categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	categories, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.OK("categories", categories))
}

// Get handles GET /categories/{id}.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	c, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.OK("category", c))
}

// Notes handles GET /categories/{id}/notes.
func (h *CategoryHandler) Notes(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	notes, err := h.notes.ListByCategory(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.OK("notes", notes))
}

// Create handles POST /categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	var in category.CreateInput
	if err := decode(r, &in); err != nil {
		h.errors.Write(w, r, err)
		return
	}

	c, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	api.Success(w, http.StatusCreated, api.OK("message", "Category created successfully", "category", c))
}

// Update handles PUT /categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	var patch domain.CategoryPatch
	if err := decode(r, &patch); err != nil {
		h.errors.Write(w, r, err)
		return
	}

	c, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.OK("message", "Category updated successfully", "category", c))
}

// Delete handles DELETE /categories/{id}, removing the category's notes too.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	result, err := h.service.DeleteCascade(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	message := "Category and associated notes deleted successfully."
	if len(result.Failures) > 0 {
		message = "Category deleted; some associated notes could not be deleted."
	}
	api.Success(w, http.StatusOK, api.OK(
		"message", message,
		"notesMatched", result.NotesMatched,
		"notesDeleted", result.NotesDeleted,
		"notesFailed", result.FailedNoteIDs(),
	))
}
