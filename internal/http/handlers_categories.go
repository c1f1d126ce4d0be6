package http

import (
	"net/http"

	"dinero/internal/core"
	"dinero/internal/services"
)

type categoryPayload struct {
	Name     string   `json:"name"`
	Icon     string   `json:"icon"`
	Color    string   `json:"color"`
	Type     string   `json:"type"`
	Keywords []string `json:"keywords"`
}

type categoryUpdatePayload struct {
	Name     *string   `json:"name"`
	Icon     *string   `json:"icon"`
	Color    *string   `json:"color"`
	Keywords *[]string `json:"keywords"`
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var p categoryPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	category, err := h.Categories.Create(r.Context(), services.CreateCategoryRequest{
		UserID:   userID(r),
		Name:     p.Name,
		Icon:     p.Icon,
		Color:    p.Color,
		Type:     core.CategoryType(p.Type),
		Keywords: p.Keywords,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	category, err := h.Categories.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// ListCategories filters by ?type=EXPENSE|INCOME when given.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	typ := core.CategoryType(r.URL.Query().Get("type"))
	categories, err := h.Categories.List(r.Context(), userID(r), typ)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p categoryUpdatePayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	category, err := h.Categories.Update(r.Context(), services.UpdateCategoryRequest{
		UserID:   userID(r),
		ID:       id,
		Name:     p.Name,
		Icon:     p.Icon,
		Color:    p.Color,
		Keywords: p.Keywords,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Categories.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SeedDefaultCategories provisions the stock category set for a new user.
func (h *Handler) SeedDefaultCategories(w http.ResponseWriter, r *http.Request) {
	if err := h.Categories.SeedDefaults(r.Context(), userID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
