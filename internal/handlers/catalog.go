package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/s/ecourse/internal/cache"
	"github.com/s/ecourse/internal/serializers"
	"github.com/s/ecourse/internal/storage"
)

// GET /categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	var cached []serializers.Category
	hit, err := h.Cache.GetJSON(r.Context(), cache.CategoriesKey, &cached)
	if err != nil {
		h.Log.Warn("category cache read failed", "error", err)
	}
	if hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	categories, err := h.Store.ListCategories(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	out := serializers.NewCategories(categories)
	if err := h.Cache.SetJSON(r.Context(), cache.CategoriesKey, out, h.CategoryTTL); err != nil {
		h.Log.Warn("category cache write failed", "error", err)
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /courses?q=&category_id=
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := storage.CourseFilter{Query: query.Get("q")}

	if raw, ok := query["category_id"]; ok && len(raw) > 0 && raw[0] != "" {
		id, err := strconv.ParseUint(strings.TrimSpace(raw[0]), 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "category_id must be an integer")
			return
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}

	courses, err := h.Store.ListCourses(r.Context(), filter)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, serializers.NewCourses(h.urls(r), courses))
}

// GET /courses/{id}/lessons?kw=
func (h *Handler) ListCourseLessons(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "not found")
		return
	}

	lessons, err := h.Store.ListCourseLessons(r.Context(), id, r.URL.Query().Get("kw"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, serializers.NewLessons(h.urls(r), lessons))
}
