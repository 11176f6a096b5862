package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/s/ecourse/internal/middleware"
	"github.com/s/ecourse/internal/models"
	"github.com/s/ecourse/internal/serializers"
)

const maxTagLength = 50

// GET /lessons
func (h *Handler) ListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.Store.ListLessons(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	rates, err := h.rates(r, lessons...)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, serializers.NewLessonDetails(h.urls(r), lessons, rates))
}

// GET /lessons/{id}
func (h *Handler) GetLesson(w http.ResponseWriter, r *http.Request) {
	lesson, ok := h.loadLesson(w, r)
	if !ok {
		return
	}

	detail, err := h.lessonDetail(r, lesson)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// POST /lessons/{id}/tags {"tag": ["python", "basics"]}
func (h *Handler) AddLessonTags(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "not found")
		return
	}

	body, err := readPayload(w, r)
	if err != nil {
		payloadError(w, err)
		return
	}

	names, msg := tagNames(body)
	if msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	lesson, err := h.Store.AddLessonTags(r.Context(), id, names)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	var userID uint
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		userID = user.ID
	}
	h.Activity.Record(r.Context(), models.ActivityLessonTagged, userID, lesson.ID, map[string]any{"tags": names})

	detail, err := h.lessonDetail(r, lesson)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// tagNames validates the tag list and drops duplicates, keeping order.
func tagNames(body payload) ([]string, string) {
	raw, ok := body.Strings("tag")
	if !ok {
		if body.has("tag") {
			return nil, "tag must be a list of names"
		}
		return nil, "tag: this field is required"
	}
	if len(raw) == 0 {
		return nil, "tag: at least one name is required"
	}

	seen := make(map[string]bool, len(raw))
	names := make([]string, 0, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, "tag: names may not be blank"
		}
		if utf8.RuneCountInString(name) > maxTagLength {
			return nil, "tag: names may not be longer than 50 characters"
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, ""
}

// loadLesson writes the error response itself when the lesson is unavailable.
func (h *Handler) loadLesson(w http.ResponseWriter, r *http.Request) (*models.Lesson, bool) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "not found")
		return nil, false
	}

	lesson, err := h.Store.GetLesson(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return nil, false
	}
	return lesson, true
}
