package handlers

import (
	"net/http"
	"strings"

	"github.com/s/ecourse/internal/middleware"
	"github.com/s/ecourse/internal/models"
	"github.com/s/ecourse/internal/serializers"
)

// POST /lessons/{id}/add-comment
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	body, err := readPayload(w, r)
	if err != nil {
		payloadError(w, err)
		return
	}
	content, _ := body.String("content")
	if strings.TrimSpace(content) == "" {
		jsonError(w, http.StatusBadRequest, "content: this field is required")
		return
	}

	lesson, ok := h.loadLesson(w, r)
	if !ok {
		return
	}

	comment := models.Comment{
		Content:   content,
		LessonID:  lesson.ID,
		CreatorID: user.ID,
	}
	if err := h.Store.CreateComment(r.Context(), &comment); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.Activity.Record(r.Context(), models.ActivityCommentCreated, user.ID, lesson.ID, map[string]any{"comment_id": comment.ID})
	writeJSON(w, http.StatusCreated, serializers.NewComment(comment))
}

// GET /lessons/{id}/comments
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	lesson, ok := h.loadLesson(w, r)
	if !ok {
		return
	}

	comments, err := h.Store.ListLessonComments(r.Context(), lesson.ID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, serializers.NewComments(comments))
}

// POST /lessons/{id}/like {"type": 0|1|2}
func (h *Handler) TakeAction(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	body, err := readPayload(w, r)
	if err != nil {
		payloadError(w, err)
		return
	}
	n, err := body.Int("type")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "type: "+err.Error())
		return
	}
	actionType := models.ActionType(n)
	if !actionType.Valid() {
		jsonError(w, http.StatusBadRequest, "type: must be 0 (like), 1 (dislike) or 2 (love)")
		return
	}

	lesson, ok := h.loadLesson(w, r)
	if !ok {
		return
	}

	action := models.Action{Type: actionType, LessonID: lesson.ID, CreatorID: user.ID}
	if err := h.Store.SaveAction(r.Context(), &action); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.Activity.Record(r.Context(), models.ActivityLessonAction, user.ID, lesson.ID, map[string]any{"type": actionType.String()})
	writeJSON(w, http.StatusOK, serializers.NewAction(action))
}

// POST /lessons/{id}/rating {"rating": 4}
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	body, err := readPayload(w, r)
	if err != nil {
		payloadError(w, err)
		return
	}
	rate, err := body.Int("rating")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "rating: "+err.Error())
		return
	}
	if rate < 0 {
		jsonError(w, http.StatusBadRequest, "rating: must not be negative")
		return
	}

	lesson, ok := h.loadLesson(w, r)
	if !ok {
		return
	}

	rating := models.Rating{Rate: rate, LessonID: lesson.ID, CreatorID: user.ID}
	if err := h.Store.SaveRating(r.Context(), &rating); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.Activity.Record(r.Context(), models.ActivityLessonRated, user.ID, lesson.ID, map[string]any{"rate": rating.Rate})
	writeJSON(w, http.StatusOK, serializers.NewRating(rating))
}

// PATCH /comments/{id}
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.ownComment(w, r)
	if !ok {
		return
	}

	body, err := readPayload(w, r)
	if err != nil {
		payloadError(w, err)
		return
	}
	if body.has("content") {
		content, _ := body.String("content")
		if strings.TrimSpace(content) == "" {
			jsonError(w, http.StatusBadRequest, "content: may not be blank")
			return
		}
		if err := h.Store.UpdateCommentContent(r.Context(), comment, content); err != nil {
			h.storeError(w, r, err)
			return
		}
		h.Activity.Record(r.Context(), models.ActivityCommentUpdated, comment.CreatorID, comment.LessonID, map[string]any{"comment_id": comment.ID})
	}

	writeJSON(w, http.StatusOK, serializers.NewComment(*comment))
}

// DELETE /comments/{id}
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.ownComment(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteComment(r.Context(), comment.ID); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.Activity.Record(r.Context(), models.ActivityCommentDeleted, comment.CreatorID, comment.LessonID, map[string]any{"comment_id": comment.ID})
	w.WriteHeader(http.StatusNoContent)
}

// ownComment loads the comment and checks the caller created it.
func (h *Handler) ownComment(w http.ResponseWriter, r *http.Request) (*models.Comment, bool) {
	user, _ := middleware.UserFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "not found")
		return nil, false
	}

	comment, err := h.Store.GetComment(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return nil, false
	}
	if comment.CreatorID != user.ID {
		jsonError(w, http.StatusForbidden, "you do not have permission to perform this action")
		return nil, false
	}
	return comment, true
}
