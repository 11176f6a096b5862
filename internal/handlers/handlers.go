package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"github.com/s/ecourse/internal/auth"
	"github.com/s/ecourse/internal/cache"
	"github.com/s/ecourse/internal/config"
	"github.com/s/ecourse/internal/media"
	"github.com/s/ecourse/internal/middleware"
	"github.com/s/ecourse/internal/models"
	"github.com/s/ecourse/internal/serializers"
	"github.com/s/ecourse/internal/storage"
)

// Store is the persistence the handlers need.
type Store interface {
	Ping(ctx context.Context) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	ListCourses(ctx context.Context, f storage.CourseFilter) ([]models.Course, error)
	ListCourseLessons(ctx context.Context, courseID uint, keyword string) ([]models.Lesson, error)
	ListLessons(ctx context.Context) ([]models.Lesson, error)
	GetLesson(ctx context.Context, id uint) (*models.Lesson, error)
	AddLessonTags(ctx context.Context, lessonID uint, names []string) (*models.Lesson, error)

	CreateComment(ctx context.Context, c *models.Comment) error
	ListLessonComments(ctx context.Context, lessonID uint) ([]models.Comment, error)
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	UpdateCommentContent(ctx context.Context, c *models.Comment, content string) error
	DeleteComment(ctx context.Context, id uint) error
	SaveAction(ctx context.Context, a *models.Action) error
	SaveRating(ctx context.Context, r *models.Rating) error
	UserRatings(ctx context.Context, userID uint, lessonIDs []uint) (map[uint]int, error)

	ListUsers(ctx context.Context) ([]models.User, error)
	GetActiveUser(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User, updates map[string]any) error
}

// ActivityRecorder keeps the history of user actions on lessons.
type ActivityRecorder interface {
	Record(ctx context.Context, action string, userID, lessonID uint, details map[string]any)
}

type Handler struct {
	Store     Store
	Sessions  sessions.Store
	OAuth     *oauth2.Config
	OAuthInfo map[string]any

	Media       media.Store
	Cache       cache.Cache
	CategoryTTL time.Duration
	Activity    ActivityRecorder
	Log         *slog.Logger
}

// NewHandler wires the required dependencies. Media, Cache and Activity start
// out disabled and may be replaced before serving.
func NewHandler(store Store, sessionStore sessions.Store, oauthCfg config.OAuth2, log *slog.Logger) *Handler {
	return &Handler{
		Store:       store,
		Sessions:    sessionStore,
		OAuth:       auth.NewOAuthConfig(oauthCfg),
		OAuthInfo:   auth.Info(oauthCfg),
		Media:       media.Disabled{},
		Cache:       cache.Nop{},
		CategoryTTL: 5 * time.Minute,
		Activity:    noActivity{},
		Log:         log,
	}
}

type noActivity struct{}

func (noActivity) Record(context.Context, string, uint, uint, map[string]any) {}

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		h.Log.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) urls(r *http.Request) serializers.URLBuilder {
	var public func(string) string
	if h.Media.Enabled() {
		public = h.Media.PublicURL
	}
	return serializers.FromRequest(r, public)
}

// rates returns the caller's ratings for the lessons; anonymous callers get
// an empty map.
func (h *Handler) rates(r *http.Request, lessons ...models.Lesson) (map[uint]int, error) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok || len(lessons) == 0 {
		return map[uint]int{}, nil
	}
	ids := make([]uint, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	return h.Store.UserRatings(r.Context(), user.ID, ids)
}

func (h *Handler) lessonDetail(r *http.Request, lesson *models.Lesson) (serializers.LessonDetail, error) {
	rates, err := h.rates(r, *lesson)
	if err != nil {
		return serializers.LessonDetail{}, err
	}
	return serializers.NewLessonDetails(h.urls(r), []models.Lesson{*lesson}, rates)[0], nil
}

// storeError maps storage failures onto responses.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrConflict):
		jsonError(w, http.StatusBadRequest, "already exists")
	case errors.Is(err, context.Canceled):
		h.Log.Debug("request canceled", "path", r.URL.Path)
	default:
		h.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
	}
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	middleware.WriteError(w, status, message)
}
