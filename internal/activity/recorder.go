package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/s/ecourse/internal/messaging"
	"github.com/s/ecourse/internal/models"
)

// Event is what gets published for every recorded activity.
type Event struct {
	Action    string         `json:"action"`
	UserID    uint           `json:"user_id"`
	LessonID  uint           `json:"lesson_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Recorder writes activity rows and publishes them as events. Failures are
// logged and never returned.
type Recorder struct {
	db     *gorm.DB
	events messaging.Publisher
	log    *slog.Logger
}

func NewRecorder(db *gorm.DB, events messaging.Publisher, log *slog.Logger) *Recorder {
	if events == nil {
		events = messaging.Discard{}
	}
	return &Recorder{db: db, events: events, log: log}
}

func (r *Recorder) Record(ctx context.Context, action string, userID, lessonID uint, details map[string]any) {
	ev := Event{
		Action:    action,
		UserID:    userID,
		LessonID:  lessonID,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}

	entry := models.ActivityLog{
		Action:    action,
		UserID:    optional(userID),
		LessonID:  optional(lessonID),
		CreatedAt: ev.CreatedAt,
	}
	if len(details) > 0 {
		data, err := json.Marshal(details)
		if err != nil {
			r.log.Error("failed to encode activity details", "action", action, "error", err)
		} else {
			entry.Details = datatypes.JSON(data)
		}
	}

	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		r.log.Error("failed to record activity", "action", action, "user_id", userID, "error", err)
	}
	if err := r.events.Publish(action, ev); err != nil {
		r.log.Warn("failed to publish event", "action", action, "error", err)
	}
}

func optional(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
