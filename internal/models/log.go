package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity names stored in ActivityLog.Action and used as event subjects.
const (
	ActivityCommentCreated = "comment.created"
	ActivityCommentUpdated = "comment.updated"
	ActivityCommentDeleted = "comment.deleted"
	ActivityLessonAction   = "lesson.action"
	ActivityLessonRated    = "lesson.rated"
	ActivityLessonTagged   = "lesson.tagged"
)

// ActivityLog keeps the history of what users did to lessons.
type ActivityLog struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UserID    *uint          `gorm:"index" json:"user_id"`
	LessonID  *uint          `gorm:"index" json:"lesson_id"`
	Action    string         `gorm:"size:64;not null" json:"action"`
	Details   datatypes.JSON `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}
