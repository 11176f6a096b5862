package models

import (
	"time"
)

// Comment on a lesson. Listed newest first.
type Comment struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedDate time.Time `gorm:"autoCreateTime" json:"created_date"`
	UpdatedDate time.Time `gorm:"autoUpdateTime" json:"updated_date"`

	LessonID  uint `gorm:"not null;index" json:"lesson_id"`
	CreatorID uint `gorm:"not null;index" json:"creator_id"`

	Lesson  Lesson `json:"-" gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE;"`
	Creator User   `json:"-" gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE;"`
}

// ActionType is the kind of reaction a user leaves on a lesson.
type ActionType int16

const (
	ActionLike ActionType = iota
	ActionDislike
	ActionLove
)

// Valid reports whether t is one of the known reactions.
func (t ActionType) Valid() bool {
	return t >= ActionLike && t <= ActionLove
}

func (t ActionType) String() string {
	switch t {
	case ActionLike:
		return "Like"
	case ActionDislike:
		return "Dislike"
	case ActionLove:
		return "Love"
	default:
		return "Unknown"
	}
}

// Action is a reaction; one per (lesson, creator).
type Action struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Type        ActionType `gorm:"not null" json:"type"`
	CreatedDate time.Time  `gorm:"autoCreateTime" json:"created_date"`
	UpdatedDate time.Time  `gorm:"autoUpdateTime" json:"updated_date"`

	LessonID  uint `gorm:"not null;uniqueIndex:idx_action_lesson_creator" json:"lesson_id"`
	CreatorID uint `gorm:"not null;uniqueIndex:idx_action_lesson_creator" json:"creator_id"`

	Lesson  Lesson `json:"-" gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE;"`
	Creator User   `json:"-" gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE;"`
}

// Rating of a lesson; one per (lesson, creator), overwritten on repeat.
type Rating struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Rate        int       `gorm:"not null" json:"rate"`
	CreatedDate time.Time `gorm:"autoCreateTime" json:"created_date"`
	UpdatedDate time.Time `gorm:"autoUpdateTime" json:"updated_date"`

	LessonID  uint `gorm:"not null;uniqueIndex:idx_rating_lesson_creator" json:"lesson_id"`
	CreatorID uint `gorm:"not null;uniqueIndex:idx_rating_lesson_creator" json:"creator_id"`

	Lesson  Lesson `json:"-" gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE;"`
	Creator User   `json:"-" gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE;"`
}
