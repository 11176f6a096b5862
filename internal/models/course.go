package models

import (
	"time"
)

// Category groups courses.
type Category struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`

	Courses []Course `json:"-"`
}

// Course (subject, category) is unique.
type Course struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Subject     string    `gorm:"size:255;not null;uniqueIndex:idx_course_subject_category" json:"subject"`
	Image       string    `gorm:"size:255" json:"image"`
	Active      bool      `gorm:"not null;index" json:"active"`
	CreatedDate time.Time `gorm:"autoCreateTime" json:"created_date"`
	UpdatedDate time.Time `gorm:"autoUpdateTime" json:"updated_date"`
	Description string    `gorm:"type:text" json:"description"`

	CategoryID *uint     `gorm:"uniqueIndex:idx_course_subject_category" json:"category_id"`
	Category   *Category `json:"-" gorm:"constraint:OnDelete:SET NULL;"`

	Lessons []Lesson `json:"-"`
}

// Lesson (subject, course) is unique.
type Lesson struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Subject     string    `gorm:"size:255;not null;uniqueIndex:idx_lesson_subject_course" json:"subject"`
	Image       string    `gorm:"size:255" json:"image"`
	Active      bool      `gorm:"not null;index" json:"active"`
	CreatedDate time.Time `gorm:"autoCreateTime" json:"created_date"`
	UpdatedDate time.Time `gorm:"autoUpdateTime" json:"updated_date"`
	Content     string    `gorm:"type:text" json:"content"`

	CourseID *uint   `gorm:"uniqueIndex:idx_lesson_subject_course" json:"course_id"`
	Course   *Course `json:"-" gorm:"constraint:OnDelete:SET NULL;"`

	Tags []Tag `json:"tags" gorm:"many2many:lesson_tags;"`
}

// Tag names are unique so that get-or-create is safe under concurrency.
type Tag struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:50;not null;uniqueIndex" json:"name"`
}
