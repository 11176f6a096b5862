package storage

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/s/ecourse/internal/models"
)

// CourseFilter narrows the course listing. Zero values mean "no filter".
type CourseFilter struct {
	Query      string
	CategoryID *uint
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.with(ctx).Order("id").Find(&categories).Error
	return categories, translate("list categories", err)
}

// ListCourses returns active courses matching the filter.
func (s *Store) ListCourses(ctx context.Context, f CourseFilter) ([]models.Course, error) {
	q := s.with(ctx).Where("active = ?", true)
	if f.Query != "" {
		q = q.Where("subject ILIKE ?", containsPattern(f.Query))
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}

	var courses []models.Course
	err := q.Order("id").Find(&courses).Error
	return courses, translate("list courses", err)
}

// GetCourse returns an active course.
func (s *Store) GetCourse(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := s.with(ctx).Where("active = ?", true).First(&course, id).Error; err != nil {
		return nil, translate("get course", err)
	}
	return &course, nil
}

// ListCourseLessons returns the active lessons of an active course, optionally
// filtered by a case-insensitive keyword on the subject.
func (s *Store) ListCourseLessons(ctx context.Context, courseID uint, keyword string) ([]models.Lesson, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}

	q := s.with(ctx).Where("course_id = ? AND active = ?", courseID, true)
	if keyword != "" {
		q = q.Where("subject ILIKE ?", containsPattern(keyword))
	}

	var lessons []models.Lesson
	err := q.Order("id").Find(&lessons).Error
	return lessons, translate("list course lessons", err)
}

// ListLessons returns every active lesson with its tags.
func (s *Store) ListLessons(ctx context.Context) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := s.with(ctx).Preload("Tags").Where("active = ?", true).Order("id").Find(&lessons).Error
	return lessons, translate("list lessons", err)
}

// GetLesson returns an active lesson with its tags.
func (s *Store) GetLesson(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := s.with(ctx).Preload("Tags").Where("active = ?", true).First(&lesson, id).Error; err != nil {
		return nil, translate("get lesson", err)
	}
	return &lesson, nil
}

// AddLessonTags attaches the named tags to a lesson, creating missing tags.
// Attaching a tag twice leaves a single association.
func (s *Store) AddLessonTags(ctx context.Context, lessonID uint, names []string) (*models.Lesson, error) {
	var lesson models.Lesson

	err := s.with(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("active = ?", true).First(&lesson, lessonID).Error; err != nil {
			return err
		}

		tags := make([]models.Tag, 0, len(names))
		for _, name := range names {
			tag, err := getOrCreateTag(tx, name)
			if err != nil {
				return err
			}
			tags = append(tags, tag)
		}

		if err := tx.Model(&lesson).Association("Tags").Append(tags); err != nil {
			return err
		}

		return tx.Preload("Tags").First(&lesson, lesson.ID).Error
	})
	if err != nil {
		return nil, translate("add lesson tags", err)
	}

	return &lesson, nil
}

func getOrCreateTag(tx *gorm.DB, name string) (models.Tag, error) {
	tag := models.Tag{Name: name}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&tag).Error
	if err != nil {
		return tag, err
	}

	if tag.ID == 0 {
		// Row already existed; ON CONFLICT DO NOTHING returns nothing.
		err = tx.Where("name = ?", name).First(&tag).Error
	}
	return tag, err
}

// containsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// metacharacters in s taken literally.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
