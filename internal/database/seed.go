package database

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/s/ecourse/internal/models"
)

// Catalog is the YAML fixture used to populate categories, courses and lessons.
type Catalog struct {
	Categories []CategorySeed `yaml:"categories"`
}

type CategorySeed struct {
	Name    string       `yaml:"name"`
	Courses []CourseSeed `yaml:"courses"`
}

type CourseSeed struct {
	Subject     string       `yaml:"subject"`
	Description string       `yaml:"description"`
	Image       string       `yaml:"image"`
	Active      *bool        `yaml:"active"`
	Lessons     []LessonSeed `yaml:"lessons"`
}

type LessonSeed struct {
	Subject string   `yaml:"subject"`
	Content string   `yaml:"content"`
	Image   string   `yaml:"image"`
	Active  *bool    `yaml:"active"`
	Tags    []string `yaml:"tags"`
}

// LoadCatalog reads and validates a catalog fixture.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for i, cat := range catalog.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return nil, fmt.Errorf("category #%d: name is required", i+1)
		}
		for j, course := range cat.Courses {
			if strings.TrimSpace(course.Subject) == "" {
				return nil, fmt.Errorf("category %q course #%d: subject is required", cat.Name, j+1)
			}
			for k, lesson := range course.Lessons {
				if strings.TrimSpace(lesson.Subject) == "" {
					return nil, fmt.Errorf("course %q lesson #%d: subject is required", course.Subject, k+1)
				}
			}
		}
	}

	return &catalog, nil
}

// Seed loads the catalog. Rows that already exist are matched by their
// natural keys and left as they are, so seeding twice is harmless.
func Seed(db *gorm.DB, catalog *Catalog) error {
	if catalog == nil {
		return errors.New("nil catalog")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, cs := range catalog.Categories {
			var category models.Category
			if err := tx.Where(models.Category{Name: cs.Name}).FirstOrCreate(&category).Error; err != nil {
				return fmt.Errorf("category %q: %w", cs.Name, err)
			}

			for _, crs := range cs.Courses {
				course := models.Course{}
				err := tx.Where(models.Course{Subject: crs.Subject, CategoryID: &category.ID}).
					Attrs(models.Course{
						Description: crs.Description,
						Image:       crs.Image,
						Active:      isActive(crs.Active),
					}).
					FirstOrCreate(&course).Error
				if err != nil {
					return fmt.Errorf("course %q: %w", crs.Subject, err)
				}

				for _, ls := range crs.Lessons {
					if err := seedLesson(tx, course.ID, ls); err != nil {
						return fmt.Errorf("lesson %q: %w", ls.Subject, err)
					}
				}
			}
		}
		return nil
	})
}

func seedLesson(tx *gorm.DB, courseID uint, ls LessonSeed) error {
	lesson := models.Lesson{}
	err := tx.Where(models.Lesson{Subject: ls.Subject, CourseID: &courseID}).
		Attrs(models.Lesson{
			Content: ls.Content,
			Image:   ls.Image,
			Active:  isActive(ls.Active),
		}).
		FirstOrCreate(&lesson).Error
	if err != nil {
		return err
	}

	if len(ls.Tags) == 0 {
		return nil
	}

	tags := make([]models.Tag, 0, len(ls.Tags))
	for _, name := range ls.Tags {
		tag := models.Tag{Name: name}
		if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return err
		}
		tags = append(tags, tag)
	}
	return tx.Model(&lesson).Association("Tags").Append(tags)
}

func isActive(v *bool) bool {
	return v == nil || *v
}
