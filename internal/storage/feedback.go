package storage

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/s/ecourse/internal/models"
)

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	return translate("create comment", s.with(ctx).Omit(clause.Associations).Create(c).Error)
}

// ListLessonComments returns a lesson's comments, newest first.
func (s *Store) ListLessonComments(ctx context.Context, lessonID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.with(ctx).Where("lesson_id = ?", lessonID).Order("id desc").Find(&comments).Error
	return comments, translate("list comments", err)
}

func (s *Store) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.with(ctx).First(&comment, id).Error; err != nil {
		return nil, translate("get comment", err)
	}
	return &comment, nil
}

// UpdateCommentContent replaces the content of c and refreshes its timestamps.
func (s *Store) UpdateCommentContent(ctx context.Context, c *models.Comment, content string) error {
	if err := s.with(ctx).Model(c).Update("content", content).Error; err != nil {
		return translate("update comment", err)
	}
	c.Content = content
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	res := s.with(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return translate("delete comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete comment", ErrNotFound)
	}
	return nil
}

// SaveAction records a reaction. A second reaction by the same user on the
// same lesson replaces the first; the returned row is the stored one.
func (s *Store) SaveAction(ctx context.Context, a *models.Action) error {
	err := s.with(ctx).Omit(clause.Associations).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "lesson_id"}, {Name: "creator_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "updated_date"}),
		},
		clause.Returning{},
	).Create(a).Error
	return translate("save action", err)
}

// SaveRating upserts the (lesson, creator) rating in a single statement so
// concurrent requests cannot produce two rows.
func (s *Store) SaveRating(ctx context.Context, r *models.Rating) error {
	err := s.with(ctx).Omit(clause.Associations).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "lesson_id"}, {Name: "creator_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_date"}),
		},
		clause.Returning{},
	).Create(r).Error
	return translate("save rating", err)
}

// UserRatings returns the user's rate per lesson id for the given lessons.
func (s *Store) UserRatings(ctx context.Context, userID uint, lessonIDs []uint) (map[uint]int, error) {
	rates := make(map[uint]int, len(lessonIDs))
	if len(lessonIDs) == 0 {
		return rates, nil
	}

	var ratings []models.Rating
	err := s.with(ctx).
		Where("creator_id = ? AND lesson_id IN ?", userID, lessonIDs).
		Find(&ratings).Error
	if err != nil {
		return nil, translate("user ratings", err)
	}

	for _, r := range ratings {
		rates[r.LessonID] = r.Rate
	}
	return rates, nil
}
