package serializers

import (
	"time"

	"github.com/s/ecourse/internal/models"
)

type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Course struct {
	ID          uint      `json:"id"`
	Subject     string    `json:"subject"`
	Image       *string   `json:"image"`
	CreatedDate time.Time `json:"created_date"`
	Category    *uint     `json:"category"`
}

type Lesson struct {
	ID          uint      `json:"id"`
	Subject     string    `json:"subject"`
	Image       *string   `json:"image"`
	CreatedDate time.Time `json:"created_date"`
	UpdatedDate time.Time `json:"updated_date"`
	Course      *uint     `json:"course"`
}

type Tag struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// LessonDetail carries the tags and the caller's own rating, -1 when the
// caller is anonymous or has not rated the lesson.
type LessonDetail struct {
	Lesson
	Content string `json:"content"`
	Tags    []Tag  `json:"tag"`
	Rate    int    `json:"rate"`
}

type User struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Avatar     *string   `json:"avatar"`
	DateJoined time.Time `json:"date_joined"`
}

type Comment struct {
	ID          uint      `json:"id"`
	Content     string    `json:"content"`
	Creator     uint      `json:"creator"`
	CreatedDate time.Time `json:"created_date"`
	UpdatedDate time.Time `json:"updated_date"`
}

type Action struct {
	ID          uint              `json:"id"`
	Type        models.ActionType `json:"type"`
	CreatedDate time.Time         `json:"created_date"`
}

type Rating struct {
	ID          uint      `json:"id"`
	Rate        int       `json:"rate"`
	CreatedDate time.Time `json:"created_date"`
}

// NoRating is reported as the rate of a lesson the caller has not rated.
const NoRating = -1

func NewCategories(categories []models.Category) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, Category{ID: c.ID, Name: c.Name})
	}
	return out
}

func NewCourse(urls URLBuilder, c models.Course) Course {
	return Course{
		ID:          c.ID,
		Subject:     c.Subject,
		Image:       urls.Image(c.Image),
		CreatedDate: c.CreatedDate,
		Category:    c.CategoryID,
	}
}

func NewCourses(urls URLBuilder, courses []models.Course) []Course {
	out := make([]Course, 0, len(courses))
	for _, c := range courses {
		out = append(out, NewCourse(urls, c))
	}
	return out
}

func NewLesson(urls URLBuilder, l models.Lesson) Lesson {
	return Lesson{
		ID:          l.ID,
		Subject:     l.Subject,
		Image:       urls.Image(l.Image),
		CreatedDate: l.CreatedDate,
		UpdatedDate: l.UpdatedDate,
		Course:      l.CourseID,
	}
}

func NewLessons(urls URLBuilder, lessons []models.Lesson) []Lesson {
	out := make([]Lesson, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, NewLesson(urls, l))
	}
	return out
}

func NewLessonDetail(urls URLBuilder, l models.Lesson, rate int) LessonDetail {
	tags := make([]Tag, 0, len(l.Tags))
	for _, t := range l.Tags {
		tags = append(tags, Tag{ID: t.ID, Name: t.Name})
	}
	return LessonDetail{
		Lesson:  NewLesson(urls, l),
		Content: l.Content,
		Tags:    tags,
		Rate:    rate,
	}
}

// NewLessonDetails looks each lesson's rate up in rates, falling back to
// NoRating.
func NewLessonDetails(urls URLBuilder, lessons []models.Lesson, rates map[uint]int) []LessonDetail {
	out := make([]LessonDetail, 0, len(lessons))
	for _, l := range lessons {
		rate, ok := rates[l.ID]
		if !ok {
			rate = NoRating
		}
		out = append(out, NewLessonDetail(urls, l, rate))
	}
	return out
}

func NewUser(urls URLBuilder, u models.User) User {
	return User{
		ID:         u.ID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Avatar:     urls.Image(u.Avatar),
		DateJoined: u.DateJoined,
	}
}

func NewUsers(urls URLBuilder, users []models.User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, NewUser(urls, u))
	}
	return out
}

func NewComment(c models.Comment) Comment {
	return Comment{
		ID:          c.ID,
		Content:     c.Content,
		Creator:     c.CreatorID,
		CreatedDate: c.CreatedDate,
		UpdatedDate: c.UpdatedDate,
	}
}

func NewComments(comments []models.Comment) []Comment {
	out := make([]Comment, 0, len(comments))
	for _, c := range comments {
		out = append(out, NewComment(c))
	}
	return out
}

func NewAction(a models.Action) Action {
	return Action{ID: a.ID, Type: a.Type, CreatedDate: a.CreatedDate}
}

func NewRating(r models.Rating) Rating {
	return Rating{ID: r.ID, Rate: r.Rate, CreatedDate: r.CreatedDate}
}
