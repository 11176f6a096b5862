package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/s/ecourse/internal/models"
	"github.com/s/ecourse/internal/storage"
)

type feedbackKey struct {
	lessonID  uint
	creatorID uint
}

// fakeStore is an in-memory Store with the same visibility rules as the gorm
// implementation.
type fakeStore struct {
	mu sync.Mutex

	nextID     uint
	categories []models.Category
	courses    []models.Course
	lessons    []*models.Lesson
	tags       map[string]models.Tag
	comments   []models.Comment
	actions    map[feedbackKey]models.Action
	ratings    map[feedbackKey]models.Rating
	users      map[uint]*models.User

	pingErr        error
	categoryCalls  int
	ratingsQueries int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:  100,
		tags:    map[string]models.Tag{},
		actions: map[feedbackKey]models.Action{},
		ratings: map[feedbackKey]models.Rating{},
		users:   map[uint]*models.User{},
	}
}

func (f *fakeStore) id() uint {
	f.nextID++
	return f.nextID
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) ListCategories(context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categoryCalls++
	return append([]models.Category(nil), f.categories...), nil
}

func (f *fakeStore) ListCourses(_ context.Context, filter storage.CourseFilter) ([]models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Course
	for _, c := range f.courses {
		if !c.Active {
			continue
		}
		if filter.Query != "" && !containsFold(c.Subject, filter.Query) {
			continue
		}
		if filter.CategoryID != nil && (c.CategoryID == nil || *c.CategoryID != *filter.CategoryID) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) ListCourseLessons(_ context.Context, courseID uint, keyword string) ([]models.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	found := false
	for _, c := range f.courses {
		if c.ID == courseID && c.Active {
			found = true
		}
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	var out []models.Lesson
	for _, l := range f.lessons {
		if l.CourseID == nil || *l.CourseID != courseID || !l.Active {
			continue
		}
		if keyword != "" && !containsFold(l.Subject, keyword) {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeStore) ListLessons(context.Context) ([]models.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Lesson
	for _, l := range f.lessons {
		if l.Active {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) lesson(id uint) (*models.Lesson, error) {
	for _, l := range f.lessons {
		if l.ID == id && l.Active {
			return l, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) GetLesson(_ context.Context, id uint) (*models.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, err := f.lesson(id)
	if err != nil {
		return nil, err
	}
	cp := *l
	cp.Tags = append([]models.Tag(nil), l.Tags...)
	return &cp, nil
}

func (f *fakeStore) AddLessonTags(_ context.Context, lessonID uint, names []string) (*models.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, err := f.lesson(lessonID)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		tag, ok := f.tags[name]
		if !ok {
			tag = models.Tag{ID: f.id(), Name: name}
			f.tags[name] = tag
		}
		attached := false
		for _, t := range l.Tags {
			if t.ID == tag.ID {
				attached = true
			}
		}
		if !attached {
			l.Tags = append(l.Tags, tag)
		}
	}
	cp := *l
	cp.Tags = append([]models.Tag(nil), l.Tags...)
	return &cp, nil
}

func (f *fakeStore) CreateComment(_ context.Context, c *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	c.ID = f.id()
	c.CreatedDate, c.UpdatedDate = now, now
	f.comments = append(f.comments, *c)
	return nil
}

func (f *fakeStore) ListLessonComments(_ context.Context, lessonID uint) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Comment
	for _, c := range f.comments {
		if c.LessonID == lessonID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) GetComment(_ context.Context, id uint) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.comments {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) UpdateCommentContent(_ context.Context, c *models.Comment, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.comments {
		if f.comments[i].ID == c.ID {
			f.comments[i].Content = content
			f.comments[i].UpdatedDate = time.Now()
			c.Content = content
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) DeleteComment(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, c := range f.comments {
		if c.ID == id {
			f.comments = append(f.comments[:i], f.comments[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) SaveAction(_ context.Context, a *models.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := feedbackKey{a.LessonID, a.CreatorID}
	now := time.Now()
	if existing, ok := f.actions[key]; ok {
		existing.Type = a.Type
		existing.UpdatedDate = now
		f.actions[key] = existing
		*a = existing
		return nil
	}
	a.ID = f.id()
	a.CreatedDate, a.UpdatedDate = now, now
	f.actions[key] = *a
	return nil
}

func (f *fakeStore) SaveRating(_ context.Context, r *models.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := feedbackKey{r.LessonID, r.CreatorID}
	now := time.Now()
	if existing, ok := f.ratings[key]; ok {
		existing.Rate = r.Rate
		existing.UpdatedDate = now
		f.ratings[key] = existing
		*r = existing
		return nil
	}
	r.ID = f.id()
	r.CreatedDate, r.UpdatedDate = now, now
	f.ratings[key] = *r
	return nil
}

func (f *fakeStore) UserRatings(_ context.Context, userID uint, lessonIDs []uint) (map[uint]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ratingsQueries++
	out := map[uint]int{}
	for _, id := range lessonIDs {
		if r, ok := f.ratings[feedbackKey{id, userID}]; ok {
			out[id] = r.Rate
		}
	}
	return out, nil
}

func (f *fakeStore) ListUsers(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.User
	for _, u := range f.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetActiveUser(_ context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok || !u.Active {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if existing.Username == u.Username {
			return storage.ErrConflict
		}
	}
	u.ID = f.id()
	u.DateJoined = time.Now()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateUser(_ context.Context, u *models.User, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.users[u.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if name, ok := updates["username"].(string); ok {
		for _, other := range f.users {
			if other.ID != u.ID && other.Username == name {
				return storage.ErrConflict
			}
		}
	}
	for k, v := range updates {
		s := v.(string)
		switch k {
		case "username":
			stored.Username = s
		case "first_name":
			stored.FirstName = s
		case "last_name":
			stored.LastName = s
		case "email":
			stored.Email = s
		case "password":
			stored.Password = s
		case "avatar":
			stored.Avatar = s
		default:
			return errors.New("unknown column " + k)
		}
	}
	*u = *stored
	return nil
}

// Test doubles for the optional collaborators.

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dst)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.ttls[key] = ttl
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type fakeMedia struct {
	mu   sync.Mutex
	puts map[string]string
}

func (m *fakeMedia) Put(_ context.Context, name string, r io.Reader, _ int64, contentType string) error {
	if _, err := io.ReadAll(r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts[name] = contentType
	return nil
}

func (m *fakeMedia) Remove(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.puts, name)
	return nil
}

func (m *fakeMedia) PublicURL(name string) string { return "https://files.example.com/ecourse/" + name }

func (m *fakeMedia) Enabled() bool { return true }

type recordedActivity struct {
	action   string
	userID   uint
	lessonID uint
	details  map[string]any
}

type fakeActivity struct {
	mu      sync.Mutex
	entries []recordedActivity
}

func (a *fakeActivity) Record(_ context.Context, action string, userID, lessonID uint, details map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, recordedActivity{action, userID, lessonID, details})
}

func (a *fakeActivity) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.action)
	}
	return out
}
