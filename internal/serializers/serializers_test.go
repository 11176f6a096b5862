package serializers

import (
	"crypto/tls"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s/ecourse/internal/models"
)

func TestImageURL(t *testing.T) {
	plain := URLBuilder{Scheme: "http", Host: "api.example.com"}
	public := URLBuilder{Public: func(name string) string { return "https://cdn.example.com/ecourse/" + name }}

	tests := []struct {
		name    string
		builder URLBuilder
		in      string
		want    *string
	}{
		{"empty", plain, "", nil},
		{"relative", plain, "courses/2021/05/a.png", ptr("http://api.example.com/static/courses/2021/05/a.png")},
		{"already static", plain, "static/courses/a.png", ptr("http://api.example.com/static/courses/a.png")},
		{"absolute", plain, "https://img.example.com/a.png", ptr("https://img.example.com/a.png")},
		{"object store", public, "users/2024/01/x.png", ptr("https://cdn.example.com/ecourse/users/2024/01/x.png")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.builder.Image(tt.in))
		})
	}
}

func TestFromRequestScheme(t *testing.T) {
	req := httptest.NewRequest("GET", "http://api.example.com/courses", nil)
	assert.Equal(t, "http", FromRequest(req, nil).Scheme)
	assert.Equal(t, "api.example.com", FromRequest(req, nil).Host)

	req.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https", FromRequest(req, nil).Scheme)

	req = httptest.NewRequest("GET", "http://api.example.com/courses", nil)
	req.Header.Set("X-Forwarded-Proto", "https, http")
	assert.Equal(t, "https", FromRequest(req, nil).Scheme)
}

func TestLessonDetailJSON(t *testing.T) {
	courseID := uint(3)
	created := time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)
	lesson := models.Lesson{
		ID:          7,
		Subject:     "Variables",
		Content:     "x = 1",
		CreatedDate: created,
		UpdatedDate: created,
		CourseID:    &courseID,
		Tags:        []models.Tag{{ID: 1, Name: "python"}},
	}

	details := NewLessonDetails(URLBuilder{Scheme: "http", Host: "h"}, []models.Lesson{lesson}, map[uint]int{})
	require.Len(t, details, 1)

	data, err := json.Marshal(details[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 7,
		"subject": "Variables",
		"image": null,
		"created_date": "2021-05-01T10:00:00Z",
		"updated_date": "2021-05-01T10:00:00Z",
		"course": 3,
		"content": "x = 1",
		"tag": [{"id": 1, "name": "python"}],
		"rate": -1
	}`, string(data))

	rated := NewLessonDetails(URLBuilder{}, []models.Lesson{lesson}, map[uint]int{7: 4})
	assert.Equal(t, 4, rated[0].Rate)
}

func TestUserOmitsPassword(t *testing.T) {
	u := models.User{ID: 1, Username: "alice", Password: "$2a$10$hash", Email: "a@example.com"}

	data, err := json.Marshal(NewUser(URLBuilder{}, u))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.NotContains(t, got, "password")
	assert.Nil(t, got["avatar"])
	assert.Equal(t, "alice", got["username"])
}

func TestCommentCreatorIsID(t *testing.T) {
	c := NewComment(models.Comment{ID: 2, Content: "hi", CreatorID: 9})
	assert.Equal(t, uint(9), c.Creator)
}

func ptr(s string) *string { return &s }
