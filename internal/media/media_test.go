package media

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvatarKey(t *testing.T) {
	now := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)

	key := AvatarKey("Me.PNG", now)
	assert.Regexp(t, regexp.MustCompile(`^users/2024/03/[0-9a-f-]{36}\.png$`), key)
	assert.NotEqual(t, key, AvatarKey("Me.PNG", now))

	assert.Regexp(t, regexp.MustCompile(`^users/2024/03/[0-9a-f-]{36}$`), AvatarKey("noext", now))
}

func TestDisabled(t *testing.T) {
	var s Store = Disabled{}
	assert.False(t, s.Enabled())
	assert.ErrorIs(t, s.Put(context.Background(), "a", strings.NewReader("x"), 1, "text/plain"), ErrDisabled)
	assert.ErrorIs(t, s.Remove(context.Background(), "a"), ErrDisabled)
	assert.Empty(t, s.PublicURL("a"))
}

func TestMinioPublicURL(t *testing.T) {
	m, err := NewMinio(MinioOptions{
		Endpoint:       "minio:9000",
		PublicEndpoint: "https://files.example.com/",
		Bucket:         "ecourse",
	})
	require.NoError(t, err)
	assert.True(t, m.Enabled())
	assert.Equal(t, "https://files.example.com/ecourse/users/2024/03/a.png", m.PublicURL("users/2024/03/a.png"))

	m, err = NewMinio(MinioOptions{Endpoint: "minio:9000", Bucket: "ecourse"})
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/ecourse/a.png", m.PublicURL("a.png"))
}

func TestPublicReadPolicy(t *testing.T) {
	var policy struct {
		Statement []struct {
			Effect   string
			Action   []string
			Resource []string
		}
	}
	require.NoError(t, json.Unmarshal([]byte(publicReadPolicy("ecourse")), &policy))
	require.Len(t, policy.Statement, 1)
	assert.Equal(t, "Allow", policy.Statement[0].Effect)
	assert.Equal(t, []string{"s3:GetObject"}, policy.Statement[0].Action)
	assert.Equal(t, []string{"arn:aws:s3:::ecourse/*"}, policy.Statement[0].Resource)
}
