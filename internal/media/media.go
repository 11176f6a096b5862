package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrDisabled is returned by uploads when no object store is configured.
var ErrDisabled = errors.New("file uploads are not configured")

// Store keeps uploaded files and knows where they are served from.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, name string) error
	PublicURL(name string) string
	Enabled() bool
}

// AvatarKey names an uploaded avatar, users/YYYY/MM/<uuid><ext>.
func AvatarKey(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("users", fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())), uuid.NewString()+ext)
}

// Disabled rejects uploads.
type Disabled struct{}

func (Disabled) Put(context.Context, string, io.Reader, int64, string) error {
	return ErrDisabled
}

func (Disabled) Remove(context.Context, string) error { return ErrDisabled }

func (Disabled) PublicURL(string) string { return "" }

func (Disabled) Enabled() bool { return false }
