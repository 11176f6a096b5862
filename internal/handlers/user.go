package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/s/ecourse/internal/media"
	"github.com/s/ecourse/internal/middleware"
	"github.com/s/ecourse/internal/models"
	"github.com/s/ecourse/internal/serializers"
	"github.com/s/ecourse/internal/storage"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

const (
	maxUsernameLength = 150
	maxNameLength     = 150
	maxEmailLength    = 254
)

// GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, serializers.NewUsers(h.urls(r), users))
}

// GET /users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "not found")
		return
	}

	user, err := h.Store.GetActiveUser(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, serializers.NewUser(h.urls(r), *user))
}

// GET /users/current-user
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, serializers.NewUser(h.urls(r), *user))
}

// POST /users (multipart or JSON)
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	body, err := readPayload(w, r)
	if err != nil {
		payloadError(w, err)
		return
	}

	username, msg := stringField(body, "username")
	if msg == "" {
		msg = validateUsername(username)
	}
	if msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}
	password, msg := stringField(body, "password")
	if msg == "" {
		msg = validatePassword(password)
	}
	if msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	user := models.User{Username: username, Active: true}
	fields, msg := profileFields(body)
	if msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}
	user.FirstName = fields["first_name"]
	user.LastName = fields["last_name"]
	user.Email = fields["email"]

	hash, err := hashPassword(password)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	user.Password = hash

	if file, ok := body.File("avatar"); ok {
		key, status, err := h.uploadAvatar(r, file)
		if err != nil {
			h.uploadError(w, r, status, err)
			return
		}
		user.Avatar = key
	}

	if err := h.Store.CreateUser(r.Context(), &user); err != nil {
		h.discardAvatar(r, user.Avatar)
		if errors.Is(err, storage.ErrConflict) {
			jsonError(w, http.StatusBadRequest, "username: a user with that username already exists")
			return
		}
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, serializers.NewUser(h.urls(r), user))
}

// PATCH /users/{id}: users may only change their own profile.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "not found")
		return
	}
	user, err := h.Store.GetActiveUser(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if user.ID != caller.ID {
		jsonError(w, http.StatusForbidden, "you do not have permission to perform this action")
		return
	}

	body, err := readPayload(w, r)
	if err != nil {
		payloadError(w, err)
		return
	}

	updates := map[string]any{}
	if body.has("username") {
		username, msg := stringField(body, "username")
		if msg == "" {
			msg = validateUsername(username)
		}
		if msg != "" {
			jsonError(w, http.StatusBadRequest, msg)
			return
		}
		updates["username"] = username
	}
	fields, msg := profileFields(body)
	if msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}
	for k, v := range fields {
		updates[k] = v
	}
	if body.has("password") {
		password, msg := stringField(body, "password")
		if msg == "" {
			msg = validatePassword(password)
		}
		if msg != "" {
			jsonError(w, http.StatusBadRequest, msg)
			return
		}
		hash, err := hashPassword(password)
		if err != nil {
			h.storeError(w, r, err)
			return
		}
		updates["password"] = hash
	}
	if file, ok := body.File("avatar"); ok {
		key, status, err := h.uploadAvatar(r, file)
		if err != nil {
			h.uploadError(w, r, status, err)
			return
		}
		updates["avatar"] = key
	}

	if err := h.Store.UpdateUser(r.Context(), user, updates); err != nil {
		if key, ok := updates["avatar"].(string); ok {
			h.discardAvatar(r, key)
		}
		if errors.Is(err, storage.ErrConflict) {
			jsonError(w, http.StatusBadRequest, "username: a user with that username already exists")
			return
		}
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, serializers.NewUser(h.urls(r), *user))
}

// stringField returns the text under key. A present value of another type is
// reported; an absent key yields "".
func stringField(body payload, key string) (string, string) {
	if !body.has(key) {
		return "", ""
	}
	v, ok := body.String(key)
	if !ok {
		return "", key + ": not a valid string"
	}
	return v, ""
}

func validateUsername(username string) string {
	switch {
	case username == "":
		return "username: this field is required"
	case utf8.RuneCountInString(username) > maxUsernameLength:
		return "username: ensure this field has no more than 150 characters"
	case !usernamePattern.MatchString(username):
		return "username: enter a valid username; it may contain only letters, numbers, and @/./+/-/_ characters"
	}
	return ""
}

func validatePassword(password string) string {
	switch {
	case password == "":
		return "password: this field is required"
	case len(password) > 72:
		return "password: ensure this field has no more than 72 bytes"
	}
	return ""
}

// profileFields reads the optional name and email fields. Only keys present
// in the body appear in the result.
func profileFields(body payload) (map[string]string, string) {
	fields := map[string]string{}
	for _, key := range []string{"first_name", "last_name", "email"} {
		if !body.has(key) {
			continue
		}
		v, ok := body.String(key)
		if !ok {
			return nil, key + ": not a valid string"
		}
		fields[key] = strings.TrimSpace(v)
	}

	if utf8.RuneCountInString(fields["first_name"]) > maxNameLength {
		return nil, "first_name: ensure this field has no more than 150 characters"
	}
	if utf8.RuneCountInString(fields["last_name"]) > maxNameLength {
		return nil, "last_name: ensure this field has no more than 150 characters"
	}
	if email := fields["email"]; email != "" {
		if len(email) > maxEmailLength {
			return nil, "email: ensure this field has no more than 254 characters"
		}
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			return nil, "email: enter a valid email address"
		}
	}
	return fields, ""
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

var errNotImage = errors.New("avatar: upload a valid image")

// uploadAvatar stores the file and returns its object key. The status is the
// response code to use when err is not nil.
func (h *Handler) uploadAvatar(r *http.Request, fh *multipart.FileHeader) (string, int, error) {
	if !h.Media.Enabled() {
		return "", http.StatusBadRequest, media.ErrDisabled
	}

	src, err := fh.Open()
	if err != nil {
		return "", http.StatusBadRequest, fmt.Errorf("avatar: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", http.StatusBadRequest, fmt.Errorf("avatar: %w", err)
	}
	contentType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return "", http.StatusBadRequest, errNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", http.StatusInternalServerError, err
	}

	key := media.AvatarKey(fh.Filename, time.Now())
	if err := h.Media.Put(r.Context(), key, src, fh.Size, contentType); err != nil {
		return "", http.StatusBadGateway, err
	}
	return key, 0, nil
}

// discardAvatar removes an uploaded avatar whose user row was not written.
func (h *Handler) discardAvatar(r *http.Request, key string) {
	if key == "" {
		return
	}
	if err := h.Media.Remove(context.WithoutCancel(r.Context()), key); err != nil {
		h.Log.Warn("orphaned avatar not removed", "key", key, "error", err)
	}
}

func (h *Handler) uploadError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.Log.Error("avatar upload failed", "path", r.URL.Path, "error", err)
		jsonError(w, status, "avatar upload failed")
		return
	}
	jsonError(w, status, err.Error())
}
