package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"

	"github.com/s/ecourse/internal/models"
	"github.com/s/ecourse/internal/storage"
)

const (
	SessionName       = "session"
	SessionTokenKey   = "access_token"
	authorizationType = "bearer"
)

type ctxKey int

const userKey ctxKey = iota

// TokenValidator resolves an access token to a user id.
type TokenValidator interface {
	Validate(token string) (uint, error)
}

// UserFinder loads active users.
type UserFinder interface {
	GetActiveUser(ctx context.Context, id uint) (*models.User, error)
}

// Authenticator attaches the calling user to the request context. A request
// without credentials passes through anonymously; a request carrying a bad
// bearer token is rejected.
type Authenticator struct {
	Tokens   TokenValidator
	Users    UserFinder
	Sessions sessions.Store
	Log      *slog.Logger
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, fromHeader, err := a.credentials(r)
		if err != nil {
			WriteError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.resolve(r.Context(), token)
		if err != nil {
			if fromHeader {
				WriteError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			// A stale session token is dropped and the request stays anonymous.
			a.log().Debug("ignoring session token", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			WriteError(w, http.StatusUnauthorized, "authentication credentials were not provided")
			return
		}
		next(w, r)
	}
}

func (a *Authenticator) credentials(r *http.Request) (token string, fromHeader bool, err error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, authorizationType) || strings.TrimSpace(value) == "" {
			return "", true, errors.New("invalid authorization header")
		}
		return strings.TrimSpace(value), true, nil
	}

	if a.Sessions == nil {
		return "", false, nil
	}
	session, err := a.Sessions.Get(r, SessionName)
	if err != nil {
		return "", false, nil
	}
	token, _ = session.Values[SessionTokenKey].(string)
	return token, false, nil
}

func (a *Authenticator) resolve(ctx context.Context, token string) (*models.User, error) {
	id, err := a.Tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	user, err := a.Users.GetActiveUser(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.log().Error("failed to load token user", "user_id", id, "error", err)
		}
		return nil, err
	}
	return user, nil
}

func (a *Authenticator) log() *slog.Logger {
	if a.Log != nil {
		return a.Log
	}
	return slog.Default()
}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// WriteError writes the JSON error body used across the API.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
