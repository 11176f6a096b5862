package serializers

import (
	"net/http"
	"strings"
)

// URLBuilder turns stored file names into absolute URLs.
type URLBuilder struct {
	// Public, when set, maps a name to its object store URL.
	Public func(name string) string
	Scheme string
	Host   string
}

// FromRequest builds a URLBuilder for the host the client addressed.
func FromRequest(r *http.Request, public func(string) string) URLBuilder {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return URLBuilder{Public: public, Scheme: scheme, Host: r.Host}
}

// Image returns nil for an empty name. Without an object store, names are
// served under /static/ on the API host.
func (b URLBuilder) Image(name string) *string {
	if name == "" {
		return nil
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return &name
	}
	if b.Public != nil {
		u := b.Public(name)
		return &u
	}

	path := "/" + strings.TrimPrefix(name, "/")
	if !strings.HasPrefix(path, "/static/") {
		path = "/static" + path
	}
	u := b.Scheme + "://" + b.Host + path
	return &u
}
