package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

const maxUploadSize = 10 << 20

var (
	errMissing  = errors.New("this field is required")
	errInvalid  = errors.New("a valid integer is required")
	errTooLarge = errors.New("request body too large")
)

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

func payloadError(w http.ResponseWriter, err error) {
	if errors.Is(err, errTooLarge) {
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	jsonError(w, http.StatusBadRequest, err.Error())
}

// payload is a decoded request body: a JSON object or form fields.
type payload struct {
	fields map[string]any
	files  map[string][]*multipart.FileHeader
}

// readPayload accepts JSON, urlencoded and multipart bodies of at most
// maxUploadSize bytes. An empty body yields an empty payload.
func readPayload(w http.ResponseWriter, r *http.Request) (payload, error) {
	p := payload{fields: map[string]any{}}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			if tooLarge(err) {
				return p, errTooLarge
			}
			return p, fmt.Errorf("malformed multipart body: %w", err)
		}
		for k, v := range r.MultipartForm.Value {
			p.fields[k] = formValue(v)
		}
		p.files = r.MultipartForm.File
		return p, nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			if tooLarge(err) {
				return p, errTooLarge
			}
			return p, fmt.Errorf("malformed form body: %w", err)
		}
		for k, v := range r.PostForm {
			p.fields[k] = formValue(v)
		}
		return p, nil
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&p.fields); err != nil {
		if errors.Is(err, io.EOF) {
			return payload{fields: map[string]any{}}, nil
		}
		if tooLarge(err) {
			return p, errTooLarge
		}
		return p, errors.New("malformed JSON body")
	}
	if p.fields == nil {
		p.fields = map[string]any{}
	}
	return p, nil
}

func formValue(v []string) any {
	if len(v) == 1 {
		return v[0]
	}
	return v
}

func (p payload) has(key string) bool {
	_, ok := p.fields[key]
	return ok
}

// String returns the field as text; ok is false when absent or not a string.
func (p payload) String(key string) (string, bool) {
	s, ok := p.fields[key].(string)
	return s, ok
}

// Int accepts a JSON number with no fractional part or a numeric string.
func (p payload) Int(key string) (int, error) {
	v, ok := p.fields[key]
	if !ok || v == nil {
		return 0, errMissing
	}

	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return clampInt(i)
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, errInvalid
		}
		return clampInt(int64(f))
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, errInvalid
		}
		return clampInt(i)
	default:
		return 0, errInvalid
	}
}

func clampInt(i int64) (int, error) {
	if i > math.MaxInt32 || i < math.MinInt32 {
		return 0, errInvalid
	}
	return int(i), nil
}

// Strings returns a list field. A single string counts as a one-element list.
func (p payload) Strings(key string) ([]string, bool) {
	switch v := p.fields[key].(type) {
	case []string:
		return v, true
	case string:
		return []string{v}, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// File returns the first uploaded file under key.
func (p payload) File(key string) (*multipart.FileHeader, bool) {
	files := p.files[key]
	if len(files) == 0 {
		return nil, false
	}
	return files[0], true
}
