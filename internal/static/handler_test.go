package static

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/shortener/internal/common"
)

type mapStore map[string]string

func (m mapStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if name == "broken.css" {
		return nil, errors.New("disk on fire")
	}
	body, ok := m[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestHandler(t *testing.T) {
	h := NewHandler(mapStore{
		"index.html": "<h1>index</h1>",
		"style.css":  "body{}",
		"js/app.js":  "app()",
		"about.html": "<p>about</p>",
		"logo.png":   "png",
	}, nil)

	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		ctype    string
		body     string
		location string
	}{
		{"root is index", http.MethodGet, "/", http.StatusOK, "text/html; charset=utf-8", "<h1>index</h1>", ""},
		{"html", http.MethodGet, "/about.html", http.StatusOK, "text/html; charset=utf-8", "<p>about</p>", ""},
		{"css", http.MethodGet, "/style.css", http.StatusOK, "text/css; charset=utf-8", "body{}", ""},
		{"nested js", http.MethodGet, "/js/app.js", http.StatusOK, "text/javascript; charset=utf-8", "app()", ""},
		{"head", http.MethodHead, "/style.css", http.StatusOK, "text/css; charset=utf-8", "", ""},
		{"dot dot", http.MethodGet, "/a/..%2f..%2fetc/passwd.html", http.StatusForbidden, "", "", ""},
		{"missing", http.MethodGet, "/missing.html", http.StatusNotFound, "", "", ""},
		{"unknown type", http.MethodGet, "/logo.png", http.StatusFound, "", "", "/index.html"},
		{"no extension", http.MethodGet, "/dashboard", http.StatusFound, "", "", "/index.html"},
		{"store error", http.MethodGet, "/broken.css", http.StatusInternalServerError, "", "", ""},
		{"post", http.MethodPost, "/index.html", http.StatusMethodNotAllowed, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.ctype != "" {
				assert.Equal(t, tt.ctype, rec.Header().Get("Content-Type"))
			}
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
			if tt.location != "" {
				assert.Equal(t, tt.location, rec.Header().Get("Location"))
			}
		})
	}
}
