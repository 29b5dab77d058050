package static

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/dmitrijs2005/shortener/internal/common"
	"github.com/dmitrijs2005/shortener/internal/logging"
)

const IndexFile = "index.html"

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
}

// Handler serves assets from a Store. "/" maps to index.html, paths with
// ".." are forbidden, and files of unknown type redirect to /index.html.
type Handler struct {
	store Store
	log   logging.Logger
}

func NewHandler(store Store, log logging.Logger) *Handler {
	if log == nil {
		log = logging.Nop()
	}
	return &Handler{store: store, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/")
	if strings.Contains(name, "..") {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	if name == "" {
		name = IndexFile
	}

	ctype, ok := contentTypes[path.Ext(name)]
	if !ok {
		http.Redirect(w, r, "/"+IndexFile, http.StatusFound)
		return
	}

	body, err := h.store.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			http.NotFound(w, r)
			return
		}
		h.log.Error(r.Context(), "static asset open failed", "name", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, body); err != nil {
		h.log.Warn(r.Context(), "static asset write failed", "name", name, "error", err)
	}
}
