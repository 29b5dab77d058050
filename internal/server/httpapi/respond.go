package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/shortener/internal/common"
	"github.com/dmitrijs2005/shortener/internal/passwd"
	"github.com/dmitrijs2005/shortener/internal/server/services"
	"github.com/dmitrijs2005/shortener/internal/session"
	"github.com/dmitrijs2005/shortener/internal/shared"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// decodeJSON reads the body into a buffer it owns, decodes it into the
// struct pointed to by dst and wipes the buffer. Request bodies carry
// plaintext passwords, so nothing here keeps an unwiped copy: json.Unmarshal
// hands secret fields slices of the buffer rather than copying it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readBody(w, r)
	defer shared.WipeByteArray(body)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if name, err := unknownField(body, dst); err != nil || name != "" {
		return fmt.Errorf("%w: unknown field %q", common.ErrorValidation, name)
	}
	return nil
}

// readBody reads at most maxBodyBytes. Buffers outgrown while reading are
// wiped before they are dropped.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	size := 512
	if r.ContentLength > 0 && r.ContentLength < maxBodyBytes {
		size = int(r.ContentLength) + 1
	}
	rd := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	buf := make([]byte, 0, size)
	for {
		if len(buf) == cap(buf) {
			grown := make([]byte, len(buf), 2*cap(buf))
			copy(grown, buf)
			shared.WipeByteArray(buf)
			buf = grown
		}
		n, err := rd.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if errors.Is(err, io.EOF) {
			return buf, nil
		}
		if err != nil {
			shared.WipeByteArray(buf)
			return nil, err
		}
	}
}

type skipValue struct{}

func (*skipValue) UnmarshalJSON([]byte) error { return nil }

// unknownField returns the first top-level key of body that has no matching
// json tag on the struct dst points to. Keys match case-insensitively, as in
// encoding/json.
func unknownField(body []byte, dst any) (string, error) {
	var keys map[string]skipValue
	if err := json.Unmarshal(body, &keys); err != nil {
		return "", err
	}

	t := reflect.TypeOf(dst).Elem()
	known := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		known[strings.ToLower(name)] = true
	}
	for k := range keys {
		if !known[strings.ToLower(k)] {
			return k, nil
		}
	}
	return "", nil
}

// statusFor maps service errors to HTTP statuses. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, passwd.ErrMalformedCredentialRecord):
		return http.StatusInternalServerError
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrAuthenticationFailed), errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrCodeSpaceExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := http.StatusText(status)

	switch {
	case status >= http.StatusInternalServerError:
		a.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	case status == http.StatusBadRequest:
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
