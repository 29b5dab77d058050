package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/shortener/internal/common"
	"github.com/dmitrijs2005/shortener/internal/server/models"
	"github.com/dmitrijs2005/shortener/internal/session"
	"github.com/dmitrijs2005/shortener/internal/shared"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password secret `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password secret `json:"password"`
}

type passwordRequest struct {
	OldPassword secret `json:"old_password"`
	NewPassword secret `json:"new_password"`
}

type shortenRequest struct {
	URL string `json:"url"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type loginResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type urlResponse struct {
	Short     string    `json:"short"`
	Long      string    `json:"long"`
	ShortURL  string    `json:"short_url"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.UserName, Email: u.Email}
}

func (a *api) toURLResponse(u *models.ShortURL) urlResponse {
	return urlResponse{
		Short:     u.Short,
		Long:      u.Long,
		ShortURL:  a.urls.ShortLink(u.Short),
		Clicks:    u.Clicks,
		CreatedAt: u.CreatedAt,
	}
}

func (a *api) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	defer func() { shared.WipeByteArray(req.Password) }()
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	u, err := a.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.log.Info(r.Context(), "Registered", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	defer func() { shared.WipeByteArray(req.Password) }()
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	issued, err := a.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	http.SetCookie(w, issued.Cookie)
	writeJSON(w, http.StatusOK, loginResponse{Username: req.Username, ExpiresAt: issued.ExpiresAt})
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, a.sessions.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) me(w http.ResponseWriter, r *http.Request) {
	u, _ := session.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (a *api) changePassword(w http.ResponseWriter, r *http.Request) {
	u, _ := session.UserFromContext(r.Context())

	var req passwordRequest
	defer func() {
		shared.WipeByteArray(req.OldPassword)
		shared.WipeByteArray(req.NewPassword)
	}()
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	err := a.users.ChangePassword(r.Context(), u.ID, req.OldPassword, req.NewPassword)
	if errors.Is(err, common.ErrorUnauthorized) {
		// the session is fine, the old password is not
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "wrong password"})
		return
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) shorten(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	var createdBy *int64
	if u, ok := session.UserFromContext(r.Context()); ok {
		createdBy = &u.ID
	}

	link, err := a.urls.Shorten(r.Context(), req.URL, createdBy)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a.toURLResponse(link))
}

func (a *api) listURLs(w http.ResponseWriter, r *http.Request) {
	u, _ := session.UserFromContext(r.Context())

	links, err := a.urls.List(r.Context(), u.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	out := make([]urlResponse, 0, len(links))
	for _, l := range links {
		out = append(out, a.toURLResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) deleteURL(w http.ResponseWriter, r *http.Request) {
	u, _ := session.UserFromContext(r.Context())

	if err := a.urls.Delete(r.Context(), chi.URLParam(r, "code"), u.ID); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) redirect(w http.ResponseWriter, r *http.Request) {
	long, err := a.urls.Resolve(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			http.NotFound(w, r)
			return
		}
		a.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, long, http.StatusFound)
}
