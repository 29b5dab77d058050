package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/shortener/internal/logging"
	"github.com/dmitrijs2005/shortener/internal/server/models"
	"github.com/dmitrijs2005/shortener/internal/session"
)

// Users is the account service used by the handlers.
type Users interface {
	Register(ctx context.Context, username, email string, password []byte) (*models.User, error)
	ChangePassword(ctx context.Context, id int64, oldPassword, newPassword []byte) error
}

// URLs is the short link service used by the handlers.
type URLs interface {
	Shorten(ctx context.Context, long string, createdBy *int64) (*models.ShortURL, error)
	Resolve(ctx context.Context, short string) (string, error)
	Delete(ctx context.Context, short string, userID int64) error
	List(ctx context.Context, userID int64) ([]*models.ShortURL, error)
	ShortLink(code string) string
}

// Sessions logs users in and authenticates requests. *session.Manager
// implements it.
type Sessions interface {
	Login(ctx context.Context, name string, password []byte) (*session.Issued, error)
	AuthenticateRequest(r *http.Request) session.Result
	ClearCookie() *http.Cookie
}

// Deps are the collaborators of the router. Static and Gatherer are optional.
type Deps struct {
	Users    Users
	URLs     URLs
	Sessions Sessions
	Static   http.Handler
	Gatherer prometheus.Gatherer
	Logger   logging.Logger
}

type api struct {
	users    Users
	urls     URLs
	sessions Sessions
	log      logging.Logger
}

// NewRouter wires every route.
func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = logging.Nop()
	}
	a := &api{users: d.Users, urls: d.URLs, sessions: d.Sessions, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(chimw.Recoverer)
	r.Use(AccessLog(log))
	r.Use(LoadSession(d.Sessions))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	metricsHandler := promhttp.Handler()
	if d.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Get("/r/{code}", a.redirect)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", a.register)
		r.Post("/login", a.login)
		r.Post("/logout", a.logout)
		r.Post("/urls", a.shorten)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession)
			r.Get("/me", a.me)
			r.Post("/password", a.changePassword)
			r.Get("/urls", a.listURLs)
			r.Delete("/urls/{code}", a.deleteURL)
		})
	})

	if d.Static != nil {
		r.NotFound(d.Static.ServeHTTP)
	}
	return r
}
