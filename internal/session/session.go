package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/shortener/internal/common"
	"github.com/dmitrijs2005/shortener/internal/logging"
	"github.com/dmitrijs2005/shortener/internal/metrics"
	"github.com/dmitrijs2005/shortener/internal/passwd"
	"github.com/dmitrijs2005/shortener/internal/server/models"
	"github.com/dmitrijs2005/shortener/internal/shared"
	"github.com/dmitrijs2005/shortener/internal/token"
)

var (
	// ErrAuthenticationFailed is the only error a caller sees for an unknown
	// user or a wrong password.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrIdentityNotFound means a verified token names a user that no longer
	// exists.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrInvalidConfig is returned by NewManager.
	ErrInvalidConfig = errors.New("invalid session config")
)

// dummyPassword is hashed once per Manager so that logins for unknown users
// still pay for a verification.
var dummyPassword = []byte("shortener-timing-equaliser")

// IdentityStore resolves accounts by name and by id. Both lookups return
// common.ErrorNotFound for missing users.
type IdentityStore interface {
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Codec signs and verifies wire tokens. *token.Codec implements it.
type Codec interface {
	Finalize(t token.Token) (string, error)
	ParseAndVerify(wire string) (token.Token, token.Payload, error)
}

// Config holds cookie and lifetime settings.
type Config struct {
	CookieName string
	Lifetime   time.Duration
	Secure     bool
	Path       string
	SameSite   http.SameSite
}

// DefaultConfig returns a Config with the "Bearer" cookie, a one hour
// lifetime, and Secure, HttpOnly, SameSite=Lax cookies scoped to "/".
func DefaultConfig() Config {
	return Config{
		CookieName: common.DefaultSessionCookieName,
		Lifetime:   time.Hour,
		Secure:     true,
		Path:       "/",
		SameSite:   http.SameSiteLaxMode,
	}
}

func (c Config) validate() error {
	if c.Lifetime <= 0 {
		return fmt.Errorf("%w: lifetime must be positive", ErrInvalidConfig)
	}
	if err := (&http.Cookie{Name: c.CookieName, Path: c.Path}).Valid(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Issued is a freshly signed session.
type Issued struct {
	Token     string
	Cookie    *http.Cookie
	ExpiresAt time.Time
}

// Manager logs users in and authenticates requests. It holds no mutable state
// after construction and is safe for concurrent use.
type Manager struct {
	store  IdentityStore
	codec  Codec
	hasher passwd.Hasher
	cfg    Config
	now    func() time.Time
	log    logging.Logger

	dummyHash string
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager returns a Manager. Empty Path and SameSite fields in cfg fall
// back to "/" and Lax.
func NewManager(store IdentityStore, codec Codec, hasher passwd.Hasher, cfg Config, opts ...Option) (*Manager, error) {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		store:  store,
		codec:  codec,
		hasher: hasher,
		cfg:    cfg,
		now:    time.Now,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "session")

	dummy, err := hasher.Derive(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("derive dummy hash: %w", err)
	}
	m.dummyHash = dummy
	return m, nil
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.cfg }

// Login verifies name and password and issues a session. password is wiped
// before Login returns.
//
// An unknown name and a wrong password both yield ErrAuthenticationFailed. A
// stored hash without a delimiter yields passwd.ErrMalformedCredentialRecord;
// store failures are wrapped in common.ErrorInternal.
func (m *Manager) Login(ctx context.Context, name string, password []byte) (*Issued, error) {
	defer shared.WipeByteArray(password)

	user, err := m.store.GetUserByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = m.hasher.Verify(password, m.dummyHash)
			return nil, m.loginFailed(ctx, name)
		}
		m.log.Error(ctx, "identity lookup failed", "error", err)
		metrics.SessionLoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: identity lookup: %w", common.ErrorInternal, err)
	}

	ok, err := m.hasher.Verify(password, user.HashedPassword)
	if err != nil {
		m.log.Error(ctx, "stored credential unusable", "user_id", user.ID, "error", err)
		metrics.SessionLoginsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, passwd.ErrMalformedCredentialRecord) {
			return nil, fmt.Errorf("user %d: %w", user.ID, err)
		}
		return nil, fmt.Errorf("%w: verify: %w", common.ErrorInternal, err)
	}
	if !ok {
		return nil, m.loginFailed(ctx, name)
	}

	issued, err := m.issue(user)
	if err != nil {
		m.log.Error(ctx, "token signing failed", "user_id", user.ID, "error", err)
		metrics.SessionLoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: sign: %w", common.ErrorInternal, err)
	}

	m.log.Info(ctx, "login succeeded", "user_id", user.ID)
	metrics.SessionLoginsTotal.WithLabelValues("success").Inc()
	return issued, nil
}

func (m *Manager) loginFailed(ctx context.Context, name string) error {
	m.log.Info(ctx, "login failed", "username", name)
	metrics.SessionLoginsTotal.WithLabelValues("failure").Inc()
	return ErrAuthenticationFailed
}

func (m *Manager) issue(user *models.User) (*Issued, error) {
	now := m.now()
	expires := now.Add(m.cfg.Lifetime).Truncate(time.Second)

	wire, err := m.codec.Finalize(token.New(token.Payload{
		Subject:   user.ID,
		Name:      user.UserName,
		Email:     user.Email,
		IssuedAt:  uint64(now.Unix()),
		ExpiresAt: uint64(expires.Unix()),
	}))
	if err != nil {
		return nil, err
	}
	return &Issued{
		Token:     wire,
		Cookie:    m.Cookie(wire, expires),
		ExpiresAt: expires,
	}, nil
}

// Authenticate classifies a request from its raw Cookie header.
func (m *Manager) Authenticate(ctx context.Context, cookieHeader string) Result {
	res := m.authenticate(ctx, cookieHeader)
	metrics.SessionAuthenticationsTotal.WithLabelValues(res.Status.String()).Inc()

	switch res.Status {
	case StatusAuthenticated, StatusNoCookie:
	case StatusRejected:
		m.log.Warn(ctx, "session rejected", "user_id", res.Payload.Subject, "error", res.Err)
	default:
		m.log.Debug(ctx, "session not authenticated", "status", res.Status.String(), "error", res.Err)
	}
	return res
}

// AuthenticateRequest is Authenticate over every Cookie header of r.
func (m *Manager) AuthenticateRequest(r *http.Request) Result {
	return m.Authenticate(r.Context(), strings.Join(r.Header.Values("Cookie"), "; "))
}

func (m *Manager) authenticate(ctx context.Context, cookieHeader string) Result {
	value, ok := CookieValue(cookieHeader, m.cfg.CookieName)
	if !ok {
		return Result{Status: StatusNoCookie}
	}
	if value == "" {
		return Result{Status: StatusMalformedCookie, Err: fmt.Errorf("%w: empty cookie", token.ErrMalformed)}
	}

	_, payload, err := m.codec.ParseAndVerify(value)
	switch {
	case errors.Is(err, token.ErrMalformed):
		return Result{Status: StatusMalformedCookie, Err: err}
	case err != nil:
		return Result{Status: StatusInvalidToken, Err: err}
	}

	if err := payload.Validate(m.now()); err != nil {
		return Result{Status: StatusExpiredToken, Payload: payload, Err: err}
	}

	user, err := m.store.GetUserByID(ctx, payload.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			err = fmt.Errorf("%w: %w", ErrIdentityNotFound, err)
		}
		return Result{Status: StatusRejected, Payload: payload, Err: err}
	}

	return Result{Status: StatusAuthenticated, User: user, Payload: payload}
}
