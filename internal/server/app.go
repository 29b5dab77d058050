// Package server assembles the shortener: it opens the database, applies
// migrations, builds the services and the session manager, and runs the HTTP
// server until SIGINT or SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrijs2005/shortener/internal/logging"
	"github.com/dmitrijs2005/shortener/internal/metrics"
	"github.com/dmitrijs2005/shortener/internal/passwd"
	"github.com/dmitrijs2005/shortener/internal/server/config"
	"github.com/dmitrijs2005/shortener/internal/server/httpapi"
	"github.com/dmitrijs2005/shortener/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/shortener/internal/server/services"
	"github.com/dmitrijs2005/shortener/internal/session"
	"github.com/dmitrijs2005/shortener/internal/static"
	"github.com/dmitrijs2005/shortener/internal/token"
)

var (
	openDB              = sql.Open
	logOutput io.Writer = os.Stdout
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	handler     http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogLevel, c.LogFormat, logOutput)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Loaded config", "config", c)
	if c.UsesDevSecret() {
		logger.Warn(ctx, "built-in development secret key in use; sessions can be forged by anyone who reads the source. Set SHORTENER_SECRET_KEY")
	}

	db, err := openDB("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	hasher, err := passwd.NewSHA512Hasher()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	key, err := token.NewKey(c.Secret())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	codec, err := token.NewCodec(key)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	us := services.NewUserService(db, rm, hasher)
	ls := services.NewURLService(db, rm, c)

	sessions, err := session.NewManager(us, codec, hasher, session.Config{
		CookieName: c.CookieName,
		Lifetime:   c.Lifetime(),
		Secure:     c.CookieSecure,
	}, session.WithLogger(logger))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store, err := newStaticStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(reg)

	h := httpapi.NewRouter(httpapi.Deps{
		Users:    us,
		URLs:     ls,
		Sessions: sessions,
		Static:   static.NewHandler(store, logger),
		Gatherer: reg,
		Logger:   logger,
	})

	return &App{config: c, logger: logger, db: db, repomanager: rm, handler: h}, nil
}

func newStaticStore(ctx context.Context, c *config.Config) (static.Store, error) {
	if !c.StaticFromS3() {
		return static.NewDirStore(c.StaticDir), nil
	}
	return static.NewS3Store(ctx, static.S3Options{
		Bucket:   c.StaticS3Bucket,
		Region:   c.StaticS3Region,
		Endpoint: c.StaticS3Endpoint,
		User:     c.StaticS3User,
		Password: c.StaticS3Password,
	})
}

// Handler exposes the assembled router.
func (app *App) Handler() http.Handler { return app.handler }

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run applies migrations and serves HTTP until ctx is cancelled or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	s := httpapi.NewHTTPServer(app.config.HTTPAddr, app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
