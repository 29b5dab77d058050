package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/shortener/internal/passwd"
	"github.com/dmitrijs2005/shortener/internal/server/config"
	"github.com/dmitrijs2005/shortener/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/shortener/internal/server/services"
	"github.com/dmitrijs2005/shortener/internal/shortctl"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	// command and its operands come first, server flags after them
	n := 0
	for n < len(args) && !strings.HasPrefix(args[n], "-") {
		n++
	}
	command, flags := args[:n], args[n:]

	hasher, err := passwd.NewSHA512Hasher()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	connect := func(ctx context.Context) (shortctl.UserAdmin, io.Closer, error) {
		cfg, err := config.Load(flags)
		if err != nil {
			return nil, nil, err
		}
		db, err := sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		return services.NewUserService(db, rm, hasher), db, nil
	}

	app := shortctl.NewApp(os.Stdin, os.Stdout, hasher, connect)
	if err := app.Run(ctx, command); err != nil {
		if !errors.Is(err, shortctl.ErrNoMatch) {
			fmt.Fprintln(os.Stderr, "shortctl:", err)
		}
		return 1
	}
	return 0
}
