package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/shortener/internal/dbx"
	"github.com/dmitrijs2005/shortener/internal/server/repositories/urls"
	"github.com/dmitrijs2005/shortener/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	URLs(db dbx.DBTX) urls.Repository
}
