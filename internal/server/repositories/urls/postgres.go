package urls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/shortener/internal/common"
	"github.com/dmitrijs2005/shortener/internal/dbx"
	"github.com/dmitrijs2005/shortener/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts u. A taken short code yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, u *models.ShortURL) (*models.ShortURL, error) {
	query :=
		`INSERT INTO urls (short, long, created_by)
		 VALUES ($1, $2, $3)
		 RETURNING id, clicks, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, u.Short, u.Long, u.CreatedBy).
		Scan(&u.ID, &u.Clicks, &u.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) GetByShort(ctx context.Context, short string) (*models.ShortURL, error) {
	query :=
		`SELECT id, short, long, created_by, clicks, created_at FROM urls
		 WHERE short = $1
		 `

	u, err := scanURL(r.db.QueryRowContext(ctx, query, short))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// IncrementClicks bumps the counter and returns its new value.
func (r *PostgresRepository) IncrementClicks(ctx context.Context, short string) (int64, error) {
	query :=
		`UPDATE urls SET clicks = clicks + 1
		 WHERE short = $1
		 RETURNING clicks
		 `

	var clicks int64
	err := r.db.QueryRowContext(ctx, query, short).Scan(&clicks)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return clicks, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, short string) error {
	query :=
		`DELETE FROM urls
		 WHERE short = $1
		 `

	res, err := r.db.ExecContext(ctx, query, short)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.ShortURL, error) {
	query :=
		`SELECT id, short, long, created_by, clicks, created_at FROM urls
		 WHERE created_by = $1
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.ShortURL
	for rows.Next() {
		u, err := scanURL(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanURL(s scanner) (*models.ShortURL, error) {
	u := &models.ShortURL{}
	var createdBy sql.NullInt64
	if err := s.Scan(&u.ID, &u.Short, &u.Long, &createdBy, &u.Clicks, &u.CreatedAt); err != nil {
		return nil, err
	}
	if createdBy.Valid {
		id := createdBy.Int64
		u.CreatedBy = &id
	}
	return u, nil
}
