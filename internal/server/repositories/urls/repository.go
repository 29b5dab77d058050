package urls

import (
	"context"

	"github.com/dmitrijs2005/shortener/internal/server/models"
)

// Repository stores short links.
type Repository interface {
	Create(ctx context.Context, u *models.ShortURL) (*models.ShortURL, error)
	GetByShort(ctx context.Context, short string) (*models.ShortURL, error)
	IncrementClicks(ctx context.Context, short string) (int64, error)
	Delete(ctx context.Context, short string) error
	ListByUser(ctx context.Context, userID int64) ([]*models.ShortURL, error)
}
