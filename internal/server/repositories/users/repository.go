package users

import (
	"context"

	"github.com/dmitrijs2005/shortener/internal/server/models"
)

// Repository stores accounts. Lookups return common.ErrorNotFound for missing
// rows; Create returns common.ErrorAlreadyExists for a taken username.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByName(ctx context.Context, userName string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	Delete(ctx context.Context, id int64) error
}
