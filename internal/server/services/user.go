// Package services contains server-side business logic. UserService manages
// accounts and their stored password hashes; URLService creates and resolves
// short links.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/shortener/internal/common"
	"github.com/dmitrijs2005/shortener/internal/dbx"
	"github.com/dmitrijs2005/shortener/internal/passwd"
	"github.com/dmitrijs2005/shortener/internal/server/models"
	"github.com/dmitrijs2005/shortener/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/shortener/internal/shared"
)

const (
	MinUserNameLength = 3
	MaxUserNameLength = 64
	MinPasswordLength = 8
)

// UserService registers accounts and changes passwords. It also serves as the
// session manager's identity store.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      passwd.Hasher
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher passwd.Hasher) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
	}
}

// Register validates the input, hashes password and stores a new user.
// password is wiped before Register returns. A taken username yields
// common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, email string, password []byte) (*models.User, error) {
	defer shared.WipeByteArray(password)

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Derive(password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %w", common.ErrorInternal, err)
	}

	user := &models.User{UserName: username, Email: email, HashedPassword: hashed}
	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// ChangePassword replaces the stored hash after checking oldPassword. Both
// slices are wiped. A wrong old password yields common.ErrorUnauthorized.
func (s *UserService) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword []byte) error {
	defer shared.WipeByteArray(oldPassword)
	defer shared.WipeByteArray(newPassword)

	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d bytes", common.ErrorValidation, MinPasswordLength)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetUserByID(ctx, id)
		if err != nil {
			return err
		}

		ok, err := s.hasher.Verify(oldPassword, user.HashedPassword)
		if err != nil {
			return fmt.Errorf("user %d: %w", id, err)
		}
		if !ok {
			return common.ErrorUnauthorized
		}

		hashed, err := s.hasher.Derive(newPassword)
		if err != nil {
			return fmt.Errorf("%w: hash password: %w", common.ErrorInternal, err)
		}
		return repo.UpdatePassword(ctx, id, hashed)
	})
}

// SetPassword replaces the stored hash without checking the old password.
// Used by the admin CLI.
func (s *UserService) SetPassword(ctx context.Context, username string, newPassword []byte) error {
	defer shared.WipeByteArray(newPassword)

	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d bytes", common.ErrorValidation, MinPasswordLength)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetUserByName(ctx, username)
		if err != nil {
			return err
		}
		hashed, err := s.hasher.Derive(newPassword)
		if err != nil {
			return fmt.Errorf("%w: hash password: %w", common.ErrorInternal, err)
		}
		return repo.UpdatePassword(ctx, user.ID, hashed)
	})
}

// GetUserByName returns common.ErrorNotFound for unknown names.
func (s *UserService) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetUserByName(ctx, name)
}

// GetUserByID returns common.ErrorNotFound for unknown ids.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetUserByID(ctx, id)
}

func validateRegistration(username, email string, password []byte) error {
	var problems []string

	if n := utf8.RuneCountInString(username); n < MinUserNameLength || n > MaxUserNameLength {
		problems = append(problems, fmt.Sprintf("username must be %d to %d characters", MinUserNameLength, MaxUserNameLength))
	}
	if strings.ContainsAny(username, " \t\r\n;=") {
		problems = append(problems, "username must not contain whitespace, ';' or '='")
	}
	if at := strings.IndexByte(email, '@'); at <= 0 || at == len(email)-1 {
		problems = append(problems, "email must look like name@domain")
	}
	if len(password) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d bytes", MinPasswordLength))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrorValidation, strings.Join(problems, "; "))
	}
	return nil
}
