package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/shortener/internal/common"
	"github.com/dmitrijs2005/shortener/internal/metrics"
	"github.com/dmitrijs2005/shortener/internal/server/config"
	"github.com/dmitrijs2005/shortener/internal/server/models"
	"github.com/dmitrijs2005/shortener/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/shortener/internal/shared"
)

const (
	MaxURLLength = 2048

	// windows of the encoded long URL tried before falling back to random codes
	maxWindowAttempts = 32
	maxRandomAttempts = 10
)

// ErrCodeSpaceExhausted is returned when no free short code was found.
var ErrCodeSpaceExhausted = errors.New("no free short code found")

// randomSource feeds random short codes. nil means crypto/rand.
var randomSource io.Reader

// URLService creates, resolves and deletes short links.
type URLService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codeLength  int
	baseURL     string
}

// NewURLService constructs a URLService using the code length and public base
// URL from cfg.
func NewURLService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *URLService {
	return &URLService{
		db:          db,
		repomanager: m,
		codeLength:  cfg.ShortCodeLength,
		baseURL:     strings.TrimRight(cfg.DomainName, "/"),
	}
}

// Shorten stores long under a new short code. Candidate codes are taken from
// consecutive windows of the URL-safe base64 form of long; when all of those
// are taken, random alphanumeric codes are tried.
func (s *URLService) Shorten(ctx context.Context, long string, createdBy *int64) (*models.ShortURL, error) {
	if err := validateLongURL(long); err != nil {
		return nil, err
	}

	repo := s.repomanager.URLs(s.db)
	try := func(code string) (*models.ShortURL, bool, error) {
		u, err := repo.Create(ctx, &models.ShortURL{Short: code, Long: long, CreatedBy: createdBy})
		switch {
		case err == nil:
			return u, true, nil
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, false, nil
		default:
			return nil, false, fmt.Errorf("error creating short url: %w", err)
		}
	}

	for _, code := range windowCandidates(long, s.codeLength, maxWindowAttempts) {
		u, ok, err := try(code)
		if err != nil {
			return nil, err
		}
		if ok {
			return u, nil
		}
	}

	for i := 0; i < maxRandomAttempts; i++ {
		code, err := shared.RandomString(randomSource, shared.Alphanumeric, s.codeLength)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
		}
		u, ok, err := try(code)
		if err != nil {
			return nil, err
		}
		if ok {
			return u, nil
		}
	}
	return nil, ErrCodeSpaceExhausted
}

// Resolve returns the long URL for short and counts the click.
func (s *URLService) Resolve(ctx context.Context, short string) (string, error) {
	repo := s.repomanager.URLs(s.db)

	u, err := repo.GetByShort(ctx, short)
	if err != nil {
		return "", err
	}
	if _, err := repo.IncrementClicks(ctx, short); err != nil {
		return "", err
	}
	metrics.RedirectsTotal.Inc()
	return u.Long, nil
}

// Delete removes short. Only its creator may delete it; anonymous links
// cannot be deleted through the API.
func (s *URLService) Delete(ctx context.Context, short string, userID int64) error {
	repo := s.repomanager.URLs(s.db)

	u, err := repo.GetByShort(ctx, short)
	if err != nil {
		return err
	}
	if u.CreatedBy == nil || *u.CreatedBy != userID {
		return common.ErrorForbidden
	}
	return repo.Delete(ctx, short)
}

// List returns the links created by userID, newest first.
func (s *URLService) List(ctx context.Context, userID int64) ([]*models.ShortURL, error) {
	return s.repomanager.URLs(s.db).ListByUser(ctx, userID)
}

// ShortLink renders the public URL for code.
func (s *URLService) ShortLink(code string) string {
	return s.baseURL + "/r/" + code
}

func validateLongURL(long string) error {
	if long == "" || len(long) > MaxURLLength {
		return fmt.Errorf("%w: url must be 1 to %d bytes", common.ErrorValidation, MaxURLLength)
	}
	u, err := url.Parse(long)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be absolute http or https", common.ErrorValidation)
	}
	return nil
}

// windowCandidates returns up to limit distinct substrings of length n taken
// from the unpadded URL-safe base64 encoding of long.
func windowCandidates(long string, n, limit int) []string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(long))
	if n <= 0 || len(encoded) < n {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for i := 0; i+n <= len(encoded) && len(out) < limit; i++ {
		w := encoded[i : i+n]
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
