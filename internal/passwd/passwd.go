// Package passwd derives and verifies salted SHA-512 password hashes.
//
// A stored hash has the form
//
//	<salt>#<hex(sha512(salt || password))>
//
// where the salt is a random alphanumeric string (15 characters for newly
// derived hashes). Verification splits the stored value at the first '#',
// so the salt alphabet must never contain the delimiter; this is checked when
// the package is initialised.
//
// Plaintext passwords are passed as byte slices owned by the caller. The
// package never retains them and wipes every intermediate buffer that holds
// password material before returning.
package passwd

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/shortener/internal/shared"
)

const (
	// Delimiter separates the salt from the hex digest in a stored hash.
	Delimiter = '#'
	// DefaultSaltLength is the length of salts produced by Derive.
	DefaultSaltLength = 15
	// SaltAlphabet is the set of characters salts are drawn from.
	SaltAlphabet = shared.Alphanumeric
)

var (
	// ErrMalformedCredentialRecord means a stored hash has no delimiter. This is
	// corrupted stored state, not a wrong password.
	ErrMalformedCredentialRecord = errors.New("malformed credential record")
	// ErrInvalidSaltLength is returned for a non-positive salt length option.
	ErrInvalidSaltLength = errors.New("invalid salt length")
)

func init() {
	if strings.ContainsRune(SaltAlphabet, Delimiter) {
		panic("passwd: salt alphabet contains the hash delimiter")
	}
}

// Hasher derives and verifies stored password hashes.
type Hasher interface {
	Derive(plaintext []byte) (string, error)
	Verify(plaintext []byte, stored string) (bool, error)
}

// SHA512Hasher implements Hasher with a random alphanumeric salt and SHA-512.
// It holds no mutable state and is safe for concurrent use.
type SHA512Hasher struct {
	saltLength int
	random     io.Reader
}

// Option customises a SHA512Hasher.
type Option func(*SHA512Hasher)

// WithSaltLength overrides DefaultSaltLength for derived hashes.
func WithSaltLength(n int) Option {
	return func(h *SHA512Hasher) { h.saltLength = n }
}

// WithRandom sets the entropy source used for salts. Intended for tests;
// production code should keep the default crypto/rand reader.
func WithRandom(r io.Reader) Option {
	return func(h *SHA512Hasher) { h.random = r }
}

// NewSHA512Hasher returns a hasher configured with opts.
func NewSHA512Hasher(opts ...Option) (*SHA512Hasher, error) {
	h := &SHA512Hasher{saltLength: DefaultSaltLength}
	for _, opt := range opts {
		opt(h)
	}
	if h.saltLength <= 0 {
		return nil, ErrInvalidSaltLength
	}
	return h, nil
}

// Derive generates a fresh salt and returns the stored form of plaintext.
// Two calls with the same plaintext return different values.
func (h *SHA512Hasher) Derive(plaintext []byte) (string, error) {
	salt, err := shared.RandomString(h.random, SaltAlphabet, h.saltLength)
	if err != nil {
		return "", fmt.Errorf("salt generation: %w", err)
	}
	return salt + string(Delimiter) + digest(salt, plaintext), nil
}

// Verify reports whether plaintext matches stored. It returns
// ErrMalformedCredentialRecord if stored has no delimiter.
func (h *SHA512Hasher) Verify(plaintext []byte, stored string) (bool, error) {
	salt, expected, found := strings.Cut(stored, string(Delimiter))
	if !found {
		return false, ErrMalformedCredentialRecord
	}
	actual := digest(salt, plaintext)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1, nil
}

// digest returns hex(sha512(salt || plaintext)). The concatenation buffer is
// wiped before returning.
func digest(salt string, plaintext []byte) string {
	salted := make([]byte, 0, len(salt)+len(plaintext))
	defer func() { shared.WipeByteArray(salted) }()

	salted = append(salted, salt...)
	salted = append(salted, plaintext...)

	sum := sha512.Sum512(salted)
	defer shared.WipeByteArray(sum[:])
	return hex.EncodeToString(sum[:])
}
