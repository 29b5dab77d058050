// Package shared provides small helpers for random string generation and
// secure memory wiping that are used by the password and session code.
package shared

import (
	"crypto/rand"
	"errors"
	"io"
)

// Alphanumeric is the alphabet used for password salts and short codes.
const Alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ErrEmptyAlphabet is returned by RandomString when it has nothing to draw from.
var ErrEmptyAlphabet = errors.New("empty alphabet")

// RandomString returns n characters drawn uniformly from alphabet using
// random bytes read from r. If r is nil, crypto/rand.Reader is used.
//
// Bytes that would introduce modulo bias are discarded, so every character
// of the alphabet has the same probability. The alphabet must contain at most
// 256 distinct single-byte characters.
//
// Example:
//
//	salt, err := RandomString(nil, Alphanumeric, 15)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(salt) // e.g., "q3ZrT0xk9PbAa1L"
func RandomString(r io.Reader, alphabet string, n int) (string, error) {
	if len(alphabet) == 0 || len(alphabet) > 256 {
		return "", ErrEmptyAlphabet
	}
	if r == nil {
		r = rand.Reader
	}
	if n <= 0 {
		return "", nil
	}

	// largest multiple of len(alphabet) that fits in a byte
	limit := 256 - (256 % len(alphabet))

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		chunk := buf[:n-len(out)]
		if _, err := io.ReadFull(r, chunk); err != nil {
			return "", err
		}
		for _, b := range chunk {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
		}
	}
	return string(out), nil
}

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// It is used to drop plaintext passwords from memory as soon as they are no
// longer needed.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	clear(b)
}
