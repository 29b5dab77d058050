package token

import (
	"bytes"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/shortener/internal/common"
)

var (
	segmentEncoding = base64.RawURLEncoding.Strict()
	errTrailingData = errors.New("trailing data after JSON value")
)

// Codec signs and verifies tokens with a single key and a pinned algorithm.
type Codec struct {
	alg Algorithm
	key *Key
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithAlgorithm pins the algorithm accepted by ParseAndVerify. The default is
// HS256.
func WithAlgorithm(alg Algorithm) CodecOption {
	return func(c *Codec) { c.alg = alg }
}

// NewCodec returns a Codec bound to key.
func NewCodec(key *Key, opts ...CodecOption) (*Codec, error) {
	if key == nil || key.Len() == 0 {
		return nil, ErrEmptyKey
	}
	c := &Codec{alg: HS256, key: key}
	for _, opt := range opts {
		opt(c)
	}
	if _, err := c.alg.newMAC(nil); err != nil {
		return nil, err
	}
	return c, nil
}

// Algorithm returns the pinned algorithm.
func (c *Codec) Algorithm() Algorithm { return c.alg }

// Finalize encodes and signs t and returns the wire string. A header naming
// any algorithm other than the pinned one yields ErrUnsupportedAlgorithm.
func (c *Codec) Finalize(t Token) (string, error) {
	if t.Header.Alg != c.alg {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, t.Header.Alg)
	}

	h, err := t.Header.Canonical()
	if err != nil {
		return "", fmt.Errorf("encode header: %w", err)
	}
	p, err := t.Payload.Canonical()
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	signingInput := segmentEncoding.EncodeToString(h) + "." + segmentEncoding.EncodeToString(p)
	sig, err := c.sign(t.Header.Alg, signingInput)
	if err != nil {
		return "", err
	}
	return signingInput + "." + sig, nil
}

// Seal is Finalize returning the sealed token alongside the wire string.
func (c *Codec) Seal(t Token) (Token, string, error) {
	wire, err := c.Finalize(t)
	if err != nil {
		return Token{}, "", err
	}
	t.Signature = wire[strings.LastIndexByte(wire, '.')+1:]
	t.state = Sealed
	return t, wire, nil
}

// ParseAndVerify decodes wire and checks its signature. It does not look at
// the expiry; callers check Payload.Expired against their own clock.
func (c *Codec) ParseAndVerify(wire string) (Token, Payload, error) {
	parts := strings.Split(wire, ".")
	if len(parts) != 3 {
		return Token{}, Payload{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}
	for _, s := range parts {
		if s == "" {
			return Token{}, Payload{}, fmt.Errorf("%w: empty segment", ErrMalformed)
		}
	}

	var h Header
	if err := decodeSegment(parts[0], &h); err != nil {
		return Token{}, Payload{}, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	if h.Typ != common.TokenType {
		return Token{}, Payload{}, fmt.Errorf("%w: header typ %q", ErrMalformed, h.Typ)
	}
	var p Payload
	if err := decodeSegment(parts[1], &p); err != nil {
		return Token{}, Payload{}, fmt.Errorf("%w: payload: %v", ErrMalformed, err)
	}
	if _, err := segmentEncoding.DecodeString(parts[2]); err != nil {
		return Token{}, Payload{}, fmt.Errorf("%w: signature: %v", ErrMalformed, err)
	}

	if h.Alg != c.alg {
		return Token{}, Payload{}, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, h.Alg)
	}

	expected, err := c.sign(h.Alg, parts[0]+"."+parts[1])
	if err != nil {
		return Token{}, Payload{}, err
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(parts[2])) != 1 {
		return Token{}, Payload{}, ErrSignatureMismatch
	}

	return Token{Header: h, Payload: p, Signature: parts[2], state: Received}, p, nil
}

func (c *Codec) sign(alg Algorithm, signingInput string) (string, error) {
	mac, err := alg.newMAC(c.key.bytes())
	if err != nil {
		return "", err
	}
	mac.Write([]byte(signingInput))
	return segmentEncoding.EncodeToString(mac.Sum(nil)), nil
}

func decodeSegment(seg string, v any) error {
	raw, err := segmentEncoding.DecodeString(seg)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}
