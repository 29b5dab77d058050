package token

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/shortener/internal/common"
)

// Header is the first token segment.
type Header struct {
	Alg Algorithm `json:"alg"`
	Typ string    `json:"typ"`
}

// Canonical returns the JSON encoding of h. Field order is fixed and there is
// no insignificant whitespace, so equal headers encode to equal bytes.
func (h Header) Canonical() ([]byte, error) {
	return json.Marshal(h)
}

// Payload is the second token segment and carries the identity claims.
// IssuedAt and ExpiresAt are unix seconds.
type Payload struct {
	Subject   int64  `json:"sub"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IssuedAt  uint64 `json:"iat"`
	ExpiresAt uint64 `json:"exp"`
}

// Canonical returns the JSON encoding of p with a fixed field order.
func (p Payload) Canonical() ([]byte, error) {
	return json.Marshal(p)
}

// Expired reports whether p is no longer valid at now. A token is valid only
// while its expiry is strictly after the current time.
func (p Payload) Expired(now time.Time) bool {
	n := now.Unix()
	if n < 0 {
		return false
	}
	return p.ExpiresAt <= uint64(n)
}

// Validate returns ErrExpired if p has expired at now.
func (p Payload) Validate(now time.Time) error {
	if p.Expired(now) {
		return ErrExpired
	}
	return nil
}

// IssuedAtTime returns IssuedAt as a time.Time.
func (p Payload) IssuedAtTime() time.Time {
	return time.Unix(int64(p.IssuedAt), 0)
}

// ExpiresAtTime returns ExpiresAt as a time.Time.
func (p Payload) ExpiresAtTime() time.Time {
	return time.Unix(int64(p.ExpiresAt), 0)
}

// State tracks where a Token came from.
type State int

const (
	// Unsealed tokens were built locally and carry no signature yet.
	Unsealed State = iota
	// Received tokens were decoded from the wire and verified.
	Received
	// Sealed tokens were signed by a Codec.
	Sealed
)

func (s State) String() string {
	switch s {
	case Unsealed:
		return "unsealed"
	case Received:
		return "received"
	case Sealed:
		return "sealed"
	default:
		return "unknown"
	}
}

// Token is a header, a payload and, once sealed or received, the encoded
// signature segment.
type Token struct {
	Header    Header
	Payload   Payload
	Signature string

	state State
}

// New returns an unsealed HS256 token for payload.
func New(payload Payload) Token {
	return Token{
		Header:  Header{Alg: HS256, Typ: common.TokenType},
		Payload: payload,
		state:   Unsealed,
	}
}

// State returns the lifecycle state of t.
func (t Token) State() State {
	return t.state
}
