package token

import "log/slog"

const redacted = "[REDACTED]"

// Key is an HMAC secret. The bytes are copied at construction and never
// exposed through formatting, logging or JSON.
type Key struct {
	b []byte
}

// NewKey copies secret into a new Key. The caller may wipe secret afterwards.
func NewKey(secret []byte) (*Key, error) {
	if len(secret) == 0 {
		return nil, ErrEmptyKey
	}
	b := make([]byte, len(secret))
	copy(b, secret)
	return &Key{b: b}, nil
}

// Len returns the key length in bytes.
func (k *Key) Len() int { return len(k.b) }

func (k *Key) String() string   { return redacted }
func (k *Key) GoString() string { return redacted }

// LogValue implements slog.LogValuer.
func (k *Key) LogValue() slog.Value { return slog.StringValue(redacted) }

// MarshalJSON implements json.Marshaler.
func (k *Key) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }

func (k *Key) bytes() []byte { return k.b }
