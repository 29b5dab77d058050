package token

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey_CopiesSecret(t *testing.T) {
	secret := []byte("Happy Test")
	key, err := NewKey(secret)
	require.NoError(t, err)

	secret[0] = 'X'
	assert.Equal(t, []byte("Happy Test"), key.bytes())
	assert.Equal(t, 10, key.Len())
}

func TestNewKey_Empty(t *testing.T) {
	_, err := NewKey(nil)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, err = NewKey([]byte{})
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestKey_NeverPrinted(t *testing.T) {
	key, err := NewKey([]byte("super-secret-value"))
	require.NoError(t, err)

	for _, s := range []string{
		fmt.Sprintf("%v", key),
		fmt.Sprintf("%s", key),
		fmt.Sprintf("%+v", key),
		fmt.Sprintf("%#v", key),
	} {
		assert.NotContains(t, s, "super-secret-value")
	}

	js, err := json.Marshal(struct{ Key *Key }{key})
	require.NoError(t, err)
	assert.NotContains(t, string(js), "super-secret-value")

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("codec", "key", key)
	assert.NotContains(t, buf.String(), "super-secret-value")
	assert.Contains(t, buf.String(), redacted)
}
