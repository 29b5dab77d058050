package httpapi

import (
	"errors"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/dmitrijs2005/shortener/internal/shared"
)

var errSecretNotString = errors.New("expected a JSON string")

// secret is a JSON string decoded straight into a byte slice, so that a
// plaintext password never lives in an immutable Go string. Handlers wipe it
// with shared.WipeByteArray.
type secret []byte

func (s *secret) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errSecretNotString
	}
	out, err := unquote(data[1 : len(data)-1])
	if err != nil {
		return err
	}
	*s = out
	return nil
}

var errBadEscape = errors.New("invalid escape in JSON string")

// unquote decodes the body of a JSON string. The output is never longer
// than in, so it is allocated once and never copied while growing.
func unquote(in []byte) ([]byte, error) {
	out := make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		c := in[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(in) {
			shared.WipeByteArray(out)
			return nil, errBadEscape
		}
		switch in[i] {
		case '"', '\\', '/':
			out = append(out, in[i])
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'u':
			r, ok := hex4(in[i+1:])
			if !ok {
				shared.WipeByteArray(out)
				return nil, errBadEscape
			}
			i += 4
			if utf16.IsSurrogate(r) {
				high := r
				r = utf8.RuneError
				if i+6 < len(in) && in[i+1] == '\\' && in[i+2] == 'u' {
					if low, ok := hex4(in[i+3:]); ok {
						if dec := utf16.DecodeRune(high, low); dec != utf8.RuneError {
							r = dec
							i += 6
						}
					}
				}
			}
			out = utf8.AppendRune(out, r)
		default:
			shared.WipeByteArray(out)
			return nil, errBadEscape
		}
	}
	return out, nil
}

func hex4(b []byte) (rune, bool) {
	if len(b) < 4 {
		return 0, false
	}
	var r rune
	for _, c := range b[:4] {
		switch {
		case '0' <= c && c <= '9':
			c -= '0'
		case 'a' <= c && c <= 'f':
			c = c - 'a' + 10
		case 'A' <= c && c <= 'F':
			c = c - 'A' + 10
		default:
			return 0, false
		}
		r = r<<4 | rune(c)
	}
	return r, true
}
