// Package token builds, signs and verifies the compact three-segment session
// tokens carried in the session cookie.
//
// The wire form is
//
//	base64url(header).base64url(payload).base64url(hmac)
//
// with unpadded URL-safe base64 in every segment. Only HMAC-SHA256 is
// executable. Other algorithm names are recognised so that tokens naming them
// are rejected with ErrUnsupportedAlgorithm rather than a parse error.
//
// A Codec is bound to one Key and one algorithm at construction and is safe
// for concurrent use.
package token
