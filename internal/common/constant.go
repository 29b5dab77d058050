package common

// DefaultSessionCookieName is the cookie that carries the signed session token
// when no other name is configured.
const DefaultSessionCookieName = "Bearer"

// TokenType is the "typ" header value of every session token.
const TokenType = "JWT"
