// Package session issues session cookies on login and authenticates later
// requests from the cookie they carry.
//
// Login checks a name and password against an IdentityStore and, on success,
// returns a signed token wrapped in a Set-Cookie value. Authenticate runs the
// reverse path and classifies every request into one Status. Callers at the
// HTTP boundary collapse every status other than StatusAuthenticated into a
// single "not authenticated" response.
package session
