// Package jwt decodes access token claims on the client side without
// verifying signatures. The server is the token authority; the client only
// reads claims as hints (subject for audit attribution, expiry for display).
// Authorization decisions never depend on these claims.
package jwt
