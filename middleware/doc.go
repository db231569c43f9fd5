// Package middleware adapts the authenticated request pipeline to plain
// net/http clients. [Pipeline] wraps an http.RoundTripper so existing code
// using *http.Client gets token attachment and the single refresh-and-replay
// without switching to the Call API.
package middleware
