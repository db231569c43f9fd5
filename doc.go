// Package authgate is the authenticated request pipeline for token-based REST
// portals: it attaches credentials to outbound calls, detects credential
// expiry from server responses, coordinates a single-flight token refresh
// across any number of concurrently failing requests, replays those requests
// with the fresh credential, and falls back to a clean idempotent logout when
// refresh is impossible. On top of the pipeline it provides role→permission
// flattening with a super-admin override, route guarding, and element gating.
//
// The package is designed for concurrent client workloads: Client methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Client], [Builder], [Config],
// and value types (Credential, AuditEvent, MetricsSnapshot, RouteSpec, etc.).
// Credential and identity state lives in session/, the permission model in
// permission/, token claim decoding in jwt/, and the http.RoundTripper form
// of the pipeline in middleware/. Metric export lives under metrics/export/.
//
// # What this package must NOT do
//
//   - Hold signing keys or verify token signatures; the server is the token
//     authority and the client treats tokens as opaque apart from claim hints.
//   - Issue more than one refresh round-trip for any burst of expired
//     requests, or retry a refresh that failed.
//   - Mutate session state on business or forbidden errors; only the expiry
//     path may terminate a session.
//
// # Failure contract
//
// Every call resolves to exactly one of: decoded payload, *BusinessError,
// ErrForbidden, ErrUnauthorized, a refresh-failure sentinel
// (ErrRefreshFailed, ErrNoRefreshToken), or *TransportError. Refresh failure
// is terminal: local session state is cleared before the caller sees the
// error, so a login surface never renders stale authenticated state.
package authgate
