// Package internaldefs holds the metric name table shared by the exporters.
// It is internal to metrics/export; the names are the stable public surface.
package internaldefs

import (
	authgate "github.com/veylan/authgate"
)

// CounterDef binds a core metric ID to its exported name and help text.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// HistogramDef binds a core histogram ID to its exported name and help text.
type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in ID order.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful logins."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Rejected login attempts."},
	{ID: authgate.MetricRefreshSuccess, Name: "authgate_refresh_success_total", Help: "Refresh round-trips that produced a new credential pair."},
	{ID: authgate.MetricRefreshFailure, Name: "authgate_refresh_failure_total", Help: "Refresh attempts rejected by the server or lost to transport failures."},
	{ID: authgate.MetricRefreshCoalesced, Name: "authgate_refresh_coalesced_total", Help: "Requests that waited on an in-flight refresh instead of issuing their own."},
	{ID: authgate.MetricRequestReplayed, Name: "authgate_request_replayed_total", Help: "Requests replayed once after a refresh."},
	{ID: authgate.MetricUnauthorized, Name: "authgate_unauthorized_total", Help: "Requests still unauthorized after their single replay."},
	{ID: authgate.MetricForbidden, Name: "authgate_forbidden_total", Help: "Permission rejections."},
	{ID: authgate.MetricBusinessError, Name: "authgate_business_error_total", Help: "Responses with a non-zero envelope code."},
	{ID: authgate.MetricTransportError, Name: "authgate_transport_error_total", Help: "Network failures and non-envelope HTTP statuses."},
	{ID: authgate.MetricLogout, Name: "authgate_logout_total", Help: "Explicit logouts that found an active session."},
	{ID: authgate.MetricSessionCleared, Name: "authgate_session_cleared_total", Help: "Forced session terminations on the refresh failure path."},
}

// HistogramDefs lists every exported histogram in ID order.
var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricRequestLatency, Name: "authgate_request_latency_seconds", Help: "Request latency histogram, replay included."},
}

// HistogramBounds are the upper bucket bounds in seconds, Prometheus style.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in
// instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
