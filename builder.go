package authgate

import (
	"context"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/veylan/authgate/session"
)

// Builder assembles a Client. Setters return the builder for chaining; Build
// is one-shot and the builder must not be reused afterwards.
type Builder struct {
	cfg        Config
	cfgSet     bool
	httpClient *http.Client
	storage    session.Storage
	redis      redis.UniversalClient
	navigator  Navigator
	auditSink  AuditSink
	built      bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithConfig replaces the whole configuration. Zero fields are defaulted at
// Build time.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	b.cfgSet = true
	return b
}

// WithBaseURL sets the API origin without replacing the rest of the config.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.cfg.API.BaseURL = baseURL
	return b
}

// WithHTTPClient sets the client used for pipeline requests. The refresh
// round-trip always uses its own bare client so it cannot recurse into the
// pipeline.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithStorage sets the credential persistence backend. Takes precedence over
// WithRedis.
func (b *Builder) WithStorage(s session.Storage) *Builder {
	b.storage = s
	return b
}

// WithRedis persists credentials in Redis under the configured namespace.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithNavigator sets the redirect receiver used on forced logout and by the
// route guard.
func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

// WithAuditSink enables audit and routes events to the sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.cfg.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.cfg.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the request latency histogram. Implies
// nothing unless metrics are enabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.cfg.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, resolves storage, hydrates any
// persisted session, and returns a ready Client. The context bounds the
// hydration read.
func (b *Builder) Build(ctx context.Context) (*Client, error) {
	if b.built {
		return nil, errors.New("authgate: builder already used")
	}
	b.built = true

	cfg := b.cfg
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	storage := b.storage
	if storage == nil && b.redis != nil {
		storage = session.NewRedisStorage(b.redis, cfg.Storage.Namespace)
	}
	store := session.NewStore(storage)
	if err := store.Hydrate(ctx); err != nil {
		return nil, err
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.RequestTimeout}
	}

	c := &Client{
		config:     cfg,
		sessions:   store,
		httpClient: httpClient,
		// The refresh client shares the transport but not the pipeline, so a
		// 401 from the refresh endpoint can never trigger another refresh.
		refreshHTTP: &http.Client{
			Transport: httpClient.Transport,
			Timeout:   cfg.API.RefreshTimeout,
		},
		navigator: b.navigator,
		metrics:   NewMetrics(cfg.Metrics),
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink),
	}
	return c, nil
}
