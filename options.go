package querycore

import (
	"time"

	"github.com/querycore/querycore/cacheprovider"
	"github.com/querycore/querycore/refresh"
)

// Cache provider names, resolved against the Core's provider registry.
const (
	ProviderMemory      = "memory"
	ProviderLocalKV     = "localKV"
	ProviderObjectStore = "objectStore"
)

// config is the Core-wide configuration built up by Option values,
// following the teacher's pcache.Option / getOpts shape.
type config struct {
	defaultCacheProvider string
	defaultRefetchAfter  time.Duration

	providers map[string]cacheprovider.Provider

	orchestrator *refresh.Orchestrator
	diagSink     func(DiagnosticEvent)
}

// Option configures a Core at construction time.
type Option func(*config)

func getOpts(opts []Option) config {
	cfg := config{
		defaultCacheProvider: ProviderMemory,
		providers:            make(map[string]cacheprovider.Provider),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithDefaultCacheProvider sets the cache provider name used by endpoints
// that do not specify one of their own. Default is "memory".
func WithDefaultCacheProvider(name string) Option {
	return func(c *config) { c.defaultCacheProvider = name }
}

// WithDefaultRefetchAfter sets the staleness window used by endpoints that
// do not specify one of their own. Zero (the default) disables time-based
// staleness entirely — endpoints are only refreshed on subscribe-if-empty
// and on an unconditional online event.
func WithDefaultRefetchAfter(d time.Duration) Option {
	return func(c *config) { c.defaultRefetchAfter = d }
}

// WithCacheProvider registers a cacheprovider.Provider under name so that
// endpoints can select it via EndpointOptions.CacheProvider. Registering
// under one of the three reserved names (ProviderMemory, ProviderLocalKV,
// ProviderObjectStore) replaces the Core's otherwise-default instance for
// that name.
func WithCacheProvider(name string, p cacheprovider.Provider) Option {
	return func(c *config) { c.providers[name] = p }
}

// WithOrchestrator attaches a refresh orchestrator. The Core detaches
// itself from any previously attached orchestrator on Close.
func WithOrchestrator(o *refresh.Orchestrator) Option {
	return func(c *config) { c.orchestrator = o }
}

// WithDiagnosticSink registers a callback that receives a DiagnosticEvent
// for every error a cache provider returns to the core and for every cache
// entry the core cannot encode or decode. Recovered listener panics are
// logged but not sent to the sink. It is never called for producer errors,
// which are surfaced through EndpointState instead.
func WithDiagnosticSink(fn func(DiagnosticEvent)) Option {
	return func(c *config) { c.diagSink = fn }
}

// EndpointOptions configures a single endpoint, overriding the Core's
// defaults field by field. An empty CacheProvider or zero RefetchAfter
// means "inherit the Core default."
type EndpointOptions struct {
	CacheProvider string
	RefetchAfter  time.Duration
}

func (o EndpointOptions) merge(defaults config) EndpointOptions {
	merged := o
	if merged.CacheProvider == "" {
		merged.CacheProvider = defaults.defaultCacheProvider
	}
	if merged.RefetchAfter == 0 {
		merged.RefetchAfter = defaults.defaultRefetchAfter
	}
	return merged
}

// DiagnosticEvent is an optional, best-effort diagnostic emitted when the
// core swallows a cache error. It exists for observability only — nothing
// about querycore's correctness depends on a sink being registered or
// acting on these events.
type DiagnosticEvent struct {
	Key  string
	Kind string // "cache_get", "cache_set", "cache_remove"
	Err  error
}
