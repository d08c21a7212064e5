// Package app runs the mirror pipeline: crawl the index, pick versions,
// resolve hashes, and stream the manifest.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/plugmirror/internal/adapters/logging"
	"github.com/felixgeelhaar/plugmirror/internal/adapters/metrics"
	"github.com/felixgeelhaar/plugmirror/internal/adapters/prefetch"
	"github.com/felixgeelhaar/plugmirror/internal/domain/config"
	"github.com/felixgeelhaar/plugmirror/internal/domain/manifest"
	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
	"github.com/felixgeelhaar/plugmirror/internal/ports"
)

// Mirror is the main application orchestrator.
type Mirror struct {
	crawler       *mirror.Crawler
	resolver      *mirror.Resolver
	tmpl          manifest.Template
	policy        mirror.Policy
	logger        ports.Logger
	metrics       *metrics.Recorder
	cacheLocation string
	hasherCommand string
	now           func() time.Time
	newRunID      func() string
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithPolicy sets the version selection policy.
func WithPolicy(p mirror.Policy) Option {
	return func(m *Mirror) {
		if p != "" {
			m.policy = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l ports.Logger) Option {
	return func(m *Mirror) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Mirror) {
		m.metrics = r
	}
}

// WithCacheLocation names the cache in error messages.
func WithCacheLocation(location string) Option {
	return func(m *Mirror) {
		m.cacheLocation = location
	}
}

// WithHasherCommand names the hashing program in error messages.
func WithHasherCommand(command string) Option {
	return func(m *Mirror) {
		m.hasherCommand = command
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Mirror) {
		m.now = now
	}
}

// WithRunID fixes the run identifier.
func WithRunID(id string) Option {
	return func(m *Mirror) {
		m.newRunID = func() string { return id }
	}
}

// NewMirror creates a Mirror.
func NewMirror(crawler *mirror.Crawler, resolver *mirror.Resolver, tmpl manifest.Template, opts ...Option) *Mirror {
	m := &Mirror{
		crawler:       crawler,
		resolver:      resolver,
		tmpl:          tmpl,
		policy:        mirror.PolicyPageOrder,
		logger:        logging.NewNopLogger(),
		hasherCommand: prefetch.DefaultCommand,
		now:           time.Now,
		newRunID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate writes the manifest to path. The file is truncated first and
// written as records resolve; a failed run leaves it partial.
func (m *Mirror) Generate(ctx context.Context, path string) (*Summary, error) {
	w, err := manifest.Create(path, m.tmpl)
	if err != nil {
		return nil, err
	}
	summary, err := m.Run(ctx, w)
	if summary != nil {
		summary.Output = path
	}
	return summary, err
}

// Run streams the manifest into w and closes it. On failure w is aborted
// without a footer.
func (m *Mirror) Run(ctx context.Context, w *manifest.Writer) (*Summary, error) {
	runID := m.newRunID()
	log := m.logger.With(ports.F("run_id", runID))
	ctx = ports.ContextWithLogger(ctx, log)

	lc, err := NewLifecycle(runID, m.now)
	if err != nil {
		return nil, err
	}
	defer lc.Stop()

	summary := &Summary{RunID: runID, Policy: m.policy}

	fail := func(err error) (*Summary, error) {
		_ = w.Abort()
		lc.Fail(err)
		m.finish(summary, lc, w)
		log.Error(ctx, "run failed", ports.Err(err),
			ports.F("plugins", summary.Plugins), ports.F("records", summary.Records))
		return summary, err
	}

	lc.Begin()
	log.Info(ctx, "run started", ports.F("root", m.crawler.Root()), ports.F("policy", string(m.policy)))

	if err := w.Begin(); err != nil {
		return fail(err)
	}

	for listing, err := range m.crawler.Discover(ctx) {
		if err != nil {
			return fail(config.NewIndexUnavailableError(m.crawler.Root(), err))
		}
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if summary.Plugins == 0 {
			lc.Resolving()
		}
		summary.Plugins++
		m.metrics.PluginDiscovered()

		if err := m.mirrorPlugin(ctx, log, listing, w, summary); err != nil {
			return fail(err)
		}
	}

	lc.Finalizing()
	if err := w.Close(); err != nil {
		return fail(err)
	}
	lc.Complete()
	m.finish(summary, lc, w)

	log.Info(ctx, "run completed",
		ports.F("plugins", summary.Plugins),
		ports.F("records", summary.Records),
		ports.F("cache_hits", summary.CacheHits),
		ports.F("hashed", summary.Hashed),
		ports.F("broken", summary.Broken),
		ports.F("skipped", summary.Skipped),
		ports.F("duration", summary.Duration().String()))
	return summary, nil
}

func (m *Mirror) mirrorPlugin(ctx context.Context, log ports.Logger, listing string, w *manifest.Writer, summary *Summary) error {
	name := mirror.PluginName(listing)
	log.Debug(ctx, "resolving plugin", ports.F("plugin", name), ports.F("listing", listing))

	candidates, err := m.resolver.Candidates(ctx, listing)
	if err != nil {
		return config.NewIndexUnavailableError(listing, err)
	}

	selected := m.policy.Select(candidates)
	if len(selected) == 0 {
		summary.Skipped++
		m.metrics.PluginSkipped()
		log.Warn(ctx, "no eligible version, skipping plugin", ports.F("plugin", name), ports.F("listing", listing))
		return nil
	}

	for _, c := range selected {
		start := m.now()
		res, err := m.resolver.Resolve(ctx, c)
		if err != nil {
			return m.classify(err)
		}
		m.metrics.Resolved(res.Effect, m.now().Sub(start))

		fields := []ports.Field{
			ports.F("plugin", c.Name),
			ports.F("version", c.Version),
			ports.F("effect", res.Effect.String()),
		}
		switch res.Effect {
		case mirror.EffectBroken:
			log.Warn(ctx, "artifact unavailable, writing broken marker",
				append(fields, ports.F("url", c.URL), ports.Err(res.Cause))...)
		case mirror.EffectHashed:
			log.Info(ctx, "hashed artifact", fields...)
		default:
			log.Debug(ctx, "cache hit", fields...)
		}

		if err := w.Add(res.Record); err != nil {
			return err
		}
		summary.count(res)
	}
	return nil
}

func (m *Mirror) classify(err error) error {
	return classify(err, m.cacheLocation, m.hasherCommand)
}

// classify turns resolution failures into user-facing errors.
func classify(err error, cacheLocation, hasherCommand string) error {
	switch {
	case errors.Is(err, mirror.ErrCacheCorrupt):
		return config.NewCacheCorruptError(cacheLocation, err)
	case errors.Is(err, prefetch.ErrCommandNotFound):
		return config.NewHasherMissingError(hasherCommand, err)
	default:
		return err
	}
}

// finish copies the lifecycle's outcome into the summary.
func (m *Mirror) finish(summary *Summary, lc *Lifecycle, w *manifest.Writer) {
	summary.Phase = lc.Phase()
	summary.Err = lc.Err()
	summary.StartedAt = lc.StartedAt()
	summary.FinishedAt = lc.FinishedAt()
	summary.Records = w.Count()
	m.metrics.RunFinished(summary.Duration(), summary.Err, summary.FinishedAt)
}
