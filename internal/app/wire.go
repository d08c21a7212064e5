package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/plugmirror/internal/adapters/cachestore"
	"github.com/felixgeelhaar/plugmirror/internal/adapters/command"
	"github.com/felixgeelhaar/plugmirror/internal/adapters/htmlindex"
	"github.com/felixgeelhaar/plugmirror/internal/adapters/httpfetch"
	"github.com/felixgeelhaar/plugmirror/internal/adapters/metrics"
	"github.com/felixgeelhaar/plugmirror/internal/adapters/prefetch"
	"github.com/felixgeelhaar/plugmirror/internal/domain/config"
	"github.com/felixgeelhaar/plugmirror/internal/domain/manifest"
	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
	"github.com/felixgeelhaar/plugmirror/internal/ports"
)

// Services holds the components built from a Config.
type Services struct {
	Config   *config.Config
	Crawler  *mirror.Crawler
	Resolver *mirror.Resolver
	Cache    cachestore.Store
	Hasher   *prefetch.Hasher
	Template manifest.Template
	Logger   ports.Logger
	Metrics  *metrics.Recorder
}

// Wire builds real implementations for cfg. The caller must Close the
// result.
func Wire(ctx context.Context, cfg *config.Config, logger ports.Logger, rec *metrics.Recorder) (*Services, error) {
	tmpl := manifest.DefaultTemplate()
	tmpl.Builder = cfg.Manifest.Builder
	tmpl.Fetcher = cfg.Manifest.Fetcher
	tmpl, err := tmpl.WithFiles(cfg.Manifest.HeaderFile, cfg.Manifest.FooterFile)
	if err != nil {
		return nil, err
	}

	store, err := cachestore.Open(ctx, cfg.Cache)
	if err != nil {
		if errors.Is(err, mirror.ErrCacheCorrupt) {
			return nil, config.NewCacheCorruptError(cachestore.Describe(cfg.Cache), err)
		}
		return nil, fmt.Errorf("failed to open %s cache: %w", cfg.Cache.Backend, err)
	}

	fetcher := newFetcher(cfg)
	links := htmlindex.New()
	hasher := prefetch.New(command.NewRealRunner(),
		prefetch.WithCommand(cfg.Hasher.Command, cfg.Hasher.Args...),
		prefetch.WithTimeout(cfg.HasherTimeout()),
	)

	return &Services{
		Config:  cfg,
		Crawler: mirror.NewCrawler(fetcher, links, cfg.Repository.Root),
		Resolver: mirror.NewResolver(fetcher, links, hasher, store, cfg.Repository.Domain,
			mirror.WithExtension(cfg.Repository.Extension),
			mirror.WithSkipVersion(cfg.Repository.SkipVersion),
		),
		Cache:    store,
		Hasher:   hasher,
		Template: tmpl,
		Logger:   logger,
		Metrics:  rec,
	}, nil
}

// Mirror returns the pipeline configured from the services.
func (s *Services) Mirror(opts ...Option) *Mirror {
	base := []Option{
		WithPolicy(s.Config.Policy()),
		WithLogger(s.Logger),
		WithMetrics(s.Metrics),
		WithCacheLocation(s.Cache.Location()),
		WithHasherCommand(s.Hasher.Command()),
	}
	return NewMirror(s.Crawler, s.Resolver, s.Template, append(base, opts...)...)
}

// Explain converts an error from resolving pageURL into a user-facing
// error where one applies.
func (s *Services) Explain(err error, pageURL string) error {
	if errors.Is(err, mirror.ErrTransport) || errors.Is(err, mirror.ErrParse) {
		return config.NewIndexUnavailableError(pageURL, err)
	}
	return classify(err, s.Cache.Location(), s.Hasher.Command())
}

// Close releases the cache backend.
func (s *Services) Close() error {
	return s.Cache.Close()
}

// NewCrawler builds an index crawler without opening the cache.
func NewCrawler(cfg *config.Config) *mirror.Crawler {
	return mirror.NewCrawler(newFetcher(cfg), htmlindex.New(), cfg.Repository.Root)
}

func newFetcher(cfg *config.Config) *httpfetch.Client {
	return httpfetch.New(httpfetch.Config{
		Timeout:   cfg.HTTPTimeout(),
		UserAgent: cfg.HTTP.UserAgent,
	})
}
