package lookup

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/mesh-intelligence/internallink/internal/logger"
	"github.com/mesh-intelligence/internallink/internal/metrics"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

// Service is the error-free face of a Provider. It is safe for concurrent
// use; lookups typically run on their own goroutines.
type Service struct {
	provider Provider
	timeout  time.Duration
	log      *logger.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	titles map[string]string
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds every lookup. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMetrics records lookups in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wraps p.
func NewService(p Provider, opts ...Option) *Service {
	s := &Service{
		provider: p,
		timeout:  types.DefaultLookupTimeout,
		log:      logger.Nop(),
		titles:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewProvider picks the provider described by cfg: canned data in test
// mode, the remote service when a URL is configured, otherwise the catalog
// when one is given. With none of them every lookup comes back empty.
func NewProvider(cfg types.Config, catalog types.Catalog, client *http.Client) Provider {
	switch {
	case cfg.TestMode:
		return StaticProvider{}
	case cfg.AutocompleteURL != "" || cfg.TitleURL != "":
		return NewHTTPProvider(cfg.AutocompleteURL, cfg.TitleURL, client)
	case catalog != nil:
		return NewCatalogProvider(catalog, 0)
	default:
		return NewHTTPProvider("", "", client)
	}
}

// FindCandidates returns the autocomplete entries for term. Failures yield
// an empty list.
func (s *Service) FindCandidates(ctx context.Context, term string) []Candidate {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	candidates, err := s.provider.FindCandidates(ctx, term)
	s.observe(metrics.OpCandidates, term, start, err)
	if err != nil {
		return nil
	}
	return candidates
}

// ResolveTitle returns the display title of id. Failures yield "".
// Successful titles are cached for the lifetime of the Service.
func (s *Service) ResolveTitle(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	s.mu.Lock()
	title, ok := s.titles[id]
	s.mu.Unlock()
	if ok {
		s.metrics.RecordCacheHit()
		return title
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	title, err := s.provider.ResolveTitle(ctx, id)
	s.observe(metrics.OpTitle, id, start, err)
	if err != nil {
		return ""
	}
	if title != "" {
		s.mu.Lock()
		s.titles[id] = title
		s.mu.Unlock()
	}
	return title
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) observe(op, key string, start time.Time, err error) {
	d := time.Since(start)
	s.metrics.RecordLookup(op, metrics.Status(err), d)
	s.log.LogLookup(op, key, d, err)
}
