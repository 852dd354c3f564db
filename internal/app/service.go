// Package service implements the catalog, rating and contribution operations
// behind the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/skillhub/internal/adapters/fscatalog"
	"github.com/okian/skillhub/internal/adapters/kv"
	"github.com/okian/skillhub/internal/domain/skill"
	"github.com/okian/skillhub/pkg/logger"
)

const defaultScanCount = 100

// Catalog is the read side of the skill source tree.
type Catalog interface {
	LoadAll(ctx context.Context) ([]skill.Skill, error)
	Load(slug string) (skill.Skill, error)
	Has(slug string) bool
}

// Service implements the skillhub operations. It holds no request state;
// everything mutable lives in the key-value store.
type Service struct {
	mu sync.RWMutex

	catalog Catalog
	// store is nil when no backend is configured; writes then fail with
	// ErrUnavailable and reads return empty results.
	store kv.Store

	scanCount int64
	now       func() time.Time

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog sets the skill source.
func WithCatalog(c Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithSkillsDir reads skills from dir.
func WithSkillsDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.catalog = fscatalog.New(dir)
		}
	}
}

// WithStore sets the key-value store. A nil store disables persistence.
func WithStore(st kv.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithScanCount sets the page size hint for key scans.
func WithScanCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.scanCount = int64(n)
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Without WithCatalog or WithSkillsDir it reads
// ./skills.
func New(opts ...Option) *Service {
	s := &Service{
		scanCount: defaultScanCount,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = fscatalog.New("skills")
	}
	return s
}

// Start checks that the catalog is readable and the store reachable.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.FromContext(ctx).Named("service")
	}

	skills, err := s.loadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			return fmt.Errorf("ping %s store: %w", s.store.Name(), err)
		}
	}

	s.started = true
	s.logger.Info(ctx, "skillhub service started",
		logger.Int("skills", len(skills)),
		logger.String("kvBackend", s.backendName()),
	)
	return nil
}

// Stop releases the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "close store", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "skillhub service stopped")
}

// HasStore reports whether persistence is configured.
func (s *Service) HasStore() bool { return s.store != nil }

// GetStats returns catalog and store counters for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   started,
		"kvBackend": s.backendName(),
	}
	skills, err := s.ListSkills(ctx)
	if err != nil {
		stats["catalogError"] = err.Error()
		return stats
	}
	stats["skills"] = len(skills)
	stats["categories"] = len(distinct(skills, func(sk skill.Skill) []string { return []string{sk.Category} }))
	stats["tags"] = len(distinct(skills, func(sk skill.Skill) []string { return sk.Tags }))
	stats["authors"] = len(distinct(skills, func(sk skill.Skill) []string { return []string{sk.Author} }))

	if all, err := s.GetAllRatings(ctx); err == nil {
		stats["ratedSkills"] = len(all)
	}
	return stats
}

func (s *Service) backendName() string {
	if s.store == nil {
		return "none"
	}
	return s.store.Name()
}

// log prefers the request-scoped logger carried by ctx.
func (s *Service) log(ctx context.Context) logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}
