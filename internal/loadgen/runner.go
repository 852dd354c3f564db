package loadgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/skillhub/pkg/logger"
)

// ErrMismatch marks a run whose aggregates do not account for the accepted
// ratings.
var ErrMismatch = errors.New("aggregate mismatch")

func (cfg *Config) withDefaults() *Config {
	c := *cfg
	if c.Ratings <= 0 {
		c.Ratings = DefaultRatings
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return &c
}

// Run executes one load run and returns its statistics. The error wraps
// ErrMismatch when verification fails.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	cfg := config.withDefaults()
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting skillhub load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("ratings", cfg.Ratings),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	c := newClient(cfg.BaseURL, cfg.Timeout)

	if err := checkServiceHealth(ctx, c); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	slugs := cfg.Slugs
	if len(slugs) == 0 {
		var err error
		if slugs, err = c.listSlugs(ctx); err != nil {
			return stats, fmt.Errorf("list skills: %w", err)
		}
	}
	stats.Skills = len(slugs)

	before, err := c.allRatings(ctx)
	if err != nil {
		return stats, fmt.Errorf("read baseline ratings: %w", err)
	}

	subs, err := generateRatings(ctx, cfg.Ratings, slugs, stats)
	if err != nil {
		return stats, fmt.Errorf("rating generation failed: %w", err)
	}

	accepted := submitRatings(ctx, c, cfg, subs, stats)

	if err := verifyAggregates(ctx, c, before, expectedFrom(accepted), stats.Failed > 0); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	log.Info(ctx, "load run completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, c *client) error {
	status, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status %d", status)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("skills", stats.Skills),
		logger.Duration("duration", stats.Duration),
		logger.Float64("ratingsPerSecond", perSecond))
}
