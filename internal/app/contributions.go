package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/skillhub/internal/adapters/kv"
	"github.com/okian/skillhub/internal/domain/contribution"
	"github.com/okian/skillhub/pkg/logger"
	"github.com/okian/skillhub/pkg/metrics"
)

// ContributionInput is a proposal as submitted.
type ContributionInput struct {
	Name        string
	Description string
	Body        string
	Raw         string
}

// SubmitContribution stores a pending proposal and returns its key.
func (s *Service) SubmitContribution(ctx context.Context, in ContributionInput) (string, error) {
	now := s.now()
	c, err := contribution.New(in.Name, in.Description, in.Body, in.Raw, now)
	if err != nil {
		return "", invalid(err)
	}
	if s.store == nil {
		return "", ErrUnavailable
	}
	key := contribution.NewKey(c.Name, now)
	if err := kv.SetJSON(ctx, s.store, key, c); err != nil {
		return "", fmt.Errorf("store contribution: %w", err)
	}
	metrics.RecordContributionSubmitted()
	s.log(ctx).Info(ctx, "contribution submitted", logger.String("key", key))
	return key, nil
}

// ListContributions returns every pending proposal, most recent first.
func (s *Service) ListContributions(ctx context.Context) ([]contribution.Contribution, error) {
	if s.store == nil {
		return nil, ErrUnavailable
	}
	keys, err := kv.ScanAll(ctx, s.store, contribution.Pattern(), s.scanCount)
	if err != nil {
		return nil, fmt.Errorf("scan contributions: %w", err)
	}
	recs, err := kv.MGetJSON[contribution.Contribution](ctx, s.store, keys...)
	if err != nil {
		return nil, fmt.Errorf("load contributions: %w", err)
	}
	out := make([]contribution.Contribution, 0, len(recs))
	for key, c := range recs {
		c.Key = key
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].Key > out[j].Key
	})
	return out, nil
}

// DismissContribution deletes a proposal. Keys outside the contribution
// namespace are rejected before touching the store.
func (s *Service) DismissContribution(ctx context.Context, key string) error {
	if err := contribution.ValidateKey(key); err != nil {
		return invalid(err)
	}
	if s.store == nil {
		return ErrUnavailable
	}
	if err := s.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	metrics.RecordContributionDismissed()
	s.log(ctx).Info(ctx, "contribution dismissed", logger.String("key", key))
	return nil
}
