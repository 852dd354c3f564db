package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/skillhub/internal/adapters/kv"
	"github.com/okian/skillhub/internal/domain/rating"
	"github.com/okian/skillhub/pkg/logger"
	"github.com/okian/skillhub/pkg/metrics"
)

// SubmitRating records one reviewer's rating of slug and returns the updated
// aggregates. A resubmission under the same normalised name replaces the
// earlier rating and moves its score out of the bucket it was counted in.
func (s *Service) SubmitRating(ctx context.Context, slug string, sub rating.Submission) (rating.SkillRatings, error) {
	r, err := sub.Validate(s.now())
	if err != nil {
		return rating.SkillRatings{}, invalid(err)
	}
	if s.store == nil {
		return rating.SkillRatings{}, fmt.Errorf("%w: rating service unavailable", ErrUnavailable)
	}
	if !s.catalog.Has(slug) {
		return rating.SkillRatings{}, fmt.Errorf("%w: skill %q", ErrNotFound, slug)
	}

	key := rating.Key(slug, r.Name)
	prev, replaced, err := kv.SwapJSON[rating.Rating](ctx, s.store, key, r)
	if err != nil {
		return rating.SkillRatings{}, fmt.Errorf("store rating: %w", err)
	}
	var old *rating.Rating
	if replaced {
		old = &prev
	}

	deltas := rating.Deltas(old, r)
	fields, err := s.store.HIncrBy(ctx, rating.AggKey(slug), deltas)
	if err != nil {
		s.restoreRating(ctx, key, old)
		return rating.SkillRatings{}, fmt.Errorf("update aggregate: %w", err)
	}
	if _, err := s.store.HIncrBy(ctx, rating.AllAggKey, rating.AllAggDeltas(slug, deltas)); err != nil {
		if _, rerr := s.store.HIncrBy(context.WithoutCancel(ctx), rating.AggKey(slug), rating.Negate(deltas)); rerr != nil {
			s.log(ctx).Error(ctx, "revert aggregate", logger.String("slug", slug), logger.Error(rerr))
		}
		s.restoreRating(ctx, key, old)
		return rating.SkillRatings{}, fmt.Errorf("update all-skills aggregate: %w", err)
	}
	agg := rating.FromFields(fields)

	if replaced {
		metrics.RecordRatingReplaced()
	}
	metrics.RecordRatingSubmitted(string(r.Bucket))
	s.log(ctx).Info(ctx, "rating submitted",
		logger.String("slug", slug),
		logger.String("bucket", string(r.Bucket)),
		logger.Int("score", r.Score),
		logger.Bool("replaced", replaced),
	)
	return agg, nil
}

// GetSkillRatings returns the aggregates of slug. Without a store, or before
// the first rating, both buckets are empty.
func (s *Service) GetSkillRatings(ctx context.Context, slug string) (rating.SkillRatings, error) {
	if s.store == nil {
		return rating.SkillRatings{}, nil
	}
	h, err := s.store.HGetAll(ctx, rating.AggKey(slug))
	if err != nil {
		return rating.SkillRatings{}, fmt.Errorf("read aggregate: %w", err)
	}
	return rating.FromFields(rating.ParseHash(h)), nil
}

// GetAllRatings returns the aggregates of every rated skill keyed by slug.
func (s *Service) GetAllRatings(ctx context.Context) (map[string]rating.SkillRatings, error) {
	if s.store == nil {
		return map[string]rating.SkillRatings{}, nil
	}
	h, err := s.store.HGetAll(ctx, rating.AllAggKey)
	if err != nil {
		return nil, fmt.Errorf("read all-skills aggregate: %w", err)
	}
	return rating.ParseAllAgg(h), nil
}

// ListSkillRatings returns the individual ratings of slug, newest first.
func (s *Service) ListSkillRatings(ctx context.Context, slug string) ([]rating.Rating, error) {
	if s.store == nil {
		return nil, nil
	}
	keys, err := kv.ScanAll(ctx, s.store, rating.KeyPattern(slug), s.scanCount)
	if err != nil {
		return nil, fmt.Errorf("scan ratings: %w", err)
	}
	recs, err := kv.MGetJSON[rating.Rating](ctx, s.store, keys...)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	out := make([]rating.Rating, 0, len(recs))
	for _, r := range recs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// restoreRating puts back the rating that SubmitRating replaced, or removes
// the new one when there was none, so a failed submission leaves the counted
// records as they were.
func (s *Service) restoreRating(ctx context.Context, key string, old *rating.Rating) {
	ctx = context.WithoutCancel(ctx)
	var err error
	if old != nil {
		err = kv.SetJSON(ctx, s.store, key, *old)
	} else {
		err = s.store.Del(ctx, key)
	}
	if err != nil {
		s.log(ctx).Error(ctx, "restore rating", logger.String("key", key), logger.Error(err))
	}
}

// Tier evaluates and records the tier of r.
func (s *Service) Tier(r rating.SkillRatings) rating.Tier {
	t := rating.ComputeTier(r)
	metrics.RecordTierEvaluation(string(t))
	return t
}
