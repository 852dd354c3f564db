package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/okian/skillhub/internal/domain/rating"
	"github.com/okian/skillhub/pkg/logger"
)

// expected is what a run should add to each skill's aggregates.
type expected map[string]*skillRatings

func expectedFrom(subs []Submission) expected {
	e := expected{}
	for _, sub := range subs {
		agg, ok := e[sub.Slug]
		if !ok {
			agg = &skillRatings{}
			e[sub.Slug] = agg
		}
		b := &agg.User
		if rating.Seniority(sub.Seniority).Bucket() == rating.BucketCurator {
			b = &agg.Curator
		}
		b.Sum += int64(sub.Score)
		b.Count++
	}
	return e
}

// randInt returns a uniform value in [0, n).
func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// generateRatings creates n ratings spread over slugs. Every reviewer name
// is unique, so no rating replaces another and the expected totals are a
// plain sum.
func generateRatings(ctx context.Context, n int, slugs []string, stats *Stats) ([]Submission, error) {
	if len(slugs) == 0 {
		return nil, fmt.Errorf("no skills to rate")
	}
	levels := rating.Levels()
	subs := make([]Submission, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		level := levels[randInt(len(levels))]
		score := rating.MinScore + randInt(rating.MaxScore-rating.MinScore+1)
		slug := slugs[i%len(slugs)]
		subs = append(subs, Submission{
			Slug:      slug,
			Name:      "loadgen " + uuid.NewString(),
			Seniority: string(level),
			Score:     score,
		})
	}
	stats.Generated = len(subs)
	logger.Get().Info(ctx, "generated ratings", logger.Int("count", len(subs)), logger.Int("skills", len(slugs)))
	return subs, nil
}
