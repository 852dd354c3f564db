package loadgen

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/skillhub/pkg/logger"
)

// verifyAggregates compares each skill's aggregates with the baseline plus
// the accepted ratings. With lenient set, transport failures may have landed
// server side, so the observed totals only need to reach the expected ones.
func verifyAggregates(ctx context.Context, c *client, before map[string]skillRatings, want expected, lenient bool) error {
	slugs := make([]string, 0, len(want))
	for slug := range want {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	for _, slug := range slugs {
		got, err := c.skillRatings(ctx, slug)
		if err != nil {
			return err
		}
		base := before[slug]
		delta := want[slug]
		if err := compare(slug, "curator", got.Curator, base.Curator, delta.Curator, lenient); err != nil {
			return err
		}
		if err := compare(slug, "user", got.User, base.User, delta.User, lenient); err != nil {
			return err
		}
	}
	logger.Get().Info(ctx, "aggregates verified", logger.Int("skills", len(slugs)))
	return nil
}

func compare(slug, bucket string, got, base, delta aggScore, lenient bool) error {
	wantSum, wantCount := base.Sum+delta.Sum, base.Count+delta.Count
	ok := got.Sum == wantSum && got.Count == wantCount
	if lenient {
		ok = got.Sum >= wantSum && got.Count >= wantCount
	}
	if !ok {
		return fmt.Errorf("%w: %s %s has sum=%d count=%d, want sum=%d count=%d",
			ErrMismatch, slug, bucket, got.Sum, got.Count, wantSum, wantCount)
	}
	return nil
}
