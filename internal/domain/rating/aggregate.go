package rating

// AggScore is the running aggregate of one bucket.
type AggScore struct {
	Sum   int64   `json:"sum"`
	Count int64   `json:"count"`
	Avg   float64 `json:"avg"`
}

// NewAggScore derives the average; zero when count is not positive.
func NewAggScore(sum, count int64) AggScore {
	a := AggScore{Sum: sum, Count: count}
	if count > 0 {
		a.Avg = float64(sum) / float64(count)
	}
	return a
}

// SkillRatings pairs the two bucket aggregates of a skill.
type SkillRatings struct {
	Curator AggScore `json:"curator"`
	User    AggScore `json:"user"`
}

// FromFields builds SkillRatings from aggregate hash fields.
func FromFields(f map[string]int64) SkillRatings {
	return SkillRatings{
		Curator: NewAggScore(f[SumField(BucketCurator)], f[CountField(BucketCurator)]),
		User:    NewAggScore(f[SumField(BucketUser)], f[CountField(BucketUser)]),
	}
}

// Total is the number of ratings across both buckets.
func (r SkillRatings) Total() int64 {
	return r.Curator.Count + r.User.Count
}

// Tier is the quality label; empty means none.
type Tier string

const (
	TierGold   Tier = "gold"
	TierSilver Tier = "silver"
	TierBronze Tier = "bronze"
	TierNone   Tier = ""
)

type threshold struct {
	tier     Tier
	minAvg   float64
	minCount int64
}

// Ordered from most to least exclusive.
var thresholds = []threshold{
	{TierGold, 4.5, 5},
	{TierSilver, 3.5, 3},
	{TierBronze, 3.0, 2},
}

// ComputeTier returns the highest tier whose thresholds both buckets meet.
func ComputeTier(r SkillRatings) Tier {
	for _, t := range thresholds {
		if r.Curator.Count >= t.minCount && r.User.Count >= t.minCount &&
			r.Curator.Avg >= t.minAvg && r.User.Avg >= t.minAvg {
			return t.tier
		}
	}
	return TierNone
}
