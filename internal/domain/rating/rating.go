// Package rating models reviewer ratings, their per-bucket aggregates and
// the tier derived from both buckets.
package rating

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation errors.
var (
	ErrNameRequired     = errors.New("name is required")
	ErrInvalidSeniority = errors.New("invalid seniority level")
	ErrInvalidScore     = errors.New("score must be an integer between 1 and 5")
)

// Score bounds and comment cap.
const (
	MinScore         = 1
	MaxScore         = 5
	MaxCommentLength = 500
)

// Seniority is the reviewer's self-declared level.
type Seniority string

// The nine recognised levels.
const (
	Junior        Seniority = "Junior"
	Semisenior    Seniority = "Semisenior"
	Senior        Seniority = "Senior"
	Lead          Seniority = "Lead"
	TechnicalLead Seniority = "Technical Lead"
	Manager       Seniority = "Manager"
	Expert        Seniority = "Expert"
	SeniorManager Seniority = "Senior Manager"
	Director      Seniority = "Director"
)

// Bucket groups ratings into two cohorts.
type Bucket string

const (
	BucketUser    Bucket = "user"
	BucketCurator Bucket = "curator"
)

var buckets = map[Seniority]Bucket{
	Junior:        BucketUser,
	Semisenior:    BucketUser,
	Senior:        BucketUser,
	Lead:          BucketCurator,
	TechnicalLead: BucketCurator,
	Manager:       BucketCurator,
	Expert:        BucketCurator,
	SeniorManager: BucketCurator,
	Director:      BucketCurator,
}

// Levels lists every seniority, user levels first.
func Levels() []Seniority {
	return []Seniority{Junior, Semisenior, Senior, Lead, TechnicalLead, Manager, Expert, SeniorManager, Director}
}

// ParseSeniority accepts exactly one of the nine level names.
func ParseSeniority(s string) (Seniority, error) {
	v := Seniority(s)
	if _, ok := buckets[v]; !ok {
		return "", ErrInvalidSeniority
	}
	return v, nil
}

// Bucket classifies the level.
func (s Seniority) Bucket() Bucket {
	if b, ok := buckets[s]; ok {
		return b
	}
	return BucketUser
}

// Rating is one reviewer's evaluation of one skill.
type Rating struct {
	Name      string    `json:"name"`
	Seniority Seniority `json:"seniority"`
	Score     int       `json:"score"`
	Bucket    Bucket    `json:"bucket"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Submission is an unvalidated rating request.
type Submission struct {
	Name      string
	Seniority string
	Score     int
	Comment   string
}

// Validate checks the submission and returns the rating it describes,
// stamped with now.
func (s Submission) Validate(now time.Time) (Rating, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return Rating{}, ErrNameRequired
	}
	lvl, err := ParseSeniority(s.Seniority)
	if err != nil {
		return Rating{}, err
	}
	if s.Score < MinScore || s.Score > MaxScore {
		return Rating{}, ErrInvalidScore
	}
	return Rating{
		Name:      name,
		Seniority: lvl,
		Score:     s.Score,
		Bucket:    lvl.Bucket(),
		Comment:   NormalizeComment(s.Comment),
		CreatedAt: now.UTC(),
	}, nil
}

// NormalizeComment trims c and caps it at MaxCommentLength runes.
func NormalizeComment(c string) string {
	c = strings.TrimSpace(c)
	if utf8.RuneCountInString(c) <= MaxCommentLength {
		return c
	}
	r := []rune(c)
	return strings.TrimSpace(string(r[:MaxCommentLength]))
}

// NameSlug normalises a reviewer name for the rating key. Any run of
// Unicode white space becomes a single hyphen.
func NameSlug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// AllAggKey is the hash holding every skill's aggregate counters. Its fields
// are the per-skill fields prefixed with the slug, see AllAggField.
const AllAggKey = "ratings:all-agg"

// Key is the store key of one reviewer's rating of slug.
func Key(slug, name string) string {
	return "rating:" + slug + ":" + NameSlug(name)
}

// KeyPattern matches every rating of slug.
func KeyPattern(slug string) string {
	return "rating:" + slug + ":*"
}

// AggKey is the per-skill aggregate hash.
func AggKey(slug string) string {
	return "ratings:" + slug + ":agg"
}

// SumField and CountField name the aggregate hash fields of b.
func SumField(b Bucket) string   { return string(b) + "_sum" }
func CountField(b Bucket) string { return string(b) + "_count" }

// Deltas returns the hash increments that replace prev (if any) with next.
func Deltas(prev *Rating, next Rating) map[string]int64 {
	d := map[string]int64{
		SumField(next.Bucket):   int64(next.Score),
		CountField(next.Bucket): 1,
	}
	if prev != nil {
		d[SumField(prev.Bucket)] -= int64(prev.Score)
		d[CountField(prev.Bucket)]--
	}
	return d
}

// AllAggField names the field of AllAggKey holding field f of slug. Slugs
// never contain ':', so the last colon separates the two.
func AllAggField(slug, f string) string {
	return slug + ":" + f
}

// AllAggDeltas prefixes the per-skill deltas d for the AllAggKey hash.
func AllAggDeltas(slug string, d map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(d))
	for f, n := range d {
		out[AllAggField(slug, f)] = n
	}
	return out
}

// Negate returns the increments that undo d.
func Negate(d map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(d))
	for f, n := range d {
		out[f] = -n
	}
	return out
}

// ParseAllAgg groups the AllAggKey hash by slug. Fields without a slug
// prefix or with non-integer values are skipped, as are skills left with no
// ratings.
func ParseAllAgg(h map[string]string) map[string]SkillRatings {
	bySlug := make(map[string]map[string]int64)
	for k, v := range h {
		i := strings.LastIndexByte(k, ':')
		if i <= 0 {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		slug := k[:i]
		if bySlug[slug] == nil {
			bySlug[slug] = make(map[string]int64, 4)
		}
		bySlug[slug][k[i+1:]] = n
	}
	out := make(map[string]SkillRatings, len(bySlug))
	for slug, f := range bySlug {
		if agg := FromFields(f); agg.Total() > 0 {
			out[slug] = agg
		}
	}
	return out
}

// ParseHash reads aggregate hash fields, skipping values that are not integers.
func ParseHash(h map[string]string) map[string]int64 {
	out := make(map[string]int64, len(h))
	for k, v := range h {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[k] = n
		}
	}
	return out
}
