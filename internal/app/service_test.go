package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/skillhub/internal/adapters/kv"
	service "github.com/okian/skillhub/internal/app"
	"github.com/okian/skillhub/internal/domain/rating"
	"github.com/okian/skillhub/internal/domain/skill"
	"github.com/okian/skillhub/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

// countingStore counts writes so tests can assert that nothing was stored.
type countingStore struct {
	kv.Store
	mu     sync.Mutex
	writes int
}

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func (c *countingStore) bump() {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
}

func (c *countingStore) Set(ctx context.Context, key string, value []byte) error {
	c.bump()
	return c.Store.Set(ctx, key, value)
}

func (c *countingStore) Del(ctx context.Context, keys ...string) error {
	c.bump()
	return c.Store.Del(ctx, keys...)
}

var errBroken = errors.New("store unavailable")

// brokenStore fails the next fails HIncrBy calls on key.
type brokenStore struct {
	kv.Store
	mu    sync.Mutex
	key   string
	fails int
}

func (b *brokenStore) breakNext(key string, n int) {
	b.mu.Lock()
	b.key, b.fails = key, n
	b.mu.Unlock()
}

func (b *brokenStore) HIncrBy(ctx context.Context, key string, deltas map[string]int64) (map[string]int64, error) {
	b.mu.Lock()
	if key == b.key && b.fails > 0 {
		b.fails--
		b.mu.Unlock()
		return nil, errBroken
	}
	b.mu.Unlock()
	return b.Store.HIncrBy(ctx, key, deltas)
}

// gatedStore holds the first all-skills aggregate update until release is
// closed. reached is closed once that update is waiting.
type gatedStore struct {
	kv.Store
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func newGatedStore(s kv.Store) *gatedStore {
	return &gatedStore{Store: s, reached: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore) HIncrBy(ctx context.Context, key string, deltas map[string]int64) (map[string]int64, error) {
	if key == rating.AllAggKey {
		first := false
		g.once.Do(func() { first = true })
		if first {
			close(g.reached)
			<-g.release
		}
	}
	return g.Store.HIncrBy(ctx, key, deltas)
}

// clock hands out strictly increasing instants.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func skillsTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	write := func(slug, name, content string) {
		dir := filepath.Join(root, slug)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("code-review", "meta.json", `{"name":"Code Review","description":"Reviews pull requests","author":"ana",`+
		`"category":"quality","tags":["review","git"],"platform":["claude-code"],"requires":[],"version":"1.0.0","createdAt":"2025-01-01"}`)
	write("code-review", "SKILL.md", "review steps")
	write("code-review", "README.md", "# Code Review")
	write("commit-helper", "meta.json", `{"name":"Commit Helper","description":"Writes commit messages","author":"bo",`+
		`"category":"git","tags":["git","commit"],"version":"0.2.0","createdAt":"2025-02-01"}`)
	write("docs-writer", "meta.json", `{"name":"Docs Writer","description":"Drafts documentation","author":"ana",`+
		`"category":"writing","tags":["docs"],"version":"0.1.0","createdAt":"2025-03-01"}`)
	return root
}

func newService(t *testing.T, store kv.Store) *service.Service {
	t.Helper()
	c := &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	opts := []service.Option{
		service.WithSkillsDir(skillsTree(t)),
		service.WithClock(c.Now),
		service.WithScanCount(2),
	}
	if store != nil {
		opts = append(opts, service.WithStore(store))
	}
	return service.New(opts...)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service over a skills tree and a memory store", t, func() {
		svc := newService(t, kv.NewMemoryStore())
		ctx := context.Background()

		Convey("When starting and stopping it", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			stats := svc.GetStats(ctx)
			So(stats["started"], ShouldEqual, true)
			So(stats["kvBackend"], ShouldEqual, "memory")
			So(stats["skills"], ShouldEqual, 3)
			So(stats["authors"], ShouldEqual, 2)

			svc.Stop()
			So(svc.GetStats(ctx)["started"], ShouldEqual, false)
		})
	})

	Convey("Given a service over a missing skills directory", t, func() {
		svc := service.New(service.WithSkillsDir(filepath.Join(t.TempDir(), "nope")))

		Convey("Then Start fails", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
		})
	})
}

func TestService_Catalog(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service without a store", t, func() {
		svc := newService(t, nil)

		Convey("Then the catalog is read from the filesystem only", func() {
			skills, err := svc.ListSkills(ctx)
			So(err, ShouldBeNil)
			So(skills, ShouldHaveLength, 3)
			So(skills[0].Slug, ShouldEqual, "code-review")
			So(skills[0].InstallPrompt, ShouldContainSubstring, "--- File: .claude/skills/code-review/SKILL.md ---")
		})

		Convey("Then categories, tags and authors are distinct and sorted", func() {
			cats, err := svc.ListCategories(ctx)
			So(err, ShouldBeNil)
			So(cats, ShouldResemble, []string{"git", "quality", "writing"})

			tags, err := svc.ListTags(ctx)
			So(err, ShouldBeNil)
			So(tags, ShouldResemble, []string{"commit", "docs", "git", "review"})

			n, err := svc.CountDistinctAuthors(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})

		Convey("Then lookups by slug work and unknown slugs are not found", func() {
			sk, err := svc.GetSkillBySlug(ctx, "commit-helper")
			So(err, ShouldBeNil)
			So(sk.Name, ShouldEqual, "Commit Helper")

			_, err = svc.GetSkillBySlug(ctx, "missing")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then search matches text, category and tag", func() {
			got, err := svc.SearchSkills(ctx, service.Query{Text: "COMMIT"})
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].Slug, ShouldEqual, "commit-helper")

			got, err = svc.SearchSkills(ctx, service.Query{Tag: "git"})
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 2)

			got, err = svc.SearchSkills(ctx, service.Query{Tag: "git", Category: "quality"})
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)

			got, err = svc.SearchSkills(ctx, service.Query{Text: "documentation"})
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].Slug, ShouldEqual, "docs-writer")

			got, err = svc.SearchSkills(ctx, service.Query{Text: "nothing matches this"})
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("Then saving an override is unavailable", func() {
			name := "X"
			_, err := svc.SaveOverride(ctx, "code-review", skill.MetaPatch{Name: &name})
			So(errors.Is(err, service.ErrUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a service with a store", t, func() {
		svc := newService(t, kv.NewMemoryStore())

		Convey("When an override sets only the name", func() {
			name := "X"
			meta, err := svc.SaveOverride(ctx, "code-review", skill.MetaPatch{Name: &name})
			So(err, ShouldBeNil)
			So(meta.Name, ShouldEqual, "X")
			So(meta.Description, ShouldEqual, "Reviews pull requests")

			Convey("Then other fields keep their filesystem values", func() {
				sk, err := svc.GetSkillBySlug(ctx, "code-review")
				So(err, ShouldBeNil)
				So(sk.Name, ShouldEqual, "X")
				So(sk.Description, ShouldEqual, "Reviews pull requests")
				So(sk.Tags, ShouldResemble, []string{"review", "git"})
				So(sk.Readme, ShouldEqual, "# Code Review")
			})

			Convey("And a second override without name reverts the name", func() {
				desc := "Y"
				_, err := svc.SaveOverride(ctx, "code-review", skill.MetaPatch{Description: &desc})
				So(err, ShouldBeNil)

				sk, err := svc.GetSkillBySlug(ctx, "code-review")
				So(err, ShouldBeNil)
				So(sk.Name, ShouldEqual, "Code Review")
				So(sk.Description, ShouldEqual, "Y")
			})

			Convey("And other skills are unaffected", func() {
				sk, err := svc.GetSkillBySlug(ctx, "commit-helper")
				So(err, ShouldBeNil)
				So(sk.Name, ShouldEqual, "Commit Helper")
			})
		})

		Convey("When an override changes the category", func() {
			cat := "review"
			_, err := svc.SaveOverride(ctx, "code-review", skill.MetaPatch{Category: &cat})
			So(err, ShouldBeNil)

			Convey("Then category listings follow the override", func() {
				cats, err := svc.ListCategories(ctx)
				So(err, ShouldBeNil)
				So(cats, ShouldResemble, []string{"git", "review", "writing"})
			})
		})

		Convey("When overriding an unknown slug", func() {
			name := "X"
			_, err := svc.SaveOverride(ctx, "ghost", skill.MetaPatch{Name: &name})
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Ratings(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a store", t, func() {
		svc := newService(t, kv.NewMemoryStore())

		Convey("When a user rates a skill", func() {
			agg, err := svc.SubmitRating(ctx, "code-review", rating.Submission{Name: "Ana", Seniority: "Junior", Score: 4})
			So(err, ShouldBeNil)

			Convey("Then the user bucket grows by one", func() {
				So(agg.User.Count, ShouldEqual, 1)
				So(agg.User.Sum, ShouldEqual, 4)
				So(agg.User.Avg, ShouldAlmostEqual, 4.0)
				So(agg.Curator.Count, ShouldEqual, 0)
			})

			Convey("And a second reviewer keeps avg == sum/count", func() {
				agg, err := svc.SubmitRating(ctx, "code-review", rating.Submission{Name: "Bo", Seniority: "Senior", Score: 1})
				So(err, ShouldBeNil)
				So(agg.User.Count, ShouldEqual, 2)
				So(agg.User.Avg, ShouldAlmostEqual, float64(agg.User.Sum)/float64(agg.User.Count))
			})

			Convey("And resubmitting with a new seniority moves the vote", func() {
				agg, err := svc.SubmitRating(ctx, "code-review", rating.Submission{Name: "  ana ", Seniority: "Director", Score: 5})
				So(err, ShouldBeNil)
				So(agg.Total(), ShouldEqual, 1)
				So(agg.User.Count, ShouldEqual, 0)
				So(agg.User.Sum, ShouldEqual, 0)
				So(agg.User.Avg, ShouldEqual, 0)
				So(agg.Curator.Count, ShouldEqual, 1)
				So(agg.Curator.Sum, ShouldEqual, 5)

				stored, err := svc.GetSkillRatings(ctx, "code-review")
				So(err, ShouldBeNil)
				So(stored, ShouldResemble, agg)

				all, err := svc.GetAllRatings(ctx)
				So(err, ShouldBeNil)
				So(all["code-review"], ShouldResemble, agg)
			})

			Convey("And the individual ratings are listed newest first", func() {
				_, err := svc.SubmitRating(ctx, "code-review", rating.Submission{Name: "Cy", Seniority: "Lead", Score: 3, Comment: " ok "})
				So(err, ShouldBeNil)
				_, err = svc.SubmitRating(ctx, "commit-helper", rating.Submission{Name: "Dee", Seniority: "Lead", Score: 3})
				So(err, ShouldBeNil)

				list, err := svc.ListSkillRatings(ctx, "code-review")
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 2)
				So(list[0].Name, ShouldEqual, "Cy")
				So(list[0].Comment, ShouldEqual, "ok")
				So(list[1].Name, ShouldEqual, "Ana")
			})
		})

		Convey("When a submission is invalid", func() {
			cases := []rating.Submission{
				{Name: " ", Seniority: "Junior", Score: 3},
				{Name: "Ana", Seniority: "CEO", Score: 3},
				{Name: "Ana", Seniority: "Junior", Score: 0},
				{Name: "Ana", Seniority: "Junior", Score: 6},
			}
			for _, sub := range cases {
				_, err := svc.SubmitRating(ctx, "code-review", sub)
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
			}

			Convey("Then nothing is recorded", func() {
				agg, err := svc.GetSkillRatings(ctx, "code-review")
				So(err, ShouldBeNil)
				So(agg.Total(), ShouldEqual, 0)
			})
		})

		Convey("When rating an unknown skill", func() {
			_, err := svc.SubmitRating(ctx, "ghost", rating.Submission{Name: "Ana", Seniority: "Junior", Score: 3})
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("When many reviewers rate concurrently", func() {
			names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
			var wg sync.WaitGroup
			for i, n := range names {
				wg.Add(1)
				go func(i int, n string) {
					defer wg.Done()
					seniority := "Junior"
					if i%2 == 0 {
						seniority = "Expert"
					}
					_, _ = svc.SubmitRating(ctx, "docs-writer", rating.Submission{Name: n, Seniority: seniority, Score: 5})
				}(i, n)
			}
			wg.Wait()

			Convey("Then no increment is lost and the tier is gold", func() {
				agg, err := svc.GetSkillRatings(ctx, "docs-writer")
				So(err, ShouldBeNil)
				So(agg.Curator.Count, ShouldEqual, 5)
				So(agg.User.Count, ShouldEqual, 5)
				So(svc.Tier(agg), ShouldEqual, rating.TierGold)
			})
		})
	})

	Convey("Given two submissions for one skill that interleave", t, func() {
		store := newGatedStore(kv.NewMemoryStore())
		svc := newService(t, store)

		errA := make(chan error, 1)
		go func() {
			_, err := svc.SubmitRating(ctx, "commit-helper", rating.Submission{Name: "Ana", Seniority: "Junior", Score: 5})
			errA <- err
		}()
		<-store.reached

		_, errB := svc.SubmitRating(ctx, "commit-helper", rating.Submission{Name: "Bo", Seniority: "Junior", Score: 3})
		close(store.release)
		So(<-errA, ShouldBeNil)
		So(errB, ShouldBeNil)

		Convey("Then the all-skills map agrees with the per-skill hash", func() {
			agg, err := svc.GetSkillRatings(ctx, "commit-helper")
			So(err, ShouldBeNil)
			So(agg.User, ShouldResemble, rating.NewAggScore(8, 2))

			all, err := svc.GetAllRatings(ctx)
			So(err, ShouldBeNil)
			So(all["commit-helper"], ShouldResemble, agg)
		})
	})

	Convey("Given a store whose aggregate updates fail", t, func() {
		store := &brokenStore{Store: kv.NewMemoryStore()}
		svc := newService(t, store)

		Convey("When the per-skill update of a first rating fails", func() {
			store.breakNext(rating.AggKey("code-review"), 1)
			_, err := svc.SubmitRating(ctx, "code-review", rating.Submission{Name: "Ana", Seniority: "Director", Score: 4})
			So(errors.Is(err, errBroken), ShouldBeTrue)

			Convey("Then the rating is not kept", func() {
				list, err := svc.ListSkillRatings(ctx, "code-review")
				So(err, ShouldBeNil)
				So(list, ShouldBeEmpty)
			})

			Convey("And a retry under another seniority counts once", func() {
				agg, err := svc.SubmitRating(ctx, "code-review", rating.Submission{Name: "Ana", Seniority: "Junior", Score: 4})
				So(err, ShouldBeNil)
				So(agg.User, ShouldResemble, rating.NewAggScore(4, 1))
				So(agg.Curator, ShouldResemble, rating.AggScore{})

				all, err := svc.GetAllRatings(ctx)
				So(err, ShouldBeNil)
				So(all["code-review"], ShouldResemble, agg)
			})
		})

		Convey("When the all-skills update of a replacement fails", func() {
			first, err := svc.SubmitRating(ctx, "code-review", rating.Submission{Name: "Ana", Seniority: "Junior", Score: 4})
			So(err, ShouldBeNil)

			store.breakNext(rating.AllAggKey, 1)
			_, err = svc.SubmitRating(ctx, "code-review", rating.Submission{Name: "Ana", Seniority: "Director", Score: 5})
			So(errors.Is(err, errBroken), ShouldBeTrue)

			Convey("Then the earlier rating and its counts are back", func() {
				list, err := svc.ListSkillRatings(ctx, "code-review")
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 1)
				So(list[0].Seniority, ShouldEqual, rating.Junior)
				So(list[0].Score, ShouldEqual, 4)

				agg, err := svc.GetSkillRatings(ctx, "code-review")
				So(err, ShouldBeNil)
				So(agg, ShouldResemble, first)

				all, err := svc.GetAllRatings(ctx)
				So(err, ShouldBeNil)
				So(all["code-review"], ShouldResemble, first)
			})
		})
	})

	Convey("Given a service without a store", t, func() {
		svc := newService(t, nil)

		Convey("Then submitting is unavailable and reads are empty", func() {
			_, err := svc.SubmitRating(ctx, "code-review", rating.Submission{Name: "Ana", Seniority: "Junior", Score: 3})
			So(errors.Is(err, service.ErrUnavailable), ShouldBeTrue)

			agg, err := svc.GetSkillRatings(ctx, "code-review")
			So(err, ShouldBeNil)
			So(agg, ShouldResemble, rating.SkillRatings{})

			all, err := svc.GetAllRatings(ctx)
			So(err, ShouldBeNil)
			So(all, ShouldBeEmpty)

			list, err := svc.ListSkillRatings(ctx, "code-review")
			So(err, ShouldBeNil)
			So(list, ShouldBeEmpty)
		})
	})
}

func TestService_Contributions(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a counting store", t, func() {
		store := &countingStore{Store: kv.NewMemoryStore()}
		svc := newService(t, store)

		Convey("When proposals are submitted", func() {
			first, err := svc.SubmitContribution(ctx, service.ContributionInput{Name: "My Skill", Description: "d", Body: "b", Raw: "r"})
			So(err, ShouldBeNil)
			second, err := svc.SubmitContribution(ctx, service.ContributionInput{Name: "My Skill", Description: "d2", Body: "b2"})
			So(err, ShouldBeNil)

			Convey("Then each gets its own key", func() {
				So(first, ShouldStartWith, "contrib:")
				So(first, ShouldEndWith, ":my-skill")
				So(second, ShouldNotEqual, first)
			})

			Convey("Then they are listed newest first", func() {
				list, err := svc.ListContributions(ctx)
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 2)
				So(list[0].Key, ShouldEqual, second)
				So(list[0].Description, ShouldEqual, "d2")
				So(list[1].Key, ShouldEqual, first)
				So(list[1].Status, ShouldEqual, "pending")
				So(list[1].Raw, ShouldEqual, "r")
			})

			Convey("Then dismissing one removes it", func() {
				So(svc.DismissContribution(ctx, first), ShouldBeNil)
				list, err := svc.ListContributions(ctx)
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 1)
				So(list[0].Key, ShouldEqual, second)
			})
		})

		Convey("When a required field is missing", func() {
			for _, in := range []service.ContributionInput{
				{Description: "d", Body: "b"},
				{Name: "n", Body: "b"},
				{Name: "n", Description: "d", Body: "   "},
			} {
				_, err := svc.SubmitContribution(ctx, in)
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
			}

			Convey("Then no record is written", func() {
				So(store.count(), ShouldEqual, 0)
				list, err := svc.ListContributions(ctx)
				So(err, ShouldBeNil)
				So(list, ShouldBeEmpty)
			})
		})

		Convey("When dismissing a key without the contribution prefix", func() {
			So(store.Set(ctx, "rating:code-review:ana", []byte("{}")), ShouldBeNil)
			before := store.count()
			err := svc.DismissContribution(ctx, "rating:code-review:ana")

			Convey("Then it is rejected without a delete", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
				So(store.count(), ShouldEqual, before)
				_, err := store.Get(ctx, "rating:code-review:ana")
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given a service without a store", t, func() {
		svc := newService(t, nil)

		_, err := svc.SubmitContribution(ctx, service.ContributionInput{Name: "n", Description: "d", Body: "b"})
		So(errors.Is(err, service.ErrUnavailable), ShouldBeTrue)
		_, err = svc.ListContributions(ctx)
		So(errors.Is(err, service.ErrUnavailable), ShouldBeTrue)
		So(errors.Is(svc.DismissContribution(ctx, "contrib:1:x"), service.ErrUnavailable), ShouldBeTrue)
	})
}
