package skill_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/skillhub/internal/domain/skill"
	. "github.com/smartystreets/goconvey/convey"
)

func fsMeta() skill.Meta {
	return skill.Meta{
		Name:        "Code Review",
		Description: "Reviews diffs",
		Author:      "ana",
		Category:    "quality",
		Tags:        []string{"review", "git"},
		Platform:    []string{"claude-code"},
		Version:     "1.0.0",
		CreatedAt:   "2025-01-02",
	}
}

func TestMetaPatch(t *testing.T) {
	Convey("Given a filesystem metadata document", t, func() {
		base := fsMeta()

		Convey("When a patch only sets the name", func() {
			name := "X"
			got := skill.MetaPatch{Name: &name}.Apply(base)

			Convey("Then only the name changes", func() {
				So(got.Name, ShouldEqual, "X")
				So(got.Description, ShouldEqual, base.Description)
				So(got.Tags, ShouldResemble, base.Tags)
				So(got.CreatedAt, ShouldEqual, base.CreatedAt)
			})
		})

		Convey("When a patch sets an empty tag list", func() {
			empty := []string{}
			got := skill.MetaPatch{Tags: &empty}.Apply(base)

			Convey("Then the tags are cleared", func() {
				So(got.Tags, ShouldBeEmpty)
				So(got.Name, ShouldEqual, base.Name)
			})
		})

		Convey("When the patched slice is mutated afterwards", func() {
			tags := []string{"a"}
			got := skill.MetaPatch{Tags: &tags}.Apply(base)
			tags[0] = "b"

			Convey("Then the result is unaffected", func() {
				So(got.Tags, ShouldResemble, []string{"a"})
			})
		})

		Convey("When an empty patch is applied", func() {
			p := skill.MetaPatch{}

			Convey("Then nothing changes", func() {
				So(p.IsEmpty(), ShouldBeTrue)
				So(p.Apply(base), ShouldResemble, base)
			})
		})
	})
}

func TestMetaPatchDecoding(t *testing.T) {
	Convey("Given a request body with fields outside the allow-list", t, func() {
		body := `{"name":"New","slug":"hijack","createdAt":"1999","readme":"x","tags":["t"]}`

		Convey("When it is decoded into a patch", func() {
			var p skill.MetaPatch
			err := json.Unmarshal([]byte(body), &p)
			So(err, ShouldBeNil)

			Convey("Then only editable fields survive re-encoding", func() {
				out, err := json.Marshal(p)
				So(err, ShouldBeNil)
				var m map[string]any
				So(json.Unmarshal(out, &m), ShouldBeNil)
				So(len(m), ShouldEqual, 2)
				So(m["name"], ShouldEqual, "New")
				So(m, ShouldContainKey, "tags")
				So(m, ShouldNotContainKey, "slug")
				So(m, ShouldNotContainKey, "createdAt")
			})
		})
	})
}

func TestSkillJSON(t *testing.T) {
	Convey("Given a skill", t, func() {
		s := skill.Skill{Slug: "code-review", Meta: fsMeta(), SkillMD: "# hi", InstallPrompt: "p"}

		Convey("When it is encoded", func() {
			out, err := json.Marshal(s)
			So(err, ShouldBeNil)
			var m map[string]any
			So(json.Unmarshal(out, &m), ShouldBeNil)

			Convey("Then metadata fields sit at the top level", func() {
				So(m["slug"], ShouldEqual, "code-review")
				So(m["name"], ShouldEqual, "Code Review")
				So(m["createdAt"], ShouldEqual, "2025-01-02")
				So(m["skillMd"], ShouldEqual, "# hi")
				So(m["installPrompt"], ShouldEqual, "p")
				So(m, ShouldNotContainKey, "Meta")
			})
		})
	})
}

func TestValidSlug(t *testing.T) {
	Convey("Slug validation", t, func() {
		So(skill.ValidSlug("code-review"), ShouldBeTrue)
		So(skill.ValidSlug("v2.skill_x"), ShouldBeTrue)
		So(skill.ValidSlug(""), ShouldBeFalse)
		So(skill.ValidSlug(".hidden"), ShouldBeFalse)
		So(skill.ValidSlug("a/b"), ShouldBeFalse)
		So(skill.ValidSlug("a..b"), ShouldBeFalse)
		So(skill.MetaKey("code-review"), ShouldEqual, "skill:code-review:meta")
	})
}

func TestInstallPrompt(t *testing.T) {
	Convey("Given instruction files in arbitrary order", t, func() {
		files := []skill.File{
			{Name: "zeta.md", Content: "Z"},
			{Name: "SKILL.md", Content: "S"},
			{Name: "alpha.md", Content: "A"},
		}

		Convey("When they are sorted and built into a prompt", func() {
			skill.SortInstructionFiles(files)
			prompt := skill.BuildInstallPrompt("demo", files)

			Convey("Then SKILL.md comes first and the rest are lexical", func() {
				So(files[0].Name, ShouldEqual, "SKILL.md")
				So(files[1].Name, ShouldEqual, "alpha.md")
				So(files[2].Name, ShouldEqual, "zeta.md")
			})

			Convey("Then the prompt has the exact layout", func() {
				want := "Please install this Claude Code skill by creating the following files:\n\n" +
					"--- File: .claude/skills/demo/SKILL.md ---\nS\n\n" +
					"--- File: .claude/skills/demo/alpha.md ---\nA\n\n" +
					"--- File: .claude/skills/demo/zeta.md ---\nZ"
				So(prompt, ShouldEqual, want)
			})
		})

		Convey("README.md is not an instruction file", func() {
			So(skill.IsInstructionFile("README.md"), ShouldBeFalse)
			So(skill.IsInstructionFile("SKILL.md"), ShouldBeTrue)
			So(skill.IsInstructionFile("meta.json"), ShouldBeFalse)
		})
	})
}

func TestSortBySlug(t *testing.T) {
	Convey("Skills sort by slug", t, func() {
		s := []skill.Skill{{Slug: "b"}, {Slug: "a"}, {Slug: "c"}}
		skill.SortBySlug(s)
		So([]string{s[0].Slug, s[1].Slug, s[2].Slug}, ShouldResemble, []string{"a", "b", "c"})
	})
}
