package fscatalog_test

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/okian/skillhub/internal/adapters/fscatalog"
	"github.com/okian/skillhub/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func writeSkill(t *testing.T, root, slug string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoader(t *testing.T) {
	ctx := context.Background()

	Convey("Given a skills directory on disk", t, func() {
		root := t.TempDir()
		writeSkill(t, root, "code-review", map[string]string{
			"meta.json": `{"name":"Code Review","description":"Reviews diffs","author":"ana","category":"quality",` +
				`"tags":["review"],"platform":["claude-code"],"requires":[],"version":"1.2.0","createdAt":"2025-01-02","extra":"ignored"}`,
			"README.md":    "# Readme",
			"SKILL.md":     "skill body",
			"checklist.md": "check",
			"appendix.md":  "appx",
			"notes.txt":    "not markdown",
		})
		writeSkill(t, root, "commit-helper", map[string]string{
			"meta.yaml": "name: Commit Helper\ndescription: Commits\nauthor: bo\ncategory: git\ntags: [git, commit]\nversion: \"0.1.0\"\n",
		})
		writeSkill(t, root, "drafts", map[string]string{"SKILL.md": "no metadata here"})
		if err := os.WriteFile(filepath.Join(root, "stray.md"), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}

		l := fscatalog.New(root)

		Convey("When all skills are loaded", func() {
			skills, err := l.LoadAll(ctx)
			So(err, ShouldBeNil)

			Convey("Then only directories with metadata qualify, sorted by slug", func() {
				So(skills, ShouldHaveLength, 2)
				So(skills[0].Slug, ShouldEqual, "code-review")
				So(skills[1].Slug, ShouldEqual, "commit-helper")
			})

			Convey("Then JSON metadata and documents are read", func() {
				s := skills[0]
				So(s.Name, ShouldEqual, "Code Review")
				So(s.Tags, ShouldResemble, []string{"review"})
				So(s.Version, ShouldEqual, "1.2.0")
				So(s.CreatedAt, ShouldEqual, "2025-01-02")
				So(s.Readme, ShouldEqual, "# Readme")
				So(s.SkillMD, ShouldEqual, "skill body")
			})

			Convey("Then the install prompt lists SKILL.md first and the rest lexically", func() {
				p := skills[0].InstallPrompt
				iSkill := strings.Index(p, "--- File: .claude/skills/code-review/SKILL.md ---\nskill body")
				iAppx := strings.Index(p, "--- File: .claude/skills/code-review/appendix.md ---\nappx")
				iCheck := strings.Index(p, "--- File: .claude/skills/code-review/checklist.md ---\ncheck")
				So(iSkill, ShouldBeGreaterThan, 0)
				So(iAppx, ShouldBeGreaterThan, iSkill)
				So(iCheck, ShouldBeGreaterThan, iAppx)
				So(p, ShouldNotContainSubstring, "README.md")
				So(p, ShouldNotContainSubstring, "notes.txt")
			})

			Convey("Then YAML metadata is read and missing documents are empty", func() {
				s := skills[1]
				So(s.Name, ShouldEqual, "Commit Helper")
				So(s.Tags, ShouldResemble, []string{"git", "commit"})
				So(s.Version, ShouldEqual, "0.1.0")
				So(s.Readme, ShouldBeEmpty)
				So(s.SkillMD, ShouldBeEmpty)
				So(s.InstallPrompt, ShouldStartWith, "Please install this Claude Code skill")
			})
		})

		Convey("When checking membership", func() {
			So(l.Has("code-review"), ShouldBeTrue)
			So(l.Has("drafts"), ShouldBeFalse)
			So(l.Has("../etc"), ShouldBeFalse)
			So(l.Has("missing"), ShouldBeFalse)
		})

		Convey("When a metadata document is malformed", func() {
			writeSkill(t, root, "broken", map[string]string{"meta.json": `{"name":`})
			_, err := l.LoadAll(ctx)

			Convey("Then loading fails hard", func() {
				So(errors.Is(err, fscatalog.ErrMalformedMeta), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "broken")
			})
		})

		Convey("When loading an unknown slug", func() {
			_, err := l.Load("nope")
			So(errors.Is(err, fs.ErrNotExist), ShouldBeTrue)
		})
	})

	Convey("Given a missing skills directory", t, func() {
		l := fscatalog.New(filepath.Join(t.TempDir(), "absent"))
		_, err := l.LoadAll(ctx)
		So(errors.Is(err, fscatalog.ErrNoRoot), ShouldBeTrue)
	})

	Convey("Given an in-memory file system", t, func() {
		l := fscatalog.NewFS(fstest.MapFS{
			"a/meta.yml":   {Data: []byte("name: A\n")},
			"a/SKILL.md":   {Data: []byte("A!")},
			"b/meta.json":  {Data: []byte(`{"name":"B"}`)},
			"b/meta.yaml":  {Data: []byte("name: not used\n")},
			"c/readme.txt": {Data: []byte("skip")},
		})

		skills, err := l.LoadAll(ctx)
		So(err, ShouldBeNil)
		So(skills, ShouldHaveLength, 2)
		So(skills[0].Name, ShouldEqual, "A")
		So(skills[0].InstallPrompt, ShouldEndWith, "--- File: .claude/skills/a/SKILL.md ---\nA!")
		So(skills[1].Name, ShouldEqual, "B")
	})

	Convey("Given directories whose names are not valid slugs", t, func() {
		var buf bytes.Buffer
		So(logger.Init(logger.WithOutput(&buf)), ShouldBeNil)

		l := fscatalog.NewFS(fstest.MapFS{
			"ok/meta.json":        {Data: []byte(`{"name":"OK"}`)},
			"has space/meta.json": {Data: []byte(`{"name":"Spaced"}`)},
			"-dash/meta.json":     {Data: []byte(`{"name":"Dash"}`)},
			".git/meta.json":      {Data: []byte(`{"name":"Hidden"}`)},
		})

		slugs, err := l.Slugs(ctx)
		So(err, ShouldBeNil)

		Convey("Then they are skipped with a warning", func() {
			So(slugs, ShouldResemble, []string{"ok"})
			out := buf.String()
			So(out, ShouldContainSubstring, "skip skill directory with invalid slug")
			So(out, ShouldContainSubstring, "has space")
			So(out, ShouldContainSubstring, "-dash")
			So(out, ShouldNotContainSubstring, ".git")
		})
	})
}
