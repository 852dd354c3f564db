// Package fscatalog reads the skill catalog from a directory tree: one
// directory per skill, each holding a metadata document and markdown files.
package fscatalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/skillhub/internal/domain/skill"
	"github.com/okian/skillhub/pkg/logger"
)

type metaFormat int

const (
	formatJSON metaFormat = iota
	formatYAML
)

// Metadata documents in lookup order; the first present one wins.
var metaFiles = []struct {
	name   string
	format metaFormat
}{
	{"meta.json", formatJSON},
	{"meta.yaml", formatYAML},
	{"meta.yml", formatYAML},
}

// Loader reads skills from a file system rooted at the catalog directory.
type Loader struct {
	fsys fs.FS
	root string
}

// New returns a Loader over the directory dir.
func New(dir string) *Loader {
	return &Loader{fsys: os.DirFS(dir), root: dir}
}

// NewFS returns a Loader over an arbitrary file system, rooted at ".".
func NewFS(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys, root: "."}
}

// Root is the directory the loader was built on.
func (l *Loader) Root() string { return l.root }

// Slugs lists the directories that qualify as skills, in lexical order.
func (l *Loader) Slugs(ctx context.Context) ([]string, error) {
	entries, err := l.readRoot()
	if err != nil {
		return nil, err
	}
	var slugs []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !skill.ValidSlug(e.Name()) {
			logger.FromContext(ctx).Warn(ctx, "skip skill directory with invalid slug",
				logger.String("dir", e.Name()),
				logger.String("root", l.root),
			)
			continue
		}
		if _, _, ok := l.findMeta(e.Name()); ok {
			slugs = append(slugs, e.Name())
		}
	}
	return slugs, nil
}

// Has reports whether slug is a skill on disk.
func (l *Loader) Has(slug string) bool {
	if !skill.ValidSlug(slug) {
		return false
	}
	_, _, ok := l.findMeta(slug)
	return ok
}

// LoadAll reads every skill, sorted by slug. Directories without a metadata
// document are skipped; a metadata document that fails to parse aborts.
func (l *Loader) LoadAll(ctx context.Context) ([]skill.Skill, error) {
	slugs, err := l.Slugs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]skill.Skill, 0, len(slugs))
	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := l.Load(slug)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Load reads one skill directory. fs.ErrNotExist is returned when the
// directory has no metadata document.
func (l *Loader) Load(slug string) (skill.Skill, error) {
	if !skill.ValidSlug(slug) {
		return skill.Skill{}, fs.ErrNotExist
	}
	name, format, ok := l.findMeta(slug)
	if !ok {
		return skill.Skill{}, fs.ErrNotExist
	}
	meta, err := l.readMeta(path.Join(slug, name), format)
	if err != nil {
		return skill.Skill{}, err
	}

	s := skill.Skill{Slug: slug, Meta: meta}
	if s.Readme, err = l.readOptional(path.Join(slug, skill.ReadmeFile)); err != nil {
		return skill.Skill{}, err
	}
	if s.SkillMD, err = l.readOptional(path.Join(slug, skill.InstructionFile)); err != nil {
		return skill.Skill{}, err
	}
	files, err := l.instructionFiles(slug)
	if err != nil {
		return skill.Skill{}, err
	}
	s.InstallPrompt = skill.BuildInstallPrompt(slug, files)
	return s, nil
}

func (l *Loader) readRoot() ([]fs.DirEntry, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoRoot, l.root)
	}
	if err != nil {
		return nil, fmt.Errorf("read skills directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (l *Loader) findMeta(slug string) (string, metaFormat, bool) {
	for _, m := range metaFiles {
		info, err := fs.Stat(l.fsys, path.Join(slug, m.name))
		if err == nil && !info.IsDir() {
			return m.name, m.format, true
		}
	}
	return "", 0, false
}

func (l *Loader) readMeta(p string, format metaFormat) (skill.Meta, error) {
	raw, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return skill.Meta{}, fmt.Errorf("read %s: %w", p, err)
	}
	var meta skill.Meta
	switch format {
	case formatYAML:
		err = yaml.Unmarshal(raw, &meta)
	default:
		err = json.Unmarshal(raw, &meta)
	}
	if err != nil {
		return skill.Meta{}, fmt.Errorf("%w: %s: %v", ErrMalformedMeta, p, err)
	}
	return meta, nil
}

func (l *Loader) readOptional(p string) (string, error) {
	raw, err := fs.ReadFile(l.fsys, p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return string(raw), nil
}

func (l *Loader) instructionFiles(slug string) ([]skill.File, error) {
	entries, err := fs.ReadDir(l.fsys, slug)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", slug, err)
	}
	var files []skill.File
	for _, e := range entries {
		if e.IsDir() || !skill.IsInstructionFile(e.Name()) {
			continue
		}
		raw, err := fs.ReadFile(l.fsys, path.Join(slug, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s/%s: %w", slug, e.Name(), err)
		}
		files = append(files, skill.File{Name: e.Name(), Content: string(raw)})
	}
	skill.SortInstructionFiles(files)
	return files, nil
}
