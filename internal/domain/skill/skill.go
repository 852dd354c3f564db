// Package skill holds the catalog's core types: a Skill as published, the
// metadata document it is built from, and the admin override patch.
package skill

import (
	"regexp"
	"sort"
	"strings"
)

// Meta is the structured metadata document of a skill directory.
type Meta struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Author      string   `json:"author" yaml:"author"`
	Category    string   `json:"category" yaml:"category"`
	Tags        []string `json:"tags" yaml:"tags"`
	Platform    []string `json:"platform" yaml:"platform"`
	Requires    []string `json:"requires" yaml:"requires"`
	Version     string   `json:"version" yaml:"version"`
	CreatedAt   string   `json:"createdAt" yaml:"createdAt"`
}

// Skill is one catalog entry. Slug is the directory name and never changes.
type Skill struct {
	Slug string `json:"slug"`
	Meta
	Readme        string `json:"readme"`
	SkillMD       string `json:"skillMd"`
	InstallPrompt string `json:"installPrompt"`
}

// MetaPatch is an admin override record. Only the editable fields exist on
// the type, so decoding a request body into it drops everything else.
// A nil field falls back to the filesystem value.
type MetaPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Author      *string   `json:"author,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Platform    *[]string `json:"platform,omitempty"`
	Requires    *[]string `json:"requires,omitempty"`
	Version     *string   `json:"version,omitempty"`
}

// IsEmpty reports whether the patch overrides nothing.
func (p MetaPatch) IsEmpty() bool {
	return p == MetaPatch{}
}

// Apply returns m with every set field of p laid over it.
func (p MetaPatch) Apply(m Meta) Meta {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Author != nil {
		m.Author = *p.Author
	}
	if p.Category != nil {
		m.Category = *p.Category
	}
	if p.Tags != nil {
		m.Tags = cloneStrings(*p.Tags)
	}
	if p.Platform != nil {
		m.Platform = cloneStrings(*p.Platform)
	}
	if p.Requires != nil {
		m.Requires = cloneStrings(*p.Requires)
	}
	if p.Version != nil {
		m.Version = *p.Version
	}
	return m
}

// ApplyTo overlays p on s's metadata.
func (p MetaPatch) ApplyTo(s Skill) Skill {
	s.Meta = p.Apply(s.Meta)
	return s
}

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidSlug reports whether s can name a skill directory.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s) && !strings.Contains(s, "..")
}

// MetaKey is the store key of a skill's override record.
func MetaKey(slug string) string {
	return "skill:" + slug + ":meta"
}

// SortBySlug orders skills in place.
func SortBySlug(skills []Skill) {
	sort.Slice(skills, func(i, j int) bool { return skills[i].Slug < skills[j].Slug })
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
