package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/skillhub/internal/adapters/kv"
	"github.com/okian/skillhub/internal/domain/skill"
	"github.com/okian/skillhub/pkg/logger"
	"github.com/okian/skillhub/pkg/metrics"
)

// Query narrows SearchSkills. Empty fields match everything.
type Query struct {
	Text     string
	Category string
	Tag      string
}

// ListSkills returns every skill sorted by slug, with admin overrides applied.
func (s *Service) ListSkills(ctx context.Context) ([]skill.Skill, error) {
	return s.loadCatalog(ctx)
}

// GetSkillBySlug returns one skill or ErrNotFound.
func (s *Service) GetSkillBySlug(ctx context.Context, slug string) (skill.Skill, error) {
	skills, err := s.loadCatalog(ctx)
	if err != nil {
		return skill.Skill{}, err
	}
	for _, sk := range skills {
		if sk.Slug == slug {
			return sk, nil
		}
	}
	return skill.Skill{}, fmt.Errorf("%w: skill %q", ErrNotFound, slug)
}

// ListCategories returns the sorted distinct categories.
func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	skills, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return distinct(skills, func(sk skill.Skill) []string { return []string{sk.Category} }), nil
}

// ListTags returns the sorted distinct tags.
func (s *Service) ListTags(ctx context.Context) ([]string, error) {
	skills, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return distinct(skills, func(sk skill.Skill) []string { return sk.Tags }), nil
}

// CountDistinctAuthors returns how many different authors the catalog has.
func (s *Service) CountDistinctAuthors(ctx context.Context) (int, error) {
	skills, err := s.loadCatalog(ctx)
	if err != nil {
		return 0, err
	}
	return len(distinct(skills, func(sk skill.Skill) []string { return []string{sk.Author} })), nil
}

// SearchSkills matches q.Text case-insensitively against name, description
// and tags, then applies the exact category and tag filters.
func (s *Service) SearchSkills(ctx context.Context, q Query) ([]skill.Skill, error) {
	skills, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(skills, q), nil
}

// Filter applies q to an already loaded skill list.
func Filter(skills []skill.Skill, q Query) []skill.Skill {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]skill.Skill, 0, len(skills))
	for _, sk := range skills {
		if q.Category != "" && sk.Category != q.Category {
			continue
		}
		if q.Tag != "" && !contains(sk.Tags, q.Tag) {
			continue
		}
		if text != "" && !matchesText(sk, text) {
			continue
		}
		out = append(out, sk)
	}
	return out
}

// SaveOverride stores patch as the complete override record of slug and
// returns the merged metadata. Earlier overrides are replaced, not merged.
func (s *Service) SaveOverride(ctx context.Context, slug string, patch skill.MetaPatch) (skill.Meta, error) {
	if !s.catalog.Has(slug) {
		return skill.Meta{}, fmt.Errorf("%w: skill %q", ErrNotFound, slug)
	}
	if s.store == nil {
		return skill.Meta{}, ErrUnavailable
	}
	base, err := s.catalog.Load(slug)
	if err != nil {
		return skill.Meta{}, fmt.Errorf("load %s: %w", slug, err)
	}
	if err := kv.SetJSON(ctx, s.store, skill.MetaKey(slug), patch); err != nil {
		return skill.Meta{}, fmt.Errorf("save override: %w", err)
	}
	metrics.RecordCatalogOverride()
	s.log(ctx).Info(ctx, "skill metadata overridden", logger.String("slug", slug))
	return patch.Apply(base.Meta), nil
}

// loadCatalog reads the filesystem catalog and lays the overrides over it
// using one multi-key read.
func (s *Service) loadCatalog(ctx context.Context) ([]skill.Skill, error) {
	start := time.Now()
	skills, err := s.catalog.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	skill.SortBySlug(skills)

	if s.store != nil && len(skills) > 0 {
		keys := make([]string, len(skills))
		for i, sk := range skills {
			keys[i] = skill.MetaKey(sk.Slug)
		}
		patches, err := kv.MGetJSON[skill.MetaPatch](ctx, s.store, keys...)
		if err != nil {
			// Browsing keeps working on the filesystem values alone.
			s.log(ctx).Warn(ctx, "load metadata overrides", logger.Error(err))
		}
		for i := range skills {
			if p, ok := patches[keys[i]]; ok {
				skills[i] = p.ApplyTo(skills[i])
			}
		}
	}

	metrics.RecordCatalogLoad(float64(time.Since(start).Microseconds()) / 1000.0)
	metrics.UpdateCatalogSkills(len(skills))
	return skills, nil
}

func matchesText(sk skill.Skill, text string) bool {
	if strings.Contains(strings.ToLower(sk.Name), text) ||
		strings.Contains(strings.ToLower(sk.Description), text) {
		return true
	}
	for _, t := range sk.Tags {
		if strings.Contains(strings.ToLower(t), text) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// distinct collects the non-empty values pick returns, sorted.
func distinct(skills []skill.Skill, pick func(skill.Skill) []string) []string {
	seen := make(map[string]struct{})
	for _, sk := range skills {
		for _, v := range pick(sk) {
			if v != "" {
				seen[v] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
