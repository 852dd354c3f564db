package api

import (
	"net/http"

	service "github.com/okian/skillhub/internal/app"
	"github.com/okian/skillhub/internal/domain/rating"
	"github.com/okian/skillhub/internal/domain/skill"
)

// SkillsHandler serves the catalog and admin metadata edits.
type SkillsHandler struct {
	catalog CatalogService
	ratings RatingService
	admin   *adminGuard
}

// NewSkillsHandler creates a new catalog handler.
func NewSkillsHandler(catalog CatalogService, ratings RatingService, admin *adminGuard) *SkillsHandler {
	return &SkillsHandler{catalog: catalog, ratings: ratings, admin: admin}
}

// skillSummary is a catalog card: metadata plus rating state.
type skillSummary struct {
	Slug string `json:"slug"`
	skill.Meta
	Ratings rating.SkillRatings `json:"ratings"`
	Tier    rating.Tier         `json:"tier,omitempty"`
}

type listResponse struct {
	Skills     []skillSummary `json:"skills"`
	Categories []string       `json:"categories"`
	Tags       []string       `json:"tags"`
	Authors    int            `json:"authors"`
}

type skillDetail struct {
	skill.Skill
	Ratings rating.SkillRatings `json:"ratings"`
	Tier    rating.Tier         `json:"tier,omitempty"`
}

type updateResponse struct {
	OK   bool       `json:"ok"`
	Meta skill.Meta `json:"meta"`
}

// HandleList handles GET /skills?q=&category=&tag= requests.
func (h *SkillsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_skills"
	ctx := r.Context()
	qs := r.URL.Query()

	skills, err := h.catalog.SearchSkills(ctx, service.Query{
		Text:     qs.Get("q"),
		Category: qs.Get("category"),
		Tag:      qs.Get("tag"),
	})
	if err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	all, err := h.ratings.GetAllRatings(ctx)
	if err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	resp := listResponse{Skills: make([]skillSummary, 0, len(skills))}
	for _, sk := range skills {
		agg := all[sk.Slug]
		resp.Skills = append(resp.Skills, skillSummary{
			Slug:    sk.Slug,
			Meta:    sk.Meta,
			Ratings: agg,
			Tier:    h.ratings.Tier(agg),
		})
	}
	if resp.Categories, err = h.catalog.ListCategories(ctx); err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	if resp.Tags, err = h.catalog.ListTags(ctx); err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	if resp.Authors, err = h.catalog.CountDistinctAuthors(ctx); err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /skills/{slug} requests.
func (h *SkillsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_skill"
	ctx := r.Context()
	sk, err := h.catalog.GetSkillBySlug(ctx, r.PathValue("slug"))
	if err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	agg, err := h.ratings.GetSkillRatings(ctx, sk.Slug)
	if err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	writeJSON(w, http.StatusOK, skillDetail{Skill: sk, Ratings: agg, Tier: h.ratings.Tier(agg)})
}

// HandleUpdate handles PUT /skills/{slug}. The body is filtered to the
// editable fields and replaces any earlier override.
func (h *SkillsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_skill"
	if err := h.admin.check(r); err != nil {
		writeError(w, r, NewKind(op, err))
		return
	}
	var patch skill.MetaPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, WrapKind(op, ErrInvalidJSON, err))
		return
	}
	meta, err := h.catalog.SaveOverride(r.Context(), r.PathValue("slug"), patch)
	if err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	writeJSON(w, http.StatusOK, updateResponse{OK: true, Meta: meta})
}
