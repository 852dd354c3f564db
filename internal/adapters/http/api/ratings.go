package api

import (
	"math"
	"net/http"

	"github.com/okian/skillhub/internal/domain/rating"
)

// RatingsHandler accepts ratings and exposes aggregates.
type RatingsHandler struct {
	catalog CatalogService
	ratings RatingService
}

// NewRatingsHandler creates a new ratings handler.
func NewRatingsHandler(catalog CatalogService, ratings RatingService) *RatingsHandler {
	return &RatingsHandler{catalog: catalog, ratings: ratings}
}

// rateRequest decodes score as a float so 4.5 is a validation failure
// rather than a decode failure.
type rateRequest struct {
	Name      string   `json:"name"`
	Seniority string   `json:"seniority"`
	Score     *float64 `json:"score"`
	Comment   string   `json:"comment"`
}

type rateResponse struct {
	OK      bool                `json:"ok"`
	Ratings rating.SkillRatings `json:"ratings"`
	Tier    rating.Tier         `json:"tier,omitempty"`
}

type skillRatingsResponse struct {
	Ratings rating.SkillRatings `json:"ratings"`
	Tier    rating.Tier         `json:"tier,omitempty"`
	Reviews []rating.Rating     `json:"reviews"`
}

type allRatingsResponse struct {
	Ratings map[string]rating.SkillRatings `json:"ratings"`
}

// HandleRate handles POST /skills/{slug}/rate requests.
func (h *RatingsHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	const op = "api.rate_skill"
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrInvalidJSON, err))
		return
	}
	if req.Score == nil || *req.Score != math.Trunc(*req.Score) || *req.Score < rating.MinScore || *req.Score > rating.MaxScore {
		writeError(w, r, WrapKind(op, ErrBadRequest, rating.ErrInvalidScore))
		return
	}
	agg, err := h.ratings.SubmitRating(r.Context(), r.PathValue("slug"), rating.Submission{
		Name:      req.Name,
		Seniority: req.Seniority,
		Score:     int(*req.Score),
		Comment:   req.Comment,
	})
	if err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rateResponse{OK: true, Ratings: agg, Tier: h.ratings.Tier(agg)})
}

// HandleSkillRatings handles GET /skills/{slug}/ratings requests.
func (h *RatingsHandler) HandleSkillRatings(w http.ResponseWriter, r *http.Request) {
	const op = "api.skill_ratings"
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
	reviews, err := h.ratings.ListSkillRatings(ctx, sk.Slug)
	if err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	if reviews == nil {
		reviews = []rating.Rating{}
	}
	writeJSON(w, http.StatusOK, skillRatingsResponse{Ratings: agg, Tier: h.ratings.Tier(agg), Reviews: reviews})
}

// HandleAllRatings handles GET /ratings requests.
func (h *RatingsHandler) HandleAllRatings(w http.ResponseWriter, r *http.Request) {
	const op = "api.all_ratings"
	all, err := h.ratings.GetAllRatings(r.Context())
	if err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	writeJSON(w, http.StatusOK, allRatingsResponse{Ratings: all})
}
