// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	service "github.com/okian/skillhub/internal/app"
	"github.com/okian/skillhub/internal/auth"
	"github.com/okian/skillhub/internal/domain/contribution"
	"github.com/okian/skillhub/internal/domain/rating"
	"github.com/okian/skillhub/internal/domain/skill"
	"github.com/okian/skillhub/pkg/logger"
)

// maxBodyBytes bounds request bodies; contributions carry whole documents.
const maxBodyBytes = 1 << 20

// AdminHeader carries the admin credential: an issued token or the secret.
const AdminHeader = "x-admin-secret"

// CatalogService is the skill catalog as the handlers see it.
type CatalogService interface {
	SearchSkills(ctx context.Context, q service.Query) ([]skill.Skill, error)
	GetSkillBySlug(ctx context.Context, slug string) (skill.Skill, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListTags(ctx context.Context) ([]string, error)
	CountDistinctAuthors(ctx context.Context) (int, error)
	SaveOverride(ctx context.Context, slug string, patch skill.MetaPatch) (skill.Meta, error)
}

// RatingService records and reads ratings.
type RatingService interface {
	SubmitRating(ctx context.Context, slug string, sub rating.Submission) (rating.SkillRatings, error)
	GetSkillRatings(ctx context.Context, slug string) (rating.SkillRatings, error)
	GetAllRatings(ctx context.Context) (map[string]rating.SkillRatings, error)
	ListSkillRatings(ctx context.Context, slug string) ([]rating.Rating, error)
	Tier(r rating.SkillRatings) rating.Tier
}

// ContributionService is the moderation queue.
type ContributionService interface {
	SubmitContribution(ctx context.Context, in service.ContributionInput) (string, error)
	ListContributions(ctx context.Context) ([]contribution.Contribution, error)
	DismissContribution(ctx context.Context, key string) error
}

// Dependencies bundles everything the handlers call.
type Dependencies interface {
	CatalogService
	RatingService
	ContributionService
}

// Authenticator checks admin credentials.
type Authenticator interface {
	Authenticate(secret string) (auth.Token, error)
	Verify(credential string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	authHandler         *AuthHandler
	skillsHandler       *SkillsHandler
	ratingsHandler      *RatingsHandler
	contributionHandler *ContributionsHandler
	feedHandler         *FeedHandler
}

// Option configures the Server.
type Option func(*serverOptions)

type serverOptions struct {
	baseURL string
	title   string
}

// WithBaseURL sets the public URL used in feed links.
func WithBaseURL(u string) Option {
	return func(o *serverOptions) {
		if u != "" {
			o.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithSiteTitle sets the feed title.
func WithSiteTitle(t string) Option {
	return func(o *serverOptions) {
		if t != "" {
			o.title = t
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, gate Authenticator, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{baseURL: "http://localhost:8080", title: "Skills Hub"}
	for _, opt := range opts {
		opt(&o)
	}
	admin := &adminGuard{gate: gate}
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		authHandler:         NewAuthHandler(gate),
		skillsHandler:       NewSkillsHandler(deps, deps, admin),
		ratingsHandler:      NewRatingsHandler(deps, deps),
		contributionHandler: NewContributionsHandler(deps, admin),
		feedHandler:         NewFeedHandler(deps, o.baseURL, o.title),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /auth", MetricsMiddleware(s.authHandler.HandleLogin, "auth"))

	mux.HandleFunc("GET /skills", MetricsMiddleware(s.skillsHandler.HandleList, "skills"))
	mux.HandleFunc("GET /skills/{slug}", MetricsMiddleware(s.skillsHandler.HandleGet, "skill"))
	mux.HandleFunc("PUT /skills/{slug}", MetricsMiddleware(s.skillsHandler.HandleUpdate, "skill"))

	mux.HandleFunc("POST /skills/{slug}/rate", MetricsMiddleware(s.ratingsHandler.HandleRate, "rate"))
	mux.HandleFunc("GET /skills/{slug}/ratings", MetricsMiddleware(s.ratingsHandler.HandleSkillRatings, "skill_ratings"))
	mux.HandleFunc("GET /ratings", MetricsMiddleware(s.ratingsHandler.HandleAllRatings, "ratings"))

	mux.HandleFunc("GET /contributions", MetricsMiddleware(s.contributionHandler.HandleList, "contributions"))
	mux.HandleFunc("POST /contributions", MetricsMiddleware(s.contributionHandler.HandleSubmit, "contributions"))
	mux.HandleFunc("DELETE /contributions", MetricsMiddleware(s.contributionHandler.HandleDismiss, "contributions"))

	mux.HandleFunc("GET /feed.xml", MetricsMiddleware(s.feedHandler.HandleFeed, "feed"))
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err with the status its kind maps to. Internal errors
// are logged and replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		op := ""
		var apiErr *Error
		if errors.As(err, &apiErr) {
			op = apiErr.Op
		}
		logger.FromContext(r.Context()).Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.Error(err),
		)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// decodeJSON reads one JSON document from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrInvalidJSON)
		}
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}
