package api

import (
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/feeds"

	service "github.com/okian/skillhub/internal/app"
	"github.com/okian/skillhub/internal/domain/skill"
)

// FeedHandler publishes the catalog as an Atom feed, newest skills first.
type FeedHandler struct {
	catalog CatalogService
	baseURL string
	title   string
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(catalog CatalogService, baseURL, title string) *FeedHandler {
	return &FeedHandler{catalog: catalog, baseURL: baseURL, title: title}
}

// HandleFeed handles GET /feed.xml requests.
func (h *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	const op = "api.feed"
	skills, err := h.catalog.SearchSkills(r.Context(), service.Query{})
	if err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}

	type dated struct {
		skill.Skill
		at time.Time
	}
	items := make([]dated, 0, len(skills))
	for _, sk := range skills {
		items = append(items, dated{Skill: sk, at: parseCreatedAt(sk.CreatedAt)})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].at.After(items[j].at) })

	feed := &feeds.Feed{
		Id:          h.baseURL + "/",
		Title:       h.title,
		Link:        &feeds.Link{Href: h.baseURL + "/"},
		Description: h.title,
		Updated:     time.Unix(0, 0).UTC(),
	}
	if len(items) > 0 {
		feed.Updated = items[0].at
	}
	for _, it := range items {
		link := h.baseURL + "/skills/" + it.Slug
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       it.Name,
			Link:        &feeds.Link{Href: link},
			Description: it.Description,
			Author:      &feeds.Author{Name: it.Author},
			Created:     it.at,
			Updated:     it.at,
		})
	}

	body, err := feed.ToAtom()
	if err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// parseCreatedAt accepts RFC 3339 timestamps and plain dates. Unparseable
// values sort last.
func parseCreatedAt(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Unix(0, 0).UTC()
}
