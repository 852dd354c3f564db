package api

import (
	"net/http"

	service "github.com/okian/skillhub/internal/app"
	"github.com/okian/skillhub/internal/domain/contribution"
)

// ContributionsHandler serves the submission queue.
type ContributionsHandler struct {
	queue ContributionService
	admin *adminGuard
}

// NewContributionsHandler creates a new contributions handler.
func NewContributionsHandler(queue ContributionService, admin *adminGuard) *ContributionsHandler {
	return &ContributionsHandler{queue: queue, admin: admin}
}

type submitRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Body        string `json:"body"`
	Raw         string `json:"raw"`
}

type submitResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

type dismissRequest struct {
	Key string `json:"key"`
}

type contributionsResponse struct {
	Contributions []contribution.Contribution `json:"contributions"`
}

// HandleSubmit handles POST /contributions requests.
func (h *ContributionsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_contribution"
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrInvalidJSON, err))
		return
	}
	id, err := h.queue.SubmitContribution(r.Context(), service.ContributionInput{
		Name:        req.Name,
		Description: req.Description,
		Body:        req.Body,
		Raw:         req.Raw,
	})
	if err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{OK: true, ID: id})
}

// HandleList handles GET /contributions requests (admin).
func (h *ContributionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_contributions"
	if err := h.admin.check(r); err != nil {
		writeError(w, r, NewKind(op, err))
		return
	}
	list, err := h.queue.ListContributions(r.Context())
	if err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	if list == nil {
		list = []contribution.Contribution{}
	}
	writeJSON(w, http.StatusOK, contributionsResponse{Contributions: list})
}

// HandleDismiss handles DELETE /contributions requests (admin).
func (h *ContributionsHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	const op = "api.dismiss_contribution"
	if err := h.admin.check(r); err != nil {
		writeError(w, r, NewKind(op, err))
		return
	}
	var req dismissRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrInvalidJSON, err))
		return
	}
	if err := h.queue.DismissContribution(r.Context(), req.Key); err != nil {
		writeError(w, r, WithOp(op, err))
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
