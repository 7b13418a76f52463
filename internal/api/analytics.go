package api

import (
	"net/http"
	"strconv"

	"github.com/starford/devflow/internal/insights"
)

const maxTimelineDays = 366

// InsightsHandler serves analytics and the weekly digest.
type InsightsHandler struct {
	svc *insights.Service
}

// NewInsightsHandler creates an InsightsHandler.
func NewInsightsHandler(svc *insights.Service) *InsightsHandler {
	return &InsightsHandler{svc: svc}
}

// daysParam reads ?days=; absent means the configured default.
func daysParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxTimelineDays {
		writeJSON(w, http.StatusBadRequest, errorBody("days must be between 1 and 366"))
		return 0, false
	}
	return n, true
}

// Overview handles GET /api/analytics/overview.
//
//	@Summary	Streaks, active days, timeline and tech ranking in one call
//	@Tags		analytics
//	@Produce	json
//	@Param		days	query		int	false	"Timeline length"
//	@Success	200		{object}	activity.Overview
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/analytics/overview [get]
func (h *InsightsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	days, ok := daysParam(w, r)
	if !ok {
		return
	}
	ov, err := h.svc.Overview(r.Context(), days)
	if err != nil {
		writeError(w, "overview", err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// Streaks handles GET /api/analytics/streaks.
func (h *InsightsHandler) Streaks(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Streaks(r.Context())
	if err != nil {
		writeError(w, "streaks", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Timeline handles GET /api/analytics/timeline.
func (h *InsightsHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	days, ok := daysParam(w, r)
	if !ok {
		return
	}
	tl, err := h.svc.Timeline(r.Context(), days)
	if err != nil {
		writeError(w, "timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, TimelineResponse{Days: len(tl), Timeline: tl})
}

// TechStack handles GET /api/analytics/tech.
func (h *InsightsHandler) TechStack(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.svc.TechStack(r.Context())
	if err != nil {
		writeError(w, "tech stack", err)
		return
	}
	writeJSON(w, http.StatusOK, TechStackResponse{TechStack: ranked})
}

// Digest handles GET /api/digest.
//
//	@Summary	The caller's last generated weekly digest
//	@Tags		digest
//	@Produce	json
//	@Success	200	{object}	models.Digest
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/digest [get]
func (h *InsightsHandler) Digest(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Digest(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, "get digest", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DigestPayload handles GET /api/digest/payload.
func (h *InsightsHandler) DigestPayload(w http.ResponseWriter, r *http.Request) {
	wp, err := h.svc.WeekPayload(r.Context())
	if err != nil {
		writeError(w, "digest payload", err)
		return
	}
	writeJSON(w, http.StatusOK, wp)
}

// GenerateDigest handles POST /api/digest.
//
//	@Summary	Generate and store this week's digest
//	@Tags		digest
//	@Produce	json
//	@Success	201	{object}	models.Digest
//	@Failure	409	{object}	errResponse	"digest disabled"
//	@Failure	502	{object}	errResponse	"text generation failed"
//	@Failure	503	{object}	errResponse	"API key not set"
//	@Failure	504	{object}	errResponse	"generation timed out"
//	@Security	BearerAuth
//	@Router		/digest [post]
func (h *InsightsHandler) GenerateDigest(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GenerateDigest(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, "generate digest", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}
