package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/internal/attribution"
	"github.com/fastygo/revenue-engine/internal/segment"
	"github.com/fastygo/revenue-engine/pkg/httpcontext"
	reportUC "github.com/fastygo/revenue-engine/usecase/report"
)

type ReportHandler struct {
	baseHandler
	uc *reportUC.UseCase
}

func NewReportHandler(uc *reportUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Channel attribution over a lookback window
// @Tags reports
// @Router /api/v1/reports/attribution [get]
func (h *ReportHandler) Attribution(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	params := attribution.Params{
		AccountID:      queryString(ctx, "account_id"),
		LookbackDays:   queryInt(ctx, "lookback_days", 0),
		UniqueChannels: queryBool(ctx, "unique_channels"),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	channels, err := h.uc.Attribution(stdCtx, ws, params)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, channels)
}

// @Summary Bucket accounts into segments. An empty body applies no filters.
// @Tags reports
// @Router /api/v1/reports/segments [post]
func (h *ReportHandler) Segments(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	var filters segment.Filters
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &filters); err != nil {
			h.respondInvalid(ctx, "invalid payload")
			return
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	segments, err := h.uc.Segments(stdCtx, ws, filters)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, segments)
}

// @Summary Accounts ranked by total score
// @Tags reports
// @Router /api/v1/reports/top-accounts [get]
func (h *ReportHandler) TopAccounts(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	limit := queryInt(ctx, "limit", reportUC.DefaultTopLimit)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	accounts, err := h.uc.TopAccounts(stdCtx, ws, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, nonNilSlice(accounts), len(accounts), limit, 0)
}

// @Summary Recent events, alerts, tasks and visits merged newest first
// @Tags reports
// @Router /api/v1/reports/activity [get]
func (h *ReportHandler) Activity(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	limit := queryInt(ctx, "limit", reportUC.DefaultActivityLimit)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	feed, err := h.uc.Activity(stdCtx, ws, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, nonNilSlice(feed), len(feed), limit, 0)
}

// @Summary Share of accounts past the unaware stage
// @Tags reports
// @Router /api/v1/reports/coverage [get]
func (h *ReportHandler) Coverage(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	coverage, err := h.uc.Coverage(stdCtx, ws)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, coverage)
}

// @Summary Open tasks and open opportunity value per account
// @Tags reports
// @Router /api/v1/reports/pipeline [get]
func (h *ReportHandler) Pipeline(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rows, err := h.uc.Pipeline(stdCtx, ws)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, nonNilSlice(rows), len(rows), 0, 0)
}

// @Summary Full account view with timeline and signals
// @Tags reports
// @Router /api/v1/accounts/{id}/360 [get]
func (h *ReportHandler) Account360(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.uc.Account360(stdCtx, ws, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// @Summary Lead quality, timeline and narrative for an account
// @Tags reports
// @Router /api/v1/accounts/{id}/insights [get]
func (h *ReportHandler) Insights(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	out, err := h.uc.Insights(stdCtx, ws, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, out)
}
