package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/api/transport"
	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/pkg/httpcontext"
	"github.com/fastygo/revenue-engine/repository"
	eventUC "github.com/fastygo/revenue-engine/usecase/event"
)

type EventHandler struct {
	baseHandler
	uc               *eventUC.UseCase
	defaultWorkspace string
}

// NewEventHandler wires event ingestion. defaultWorkspace receives unauthenticated tracker hits.
func NewEventHandler(uc *eventUC.UseCase, defaultWorkspace string, adapter *httpcontext.Adapter, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		baseHandler:      newBaseHandler(adapter, logger),
		uc:               uc,
		defaultWorkspace: defaultWorkspace,
	}
}

// @Summary Record a scored event for an account
// @Tags events
// @Router /api/v1/accounts/{id}/events [post]
func (h *EventHandler) Record(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}
	var in eventUC.RecordInput
	if !h.decode(ctx, &in) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Record(stdCtx, ws, id, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, ingestStatus(result), result)
}

// @Summary List recent events of an account
// @Tags events
// @Router /api/v1/accounts/{id}/events [get]
func (h *EventHandler) List(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}
	limit := queryInt(ctx, "limit", 100)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	events, err := h.uc.ListEvents(stdCtx, ws, id, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, nonNilSlice(events), len(events), limit, 0)
}

// @Summary Track a page visit, scoring the account when it resolves
// @Tags tracking
// @Router /api/v1/track [post]
func (h *EventHandler) Track(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	in, ok := h.trackInput(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Track(stdCtx, ws, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, ingestStatus(result), result)
}

// @Summary Unauthenticated visit capture for the default workspace
// @Tags tracking
// @Router /public/track [post]
func (h *EventHandler) PublicTrack(ctx *fasthttp.RequestCtx) {
	if h.defaultWorkspace == "" {
		h.respondJSON(ctx, http.StatusForbidden, transport.NewError(string(domain.ErrCodeForbidden), "public tracking is disabled", nil))
		return
	}
	in, ok := h.trackInput(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.PublicTrack(stdCtx, h.defaultWorkspace, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, ingestStatus(result), result)
}

// @Summary List anonymous visits
// @Tags visits
// @Router /api/v1/visits [get]
func (h *EventHandler) ListVisits(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	filter := repository.VisitFilter{
		WorkspaceID: ws,
		AccountID:   queryString(ctx, "account_id"),
		Limit:       queryInt(ctx, "limit", 50),
		Offset:      queryInt(ctx, "offset", 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	visits, err := h.uc.ListVisits(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, nonNilSlice(visits), len(visits), filter.Limit, filter.Offset)
}

// @Summary Store an anonymous visit
// @Tags visits
// @Router /api/v1/visits [post]
func (h *EventHandler) CreateVisit(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	var req transport.VisitRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateVisit(stdCtx, &domain.AnonymousVisit{
		WorkspaceID:  ws,
		AccountID:    req.AccountID,
		IP:           httpcontext.ClientIP(ctx),
		UserAgent:    string(ctx.Request.Header.UserAgent()),
		URL:          req.URL,
		Referrer:     req.Referrer,
		Country:      req.Country,
		City:         req.City,
		CompanyGuess: req.CompanyGuess,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

func (h *EventHandler) trackInput(ctx *fasthttp.RequestCtx) (eventUC.TrackInput, bool) {
	var in eventUC.TrackInput
	if !h.decode(ctx, &in) {
		return in, false
	}
	in.IP = httpcontext.ClientIP(ctx)
	in.UserAgent = string(ctx.Request.Header.UserAgent())
	return in, true
}

// ingestStatus is 202 when any part of the write was parked for replay.
func ingestStatus(result *eventUC.Result) int {
	if result != nil && result.Buffered {
		return http.StatusAccepted
	}
	return http.StatusCreated
}
