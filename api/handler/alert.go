package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/api/transport"
	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/pkg/httpcontext"
	"github.com/fastygo/revenue-engine/repository"
	alertUC "github.com/fastygo/revenue-engine/usecase/alert"
)

type AlertHandler struct {
	baseHandler
	uc *alertUC.UseCase
}

func NewAlertHandler(uc *alertUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List alerts
// @Tags alerts
// @Router /api/v1/alerts [get]
func (h *AlertHandler) List(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	filter := repository.AlertFilter{
		WorkspaceID: ws,
		AccountID:   queryString(ctx, "account_id"),
		UnreadOnly:  queryBool(ctx, "unread"),
		Limit:       queryInt(ctx, "limit", 50),
		Offset:      queryInt(ctx, "offset", 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	alerts, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, nonNilSlice(alerts), len(alerts), filter.Limit, filter.Offset)
}

// @Summary Create alert
// @Tags alerts
// @Router /api/v1/alerts [post]
func (h *AlertHandler) Create(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	var req transport.AlertRequest
	if !h.decode(ctx, &req) {
		return
	}
	if req.Severity == "" {
		req.Severity = domain.SeverityMedium
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, &domain.Alert{
		WorkspaceID: ws,
		AccountID:   req.AccountID,
		Title:       req.Title,
		Body:        req.Body,
		Type:        req.Type,
		Severity:    req.Severity,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Mark alert as read
// @Tags alerts
// @Router /api/v1/alerts/{id}/read [post]
func (h *AlertHandler) MarkRead(ctx *fasthttp.RequestCtx) {
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

	if err := h.uc.MarkRead(stdCtx, ws, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{"id": id, "is_read": true})
}
