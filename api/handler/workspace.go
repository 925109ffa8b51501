package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/pkg/httpcontext"
	workspaceUC "github.com/fastygo/revenue-engine/usecase/workspace"
)

type WorkspaceHandler struct {
	baseHandler
	uc *workspaceUC.UseCase
}

func NewWorkspaceHandler(uc *workspaceUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Current workspace of the caller
// @Tags workspace
// @Success 200 {object} transport.Envelope
// @Router /api/v1/workspace [get]
func (h *WorkspaceHandler) Current(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	workspace, err := h.uc.Get(stdCtx, ws)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, workspace)
}
