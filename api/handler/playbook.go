package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/pkg/httpcontext"
	playbookUC "github.com/fastygo/revenue-engine/usecase/playbook"
)

type PlaybookHandler struct {
	baseHandler
	uc *playbookUC.UseCase
}

func NewPlaybookHandler(uc *playbookUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *PlaybookHandler {
	return &PlaybookHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List playbook rules
// @Tags playbooks
// @Router /api/v1/playbooks [get]
func (h *PlaybookHandler) List(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rules, err := h.uc.List(stdCtx, ws)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, nonNilSlice(rules), len(rules), 0, 0)
}

// @Summary Get playbook rule
// @Tags playbooks
// @Router /api/v1/playbooks/{id} [get]
func (h *PlaybookHandler) Get(ctx *fasthttp.RequestCtx) {
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

	rule, err := h.uc.Get(stdCtx, ws, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, rule)
}

// @Summary Create playbook rule. Rules are active unless is_active is false.
// @Tags playbooks
// @Router /api/v1/playbooks [post]
func (h *PlaybookHandler) Create(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	rule := domain.PlaybookRule{IsActive: true}
	if !h.decode(ctx, &rule) {
		return
	}
	rule.ID = ""
	rule.WorkspaceID = ws

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, &rule)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Replace playbook rule
// @Tags playbooks
// @Router /api/v1/playbooks/{id} [put]
func (h *PlaybookHandler) Update(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}
	rule := domain.PlaybookRule{IsActive: true}
	if !h.decode(ctx, &rule) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, ws, id, &rule)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete playbook rule
// @Tags playbooks
// @Router /api/v1/playbooks/{id} [delete]
func (h *PlaybookHandler) Delete(ctx *fasthttp.RequestCtx) {
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

	if err := h.uc.Delete(stdCtx, ws, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Evaluate active rules against an account and perform the actions
// @Tags playbooks
// @Router /api/v1/accounts/{id}/run-playbooks [post]
func (h *PlaybookHandler) Run(ctx *fasthttp.RequestCtx) {
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

	result, err := h.uc.Run(stdCtx, ws, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}
