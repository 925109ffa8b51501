package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/api/transport"
	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/pkg/httpcontext"
	"github.com/fastygo/revenue-engine/repository"
	taskUC "github.com/fastygo/revenue-engine/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks, optionally scoped to an account
// @Tags tasks
// @Router /api/v1/tasks [get]
// @Router /api/v1/accounts/{id}/tasks [get]
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}

	accountID, _ := ctx.UserValue("id").(string)
	if accountID == "" {
		accountID = queryString(ctx, "account_id")
	}
	filter := repository.TaskFilter{
		WorkspaceID: ws,
		AccountID:   accountID,
		Status:      queryString(ctx, "status"),
		OpenOnly:    queryBool(ctx, "open"),
		Limit:       queryInt(ctx, "limit", 50),
		Offset:      queryInt(ctx, "offset", 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasks(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, nonNilSlice(tasks), len(tasks), filter.Limit, filter.Offset)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
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

	task, err := h.uc.GetTask(stdCtx, ws, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Create task under an account
// @Tags tasks
// @Router /api/v1/accounts/{id}/tasks [post]
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	accountID, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}
	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return
	}
	if req.Status == "" {
		req.Status = domain.TaskStatusOpen
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateTask(stdCtx, &domain.Task{
		WorkspaceID: ws,
		AccountID:   accountID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Owner:       req.Owner,
		DueAt:       req.DueAt,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update task fields, typically its status
// @Tags tasks
// @Router /api/v1/tasks/{id} [patch]
func (h *TaskHandler) Update(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}
	var patch taskUC.Patch
	if !h.decode(ctx, &patch) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateTask(stdCtx, ws, id, patch)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
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

	if err := h.uc.DeleteTask(stdCtx, ws, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}
