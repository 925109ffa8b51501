package handler

import (
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/api/transport"
	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/pkg/httpcontext"
	"github.com/fastygo/revenue-engine/repository"
	accountUC "github.com/fastygo/revenue-engine/usecase/account"
)

type AccountHandler struct {
	baseHandler
	uc *accountUC.UseCase
}

func NewAccountHandler(uc *accountUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List accounts
// @Tags accounts
// @Router /api/v1/accounts [get]
func (h *AccountHandler) List(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}

	filter := repository.AccountFilter{
		WorkspaceID: ws,
		Industries:  splitList(queryString(ctx, "industry")),
		Stages:      splitList(queryString(ctx, "stage")),
		Limit:       queryInt(ctx, "limit", 50),
		Offset:      queryInt(ctx, "offset", 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	accounts, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, nonNilSlice(accounts), len(accounts), filter.Limit, filter.Offset)
}

// @Summary Get account
// @Tags accounts
// @Router /api/v1/accounts/{id} [get]
func (h *AccountHandler) Get(ctx *fasthttp.RequestCtx) {
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

	account, err := h.uc.Get(stdCtx, ws, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, account)
}

// @Summary Create account
// @Tags accounts
// @Router /api/v1/accounts [post]
func (h *AccountHandler) Create(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	var req transport.AccountRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, &domain.Account{
		WorkspaceID:   ws,
		Name:          req.Name,
		Domain:        req.Domain,
		Industry:      req.Industry,
		EmployeeRange: req.EmployeeRange,
		Country:       req.Country,
		City:          req.City,
		Owner:         req.Owner,
		Stage:         req.Stage,
		ScoreTotals:   domain.ScoreTotals{FitScore: req.FitScore},
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Patch account attributes. Scores and buyer stage are ignored.
// @Tags accounts
// @Router /api/v1/accounts/{id} [patch]
func (h *AccountHandler) Update(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}
	var patch domain.AccountPatch
	if !h.decode(ctx, &patch) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, ws, id, patch)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete account
// @Tags accounts
// @Router /api/v1/accounts/{id} [delete]
func (h *AccountHandler) Delete(ctx *fasthttp.RequestCtx) {
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

// @Summary List contacts of an account
// @Tags contacts
// @Router /api/v1/accounts/{id}/contacts [get]
func (h *AccountHandler) ListContacts(ctx *fasthttp.RequestCtx) {
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

	contacts, err := h.uc.ListContacts(stdCtx, ws, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, nonNilSlice(contacts), len(contacts), 0, 0)
}

// @Summary Create contact under an account
// @Tags contacts
// @Router /api/v1/accounts/{id}/contacts [post]
func (h *AccountHandler) CreateContact(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}
	var req transport.ContactRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateContact(stdCtx, &domain.Contact{
		WorkspaceID: ws,
		AccountID:   id,
		Name:        req.Name,
		Email:       req.Email,
		Title:       req.Title,
		Phone:       req.Phone,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// splitList turns "a,b" into a trimmed slice; empty input yields nil.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
