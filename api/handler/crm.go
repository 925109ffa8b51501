package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/api/transport"
	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/pkg/httpcontext"
	"github.com/fastygo/revenue-engine/repository"
	crmUC "github.com/fastygo/revenue-engine/usecase/crm"
)

type CRMHandler struct {
	baseHandler
	uc *crmUC.UseCase
}

func NewCRMHandler(uc *crmUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *CRMHandler {
	return &CRMHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Upsert an account by CRM external id
// @Tags crm
// @Router /api/v1/crm/{provider}/accounts/upsert [post]
func (h *CRMHandler) UpsertAccount(ctx *fasthttp.RequestCtx) {
	ws, provider, ok := h.scope(ctx)
	if !ok {
		return
	}
	var in crmUC.AccountInput
	if !h.decode(ctx, &in) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.UpsertAccount(stdCtx, ws, provider, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, upsertStatus(result.Created), result)
}

// @Summary Upsert a contact by CRM external id
// @Tags crm
// @Router /api/v1/crm/{provider}/contacts/upsert [post]
func (h *CRMHandler) UpsertContact(ctx *fasthttp.RequestCtx) {
	ws, provider, ok := h.scope(ctx)
	if !ok {
		return
	}
	var in crmUC.ContactInput
	if !h.decode(ctx, &in) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.UpsertContact(stdCtx, ws, provider, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, upsertStatus(result.Created), result)
}

// @Summary Upsert an opportunity by CRM external id
// @Tags crm
// @Router /api/v1/crm/{provider}/opportunities/upsert [post]
func (h *CRMHandler) UpsertOpportunity(ctx *fasthttp.RequestCtx) {
	ws, provider, ok := h.scope(ctx)
	if !ok {
		return
	}
	var in crmUC.OpportunityInput
	if !h.decode(ctx, &in) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.UpsertOpportunity(stdCtx, ws, provider, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, upsertStatus(result.Created), result)
}

// @Summary List opportunities
// @Tags opportunities
// @Router /api/v1/opportunities [get]
func (h *CRMHandler) ListOpportunities(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	filter := repository.OpportunityFilter{
		WorkspaceID: ws,
		AccountID:   queryString(ctx, "account_id"),
		Limit:       queryInt(ctx, "limit", 50),
		Offset:      queryInt(ctx, "offset", 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	opps, err := h.uc.ListOpportunities(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, nonNilSlice(opps), len(opps), filter.Limit, filter.Offset)
}

// @Summary Get opportunity
// @Tags opportunities
// @Router /api/v1/opportunities/{id} [get]
func (h *CRMHandler) GetOpportunity(ctx *fasthttp.RequestCtx) {
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

	opp, err := h.uc.GetOpportunity(stdCtx, ws, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, opp)
}

// @Summary Create opportunity
// @Tags opportunities
// @Router /api/v1/opportunities [post]
func (h *CRMHandler) CreateOpportunity(ctx *fasthttp.RequestCtx) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return
	}
	var req transport.OpportunityRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateOpportunity(stdCtx, &domain.Opportunity{
		WorkspaceID: ws,
		AccountID:   req.AccountID,
		Name:        req.Name,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Stage:       req.Stage,
		Status:      req.Status,
		CloseDate:   req.CloseDate,
		Source:      "manual",
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

func (h *CRMHandler) scope(ctx *fasthttp.RequestCtx) (string, string, bool) {
	ws, ok := h.workspaceID(ctx)
	if !ok {
		return "", "", false
	}
	provider, ok := h.pathParam(ctx, "provider")
	if !ok {
		return "", "", false
	}
	return ws, provider, true
}

func upsertStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
