package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/api/transport"
	"github.com/fastygo/revenue-engine/pkg/httpcontext"
	authUC "github.com/fastygo/revenue-engine/usecase/auth"
)

// HeaderAPIKey carries the workspace API key.
const HeaderAPIKey = "X-API-Key"

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Exchange an API key for a bearer token
// @Tags auth
// @Router /api/v1/auth/token [post]
func (h *AuthHandler) Token(ctx *fasthttp.RequestCtx) {
	key := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderAPIKey)))
	if key == "" {
		var req transport.TokenRequest
		if body := ctx.PostBody(); len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				h.respondInvalid(ctx, "invalid payload")
				return
			}
		}
		key = strings.TrimSpace(req.APIKey)
	}
	if key == "" {
		h.respondInvalid(ctx, "api key is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	token, err := h.uc.IssueToken(stdCtx, key)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, token)
}
