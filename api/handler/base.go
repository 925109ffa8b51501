package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/api/transport"
	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/pkg/httpcontext"
	"github.com/fastygo/revenue-engine/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondList(ctx *fasthttp.RequestCtx, data interface{}, count, limit, offset int) {
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(data, transport.PageMeta{Count: count, Limit: limit, Offset: offset}))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	if status >= http.StatusInternalServerError {
		stdCtx, cancel := h.requestContext(ctx)
		logger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.String("path", string(ctx.Path())), zap.Error(err))
		cancel()
		h.respondJSON(ctx, status, transport.NewError(code, "internal error", nil))
		return
	}
	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), nil))
}

func (h baseHandler) respondInvalid(ctx *fasthttp.RequestCtx, message string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), message, nil))
}

// decode parses the JSON body into dst and writes a 400 on failure.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	body := ctx.PostBody()
	if len(body) == 0 {
		h.respondInvalid(ctx, "empty payload")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return false
	}
	return true
}

// workspaceID returns the workspace set by the auth middleware, writing a 401 when absent.
func (h baseHandler) workspaceID(ctx *fasthttp.RequestCtx) (string, bool) {
	ws, _ := ctx.UserValue(httpcontext.UserValueWorkspace).(string)
	if ws == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing workspace", nil))
		return "", false
	}
	return ws, true
}

func (h baseHandler) pathParam(ctx *fasthttp.RequestCtx, name string) (string, bool) {
	value, _ := ctx.UserValue(name).(string)
	if strings.TrimSpace(value) == "" {
		h.respondInvalid(ctx, "missing "+name)
		return "", false
	}
	return value, true
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

func queryString(ctx *fasthttp.RequestCtx, key string) string {
	return strings.TrimSpace(string(ctx.QueryArgs().Peek(key)))
}

func queryInt(ctx *fasthttp.RequestCtx, key string, fallback int) int {
	if v, err := strconv.Atoi(queryString(ctx, key)); err == nil && v >= 0 {
		return v
	}
	return fallback
}

func queryBool(ctx *fasthttp.RequestCtx, key string) bool {
	v, _ := strconv.ParseBool(queryString(ctx, key))
	return v
}
