package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/api/transport"
	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/pkg/httpcontext"
	appLogger "github.com/fastygo/revenue-engine/pkg/logger"
)

// Authenticator resolves credentials to a workspace. *auth.UseCase implements it.
type Authenticator interface {
	ResolveAPIKey(ctx context.Context, key string) (*domain.APIKey, error)
	ParseToken(token string) (string, error)
}

// WorkspaceAuth accepts either an X-API-Key header or a bearer JWT and stores the
// resolved workspace id as a request user value.
func WorkspaceAuth(auth Authenticator, adapter *httpcontext.Adapter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			stdCtx, cancel := adapter.Attach(ctx)
			workspaceID, err := authenticate(stdCtx, auth, ctx)
			cancel()

			if err != nil {
				log := appLogger.WithRequestID(stdCtx, logger)
				if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					log.Debug("request rejected", zap.String("path", string(ctx.Path())), zap.Error(err))
					writeError(ctx, http.StatusUnauthorized, string(domain.ErrCodeUnauthorized), "invalid or missing credentials")
					return
				}
				log.Error("credential lookup failed", zap.Error(err))
				writeError(ctx, http.StatusServiceUnavailable, "UNAVAILABLE", "authentication backend unavailable")
				return
			}

			ctx.SetUserValue(httpcontext.UserValueWorkspace, workspaceID)
			next(ctx)
		}
	}
}

func authenticate(stdCtx context.Context, auth Authenticator, ctx *fasthttp.RequestCtx) (string, error) {
	if auth == nil {
		return "", domain.ErrUnauthorized
	}
	if key := strings.TrimSpace(string(ctx.Request.Header.Peek("X-API-Key"))); key != "" {
		record, err := auth.ResolveAPIKey(stdCtx, key)
		if err != nil {
			return "", err
		}
		return record.WorkspaceID, nil
	}
	if token := extractToken(ctx); token != "" {
		return auth.ParseToken(token)
	}
	return "", domain.ErrUnauthorized
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func writeError(ctx *fasthttp.RequestCtx, status int, code, message string) {
	body, _ := json.Marshal(transport.NewError(code, message, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
