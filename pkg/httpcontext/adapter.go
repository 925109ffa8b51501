package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/revenue-engine/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
)

// UserValueWorkspace is the fasthttp user value set by the auth middleware.
const UserValueWorkspace = "workspace_id"

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches it with request metadata.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := getRequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	if ctx == nil {
		return stdCtx, cancel
	}
	ctx.Response.Header.Set("X-Request-ID", reqID)

	if ws, ok := ctx.UserValue(UserValueWorkspace).(string); ok && ws != "" {
		stdCtx = appLogger.ContextWithWorkspace(stdCtx, ws)
	}
	stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, ClientIP(ctx))
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}

	return stdCtx, cancel
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the socket address.
func ClientIP(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return ""
	}
	if fwd := string(ctx.Request.Header.Peek("X-Forwarded-For")); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Real-IP"))); real != "" {
		return real
	}
	return ctx.RemoteIP().String()
}

func getRequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if header := string(ctx.Request.Header.Peek("X-Request-ID")); strings.TrimSpace(header) != "" {
		return header
	}
	// Later Attach calls for the same request (middleware, then handler) share the id.
	id := uuid.NewString()
	ctx.Request.Header.Set("X-Request-ID", id)
	return id
}
