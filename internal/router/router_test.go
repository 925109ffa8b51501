package router

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/revenue-engine/api/handler"
	"github.com/fastygo/revenue-engine/internal/infrastructure/monitor"
)

type upStatus struct{}

func (upStatus) GetStatus() monitor.Status {
	return monitor.Status{PostgreSQL: true, Redis: true, Buffer: true}
}

type upDB struct{}

func (upDB) Ping(context.Context) error { return nil }

func TestRouter_ProtectsAPIRoutes(t *testing.T) {
	var guarded []string
	deny := func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			guarded = append(guarded, string(ctx.Path()))
			ctx.SetStatusCode(http.StatusUnauthorized)
		}
	}

	r := New(Handlers{
		Health: apiHandler.NewHealthHandler(upStatus{}, upDB{}, nil, nil),
	}, deny)

	tests := []struct {
		method  string
		path    string
		status  int
		guarded bool
	}{
		{fasthttp.MethodGet, "/health", http.StatusOK, false},
		{fasthttp.MethodGet, "/ready", http.StatusOK, false},
		{fasthttp.MethodGet, "/api/v1/accounts", http.StatusUnauthorized, true},
		{fasthttp.MethodPost, "/api/v1/accounts/acc-1/events", http.StatusUnauthorized, true},
		{fasthttp.MethodPost, "/api/v1/reports/segments", http.StatusUnauthorized, true},
		{fasthttp.MethodPost, "/api/v1/crm/hubspot/accounts/upsert", http.StatusUnauthorized, true},
		{fasthttp.MethodGet, "/api/v1/nope", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			guarded = nil
			var rc fasthttp.RequestCtx
			rc.Request.Header.SetMethod(tt.method)
			rc.Request.SetRequestURI(tt.path)

			r.Handler(&rc)

			assert.Equal(t, tt.status, rc.Response.StatusCode())
			assert.Equal(t, tt.guarded, len(guarded) == 1)
		})
	}
}
