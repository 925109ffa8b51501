package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/revenue-engine/api/handler"
)

type Handlers struct {
	Auth      *apiHandler.AuthHandler
	Workspace *apiHandler.WorkspaceHandler
	Account   *apiHandler.AccountHandler
	Event     *apiHandler.EventHandler
	Task      *apiHandler.TaskHandler
	Alert     *apiHandler.AlertHandler
	Playbook  *apiHandler.PlaybookHandler
	CRM       *apiHandler.CRMHandler
	Report    *apiHandler.ReportHandler
	Health    *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	r.GET("/ready", handlers.Health.Ready)

	// Unauthenticated
	r.POST("/api/v1/auth/token", handlers.Auth.Token)
	r.POST("/public/track", handlers.Event.PublicTrack)

	api := r.Group("/api/v1")
	protected := func(method, path string, h fasthttp.RequestHandler) {
		api.Handle(method, path, authMiddleware(h))
	}

	protected(fasthttp.MethodGet, "/workspace", handlers.Workspace.Current)

	protected(fasthttp.MethodGet, "/accounts", handlers.Account.List)
	protected(fasthttp.MethodPost, "/accounts", handlers.Account.Create)
	protected(fasthttp.MethodGet, "/accounts/{id}", handlers.Account.Get)
	protected(fasthttp.MethodPatch, "/accounts/{id}", handlers.Account.Update)
	protected(fasthttp.MethodDelete, "/accounts/{id}", handlers.Account.Delete)
	protected(fasthttp.MethodGet, "/accounts/{id}/contacts", handlers.Account.ListContacts)
	protected(fasthttp.MethodPost, "/accounts/{id}/contacts", handlers.Account.CreateContact)
	protected(fasthttp.MethodGet, "/accounts/{id}/events", handlers.Event.List)
	protected(fasthttp.MethodPost, "/accounts/{id}/events", handlers.Event.Record)
	protected(fasthttp.MethodGet, "/accounts/{id}/tasks", handlers.Task.List)
	protected(fasthttp.MethodPost, "/accounts/{id}/tasks", handlers.Task.Create)
	protected(fasthttp.MethodPost, "/accounts/{id}/run-playbooks", handlers.Playbook.Run)
	protected(fasthttp.MethodGet, "/accounts/{id}/360", handlers.Report.Account360)
	protected(fasthttp.MethodGet, "/accounts/{id}/insights", handlers.Report.Insights)

	protected(fasthttp.MethodPost, "/track", handlers.Event.Track)
	protected(fasthttp.MethodGet, "/visits", handlers.Event.ListVisits)
	protected(fasthttp.MethodPost, "/visits", handlers.Event.CreateVisit)

	protected(fasthttp.MethodGet, "/tasks", handlers.Task.List)
	protected(fasthttp.MethodGet, "/tasks/{id}", handlers.Task.Get)
	protected(fasthttp.MethodPatch, "/tasks/{id}", handlers.Task.Update)
	protected(fasthttp.MethodDelete, "/tasks/{id}", handlers.Task.Delete)

	protected(fasthttp.MethodGet, "/alerts", handlers.Alert.List)
	protected(fasthttp.MethodPost, "/alerts", handlers.Alert.Create)
	protected(fasthttp.MethodPost, "/alerts/{id}/read", handlers.Alert.MarkRead)

	protected(fasthttp.MethodGet, "/playbooks", handlers.Playbook.List)
	protected(fasthttp.MethodPost, "/playbooks", handlers.Playbook.Create)
	protected(fasthttp.MethodGet, "/playbooks/{id}", handlers.Playbook.Get)
	protected(fasthttp.MethodPut, "/playbooks/{id}", handlers.Playbook.Update)
	protected(fasthttp.MethodDelete, "/playbooks/{id}", handlers.Playbook.Delete)

	protected(fasthttp.MethodPost, "/crm/{provider}/accounts/upsert", handlers.CRM.UpsertAccount)
	protected(fasthttp.MethodPost, "/crm/{provider}/contacts/upsert", handlers.CRM.UpsertContact)
	protected(fasthttp.MethodPost, "/crm/{provider}/opportunities/upsert", handlers.CRM.UpsertOpportunity)
	protected(fasthttp.MethodGet, "/opportunities", handlers.CRM.ListOpportunities)
	protected(fasthttp.MethodPost, "/opportunities", handlers.CRM.CreateOpportunity)
	protected(fasthttp.MethodGet, "/opportunities/{id}", handlers.CRM.GetOpportunity)

	protected(fasthttp.MethodGet, "/reports/attribution", handlers.Report.Attribution)
	protected(fasthttp.MethodPost, "/reports/segments", handlers.Report.Segments)
	protected(fasthttp.MethodGet, "/reports/top-accounts", handlers.Report.TopAccounts)
	protected(fasthttp.MethodGet, "/reports/activity", handlers.Report.Activity)
	protected(fasthttp.MethodGet, "/reports/coverage", handlers.Report.Coverage)
	protected(fasthttp.MethodGet, "/reports/pipeline", handlers.Report.Pipeline)

	return r
}
