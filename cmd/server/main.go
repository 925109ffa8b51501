package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/revenue-engine/api/handler"
	"github.com/fastygo/revenue-engine/internal/attribution"
	"github.com/fastygo/revenue-engine/internal/config"
	"github.com/fastygo/revenue-engine/internal/infrastructure/anthropic"
	"github.com/fastygo/revenue-engine/internal/infrastructure/buffer"
	"github.com/fastygo/revenue-engine/internal/infrastructure/bus"
	"github.com/fastygo/revenue-engine/internal/infrastructure/monitor"
	"github.com/fastygo/revenue-engine/internal/infrastructure/notify"
	pgInfra "github.com/fastygo/revenue-engine/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/revenue-engine/internal/infrastructure/redis"
	"github.com/fastygo/revenue-engine/internal/insight"
	"github.com/fastygo/revenue-engine/internal/middleware"
	"github.com/fastygo/revenue-engine/internal/router"
	"github.com/fastygo/revenue-engine/internal/scoring"
	"github.com/fastygo/revenue-engine/internal/segment"
	"github.com/fastygo/revenue-engine/internal/services"
	"github.com/fastygo/revenue-engine/internal/services/lifecycle"
	"github.com/fastygo/revenue-engine/pkg/httpcontext"
	"github.com/fastygo/revenue-engine/pkg/logger"
	"github.com/fastygo/revenue-engine/repository/postgres"
	redisRepo "github.com/fastygo/revenue-engine/repository/redis"
	"github.com/fastygo/revenue-engine/usecase"
	accountUC "github.com/fastygo/revenue-engine/usecase/account"
	alertUC "github.com/fastygo/revenue-engine/usecase/alert"
	authUC "github.com/fastygo/revenue-engine/usecase/auth"
	crmUC "github.com/fastygo/revenue-engine/usecase/crm"
	eventUC "github.com/fastygo/revenue-engine/usecase/event"
	playbookUC "github.com/fastygo/revenue-engine/usecase/playbook"
	reportUC "github.com/fastygo/revenue-engine/usecase/report"
	taskUC "github.com/fastygo/revenue-engine/usecase/task"
	workspaceUC "github.com/fastygo/revenue-engine/usecase/workspace"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register(lifecycle.PhaseStores, "postgres", func(ctx context.Context) error {
		pgInfra.Close(pool, zapLogger)
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.RegisterCloser("redis", redisClient.Close)

	bufferStore, err := buffer.Open(cfg.Buffer.Path)
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.RegisterCloser("buffer", bufferStore.Close)

	var publisher usecase.Publisher = bus.Nop{}
	natsConnected := func() bool { return false }
	if cfg.NATS.URL != "" {
		natsClient, err := bus.NewClient(appCtx, cfg.NATS.URL, cfg.NATS.Token, zapLogger)
		if err != nil {
			zapLogger.Fatal("nats connection failed", zap.Error(err))
		}
		publisher = natsClient
		natsConnected = natsClient.IsConnected
		manager.Register(lifecycle.PhaseFlush, "nats", natsClient.Shutdown)
	} else {
		zapLogger.Info("NATS_URL not set, bus notifications disabled")
	}

	mon := monitor.New(monitor.Checks{
		Postgres: pool.Ping,
		Redis:    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		NATS:     natsConnected,
		Buffer:   bufferStore,
	}, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register(lifecycle.PhaseWorkers, "monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	var narrator insight.Narrator
	if cfg.Narrative.APIKey != "" {
		narrator = anthropic.NewNarrator(anthropic.NewClient(
			cfg.Narrative.APIKey,
			cfg.Narrative.Model,
			cfg.Narrative.BaseURL,
			cfg.Narrative.MaxTokens,
			cfg.Narrative.Timeout,
		))
	}
	insights := insight.NewGenerator(narrator, cfg.Narrative.Timeout, zapLogger)
	notifier := notify.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, cfg.Notify.TelegramURL, zapLogger)

	scoringEngine := scoring.New(scoring.DefaultWeights().Merge(scoring.Weights{
		Intent:            cfg.Scoring.IntentWeights,
		Engagement:        cfg.Scoring.EngagementWeights,
		DefaultIntent:     cfg.Scoring.DefaultIntent,
		DefaultEngagement: cfg.Scoring.DefaultEngagement,
	}))
	segmentEngine := segment.New(segment.Thresholds{
		HighIntentScore:  cfg.Segmentation.HighIntentScore,
		ActiveWithinDays: cfg.Segmentation.ActiveWithinDays,
		DormantAfterDays: cfg.Segmentation.DormantAfterDays,
		MinVisits:        cfg.Segmentation.MinVisits,
	})

	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	contactRepo := postgres.NewContactRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	visitRepo := postgres.NewVisitRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	alertRepo := postgres.NewAlertRepository(pool)
	playbookRepo := postgres.NewPlaybookRepository(pool)
	opportunityRepo := postgres.NewOpportunityRepository(pool)
	mappingRepo := postgres.NewExternalMapRepository(pool)
	apiKeyCache := redisRepo.NewAPIKeyCache(redisClient, cfg.Cache.APIKeyTTL)
	reportCache := redisRepo.NewReportCache(redisClient, cfg.Cache.ReportTTL)

	// The event use case both feeds and replays the buffer; it is attached below.
	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		nil,
		visitRepo,
		zapLogger,
		services.ProcessorConfig{
			Interval:       cfg.Buffer.SyncInterval,
			BatchSize:      cfg.Buffer.BatchSize,
			MaxRetries:     cfg.Buffer.MaxRetry,
			RetentionHours: cfg.Buffer.RetentionHours,
		},
	)
	bufferBridge := services.NewBufferBridge(bufferProcessor)

	eventUseCase := eventUC.New(eventUC.Deps{
		Accounts: accountRepo,
		Contacts: contactRepo,
		Events:   eventRepo,
		Visits:   visitRepo,
		Engine:   scoringEngine,
		Buffer:   bufferBridge,
		Bus:      publisher,
		Cache:    reportCache,
	}, zapLogger)
	bufferProcessor.SetEventReplayer(eventUseCase)

	bufferProcessor.Start()
	manager.Register(lifecycle.PhaseWorkers, "buffer_processor", func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})
	manager.Register(lifecycle.PhaseFlush, "buffer_drain", bufferProcessor.Flush)

	workspaceUseCase := workspaceUC.New(workspaceRepo, zapLogger)
	if err := workspaceUseCase.Bootstrap(appCtx, workspaceUC.Defaults{
		WorkspaceID:   cfg.Bootstrap.WorkspaceID,
		WorkspaceName: cfg.Bootstrap.WorkspaceName,
		APIKey:        cfg.Bootstrap.APIKey,
	}); err != nil {
		zapLogger.Fatal("workspace bootstrap failed", zap.Error(err))
	}

	authUseCase := authUC.New(workspaceRepo, apiKeyCache, authUC.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TokenTTL,
	}, zapLogger)
	accountUseCase := accountUC.New(accountRepo, contactRepo, reportCache, zapLogger)
	taskUseCase := taskUC.New(taskRepo, accountRepo, zapLogger)
	alertUseCase := alertUC.New(alertRepo, accountRepo, zapLogger)
	crmUseCase := crmUC.New(crmUC.Deps{
		Accounts:      accountRepo,
		Contacts:      contactRepo,
		Opportunities: opportunityRepo,
		Mappings:      mappingRepo,
	}, zapLogger)
	playbookUseCase := playbookUC.New(playbookUC.Deps{
		Rules:    playbookRepo,
		Accounts: accountRepo,
		Tasks:    taskRepo,
		Bus:      publisher,
		Notifier: notifier,
	}, zapLogger)
	reportUseCase := reportUC.New(reportUC.Deps{
		Accounts:      accountRepo,
		Events:        eventRepo,
		Tasks:         taskRepo,
		Alerts:        alertRepo,
		Visits:        visitRepo,
		Opportunities: opportunityRepo,
		Cache:         reportCache,
		Segments:      segmentEngine,
		Insights:      insights,
		Attribution: attribution.Params{
			LookbackDays:   cfg.Attribution.LookbackDays,
			UniqueChannels: cfg.Attribution.UniqueChannels,
		},
		CacheTTL: cfg.Cache.ReportTTL,
	}, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:      apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Workspace: apiHandler.NewWorkspaceHandler(workspaceUseCase, ctxAdapter, zapLogger),
		Account:   apiHandler.NewAccountHandler(accountUseCase, ctxAdapter, zapLogger),
		Event:     apiHandler.NewEventHandler(eventUseCase, cfg.Bootstrap.WorkspaceID, ctxAdapter, zapLogger),
		Task:      apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Alert:     apiHandler.NewAlertHandler(alertUseCase, ctxAdapter, zapLogger),
		Playbook:  apiHandler.NewPlaybookHandler(playbookUseCase, ctxAdapter, zapLogger),
		CRM:       apiHandler.NewCRMHandler(crmUseCase, ctxAdapter, zapLogger),
		Report:    apiHandler.NewReportHandler(reportUseCase, ctxAdapter, zapLogger),
		Health:    apiHandler.NewHealthHandler(mon, pool, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.WorkspaceAuth(authUseCase, ctxAdapter, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register(lifecycle.PhaseIngress, "http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
