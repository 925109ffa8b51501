package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/internal/infrastructure/buffer"
	"github.com/fastygo/revenue-engine/repository"
	"github.com/fastygo/revenue-engine/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// EventReplayer scores and stores a buffered event. The event use case implements it.
type EventReplayer interface {
	Persist(ctx context.Context, event *domain.Event) (*domain.Account, error)
}

// ProcessorConfig controls how frequently the buffer is drained.
type ProcessorConfig struct {
	Interval       time.Duration
	BatchSize      int
	MaxRetries     int
	RetentionHours int
}

// BufferProcessor replays writes parked while Postgres was unreachable.
type BufferProcessor struct {
	store   *buffer.Store
	monitor ConnectionHealth
	events  EventReplayer
	visits  repository.VisitRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
	now     func() time.Time
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	events EventReplayer,
	visits repository.VisitRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetentionHours <= 0 {
		cfg.RetentionHours = 72
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:   store,
		monitor: monitor,
		events:  events,
		visits:  visits,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
		now:     time.Now,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	})
	_, _ = bp.cron.AddFunc("@every 1h", func() {
		if _, err := bp.Cleanup(); err != nil {
			bp.logger.Error("buffer cleanup failed", zap.Error(err))
		}
	})

	return bp
}

// SetEventReplayer attaches the event replayer. Call it before Start.
func (bp *BufferProcessor) SetEventReplayer(events EventReplayer) {
	bp.events = events
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain replays one batch synchronously. Domain errors dead-letter an item at once;
// other failures are retried until MaxRetries.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	items, err := bp.store.Batch(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	replayed := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log := bp.logger.With(
			zap.String("item_id", item.ID),
			zap.String("entity", item.Entity),
			zap.String("workspace_id", item.WorkspaceID),
		)

		err := bp.processItem(ctx, item)
		switch {
		case err == nil:
			if ackErr := bp.store.Ack(item); ackErr != nil {
				log.Warn("failed to purge processed buffer item", zap.Error(ackErr))
			}
			replayed++
		case errors.Is(err, context.Canceled):
			return err
		case !usecase.Transient(err):
			log.Warn("dead-lettering buffer item", zap.Error(err))
			if buryErr := bp.store.Bury(item, err); buryErr != nil {
				log.Error("failed to dead-letter buffer item", zap.Error(buryErr))
			}
		case item.Retries+1 >= bp.cfg.MaxRetries:
			log.Warn("dead-lettering buffer item (max retries reached)", zap.Int("retries", item.Retries+1), zap.Error(err))
			if buryErr := bp.store.Bury(item, err); buryErr != nil {
				log.Error("failed to dead-letter buffer item", zap.Error(buryErr))
			}
		default:
			log.Info("buffer item replay failed, will retry", zap.Error(err))
			if retryErr := bp.store.Retry(item, err); retryErr != nil {
				log.Error("failed to requeue buffer item", zap.Error(retryErr))
			}
		}
	}

	if replayed > 0 {
		bp.logger.Info("buffer drained", zap.Int("replayed", replayed), zap.Int("batch", len(items)))
	}
	return nil
}

// Flush drains batches until the buffer is empty, a batch makes no progress or ctx expires.
// It runs at shutdown, after the scheduler stopped and before Postgres closes.
func (bp *BufferProcessor) Flush(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	pending := bp.Size()
	for pending > 0 {
		if err := bp.Drain(ctx); err != nil {
			return err
		}
		left := bp.Size()
		if left >= pending {
			bp.logger.Warn("buffer left pending at shutdown", zap.Int("pending", left))
			return nil
		}
		pending = left
	}
	return nil
}

// BufferOperation parks an item for later replay.
func (bp *BufferProcessor) BufferOperation(_ context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}
	return bp.store.Enqueue(item)
}

// Cleanup drops dead-lettered items older than the retention window.
func (bp *BufferProcessor) Cleanup() (int, error) {
	if bp == nil || bp.store == nil {
		return 0, nil
	}
	cutoff := bp.now().Add(-time.Duration(bp.cfg.RetentionHours) * time.Hour)
	removed, err := bp.store.Cleanup(cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		bp.logger.Info("expired dead buffer items", zap.Int("removed", removed))
	}
	return removed, nil
}

// Size returns the number of pending items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch item.Entity {
	case buffer.EntityEvent:
		var ev domain.Event
		if err := json.Unmarshal(item.Data, &ev); err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "decode buffered event", err)
		}
		if bp.events == nil {
			return fmt.Errorf("event replayer not configured")
		}
		_, err := bp.events.Persist(ctx, &ev)
		if errors.Is(err, domain.ErrDuplicateEvent) {
			return nil
		}
		return err

	case buffer.EntityVisit:
		var visit domain.AnonymousVisit
		if err := json.Unmarshal(item.Data, &visit); err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "decode buffered visit", err)
		}
		if bp.visits == nil {
			return fmt.Errorf("visit repository not configured")
		}
		_, err := bp.visits.Create(ctx, &visit)
		return err

	default:
		return domain.NewError(domain.ErrCodeInvalid, "unsupported buffer entity "+item.Entity)
	}
}
