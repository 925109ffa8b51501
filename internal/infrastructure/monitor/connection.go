package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/internal/infrastructure/buffer"
)

// PingFunc reports whether a dependency answers.
type PingFunc func(ctx context.Context) error

// BufferStats is satisfied by *buffer.Store.
type BufferStats interface {
	Stats() (buffer.Stats, error)
}

// Checks lists the dependencies to probe. Nil entries count as down.
type Checks struct {
	Postgres PingFunc
	Redis    PingFunc
	NATS     func() bool
	Buffer   BufferStats
}

type Monitor struct {
	checks Checks

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(checks Checks, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checks:   checks,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	m.Refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether Postgres is reachable. Buffered writes only need Postgres.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.PostgreSQL
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes every dependency once and stores the result.
func (m *Monitor) Refresh() {
	status := Status{
		PostgreSQL: m.ping(m.checks.Postgres, 3*time.Second),
		Redis:      m.ping(m.checks.Redis, 2*time.Second),
		LastCheck:  time.Now(),
	}
	if m.checks.NATS != nil {
		status.NATS = m.checks.NATS()
	}
	if m.checks.Buffer != nil {
		st, err := m.checks.Buffer.Stats()
		if err != nil {
			m.logger.Warn("buffer stats check failed", zap.Error(err))
		} else {
			status.Buffer = true
			status.Pending = st.Pending
			status.Dead = st.Dead
		}
	}

	m.mu.Lock()
	prev := m.status
	m.status = status
	m.mu.Unlock()

	if !prev.LastCheck.IsZero() && prev.PostgreSQL != status.PostgreSQL {
		m.logger.Warn("postgres availability changed", zap.Bool("online", status.PostgreSQL))
	}
}

func (m *Monitor) ping(fn PingFunc, timeout time.Duration) bool {
	if fn == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx) == nil
}
