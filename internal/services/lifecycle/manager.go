package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc describes a graceful shutdown callback.
type ShutdownFunc func(ctx context.Context) error

// Phase orders shutdown. Every hook of a phase returns before the next phase starts.
type Phase int

const (
	// PhaseIngress stops accepting HTTP traffic so no new events arrive.
	PhaseIngress Phase = iota
	// PhaseWorkers stops schedulers and health probes.
	PhaseWorkers
	// PhaseFlush replays parked writes and pushes outbound messages while stores are still open.
	PhaseFlush
	// PhaseStores closes Postgres, Redis and the local buffer file.
	PhaseStores

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseIngress:
		return "ingress"
	case PhaseWorkers:
		return "workers"
	case PhaseFlush:
		return "flush"
	case PhaseStores:
		return "stores"
	default:
		return "unknown"
	}
}

type hook struct {
	name string
	fn   ShutdownFunc
}

// Manager runs shutdown hooks phase by phase and reacts to OS signals.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	phases [phaseCount][]hook
	done   bool
}

// New creates a lifecycle manager with the desired timeout.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a hook to a phase. Hooks inside one phase run in reverse registration order.
func (m *Manager) Register(phase Phase, name string, fn ShutdownFunc) {
	if fn == nil || phase < 0 || phase >= phaseCount {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phases[phase] = append(m.phases[phase], hook{name: name, fn: fn})
}

// RegisterCloser adds a store whose Close takes no context to PhaseStores.
func (m *Manager) RegisterCloser(name string, closeFn func() error) {
	if closeFn == nil {
		return
	}
	m.Register(PhaseStores, name, func(context.Context) error { return closeFn() })
}

// Shutdown runs every phase once within the configured timeout.
// A failing hook is logged and joined into the result; later hooks still run.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return nil
	}
	m.done = true

	var result error
	for phase := PhaseIngress; phase < phaseCount; phase++ {
		hooks := m.phases[phase]
		for i := len(hooks) - 1; i >= 0; i-- {
			h := hooks[i]
			log := m.logger.With(zap.String("phase", phase.String()), zap.String("component", h.name))
			if err := h.fn(ctx); err != nil {
				log.Error("shutdown hook failed", zap.Error(err))
				result = errors.Join(result, err)
				continue
			}
			log.Info("component stopped")
		}
	}
	return result
}

// Listen blocks until an OS termination signal is received and then invokes the provided cancel function.
func (m *Manager) Listen(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()
}
