package grid

import (
	"context"
	"log/slog"
	"time"
)

// Loop serializes concurrent recomputation triggers under a single-flight
// discipline. Scroll storms and overlapping intents collapse into a pending
// flag: whenever the loop wakes it computes against the engine's newest
// state, so only the most recent request's result is ever published
// (last request wins). The recovery audit runs on its own fixed interval,
// independent of trigger traffic.
type Loop struct {
	engine   *Engine
	updates  chan Update
	kick     chan struct{}
	interval time.Duration
	logger   *slog.Logger
}

// NewLoop creates an update loop around an engine. interval is the recovery
// audit period.
func NewLoop(engine *Engine, interval time.Duration, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Loop{
		engine:   engine,
		updates:  make(chan Update, 1),
		kick:     make(chan struct{}, 1),
		interval: interval,
		logger:   logger,
	}
}

// Updates delivers the result of each pass. Every published update must be
// applied: operations are diffs against the rendered state the reconciler
// has already advanced, so batches chain. Requests are collapsed before
// computation, never after.
func (l *Loop) Updates() <-chan Update { return l.updates }

// Kick requests a recomputation. Safe from any goroutine; pending kicks
// collapse into one.
func (l *Loop) Kick() {
	select {
	case l.kick <- struct{}{}:
	default:
	}
}

// Run drives the loop until the context is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.kick:
			l.publish(ctx, l.engine.Refresh())
		case <-ticker.C:
			if u := l.engine.Tick(); !u.Empty() {
				l.publish(ctx, u)
			}
		}
	}
}

func (l *Loop) publish(ctx context.Context, u Update) {
	select {
	case l.updates <- u:
	case <-ctx.Done():
	}
}
