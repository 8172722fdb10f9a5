package engine

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/matsen/reelgraph/internal/logging"
)

// traceEvery is the tick interval between trace records.
const traceEvery = 30

// loop is one background tick schedule.
type loop struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	wake   chan struct{}
}

// loopKey marks the context handed to the tick callback by a background loop.
type loopKey struct{}

// Start runs ticks in a background goroutine paced at the configured tick
// rate until ctx ends or Stop is called. When alpha cools below the minimum
// the goroutine idles until a reheat, config update, or resize wakes it.
// Start is a no-op if a loop is already running; Init stops any loop, so
// call Start again after replacing the dataset.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateDisposed {
		return ErrDisposed
	}
	if e.loop != nil {
		return nil
	}

	e.generation++
	ctx, cancel := context.WithCancel(ctx)
	l := &loop{
		gen:    e.generation,
		cancel: cancel,
		done:   make(chan struct{}),
		wake:   make(chan struct{}, 1),
	}
	e.loop = l
	limiter := rate.NewLimiter(rate.Limit(e.cfg.Simulation.TickRate), 1)

	go e.run(ctx, l, limiter)
	e.logger.Debug("tick loop started", "generation", l.gen, "tick_rate", e.cfg.Simulation.TickRate)
	return nil
}

func (e *Engine) run(ctx context.Context, l *loop, limiter *rate.Limiter) {
	defer close(l.done)
	emitCtx := context.WithValue(ctx, loopKey{}, l)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		frame, ticked, current := e.tickIf(l.gen)
		if !current {
			return
		}
		if ticked {
			e.emit(emitCtx, frame)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

// tickIf applies one tick if gen is still the live generation. current is
// false once the loop has been superseded.
func (e *Engine) tickIf(gen uint64) (f Frame, ticked, current bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loop == nil || e.loop.gen != gen {
		return Frame{}, false, false
	}
	if !e.tickLocked() {
		return Frame{}, false, true
	}
	return e.frameLocked(), true, true
}

// tickLocked advances the solver while ticks are scheduled.
func (e *Engine) tickLocked() bool {
	if e.sim == nil || !e.active {
		return false
	}
	e.sim.Tick()
	if n := e.sim.Ticks(); n%traceEvery == 0 {
		logging.Trace(e.logger, "tick", "tick", n, "alpha", e.sim.Alpha())
	}
	if e.sim.Settled() {
		e.active = false
		e.logger.Debug("layout settled", "ticks", e.sim.Ticks(), "alpha", e.sim.Alpha())
	}
	return true
}

func (e *Engine) emit(ctx context.Context, f Frame) {
	if e.onTick != nil {
		e.onTick(ctx, f)
	}
}

func (e *Engine) wakeLoop() {
	e.mu.Lock()
	l := e.loop
	e.mu.Unlock()
	if l == nil {
		return
	}
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Stop halts the background loop, if any. Once Stop returns no further tick
// from that loop is applied and no callback from it is still running. It is
// idempotent. Inside the tick callback use StopContext instead, since Stop
// would wait on the callback itself.
func (e *Engine) Stop() {
	e.StopContext(context.Background())
}

// StopContext is Stop for code that may run inside the tick callback. When
// ctx is the context the stopped loop handed to the callback, it halts the
// loop without waiting for that callback to return.
func (e *Engine) StopContext(ctx context.Context) {
	e.mu.Lock()
	l := e.loop
	e.loop = nil
	e.generation++
	e.mu.Unlock()

	if l == nil {
		return
	}
	l.cancel()
	if self, _ := ctx.Value(loopKey{}).(*loop); self != l {
		<-l.done
	}
	e.logger.Debug("tick loop stopped", "generation", l.gen)
}

// Running reports whether a background loop is attached.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loop != nil
}

// Step applies one tick on the caller's goroutine, for hosts that own their
// schedule. It returns false without ticking once the layout has settled or
// when there is no layout.
func (e *Engine) Step() bool {
	e.mu.Lock()
	if !e.tickLocked() {
		e.mu.Unlock()
		return false
	}
	f := e.frameLocked()
	e.mu.Unlock()

	e.emit(context.Background(), f)
	return true
}

// RunUntilSettled steps until the layout settles, maxTicks ticks have run
// (zero means no limit), or ctx ends. It returns the number of ticks applied.
func (e *Engine) RunUntilSettled(ctx context.Context, maxTicks int) (int, error) {
	n := 0
	for maxTicks <= 0 || n < maxTicks {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if !e.Step() {
			break
		}
		n++
	}
	return n, nil
}
