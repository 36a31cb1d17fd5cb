package service

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/ports"
)

// EngineEventHandler is the consumer of reconciled engine events.
type EngineEventHandler interface {
	// Generation returns the load generation events must carry to be applied
	Generation() uint64

	// OnEngineEvent applies one event of the current generation
	OnEngineEvent(ev domain.EngineEvent) Transition
}

// envelope is one queued item: either an engine event or a closure to run on the owner goroutine.
// done, when set, is closed once the item and the afterEach hook have run.
type envelope struct {
	event domain.EngineEvent
	run   func()
	done  chan struct{}
}

// ReconcilerStats counts what happened to delivered engine events.
type ReconcilerStats struct {
	Delivered uint64
	Coalesced uint64
	Stale     uint64
	Dropped   uint64
	Applied   uint64
}

// LogValue groups the counters in log records.
func (s ReconcilerStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("delivered", s.Delivered),
		slog.Uint64("coalesced", s.Coalesced),
		slog.Uint64("stale", s.Stale),
		slog.Uint64("dropped", s.Dropped),
		slog.Uint64("applied", s.Applied),
	)
}

// EventReconciler is the single ordered queue in front of the state machine.
//
// Engine adapters call Deliver from their own goroutines; commands and playlist
// edits are queued with Do/Call. One owner goroutine drains the queue in FIFO
// order, so the handler and everything it touches is only ever used from there.
//
// The queue is unbounded so that Deliver never blocks an engine callback.
type EventReconciler struct {
	logger  *slog.Logger
	handler EngineEventHandler

	// afterEach runs on the owner goroutine after every queued item
	afterEach func()

	mu     sync.Mutex
	queue  []envelope
	closed bool

	signal  chan struct{}
	done    chan struct{}
	stopped chan struct{}
	started atomic.Bool

	delivered atomic.Uint64
	coalesced atomic.Uint64
	stale     atomic.Uint64
	dropped   atomic.Uint64
	applied   atomic.Uint64
}

// NewEventReconciler creates a reconciler feeding handler. afterEach may be nil.
func NewEventReconciler(logger *slog.Logger, handler EngineEventHandler, afterEach func()) *EventReconciler {
	return &EventReconciler{
		logger:    logger,
		handler:   handler,
		afterEach: afterEach,
		signal:    make(chan struct{}, 1),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Start launches the owner goroutine. Items queued before Start are processed first.
func (r *EventReconciler) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	go r.loop()
}

// Deliver queues an engine event. It never blocks.
// A position tick replaces a directly preceding queued tick of the same generation.
func (r *EventReconciler) Deliver(ev domain.EngineEvent) {
	if ev == nil {
		return
	}
	r.delivered.Add(1)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if tick, ok := ev.(domain.PositionTick); ok && len(r.queue) > 0 {
		tail := &r.queue[len(r.queue)-1]
		if prev, ok := tail.event.(domain.PositionTick); ok && prev.Generation == tick.Generation {
			tail.event = tick
			r.mu.Unlock()
			r.coalesced.Add(1)
			return
		}
	}
	r.queue = append(r.queue, envelope{event: ev})
	r.mu.Unlock()

	r.wake()
}

// Do queues fn to run on the owner goroutine. It returns ErrClosed after Stop.
func (r *EventReconciler) Do(fn func()) error {
	return r.enqueue(envelope{run: fn})
}

// Call runs fn on the owner goroutine and waits until it and the afterEach hook
// have finished, so snapshots published by the hook are visible on return.
// It must not be called from the owner goroutine itself.
func (r *EventReconciler) Call(fn func()) error {
	finished := make(chan struct{})
	if err := r.enqueue(envelope{run: fn, done: finished}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-r.stopped:
		// The loop drains the queue before exiting, so fn may still have run
		select {
		case <-finished:
			return nil
		default:
			return domain.ErrClosed
		}
	}
}

// Stop drains what is queued, stops the owner goroutine and rejects further work.
func (r *EventReconciler) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	close(r.done)
	if r.started.Load() {
		<-r.stopped
	} else {
		close(r.stopped)
	}
}

// Stats returns the event counters.
func (r *EventReconciler) Stats() ReconcilerStats {
	return ReconcilerStats{
		Delivered: r.delivered.Load(),
		Coalesced: r.coalesced.Load(),
		Stale:     r.stale.Load(),
		Dropped:   r.dropped.Load(),
		Applied:   r.applied.Load(),
	}
}

func (r *EventReconciler) enqueue(item envelope) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.ErrClosed
	}
	r.queue = append(r.queue, item)
	r.mu.Unlock()

	r.wake()
	return nil
}

func (r *EventReconciler) wake() {
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

func (r *EventReconciler) loop() {
	defer close(r.stopped)

	for {
		select {
		case <-r.signal:
			r.drain()
		case <-r.done:
			r.drain()
			return
		}
	}
}

func (r *EventReconciler) drain() {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.mu.Unlock()
			return
		}
		item := r.queue[0]
		r.queue[0] = envelope{}
		r.queue = r.queue[1:]
		r.mu.Unlock()

		r.process(item)
	}
}

func (r *EventReconciler) process(item envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic while reconciling", slog.Any("panic", rec))
		}
		if item.done != nil {
			close(item.done)
		}
	}()

	if item.run != nil {
		item.run()
	} else {
		r.apply(item.event)
	}

	if r.afterEach != nil {
		r.afterEach()
	}
}

func (r *EventReconciler) apply(ev domain.EngineEvent) {
	current := r.handler.Generation()
	if ev.LoadGeneration() != current {
		r.stale.Add(1)
		r.logger.Debug("stale engine event dropped",
			slog.String("event", ev.Name()),
			slog.Uint64("event_generation", ev.LoadGeneration()),
			slog.Uint64("generation", current))
		return
	}

	t := r.handler.OnEngineEvent(ev)
	if t.Dropped != "" {
		r.dropped.Add(1)
		return
	}
	r.applied.Add(1)
	if t.From != t.To {
		r.logger.Debug("transition",
			slog.String("event", ev.Name()),
			slog.String("from", t.From.String()),
			slog.String("to", t.To.String()))
	}
}

// Verify that EventReconciler can be registered as an engine sink
var _ ports.EventSink = (*EventReconciler)(nil)
