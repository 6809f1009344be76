package eventlogger

import (
	"context"
	"log/slog"
	"sync"
)

type Worker struct {
	eventCh chan Event
	sink    Sink
	onDrop  func(Event)
	// mu orders Log's send against Shutdown so nothing lands in eventCh
	// after the drain.
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

type WorkerOption func(*Worker)

// OnDrop is called for every event discarded because the buffer was full or
// the worker had already shut down.
func OnDrop(fn func(Event)) WorkerOption {
	return func(w *Worker) {
		w.onDrop = fn
	}
}

func NewWorker(sink Sink, bufferSize int, opts ...WorkerOption) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		eventCh: make(chan Event, bufferSize),
		sink:    sink,
		onDrop:  func(Event) {},
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) Start() {
	w.wg.Go(func() {
		for {
			select {
			case <-w.ctx.Done():
				slog.Info("draining events before shutdown", "remaining_events", len(w.eventCh))
				for len(w.eventCh) > 0 {
					event := <-w.eventCh
					if err := w.sink.Save(context.Background(), event); err != nil {
						slog.Error("failed to save event during shutdown", "error", err, "event_type", event.Type)
					}
				}
				return
			case event := <-w.eventCh:
				if err := w.sink.Save(w.ctx, event); err != nil {
					slog.Error("failed to save event", "error", err, "event_type", event.Type)
				}
			}
		}
	})
}

// Log queues an event and never blocks.
func (w *Worker) Log(event Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		slog.Warn("event worker stopped, dropping event", "event_type", event.Type)
		w.onDrop(event)
		return
	}
	select {
	case w.eventCh <- event:
	default:
		slog.Warn("event channel full, dropping event", "event_type", event.Type)
		w.onDrop(event)
	}
}

// Shutdown stops the worker after saving whatever is still queued. It is
// safe to call more than once.
func (w *Worker) Shutdown() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
}
