package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-api/internal/events"
	"github.com/spec-kit/marketplace-api/internal/service"
)

var (
	// ErrQueueFull is returned to the dispatcher when an event cannot be buffered.
	ErrQueueFull = errors.New("notification queue full")
	// ErrStopped is returned for events published after Stop.
	ErrStopped = errors.New("notification worker stopped")
)

// NotificationWorker drains account events off the request path.
type NotificationWorker struct {
	svc    *service.NotificationService
	logger *zap.Logger
	queue  chan events.Event
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// StartNotificationWorker subscribes to account events and starts a single consumer.
// With queueSize 0 the handlers run synchronously inside Publish.
func StartNotificationWorker(ctx context.Context, svc *service.NotificationService, queueSize int, logger *zap.Logger) *NotificationWorker {
	if svc == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		svc.RegisterHandlers()
		return &NotificationWorker{svc: svc, logger: logger}
	}

	w := &NotificationWorker{
		svc:    svc,
		logger: logger,
		queue:  make(chan events.Event, queueSize),
	}
	if dispatcher := svc.Dispatcher(); dispatcher != nil {
		for _, eventType := range service.AccountEvents {
			dispatcher.Subscribe(eventType, w.enqueue)
		}
	}

	w.wg.Add(1)
	go w.run(context.WithoutCancel(ctx))
	return w
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for event := range w.queue {
		if err := w.svc.Handle(ctx, event); err != nil {
			w.logger.Warn("notification failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
	}
}

// Stop closes the queue and waits for buffered events to drain.
func (w *NotificationWorker) Stop() {
	if w == nil || w.queue == nil {
		return
	}
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.queue)
	w.mu.Unlock()

	w.wg.Wait()
}
