// Package notify decouples transactional email from request handling.
// Handlers enqueue and move on; delivery happens on a worker goroutine
// and its outcome never reaches the HTTP response.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ramtsps/Art-Academy-Website/internal/mail"
)

// Notifier owns a bounded queue of outbound messages and the worker
// draining it.
type Notifier struct {
	mailer mail.Mailer
	queue  chan mail.Message
	logger *zap.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	done    chan struct{}
}

// NewNotifier builds a notifier with the given queue capacity.
func NewNotifier(mailer mail.Mailer, queueSize int, logger *zap.Logger) *Notifier {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Notifier{
		mailer: mailer,
		queue:  make(chan mail.Message, queueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start launches the delivery worker. Safe to call once.
func (n *Notifier) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started {
		return
	}
	n.started = true
	go n.run()
}

// Enqueue hands a message to the worker without blocking. When the
// queue is full or the notifier is stopped the message is dropped with
// a warning; notification mail is best-effort.
func (n *Notifier) Enqueue(msg mail.Message) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.logger.Warn("notification dropped, notifier stopped", zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return
	}
	select {
	case n.queue <- msg:
		n.mu.Unlock()
	default:
		n.mu.Unlock()
		n.logger.Warn("notification dropped, queue full", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	}
}

// Stop closes the queue and waits for the worker to drain it, bounded
// by ctx.
func (n *Notifier) Stop(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.queue)
	started := n.started
	n.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) run() {
	defer close(n.done)
	for msg := range n.queue {
		if err := n.mailer.Send(context.Background(), msg); err != nil {
			n.logger.Error("notification send failed",
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
		}
	}
}
