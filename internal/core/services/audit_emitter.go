// internal/core/services/audit_emitter.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

const (
	DefaultAuditQueueSize = 256
	defaultRecordTimeout  = 5 * time.Second
)

// AuditPublisher accepts audit events without blocking the caller
type AuditPublisher interface {
	Emit(ctx context.Context, event domain.AuditEvent)
}

// AuditEmitter forwards audit events to a sink from a single background
// goroutine. Emit never blocks and sink failures never reach the caller.
type AuditEmitter struct {
	sink    ports.AuditSink
	logger  *slog.Logger
	queue   chan domain.AuditEvent
	done    chan struct{}
	timeout time.Duration
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

var _ AuditPublisher = (*AuditEmitter)(nil)

// NewAuditEmitter starts an emitter with a queue of queueSize events
func NewAuditEmitter(sink ports.AuditSink, logger *slog.Logger, queueSize int) *AuditEmitter {
	if queueSize <= 0 {
		queueSize = DefaultAuditQueueSize
	}

	e := &AuditEmitter{
		sink:    sink,
		logger:  logger.With(slog.String("service", "audit")),
		queue:   make(chan domain.AuditEvent, queueSize),
		done:    make(chan struct{}),
		timeout: defaultRecordTimeout,
	}
	go e.run()
	return e
}

// Emit queues event. When the queue is full or the emitter is closed the
// event is dropped and counted.
func (e *AuditEmitter) Emit(ctx context.Context, event domain.AuditEvent) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		e.dropped.Add(1)
		return
	}

	select {
	case e.queue <- event:
	default:
		e.dropped.Add(1)
		e.logger.WarnContext(ctx, "audit queue full, dropping event",
			slog.String("action", string(event.Action)),
			slog.String("stage", string(event.Stage)),
			slog.String("item_id", event.ItemID))
	}
}

// Dropped returns how many events were discarded
func (e *AuditEmitter) Dropped() int64 {
	return e.dropped.Load()
}

// Close stops accepting events and waits for the queue to drain
func (e *AuditEmitter) Close(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit queue not drained: %w", ctx.Err())
	}
}

func (e *AuditEmitter) run() {
	defer close(e.done)
	for event := range e.queue {
		e.deliver(event)
	}
}

func (e *AuditEmitter) deliver(event domain.AuditEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("audit sink panicked",
				slog.String("error", fmt.Sprint(r)),
				slog.String("event_id", event.ID.String()))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	if err := e.sink.Record(ctx, event); err != nil {
		e.logger.Warn("failed to record audit event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()),
			slog.String("action", string(event.Action)))
	}
}

// LogAuditSink writes audit events to the structured log
type LogAuditSink struct {
	logger *slog.Logger
}

var _ ports.AuditSink = (*LogAuditSink)(nil)

// NewLogAuditSink creates a new log sink
func NewLogAuditSink(logger *slog.Logger) *LogAuditSink {
	return &LogAuditSink{logger: logger.With(slog.String("component", "audit_log"))}
}

// Record logs the event at info level
func (s *LogAuditSink) Record(ctx context.Context, event domain.AuditEvent) error {
	s.logger.InfoContext(ctx, "inventory audit",
		slog.String("event_id", event.ID.String()),
		slog.String("action", string(event.Action)),
		slog.String("stage", string(event.Stage)),
		slog.String("item_id", event.ItemID),
		slog.String("item_name", event.ItemName),
		slog.Any("details", event.Details),
		slog.Time("occurred_at", event.OccurredAt))
	return nil
}
