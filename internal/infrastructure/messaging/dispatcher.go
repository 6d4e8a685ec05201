package messaging

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// Wires application event handlers onto the bus with:
//   - middleware (recovery, logging)
//   - retry with exponential backoff
//   - dead letter queue for events that exhaust their retries
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher registers handlers on an event bus with cross-cutting behavior.
type Dispatcher struct {
	bus         EventBus
	middlewares []Middleware
	retryConfig RetryConfig
	deadLetterQ *DeadLetterQueue
	logger      *slog.Logger
	mu          sync.RWMutex
}

// RetryConfig contains retry configuration.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int

	// InitialBackoff is the initial wait between retries.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum wait between retries.
	MaxBackoff time.Duration

	// BackoffMultiplier is the factor for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// DispatcherConfig contains configuration for the Dispatcher.
type DispatcherConfig struct {
	// Bus is the underlying event bus.
	Bus EventBus

	// RetryConfig configures retry behavior.
	RetryConfig RetryConfig

	// DeadLetterQueueSize is the max size of the DLQ; 0 disables it.
	DeadLetterQueueSize int

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultDispatcherConfig returns sensible defaults.
func DefaultDispatcherConfig(bus EventBus) DispatcherConfig {
	return DispatcherConfig{
		Bus:                 bus,
		RetryConfig:         DefaultRetryConfig(),
		DeadLetterQueueSize: 1000,
	}
}

// NewDispatcher creates a new event dispatcher.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	d := &Dispatcher{
		bus:         config.Bus,
		middlewares: make([]Middleware, 0),
		retryConfig: config.RetryConfig,
		logger:      config.Logger,
	}

	if config.DeadLetterQueueSize > 0 {
		d.deadLetterQ = NewDeadLetterQueue(config.DeadLetterQueueSize)
	}

	return d
}

// Register subscribes a handler for an event type with the full
// middleware chain and retry behavior applied.
func (d *Dispatcher) Register(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	return d.bus.Subscribe(eventType, d.wrap(handler))
}

// Use adds middleware to the dispatcher. Middleware added after a handler
// is registered does not apply to it, so wire middleware first.
func (d *Dispatcher) Use(middleware Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, middleware)
}

// DeadLetters returns the dead letter queue, nil when disabled.
func (d *Dispatcher) DeadLetters() *DeadLetterQueue {
	return d.deadLetterQ
}

// wrap builds the execution chain: middlewares outside, retry inside.
func (d *Dispatcher) wrap(handler shared.EventHandler) shared.EventHandler {
	wrapped := d.withRetry(handler)

	d.mu.RLock()
	defer d.mu.RUnlock()
	for i := len(d.middlewares) - 1; i >= 0; i-- {
		wrapped = d.middlewares[i](wrapped)
	}

	return wrapped
}

// withRetry retries a failing handler with exponential backoff and parks
// the event in the DLQ once attempts are exhausted.
func (d *Dispatcher) withRetry(handler shared.EventHandler) shared.EventHandler {
	return shared.EventHandlerFunc{
		HandlerName: handler.Name(),
		Fn: func(event shared.Event) error {
			backoff := d.retryConfig.InitialBackoff

			var lastErr error
			for attempt := 0; attempt <= d.retryConfig.MaxRetries; attempt++ {
				if attempt > 0 {
					time.Sleep(backoff)
					backoff = time.Duration(float64(backoff) * d.retryConfig.BackoffMultiplier)
					if backoff > d.retryConfig.MaxBackoff {
						backoff = d.retryConfig.MaxBackoff
					}
				}

				lastErr = handler.Handle(event)
				if lastErr == nil {
					return nil
				}

				d.logger.Warn("handler attempt failed",
					"handler", handler.Name(),
					"event_type", event.EventType(),
					"attempt", attempt+1,
					"error", lastErr,
				)
			}

			if d.deadLetterQ != nil {
				d.deadLetterQ.Add(DeadLetter{
					Event:       event,
					HandlerName: handler.Name(),
					Error:       lastErr.Error(),
					FailedAt:    time.Now(),
				})
			}

			return fmt.Errorf("handler %s exhausted retries: %w", handler.Name(), lastErr)
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Middleware wraps handler execution.
type Middleware func(shared.EventHandler) shared.EventHandler

// RecoveryMiddleware recovers from panics in handlers.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return shared.EventHandlerFunc{
			HandlerName: next.Name(),
			Fn: func(event shared.Event) (err error) {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("handler panic recovered",
							"handler", next.Name(),
							"event_type", event.EventType(),
							"panic", r,
							"stack", string(debug.Stack()),
						)
						err = fmt.Errorf("handler panic: %v", r)
					}
				}()
				return next.Handle(event)
			},
		}
	}
}

// LoggingMiddleware logs handler execution.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return shared.EventHandlerFunc{
			HandlerName: next.Name(),
			Fn: func(event shared.Event) error {
				start := time.Now()
				err := next.Handle(event)
				duration := time.Since(start)

				if err != nil {
					logger.Error("handler failed",
						"handler", next.Name(),
						"event_type", event.EventType(),
						"aggregate_id", event.AggregateID(),
						"duration", duration,
						"error", err,
					)
				} else {
					logger.Debug("handler completed",
						"handler", next.Name(),
						"event_type", event.EventType(),
						"duration", duration,
					)
				}

				return err
			},
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetter is an event a handler could not process.
type DeadLetter struct {
	Event       shared.Event
	HandlerName string
	Error       string
	FailedAt    time.Time
}

// DeadLetterQueue is a bounded in-memory queue of failed events.
// When full, the oldest entry is dropped.
type DeadLetterQueue struct {
	mu      sync.Mutex
	entries []DeadLetter
	maxSize int
	dropped int64
}

// NewDeadLetterQueue creates a new DLQ with the given capacity.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	return &DeadLetterQueue{
		entries: make([]DeadLetter, 0, maxSize),
		maxSize: maxSize,
	}
}

// Add appends an entry, evicting the oldest when at capacity.
func (q *DeadLetterQueue) Add(entry DeadLetter) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
		q.dropped++
	}
	q.entries = append(q.entries, entry)
}

// Drain removes and returns all entries.
func (q *DeadLetterQueue) Drain() []DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := q.entries
	q.entries = make([]DeadLetter, 0, q.maxSize)
	return entries
}

// Len returns the number of queued entries.
func (q *DeadLetterQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Dropped returns how many entries were evicted due to capacity.
func (q *DeadLetterQueue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
