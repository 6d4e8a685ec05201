// Package service contains infrastructure implementations of domain
// service interfaces, most notably notification delivery.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/pkg/circuitbreaker"
	"github.com/unitex-school/unitex-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-APP SENDER
// ══════════════════════════════════════════════════════════════════════════════

// InAppSender delivers notifications to the in-app feed. The feed reads
// straight from the notifications table, so delivery amounts to accepting
// the notification; the caller persists it with its final status.
type InAppSender struct {
	logger *slog.Logger
}

// NewInAppSender creates a new in-app sender.
func NewInAppSender(logger *slog.Logger) *InAppSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &InAppSender{logger: logger}
}

// Send implements notification.Sender.
func (s *InAppSender) Send(ctx context.Context, n *notification.Notification) notification.DeliveryResult {
	select {
	case <-ctx.Done():
		return notification.NewFailureResult(ctx.Err(), true)
	default:
	}

	s.logger.Debug("notification delivered to in-app feed",
		"notification_id", n.ID,
		"type", n.Type,
		"recipient", n.RecipientID,
	)

	return notification.NewSuccessResult(time.Now())
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK SENDER
// ══════════════════════════════════════════════════════════════════════════════

// WebhookSender posts notifications as JSON to an external endpoint,
// e.g. the school's email gateway or a parent-facing integration.
type WebhookSender struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// webhookPayload is the wire format posted to the endpoint.
type webhookPayload struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Recipient string `json:"recipient"`
	Priority  string `json:"priority"`
	Title     string `json:"title,omitempty"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// NewWebhookSender creates a new webhook sender.
func NewWebhookSender(url string, timeout time.Duration, logger *slog.Logger) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Send implements notification.Sender.
func (s *WebhookSender) Send(ctx context.Context, n *notification.Notification) notification.DeliveryResult {
	payload := webhookPayload{
		ID:        n.ID.String(),
		Type:      n.Type.String(),
		Recipient: string(n.RecipientID),
		Priority:  n.Priority.String(),
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return notification.NewFailureResult(fmt.Errorf("marshal payload: %w", err), false)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return notification.NewFailureResult(fmt.Errorf("build request: %w", err), false)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return notification.NewFailureResult(fmt.Errorf("post webhook: %w", err), true)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return notification.NewSuccessResult(time.Now())
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return notification.NewFailureResult(
			fmt.Errorf("webhook returned status %d", resp.StatusCode), true)
	default:
		return notification.NewFailureResult(
			fmt.Errorf("webhook returned status %d", resp.StatusCode), false)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RESILIENT SENDER
// Retry with backoff inside, circuit breaker outside. A tripped breaker
// fails fast and leaves the notification for the retry job.
// ══════════════════════════════════════════════════════════════════════════════

// ResilientSender wraps a notification.Sender with retry and circuit
// breaker protection.
type ResilientSender struct {
	inner   notification.Sender
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewResilientSender creates a sender with default resilience settings.
func NewResilientSender(inner notification.Sender, logger *slog.Logger) *ResilientSender {
	if logger == nil {
		logger = slog.Default()
	}

	breaker := circuitbreaker.NotificationBreaker(func(name string, from, to circuitbreaker.State) {
		logger.Warn("circuit breaker state changed",
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		)
	})

	return &ResilientSender{
		inner:   inner,
		retrier: retry.NotificationRetrier(),
		breaker: breaker,
		logger:  logger,
	}
}

// Send implements notification.Sender.
func (s *ResilientSender) Send(ctx context.Context, n *notification.Notification) notification.DeliveryResult {
	var result notification.DeliveryResult

	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.retrier.Do(ctx, func(ctx context.Context) error {
			result = s.inner.Send(ctx, n)
			if result.Success {
				return nil
			}

			cause := result.Error
			if cause == nil {
				cause = notification.ErrSenderUnavailable
			}
			if !result.Retryable {
				return retry.Permanent(cause)
			}
			return cause
		})
	})

	if err == nil {
		return result
	}

	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		s.logger.Warn("notification delivery rejected by circuit breaker",
			"notification_id", n.ID,
		)
		return notification.NewFailureResult(err, true)
	}

	return notification.NewFailureResult(err, !retry.IsPermanent(err))
}

// BreakerState returns the current circuit breaker state for health checks.
func (s *ResilientSender) BreakerState() circuitbreaker.State {
	return s.breaker.State()
}
