package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"linguaflow/internal/config"
	"linguaflow/internal/logging"
)

// EventType enumerates the webhook event contract.
type EventType string

const (
	EventTranslationUpdated  EventType = "translation.updated"
	EventTranslationApproved EventType = "translation.approved"
	EventTranslationRejected EventType = "translation.rejected"
	EventKeyCreated          EventType = "key.created"
	EventKeyDeleted          EventType = "key.deleted"
	EventQueueCompleted      EventType = "queue.completed"
	EventQueueFailed         EventType = "queue.failed"
)

// Event is the payload delivered to configured endpoints.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	ProjectID int64          `json:"projectId"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// NewEvent stamps an event with a fresh ID and timestamp.
func NewEvent(eventType EventType, projectID int64, data map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ProjectID: projectID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Dispatcher fans events out to webhook consumers. Dispatch must never block
// the caller on delivery and must never return delivery errors to it.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
	Close()
}

// NewDispatcher builds an HTTP dispatcher when endpoints are configured and
// a noop dispatcher otherwise.
func NewDispatcher(cfg *config.Config, logger *slog.Logger) Dispatcher {
	if len(cfg.Webhooks.Endpoints) == 0 {
		return noopDispatcher{}
	}
	timeout := time.Duration(cfg.Webhooks.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpDispatcher{
		endpoints: append([]string(nil), cfg.Webhooks.Endpoints...),
		client:    &http.Client{Timeout: timeout},
		logger:    logging.NewComponentLogger(logger, "webhooks"),
	}
}

type httpDispatcher struct {
	endpoints []string
	client    *http.Client
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// Dispatch posts the event to every endpoint asynchronously. Failures are
// logged and dropped; webhook delivery is a best-effort side effect.
func (d *httpDispatcher) Dispatch(ctx context.Context, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		d.logger.Warn("encode webhook event failed",
			logging.String("event_type", string(event.Type)),
			logging.Error(err))
		return
	}
	for _, endpoint := range d.endpoints {
		d.wg.Add(1)
		go func(endpoint string) {
			defer d.wg.Done()
			if err := d.deliver(endpoint, body); err != nil {
				d.logger.Warn("webhook delivery failed",
					logging.String("endpoint", endpoint),
					logging.String("event_type", string(event.Type)),
					logging.Error(err))
			}
		}(endpoint)
	}
}

func (d *httpDispatcher) deliver(endpoint string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "LinguaFlow/0.1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook rejected: status %d", resp.StatusCode)
	}
	return nil
}

// Close waits for in-flight deliveries to finish.
func (d *httpDispatcher) Close() {
	d.wg.Wait()
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, Event) {}
func (noopDispatcher) Close()                          {}
