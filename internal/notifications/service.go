package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"linguaflow/internal/config"
)

const userAgent = "LinguaFlow/0.1.0"

// Service defines the notification surface exposed to the state machine and
// the queue worker. Every call is best-effort; failures are returned so the
// caller can log them, never to abort the triggering operation.
type Service interface {
	NotifyReviewRequested(ctx context.Context, projectName, keyName, languageCode string) error
	NotifyTranslationApproved(ctx context.Context, projectName, keyName, languageCode string) error
	NotifyTranslationRejected(ctx context.Context, projectName, keyName, languageCode string) error
	NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, operation string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		review:   cfg.Notifications.Review,
		queue:    cfg.Notifications.Queue,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	review   bool
	queue    bool
	errors   bool
}

func (n *ntfyService) NotifyReviewRequested(ctx context.Context, projectName, keyName, languageCode string) error {
	if !n.review {
		return nil
	}
	return n.send(ctx, payload{
		title:   "LinguaFlow - Review Requested",
		message: fmt.Sprintf("Review requested: %s/%s (%s)", projectName, keyName, languageCode),
		tags:    []string{"linguaflow", "review", "requested"},
	})
}

func (n *ntfyService) NotifyTranslationApproved(ctx context.Context, projectName, keyName, languageCode string) error {
	if !n.review {
		return nil
	}
	return n.send(ctx, payload{
		title:   "LinguaFlow - Approved",
		message: fmt.Sprintf("Translation approved: %s/%s (%s)", projectName, keyName, languageCode),
		tags:    []string{"linguaflow", "review", "approved"},
	})
}

func (n *ntfyService) NotifyTranslationRejected(ctx context.Context, projectName, keyName, languageCode string) error {
	if !n.review {
		return nil
	}
	return n.send(ctx, payload{
		title:   "LinguaFlow - Rejected",
		message: fmt.Sprintf("Translation rejected: %s/%s (%s)", projectName, keyName, languageCode),
		tags:    []string{"linguaflow", "review", "rejected"},
	})
}

func (n *ntfyService) NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	if !n.queue {
		return nil
	}
	message := fmt.Sprintf("Translation queue drained: %d completed, %d failed in %s", processed, failed, duration.Round(time.Second))
	return n.send(ctx, payload{
		title:   "LinguaFlow - Queue Complete",
		message: message,
		tags:    []string{"linguaflow", "queue", "completed"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, operation string) error {
	if !n.errors {
		return nil
	}
	operation = strings.TrimSpace(operation)
	message := fmt.Sprintf("Error during %s: %v", operation, err)
	return n.send(ctx, payload{
		title:    "LinguaFlow - Error",
		message:  message,
		tags:     []string{"linguaflow", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:   "LinguaFlow - Test",
		message: "Notifications are configured correctly.",
		tags:    []string{"linguaflow", "test"},
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected: status %d", resp.StatusCode)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyReviewRequested(context.Context, string, string, string) error { return nil }
func (noopService) NotifyTranslationApproved(context.Context, string, string, string) error {
	return nil
}
func (noopService) NotifyTranslationRejected(context.Context, string, string, string) error {
	return nil
}
func (noopService) NotifyQueueCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
