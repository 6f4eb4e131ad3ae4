package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"serfdom/internal/config"
)

const userAgent = "Serfdom/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyTaskCompleted(ctx context.Context, requestID, kind string, duration time.Duration) error
	NotifyTaskFailed(ctx context.Context, requestID, errorMessage string) error
	NotifyDelegationIssued(ctx context.Context, agentType, taskDescription, estimatedCompletion string) error
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
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		taskCompleted: cfg.Notifications.TaskCompleted,
		taskFailed:    cfg.Notifications.TaskFailed,
		delegation:    cfg.Notifications.Delegation,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	taskCompleted bool
	taskFailed    bool
	delegation    bool
}

func (n *ntfyService) NotifyTaskCompleted(ctx context.Context, requestID, kind string, duration time.Duration) error {
	if !n.taskCompleted {
		return nil
	}
	requestID = strings.TrimSpace(requestID)
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "unknown"
	}
	duration = duration.Round(time.Millisecond)
	data := payload{
		title:   "Serfdom - Task Complete",
		message: fmt.Sprintf("Task %s (%s) completed in %s", requestID, kind, duration),
		tags:    []string{"serfdom", "task", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTaskFailed(ctx context.Context, requestID, errorMessage string) error {
	if !n.taskFailed {
		return nil
	}
	requestID = strings.TrimSpace(requestID)
	errorMessage = strings.TrimSpace(errorMessage)
	if errorMessage == "" {
		errorMessage = "unknown error"
	}
	data := payload{
		title:    "Serfdom - Task Failed",
		message:  fmt.Sprintf("Task %s failed: %s", requestID, errorMessage),
		tags:     []string{"serfdom", "task", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDelegationIssued(ctx context.Context, agentType, taskDescription, estimatedCompletion string) error {
	if !n.delegation {
		return nil
	}
	agentType = strings.TrimSpace(agentType)
	taskDescription = strings.TrimSpace(taskDescription)
	message := fmt.Sprintf("Delegated to %s: %s", agentType, taskDescription)
	if estimatedCompletion = strings.TrimSpace(estimatedCompletion); estimatedCompletion != "" {
		message = fmt.Sprintf("%s\nEstimated completion: %s", message, estimatedCompletion)
	}
	data := payload{
		title:   "Serfdom - Delegation",
		message: message,
		tags:    []string{"serfdom", "delegation", "issued"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Serfdom - Test",
		message:  "Notification system test",
		tags:     []string{"serfdom", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyTaskCompleted(context.Context, string, string, time.Duration) error { return nil }
func (noopService) NotifyTaskFailed(context.Context, string, string) error                   { return nil }
func (noopService) NotifyDelegationIssued(context.Context, string, string, string) error     { return nil }
func (noopService) TestNotification(context.Context) error                                   { return nil }
