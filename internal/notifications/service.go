package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"storyboard/internal/config"
)

const userAgent = "storyboard/0.1"

// RunSummary is the part of a finished run a notification describes.
type RunSummary struct {
	RunID      string
	SourcePath string
	Lines      int
	Failures   int
	FinalVideo string
	Elapsed    time.Duration
}

// Service announces run outcomes.
type Service interface {
	NotifyRunCompleted(ctx context.Context, run RunSummary) error
	NotifyRunFailed(ctx context.Context, run RunSummary, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed Service, or a no-op when no topic is set.
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
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, run RunSummary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d lines in %s", storyName(run), run.Lines, run.Elapsed.Round(time.Second))
	if run.FinalVideo != "" {
		fmt.Fprintf(&b, "\nVideo: %s", run.FinalVideo)
	}
	data := payload{
		title:   "Storyboard - Video Ready",
		message: b.String(),
		tags:    []string{"storyboard", "run", "completed"},
	}
	if run.Failures > 0 {
		fmt.Fprintf(&b, "\n%d line(s) failed; rerun to retry them", run.Failures)
		data.message = b.String()
		data.title = "Storyboard - Finished With Failures"
		data.tags = []string{"storyboard", "run", "warning"}
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, run RunSummary, err error) error {
	message := fmt.Sprintf("%s (run %s) stopped", storyName(run), run.RunID)
	if err != nil {
		message += ": " + strings.TrimSpace(err.Error())
	}
	return n.send(ctx, payload{
		title:    "Storyboard - Run Failed",
		message:  message,
		tags:     []string{"storyboard", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Storyboard - Test",
		message:  "Notification system test",
		tags:     []string{"storyboard", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
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

func storyName(run RunSummary) string {
	if run.SourcePath == "" {
		return run.RunID
	}
	return filepath.Base(run.SourcePath)
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunSummary) error     { return nil }
func (noopService) NotifyRunFailed(context.Context, RunSummary, error) error { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }
