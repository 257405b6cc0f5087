package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storyboard/internal/config"
	"storyboard/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func serviceFor(url string) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunFailed(context.Background(), notifications.RunSummary{RunID: "r"}, errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	summary := notifications.RunSummary{
		RunID:      "demo",
		SourcePath: "/stories/fox.txt",
		Lines:      3,
		FinalVideo: "/runs/final_video/demo/final_video.mp4",
		Elapsed:    90 * time.Second,
	}
	withFailures := summary
	withFailures.Failures = 1

	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "completed",
			send:          func(s notifications.Service) error { return s.NotifyRunCompleted(context.Background(), summary) },
			expectTitle:   "Storyboard - Video Ready",
			expectMessage: "fox.txt: 3 lines in 1m30s\nVideo: /runs/final_video/demo/final_video.mp4",
			expectTags:    "storyboard,run,completed",
		},
		{
			name:          "completed with failures",
			send:          func(s notifications.Service) error { return s.NotifyRunCompleted(context.Background(), withFailures) },
			expectTitle:   "Storyboard - Finished With Failures",
			expectMessage: "1 line(s) failed; rerun to retry them",
			expectTags:    "storyboard,run,warning",
		},
		{
			name: "failed",
			send: func(s notifications.Service) error {
				return s.NotifyRunFailed(context.Background(), summary, errors.New("concatenation failed"))
			},
			expectTitle:    "Storyboard - Run Failed",
			expectMessage:  "fox.txt (run demo) stopped: concatenation failed",
			expectTags:     "storyboard,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			send:           func(s notifications.Service) error { return s.TestNotification(context.Background()) },
			expectTitle:    "Storyboard - Test",
			expectMessage:  "Notification system test",
			expectTags:     "storyboard,test",
			expectPriority: "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, got := newServer(t, http.StatusOK)
			if err := tt.send(serviceFor(srv.URL)); err != nil {
				t.Fatalf("send: %v", err)
			}
			if len(*got) != 1 {
				t.Fatalf("expected 1 request, got %d", len(*got))
			}
			req := (*got)[0]
			if req.title != tt.expectTitle {
				t.Errorf("title = %q, want %q", req.title, tt.expectTitle)
			}
			if !strings.Contains(req.body, tt.expectMessage) {
				t.Errorf("body = %q, want it to contain %q", req.body, tt.expectMessage)
			}
			if req.tags != tt.expectTags {
				t.Errorf("tags = %q, want %q", req.tags, tt.expectTags)
			}
			if req.priority != tt.expectPriority {
				t.Errorf("priority = %q, want %q", req.priority, tt.expectPriority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := newServer(t, http.StatusForbidden)
	err := serviceFor(srv.URL).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
