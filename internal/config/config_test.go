package config_test

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"storyboard/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("STORYBOARD_LLM_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "storyboard", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.RunRoot != filepath.Join(tempHome, ".local", "share", "storyboard") {
		t.Fatalf("unexpected run root: %q", cfg.Paths.RunRoot)
	}
	if cfg.Video.FPS != 24 {
		t.Fatalf("expected fps 24, got %d", cfg.Video.FPS)
	}
	if cfg.Caption.MaxFontSize != 36 {
		t.Fatalf("expected max font size 36, got %d", cfg.Caption.MaxFontSize)
	}
	if !cfg.Workflow.CheckpointEachLine {
		t.Fatal("expected per-line checkpointing by default")
	}
	if !slices.Equal(cfg.Text.IgnorePrefixes, []string{"The AI response returned in"}) {
		t.Fatalf("unexpected ignore prefixes: %v", cfg.Text.IgnorePrefixes)
	}
	if cfg.Paraphrase.Enabled {
		t.Fatal("expected paraphrasing disabled by default")
	}
}

func TestLoadCustomPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "storyboard.toml")

	type payload struct {
		Paths struct {
			RunRoot string `toml:"run_root"`
		} `toml:"paths"`
		Prompt struct {
			Prefix string `toml:"prefix"`
		} `toml:"prompt"`
		Video struct {
			FPS int `toml:"fps"`
		} `toml:"video"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.RunRoot = filepath.Join(t.TempDir(), "runs")
	custom.Prompt.Prefix = "  A chalk drawing  "
	custom.Video.FPS = 30
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: exists=%v resolved=%q", exists, resolved)
	}
	if cfg.Paths.RunRoot != custom.Paths.RunRoot {
		t.Fatalf("run root = %q, want %q", cfg.Paths.RunRoot, custom.Paths.RunRoot)
	}
	if cfg.Prompt.Prefix != "A chalk drawing" {
		t.Fatalf("prefix not trimmed: %q", cfg.Prompt.Prefix)
	}
	if cfg.Video.FPS != 30 {
		t.Fatalf("fps = %d, want 30", cfg.Video.FPS)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format = %q, want json", cfg.Logging.Format)
	}
	if len(cfg.Speech.Command) == 0 {
		t.Fatal("expected default speech command to survive partial config")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "storyboard.toml")
	if err := os.WriteFile(configPath, []byte("[video]\nframerate = 30\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLLMKeyEnvFallback(t *testing.T) {
	tests := []struct {
		name      string
		fileKey   string
		storyKey  string
		routerKey string
		want      string
	}{
		{name: "file wins", fileKey: "file-key", storyKey: "env-story", want: "file-key"},
		{name: "storyboard env", storyKey: "env-story", routerKey: "env-router", want: "env-story"},
		{name: "openrouter env", routerKey: "env-router", want: "env-router"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "storyboard.toml")
			body := "[llm]\n"
			if tt.fileKey != "" {
				body += "api_key = \"" + tt.fileKey + "\"\n"
			}
			if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			t.Setenv("STORYBOARD_LLM_API_KEY", tt.storyKey)
			t.Setenv("OPENROUTER_API_KEY", tt.routerKey)

			cfg, _, _, err := config.Load(configPath)
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if got := cfg.GetLLM().APIKey; got != tt.want {
				t.Fatalf("api key = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLLMKeyFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(t.TempDir())
	configPath := filepath.Join(dir, "storyboard.toml")
	if err := os.WriteFile(configPath, []byte("[paraphrase]\nenabled = true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("STORYBOARD_LLM_API_KEY=dotenv-key\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("STORYBOARD_LLM_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	os.Unsetenv("STORYBOARD_LLM_API_KEY")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.GetLLM().APIKey; got != "dotenv-key" {
		t.Fatalf("api key = %q, want dotenv-key", got)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "gtts-cli") {
		t.Fatalf("sample config missing speech command: %s", contents)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample does not load: %v", err)
	}
	if !strings.Contains(cfg.Paths.RunRoot, "storyboard") {
		t.Fatalf("expected run root to contain storyboard, got %q", cfg.Paths.RunRoot)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"speech without output", func(c *config.Config) { c.Speech.Command = []string{"say", "{text}"} }},
		{"speech without text", func(c *config.Config) { c.Speech.Command = []string{"say", "-o", "{output}"} }},
		{"image without prompt", func(c *config.Config) { c.Image.Command = []string{"gen", "{output}"} }},
		{"font sizes inverted", func(c *config.Config) { c.Caption.MinFontSize = 40 }},
		{"fps out of range", func(c *config.Config) { c.Video.FPS = 0 }},
		{"paraphrase without key", func(c *config.Config) { c.Paraphrase.Enabled = true; c.LLM.APIKey = "" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"empty run root", func(c *config.Config) { c.Paths.RunRoot = "" }},
		{"unknown speech language", func(c *config.Config) { c.Speech.Language = "klingon" }},
		{"ntfy topic without scheme", func(c *config.Config) { c.Notifications.NtfyTopic = "ntfy.sh/stories" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadNormalizesSpeechLanguageAndNotifications(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "storyboard.toml")
	body := "[paths]\nrun_root = \"" + filepath.Join(t.TempDir(), "runs") + "\"\n" +
		"[speech]\nlanguage = \"Portuguese\"\n" +
		"[notifications]\nntfy_topic = \" https://ntfy.sh/stories \"\nrequest_timeout = 0\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Speech.Language != "pt" {
		t.Fatalf("expected language pt, got %q", cfg.Speech.Language)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/stories" {
		t.Fatalf("unexpected ntfy topic %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Notifications.RequestTimeout != 10 {
		t.Fatalf("expected default request timeout, got %d", cfg.Notifications.RequestTimeout)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.RunRoot = filepath.Join(base, "runs")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.RunRoot, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s", dir)
		}
	}
}
