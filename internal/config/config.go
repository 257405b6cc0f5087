package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directory layout for artifacts and logs.
type Paths struct {
	RunRoot string `toml:"run_root"`
	LogDir  string `toml:"log_dir"`
}

// Text controls ingestion of the narrative source.
type Text struct {
	IgnorePrefixes []string `toml:"ignore_prefixes"`
}

// Prompt holds the default image prompt decorations. The CLI may replace them
// with a randomized style before a run starts.
type Prompt struct {
	Prefix    string `toml:"prefix"`
	Suffix    string `toml:"suffix"`
	Randomize bool   `toml:"randomize"`
}

// Speech configures the external speech synthesizer. Command is an argv
// template; {text}, {lang} and {output} are substituted per line.
type Speech struct {
	Command  []string `toml:"command"`
	Language string   `toml:"language"`
}

// Image configures the external image generator. Command is an argv template;
// {prompt}, {output}, {name} and {index} are substituted per line.
type Image struct {
	Command []string `toml:"command"`
}

// Caption controls burning the line text into generated images.
type Caption struct {
	Enabled     bool   `toml:"enabled"`
	FontFile    string `toml:"font_file"`
	MaxFontSize int    `toml:"max_font_size"`
	MinFontSize int    `toml:"min_font_size"`
}

// Video configures per-line clip composition and concatenation.
type Video struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	FPS           int    `toml:"fps"`
}

// Paraphrase toggles LLM rewriting of each line before synthesis.
type Paraphrase struct {
	Enabled bool `toml:"enabled"`
}

// LLM contains the chat completion connection settings used for paraphrasing.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications configures ntfy run notifications. An empty topic disables them.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Workflow contains pipeline behaviour switches.
type Workflow struct {
	CheckpointEachLine bool `toml:"checkpoint_each_line"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for storyboard.
//
// Configuration sections by subsystem:
//   - Paths: artifact root and log directory
//   - Text: ingestion filters
//   - Prompt: image prompt prefix/suffix
//   - Speech, Image: external synthesizer command templates
//   - Caption, Video: ffmpeg based overlay and composition
//   - Paraphrase, LLM: optional line rewriting via a chat completion API
//   - Notifications: ntfy messages when a run finishes
//   - Workflow: checkpoint behaviour
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Text          Text          `toml:"text"`
	Prompt        Prompt        `toml:"prompt"`
	Speech        Speech        `toml:"speech"`
	Image         Image         `toml:"image"`
	Caption       Caption       `toml:"caption"`
	Video         Video         `toml:"video"`
	Paraphrase    Paraphrase    `toml:"paraphrase"`
	LLM           LLM           `toml:"llm"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(resolvedPath); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv exports variables from a .env file beside the config file and
// from the working directory. Variables already set in the environment win.
func loadDotEnv(configPath string) error {
	candidates := []string{filepath.Join(filepath.Dir(configPath), ".env"), ".env"}
	seen := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if info, err := os.Stat(abs); err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load %s: %w", abs, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("storyboard.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the artifact root and log directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RunRoot, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for captions and clips.
func (c *Config) FFmpegBinary() string {
	if v := strings.TrimSpace(c.Video.FFmpegBinary); v != "" {
		return v
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable used for image inspection.
func (c *Config) FFprobeBinary() string {
	if v := strings.TrimSpace(c.Video.FFprobeBinary); v != "" {
		return v
	}
	return defaultFFprobeBinary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the trimmed LLM settings handed to the chat client.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
