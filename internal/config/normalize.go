package config

import (
	"fmt"
	"os"
	"strings"

	"storyboard/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeText()
	c.normalizePrompt()
	c.normalizeSynthesizers()
	if err := c.normalizeCaption(); err != nil {
		return err
	}
	c.normalizeVideo()
	c.normalizeLLM()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RunRoot) == "" {
		c.Paths.RunRoot = defaultRunRoot
	}
	if c.Paths.RunRoot, err = expandPath(c.Paths.RunRoot); err != nil {
		return fmt.Errorf("paths.run_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeText() {
	prefixes := make([]string, 0, len(c.Text.IgnorePrefixes))
	seen := make(map[string]struct{}, len(c.Text.IgnorePrefixes))
	for _, prefix := range c.Text.IgnorePrefixes {
		trimmed := strings.TrimSpace(prefix)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		prefixes = append(prefixes, trimmed)
	}
	c.Text.IgnorePrefixes = prefixes
}

func (c *Config) normalizePrompt() {
	c.Prompt.Prefix = strings.TrimSpace(c.Prompt.Prefix)
	c.Prompt.Suffix = strings.TrimSpace(c.Prompt.Suffix)
}

func (c *Config) normalizeSynthesizers() {
	c.Speech.Command = trimArgs(c.Speech.Command)
	if len(c.Speech.Command) == 0 {
		c.Speech.Command = defaultSpeechCommand()
	}
	c.Speech.Language = strings.ToLower(strings.TrimSpace(c.Speech.Language))
	if c.Speech.Language == "" {
		c.Speech.Language = defaultSpeechLanguage
	}
	if code, ok := language.Normalize(c.Speech.Language); ok {
		c.Speech.Language = code
	}
	c.Image.Command = trimArgs(c.Image.Command)
	if len(c.Image.Command) == 0 {
		c.Image.Command = defaultImageCommand()
	}
}

func (c *Config) normalizeCaption() error {
	if c.Caption.MaxFontSize <= 0 {
		c.Caption.MaxFontSize = defaultMaxFontSize
	}
	if c.Caption.MinFontSize <= 0 {
		c.Caption.MinFontSize = defaultMinFontSize
	}
	if strings.TrimSpace(c.Caption.FontFile) == "" {
		c.Caption.FontFile = ""
		return nil
	}
	var err error
	if c.Caption.FontFile, err = expandPath(strings.TrimSpace(c.Caption.FontFile)); err != nil {
		return fmt.Errorf("caption.font_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeVideo() {
	c.Video.FFmpegBinary = strings.TrimSpace(c.Video.FFmpegBinary)
	if c.Video.FFmpegBinary == "" {
		c.Video.FFmpegBinary = defaultFFmpegBinary
	}
	c.Video.FFprobeBinary = strings.TrimSpace(c.Video.FFprobeBinary)
	if c.Video.FFprobeBinary == "" {
		c.Video.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = defaultFPS
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, name := range []string{"STORYBOARD_LLM_API_KEY", "OPENROUTER_API_KEY"} {
			if value := strings.TrimSpace(os.Getenv(name)); value != "" {
				c.LLM.APIKey = value
				break
			}
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func trimArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
