package config

import (
	"errors"
	"fmt"
	"strings"

	"storyboard/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSynthesizers(); err != nil {
		return err
	}
	if err := c.validateCaption(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateParaphrase(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.RunRoot) == "" {
		return errors.New("paths.run_root must be set")
	}
	return nil
}

func (c *Config) validateSynthesizers() error {
	if !containsPlaceholder(c.Speech.Command, "{output}") {
		return errors.New("speech.command must reference {output}")
	}
	if !containsPlaceholder(c.Speech.Command, "{text}") {
		return errors.New("speech.command must reference {text}")
	}
	if _, ok := language.Normalize(c.Speech.Language); !ok {
		return fmt.Errorf("speech.language: unrecognized language %q", c.Speech.Language)
	}
	if !containsPlaceholder(c.Image.Command, "{output}") {
		return errors.New("image.command must reference {output}")
	}
	if !containsPlaceholder(c.Image.Command, "{prompt}") {
		return errors.New("image.command must reference {prompt}")
	}
	return nil
}

func (c *Config) validateCaption() error {
	if c.Caption.MinFontSize > c.Caption.MaxFontSize {
		return fmt.Errorf("caption.min_font_size (%d) must not exceed caption.max_font_size (%d)", c.Caption.MinFontSize, c.Caption.MaxFontSize)
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.FPS <= 0 || c.Video.FPS > 120 {
		return fmt.Errorf("video.fps must be between 1 and 120, got %d", c.Video.FPS)
	}
	return nil
}

func (c *Config) validateParaphrase() error {
	if c.Paraphrase.Enabled && c.LLM.APIKey == "" {
		return errors.New("paraphrase.enabled requires llm.api_key (or STORYBOARD_LLM_API_KEY / OPENROUTER_API_KEY)")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func containsPlaceholder(args []string, placeholder string) bool {
	for _, arg := range args {
		if strings.Contains(arg, placeholder) {
			return true
		}
	}
	return false
}
