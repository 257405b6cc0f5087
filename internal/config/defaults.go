package config

const (
	defaultConfigPath         = "~/.config/storyboard/config.toml"
	defaultRunRoot            = "~/.local/share/storyboard"
	defaultLogDir             = "~/.local/share/storyboard/logs"
	defaultIgnorePrefix       = "The AI response returned in"
	defaultSpeechLanguage     = "en"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultFPS                = 24
	defaultMaxFontSize        = 36
	defaultMinFontSize        = 10
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMReferer         = "https://github.com/storyboard/storyboard"
	defaultLLMTitle           = "Storyboard Paraphraser"
	defaultLLMTimeoutSeconds  = 60
	defaultNtfyRequestTimeout = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

func defaultSpeechCommand() []string {
	return []string{"gtts-cli", "--lang", "{lang}", "--output", "{output}", "--", "{text}"}
}

func defaultImageCommand() []string {
	return []string{
		"python", "scripts/txt2img.py",
		"--prompt={prompt}",
		"--n_samples", "1",
		"--n_iter", "1",
		"--plms",
		"--outfile", "{output}",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RunRoot: defaultRunRoot,
			LogDir:  defaultLogDir,
		},
		Text: Text{
			IgnorePrefixes: []string{defaultIgnorePrefix},
		},
		Speech: Speech{
			Command:  defaultSpeechCommand(),
			Language: defaultSpeechLanguage,
		},
		Image: Image{
			Command: defaultImageCommand(),
		},
		Caption: Caption{
			Enabled:     true,
			MaxFontSize: defaultMaxFontSize,
			MinFontSize: defaultMinFontSize,
		},
		Video: Video{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			FPS:           defaultFPS,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Workflow: Workflow{
			CheckpointEachLine: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
