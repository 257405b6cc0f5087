package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"storyboard/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RunRoot = filepath.Join(base, "runs")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Caption.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithCaptions enables caption overlay on the test config.
func WithCaptions() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Caption.Enabled = true
	}
}

const (
	// ffmpegStub writes a placeholder into its last argument, the output path.
	ffmpegStub = "#!/bin/sh\nfor last; do :; done\nprintf clip > \"$last\"\n"
	// ffprobeStub reports one 64px video stream and one audio stream for any input.
	ffprobeStub = "#!/bin/sh\ncat <<'JSON'\n" +
		`{"streams":[{"index":0,"codec_name":"h264","codec_type":"video","width":64,"height":64},` +
		`{"index":1,"codec_name":"aac","codec_type":"audio"}],"format":{"nb_streams":2,"duration":"1.0"}}` +
		"\nJSON\n"
)

// WithStubbedMedia points ffmpeg and ffprobe at shell stubs under the temp
// directory and replaces the synthesizers with sh commands that write a few
// bytes to {output}, so a full run completes without real media tools.
func WithStubbedMedia() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for name, script := range map[string]string{"ffmpeg": ffmpegStub, "ffprobe": ffprobeStub} {
			if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.cfg.Video.FFmpegBinary = filepath.Join(binDir, "ffmpeg")
		b.cfg.Video.FFprobeBinary = filepath.Join(binDir, "ffprobe")
		b.cfg.Speech.Command = []string{"sh", "-c", `printf voice > "$1"`, "sh", "{output}", "{text}"}
		b.cfg.Image.Command = []string{"sh", "-c", `printf image > "$1"`, "sh", "{output}", "{prompt}"}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.RunRoot)
}
