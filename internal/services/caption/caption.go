// Package caption burns line text into generated images with ffmpeg drawtext.
//
// The text is drawn top-centred in white with a one pixel black border. The
// font size starts at the configured maximum and shrinks one point at a time
// until the estimated text width fits the probed image width.
package caption

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"storyboard/internal/fileutil"
	"storyboard/internal/media/ffprobe"
	"storyboard/internal/services/command"
)

// glyphAdvance approximates the average advance of a proportional font as a
// fraction of its point size.
const glyphAdvance = 0.55

// Prober reports media stream information.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Overlay implements imagegen.Overlay.
type Overlay struct {
	ffmpeg   string
	fontFile string
	maxSize  int
	minSize  int
	runner   command.Runner
	prober   Prober
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithCommandRunner injects the runner used for ffmpeg.
func WithCommandRunner(r command.Runner) Option {
	return func(o *Overlay) {
		if r != nil {
			o.runner = r
		}
	}
}

// WithProber injects the image prober.
func WithProber(p Prober) Option {
	return func(o *Overlay) {
		if p != nil {
			o.prober = p
		}
	}
}

// New constructs an Overlay.
func New(ffmpegBinary, ffprobeBinary, fontFile string, maxSize, minSize int, opts ...Option) *Overlay {
	if maxSize <= 0 {
		maxSize = 36
	}
	if minSize <= 0 || minSize > maxSize {
		minSize = min(10, maxSize)
	}
	o := &Overlay{
		ffmpeg:   ffmpegBinary,
		fontFile: fontFile,
		maxSize:  maxSize,
		minSize:  minSize,
		runner:   command.Exec{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.prober == nil {
		o.prober = ffprobe.Prober{Binary: ffprobeBinary, Runner: o.runner}
	}
	return o
}

// FitFontSize returns the largest size in [minSize, maxSize] whose estimated
// rendering of text fits within width. If none fits, minSize is returned.
func FitFontSize(text string, width, maxSize, minSize int) int {
	runes := utf8.RuneCountInString(text)
	size := maxSize
	for size > minSize && estimateWidth(runes, size) > float64(width) {
		size--
	}
	return size
}

func estimateWidth(runes, size int) float64 {
	return float64(runes) * float64(size) * glyphAdvance
}

// Apply draws text onto imagePath, replacing the file atomically.
func (o *Overlay) Apply(ctx context.Context, text, imagePath string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	probe, err := o.prober.Inspect(ctx, imagePath)
	if err != nil {
		return fmt.Errorf("probe image: %w", err)
	}
	width, _, ok := probe.Dimensions()
	if !ok {
		return errors.New("probe image: no dimensions reported")
	}
	size := FitFontSize(text, width, o.maxSize, o.minSize)

	dir := filepath.Dir(imagePath)
	textFile, err := os.CreateTemp(dir, ".caption-*.txt")
	if err != nil {
		return fmt.Errorf("write caption text: %w", err)
	}
	textPath := textFile.Name()
	defer os.Remove(textPath)
	if _, err := textFile.WriteString(text); err != nil {
		_ = textFile.Close()
		return fmt.Errorf("write caption text: %w", err)
	}
	if err := textFile.Close(); err != nil {
		return fmt.Errorf("write caption text: %w", err)
	}

	tmpPath := filepath.Join(dir, ".captioned-"+filepath.Base(imagePath))
	defer os.Remove(tmpPath)
	args := []string{"-y", "-v", "error", "-i", imagePath, "-vf", o.filter(textPath, size), "-frames:v", "1", tmpPath}
	if _, err := o.runner.Run(ctx, o.binary(), args); err != nil {
		return fmt.Errorf("ffmpeg drawtext: %w", err)
	}
	if !fileutil.NonEmptyRegular(tmpPath) {
		return errors.New("ffmpeg drawtext produced no output")
	}
	if err := os.Rename(tmpPath, imagePath); err != nil {
		return fmt.Errorf("replace image: %w", err)
	}
	return nil
}

func (o *Overlay) binary() string {
	if strings.TrimSpace(o.ffmpeg) == "" {
		return "ffmpeg"
	}
	return o.ffmpeg
}

func (o *Overlay) filter(textPath string, size int) string {
	opts := []string{
		"textfile=" + escapeFilterValue(textPath),
		fmt.Sprintf("fontsize=%d", size),
		"fontcolor=white",
		"borderw=1",
		"bordercolor=black",
		"x=(w-text_w)/2",
		"y=0",
	}
	if o.fontFile != "" {
		opts = append([]string{"fontfile=" + escapeFilterValue(o.fontFile)}, opts...)
	}
	return "drawtext=" + strings.Join(opts, ":")
}

// escapeFilterValue quotes a value for use inside an ffmpeg filter option.
func escapeFilterValue(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	return "'" + replacer.Replace(value) + "'"
}
