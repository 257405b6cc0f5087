// Package compose builds per-line clips and the final concatenation with
// ffmpeg.
package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"storyboard/internal/fileutil"
	"storyboard/internal/media/ffprobe"
	"storyboard/internal/services"
	"storyboard/internal/services/command"
	"storyboard/internal/story"
)

// Prober reports media stream information.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Composer implements stage.Producer for the video stage and the muxer used
// by the finalizer.
type Composer struct {
	ffmpeg string
	fps    int
	runner command.Runner
	prober Prober
}

// Option configures a Composer.
type Option func(*Composer)

// WithCommandRunner injects the runner used for ffmpeg.
func WithCommandRunner(r command.Runner) Option {
	return func(c *Composer) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithProber enables a stream check on every composed clip.
func WithProber(p Prober) Option {
	return func(c *Composer) {
		c.prober = p
	}
}

// New constructs a Composer.
func New(ffmpegBinary string, fps int, opts ...Option) *Composer {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if fps <= 0 {
		fps = 24
	}
	c := &Composer{ffmpeg: ffmpegBinary, fps: fps, runner: command.Exec{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind implements stage.Producer.
func (c *Composer) Kind() story.Kind { return story.KindVideo }

// Produce renders the line's image for the length of its audio.
func (c *Composer) Produce(ctx context.Context, line story.Line, output string) (string, error) {
	if !fileutil.NonEmptyRegular(line.Audio) {
		return "", services.Wrap(services.ErrProduction, "video", "compose", fmt.Sprintf("line %d has no audio", line.Index), nil)
	}
	if !fileutil.NonEmptyRegular(line.Image) {
		return "", services.Wrap(services.ErrProduction, "video", "compose", fmt.Sprintf("line %d has no image", line.Index), nil)
	}

	partial := fileutil.PartialPath(output)
	rate := strconv.Itoa(c.fps)
	args := []string{
		"-y", "-v", "error",
		"-loop", "1", "-framerate", rate, "-i", line.Image,
		"-i", line.Audio,
		"-c:v", "libx264", "-tune", "stillimage", "-pix_fmt", "yuv420p", "-r", rate,
		"-c:a", "aac",
		"-shortest",
		partial,
	}
	if _, err := c.runner.Run(ctx, c.ffmpeg, args); err != nil {
		_ = os.Remove(partial)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", services.Wrap(services.ErrProduction, "video", "compose", c.ffmpeg, err)
	}
	if err := c.verify(ctx, partial); err != nil {
		_ = os.Remove(partial)
		return "", services.Wrap(services.ErrProduction, "video", "verify", output, err)
	}
	if err := fileutil.Promote(partial, output); err != nil {
		return "", services.Wrap(services.ErrProduction, "video", "compose", "", err)
	}
	return output, nil
}

func (c *Composer) verify(ctx context.Context, path string) error {
	if c.prober == nil {
		return nil
	}
	result, err := c.prober.Inspect(ctx, path)
	if err != nil {
		return err
	}
	if result.VideoStreamCount() == 0 || result.AudioStreamCount() == 0 {
		return fmt.Errorf("clip has %d video and %d audio streams", result.VideoStreamCount(), result.AudioStreamCount())
	}
	return nil
}

// Concat joins the clips listed in manifest into output with the concat
// demuxer, without re-encoding.
func (c *Composer) Concat(ctx context.Context, manifest, output string) error {
	partial := fileutil.PartialPath(output)
	args := []string{"-y", "-v", "error", "-f", "concat", "-safe", "0", "-i", manifest, "-c", "copy", partial}
	if _, err := c.runner.Run(ctx, c.ffmpeg, args); err != nil {
		_ = os.Remove(partial)
		return err
	}
	return fileutil.Promote(partial, output)
}
