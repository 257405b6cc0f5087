package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"storyboard/internal/config"
)

// Requirement defines an external binary the pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Resolved    string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Resolved = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// PipelineRequirements lists the binaries a run needs under cfg. The caption
// requirement on ffprobe is optional when captions are disabled.
func PipelineRequirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Composes per-line clips and the final video",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Measures image width for caption sizing",
			Optional:    !cfg.Caption.Enabled,
		},
	}
	if len(cfg.Speech.Command) > 0 {
		reqs = append(reqs, Requirement{
			Name:        "Speech synthesizer",
			Command:     cfg.Speech.Command[0],
			Description: "Renders one audio clip per line",
		})
	}
	if len(cfg.Image.Command) > 0 {
		reqs = append(reqs, Requirement{
			Name:        "Image generator",
			Command:     cfg.Image.Command[0],
			Description: "Renders one illustration per line",
		})
	}
	return reqs
}

// Missing returns the required (non-optional) dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}
