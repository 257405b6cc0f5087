package main

import (
	"log/slog"

	"storyboard/internal/config"
	"storyboard/internal/finalize"
	"storyboard/internal/history"
	"storyboard/internal/media/ffprobe"
	"storyboard/internal/runcache"
	"storyboard/internal/services/caption"
	"storyboard/internal/services/compose"
	"storyboard/internal/services/imagegen"
	"storyboard/internal/services/llm"
	"storyboard/internal/services/paraphrase"
	"storyboard/internal/services/speech"
	"storyboard/internal/stage"
	"storyboard/internal/story"
	"storyboard/internal/workflow"
)

// newOrchestrator wires the configured collaborators into a workflow.
func newOrchestrator(cfg *config.Config, cache *runcache.Manager, hist *history.Store, logger *slog.Logger) *workflow.Orchestrator {
	layout := cache.Layout()
	prober := ffprobe.Prober{Binary: cfg.FFprobeBinary()}
	composer := compose.New(cfg.FFmpegBinary(), cfg.Video.FPS, compose.WithProber(prober))

	runner := stage.NewRunner(cache, layout,
		stage.WithLogger(logger),
		stage.WithCheckpointEachLine(cfg.Workflow.CheckpointEachLine))

	opts := []workflow.Option{
		workflow.WithIngestOptions(story.IngestOptions{IgnorePrefixes: cfg.Text.IgnorePrefixes}),
	}
	if hist != nil {
		opts = append(opts, workflow.WithHistory(hist))
	}
	if cfg.Paraphrase.Enabled {
		opts = append(opts, workflow.WithParaphraser(paraphrase.NewLLM(newLLMClient(cfg))))
	}

	return workflow.NewOrchestrator(cache, runner, stageBuilder(cfg, composer, prober),
		finalize.New(layout, composer, logger), logger, opts...)
}

func stageBuilder(cfg *config.Config, composer *compose.Composer, prober ffprobe.Prober) workflow.StageBuilder {
	return func(run *story.Run) ([]stage.Producer, error) {
		synth, err := speech.New(cfg.Speech.Command, cfg.Speech.Language)
		if err != nil {
			return nil, err
		}
		var imageOpts []imagegen.Option
		if cfg.Caption.Enabled {
			overlay := caption.New(cfg.FFmpegBinary(), cfg.FFprobeBinary(), cfg.Caption.FontFile,
				cfg.Caption.MaxFontSize, cfg.Caption.MinFontSize, caption.WithProber(prober))
			imageOpts = append(imageOpts, imagegen.WithOverlay(overlay))
		}
		gen, err := imagegen.New(cfg.Image.Command, run.Prompt, imageOpts...)
		if err != nil {
			return nil, err
		}
		return []stage.Producer{synth, gen, composer}, nil
	}
}

func newLLMClient(cfg *config.Config) *llm.Client {
	settings := cfg.GetLLM()
	return llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
	})
}
