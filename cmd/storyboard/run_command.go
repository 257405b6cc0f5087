package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storyboard/internal/config"
	"storyboard/internal/deps"
	"storyboard/internal/fileutil"
	"storyboard/internal/history"
	"storyboard/internal/logging"
	"storyboard/internal/notifications"
	"storyboard/internal/prompt"
	"storyboard/internal/runcache"
	"storyboard/internal/services"
	"storyboard/internal/stage"
	"storyboard/internal/story"
	"storyboard/internal/workflow"
)

type runOptions struct {
	runID        string
	resumeLatest bool
	assumeYes    bool
	ignoreCache  bool
	randomize    bool
	artist       string
	prefix       string
	suffix       string
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <text-file>",
		Short: "Render a story into a video, resuming cached work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStory(cmd, ctx, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.runID, "run-id", "", "Resume or create the run with this ID")
	cmd.Flags().BoolVar(&opts.resumeLatest, "resume-latest", false, "Resume the most recent run of the same source file")
	cmd.Flags().BoolVarP(&opts.assumeYes, "yes", "y", false, "Answer yes to every confirmation")
	cmd.Flags().BoolVar(&opts.ignoreCache, "ignore-cache", false, "Regenerate every artifact even when it exists")
	cmd.Flags().BoolVar(&opts.randomize, "random-style", false, "Pick a random art medium and photography style")
	cmd.Flags().StringVar(&opts.artist, "artist", "", "Artist used by --random-style (default Van Gogh)")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "Image prompt prefix")
	cmd.Flags().StringVar(&opts.suffix, "suffix", "", "Image prompt suffix")
	return cmd
}

func runStory(cmd *cobra.Command, ctx *commandContext, sourceArg string, opts runOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	source, err := resolveSource(sourceArg)
	if err != nil {
		return err
	}
	if missing := deps.Missing(deps.CheckBinaries(deps.PipelineRequirements(cfg))); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.Command))
		}
		return services.Wrap(services.ErrConfiguration, "init", "dependencies",
			"missing "+strings.Join(names, ", ")+"; run `storyboard doctor`", nil)
	}

	baseLogger, err := ctx.logger()
	if err != nil {
		return err
	}
	hist, err := ctx.openHistory()
	if err != nil {
		logging.WarnWithContext(baseLogger, "run history unavailable", "history_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in `storyboard runs`"))
	} else {
		defer hist.Close()
	}

	runID, err := chooseRunID(cmd.Context(), hist, source, opts)
	if err != nil {
		return err
	}
	cache, err := ctx.cacheManager(baseLogger)
	if err != nil {
		return err
	}
	cached, _ := cache.Load(runID)

	ask := newPrompter(cmd.InOrStdin(), out, isTerminal(cmd.InOrStdin()) && !opts.assumeYes)

	rc := workflow.RunConfig{
		RunID:       runID,
		SourcePath:  source,
		Prompt:      resolvePrompt(cfg, opts, cached, ask),
		IgnoreCache: opts.ignoreCache,
	}
	if !rc.IgnoreCache && fileutil.NonEmptyRegular(cache.Layout().FinalVideo(runID)) {
		fmt.Fprintf(out, "A final video already exists for run %s.\n", runID)
		rc.IgnoreCache = opts.assumeYes || ask.confirm("Regenerate it and every artifact?", false)
		if !rc.IgnoreCache {
			fmt.Fprintln(out, "Not regenerating: the existing final video is returned. It is rebuilt only if lines without clips are produced or the text file changed.")
		}
	}

	logger, closeRunLog := teeRunLog(baseLogger, cfg, runID)
	defer closeRunLog()
	fmt.Fprintf(out, "Run %s: %s\n", runID, source)

	orch := newOrchestrator(cfg, runcache.New(cache.Layout(), logger), hist, logger)
	report, runErr := orch.Execute(cmd.Context(), rc)
	printRunReport(out, report)
	notifyOutcome(cmd.Context(), notifications.NewService(cfg), logger, rc, report, runErr)
	return runErr
}

func notifyOutcome(ctx context.Context, notifier notifications.Service, logger *slog.Logger, rc workflow.RunConfig, report workflow.Report, runErr error) {
	if errors.Is(runErr, context.Canceled) {
		return
	}
	summary := notifications.RunSummary{
		RunID:      rc.RunID,
		SourcePath: rc.SourcePath,
		Lines:      report.LineCount,
		Failures:   len(report.Failures()),
		FinalVideo: report.FinalVideo,
		Elapsed:    report.Elapsed,
	}
	var err error
	if runErr != nil {
		err = notifier.NotifyRunFailed(context.WithoutCancel(ctx), summary, runErr)
	} else {
		err = notifier.NotifyRunCompleted(ctx, summary)
	}
	if err != nil {
		logging.WarnWithContext(logger, "run notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no ntfy message for this run"))
	}
}

func resolveSource(arg string) (string, error) {
	expanded, err := config.ExpandPath(arg)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", arg, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "init", "source", "text file "+abs+" does not exist", nil)
		}
		return "", services.Wrap(services.ErrConfiguration, "init", "source", abs, err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrConfiguration, "init", "source", abs+" is a directory", nil)
	}
	return abs, nil
}

func chooseRunID(ctx context.Context, hist *history.Store, source string, opts runOptions) (string, error) {
	if id := strings.TrimSpace(opts.runID); id != "" {
		if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
			return "", services.Wrap(services.ErrConfiguration, "init", "run id", "invalid run id "+strconv.Quote(id), nil)
		}
		return id, nil
	}
	if opts.resumeLatest && hist != nil {
		latest, err := hist.LatestForSource(ctx, source)
		if err != nil {
			return "", err
		}
		if latest != nil {
			return latest.RunID, nil
		}
	}
	return workflow.NewRunID(), nil
}

// resolvePrompt settles the prompt template before the run. Explicit flags win;
// a resumed run keeps its recorded template; otherwise the configured or a
// random style is offered for confirmation.
func resolvePrompt(cfg *config.Config, opts runOptions, cached *story.Run, ask *prompter) story.PromptTemplate {
	if opts.prefix != "" || opts.suffix != "" {
		return story.PromptTemplate{Prefix: opts.prefix, Suffix: opts.suffix}
	}
	if cached != nil {
		return cached.Prompt
	}
	tpl := story.PromptTemplate{Prefix: cfg.Prompt.Prefix, Suffix: cfg.Prompt.Suffix}
	if opts.randomize || cfg.Prompt.Randomize {
		artist := ask.ask("Artist (enter for "+prompt.DefaultArtist+")", opts.artist)
		tpl = prompt.Random(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), artist).Template()
	}
	if tpl == (story.PromptTemplate{}) {
		return tpl
	}
	if !ask.confirm(fmt.Sprintf("Use prompt prefix %q?", tpl.Prefix), true) {
		tpl.Prefix = ask.ask("Prefix", tpl.Prefix)
	}
	if !ask.confirm(fmt.Sprintf("Use prompt suffix %q?", tpl.Suffix), true) {
		tpl.Suffix = ask.ask("Suffix", tpl.Suffix)
	}
	return tpl
}

func teeRunLog(base *slog.Logger, cfg *config.Config, runID string) (*slog.Logger, func()) {
	path := runLogPath(cfg.Paths.LogDir, runID)
	handler, closer, err := logging.NewRunFileHandler(path, cfg.Logging.Level)
	if err != nil {
		base.Warn("run log unavailable", logging.Error(err), logging.String("path", path))
		return base, func() {}
	}
	return logging.TeeLogger(base, handler), func() { _ = closer.Close() }
}

func printRunReport(out io.Writer, report workflow.Report) {
	if len(report.Stages) == 0 {
		return
	}
	rows := make([][]string, 0, len(report.Stages))
	for _, s := range report.Stages {
		rows = append(rows, []string{
			stage.Label(s.Kind),
			strconv.Itoa(s.Produced),
			strconv.Itoa(s.Reused),
			strconv.Itoa(len(s.Failures)),
			s.Elapsed.Round(time.Millisecond).String(),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Produced", "Reused", "Failed", "Elapsed"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
	for _, f := range report.Failures() {
		fmt.Fprintf(out, "  line %d (%s): %s\n", f.Index, f.Kind, services.Details(f.Err).Message)
	}
	if report.FinalVideo != "" {
		fmt.Fprintf(out, "Final video: %s\n", report.FinalVideo)
	}
	fmt.Fprintf(out, "State: %s, %d lines, elapsed %s\n", report.State, report.LineCount, report.Elapsed.Round(time.Millisecond))
}
