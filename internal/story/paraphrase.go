package story

import (
	"context"
	"log/slog"
	"strings"

	"storyboard/internal/logging"
	"storyboard/internal/services"
)

// Paraphraser rewrites a single line of narrative text.
type Paraphraser interface {
	Paraphrase(ctx context.Context, text string) (string, error)
}

// Paraphrase rewrites every line's Text in place. A failing or empty
// paraphrase keeps the original text; only context cancellation is returned.
func Paraphrase(ctx context.Context, lines []Line, p Paraphraser, logger *slog.Logger) error {
	if p == nil {
		return nil
	}
	logger = logging.NewComponentLogger(logger, "paraphrase")
	for i := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := &lines[i]
		lineCtx := services.WithLineIndex(ctx, line.Index)
		rewritten, err := p.Paraphrase(lineCtx, line.Text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.WarnWithContext(logging.WithContext(lineCtx, logger), "paraphrase failed; keeping original text", "paraphrase_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "line keeps its original wording"))
			continue
		}
		rewritten = strings.TrimSpace(rewritten)
		if rewritten == "" {
			continue
		}
		line.Text = rewritten
	}
	return nil
}
