package translate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"paintbot/logging"
)

// RunDelimiter joins the CJK runs for the single batched translate call.
const RunDelimiter = "\n"

// Translator is the external translate capability. Implementations may be
// network-backed; errors and timeouts are handled by the Adapter.
type Translator interface {
	// Translate rewrites text into targetLocale.
	Translate(ctx context.Context, text, targetLocale string) (string, error)
}

// Adapter applies best-effort translation of CJK prompt fragments.
//
// Behavior:
//   - no CJK runs, or no translator configured: the input is returned as is
//   - otherwise one batched call translates all runs joined by RunDelimiter,
//     and the translated lines are spliced back in positional order
//   - on any failure (error, line-count mismatch) the original string is
//     kept and the failure is logged at warn level
//
// Rewrite never returns an error: logging is a side effect, not a
// control-flow signal.
type Adapter struct {
	translator   Translator
	targetLocale string
	logger       *logging.Logger
}

// NewAdapter creates an Adapter. translator may be nil, which makes Rewrite
// a no-op.
func NewAdapter(translator Translator, targetLocale string, logger *logging.Logger) *Adapter {
	return &Adapter{
		translator:   translator,
		targetLocale: targetLocale,
		logger:       logger.Named("translate"),
	}
}

// Rewrite returns text with CJK fragments translated, or text unchanged when
// translation is unavailable or fails.
func (a *Adapter) Rewrite(ctx context.Context, text string) string {
	if a.translator == nil {
		return text
	}
	runs := FindRuns(text)
	if len(runs) == 0 {
		return text
	}

	parts := make([]string, len(runs))
	for i, run := range runs {
		parts[i] = run.Text
	}

	translated, err := a.translator.Translate(ctx, strings.Join(parts, RunDelimiter), a.targetLocale)
	if err != nil {
		a.logger.Warn("translation failed, keeping original prompt",
			zap.Int("runs", len(runs)), zap.Error(err))
		return text
	}

	lines := strings.Split(translated, RunDelimiter)
	if len(lines) != len(runs) {
		a.logger.Warn("translation returned wrong fragment count, keeping original prompt",
			zap.Int("want", len(runs)), zap.Int("got", len(lines)))
		return text
	}
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	return SpliceRuns(text, runs, lines)
}
