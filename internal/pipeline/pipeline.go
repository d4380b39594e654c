// Package pipeline runs the five stages of a grading run in order: load,
// extract, synthesize, generate rubric, export. Extraction is strictly
// sequential because each request carries a rolling summary of the results
// accumulated so far.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alexanderveratry/Storm-gpt/internal/analysis"
	"github.com/alexanderveratry/Storm-gpt/internal/loader"
	"github.com/alexanderveratry/Storm-gpt/internal/model"
	"github.com/alexanderveratry/Storm-gpt/internal/report"
)

// ExampleChars bounds each high-quality answer excerpt in the rubric prompt.
const ExampleChars = 500

// AnswerService is the LLM surface the pipeline depends on.
type AnswerService interface {
	ExtractAnswers(ctx context.Context, doc model.Document, questions []string, prior []model.ExtractedAnswer) (*model.ExtractedAnswer, error)
	GenerateRubric(ctx context.Context, questions []string, stats []model.PatternStats, examples []analysis.Example) (*model.Rubric, error)
}

// Config holds a run's parameters.
type Config struct {
	InputDir    string
	OutputDir   string
	Questions   []string
	MaxExamples int // high-quality excerpts sent to the rubric prompt
}

// Runner executes the pipeline. Progress, when set, is called before each
// unit of long-running work so the CLI can show activity.
type Runner struct {
	LLM      AnswerService
	Config   Config
	Progress func(stage string, current, total int)
}

// Run executes a full grading run. Per-document extraction failures are
// logged and skipped; a failed rubric generation leaves the rubric empty but
// all four artifacts are still written.
func (r *Runner) Run(ctx context.Context) error {
	if r.LLM == nil {
		return errors.New("LLM client not configured")
	}

	if err := loader.Inspect(r.Config.InputDir); err != nil {
		return err
	}

	docs, err := loader.Load(r.Config.InputDir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("%w: none loadable under %s", loader.ErrNoDocuments, r.Config.InputDir)
	}

	extracted := r.extractAll(ctx, docs)
	slog.Info("extraction complete", "analyzed", len(extracted), "documents", len(docs))

	stats := analysis.Synthesize(r.Config.Questions, extracted)
	logPatterns(stats)

	r.progress("rubric", 1, 1)
	examples := analysis.HighQualityExamples(extracted, r.Config.MaxExamples, ExampleChars)
	rubric, err := r.LLM.GenerateRubric(ctx, r.Config.Questions, stats, examples)
	if err != nil {
		slog.Error("rubric generation failed, exporting empty rubric", "error", err)
		rubric = &model.Rubric{}
	}

	exp := report.Exporter{OutDir: r.Config.OutputDir}
	if err := exp.WritePatterns(stats); err != nil {
		return err
	}
	if err := exp.WriteStudentDetail(extracted); err != nil {
		return err
	}
	if err := exp.WriteRubricJSON(rubric); err != nil {
		return err
	}
	return exp.WriteRubricText(r.Config.Questions, rubric)
}

// extractAll analyzes documents in order, feeding each request the log of
// prior results. Failed documents contribute nothing and are not retried.
func (r *Runner) extractAll(ctx context.Context, docs []model.Document) []model.ExtractedAnswer {
	extracted := make([]model.ExtractedAnswer, 0, len(docs))
	for i, doc := range docs {
		r.progress("extract", i+1, len(docs))
		slog.Info("analyzing document", "student", doc.Student, "file", doc.Filename, "position", i+1, "total", len(docs))

		result, err := r.LLM.ExtractAnswers(ctx, doc, r.Config.Questions, extracted)
		if err != nil {
			slog.Error("document analysis failed", "student", doc.Student, "file", doc.Filename, "error", err)
			continue
		}
		extracted = append(extracted, *result)
	}
	return extracted
}

func (r *Runner) progress(stage string, current, total int) {
	if r.Progress != nil {
		r.Progress(stage, current, total)
	}
}

func logPatterns(stats []model.PatternStats) {
	for i, st := range stats {
		slog.Info("question patterns",
			"question", i+1,
			"total_answers", st.TotalAnswers,
			"quality", st.QualityDist,
		)
		for _, cc := range st.TopConcepts {
			slog.Info("frequent concept",
				"question", i+1,
				"concept", cc.Concept,
				"count", cc.Count,
				"share", analysis.Percent(cc.Count, st.TotalAnswers),
			)
		}
	}
}
