// Package reporting renders stored evaluation reports as markdown and CSV.
package reporting

import (
	"context"
	"fmt"
	"time"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/evalrun"
	"wallet-strategy-lab/internal/storage"
)

// Bundle is one rendered evaluation report plus its regression check.
type Bundle struct {
	Report      *domain.EvalReport
	Regressions []evalrun.Regression
	Markdown    string
	CSV         string
}

// Generator produces report bundles from stored history.
type Generator struct {
	reports storage.EvalReportStore
	epsilon float64          // material composite drop for regression detection
	now     func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a report generator.
func NewGenerator(reports storage.EvalReportStore, epsilon float64) *Generator {
	return &Generator{
		reports: reports,
		epsilon: epsilon,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Latest renders the most recent report with its regressions against the
// previous run.
func (g *Generator) Latest(ctx context.Context) (*Bundle, error) {
	report, err := g.reports.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest report: %w", err)
	}

	regressions, err := evalrun.DetectRegressions(ctx, g.reports, g.epsilon)
	if err != nil {
		return nil, err
	}

	return g.bundle(report, regressions), nil
}

// ForReport renders an already-built report (the eval command calls this
// right after a run, avoiding a second store read).
func (g *Generator) ForReport(ctx context.Context, report *domain.EvalReport) (*Bundle, error) {
	regressions, err := evalrun.DetectRegressions(ctx, g.reports, g.epsilon)
	if err != nil {
		return nil, err
	}
	return g.bundle(report, regressions), nil
}

// History renders the full report history as a markdown summary table.
func (g *Generator) History(ctx context.Context) (string, error) {
	history, err := g.reports.GetHistory(ctx)
	if err != nil {
		return "", fmt.Errorf("load report history: %w", err)
	}
	return RenderHistoryMarkdown(history, g.now()), nil
}

func (g *Generator) bundle(report *domain.EvalReport, regressions []evalrun.Regression) *Bundle {
	return &Bundle{
		Report:      report,
		Regressions: regressions,
		Markdown:    RenderMarkdown(report, regressions),
		CSV:         RenderCSV(report.Scores),
	}
}
