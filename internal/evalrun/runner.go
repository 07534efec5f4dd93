// Package evalrun drives one evaluation pass: every labeled wallet is
// fetched, analyzed, synthesized, and judged, and the results aggregate into
// a stored EvalReport.
package evalrun

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wallet-strategy-lab/internal/datasource"
	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/observability"
	"wallet-strategy-lab/internal/scoring"
	"wallet-strategy-lab/internal/skills"
	"wallet-strategy-lab/internal/storage"
	"wallet-strategy-lab/internal/synthesis"
)

// TradeSource serves wallet histories and leaderboard context. Implemented by
// the HTTP client, the ClickHouse archive, and the static test source.
type TradeSource interface {
	Events(ctx context.Context, walletID string) ([]domain.TradeEvent, error)
	Profile(ctx context.Context, walletID string) (datasource.WalletProfile, error)
}

// Runner evaluates the whole ground truth set with bounded concurrency.
type Runner struct {
	source      TradeSource
	synthesizer *synthesis.Synthesizer
	scorer      *scoring.Scorer
	groundTruth storage.GroundTruthStore
	theses      storage.ThesisStore
	reports     storage.EvalReportStore
	skillOpts   skills.Options
	concurrency int
	versionTag  string
	log         *logrus.Logger

	now   func() time.Time // injectable for tests
	newID func() string
}

// Options bundles the Runner dependencies.
type Options struct {
	Source      TradeSource
	Synthesizer *synthesis.Synthesizer
	Scorer      *scoring.Scorer
	GroundTruth storage.GroundTruthStore
	Theses      storage.ThesisStore
	Reports     storage.EvalReportStore
	SkillOpts   skills.Options
	Concurrency int
	VersionTag  string
	Log         *logrus.Logger
}

// NewRunner builds a runner. Concurrency below 1 is clamped to 1.
func NewRunner(opts Options) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Runner{
		source:      opts.Source,
		synthesizer: opts.Synthesizer,
		scorer:      opts.Scorer,
		groundTruth: opts.GroundTruth,
		theses:      opts.Theses,
		reports:     opts.Reports,
		skillOpts:   opts.SkillOpts,
		concurrency: opts.Concurrency,
		versionTag:  opts.VersionTag,
		log:         opts.Log,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// Run evaluates every labeled wallet and stores the aggregated report.
// Per-wallet failures (fetch errors, judge failures) become scoring-error
// entries rather than failing the run. Cancelling ctx stops dispatching new
// wallets; wallets already in flight finish and are included in the report.
// The only fatal conditions are an unreadable or empty ground truth set and
// a report store that refuses the insert.
func (r *Runner) Run(ctx context.Context) (*domain.EvalReport, error) {
	labels, err := r.groundTruth.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ground truth: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("ground truth set is empty")
	}

	started := r.now()
	r.log.WithFields(logrus.Fields{
		"wallets":     len(labels),
		"concurrency": r.concurrency,
		"version":     r.versionTag,
	}).Info("evaluation run started")

	// In-flight wallets run on a detached context so cancellation drains
	// instead of aborting mid-wallet.
	workCtx := context.WithoutCancel(ctx)

	var (
		mu     sync.Mutex
		scores []domain.EvalScore
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, r.concurrency)

dispatch:
	for _, gt := range labels {
		// Both select cases can be ready at once and select picks randomly;
		// cancellation must win deterministically or an already-cancelled run
		// could still dispatch wallets.
		if ctx.Err() != nil {
			r.log.WithError(ctx.Err()).Warn("run cancelled, draining in-flight wallets")
			break dispatch
		}
		select {
		case <-ctx.Done():
			r.log.WithError(ctx.Err()).Warn("run cancelled, draining in-flight wallets")
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(gt *domain.GroundTruth) {
			defer wg.Done()
			defer func() { <-sem }()

			score := r.evaluateWallet(workCtx, gt)
			mu.Lock()
			scores = append(scores, *score)
			mu.Unlock()
		}(gt)
	}
	wg.Wait()

	// Workers finish in arbitrary order; reports list wallets stably.
	sort.Slice(scores, func(i, j int) bool { return scores[i].WalletID < scores[j].WalletID })

	report := r.aggregate(scores)
	report.CreatedAt = started

	if err := r.reports.Insert(workCtx, report); err != nil {
		return nil, fmt.Errorf("store eval report: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"report":         report.ReportID,
		"mean_composite": report.MeanComposite,
		"accuracy":       report.StrategyAccuracy,
		"errors":         report.ScoringErrors,
		"elapsed":        r.now().Sub(started).Round(time.Millisecond),
	}).Info("evaluation run finished")

	return report, nil
}

// evaluateWallet runs the full pipeline for one wallet. Every failure mode
// maps to a scoring-error entry; this function cannot fail the run.
func (r *Runner) evaluateWallet(ctx context.Context, gt *domain.GroundTruth) *domain.EvalScore {
	walletStart := r.now()

	errScore := func(stage string, err error) *domain.EvalScore {
		r.log.WithError(err).WithFields(logrus.Fields{
			"wallet": gt.WalletID,
			"stage":  stage,
		}).Error("wallet evaluation failed")
		return &domain.EvalScore{
			WalletID:       gt.WalletID,
			ActualStrategy: gt.PrimaryStrategy,
			Difficulty:     gt.Difficulty,
			ScoringError:   true,
			ErrorDetail:    fmt.Sprintf("%s: %v", stage, err),
		}
	}

	events, err := r.source.Events(ctx, gt.WalletID)
	if err != nil {
		return errScore("fetch events", err)
	}
	observability.DefaultMetrics.TradesFetched.Add(float64(len(events)))

	set, err := skills.RunAll(ctx, events, r.skillOpts)
	if err != nil {
		return errScore("run analyzers", err)
	}

	profile := r.walletProfile(ctx, gt)

	thesis, err := r.synthesizer.Synthesize(ctx, gt.WalletID, profile, set, len(events))
	if err != nil {
		return errScore("synthesize", err)
	}
	observability.RecordWalletAnalyzed(string(thesis.PrimaryStrategy))

	if r.theses != nil {
		if err := r.theses.Insert(ctx, thesis); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			// Thesis persistence is best effort; scoring proceeds.
			r.log.WithError(err).WithField("wallet", gt.WalletID).Warn("thesis not stored")
		}
	}

	score, err := r.scorer.Score(ctx, gt, thesis)
	if err != nil {
		return errScore("score", err)
	}
	score.ElapsedSeconds = r.now().Sub(walletStart).Seconds()
	return score
}

// walletProfile merges API profile context with ground truth stats. The API
// wins where both are set; a failed lookup degrades to label stats.
func (r *Runner) walletProfile(ctx context.Context, gt *domain.GroundTruth) *synthesis.Profile {
	profile := &synthesis.Profile{
		Username:    gt.Username,
		TotalPnL:    gt.TotalPnL,
		TotalTrades: gt.TotalTrades,
	}

	api, err := r.source.Profile(ctx, gt.WalletID)
	if err != nil {
		r.log.WithError(err).WithField("wallet", gt.WalletID).Debug("profile lookup failed")
		return profile
	}
	if api.Username != "" {
		profile.Username = api.Username
	}
	if api.TotalPnL != 0 {
		profile.TotalPnL = api.TotalPnL
	}
	if api.TotalTrades != 0 {
		profile.TotalTrades = api.TotalTrades
	}
	profile.Rank = api.Rank
	return profile
}

// aggregate folds per-wallet scores into one report. Scoring errors count in
// WalletsEvaluated and ScoringErrors but are excluded from every mean.
func (r *Runner) aggregate(scores []domain.EvalScore) *domain.EvalReport {
	report := &domain.EvalReport{
		ReportID:         r.newID(),
		VersionTag:       r.versionTag,
		WalletsEvaluated: len(scores),
		Scores:           scores,
	}

	var (
		scored     int
		sumComp    float64
		sumRecall  float64
		sumFalse   float64
		numCorrect int
	)
	for _, s := range scores {
		if s.ScoringError {
			report.ScoringErrors++
			continue
		}
		scored++
		sumComp += s.CompositeScore
		sumRecall += s.EvidenceRecall
		sumFalse += float64(s.FalseClaimCount)
		if s.StrategyCorrect {
			numCorrect++
		}
	}

	if scored > 0 {
		report.MeanComposite = sumComp / float64(scored)
		report.StrategyAccuracy = float64(numCorrect) / float64(scored)
		report.MeanEvidenceRecall = sumRecall / float64(scored)
		report.MeanFalseClaims = sumFalse / float64(scored)
	}
	return report
}
