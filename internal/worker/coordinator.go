package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/dealscout/internal/criteria"
	"github.com/ppiankov/dealscout/internal/dedupe"
	"github.com/ppiankov/dealscout/internal/logger"
	"github.com/ppiankov/dealscout/internal/model"
	"github.com/ppiankov/dealscout/internal/score"
)

// ErrRunInProgress is returned when Run is called while another run is active
var ErrRunInProgress = errors.New("run already in progress")

// Enricher turns a seed into an enriched candidate
type Enricher interface {
	Enrich(ctx context.Context, seed model.CandidateCompany) (model.CandidateCompany, error)
}

// EnricherFactory builds the enricher for one run's profile
type EnricherFactory func(p *model.CriteriaProfile) Enricher

// Coordinator runs candidates through enrichment and scoring on a worker pool
type Coordinator struct {
	newEnricher EnricherFactory
	engine      *score.Engine
	dedupe      *dedupe.Deduplicator
	workers     int
	logger      *zap.Logger
	status      *Status

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewCoordinator creates a run coordinator
func NewCoordinator(newEnricher EnricherFactory, workers int, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		newEnricher: newEnricher,
		engine:      score.NewEngine(logger.Named("score")),
		dedupe:      dedupe.New(0),
		workers:     workers,
		logger:      logger,
		status:      NewStatus(),
	}
}

// Status returns a snapshot of the current or last run
func (c *Coordinator) Status() model.RunStats {
	return c.status.Snapshot()
}

// Cancel stops the active run. Candidates already scored are kept and ranked.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Run validates the profile, enriches and scores every distinct seed and ranks
// the results. An invalid profile fails the run before any work starts.
// A cancelled run returns the candidates scored so far with state cancelled.
func (c *Coordinator) Run(ctx context.Context, p *model.CriteriaProfile, seeds []model.CandidateCompany) (*model.RunResult, error) {
	if err := criteria.Validate(p); err != nil {
		c.status.SetState(model.RunFailed)
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return nil, ErrRunInProgress
	}
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}()

	candidates := c.dedupe.Dedupe(seeds)
	runID := uuid.New().String()
	c.status.Start(runID, len(candidates))
	started := time.Now()

	log := c.logger.With(zap.String("run_id", runID))
	log.Info("run started",
		zap.Int("seeds", len(seeds)),
		zap.Int("candidates", len(candidates)),
		zap.Int("workers", c.workers),
	)

	enricher := c.newEnricher(p)
	pool := NewPool(runCtx, c.workers)
	pool.Start()
	for _, seed := range candidates {
		job := &candidateJob{
			seed:     seed,
			profile:  p,
			enricher: enricher,
			engine:   c.engine,
			status:   c.status,
			logger:   log,
		}
		if !pool.Submit(job) {
			break
		}
	}
	results := pool.Wait()

	run := &model.RunResult{
		RunID:     runID,
		StartedAt: started,
		Profile:   p,
	}
	var scored []model.ScoredCandidate
	for _, r := range results {
		cr := r.(*CandidateResult)
		switch {
		case cr.Scored != nil:
			scored = append(scored, *cr.Scored)
		case cr.Skipped:
		default:
			run.Failures = append(run.Failures, model.CandidateFailure{Name: cr.Seed.Name, Error: cr.Err.Error()})
		}
	}
	run.Candidates = score.Rank(scored)

	state := model.RunCompleted
	if runCtx.Err() != nil && len(scored) < len(candidates) {
		state = model.RunCancelled
	}
	c.status.SetState(state)

	run.State = state
	run.FinishedAt = time.Now()
	run.Stats = c.status.Snapshot()

	log.Info("run finished",
		zap.String("state", string(state)),
		zap.Int("scored", len(run.Candidates)),
		zap.Int("failed", len(run.Failures)),
		zap.Duration("elapsed", run.FinishedAt.Sub(started)),
	)
	return run, nil
}

// CandidateResult is the outcome of one candidate job
type CandidateResult struct {
	Seed    model.CandidateCompany
	Scored  *model.ScoredCandidate
	Skipped bool // cancelled before the candidate could be scored
	Err     error
}

// GetError returns the job error
func (r *CandidateResult) GetError() error {
	return r.Err
}

type candidateJob struct {
	seed     model.CandidateCompany
	profile  *model.CriteriaProfile
	enricher Enricher
	engine   *score.Engine
	status   *Status
	logger   *zap.Logger
}

// Execute enriches and scores one candidate. A candidate with no reachable pages
// is still scored; its missing evidence lowers confidence.
func (j *candidateJob) Execute(ctx context.Context) (res Result) {
	out := &CandidateResult{Seed: j.seed}
	log := logger.WithFields(j.logger, logger.CandidateFields(j.seed.Name, j.seed.Domain)...)
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("candidate %s: panic: %v", j.seed.Name, r)
			log.Error("candidate failed", zap.Error(out.Err))
			res = out
		}
	}()

	if err := ctx.Err(); err != nil {
		out.Skipped, out.Err = true, err
		return out
	}

	enriched, err := j.enricher.Enrich(ctx, j.seed)
	if ctx.Err() != nil {
		// partially crawled candidates are not scored
		out.Skipped, out.Err = true, ctx.Err()
		return out
	}
	j.status.RecordEnriched(enriched.FetchOutcomes)
	if err != nil {
		if !errors.Is(err, model.ErrNoPages) {
			out.Err = fmt.Errorf("enrich %s: %w", j.seed.Name, err)
			log.Warn("candidate failed", zap.Error(err))
			return out
		}
		log.Warn("no pages fetched", zap.Error(err))
	}

	sc := j.engine.Score(enriched, j.profile)
	j.status.RecordScored()
	out.Scored = &sc

	log.Debug("candidate scored",
		zap.Float64("fit", sc.FitScore),
		zap.Float64("confidence", sc.Confidence),
		zap.Bool("disqualified", sc.IsDisqualified),
	)
	return out
}
