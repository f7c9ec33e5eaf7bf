package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ppiankov/dealscout/internal/model"
	"github.com/ppiankov/dealscout/migrations"
)

// Store persists runs, scored candidates and their evidence in Postgres
type Store struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// RunSummary is one stored run as listed by Runs
type RunSummary struct {
	ID         string
	State      model.RunState
	StartedAt  time.Time
	FinishedAt time.Time
	Candidates int
}

// New creates a connection pool and checks the database is reachable
func New(ctx context.Context, connString string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{Pool: pool, logger: logger}, nil
}

// RunMigrations applies the embedded schema migrations
func RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: %w", err)
	}

	return nil
}

// Close closes the connection pool
func (s *Store) Close() {
	s.Pool.Close()
}

// SaveRun writes a run with its ranked candidates and evidence in one transaction.
// Saving the same run twice replaces the earlier copy.
func (s *Store) SaveRun(ctx context.Context, run *model.RunResult) error {
	if run == nil || run.RunID == "" {
		return fmt.Errorf("save run: missing run id")
	}

	criteria, err := json.Marshal(run.Profile)
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM runs WHERE id = $1`, run.RunID)
	batch.Queue(`
		INSERT INTO runs (id, state, started_at, finished_at, criteria, stats)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.RunID, string(run.State), run.StartedAt, run.FinishedAt, criteria, stats)

	evidenceRows := 0
	for i := range run.Candidates {
		sc := &run.Candidates[i]
		row, err := candidateRow(sc)
		if err != nil {
			return fmt.Errorf("encode %s: %w", sc.Name(), err)
		}
		batch.Queue(`
			INSERT INTO scored_candidates (
				run_id, rank, name, domain, website, fit_score, confidence, is_disqualified,
				disqualification_reasons, scores, breakdown, match_summary, candidate
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, run.RunID, sc.Rank, sc.Name(), sc.Candidate.Domain, sc.Candidate.Website,
			sc.FitScore, sc.Confidence, sc.IsDisqualified,
			row.reasons, row.scores, row.breakdown, row.summary, row.candidate)

		for _, ev := range sc.Evidence {
			batch.Queue(`
				INSERT INTO evidence (
					run_id, candidate_rank, criterion, field, value, snippet, source_url, confidence, extraction_method
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, run.RunID, sc.Rank, string(ev.Criterion), string(ev.Field), ev.Value, ev.Snippet,
				ev.SourceURL, ev.Confidence, string(ev.ExtractionMethod))
			evidenceRows++
		}
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("batch exec %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("run saved",
		zap.String("run_id", run.RunID),
		zap.Int("candidates", len(run.Candidates)),
		zap.Int("evidence", evidenceRows),
	)
	return nil
}

// Runs lists the most recent runs, newest first
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT r.id::text, r.state, r.started_at, r.finished_at, COUNT(c.rank)
		FROM runs r
		LEFT JOIN scored_candidates c ON c.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		var state string
		if err := rows.Scan(&rs.ID, &state, &rs.StartedAt, &rs.FinishedAt, &rs.Candidates); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rs.State = model.RunState(state)
		out = append(out, rs)
	}
	return out, rows.Err()
}

// CandidateEvidence returns the stored evidence of one ranked candidate
func (s *Store) CandidateEvidence(ctx context.Context, runID string, rank int) ([]model.Evidence, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT criterion, field, value, snippet, source_url, confidence, extraction_method
		FROM evidence
		WHERE run_id = $1 AND candidate_rank = $2
		ORDER BY id
	`, runID, rank)
	if err != nil {
		return nil, fmt.Errorf("query evidence: %w", err)
	}
	defer rows.Close()

	var out []model.Evidence
	for rows.Next() {
		var ev model.Evidence
		var criterion, field, method string
		if err := rows.Scan(&criterion, &field, &ev.Value, &ev.Snippet, &ev.SourceURL, &ev.Confidence, &method); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		ev.Criterion = model.Criterion(criterion)
		ev.Field = model.Field(field)
		ev.ExtractionMethod = model.ExtractionMethod(method)
		out = append(out, ev)
	}
	return out, rows.Err()
}

type encodedCandidate struct {
	reasons, scores, breakdown, summary, candidate []byte
}

func candidateRow(sc *model.ScoredCandidate) (encodedCandidate, error) {
	var row encodedCandidate
	var err error

	reasons := sc.DisqualificationReasons
	if reasons == nil {
		reasons = []string{}
	}
	if row.reasons, err = json.Marshal(reasons); err != nil {
		return row, err
	}
	if row.scores, err = json.Marshal(sc.Scores); err != nil {
		return row, err
	}
	if row.breakdown, err = json.Marshal(sc.Breakdown); err != nil {
		return row, err
	}
	summary := sc.MatchSummary
	if summary == nil {
		summary = []string{}
	}
	if row.summary, err = json.Marshal(summary); err != nil {
		return row, err
	}

	// evidence lives in its own table
	c := sc.Candidate
	c.Evidence = nil
	if row.candidate, err = json.Marshal(c); err != nil {
		return row, err
	}
	return row, nil
}
