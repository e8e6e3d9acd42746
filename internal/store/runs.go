package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Run is one batch of verification outcomes.
type Run struct {
	ID            string
	Label         string
	Seq           int64
	DialectHashes []string // catalogued dialects the run verified against
	Results       []RunResult
}

// RunResult is the outcome of verifying one operation. Code is empty when
// verification succeeded.
type RunResult struct {
	Case    string
	Op      string
	Code    string
	Message string
}

// OK reports whether the operation verified.
func (r RunResult) OK() bool { return r.Code == "" }

// Failed returns the number of results that did not verify.
func (r Run) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}

// WriteRun records run and returns it with its ID and seq assigned. A
// random UUID is generated when run.ID is empty. Every dialect hash must
// already be catalogued (foreign key constraint).
func (s *Store) WriteRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO verification_runs (id, label, seq)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM verification_runs))
	`, run.ID, run.Label); err != nil {
		return Run{}, fmt.Errorf("write run: insert: %w", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT seq FROM verification_runs WHERE id = ?`, run.ID).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("write run: select seq: %w", err)
	}

	for i, hash := range run.DialectHashes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_dialects (run_id, position, dialect_hash)
			VALUES (?, ?, ?)
		`, run.ID, i, hash); err != nil {
			return Run{}, fmt.Errorf("write run: dialect %s: %w", hash, err)
		}
	}
	for i, res := range run.Results {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_results (run_id, position, case_name, op, code, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, i, res.Case, res.Op, res.Code, res.Message); err != nil {
			return Run{}, fmt.Errorf("write run: result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}

// ReadRun retrieves a run with its dialects and results.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, seq FROM verification_runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Label, &run.Seq)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	if err := s.loadRunDetails(ctx, &run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns every run in seq order, with details loaded.
// Returns an empty slice (not nil) when no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, seq FROM verification_runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Label, &run.Seq); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	// Close before loading details: the pool holds a single connection.
	rows.Close()

	for i := range runs {
		if err := s.loadRunDetails(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) loadRunDetails(ctx context.Context, run *Run) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dialect_hash FROM run_dialects
		WHERE run_id = ?
		ORDER BY position ASC
	`, run.ID)
	if err != nil {
		return fmt.Errorf("query run dialects: %w", err)
	}
	run.DialectHashes = []string{}
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			rows.Close()
			return fmt.Errorf("scan run dialect: %w", err)
		}
		run.DialectHashes = append(run.DialectHashes, hash)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate run dialects: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT case_name, op, code, message FROM run_results
		WHERE run_id = ?
		ORDER BY position ASC
	`, run.ID)
	if err != nil {
		return fmt.Errorf("query run results: %w", err)
	}
	defer rows.Close()
	run.Results = []RunResult{}
	for rows.Next() {
		var res RunResult
		if err := rows.Scan(&res.Case, &res.Op, &res.Code, &res.Message); err != nil {
			return fmt.Errorf("scan run result: %w", err)
		}
		run.Results = append(run.Results, res)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate run results: %w", err)
	}
	return nil
}
