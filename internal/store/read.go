package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/adaptivity/internal/ir"
)

// ErrNotFound is returned when a check id is not in the store.
var ErrNotFound = errors.New("check not found")

const checkColumns = `id, seq, input_hash, state, rules, scoring, result, result_hash, engine_version`

// ReadCheck returns the check with the given id, or ErrNotFound.
func (s *Store) ReadCheck(ctx context.Context, id string) (ir.CheckRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+checkColumns+` FROM checks WHERE id = ?`, id)
	rec, err := scanCheck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.CheckRecord{}, fmt.Errorf("read check %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.CheckRecord{}, fmt.Errorf("read check %s: %w", id, err)
	}
	return rec, nil
}

// ReadAllChecks returns every recorded check.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if nothing is recorded.
func (s *Store) ReadAllChecks(ctx context.Context) ([]ir.CheckRecord, error) {
	return s.queryChecks(ctx, `
		SELECT `+checkColumns+`
		FROM checks
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// ReadChecksByInput returns every check recorded for an input hash, in
// seq order.
func (s *Store) ReadChecksByInput(ctx context.Context, inputHash string) ([]ir.CheckRecord, error) {
	return s.queryChecks(ctx, `
		SELECT `+checkColumns+`
		FROM checks
		WHERE input_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, inputHash)
}

// ListCheckIDs returns the ids of all recorded checks in seq order.
func (s *Store) ListCheckIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM checks
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query check ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan check id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check ids: %w", err)
	}
	return ids, nil
}

// LastSeq returns the highest seq recorded, or 0 for an empty store. The
// engine resumes its clock from here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM checks`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) queryChecks(ctx context.Context, query string, args ...any) ([]ir.CheckRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	records := []ir.CheckRecord{}
	for rows.Next() {
		rec, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checks: %w", err)
	}
	return records, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCheck(row scanner) (ir.CheckRecord, error) {
	var (
		rec                                    ir.CheckRecord
		stateJSON, rulesJSON, scoringJSON, res string
	)
	err := row.Scan(&rec.ID, &rec.Seq, &rec.InputHash, &stateJSON, &rulesJSON, &scoringJSON, &res, &rec.ResultHash, &rec.EngineVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan check: %w", err)
	}

	if rec.State, err = unmarshalState(stateJSON); err != nil {
		return rec, fmt.Errorf("check %s: %w", rec.ID, err)
	}
	if rec.Rules, err = unmarshalRules(rulesJSON); err != nil {
		return rec, fmt.Errorf("check %s: %w", rec.ID, err)
	}
	if rec.Scoring, err = unmarshalScoring(scoringJSON); err != nil {
		return rec, fmt.Errorf("check %s: %w", rec.ID, err)
	}
	if rec.Result, err = unmarshalResult(res); err != nil {
		return rec, fmt.Errorf("check %s: %w", rec.ID, err)
	}
	return rec, nil
}
