package store

import (
	"context"
	"fmt"

	"github.com/roach88/adaptivity/internal/ir"
)

// WriteCheck inserts a check record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// Other constraint violations (e.g., NOT NULL) will still return errors.
func (s *Store) WriteCheck(ctx context.Context, rec ir.CheckRecord) error {
	rulesJSON, err := marshalRules(rec.Rules)
	if err != nil {
		return fmt.Errorf("write check: %w", err)
	}
	scoringJSON, err := marshalScoring(rec.Scoring)
	if err != nil {
		return fmt.Errorf("write check: %w", err)
	}
	resultJSON, err := marshalResult(rec.Result)
	if err != nil {
		return fmt.Errorf("write check: %w", err)
	}

	correct := 0
	if rec.Result.Correct {
		correct = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checks
		(id, seq, input_hash, state, rules, scoring, result, result_hash, correct, score, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Seq,
		rec.InputHash,
		marshalState(rec.State),
		rulesJSON,
		scoringJSON,
		resultJSON,
		rec.ResultHash,
		correct,
		rec.Result.Score,
		rec.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write check: %w", err)
	}
	return nil
}
