package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/etender-index/internal/types"
)

var masterColumns = []string{"run_id", "position", "tender_id", "title", "date", "amount", "buyer"}

// SaveMasterRecords stores the rows of a master table for a run, replacing earlier
// ones.
func (db *DB) SaveMasterRecords(ctx context.Context, runID uuid.UUID, master *types.Table) (int64, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM master_records WHERE run_id = $1`, runID); err != nil {
		return 0, fmt.Errorf("failed to clear master records: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"master_records"}, masterColumns, pgx.CopyFromRows(masterRows(runID, master)))
	if err != nil {
		return 0, fmt.Errorf("failed to copy master records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit master records: %w", err)
	}
	return n, nil
}

// masterRows converts master table rows to COPY rows; empty cells become NULL.
func masterRows(runID uuid.UUID, master *types.Table) [][]any {
	idx := make([]int, len(types.MasterColumns))
	for i, col := range types.MasterColumns {
		idx[i] = master.Index(col)
	}

	rows := make([][]any, master.Len())
	for r := range rows {
		row := []any{runID, r}
		for _, c := range idx {
			row = append(row, nullable(master.Cell(r, c)))
		}
		rows[r] = row
	}
	return rows
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SaveRanking stores the ranking of a run in order, replacing an earlier one.
func (db *DB) SaveRanking(ctx context.Context, runID uuid.UUID, ranking []types.RankingRow) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM ranking_rows WHERE run_id = $1`, runID)
	for i, r := range ranking {
		batch.Queue(
			`INSERT INTO ranking_rows
			 (run_id, position, ministry, total, digital, office, digital_share, paper_penalty, score)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			runID, i, r.Ministry, r.Total, r.Digital, r.Office, r.DigitalShare, r.PaperPenalty, r.Score,
		)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save ranking: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ranking: %w", err)
	}
	return nil
}

// GetRanking returns the stored ranking of a run in rank order
func (db *DB) GetRanking(ctx context.Context, runID uuid.UUID) ([]types.RankingRow, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT ministry, total, digital, office, digital_share, paper_penalty, score
		 FROM ranking_rows WHERE run_id = $1 ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get ranking: %w", err)
	}
	defer rows.Close()

	out := []types.RankingRow{}
	for rows.Next() {
		var r types.RankingRow
		if err := rows.Scan(&r.Ministry, &r.Total, &r.Digital, &r.Office, &r.DigitalShare, &r.PaperPenalty, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
