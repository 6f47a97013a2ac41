package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/db"
	"github.com/jonathan/etender-index/internal/logger"
	"github.com/jonathan/etender-index/internal/types"
)

// recorder mirrors a run into the database. Every method is a no-op without a
// connection, and failures are logged rather than returned.
type recorder struct {
	db    *db.DB
	runID uuid.UUID
	log   *logger.Logger
}

func openRecorder(ctx context.Context, cfg *config.Config, log *logger.Logger) *recorder {
	rec := &recorder{log: log}
	if cfg.DatabaseURL == "" {
		return rec
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Warn("continuing without database persistence", "error", err)
		return rec
	}
	if err := database.EnsureSchema(ctx); err != nil {
		log.Warn("continuing without database persistence", "error", err)
		database.Close()
		return rec
	}

	runID, err := database.CreateRun(ctx, cfg.Period.StartYear, cfg.Period.EndYear)
	if err != nil {
		log.Warn("continuing without database persistence", "error", err)
		database.Close()
		return rec
	}

	rec.db, rec.runID = database, runID
	log.Debug("created database run", "run_id", runID)
	return rec
}

func (r *recorder) enabled() bool {
	return r.db != nil
}

func (r *recorder) startStep(ctx context.Context, step string) {
	if !r.enabled() {
		return
	}
	if err := r.db.StartStep(ctx, r.runID, step); err != nil {
		r.log.Warn("failed to record step start", "step", step, "error", err)
	}
}

func (r *recorder) finishStep(ctx context.Context, step string, rows int, stepErr error) {
	if !r.enabled() {
		return
	}
	// record the outcome even when ctx was cancelled
	if err := r.db.FinishStep(context.WithoutCancel(ctx), r.runID, step, rows, stepErr); err != nil {
		r.log.Warn("failed to record step result", "step", step, "error", err)
	}
}

func (r *recorder) saveMaster(ctx context.Context, master *types.Table) {
	if !r.enabled() {
		return
	}
	n, err := r.db.SaveMasterRecords(ctx, r.runID, master)
	if err != nil {
		r.log.Warn("failed to store master records", "error", err)
		return
	}
	r.log.Debug("stored master records", "rows", n)
}

func (r *recorder) saveRanking(ctx context.Context, rows []types.RankingRow) {
	if !r.enabled() {
		return
	}
	if err := r.db.SaveRanking(ctx, r.runID, rows); err != nil {
		r.log.Warn("failed to store ranking", "error", err)
	}
}

func (r *recorder) complete(ctx context.Context, status string) {
	if !r.enabled() {
		return
	}
	if err := r.db.CompleteRun(context.WithoutCancel(ctx), r.runID, status); err != nil {
		r.log.Warn("failed to complete database run", "error", err)
	}
}

func (r *recorder) close() {
	if r.enabled() {
		r.db.Close()
	}
}
