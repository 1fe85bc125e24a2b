package server

import (
	"context"

	"github.com/vvidal/powuno/internal/db"
)

// Outcome is one authenticated participant's result in a finished game.
// Seats without a bound user ID are never reported.
type Outcome struct {
	UserID string
	DidWin bool
}

// OutcomeReporter receives game results. Reporting is best-effort: failures
// are logged by the caller and never affect room cleanup.
type OutcomeReporter interface {
	ReportOutcomes(ctx context.Context, roomCode string, outcomes []Outcome) error
}

// NoopReporter discards outcomes.
type NoopReporter struct{}

func (NoopReporter) ReportOutcomes(context.Context, string, []Outcome) error { return nil }

// DBReporter persists outcomes to the local sqlite store.
type DBReporter struct {
	db *db.DB
}

func NewDBReporter(database *db.DB) *DBReporter {
	return &DBReporter{db: database}
}

func (r *DBReporter) ReportOutcomes(ctx context.Context, roomCode string, outcomes []Outcome) error {
	results := make([]db.MatchResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = db.MatchResult{UserID: o.UserID, DidWin: o.DidWin}
	}
	return r.db.RecordMatch(ctx, roomCode, results)
}
