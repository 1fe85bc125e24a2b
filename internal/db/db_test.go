package db

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestRecordMatchTallies(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	err := database.RecordMatch(ctx, "ABC123", []MatchResult{
		{UserID: "u1", DidWin: true},
		{UserID: "u2", DidWin: false},
	})
	if err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}
	err = database.RecordMatch(ctx, "XYZ789", []MatchResult{
		{UserID: "u1", DidWin: false},
		{UserID: "u2", DidWin: false},
		{UserID: "u3", DidWin: true},
	})
	if err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}

	tests := []struct {
		userID string
		wins   int
		losses int
	}{
		{"u1", 1, 1},
		{"u2", 0, 2},
		{"u3", 1, 0},
		{"stranger", 0, 0},
	}
	for _, tc := range tests {
		st, err := database.GetPlayerStats(ctx, tc.userID)
		if err != nil {
			t.Fatalf("GetPlayerStats(%s): %v", tc.userID, err)
		}
		if st.Wins != tc.wins || st.Losses != tc.losses {
			t.Errorf("%s stats = %d/%d, want %d/%d",
				tc.userID, st.Wins, st.Losses, tc.wins, tc.losses)
		}
	}
}

func TestRecordMatchAtomicity(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	// Duplicate user in one match violates the results primary key; the
	// whole match must roll back, tallies included.
	err := database.RecordMatch(ctx, "DUP000", []MatchResult{
		{UserID: "u1", DidWin: true},
		{UserID: "u1", DidWin: false},
	})
	if err == nil {
		t.Fatal("duplicate result insert succeeded")
	}

	st, err := database.GetPlayerStats(ctx, "u1")
	if err != nil {
		t.Fatalf("GetPlayerStats: %v", err)
	}
	if st.Wins != 0 || st.Losses != 0 {
		t.Errorf("stats after rollback = %d/%d, want 0/0", st.Wins, st.Losses)
	}
}
