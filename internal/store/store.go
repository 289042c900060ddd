// Package store implements the opaque results-store interface a match
// writes to at game-over: one row per match plus one row per participant,
// and a per-user aggregate profile read back from the same tables. The
// schema mirrors a SQLite results database table-for-table.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ParticipantResult is one seat's outcome in a finished match, as recorded
// by RecordMatch.
type ParticipantResult struct {
	UserID uint64
	Score  int64
	// Rank is 1 for the best score, ties sharing a rank. Zero means the
	// game never finished (e.g. terminated by a panic) and no ranking
	// should be recorded.
	Rank int
}

// MatchResult is everything RecordMatch persists about one finished match.
type MatchResult struct {
	GameName     string
	GroupID      uint64
	Multiple     int
	Participants []ParticipantResult
	FinishedAt   time.Time
}

// UserProfile aggregates one user's history: total matches played, total
// score across all of them, and their most recent matches.
type UserProfile struct {
	UserID      uint64
	MatchCount  int64
	ScoreSum    int64
	Recent      []RecentMatch
}

// RecentMatch is one row of a user's match history.
type RecentMatch struct {
	MatchID  int64
	GameName string
	Score    int64
	Rank     int
}

const recentMatchLimit = 10

// ResultsStore is the interface a match writes to and reads from;
// production code uses the SQLite-backed implementation below, tests can
// substitute an in-memory fake.
type ResultsStore interface {
	RecordMatch(ctx context.Context, result MatchResult) error
	GetUserProfile(ctx context.Context, userID uint64) (UserProfile, error)
	Close() error
}

// SQLiteStore implements ResultsStore over database/sql + the sqlite3
// driver, matching the original results database's table layout:
// match, user_with_match (indexed on user_id), user, and the reserved
// achievement/user_with_achievement tables.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at dsn and
// ensures its schema exists.
func Open(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dsn, err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS match (
	match_id    INTEGER PRIMARY KEY AUTOINCREMENT,
	game_name   TEXT NOT NULL,
	group_id    INTEGER NOT NULL,
	multiple    INTEGER NOT NULL,
	finish_time INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS user_with_match (
	match_id INTEGER NOT NULL,
	user_id  INTEGER NOT NULL,
	score    INTEGER NOT NULL,
	rank     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_with_match_user_id ON user_with_match (user_id);
CREATE TABLE IF NOT EXISTS user (
	user_id INTEGER PRIMARY KEY,
	name    TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS achievement (
	achievement_id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_name      TEXT NOT NULL,
	name           TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS user_with_achievement (
	user_id        INTEGER NOT NULL,
	achievement_id INTEGER NOT NULL
);
`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// RecordMatch inserts one match row and one user_with_match row per
// participant, transactionally: either the whole match's results land, or
// none of them do.
func (s *SQLiteStore) RecordMatch(ctx context.Context, result MatchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO match (game_name, group_id, multiple, finish_time) VALUES (?, ?, ?, ?)`,
		result.GameName, result.GroupID, result.Multiple, result.FinishedAt.Unix())
	if err != nil {
		return fmt.Errorf("store: insert match: %w", err)
	}
	matchID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: match id: %w", err)
	}

	for _, p := range result.Participants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_with_match (match_id, user_id, score, rank) VALUES (?, ?, ?, ?)`,
			matchID, p.UserID, p.Score, p.Rank); err != nil {
			return fmt.Errorf("store: insert participant %d: %w", p.UserID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user (user_id) VALUES (?) ON CONFLICT(user_id) DO NOTHING`,
			p.UserID); err != nil {
			return fmt.Errorf("store: upsert user %d: %w", p.UserID, err)
		}
	}

	return tx.Commit()
}

// GetUserProfile aggregates userID's full match history plus their 10 most
// recent matches, newest first.
func (s *SQLiteStore) GetUserProfile(ctx context.Context, userID uint64) (UserProfile, error) {
	profile := UserProfile{UserID: userID}

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(score), 0) FROM user_with_match WHERE user_id = ?`, userID)
	if err := row.Scan(&profile.MatchCount, &profile.ScoreSum); err != nil {
		return profile, fmt.Errorf("store: aggregate profile for %d: %w", userID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT m.match_id, m.game_name, uwm.score, uwm.rank
		 FROM user_with_match uwm JOIN match m ON m.match_id = uwm.match_id
		 WHERE uwm.user_id = ? ORDER BY m.match_id DESC LIMIT ?`,
		userID, recentMatchLimit)
	if err != nil {
		return profile, fmt.Errorf("store: recent matches for %d: %w", userID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var rm RecentMatch
		if err := rows.Scan(&rm.MatchID, &rm.GameName, &rm.Score, &rm.Rank); err != nil {
			return profile, fmt.Errorf("store: scan recent match: %w", err)
		}
		profile.Recent = append(profile.Recent, rm)
	}
	return profile, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
