/*
Package sqlite provides a SQLite-backed implementation of planner.Store.

PURPOSE:
  Persists users, sessions, circles, goals, habits, routines, tasks,
  notes, reviews and wins. The service layer never sees SQL; it sees
  planner types and planner sentinel errors.

KEY TABLES:
  users, sessions:           validated bearer tokens
  circles, circle_members:   groups and roles
  circle_invites:            single-use join tokens
  goals, milestones:         long-horizon planning
  habits, habit_checks:      monthly habit grid
  routines:                  morning/evening steps (JSON column)
  tasks:                     to-dos, events, priorities, week tasks
  day_notes, month_notes:    free-text planning notes
  reviews:                   weekly reviews keyed by Monday
  wins:                      achievements feed
  reconciliation_runs:       audit of win reconciliation sweeps

CONSTRAINTS:
  - idx_habit_checks_unique:    one check per (habit, date)
  - idx_tasks_priority_unique:  one priority per (user, date)
  - circle_members primary key: one membership per (circle, user)
  Violations come back as planner.ErrDuplicate.

TOP OUTCOMES ENCODING:
  reviews.top_outcomes holds free text by default. WithTopOutcomesArray
  creates the column with a top_outcomes_array CHECK that only accepts a
  JSON array, the layout of older databases. Writing free text to such a
  column fails with planner.ErrMalformedArray.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of WAL mode. Multi-row
  writes that must be atomic (circle + owner, invite redemption) run in
  one SQL transaction.

USAGE:
  store, err := sqlite.New("./data/winning.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - planner/store.go: Interface definitions
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/winning-app/winning/planner"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Store implements planner.Store using SQLite.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	opts options
}

var _ planner.Store = (*Store)(nil)

type options struct {
	topOutcomesArray bool
}

// Option configures a Store.
type Option func(*options)

// WithTopOutcomesArray stores week review top outcomes as a JSON array
// guarded by a CHECK constraint. Only applies when the reviews table is
// created.
func WithTopOutcomesArray() Option {
	return func(o *options) { o.topOutcomesArray = true }
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, opts: o}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	topOutcomes := "top_outcomes TEXT"
	if s.opts.topOutcomesArray {
		topOutcomes = `top_outcomes TEXT
			CONSTRAINT top_outcomes_array CHECK (
				top_outcomes IS NULL OR (json_valid(top_outcomes) AND json_type(top_outcomes) = 'array')
			)`
	}

	schema := `
	-- Users and sessions (issued by the auth collaborator)
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		display_name TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Circles
	CREATE TABLE IF NOT EXISTS circles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS circle_members (
		circle_id TEXT NOT NULL REFERENCES circles(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		joined_at TEXT NOT NULL,
		PRIMARY KEY (circle_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_circle_members_user
		ON circle_members(user_id);

	CREATE TABLE IF NOT EXISTS circle_invites (
		token TEXT PRIMARY KEY,
		circle_id TEXT NOT NULL REFERENCES circles(id) ON DELETE CASCADE,
		inviter_id TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		expires_at TEXT NOT NULL,
		used_by TEXT,
		used_at TEXT,
		created_at TEXT NOT NULL
	);

	-- Goals and milestones
	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		circle_id TEXT,
		title TEXT NOT NULL,
		description TEXT,
		horizon TEXT NOT NULL DEFAULT 'long-term',
		deadline TEXT,
		why TEXT,
		action_plan TEXT,
		strategy_notes TEXT,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_goals_user
		ON goals(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS milestones (
		id TEXT PRIMARY KEY,
		goal_id TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		due_week TEXT,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_milestones_goal
		ON milestones(goal_id);

	-- Habits
	CREATE TABLE IF NOT EXISTS habits (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		circle_id TEXT,
		month_year TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_habits_user_month
		ON habits(user_id, month_year);

	CREATE TABLE IF NOT EXISTS habit_checks (
		id TEXT PRIMARY KEY,
		habit_id TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_habit_checks_unique
		ON habit_checks(habit_id, date);

	-- Routines
	CREATE TABLE IF NOT EXISTS routines (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		circle_id TEXT,
		type TEXT NOT NULL,
		steps_json TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_routines_personal_unique
		ON routines(user_id, type) WHERE circle_id IS NULL;

	-- Tasks (to-dos, events, priorities, week tasks)
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		circle_id TEXT,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		date TEXT,
		time TEXT,
		priority TEXT,
		status TEXT NOT NULL DEFAULT 'planned',
		linked_goal_id TEXT,
		linked_milestone_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_user_type_date
		ON tasks(user_id, type, date);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_priority_unique
		ON tasks(user_id, date) WHERE type = 'priority' AND circle_id IS NULL;

	-- Notes
	CREATE TABLE IF NOT EXISTS day_notes (
		user_id TEXT NOT NULL,
		circle_id TEXT,
		date TEXT NOT NULL,
		schedule TEXT,
		notes TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, date)
	);

	CREATE TABLE IF NOT EXISTS month_notes (
		user_id TEXT NOT NULL,
		circle_id TEXT,
		month_year TEXT NOT NULL,
		goals TEXT,
		review TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, month_year)
	);

	CREATE TABLE IF NOT EXISTS reviews (
		user_id TEXT NOT NULL,
		circle_id TEXT,
		week_start TEXT NOT NULL,
		achievements TEXT,
		lessons TEXT,
		reflections TEXT,
		next_focus TEXT,
		` + topOutcomes + `,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, week_start)
	);

	-- Wins
	CREATE TABLE IF NOT EXISTS wins (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		circle_id TEXT,
		title TEXT NOT NULL,
		description TEXT,
		source TEXT NOT NULL DEFAULT 'manual',
		task_id TEXT,
		goal_id TEXT,
		milestone_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_wins_user_created
		ON wins(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_wins_task
		ON wins(task_id) WHERE task_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_wins_milestone
		ON wins(milestone_id) WHERE milestone_id IS NOT NULL;

	-- Reconciliation Runs (win reconciliation sweeps)
	CREATE TABLE IF NOT EXISTS reconciliation_runs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'running',
		created INTEGER NOT NULL DEFAULT 0,
		removed INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reconciliation_runs_started
		ON reconciliation_runs(started_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// UTILITY METHODS
// =============================================================================

// Reset clears all data (for demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"wins", "reconciliation_runs", "reviews", "month_notes", "day_notes",
		"tasks", "routines", "habit_checks", "habits", "milestones", "goals",
		"circle_invites", "circle_members", "circles", "sessions", "users",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

// placeholders returns "?, ?, ?" and the matching args.
func placeholders(values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", "), args
}

// notFound turns sql.ErrNoRows into planner.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, planner.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// writeErr translates driver failures into planner sentinels.
func writeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case isUniqueConstraintError(err):
		return fmt.Errorf("%s: %w", what, planner.ErrDuplicate)
	case isTopOutcomesArrayError(err):
		return fmt.Errorf("%s: %w", what, planner.ErrMalformedArray)
	}
	return fmt.Errorf("failed to save %s: %w", what, err)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

func isTopOutcomesArrayError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "top_outcomes_array")
}
