/*
store.go - Persistence interfaces for the planner

PURPOSE:
  Defines the boundary between planner operations and the database.
  Every method takes the request context so a departed client cancels
  the query.

SCOPE:
  All list queries read personal rows only (circle_id IS NULL). Circle
  views are the same queries over the member ids of the circle, issued
  once per table with user_id IN (...).

UNIQUENESS:
  Stores return ErrDuplicate when a unique index rejects a write:
  - habit_checks(habit_id, date)
  - tasks(user_id, date) WHERE type = 'priority'
  - circle_members(circle_id, user_id)

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go

SEE ALSO:
  - service.go: operations built on Store
*/
package planner

import (
	"context"
	"time"
)

// =============================================================================
// USERS & SESSIONS
// =============================================================================

type UserStore interface {
	SaveUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (*User, error)
	// GetUsers returns the known users among ids, keyed by id.
	GetUsers(ctx context.Context, ids []string) (map[string]User, error)

	SaveSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, token string) (*Session, error)
}

// =============================================================================
// CIRCLES
// =============================================================================

type CircleStore interface {
	// CreateCircle writes the circle and its owner membership atomically.
	CreateCircle(ctx context.Context, c Circle, owner CircleMember) error
	GetCircle(ctx context.Context, id string) (*Circle, error)
	ListMemberships(ctx context.Context, userID string) ([]Membership, error)
	ListMembers(ctx context.Context, circleID string) ([]CircleMember, error)
	GetMember(ctx context.Context, circleID, userID string) (*CircleMember, error)
	SharesCircle(ctx context.Context, userA, userB string) (bool, error)

	SaveInvite(ctx context.Context, inv CircleInvite) error
	GetInvite(ctx context.Context, token string) (*CircleInvite, error)
	// AcceptInvite redeems token for userID in one transaction. Unknown,
	// expired or used tokens return ErrInviteInvalid and write nothing.
	AcceptInvite(ctx context.Context, token, userID string, now time.Time) (string, error)
}

// =============================================================================
// GOALS
// =============================================================================

type GoalStore interface {
	SaveGoal(ctx context.Context, g Goal) error
	// GetGoal returns the goal with its milestones.
	GetGoal(ctx context.Context, id string) (*Goal, error)
	// ListGoals returns personal goals of userIDs, newest first, with milestones.
	ListGoals(ctx context.Context, userIDs []string) ([]Goal, error)
	DeleteGoal(ctx context.Context, id string) error

	SaveMilestone(ctx context.Context, m Milestone) error
	GetMilestone(ctx context.Context, id string) (*Milestone, error)
	DeleteMilestone(ctx context.Context, id string) error
}

// =============================================================================
// HABITS
// =============================================================================

type HabitStore interface {
	SaveHabit(ctx context.Context, h Habit) error
	GetHabit(ctx context.Context, id string) (*Habit, error)
	// ListHabits returns personal habits of userIDs for a month, with checks.
	ListHabits(ctx context.Context, userIDs []string, monthYear string) ([]Habit, error)
	DeleteHabit(ctx context.Context, id string) error

	// InsertHabitCheck returns ErrDuplicate when (habit, date) exists.
	InsertHabitCheck(ctx context.Context, c HabitCheck) error
	UpdateHabitCheck(ctx context.Context, habitID, date string, completed bool) error
	DeleteHabitCheck(ctx context.Context, habitID, date string) error
	// ListHabitChecks returns completed checks of a habit in [from, to].
	ListHabitChecks(ctx context.Context, habitID, from, to string) ([]HabitCheck, error)
}

// =============================================================================
// ROUTINES
// =============================================================================

type RoutineStore interface {
	SaveRoutine(ctx context.Context, r Routine) error
	GetRoutine(ctx context.Context, userID string, t RoutineType) (*Routine, error)
	ListRoutines(ctx context.Context, userIDs []string) ([]Routine, error)
}

// =============================================================================
// TASKS
// =============================================================================

// TaskFilter selects personal tasks. Empty fields match everything.
// From and To are inclusive date keys.
type TaskFilter struct {
	UserIDs  []string
	Kinds    []TaskKind
	Statuses []TaskStatus
	From     string
	To       string
}

type TaskStore interface {
	SaveTask(ctx context.Context, t Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	// GetPriority returns the priority task of a day, or ErrNotFound.
	GetPriority(ctx context.Context, userID, date string) (*Task, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// =============================================================================
// NOTES
// =============================================================================

type NotesStore interface {
	SaveDayNotes(ctx context.Context, n DayNotes) error
	GetDayNotes(ctx context.Context, userID, date string) (*DayNotes, error)
	ListDayNotes(ctx context.Context, userIDs []string, date string) ([]DayNotes, error)

	SaveMonthNotes(ctx context.Context, n MonthNotes) error
	GetMonthNotes(ctx context.Context, userID, monthYear string) (*MonthNotes, error)

	// SaveWeekReview returns ErrMalformedArray when top outcomes are sent
	// as free text to a store that keeps them as an array.
	SaveWeekReview(ctx context.Context, r WeekReview) error
	GetWeekReview(ctx context.Context, userID, weekStart string) (*WeekReview, error)
	ListWeekReviews(ctx context.Context, userIDs []string, weekStarts []string) ([]WeekReview, error)
}

// =============================================================================
// WINS
// =============================================================================

type WinStore interface {
	SaveWin(ctx context.Context, w Win) error
	GetWin(ctx context.Context, id string) (*Win, error)
	// ListWins returns personal wins of userIDs, newest first, with
	// goal and milestone titles joined.
	ListWins(ctx context.Context, userIDs []string) ([]Win, error)
	DeleteWin(ctx context.Context, id string) error
	// The DeleteWinsBy* methods remove only wins produced by that source;
	// manual wins that merely reference a goal or milestone stay.
	DeleteWinsByTask(ctx context.Context, taskID string) error
	DeleteWinsByGoal(ctx context.Context, goalID string) error
	DeleteWinsByMilestone(ctx context.Context, milestoneID string) error
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// WinSources is the state a reconciliation sweep diffs against.
type WinSources struct {
	// DoneTasks are done tasks of kinds that earn wins.
	DoneTasks []Task
	// CompletedMilestones carry their goal's owner in GoalOwner.
	CompletedMilestones []Milestone
	GoalOwner           map[string]string
	GoalTitle           map[string]string
	CompletedGoals      []Goal
	// Wins are all wins with source task, milestone or goal.
	Wins []Win
}

type ReconcileStore interface {
	LoadWinSources(ctx context.Context) (*WinSources, error)
	SaveReconciliationRun(ctx context.Context, r ReconciliationRun) error
	ListReconciliationRuns(ctx context.Context, limit int) ([]ReconciliationRun, error)
}

// =============================================================================
// COMBINED
// =============================================================================

// Store is everything the planner persists.
type Store interface {
	UserStore
	CircleStore
	GoalStore
	HabitStore
	RoutineStore
	TaskStore
	NotesStore
	WinStore
	ReconcileStore
}
