package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/winning-app/winning/planner"
)

// =============================================================================
// GOALS
// =============================================================================

func (s *Store) SaveGoal(ctx context.Context, g planner.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO goals
		(id, user_id, circle_id, title, description, horizon, deadline, why,
		 action_plan, strategy_notes, completed, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			horizon = excluded.horizon,
			deadline = excluded.deadline,
			why = excluded.why,
			action_plan = excluded.action_plan,
			strategy_notes = excluded.strategy_notes,
			completed = excluded.completed,
			completed_at = excluded.completed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		g.ID, g.UserID, nullString(g.CircleID), g.Title, nullString(g.Description),
		string(g.Horizon), nullString(g.Deadline), nullString(g.Why),
		nullString(g.ActionPlan), nullString(g.StrategyNotes),
		g.Completed, nullTime(g.CompletedAt), formatTime(g.CreatedAt),
	)
	return writeErr(err, "goal")
}

const goalColumns = `
	id, user_id, circle_id, title, description, horizon, deadline, why,
	action_plan, strategy_notes, completed, completed_at, created_at
`

func (s *Store) GetGoal(ctx context.Context, id string) (*planner.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, err := scanGoal(s.db.QueryRowContext(ctx, "SELECT "+goalColumns+" FROM goals WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "goal")
	}
	milestones, err := s.milestonesFor(ctx, []string{g.ID})
	if err != nil {
		return nil, err
	}
	g.Milestones = milestones[g.ID]
	return &g, nil
}

func (s *Store) ListGoals(ctx context.Context, userIDs []string) ([]planner.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(userIDs) == 0 {
		return nil, nil
	}
	in, args := placeholders(userIDs)
	rows, err := s.db.QueryContext(ctx, "SELECT "+goalColumns+` FROM goals
		WHERE user_id IN (`+in+`) AND circle_id IS NULL
		ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}

	var goals []planner.Goal
	var ids []string
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		goals = append(goals, g)
		ids = append(ids, g.ID)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return goals, nil
	}

	milestones, err := s.milestonesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range goals {
		goals[i].Milestones = milestones[goals[i].ID]
	}
	return goals, nil
}

func scanGoal(row interface{ Scan(...any) error }) (planner.Goal, error) {
	var g planner.Goal
	var circleID, desc, deadline, why, plan, notes, completedAt sql.NullString
	var horizon, createdAt string
	if err := row.Scan(
		&g.ID, &g.UserID, &circleID, &g.Title, &desc, &horizon, &deadline, &why,
		&plan, &notes, &g.Completed, &completedAt, &createdAt,
	); err != nil {
		return g, err
	}
	g.CircleID = circleID.String
	g.Description = desc.String
	g.Horizon = planner.Horizon(horizon)
	g.Deadline = deadline.String
	g.Why = why.String
	g.ActionPlan = plan.String
	g.StrategyNotes = notes.String
	g.CompletedAt = parseNullTime(completedAt)
	g.CreatedAt = parseTime(createdAt)
	g.Milestones = []planner.Milestone{}
	return g, nil
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM goals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

// =============================================================================
// MILESTONES
// =============================================================================

func (s *Store) SaveMilestone(ctx context.Context, m planner.Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO milestones (id, goal_id, title, description, due_week, completed, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			due_week = excluded.due_week,
			completed = excluded.completed,
			completed_at = excluded.completed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.GoalID, m.Title, nullString(m.Description), nullString(m.DueWeek),
		m.Completed, nullTime(m.CompletedAt), formatTime(m.CreatedAt))
	return writeErr(err, "milestone")
}

const milestoneColumns = `
	m.id, m.goal_id, m.title, m.description, m.due_week, m.completed, m.completed_at, m.created_at
`

func (s *Store) GetMilestone(ctx context.Context, id string) (*planner.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := scanMilestone(s.db.QueryRowContext(ctx,
		"SELECT "+milestoneColumns+" FROM milestones m WHERE m.id = ?", id))
	if err != nil {
		return nil, notFound(err, "milestone")
	}
	return &m, nil
}

func (s *Store) DeleteMilestone(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM milestones WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	return nil
}

// milestonesFor loads milestones of several goals, oldest first.
// Callers hold the lock.
func (s *Store) milestonesFor(ctx context.Context, goalIDs []string) (map[string][]planner.Milestone, error) {
	in, args := placeholders(goalIDs)
	rows, err := s.db.QueryContext(ctx, "SELECT "+milestoneColumns+` FROM milestones m
		WHERE m.goal_id IN (`+in+`)
		ORDER BY m.created_at ASC, m.id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]planner.Milestone, len(goalIDs))
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		out[m.GoalID] = append(out[m.GoalID], m)
	}
	return out, rows.Err()
}

// scanMilestone scans milestoneColumns followed by any extra columns.
func scanMilestone(row interface{ Scan(...any) error }, extra ...any) (planner.Milestone, error) {
	var m planner.Milestone
	var desc, dueWeek, completedAt sql.NullString
	var createdAt string
	dest := append([]any{
		&m.ID, &m.GoalID, &m.Title, &desc, &dueWeek, &m.Completed, &completedAt, &createdAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return m, err
	}
	m.Description = desc.String
	m.DueWeek = dueWeek.String
	m.CompletedAt = parseNullTime(completedAt)
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}

// =============================================================================
// HABITS
// =============================================================================

func (s *Store) SaveHabit(ctx context.Context, h planner.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO habits (id, user_id, circle_id, month_year, name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`
	_, err := s.db.ExecContext(ctx, query,
		h.ID, h.UserID, nullString(h.CircleID), h.MonthYear, h.Name, formatTime(h.CreatedAt))
	return writeErr(err, "habit")
}

const habitColumns = "id, user_id, circle_id, month_year, name, created_at"

func (s *Store) GetHabit(ctx context.Context, id string) (*planner.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, err := scanHabit(s.db.QueryRowContext(ctx, "SELECT "+habitColumns+" FROM habits WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "habit")
	}
	checks, err := s.checksFor(ctx, []string{h.ID})
	if err != nil {
		return nil, err
	}
	h.Checks = checks[h.ID]
	return &h, nil
}

func (s *Store) ListHabits(ctx context.Context, userIDs []string, monthYear string) ([]planner.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(userIDs) == 0 {
		return nil, nil
	}
	in, args := placeholders(userIDs)
	args = append(args, monthYear)
	rows, err := s.db.QueryContext(ctx, "SELECT "+habitColumns+` FROM habits
		WHERE user_id IN (`+in+`) AND circle_id IS NULL AND month_year = ?
		ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}

	var habits []planner.Habit
	var ids []string
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		habits = append(habits, h)
		ids = append(ids, h.ID)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		return habits, nil
	}

	checks, err := s.checksFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range habits {
		habits[i].Checks = checks[habits[i].ID]
	}
	return habits, nil
}

func scanHabit(row interface{ Scan(...any) error }) (planner.Habit, error) {
	var h planner.Habit
	var circleID sql.NullString
	var createdAt string
	if err := row.Scan(&h.ID, &h.UserID, &circleID, &h.MonthYear, &h.Name, &createdAt); err != nil {
		return h, err
	}
	h.CircleID = circleID.String
	h.CreatedAt = parseTime(createdAt)
	h.Checks = []planner.HabitCheck{}
	return h, nil
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM habits WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	return nil
}

// InsertHabitCheck adds a check; an existing (habit, date) row yields
// planner.ErrDuplicate.
func (s *Store) InsertHabitCheck(ctx context.Context, c planner.HabitCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO habit_checks (id, habit_id, date, completed, created_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.HabitID, c.Date, c.Completed, formatTime(c.CreatedAt))
	return writeErr(err, "habit check")
}

func (s *Store) UpdateHabitCheck(ctx context.Context, habitID, date string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE habit_checks SET completed = ? WHERE habit_id = ? AND date = ?",
		completed, habitID, date)
	if err != nil {
		return fmt.Errorf("failed to update habit check: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("habit check: %w", planner.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteHabitCheck(ctx context.Context, habitID, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM habit_checks WHERE habit_id = ? AND date = ?", habitID, date); err != nil {
		return fmt.Errorf("failed to delete habit check: %w", err)
	}
	return nil
}

func (s *Store) ListHabitChecks(ctx context.Context, habitID, from, to string) ([]planner.HabitCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, habit_id, date, completed, created_at FROM habit_checks
		WHERE habit_id = ? AND date >= ? AND date <= ? AND completed = TRUE
		ORDER BY date ASC
	`, habitID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query habit checks: %w", err)
	}
	defer rows.Close()

	var checks []planner.HabitCheck
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// checksFor loads checks of several habits. Callers hold the lock.
func (s *Store) checksFor(ctx context.Context, habitIDs []string) (map[string][]planner.HabitCheck, error) {
	in, args := placeholders(habitIDs)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, habit_id, date, completed, created_at FROM habit_checks
		WHERE habit_id IN (`+in+`)
		ORDER BY date ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query habit checks: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]planner.HabitCheck, len(habitIDs))
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		out[c.HabitID] = append(out[c.HabitID], c)
	}
	return out, rows.Err()
}

func scanCheck(rows *sql.Rows) (planner.HabitCheck, error) {
	var c planner.HabitCheck
	var createdAt string
	if err := rows.Scan(&c.ID, &c.HabitID, &c.Date, &c.Completed, &createdAt); err != nil {
		return c, err
	}
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

// =============================================================================
// ROUTINES
// =============================================================================

func (s *Store) SaveRoutine(ctx context.Context, r planner.Routine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := r.Steps
	if steps == nil {
		steps = []planner.RoutineStep{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("failed to encode routine steps: %w", err)
	}

	query := `
		INSERT INTO routines (id, user_id, circle_id, type, steps_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			steps_json = excluded.steps_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.UserID, nullString(r.CircleID), string(r.Type), string(stepsJSON),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
	return writeErr(err, "routine")
}

const routineColumns = "id, user_id, circle_id, type, steps_json, created_at, updated_at"

func (s *Store) GetRoutine(ctx context.Context, userID string, t planner.RoutineType) (*planner.Routine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := scanRoutine(s.db.QueryRowContext(ctx,
		"SELECT "+routineColumns+" FROM routines WHERE user_id = ? AND type = ? AND circle_id IS NULL",
		userID, string(t)))
	if err != nil {
		return nil, notFound(err, "routine")
	}
	return &r, nil
}

func (s *Store) ListRoutines(ctx context.Context, userIDs []string) ([]planner.Routine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(userIDs) == 0 {
		return nil, nil
	}
	in, args := placeholders(userIDs)
	rows, err := s.db.QueryContext(ctx, "SELECT "+routineColumns+` FROM routines
		WHERE user_id IN (`+in+`) AND circle_id IS NULL
		ORDER BY user_id, type DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query routines: %w", err)
	}
	defer rows.Close()

	var out []planner.Routine
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRoutine(row interface{ Scan(...any) error }) (planner.Routine, error) {
	var r planner.Routine
	var circleID sql.NullString
	var typ, stepsJSON, createdAt, updatedAt string
	if err := row.Scan(&r.ID, &r.UserID, &circleID, &typ, &stepsJSON, &createdAt, &updatedAt); err != nil {
		return r, err
	}
	r.CircleID = circleID.String
	r.Type = planner.RoutineType(typ)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	if err := json.Unmarshal([]byte(stepsJSON), &r.Steps); err != nil {
		return r, fmt.Errorf("failed to decode routine steps: %w", err)
	}
	if r.Steps == nil {
		r.Steps = []planner.RoutineStep{}
	}
	for i := range r.Steps {
		if r.Steps[i].CompletedDates == nil {
			r.Steps[i].CompletedDates = []string{}
		}
	}
	return r, nil
}

// =============================================================================
// TASKS
// =============================================================================

func (s *Store) SaveTask(ctx context.Context, t planner.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := t.Status
	if status == "" {
		status = planner.StatusPlanned
	}
	query := `
		INSERT INTO tasks
		(id, user_id, circle_id, type, title, description, date, time, priority,
		 status, linked_goal_id, linked_milestone_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			date = excluded.date,
			time = excluded.time,
			priority = excluded.priority,
			status = excluded.status,
			linked_goal_id = excluded.linked_goal_id,
			linked_milestone_id = excluded.linked_milestone_id
	`
	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.UserID, nullString(t.CircleID), string(t.Kind), t.Title, nullString(t.Description),
		nullString(t.Date), nullString(t.Time), nullString(string(t.Priority)), string(status),
		nullString(t.LinkedGoalID), nullString(t.LinkedMilestoneID), formatTime(t.CreatedAt))
	return writeErr(err, "task")
}

const taskColumns = `
	id, user_id, circle_id, type, title, description, date, time, priority,
	status, linked_goal_id, linked_milestone_id, created_at
`

func (s *Store) GetTask(ctx context.Context, id string) (*planner.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := scanTask(s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "task")
	}
	return &t, nil
}

func (s *Store) GetPriority(ctx context.Context, userID, date string) (*planner.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := scanTask(s.db.QueryRowContext(ctx, "SELECT "+taskColumns+` FROM tasks
		WHERE user_id = ? AND date = ? AND type = 'priority' AND circle_id IS NULL`, userID, date))
	if err != nil {
		return nil, notFound(err, "priority")
	}
	return &t, nil
}

// ListTasks returns personal tasks matching f, ordered by date then
// creation.
func (s *Store) ListTasks(ctx context.Context, f planner.TaskFilter) ([]planner.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where := []string{"circle_id IS NULL"}
	var args []any
	if len(f.UserIDs) > 0 {
		in, a := placeholders(f.UserIDs)
		where = append(where, "user_id IN ("+in+")")
		args = append(args, a...)
	}
	if len(f.Kinds) > 0 {
		kinds := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			kinds[i] = string(k)
		}
		in, a := placeholders(kinds)
		where = append(where, "type IN ("+in+")")
		args = append(args, a...)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		in, a := placeholders(statuses)
		where = append(where, "status IN ("+in+")")
		args = append(args, a...)
	}
	if f.From != "" {
		where = append(where, "date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		where = append(where, "date <= ?")
		args = append(args, f.To)
	}

	query := "SELECT " + taskColumns + " FROM tasks WHERE " + strings.Join(where, " AND ") +
		" ORDER BY date ASC, created_at ASC, id ASC"
	return s.queryTasks(ctx, query, args...)
}

// queryTasks runs a task query. Callers hold the lock.
func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]planner.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []planner.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row interface{ Scan(...any) error }) (planner.Task, error) {
	var t planner.Task
	var circleID, desc, date, tm, priority, goalID, milestoneID sql.NullString
	var kind, status, createdAt string
	if err := row.Scan(
		&t.ID, &t.UserID, &circleID, &kind, &t.Title, &desc, &date, &tm, &priority,
		&status, &goalID, &milestoneID, &createdAt,
	); err != nil {
		return t, err
	}
	t.CircleID = circleID.String
	t.Kind = planner.TaskKind(kind)
	t.Description = desc.String
	t.Date = date.String
	t.Time = tm.String
	t.Priority = planner.Priority(priority.String)
	t.Status, _ = planner.ParseStatus(status)
	t.LinkedGoalID = goalID.String
	t.LinkedMilestoneID = milestoneID.String
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// =============================================================================
// DAY & MONTH NOTES
// =============================================================================

func (s *Store) SaveDayNotes(ctx context.Context, n planner.DayNotes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO day_notes (user_id, date, schedule, notes, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			schedule = excluded.schedule,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		n.UserID, n.Date, nullString(n.Schedule), nullString(n.Notes), formatTime(n.UpdatedAt))
	return writeErr(err, "day notes")
}

func (s *Store) GetDayNotes(ctx context.Context, userID, date string) (*planner.DayNotes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := scanDayNotes(s.db.QueryRowContext(ctx,
		"SELECT user_id, date, schedule, notes, updated_at FROM day_notes WHERE user_id = ? AND date = ?",
		userID, date))
	if err != nil {
		return nil, notFound(err, "day notes")
	}
	return &n, nil
}

func (s *Store) ListDayNotes(ctx context.Context, userIDs []string, date string) ([]planner.DayNotes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(userIDs) == 0 {
		return nil, nil
	}
	in, args := placeholders(userIDs)
	args = append(args, date)
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, date, schedule, notes, updated_at FROM day_notes
		WHERE user_id IN (`+in+`) AND circle_id IS NULL AND date = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query day notes: %w", err)
	}
	defer rows.Close()

	var out []planner.DayNotes
	for rows.Next() {
		n, err := scanDayNotes(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanDayNotes(row interface{ Scan(...any) error }) (planner.DayNotes, error) {
	var n planner.DayNotes
	var schedule, notes sql.NullString
	var updatedAt string
	if err := row.Scan(&n.UserID, &n.Date, &schedule, &notes, &updatedAt); err != nil {
		return n, err
	}
	n.Schedule = schedule.String
	n.Notes = notes.String
	n.UpdatedAt = parseTime(updatedAt)
	return n, nil
}

func (s *Store) SaveMonthNotes(ctx context.Context, n planner.MonthNotes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO month_notes (user_id, month_year, goals, review, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, month_year) DO UPDATE SET
			goals = excluded.goals,
			review = excluded.review,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		n.UserID, n.MonthYear, nullString(n.Goals), nullString(n.Review), formatTime(n.UpdatedAt))
	return writeErr(err, "month notes")
}

func (s *Store) GetMonthNotes(ctx context.Context, userID, monthYear string) (*planner.MonthNotes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n planner.MonthNotes
	var goals, review sql.NullString
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, month_year, goals, review, updated_at FROM month_notes WHERE user_id = ? AND month_year = ?",
		userID, monthYear,
	).Scan(&n.UserID, &n.MonthYear, &goals, &review, &updatedAt)
	if err != nil {
		return nil, notFound(err, "month notes")
	}
	n.Goals = goals.String
	n.Review = review.String
	n.UpdatedAt = parseTime(updatedAt)
	return &n, nil
}

// =============================================================================
// WEEK REVIEWS
// =============================================================================

// SaveWeekReview upserts a review. TopOutcomesList, when set, is stored
// as a JSON array; otherwise TopOutcomes is stored as written.
func (s *Store) SaveWeekReview(ctx context.Context, r planner.WeekReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	topOutcomes := nullString(r.TopOutcomes)
	if r.TopOutcomesList != nil {
		encoded, err := json.Marshal(r.TopOutcomesList)
		if err != nil {
			return fmt.Errorf("failed to encode top outcomes: %w", err)
		}
		topOutcomes = sql.NullString{String: string(encoded), Valid: true}
	}

	query := `
		INSERT INTO reviews
		(user_id, week_start, achievements, lessons, reflections, next_focus, top_outcomes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, week_start) DO UPDATE SET
			achievements = excluded.achievements,
			lessons = excluded.lessons,
			reflections = excluded.reflections,
			next_focus = excluded.next_focus,
			top_outcomes = excluded.top_outcomes,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		r.UserID, r.WeekStart, nullString(r.Achievements), nullString(r.Lessons),
		nullString(r.Reflections), nullString(r.NextFocus), topOutcomes, formatTime(r.UpdatedAt))
	return writeErr(err, "week review")
}

const reviewColumns = "user_id, week_start, achievements, lessons, reflections, next_focus, top_outcomes, updated_at"

func (s *Store) GetWeekReview(ctx context.Context, userID, weekStart string) (*planner.WeekReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := s.scanReview(s.db.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE user_id = ? AND week_start = ?", userID, weekStart))
	if err != nil {
		return nil, notFound(err, "week review")
	}
	return &r, nil
}

func (s *Store) ListWeekReviews(ctx context.Context, userIDs []string, weekStarts []string) ([]planner.WeekReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(userIDs) == 0 || len(weekStarts) == 0 {
		return nil, nil
	}
	users, args := placeholders(userIDs)
	weeks, weekArgs := placeholders(weekStarts)
	args = append(args, weekArgs...)
	rows, err := s.db.QueryContext(ctx, "SELECT "+reviewColumns+` FROM reviews
		WHERE user_id IN (`+users+`) AND circle_id IS NULL AND week_start IN (`+weeks+`)
		ORDER BY week_start ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query week reviews: %w", err)
	}
	defer rows.Close()

	var out []planner.WeekReview
	for rows.Next() {
		r, err := s.scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// scanReview decodes top outcomes by the store's encoding: array stores
// fill TopOutcomesList and join it into TopOutcomes.
func (s *Store) scanReview(row interface{ Scan(...any) error }) (planner.WeekReview, error) {
	var r planner.WeekReview
	var achievements, lessons, reflections, nextFocus, topOutcomes sql.NullString
	var updatedAt string
	if err := row.Scan(&r.UserID, &r.WeekStart, &achievements, &lessons, &reflections,
		&nextFocus, &topOutcomes, &updatedAt); err != nil {
		return r, err
	}
	r.Achievements = achievements.String
	r.Lessons = lessons.String
	r.Reflections = reflections.String
	r.NextFocus = nextFocus.String
	r.TopOutcomes = topOutcomes.String
	r.UpdatedAt = parseTime(updatedAt)

	if s.opts.topOutcomesArray && topOutcomes.Valid {
		var list []string
		if err := json.Unmarshal([]byte(topOutcomes.String), &list); err == nil {
			r.TopOutcomesList = list
			r.TopOutcomes = strings.Join(list, "\n")
		}
	}
	return r, nil
}
