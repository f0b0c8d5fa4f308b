package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/winning-app/winning/planner"
)

// =============================================================================
// USERS & SESSIONS
// =============================================================================

func (s *Store) SaveUser(ctx context.Context, u planner.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users (id, email, display_name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name
	`
	_, err := s.db.ExecContext(ctx, query, u.ID, u.Email, nullString(u.DisplayName), formatTime(u.CreatedAt))
	return writeErr(err, "user")
}

func (s *Store) GetUser(ctx context.Context, id string) (*planner.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u planner.User
	var name sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, created_at FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Email, &name, &createdAt)
	if err != nil {
		return nil, notFound(err, "user")
	}
	u.DisplayName = name.String
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func (s *Store) GetUsers(ctx context.Context, ids []string) (map[string]planner.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]planner.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	in, args := placeholders(ids)
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, email, display_name, created_at FROM users WHERE id IN ("+in+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u planner.User
		var name sql.NullString
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Email, &name, &createdAt); err != nil {
			return nil, err
		}
		u.DisplayName = name.String
		u.CreatedAt = parseTime(createdAt)
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (s *Store) SaveSession(ctx context.Context, sess planner.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET expires_at = excluded.expires_at
	`
	_, err := s.db.ExecContext(ctx, query,
		sess.Token, sess.UserID, formatTime(sess.ExpiresAt), formatTime(sess.CreatedAt))
	return writeErr(err, "session")
}

func (s *Store) GetSession(ctx context.Context, token string) (*planner.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sess planner.Session
	var expiresAt, createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?", token,
	).Scan(&sess.Token, &sess.UserID, &expiresAt, &createdAt)
	if err != nil {
		return nil, notFound(err, "session")
	}
	sess.ExpiresAt = parseTime(expiresAt)
	sess.CreatedAt = parseTime(createdAt)
	return &sess, nil
}

// =============================================================================
// CIRCLES
// =============================================================================

// CreateCircle inserts the circle and the owner membership in one
// transaction.
func (s *Store) CreateCircle(ctx context.Context, c planner.Circle, owner planner.CircleMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO circles (id, name, created_by, created_at) VALUES (?, ?, ?, ?)",
		c.ID, c.Name, c.CreatedBy, formatTime(c.CreatedAt),
	); err != nil {
		return writeErr(err, "circle")
	}
	if err := insertMember(ctx, tx, owner); err != nil {
		return err
	}
	return tx.Commit()
}

func insertMember(ctx context.Context, db execer, m planner.CircleMember) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO circle_members (circle_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)",
		m.CircleID, m.UserID, string(m.Role), formatTime(m.JoinedAt),
	)
	return writeErr(err, "circle member")
}

func (s *Store) GetCircle(ctx context.Context, id string) (*planner.Circle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c planner.Circle
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at FROM circles WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.CreatedBy, &createdAt)
	if err != nil {
		return nil, notFound(err, "circle")
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

func (s *Store) ListMemberships(ctx context.Context, userID string) ([]planner.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT c.id, c.name, c.created_by, c.created_at, m.role, m.joined_at
		FROM circle_members m
		JOIN circles c ON c.id = m.circle_id
		WHERE m.user_id = ?
		ORDER BY m.joined_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var out []planner.Membership
	for rows.Next() {
		var m planner.Membership
		var createdAt, joinedAt, role string
		if err := rows.Scan(&m.Circle.ID, &m.Circle.Name, &m.Circle.CreatedBy, &createdAt, &role, &joinedAt); err != nil {
			return nil, err
		}
		m.Circle.CreatedAt = parseTime(createdAt)
		m.Role = planner.Role(role)
		m.JoinedAt = parseTime(joinedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) ListMembers(ctx context.Context, circleID string) ([]planner.CircleMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT circle_id, user_id, role, joined_at
		FROM circle_members
		WHERE circle_id = ?
		ORDER BY joined_at ASC, user_id ASC
	`, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var out []planner.CircleMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetMember(ctx context.Context, circleID, userID string) (*planner.CircleMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT circle_id, user_id, role, joined_at FROM circle_members WHERE circle_id = ? AND user_id = ?",
		circleID, userID)
	m, err := scanMember(row)
	if err != nil {
		return nil, notFound(err, "circle member")
	}
	return &m, nil
}

func scanMember(row interface{ Scan(...any) error }) (planner.CircleMember, error) {
	var m planner.CircleMember
	var role, joinedAt string
	if err := row.Scan(&m.CircleID, &m.UserID, &role, &joinedAt); err != nil {
		return m, err
	}
	m.Role = planner.Role(role)
	m.JoinedAt = parseTime(joinedAt)
	return m, nil
}

func (s *Store) SharesCircle(ctx context.Context, userA, userB string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM circle_members a
		JOIN circle_members b ON a.circle_id = b.circle_id
		WHERE a.user_id = ? AND b.user_id = ?
	`, userA, userB).Scan(&count)
	return count > 0, err
}

// =============================================================================
// INVITES
// =============================================================================

func (s *Store) SaveInvite(ctx context.Context, inv planner.CircleInvite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO circle_invites (token, circle_id, inviter_id, role, expires_at, used_by, used_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, inv.Token, inv.CircleID, inv.InviterID, string(inv.Role), formatTime(inv.ExpiresAt),
		nullString(inv.UsedBy), nullTime(inv.UsedAt), formatTime(inv.CreatedAt))
	return writeErr(err, "invite")
}

func (s *Store) GetInvite(ctx context.Context, token string) (*planner.CircleInvite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, err := getInvite(ctx, s.db, token)
	if err != nil {
		return nil, notFound(err, "invite")
	}
	return inv, nil
}

func getInvite(ctx context.Context, db queryer, token string) (*planner.CircleInvite, error) {
	var inv planner.CircleInvite
	var role, expiresAt, createdAt string
	var usedBy, usedAt sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT token, circle_id, inviter_id, role, expires_at, used_by, used_at, created_at
		FROM circle_invites WHERE token = ?
	`, token).Scan(&inv.Token, &inv.CircleID, &inv.InviterID, &role, &expiresAt, &usedBy, &usedAt, &createdAt)
	if err != nil {
		return nil, err
	}
	inv.Role = planner.Role(role)
	inv.ExpiresAt = parseTime(expiresAt)
	inv.UsedBy = usedBy.String
	inv.UsedAt = parseNullTime(usedAt)
	inv.CreatedAt = parseTime(createdAt)
	return &inv, nil
}

// AcceptInvite validates and consumes the invite and adds the membership
// in one transaction.
func (s *Store) AcceptInvite(ctx context.Context, token, userID string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inv, err := getInvite(ctx, tx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", planner.ErrInviteInvalid
	}
	if err != nil {
		return "", fmt.Errorf("failed to load invite: %w", err)
	}
	if !inv.Usable(now) {
		return "", planner.ErrInviteInvalid
	}

	var existing int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM circle_members WHERE circle_id = ? AND user_id = ?",
		inv.CircleID, userID,
	).Scan(&existing); err != nil {
		return "", fmt.Errorf("failed to check membership: %w", err)
	}
	if existing == 0 {
		if err := insertMember(ctx, tx, planner.CircleMember{
			CircleID: inv.CircleID,
			UserID:   userID,
			Role:     inv.Role,
			JoinedAt: now,
		}); err != nil {
			return "", err
		}
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE circle_invites SET used_by = ?, used_at = ? WHERE token = ? AND used_at IS NULL",
		userID, formatTime(now), token)
	if err != nil {
		return "", fmt.Errorf("failed to mark invite used: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return "", planner.ErrInviteInvalid
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit invite: %w", err)
	}
	return inv.CircleID, nil
}

// =============================================================================
// WINS
// =============================================================================

func (s *Store) SaveWin(ctx context.Context, w planner.Win) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := w.Source
	if source == "" {
		source = planner.SourceManual
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wins (id, user_id, circle_id, title, description, source, task_id, goal_id, milestone_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description
	`, w.ID, w.UserID, nullString(w.CircleID), w.Title, nullString(w.Description), string(source),
		nullString(w.TaskID), nullString(w.GoalID), nullString(w.MilestoneID), formatTime(w.CreatedAt))
	return writeErr(err, "win")
}

const winColumns = `
	w.id, w.user_id, w.circle_id, w.title, w.description, w.source,
	w.task_id, w.goal_id, w.milestone_id, w.created_at,
	g.title, m.title
`

const winFrom = `
	FROM wins w
	LEFT JOIN goals g ON g.id = w.goal_id
	LEFT JOIN milestones m ON m.id = w.milestone_id
`

func (s *Store) GetWin(ctx context.Context, id string) (*planner.Win, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+winColumns+winFrom+" WHERE w.id = ?", id)
	w, err := scanWin(row)
	if err != nil {
		return nil, notFound(err, "win")
	}
	return &w, nil
}

func (s *Store) ListWins(ctx context.Context, userIDs []string) ([]planner.Win, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(userIDs) == 0 {
		return nil, nil
	}
	in, args := placeholders(userIDs)
	query := "SELECT " + winColumns + winFrom + `
		WHERE w.user_id IN (` + in + `) AND w.circle_id IS NULL
		ORDER BY w.created_at DESC, w.id DESC`
	return s.queryWins(ctx, query, args...)
}

func (s *Store) queryWins(ctx context.Context, query string, args ...any) ([]planner.Win, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query wins: %w", err)
	}
	defer rows.Close()

	var wins []planner.Win
	for rows.Next() {
		w, err := scanWin(rows)
		if err != nil {
			return nil, err
		}
		wins = append(wins, w)
	}
	return wins, rows.Err()
}

func scanWin(row interface{ Scan(...any) error }) (planner.Win, error) {
	var w planner.Win
	var circleID, desc, taskID, goalID, milestoneID, goalTitle, milestoneTitle sql.NullString
	var source, createdAt string
	if err := row.Scan(
		&w.ID, &w.UserID, &circleID, &w.Title, &desc, &source,
		&taskID, &goalID, &milestoneID, &createdAt,
		&goalTitle, &milestoneTitle,
	); err != nil {
		return w, err
	}
	w.CircleID = circleID.String
	w.Description = desc.String
	w.Source = planner.WinSource(source)
	w.TaskID = taskID.String
	w.GoalID = goalID.String
	w.MilestoneID = milestoneID.String
	w.CreatedAt = parseTime(createdAt)
	w.GoalTitle = goalTitle.String
	w.MilestoneTitle = milestoneTitle.String
	return w, nil
}

func (s *Store) DeleteWin(ctx context.Context, id string) error {
	return s.deleteWins(ctx, "DELETE FROM wins WHERE id = ?", id)
}

func (s *Store) DeleteWinsByTask(ctx context.Context, taskID string) error {
	return s.deleteWins(ctx, "DELETE FROM wins WHERE task_id = ? AND source = 'task'", taskID)
}

func (s *Store) DeleteWinsByGoal(ctx context.Context, goalID string) error {
	return s.deleteWins(ctx, "DELETE FROM wins WHERE goal_id = ? AND source = 'goal'", goalID)
}

func (s *Store) DeleteWinsByMilestone(ctx context.Context, milestoneID string) error {
	return s.deleteWins(ctx, "DELETE FROM wins WHERE milestone_id = ? AND source = 'milestone'", milestoneID)
}

func (s *Store) deleteWins(ctx context.Context, query, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete wins: %w", err)
	}
	return nil
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// LoadWinSources reads everything a win reconciliation sweep compares.
func (s *Store) LoadWinSources(ctx context.Context) (*planner.WinSources, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := &planner.WinSources{
		GoalOwner: make(map[string]string),
		GoalTitle: make(map[string]string),
	}

	tasks, err := s.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE status = 'done' AND type IN ('task', 'week') AND circle_id IS NULL")
	if err != nil {
		return nil, err
	}
	src.DoneTasks = tasks

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+milestoneColumns+`, g.user_id, g.title
		FROM milestones m
		JOIN goals g ON g.id = m.goal_id
		WHERE m.completed = TRUE
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}
	for rows.Next() {
		var owner, title string
		m, err := scanMilestone(rows, &owner, &title)
		if err != nil {
			rows.Close()
			return nil, err
		}
		src.CompletedMilestones = append(src.CompletedMilestones, m)
		src.GoalOwner[m.GoalID] = owner
		src.GoalTitle[m.GoalID] = title
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	goals, err := s.db.QueryContext(ctx, "SELECT "+goalColumns+" FROM goals WHERE completed = TRUE AND circle_id IS NULL")
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	for goals.Next() {
		g, err := scanGoal(goals)
		if err != nil {
			goals.Close()
			return nil, err
		}
		src.CompletedGoals = append(src.CompletedGoals, g)
	}
	if err := goals.Close(); err != nil {
		return nil, err
	}

	src.Wins, err = s.queryWins(ctx, "SELECT "+winColumns+winFrom+
		" WHERE w.source IN ('task', 'milestone', 'goal') ORDER BY w.created_at ASC, w.id ASC")
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (s *Store) SaveReconciliationRun(ctx context.Context, r planner.ReconciliationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO reconciliation_runs (id, status, created, removed, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			created = excluded.created,
			removed = excluded.removed,
			error = excluded.error,
			completed_at = excluded.completed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Status, r.Created, r.Removed, nullString(r.Error),
		formatTime(r.StartedAt), nullTime(r.CompletedAt))
	return writeErr(err, "reconciliation run")
}

func (s *Store) ListReconciliationRuns(ctx context.Context, limit int) ([]planner.ReconciliationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, created, removed, error, started_at, completed_at
		FROM reconciliation_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconciliation runs: %w", err)
	}
	defer rows.Close()

	var runs []planner.ReconciliationRun
	for rows.Next() {
		var r planner.ReconciliationRun
		var errText, completedAt sql.NullString
		var startedAt string
		if err := rows.Scan(&r.ID, &r.Status, &r.Created, &r.Removed, &errText, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		r.Error = errText.String
		r.StartedAt = parseTime(startedAt)
		r.CompletedAt = parseNullTime(completedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
