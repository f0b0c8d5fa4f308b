package planner

import (
	"context"
	"strings"

	"github.com/winning-app/winning/period"
)

// TaskInput carries editable task fields shared by every kind.
type TaskInput struct {
	Title             string
	Description       string
	Date              string
	Time              string
	Priority          Priority
	LinkedGoalID      string
	LinkedMilestoneID string
}

func (in TaskInput) apply(t *Task) {
	t.Title = strings.TrimSpace(in.Title)
	t.Description = in.Description
	if in.Date != "" {
		t.Date = in.Date
	}
	t.Time = in.Time
	if in.Priority != "" {
		t.Priority = in.Priority
	}
	t.LinkedGoalID = in.LinkedGoalID
	t.LinkedMilestoneID = in.LinkedMilestoneID
}

// createTask validates and stores a freshly constructed task.
func (s *Service) createTask(ctx context.Context, t Task, in TaskInput) (*Task, error) {
	in.apply(&t)
	if err := s.checkTask(ctx, t); err != nil {
		return nil, err
	}
	t.ID = newID()
	t.CreatedAt = s.now()
	if err := s.store.SaveTask(ctx, t); err != nil {
		return nil, err
	}
	return s.store.GetTask(ctx, t.ID)
}

// UpdateTask edits a task of any kind owned by the viewer. A week task
// may move to another day of its own week only; todos, priorities and
// events can be rescheduled to any date.
func (s *Service) UpdateTask(ctx context.Context, viewerID, taskID string, in TaskInput) (*Task, error) {
	t, err := s.ownedTask(ctx, viewerID, taskID)
	if err != nil {
		return nil, err
	}
	week, err := period.WeekOf(t.Date)
	if err != nil {
		return nil, err
	}
	in.apply(t)
	if err := s.checkTask(ctx, *t); err != nil {
		return nil, err
	}
	if t.Kind == KindWeek && !week.Contains(t.Date) {
		return nil, invalid("date", "must fall between "+week.Start+" and "+week.End)
	}
	if err := s.store.SaveTask(ctx, *t); err != nil {
		return nil, err
	}
	return s.store.GetTask(ctx, taskID)
}

// SetTaskStatus moves a task to status and keeps its win in step:
// entering done records one, leaving done removes it.
func (s *Service) SetTaskStatus(ctx context.Context, viewerID, taskID string, status TaskStatus) (*Task, error) {
	next, ok := ParseStatus(string(status))
	if !ok {
		return nil, invalid("status", "must be planned, in_progress or done")
	}
	t, err := s.ownedTask(ctx, viewerID, taskID)
	if err != nil {
		return nil, err
	}
	prev := t.Status
	t.Status = next
	if err := s.store.SaveTask(ctx, *t); err != nil {
		return nil, err
	}

	if t.Kind.EarnsWin() {
		switch {
		case next == StatusDone && prev != StatusDone:
			s.recordWin(ctx, taskWin(*t))
		case next != StatusDone && prev == StatusDone:
			s.dropWins(ctx, "task_id", t.ID, s.store.DeleteWinsByTask)
		}
	}
	return s.store.GetTask(ctx, taskID)
}

// ToggleTask flips a task between planned and done.
func (s *Service) ToggleTask(ctx context.Context, viewerID, taskID string) (*Task, error) {
	t, err := s.ownedTask(ctx, viewerID, taskID)
	if err != nil {
		return nil, err
	}
	next := StatusDone
	if t.Done() {
		next = StatusPlanned
	}
	return s.SetTaskStatus(ctx, viewerID, taskID, next)
}

// DeleteTask removes the task and any win it produced.
func (s *Service) DeleteTask(ctx context.Context, viewerID, taskID string) error {
	t, err := s.ownedTask(ctx, viewerID, taskID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, t.ID); err != nil {
		return err
	}
	if t.Kind.EarnsWin() {
		s.dropWins(ctx, "task_id", t.ID, s.store.DeleteWinsByTask)
	}
	return nil
}

// taskWin describes the win earned by completing t.
func taskWin(t Task) Win {
	desc := t.Description
	if t.Kind == KindWeek {
		desc = "Completed weekly task"
		if t.Description != "" {
			desc += ": " + t.Description
		}
	}
	return Win{
		UserID:      t.UserID,
		Title:       t.Title,
		Description: desc,
		Source:      SourceTask,
		TaskID:      t.ID,
		GoalID:      t.LinkedGoalID,
		MilestoneID: t.LinkedMilestoneID,
	}
}

// checkTask runs kind validation plus the checks that need the store.
func (s *Service) checkTask(ctx context.Context, t Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := period.ParseDate(t.Date); err != nil {
		return invalid("date", "must be YYYY-MM-DD")
	}
	if t.LinkedGoalID != "" {
		g, err := s.store.GetGoal(ctx, t.LinkedGoalID)
		if err != nil {
			if IsNotFound(err) {
				return invalid("linked_goal_id", "unknown goal")
			}
			return err
		}
		if g.UserID != t.UserID {
			return ErrForbidden
		}
	}
	if t.LinkedMilestoneID != "" {
		m, err := s.store.GetMilestone(ctx, t.LinkedMilestoneID)
		if err != nil {
			if IsNotFound(err) {
				return invalid("linked_milestone_id", "unknown milestone")
			}
			return err
		}
		// Validate requires the goal link, whose owner is checked above.
		if m.GoalID != t.LinkedGoalID {
			return invalid("linked_milestone_id", "belongs to another goal")
		}
	}
	return nil
}

func (s *Service) ownedTask(ctx context.Context, viewerID, taskID string) (*Task, error) {
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := owned(t.UserID, viewerID); err != nil {
		return nil, err
	}
	return t, nil
}
