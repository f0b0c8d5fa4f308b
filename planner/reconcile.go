/*
reconcile.go - Win reconciliation

PURPOSE:
  Wins are written as a side effect of completing tasks, milestones and
  goals, and that side effect is fire-and-forget. A sweep repairs
  whatever a failed side effect left behind.

RULES:
  - A done task (kind task or week) has exactly one task win.
  - A completed milestone has exactly one milestone win.
  - A completed goal has exactly one goal win.
  - A task, milestone or goal win whose source is gone or no longer
    complete is removed.
  - Manual wins are never touched.

AUDIT:
  Every sweep is stored as a ReconciliationRun (running -> completed or
  failed) with the number of wins created and removed.

SEE ALSO:
  - api/scheduler.go: periodic sweeps
*/
package planner

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// WinDiff is the work a sweep has to do.
type WinDiff struct {
	Missing []Win
	Stale   []Win
}

// DiffWins compares completion state with existing wins.
func DiffWins(src WinSources) WinDiff {
	var diff WinDiff

	doneTasks := make(map[string]bool, len(src.DoneTasks))
	for _, t := range src.DoneTasks {
		doneTasks[t.ID] = true
	}
	doneMilestones := make(map[string]bool, len(src.CompletedMilestones))
	for _, m := range src.CompletedMilestones {
		doneMilestones[m.ID] = true
	}

	doneGoals := make(map[string]bool, len(src.CompletedGoals))
	for _, g := range src.CompletedGoals {
		doneGoals[g.ID] = true
	}

	hasTaskWin := make(map[string]bool)
	hasMilestoneWin := make(map[string]bool)
	hasGoalWin := make(map[string]bool)
	for _, w := range src.Wins {
		switch w.Source {
		case SourceTask:
			if !doneTasks[w.TaskID] || hasTaskWin[w.TaskID] {
				diff.Stale = append(diff.Stale, w)
				continue
			}
			hasTaskWin[w.TaskID] = true
		case SourceMilestone:
			if !doneMilestones[w.MilestoneID] || hasMilestoneWin[w.MilestoneID] {
				diff.Stale = append(diff.Stale, w)
				continue
			}
			hasMilestoneWin[w.MilestoneID] = true
		case SourceGoal:
			if !doneGoals[w.GoalID] || hasGoalWin[w.GoalID] {
				diff.Stale = append(diff.Stale, w)
				continue
			}
			hasGoalWin[w.GoalID] = true
		}
	}

	for _, t := range src.DoneTasks {
		if !hasTaskWin[t.ID] && t.Kind.EarnsWin() {
			diff.Missing = append(diff.Missing, taskWin(t))
		}
	}
	for _, m := range src.CompletedMilestones {
		if hasMilestoneWin[m.ID] {
			continue
		}
		diff.Missing = append(diff.Missing, Win{
			UserID:      src.GoalOwner[m.GoalID],
			Title:       m.Title,
			Description: "Completed milestone for " + src.GoalTitle[m.GoalID],
			Source:      SourceMilestone,
			GoalID:      m.GoalID,
			MilestoneID: m.ID,
		})
	}
	for _, g := range src.CompletedGoals {
		if !hasGoalWin[g.ID] {
			diff.Missing = append(diff.Missing, goalWin(g))
		}
	}
	return diff
}

// ReconcileWins runs one sweep and records it.
func (s *Service) ReconcileWins(ctx context.Context) (*ReconciliationRun, error) {
	started := s.now()
	run := ReconciliationRun{ID: newID(), Status: RunRunning, StartedAt: started}
	if err := s.store.SaveReconciliationRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save run record: %w", err)
	}

	fail := func(err error) (*ReconciliationRun, error) {
		run.Status = RunFailed
		run.Error = err.Error()
		if saveErr := s.store.SaveReconciliationRun(ctx, run); saveErr != nil {
			s.logger.Error("failed to record failed run", zap.String("run_id", run.ID), zap.Error(saveErr))
		}
		return &run, err
	}

	src, err := s.store.LoadWinSources(ctx)
	if err != nil {
		return fail(err)
	}
	diff := DiffWins(*src)

	for _, w := range diff.Stale {
		if err := s.store.DeleteWin(ctx, w.ID); err != nil {
			return fail(err)
		}
		run.Removed++
	}
	for _, w := range diff.Missing {
		w.ID = newID()
		w.CreatedAt = s.now()
		if err := s.store.SaveWin(ctx, w); err != nil {
			return fail(err)
		}
		run.Created++
	}

	completed := s.now()
	run.Status = RunCompleted
	run.CompletedAt = &completed
	if err := s.store.SaveReconciliationRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to update run record: %w", err)
	}

	if run.Created > 0 || run.Removed > 0 {
		s.logger.Info("wins reconciled",
			zap.String("run_id", run.ID),
			zap.Int("created", run.Created),
			zap.Int("removed", run.Removed))
	}
	return &run, nil
}

// ReconciliationRuns lists recent sweeps, newest first.
func (s *Service) ReconciliationRuns(ctx context.Context, limit int) ([]ReconciliationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListReconciliationRuns(ctx, limit)
}
