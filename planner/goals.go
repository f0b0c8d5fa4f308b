package planner

import (
	"context"
	"strings"

	"github.com/winning-app/winning/period"
)

// GoalInput carries editable goal fields. Completed is applied only when set.
type GoalInput struct {
	Title         string
	Description   string
	Horizon       Horizon
	Deadline      string
	Why           string
	ActionPlan    string
	StrategyNotes string
	Completed     *bool
}

func (in GoalInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title", "is required")
	}
	if in.Horizon != "" && !in.Horizon.Valid() {
		return invalid("horizon", "must be long-term, medium-term or short-term")
	}
	if in.Deadline != "" {
		if _, err := period.ParseDate(in.Deadline); err != nil {
			return invalid("deadline", "must be YYYY-MM-DD")
		}
	}
	return nil
}

// ListGoals returns the viewer's personal goals, newest first.
func (s *Service) ListGoals(ctx context.Context, viewerID string) ([]Goal, error) {
	return s.store.ListGoals(ctx, []string{viewerID})
}

func (s *Service) CreateGoal(ctx context.Context, viewerID string, in GoalInput) (*Goal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	horizon := in.Horizon
	if horizon == "" {
		horizon = HorizonLong
	}
	g := Goal{
		ID:            newID(),
		UserID:        viewerID,
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Horizon:       horizon,
		Deadline:      in.Deadline,
		Why:           in.Why,
		ActionPlan:    in.ActionPlan,
		StrategyNotes: in.StrategyNotes,
		CreatedAt:     s.now(),
	}
	if err := s.store.SaveGoal(ctx, g); err != nil {
		return nil, err
	}
	return s.store.GetGoal(ctx, g.ID)
}

// UpdateGoal rewrites the goal fields. Completing a goal records a win;
// reopening it removes that win.
func (s *Service) UpdateGoal(ctx context.Context, viewerID, goalID string, in GoalInput) (*Goal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	g, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if err := owned(g.UserID, viewerID); err != nil {
		return nil, err
	}

	wasCompleted := g.Completed
	g.Title = strings.TrimSpace(in.Title)
	g.Description = in.Description
	if in.Horizon != "" {
		g.Horizon = in.Horizon
	}
	g.Deadline = in.Deadline
	g.Why = in.Why
	g.ActionPlan = in.ActionPlan
	g.StrategyNotes = in.StrategyNotes
	if in.Completed != nil {
		g.Completed = *in.Completed
		if g.Completed && !wasCompleted {
			now := s.now()
			g.CompletedAt = &now
		} else if !g.Completed {
			g.CompletedAt = nil
		}
	}
	if err := s.store.SaveGoal(ctx, *g); err != nil {
		return nil, err
	}

	switch {
	case g.Completed && !wasCompleted:
		s.recordWin(ctx, goalWin(*g))
	case !g.Completed && wasCompleted:
		s.dropWins(ctx, "goal_id", g.ID, s.store.DeleteWinsByGoal)
	}
	return s.store.GetGoal(ctx, goalID)
}

// DeleteGoal removes a goal, its milestones and the wins they produced.
// Manual wins that mention the goal stay.
func (s *Service) DeleteGoal(ctx context.Context, viewerID, goalID string) error {
	g, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if err := owned(g.UserID, viewerID); err != nil {
		return err
	}
	if err := s.store.DeleteGoal(ctx, goalID); err != nil {
		return err
	}
	s.dropWins(ctx, "goal_id", g.ID, s.store.DeleteWinsByGoal)
	for _, m := range g.Milestones {
		s.dropWins(ctx, "milestone_id", m.ID, s.store.DeleteWinsByMilestone)
	}
	return nil
}

// goalWin describes the win earned by completing g.
func goalWin(g Goal) Win {
	return Win{
		UserID:      g.UserID,
		Title:       g.Title,
		Description: "Completed goal",
		Source:      SourceGoal,
		GoalID:      g.ID,
	}
}

// =============================================================================
// MILESTONES
// =============================================================================

type MilestoneInput struct {
	Title       string
	Description string
	DueWeek     string
}

// AddMilestone appends a milestone to one of the viewer's goals.
// DueWeek is normalized to the Monday of its week.
func (s *Service) AddMilestone(ctx context.Context, viewerID, goalID string, in MilestoneInput) (*Goal, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("title", "is required")
	}
	g, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if err := owned(g.UserID, viewerID); err != nil {
		return nil, err
	}

	due := ""
	if in.DueWeek != "" {
		due, err = period.WeekStart(in.DueWeek)
		if err != nil {
			return nil, invalid("due_week", "must be YYYY-MM-DD")
		}
	}
	m := Milestone{
		ID:          newID(),
		GoalID:      goalID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		DueWeek:     due,
		CreatedAt:   s.now(),
	}
	if err := s.store.SaveMilestone(ctx, m); err != nil {
		return nil, err
	}
	return s.store.GetGoal(ctx, goalID)
}

// ToggleMilestone flips completion and returns the reloaded goal.
func (s *Service) ToggleMilestone(ctx context.Context, viewerID, milestoneID string) (*Goal, error) {
	m, g, err := s.ownedMilestone(ctx, viewerID, milestoneID)
	if err != nil {
		return nil, err
	}

	m.Completed = !m.Completed
	if m.Completed {
		now := s.now()
		m.CompletedAt = &now
	} else {
		m.CompletedAt = nil
	}
	if err := s.store.SaveMilestone(ctx, *m); err != nil {
		return nil, err
	}

	if m.Completed {
		s.recordWin(ctx, Win{
			UserID:      g.UserID,
			Title:       m.Title,
			Description: "Completed milestone for " + g.Title,
			Source:      SourceMilestone,
			GoalID:      g.ID,
			MilestoneID: m.ID,
		})
	} else {
		s.dropWins(ctx, "milestone_id", m.ID, s.store.DeleteWinsByMilestone)
	}
	return s.store.GetGoal(ctx, g.ID)
}

func (s *Service) DeleteMilestone(ctx context.Context, viewerID, milestoneID string) error {
	m, _, err := s.ownedMilestone(ctx, viewerID, milestoneID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteMilestone(ctx, m.ID); err != nil {
		return err
	}
	s.dropWins(ctx, "milestone_id", m.ID, s.store.DeleteWinsByMilestone)
	return nil
}

func (s *Service) ownedMilestone(ctx context.Context, viewerID, milestoneID string) (*Milestone, *Goal, error) {
	m, err := s.store.GetMilestone(ctx, milestoneID)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.store.GetGoal(ctx, m.GoalID)
	if err != nil {
		return nil, nil, err
	}
	if err := owned(g.UserID, viewerID); err != nil {
		return nil, nil, err
	}
	return m, g, nil
}
