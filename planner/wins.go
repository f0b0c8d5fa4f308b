package planner

import (
	"context"
	"strings"
)

// WinCategories lists feed buckets in display order.
var WinCategories = []string{
	CategoryMonthlyGoals,
	CategoryWeeklyGoals,
	CategoryMilestones,
	CategoryTasks,
	CategoryGeneral,
}

type WinInput struct {
	Title       string
	Description string
	GoalID      string
	MilestoneID string
}

// ListWins returns the wins of ownerID as seen by viewerID, newest first.
// Viewing someone else's wins requires sharing a circle with them.
func (s *Service) ListWins(ctx context.Context, viewerID, ownerID string) ([]Win, error) {
	if ownerID == "" {
		ownerID = viewerID
	}
	if ownerID != viewerID {
		ok, err := s.store.SharesCircle(ctx, viewerID, ownerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrForbidden
		}
	}
	return s.store.ListWins(ctx, []string{ownerID})
}

// CreateWin records a manual win, optionally tied to a goal or milestone.
func (s *Service) CreateWin(ctx context.Context, viewerID string, in WinInput) (*Win, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title", "is required")
	}
	if in.GoalID != "" {
		g, err := s.store.GetGoal(ctx, in.GoalID)
		if err != nil {
			return nil, err
		}
		if err := owned(g.UserID, viewerID); err != nil {
			return nil, err
		}
	}
	if in.MilestoneID != "" {
		m, g, err := s.ownedMilestone(ctx, viewerID, in.MilestoneID)
		if err != nil {
			return nil, err
		}
		if in.GoalID == "" {
			in.GoalID = g.ID
		} else if m.GoalID != in.GoalID {
			return nil, invalid("milestone_id", "belongs to another goal")
		}
	}

	w := Win{
		ID:          newID(),
		UserID:      viewerID,
		Title:       title,
		Description: in.Description,
		Source:      SourceManual,
		GoalID:      in.GoalID,
		MilestoneID: in.MilestoneID,
		CreatedAt:   s.now(),
	}
	if err := s.store.SaveWin(ctx, w); err != nil {
		return nil, err
	}
	return s.store.GetWin(ctx, w.ID)
}

func (s *Service) DeleteWin(ctx context.Context, viewerID, winID string) error {
	w, err := s.store.GetWin(ctx, winID)
	if err != nil {
		return err
	}
	if err := owned(w.UserID, viewerID); err != nil {
		return err
	}
	return s.store.DeleteWin(ctx, winID)
}

// GroupWins buckets wins by category, keeping their order.
func GroupWins(wins []Win) map[string][]Win {
	out := make(map[string][]Win)
	for _, w := range wins {
		c := w.Category()
		out[c] = append(out[c], w)
	}
	return out
}
