package planner

import (
	"context"
	"errors"
	"strings"

	"github.com/winning-app/winning/period"
)

// maxStreak bounds how far back a streak is counted.
const maxStreak = 365

// ListHabits returns the viewer's habits for a month with their checks.
// An empty month means the current local month.
func (s *Service) ListHabits(ctx context.Context, viewerID, monthYear string) ([]Habit, error) {
	month, err := s.monthOrCurrent(monthYear)
	if err != nil {
		return nil, err
	}
	return s.store.ListHabits(ctx, []string{viewerID}, month)
}

func (s *Service) CreateHabit(ctx context.Context, viewerID, name, monthYear string) (*Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	month, err := s.monthOrCurrent(monthYear)
	if err != nil {
		return nil, err
	}
	h := Habit{
		ID:        newID(),
		UserID:    viewerID,
		MonthYear: month,
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := s.store.SaveHabit(ctx, h); err != nil {
		return nil, err
	}
	return s.store.GetHabit(ctx, h.ID)
}

func (s *Service) RenameHabit(ctx context.Context, viewerID, habitID, name string) (*Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	h, err := s.ownedHabit(ctx, viewerID, habitID)
	if err != nil {
		return nil, err
	}
	h.Name = name
	if err := s.store.SaveHabit(ctx, *h); err != nil {
		return nil, err
	}
	return s.store.GetHabit(ctx, habitID)
}

// DeleteHabit removes the habit and, by cascade, its checks.
func (s *Service) DeleteHabit(ctx context.Context, viewerID, habitID string) error {
	if _, err := s.ownedHabit(ctx, viewerID, habitID); err != nil {
		return err
	}
	return s.store.DeleteHabit(ctx, habitID)
}

// SetHabitCheck marks or clears one day of a habit.
//
// Marking inserts a check and falls back to an update when the day
// already has a row. Clearing deletes the row, so toggling on then off
// leaves nothing behind.
func (s *Service) SetHabitCheck(ctx context.Context, viewerID, habitID, date string, completed bool) (*Habit, error) {
	h, err := s.ownedHabit(ctx, viewerID, habitID)
	if err != nil {
		return nil, err
	}
	if _, err := period.ParseDate(date); err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}
	if !period.InMonth(date, h.MonthYear) {
		return nil, invalid("date", "must fall in "+h.MonthYear)
	}

	if completed {
		err = s.store.InsertHabitCheck(ctx, HabitCheck{
			ID:        newID(),
			HabitID:   habitID,
			Date:      date,
			Completed: true,
			CreatedAt: s.now(),
		})
		if errors.Is(err, ErrDuplicate) {
			err = s.store.UpdateHabitCheck(ctx, habitID, date, true)
		}
	} else {
		err = s.store.DeleteHabitCheck(ctx, habitID, date)
	}
	if err != nil {
		return nil, err
	}
	return s.store.GetHabit(ctx, habitID)
}

// HabitStats computes streak and completion for one of the viewer's habits.
func (s *Service) HabitStats(ctx context.Context, viewerID, habitID string) (*HabitStats, error) {
	h, err := s.ownedHabit(ctx, viewerID, habitID)
	if err != nil {
		return nil, err
	}
	stats, err := ComputeHabitStats(*h, s.cal.Today())
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ComputeHabitStats derives stats from a habit's checks.
// The streak counts consecutive checked days ending on today.
func ComputeHabitStats(h Habit, today string) (HabitStats, error) {
	days, err := period.DaysInMonth(h.MonthYear)
	if err != nil {
		return HabitStats{}, err
	}

	checked := make(map[string]bool, len(h.Checks))
	for _, c := range h.Checks {
		if c.Completed {
			checked[c.Date] = true
		}
	}

	streak := 0
	day := today
	for streak < maxStreak && checked[day] {
		streak++
		if day, err = period.ShiftDay(day, -1); err != nil {
			return HabitStats{}, err
		}
	}

	return HabitStats{
		HabitID:        h.ID,
		Streak:         streak,
		CheckedDays:    len(checked),
		DaysInMonth:    days,
		CompletionRate: percent(len(checked), days),
	}, nil
}

func (s *Service) ownedHabit(ctx context.Context, viewerID, habitID string) (*Habit, error) {
	h, err := s.store.GetHabit(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if err := owned(h.UserID, viewerID); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) monthOrCurrent(monthYear string) (string, error) {
	if monthYear == "" {
		return s.cal.CurrentMonth(), nil
	}
	if _, err := period.ParseYearMonth(monthYear); err != nil {
		return "", invalid("month", "must be YYYY-MM")
	}
	return monthYear, nil
}
