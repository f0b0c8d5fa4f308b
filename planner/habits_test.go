package planner_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winning-app/winning/planner"
)

func TestSetHabitCheck_OnThenOffLeavesNoRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	h, err := f.svc.CreateHabit(ctx, "u1", "Read 20 pages", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03", h.MonthYear)

	h, err = f.svc.SetHabitCheck(ctx, "u1", h.ID, "2024-03-05", true)
	require.NoError(t, err)
	assert.True(t, h.Checked("2024-03-05"))

	// Marking twice is idempotent.
	h, err = f.svc.SetHabitCheck(ctx, "u1", h.ID, "2024-03-05", true)
	require.NoError(t, err)
	assert.Len(t, h.Checks, 1)

	h, err = f.svc.SetHabitCheck(ctx, "u1", h.ID, "2024-03-05", false)
	require.NoError(t, err)
	assert.Empty(t, h.Checks)

	checks, err := f.store.ListHabitChecks(ctx, h.ID, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Empty(t, checks)
}

func TestSetHabitCheck_DateMustBeInHabitMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	h, err := f.svc.CreateHabit(ctx, "u1", "Walk", "2024-03")
	require.NoError(t, err)

	_, err = f.svc.SetHabitCheck(ctx, "u1", h.ID, "2024-04-01", true)
	assert.ErrorIs(t, err, planner.ErrValidation)
	_, err = f.svc.SetHabitCheck(ctx, "u1", h.ID, "tuesday", true)
	assert.ErrorIs(t, err, planner.ErrValidation)
	_, err = f.svc.SetHabitCheck(ctx, "u2", h.ID, "2024-03-01", true)
	assert.ErrorIs(t, err, planner.ErrForbidden)
}

func TestHabits_ListedByMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateHabit(ctx, "u1", "March habit", "2024-03")
	require.NoError(t, err)
	_, err = f.svc.CreateHabit(ctx, "u1", "April habit", "2024-04")
	require.NoError(t, err)

	habits, err := f.svc.ListHabits(ctx, "u1", "2024-04")
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, "April habit", habits[0].Name)

	_, err = f.svc.ListHabits(ctx, "u1", "April")
	assert.ErrorIs(t, err, planner.ErrValidation)

	renamed, err := f.svc.RenameHabit(ctx, "u1", habits[0].ID, "Spring habit")
	require.NoError(t, err)
	assert.Equal(t, "Spring habit", renamed.Name)

	require.NoError(t, f.svc.DeleteHabit(ctx, "u1", habits[0].ID))
	habits, err = f.svc.ListHabits(ctx, "u1", "2024-04")
	require.NoError(t, err)
	assert.Empty(t, habits)
}

func TestHabitStats_FromService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	h, err := f.svc.CreateHabit(ctx, "u1", "Stretch", "")
	require.NoError(t, err)
	for _, d := range []string{"2024-03-01", "2024-03-04", "2024-03-05", "2024-03-06"} {
		_, err = f.svc.SetHabitCheck(ctx, "u1", h.ID, d, true)
		require.NoError(t, err)
	}

	stats, err := f.svc.HabitStats(ctx, "u1", h.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Streak)
	assert.Equal(t, 4, stats.CheckedDays)
	assert.Equal(t, 31, stats.DaysInMonth)
	assert.Equal(t, "13", stats.CompletionRate.String())
}

func TestComputeHabitStats(t *testing.T) {
	checks := func(dates ...string) []planner.HabitCheck {
		out := make([]planner.HabitCheck, len(dates))
		for i, d := range dates {
			out[i] = planner.HabitCheck{Date: d, Completed: true}
		}
		return out
	}

	cases := []struct {
		name       string
		month      string
		checks     []planner.HabitCheck
		today      string
		streak     int
		checked    int
		days       int
		completion string
	}{
		{
			name:       "no checks",
			month:      "2024-02",
			today:      "2024-02-10",
			days:       29,
			completion: "0",
		},
		{
			name:       "today unchecked breaks streak",
			month:      "2024-02",
			checks:     checks("2024-02-08", "2024-02-09"),
			today:      "2024-02-10",
			checked:    2,
			days:       29,
			completion: "7",
		},
		{
			name:       "every day",
			month:      "2023-04",
			checks:     checks(days("2023-04", 30)...),
			today:      "2023-04-30",
			streak:     30,
			checked:    30,
			days:       30,
			completion: "100",
		},
		{
			name:       "uncompleted rows ignored",
			month:      "2024-03",
			checks:     append(checks("2024-03-06"), planner.HabitCheck{Date: "2024-03-05"}),
			today:      "2024-03-06",
			streak:     1,
			checked:    1,
			days:       31,
			completion: "3",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stats, err := planner.ComputeHabitStats(planner.Habit{ID: "h", MonthYear: tc.month, Checks: tc.checks}, tc.today)
			require.NoError(t, err)
			assert.Equal(t, tc.streak, stats.Streak)
			assert.Equal(t, tc.checked, stats.CheckedDays)
			assert.Equal(t, tc.days, stats.DaysInMonth)
			assert.Equal(t, tc.completion, stats.CompletionRate.String())
		})
	}
}

func days(month string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%02d", month, i+1)
	}
	return out
}
