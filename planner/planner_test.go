package planner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/winning-app/winning/period"
	"github.com/winning-app/winning/planner"
	"github.com/winning-app/winning/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// Wednesday 2024-03-06, 10:00 UTC.
var wednesday = time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *planner.Service
	store *sqlite.Store
	now   time.Time
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newFixture(t *testing.T, opts ...sqlite.Option) *fixture {
	return newFixtureWithLogger(t, zap.NewNop(), opts...)
}

func newFixtureWithLogger(t *testing.T, logger *zap.Logger, opts ...sqlite.Option) *fixture {
	t.Helper()
	store, err := sqlite.New(":memory:", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, now: wednesday}
	cal := period.NewCalendar(time.UTC)
	cal.Now = func() time.Time { return f.now }
	f.svc = planner.NewService(store, cal, logger)
	return f
}

func (f *fixture) user(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, f.store.SaveUser(context.Background(), planner.User{
		ID: id, Email: id + "@example.com", DisplayName: name, CreatedAt: f.now,
	}))
}

func (f *fixture) wins(t *testing.T, userID string) []planner.Win {
	t.Helper()
	wins, err := f.svc.ListWins(context.Background(), userID, userID)
	require.NoError(t, err)
	return wins
}

// =============================================================================
// GOALS & MILESTONES
// =============================================================================

func TestGoal_MilestoneProgressAndWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.svc.CreateGoal(ctx, "u1", planner.GoalInput{Title: "  Learn Go  "})
	require.NoError(t, err)
	assert.Equal(t, "Learn Go", g.Title)
	assert.Equal(t, planner.HorizonLong, g.Horizon)
	assert.Empty(t, g.Milestones)

	g, err = f.svc.AddMilestone(ctx, "u1", g.ID, planner.MilestoneInput{Title: "Tour", DueWeek: "2024-03-08"})
	require.NoError(t, err)
	g, err = f.svc.AddMilestone(ctx, "u1", g.ID, planner.MilestoneInput{Title: "Project"})
	require.NoError(t, err)
	require.Len(t, g.Milestones, 2)
	assert.Equal(t, "2024-03-04", g.Milestones[0].DueWeek)

	g, err = f.svc.ToggleMilestone(ctx, "u1", g.Milestones[0].ID)
	require.NoError(t, err)
	assert.True(t, g.Milestones[0].Completed)
	assert.Equal(t, "50", g.Progress().String())

	wins := f.wins(t, "u1")
	require.Len(t, wins, 1)
	assert.Equal(t, "Tour", wins[0].Title)
	assert.Equal(t, "Completed milestone for Learn Go", wins[0].Description)
	assert.Equal(t, planner.CategoryMilestones, wins[0].Category())

	g, err = f.svc.ToggleMilestone(ctx, "u1", g.Milestones[0].ID)
	require.NoError(t, err)
	assert.False(t, g.Milestones[0].Completed)
	assert.Nil(t, g.Milestones[0].CompletedAt)
	assert.Empty(t, f.wins(t, "u1"))
}

func TestGoal_CompleteAndReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.svc.CreateGoal(ctx, "u1", planner.GoalInput{Title: "Save money", Horizon: planner.HorizonShort})
	require.NoError(t, err)

	done := true
	g, err = f.svc.UpdateGoal(ctx, "u1", g.ID, planner.GoalInput{Title: "Save money", Completed: &done})
	require.NoError(t, err)
	assert.True(t, g.Completed)
	require.NotNil(t, g.CompletedAt)
	assert.Equal(t, planner.HorizonShort, g.Horizon)
	require.Len(t, f.wins(t, "u1"), 1)

	open := false
	_, err = f.svc.UpdateGoal(ctx, "u1", g.ID, planner.GoalInput{Title: "Save money", Completed: &open})
	require.NoError(t, err)
	assert.Empty(t, f.wins(t, "u1"))
}

func TestDeleteGoal_RemovesItsWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.svc.CreateGoal(ctx, "u1", planner.GoalInput{Title: "Save"})
	require.NoError(t, err)
	g, err = f.svc.AddMilestone(ctx, "u1", g.ID, planner.MilestoneInput{Title: "First 1k"})
	require.NoError(t, err)
	_, err = f.svc.ToggleMilestone(ctx, "u1", g.Milestones[0].ID)
	require.NoError(t, err)
	done := true
	_, err = f.svc.UpdateGoal(ctx, "u1", g.ID, planner.GoalInput{Title: "Save", Completed: &done})
	require.NoError(t, err)
	_, err = f.svc.CreateWin(ctx, "u1", planner.WinInput{Title: "Told a friend", GoalID: g.ID})
	require.NoError(t, err)
	require.Len(t, f.wins(t, "u1"), 3)

	require.NoError(t, f.svc.DeleteGoal(ctx, "u1", g.ID))

	wins := f.wins(t, "u1")
	require.Len(t, wins, 1)
	assert.Equal(t, "Told a friend", wins[0].Title)

	run, err := f.svc.ReconcileWins(ctx)
	require.NoError(t, err)
	assert.Zero(t, run.Created)
	assert.Zero(t, run.Removed)
}

func TestDeleteMilestone_RemovesItsWin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.svc.CreateGoal(ctx, "u1", planner.GoalInput{Title: "Run"})
	require.NoError(t, err)
	g, err = f.svc.AddMilestone(ctx, "u1", g.ID, planner.MilestoneInput{Title: "5k"})
	require.NoError(t, err)
	_, err = f.svc.ToggleMilestone(ctx, "u1", g.Milestones[0].ID)
	require.NoError(t, err)
	require.Len(t, f.wins(t, "u1"), 1)

	require.NoError(t, f.svc.DeleteMilestone(ctx, "u1", g.Milestones[0].ID))
	assert.Empty(t, f.wins(t, "u1"))
}

func TestGoal_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateGoal(ctx, "u1", planner.GoalInput{Title: " "})
	assert.ErrorIs(t, err, planner.ErrValidation)

	_, err = f.svc.CreateGoal(ctx, "u1", planner.GoalInput{Title: "x", Horizon: "forever"})
	assert.ErrorIs(t, err, planner.ErrValidation)

	_, err = f.svc.CreateGoal(ctx, "u1", planner.GoalInput{Title: "x", Deadline: "next year"})
	var verr *planner.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "deadline", verr.Field)
}

func TestGoal_OtherUsersAreForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.svc.CreateGoal(ctx, "u1", planner.GoalInput{Title: "Mine"})
	require.NoError(t, err)

	_, err = f.svc.AddMilestone(ctx, "u2", g.ID, planner.MilestoneInput{Title: "Theirs"})
	assert.ErrorIs(t, err, planner.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteGoal(ctx, "u2", g.ID), planner.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteGoal(ctx, "u1", "missing"), planner.ErrNotFound)
}

// =============================================================================
// TASKS
// =============================================================================

func TestToggleTask_RecordsAndRemovesWin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	todo, err := f.svc.AddTodo(ctx, "u1", "2024-03-06", planner.TaskInput{Title: "Write tests"})
	require.NoError(t, err)
	assert.Equal(t, planner.StatusPlanned, todo.Status)

	todo, err = f.svc.ToggleTask(ctx, "u1", todo.ID)
	require.NoError(t, err)
	assert.True(t, todo.Done())

	wins := f.wins(t, "u1")
	require.Len(t, wins, 1)
	assert.Equal(t, todo.ID, wins[0].TaskID)
	assert.Equal(t, planner.CategoryTasks, wins[0].Category())

	todo, err = f.svc.ToggleTask(ctx, "u1", todo.ID)
	require.NoError(t, err)
	assert.False(t, todo.Done())
	assert.Empty(t, f.wins(t, "u1"))
}

func TestSetTaskStatus_EventsEarnNoWin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ev, err := f.svc.AddEvent(ctx, "u1", planner.TaskInput{Title: "Dentist", Date: "2024-03-12", Time: "09:30"})
	require.NoError(t, err)
	_, err = f.svc.SetTaskStatus(ctx, "u1", ev.ID, planner.StatusDone)
	require.NoError(t, err)
	assert.Empty(t, f.wins(t, "u1"))

	_, err = f.svc.SetTaskStatus(ctx, "u1", ev.ID, "finished")
	assert.ErrorIs(t, err, planner.ErrValidation)
}

func TestWeekTask_WinDescription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.svc.AddWeekTask(ctx, "u1", "2024-03-06", planner.TaskInput{Title: "Plan trip", Description: "book hotel"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", task.Date)
	assert.Equal(t, planner.PriorityMedium, task.Priority)

	_, err = f.svc.SetTaskStatus(ctx, "u1", task.ID, planner.StatusDone)
	require.NoError(t, err)
	wins := f.wins(t, "u1")
	require.Len(t, wins, 1)
	assert.Equal(t, "Completed weekly task: book hotel", wins[0].Description)
	assert.Equal(t, planner.CategoryWeeklyGoals, wins[0].Category())

	require.NoError(t, f.svc.DeleteTask(ctx, "u1", task.ID))
	assert.Empty(t, f.wins(t, "u1"))
}

func TestAddWeekTask_DateOutsideWeek(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddWeekTask(context.Background(), "u1", "2024-03-06",
		planner.TaskInput{Title: "Late", Date: "2024-03-11"})
	assert.ErrorIs(t, err, planner.ErrValidation)
}

func TestAddTodo_LinkedGoalMustBeOwned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.svc.CreateGoal(ctx, "u1", planner.GoalInput{Title: "Mine"})
	require.NoError(t, err)

	_, err = f.svc.AddTodo(ctx, "u2", "2024-03-06", planner.TaskInput{Title: "Sneaky", LinkedGoalID: g.ID})
	assert.ErrorIs(t, err, planner.ErrForbidden)

	_, err = f.svc.AddTodo(ctx, "u1", "2024-03-06", planner.TaskInput{Title: "Ghost", LinkedGoalID: "missing"})
	assert.ErrorIs(t, err, planner.ErrValidation)

	_, err = f.svc.AddTodo(ctx, "u1", "2024-03-06", planner.TaskInput{Title: "Half", LinkedMilestoneID: "m"})
	assert.ErrorIs(t, err, planner.ErrValidation)
}

func TestAddTodo_LinkedMilestoneMustMatchGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	run, err := f.svc.CreateGoal(ctx, "u1", planner.GoalInput{Title: "Run"})
	require.NoError(t, err)
	run, err = f.svc.AddMilestone(ctx, "u1", run.ID, planner.MilestoneInput{Title: "5k"})
	require.NoError(t, err)
	read, err := f.svc.CreateGoal(ctx, "u1", planner.GoalInput{Title: "Read"})
	require.NoError(t, err)
	theirs, err := f.svc.CreateGoal(ctx, "u2", planner.GoalInput{Title: "Theirs"})
	require.NoError(t, err)
	theirs, err = f.svc.AddMilestone(ctx, "u2", theirs.ID, planner.MilestoneInput{Title: "Step"})
	require.NoError(t, err)
	milestone := run.Milestones[0].ID

	_, err = f.svc.AddTodo(ctx, "u1", "2024-03-06", planner.TaskInput{
		Title: "Wrong goal", LinkedGoalID: read.ID, LinkedMilestoneID: milestone,
	})
	assert.ErrorIs(t, err, planner.ErrValidation)

	_, err = f.svc.AddTodo(ctx, "u1", "2024-03-06", planner.TaskInput{
		Title: "Ghost", LinkedGoalID: run.ID, LinkedMilestoneID: "missing",
	})
	assert.ErrorIs(t, err, planner.ErrValidation)

	_, err = f.svc.AddTodo(ctx, "u1", "2024-03-06", planner.TaskInput{
		Title: "Borrowed", LinkedGoalID: run.ID, LinkedMilestoneID: theirs.Milestones[0].ID,
	})
	assert.ErrorIs(t, err, planner.ErrValidation)

	todo, err := f.svc.AddTodo(ctx, "u1", "2024-03-06", planner.TaskInput{
		Title: "Tempo run", LinkedGoalID: run.ID, LinkedMilestoneID: milestone,
	})
	require.NoError(t, err)
	assert.Equal(t, milestone, todo.LinkedMilestoneID)

	_, err = f.svc.UpdateTask(ctx, "u1", todo.ID, planner.TaskInput{
		Title: "Tempo run", LinkedGoalID: read.ID, LinkedMilestoneID: milestone,
	})
	assert.ErrorIs(t, err, planner.ErrValidation)
}

func TestUpdateTask_WeekTaskStaysInItsWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.svc.AddWeekTask(ctx, "u1", "2024-03-06", planner.TaskInput{Title: "Plan trip"})
	require.NoError(t, err)

	moved, err := f.svc.UpdateTask(ctx, "u1", task.ID, planner.TaskInput{Title: "Plan trip", Date: "2024-03-10"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", moved.Date)

	_, err = f.svc.UpdateTask(ctx, "u1", task.ID, planner.TaskInput{Title: "Plan trip", Date: "2024-03-11"})
	var verr *planner.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)

	got, err := f.store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", got.Date)
}

func TestUpdateTask_EventCanBeRescheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ev, err := f.svc.AddEvent(ctx, "u1", planner.TaskInput{Title: "Dentist", Date: "2024-03-12"})
	require.NoError(t, err)
	ev, err = f.svc.UpdateTask(ctx, "u1", ev.ID, planner.TaskInput{Title: "Dentist", Date: "2024-04-02"})
	require.NoError(t, err)
	assert.Equal(t, "2024-04-02", ev.Date)
}

// =============================================================================
// DAY
// =============================================================================

func TestSetPriority_UpsertAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.SetPriority(ctx, "u1", "2024-03-06", "Ship the release")
	require.NoError(t, err)
	second, err := f.svc.SetPriority(ctx, "u1", "2024-03-06", "Ship the hotfix")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ship the hotfix", second.Title)

	day, err := f.svc.LoadDay(ctx, "u1", "2024-03-06")
	require.NoError(t, err)
	require.NotNil(t, day.Priority)
	assert.Equal(t, "2024-03-05", day.Prev)
	assert.Equal(t, "2024-03-07", day.Next)

	cleared, err := f.svc.SetPriority(ctx, "u1", "2024-03-06", "  ")
	require.NoError(t, err)
	assert.Nil(t, cleared)

	day, err = f.svc.LoadDay(ctx, "u1", "2024-03-06")
	require.NoError(t, err)
	assert.Nil(t, day.Priority)
}

func TestLoadDay_NotesAndTodos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SaveDayNotes(ctx, "u1", "2024-03-06", "9am standup", "felt good")
	require.NoError(t, err)
	_, err = f.svc.AddTodo(ctx, "u1", "2024-03-06", planner.TaskInput{Title: "Email"})
	require.NoError(t, err)
	_, err = f.svc.AddTodo(ctx, "u1", "2024-03-07", planner.TaskInput{Title: "Tomorrow"})
	require.NoError(t, err)

	day, err := f.svc.LoadDay(ctx, "u1", "2024-03-06")
	require.NoError(t, err)
	require.NotNil(t, day.Notes)
	assert.Equal(t, "9am standup", day.Notes.Schedule)
	require.Len(t, day.Todos, 1)
	assert.Equal(t, "Email", day.Todos[0].Title)

	_, err = f.svc.LoadDay(ctx, "u1", "2024-02-30")
	assert.ErrorIs(t, err, planner.ErrValidation)
}

// =============================================================================
// MONTH
// =============================================================================

func TestMonthNotes_GoalsAndReviewAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SaveMonthGoals(ctx, "u1", "2024-03", "Run 50km")
	require.NoError(t, err)
	n, err := f.svc.SaveMonthReview(ctx, "u1", "2024-03", "Ran 42km")
	require.NoError(t, err)
	assert.Equal(t, "Run 50km", n.Goals)
	assert.Equal(t, "Ran 42km", n.Review)

	_, err = f.svc.SaveMonthReview(ctx, "u1", "2024-02", "February was slow")
	require.NoError(t, err)
	_, err = f.svc.AddEvent(ctx, "u1", planner.TaskInput{Title: "Trip", Date: "2024-03-20"})
	require.NoError(t, err)
	_, err = f.svc.AddEvent(ctx, "u1", planner.TaskInput{Title: "Later", Date: "2024-04-02"})
	require.NoError(t, err)

	view, err := f.svc.LoadMonth(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03", view.Month)
	assert.Equal(t, "Run 50km", view.Goals)
	assert.Equal(t, "February was slow", view.PrevReview)
	assert.Len(t, view.Grid, period.GridCells)
	require.Len(t, view.Events, 1)
	assert.Equal(t, "Trip", view.Events[0].Title)
}

// =============================================================================
// WEEK
// =============================================================================

func TestLoadWeek_Reviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SaveWeekReview(ctx, "u1", "2024-02-28", planner.WeekReviewInput{Lessons: "rest"})
	require.NoError(t, err)
	_, err = f.svc.SaveWeekReview(ctx, "u1", "2024-03-06", planner.WeekReviewInput{TopOutcomes: "a\nb"})
	require.NoError(t, err)

	view, err := f.svc.LoadWeek(ctx, "u1", "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", view.Week.Start)
	require.NotNil(t, view.LastReview)
	assert.Equal(t, "rest", view.LastReview.Lessons)
	require.NotNil(t, view.ThisReview)
	assert.Equal(t, "a\nb", view.ThisReview.TopOutcomes)
}

// =============================================================================
// ROUTINES
// =============================================================================

func TestRoutines_EditToggleAndMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	routines, err := f.svc.ListRoutines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, routines, 2)
	assert.Equal(t, planner.RoutineMorning, routines[0].Type)
	assert.Empty(t, routines[0].ID)

	ten := 10
	r, err := f.svc.SaveRoutineSteps(ctx, "u1", planner.RoutineMorning, []planner.StepInput{
		{Text: "Meditate", DurationMinutes: &ten},
		{Text: "Journal"},
	})
	require.NoError(t, err)
	require.Len(t, r.Steps, 2)
	meditate := r.Steps[0].ID

	r, err = f.svc.ToggleRoutineStepToday(ctx, "u1", planner.RoutineMorning, meditate)
	require.NoError(t, err)
	assert.True(t, r.Steps[0].DoneOn("2024-03-06"))

	// Editing keeps the history of known steps.
	r, err = f.svc.SaveRoutineSteps(ctx, "u1", planner.RoutineMorning, []planner.StepInput{
		{ID: meditate, Text: "Meditate longer"},
		{ID: r.Steps[1].ID, Text: "Journal"},
		{ID: "made-up", Text: "Stretch"},
	})
	require.NoError(t, err)
	require.Len(t, r.Steps, 3)
	assert.True(t, r.Steps[0].DoneOn("2024-03-06"))
	assert.NotEqual(t, "made-up", r.Steps[2].ID)

	r, err = f.svc.MoveRoutineStep(ctx, "u1", planner.RoutineMorning, meditate, planner.Down)
	require.NoError(t, err)
	assert.Equal(t, meditate, r.Steps[1].ID)

	r, err = f.svc.MoveRoutineStep(ctx, "u1", planner.RoutineMorning, r.Steps[0].ID, planner.Up)
	require.NoError(t, err)
	assert.Equal(t, meditate, r.Steps[1].ID)

	r, err = f.svc.ToggleRoutineStepToday(ctx, "u1", planner.RoutineMorning, meditate)
	require.NoError(t, err)
	assert.False(t, r.Steps[1].DoneOn("2024-03-06"))

	_, err = f.svc.SaveRoutineSteps(ctx, "u1", planner.RoutineEvening, []planner.StepInput{{Text: " "}})
	assert.ErrorIs(t, err, planner.ErrValidation)
	_, err = f.svc.SaveRoutineSteps(ctx, "u1", "afternoon", nil)
	assert.ErrorIs(t, err, planner.ErrValidation)
}

// =============================================================================
// WINS
// =============================================================================

func TestCreateWin_FillsGoalFromMilestone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.svc.CreateGoal(ctx, "u1", planner.GoalInput{Title: "Marathon"})
	require.NoError(t, err)
	g, err = f.svc.AddMilestone(ctx, "u1", g.ID, planner.MilestoneInput{Title: "10k"})
	require.NoError(t, err)

	w, err := f.svc.CreateWin(ctx, "u1", planner.WinInput{Title: "Felt strong", MilestoneID: g.Milestones[0].ID})
	require.NoError(t, err)
	assert.Equal(t, g.ID, w.GoalID)
	assert.Equal(t, "Marathon", w.GoalTitle)
	assert.Equal(t, planner.SourceManual, w.Source)

	assert.ErrorIs(t, f.svc.DeleteWin(ctx, "u2", w.ID), planner.ErrForbidden)
	require.NoError(t, f.svc.DeleteWin(ctx, "u1", w.ID))
}

func TestListWins_StrangersAreForbidden(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListWins(context.Background(), "u2", "u1")
	assert.ErrorIs(t, err, planner.ErrForbidden)
}

func TestGroupWins(t *testing.T) {
	wins := []planner.Win{
		{ID: "1", Description: "Monthly goal hit"},
		{ID: "2", Description: "Completed weekly task"},
		{ID: "3", TaskID: "t"},
		{ID: "4"},
		{ID: "5", Description: "Completed milestone for X"},
	}
	groups := planner.GroupWins(wins)
	assert.Equal(t, "1", groups[planner.CategoryMonthlyGoals][0].ID)
	assert.Equal(t, "2", groups[planner.CategoryWeeklyGoals][0].ID)
	assert.Equal(t, "3", groups[planner.CategoryTasks][0].ID)
	assert.Equal(t, "4", groups[planner.CategoryGeneral][0].ID)
	assert.Equal(t, "5", groups[planner.CategoryMilestones][0].ID)
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "u1", "Ada")
	require.NoError(t, f.store.SaveSession(ctx, planner.Session{
		Token: "good", UserID: "u1", ExpiresAt: f.now.Add(time.Hour), CreatedAt: f.now,
	}))

	u, err := f.svc.Authenticate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.DisplayName)

	_, err = f.svc.Authenticate(ctx, "bad")
	assert.ErrorIs(t, err, planner.ErrUnauthenticated)
	_, err = f.svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, planner.ErrUnauthenticated)

	f.advance(2 * time.Hour)
	_, err = f.svc.Authenticate(ctx, "good")
	assert.ErrorIs(t, err, planner.ErrUnauthenticated)
}
