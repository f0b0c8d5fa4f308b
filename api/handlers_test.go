/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Session enforcement and error mapping
- Circle creation and invite redemption
- Goals, habits, day and week planner round trips
- Calendar endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
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

type testServer struct {
	h      *Handler
	router *chi.Mux
}

func setupTestHandler(t *testing.T) *Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cal := period.NewCalendar(time.UTC)
	cal.Now = func() time.Time { return wednesday }
	svc := planner.NewService(store, cal, zap.NewNop())
	return NewHandler(svc, store, zap.NewNop())
}

// newTestServer serves the demo routes and makes alice an admin.
func newTestServer(t *testing.T) *testServer {
	return newTestServerWith(t, RouterOptions{Demo: true, Admins: []string{"alice"}})
}

func newTestServerWith(t *testing.T, opts RouterOptions) *testServer {
	h := setupTestHandler(t)
	return &testServer{h: h, router: NewRouter(h, opts)}
}

// login creates a user with a session and returns its token.
func (s *testServer) login(t *testing.T, id, name string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.h.Store.SaveUser(ctx, planner.User{
		ID: id, Email: id + "@example.com", DisplayName: name, CreatedAt: wednesday,
	}))
	token := "token-" + id
	require.NoError(t, s.h.Store.SaveSession(ctx, planner.Session{
		Token: token, UserID: id, ExpiresAt: wednesday.Add(time.Hour), CreatedAt: wednesday,
	}))
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func trimmed(rec *httptest.ResponseRecorder) string {
	return strings.TrimSpace(rec.Body.String())
}

// =============================================================================
// SESSIONS & ERRORS
// =============================================================================

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequireSession(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice", "Alice")

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"unknown token", "nope", http.StatusUnauthorized},
		{"valid token", token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/me", tt.token, nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	me := decodeBody[UserDTO](t, s.do(t, http.MethodGet, "/api/me", token, nil))
	assert.Equal(t, "alice", me.ID)
	assert.Equal(t, "Alice", me.DisplayName)
}

func TestSessionCookie(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice", "Alice")

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice", "Alice")
	bob := s.login(t, "bob", "Bob")

	goal := decodeBody[GoalDTO](t, s.do(t, http.MethodPost, "/api/goals", alice, GoalRequest{Title: "Mine"}))

	rec := s.do(t, http.MethodPut, "/api/goals/"+goal.ID, bob, GoalRequest{Title: "Stolen"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/goals/missing", alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/goals", alice, GoalRequest{Title: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Error, "title")

	rec = s.do(t, http.MethodPost, "/api/goals", alice, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeBody[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodGet, "/api/nowhere", alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

// =============================================================================
// CIRCLES & INVITES
// =============================================================================

func TestCreateCircle_Validation(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice", "Alice")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"number name", `{"name": 42}`, http.StatusBadRequest},
		{"blank name", `{"name": "   "}`, http.StatusBadRequest},
		{"missing name", `{}`, http.StatusBadRequest},
		{"valid", `{"name": "Runners"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/circle", alice, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	circles := decodeBody[[]CircleDTO](t, s.do(t, http.MethodGet, "/api/circles", alice, nil))
	require.Len(t, circles, 1)
	assert.Equal(t, "Runners", circles[0].Name)
	assert.Equal(t, "owner", circles[0].Role)
}

func TestInviteFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice", "Alice")
	bob := s.login(t, "bob", "Bob")

	created := decodeBody[map[string]string](t, s.do(t, http.MethodPost, "/api/circles", alice, `{"name":"Crew"}`))
	circleID := created["id"]
	require.NotEmpty(t, circleID)

	// Members cannot invite; bob is not even a member yet.
	rec := s.do(t, http.MethodPost, "/api/circles/"+circleID+"/invites", bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/circles/"+circleID+"/invites", alice, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	inv := decodeBody[InviteDTO](t, rec)
	assert.Equal(t, "member", inv.Role)
	assert.Equal(t, "/invite?token="+url.QueryEscape(inv.Token), inv.URL)

	// Without a session the visitor is sent to login and back.
	rec = s.do(t, http.MethodGet, inv.URL, "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next="+url.QueryEscape(inv.URL), rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, inv.URL, bob, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, circleID, decodeBody[map[string]string](t, rec)["circle_id"])

	// Single use.
	carol := s.login(t, "carol", "Carol")
	rec = s.do(t, http.MethodGet, inv.URL, carol, nil)
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "Invalid or expired invite", decodeBody[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodGet, "/invite", bob, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	members := decodeBody[[]MemberDTO](t, s.do(t, http.MethodGet, "/api/circles/"+circleID+"/members", bob, nil))
	require.Len(t, members, 2)

	rec = s.do(t, http.MethodGet, "/api/circles/"+circleID+"/goals", carol, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCircleViews(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice", "Alice")
	bob := s.login(t, "bob", "Bob")

	circleID := decodeBody[map[string]string](t, s.do(t, http.MethodPost, "/api/circles", alice, `{"name":"Crew"}`))["id"]
	inv := decodeBody[InviteDTO](t, s.do(t, http.MethodPost, "/api/circles/"+circleID+"/invites", alice, nil))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, inv.URL, bob, nil).Code)

	s.do(t, http.MethodPost, "/api/goals", bob, GoalRequest{Title: "Bob's goal"})
	s.do(t, http.MethodPut, "/api/planner/day/2024-03-06/priority", bob, PriorityRequest{Title: "Focus"})

	goals := decodeBody[[]MemberGoalsDTO](t, s.do(t, http.MethodGet, "/api/circles/"+circleID+"/goals", alice, nil))
	require.Len(t, goals, 2)
	titles := map[string]int{}
	for _, row := range goals {
		titles[row.Member.UserID] = len(row.Goals)
	}
	assert.Equal(t, map[string]int{"alice": 0, "bob": 1}, titles)

	daily := decodeBody[[]MemberDayDTO](t, s.do(t, http.MethodGet, "/api/circles/"+circleID+"/daily?date=2024-03-06", alice, nil))
	for _, row := range daily {
		if row.Member.UserID == "bob" {
			require.NotNil(t, row.Priority)
			assert.Equal(t, "Focus", row.Priority.Title)
		}
	}

	weekly := decodeBody[CircleWeeklyResponse](t, s.do(t, http.MethodGet, "/api/circles/"+circleID+"/weekly?date=2024-03-06", alice, nil))
	assert.Equal(t, "2024-03-04", weekly.Week.Start)
	assert.Len(t, weekly.Members, 2)

	cal := decodeBody[CircleCalendarResponse](t, s.do(t, http.MethodGet, "/api/circles/"+circleID+"/calendar?month=2024-03", alice, nil))
	assert.Len(t, cal.Month.Grid, period.GridCells)
	assert.Len(t, cal.Members, 2)

	for _, view := range []string{"habits?month=2024-03", "routines", "wins"} {
		rec := s.do(t, http.MethodGet, "/api/circles/"+circleID+"/"+view, alice, nil)
		assert.Equal(t, http.StatusOK, rec.Code, view)
	}
}

// =============================================================================
// GOALS, HABITS & ROUTINES
// =============================================================================

func TestGoalMilestonesAndWins(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice", "Alice")

	rec := s.do(t, http.MethodPost, "/api/goals", alice, GoalRequest{Title: "Run", Horizon: "short-term"})
	require.Equal(t, http.StatusCreated, rec.Code)
	goal := decodeBody[GoalDTO](t, rec)
	assert.Equal(t, "0", goal.Progress)

	goal = decodeBody[GoalDTO](t, s.do(t, http.MethodPost, "/api/goals/"+goal.ID+"/milestones", alice,
		MilestoneRequest{Title: "5k", DueWeek: "2024-03-08"}))
	require.Len(t, goal.Milestones, 1)
	assert.Equal(t, "2024-03-04", goal.Milestones[0].DueWeek)

	goal = decodeBody[GoalDTO](t, s.do(t, http.MethodPut, "/api/milestones/"+goal.Milestones[0].ID+"/toggle", alice, nil))
	assert.Equal(t, "100", goal.Progress)
	assert.True(t, goal.Milestones[0].Completed)

	wins := decodeBody[WinsResponse](t, s.do(t, http.MethodGet, "/api/wins", alice, nil))
	require.Len(t, wins.Wins, 1)
	assert.Equal(t, "5k", wins.Wins[0].Title)
	assert.Equal(t, "milestone", wins.Wins[0].Source)

	rec = s.do(t, http.MethodDelete, "/api/goals/"+goal.ID, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	goals := decodeBody[[]GoalDTO](t, s.do(t, http.MethodGet, "/api/goals", alice, nil))
	assert.Empty(t, goals)
}

func TestHabitChecksAndStats(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice", "Alice")

	habit := decodeBody[HabitDTO](t, s.do(t, http.MethodPost, "/api/habits", alice, HabitRequest{Name: "Read"}))
	assert.Equal(t, "2024-03", habit.MonthYear)

	for _, d := range []string{"2024-03-04", "2024-03-05", "2024-03-06"} {
		rec := s.do(t, http.MethodPut, "/api/habits/"+habit.ID+"/checks/"+d, alice, HabitCheckRequest{Completed: true})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	habit = decodeBody[HabitDTO](t, s.do(t, http.MethodPut, "/api/habits/"+habit.ID+"/checks/2024-03-05", alice,
		HabitCheckRequest{Completed: false}))
	assert.Equal(t, []string{"2024-03-04", "2024-03-06"}, habit.CheckedDates)

	rec := s.do(t, http.MethodPut, "/api/habits/"+habit.ID+"/checks/2024-04-01", alice, HabitCheckRequest{Completed: true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stats := decodeBody[HabitStatsDTO](t, s.do(t, http.MethodGet, "/api/habits/"+habit.ID+"/stats", alice, nil))
	assert.Equal(t, 1, stats.Streak)
	assert.Equal(t, 2, stats.CheckedDays)
	assert.Equal(t, 31, stats.DaysInMonth)
}

func TestRoutineSteps(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice", "Alice")

	routine := decodeBody[RoutineDTO](t, s.do(t, http.MethodPut, "/api/routines/morning/steps", alice, StepsRequest{
		Steps: []StepRequest{{Text: "Water"}, {Text: "Stretch"}},
	}))
	require.Len(t, routine.Steps, 2)
	stretch := routine.Steps[1].ID

	routine = decodeBody[RoutineDTO](t, s.do(t, http.MethodPost, "/api/routines/morning/steps/"+stretch+"/move", alice,
		MoveStepRequest{Direction: "up"}))
	assert.Equal(t, stretch, routine.Steps[0].ID)

	rec := s.do(t, http.MethodPost, "/api/routines/morning/steps/"+stretch+"/move", alice, MoveStepRequest{Direction: "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	routine = decodeBody[RoutineDTO](t, s.do(t, http.MethodPut, "/api/routines/morning/steps/"+stretch+"/today", alice, nil))
	assert.True(t, routine.Steps[0].DoneToday)
	assert.Equal(t, []string{"2024-03-06"}, routine.Steps[0].CompletedDates)

	routines := decodeBody[[]RoutineDTO](t, s.do(t, http.MethodGet, "/api/routines", alice, nil))
	assert.Len(t, routines, 2)
}

// =============================================================================
// PLANNERS & TASKS
// =============================================================================

func TestDayPlanner(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice", "Alice")
	day := "/api/planner/day/2024-03-06"

	rec := s.do(t, http.MethodPut, day+"/priority", alice, PriorityRequest{Title: "Ship it"})
	require.Equal(t, http.StatusOK, rec.Code)
	s.do(t, http.MethodPut, day+"/notes", alice, DayNotesRequest{Schedule: "9am standup", Notes: "calm"})
	todo := decodeBody[TaskDTO](t, s.do(t, http.MethodPost, day+"/todos", alice, TaskRequest{Title: "Email"}))
	assert.Equal(t, "task", todo.Type)

	got := decodeBody[DayDTO](t, s.do(t, http.MethodGet, day, alice, nil))
	assert.Equal(t, "2024-03-05", got.Prev)
	assert.Equal(t, "2024-03-07", got.Next)
	require.NotNil(t, got.Priority)
	assert.Equal(t, "Ship it", got.Priority.Title)
	assert.Equal(t, "9am standup", got.Schedule)
	require.Len(t, got.Todos, 1)

	task := decodeBody[TaskDTO](t, s.do(t, http.MethodPut, "/api/tasks/"+todo.ID+"/status", alice, StatusRequest{Status: "done"}))
	assert.Equal(t, "done", task.Status)
	rec = s.do(t, http.MethodPut, "/api/tasks/"+todo.ID+"/status", alice, StatusRequest{Status: "finished"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Toggling flips between done and planned.
	task = decodeBody[TaskDTO](t, s.do(t, http.MethodPost, "/api/tasks/"+todo.ID+"/toggle", alice, nil))
	assert.Equal(t, "planned", task.Status)
	task = decodeBody[TaskDTO](t, s.do(t, http.MethodPost, "/api/tasks/"+todo.ID+"/toggle", alice, nil))
	assert.Equal(t, "done", task.Status)
	bob := s.login(t, "bob", "Bob")
	rec = s.do(t, http.MethodPost, "/api/tasks/"+todo.ID+"/toggle", bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Clearing the priority answers null.
	rec = s.do(t, http.MethodPut, day+"/priority", alice, PriorityRequest{Title: ""})
	assert.Equal(t, "null", trimmed(rec))

	rec = s.do(t, http.MethodGet, "/api/planner/day/06-03-2024", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeekPlanner(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice", "Alice")

	review := decodeBody[ReviewDTO](t, s.do(t, http.MethodPut, "/api/planner/week/2024-02-28/review", alice,
		WeekReviewRequest{Achievements: "Shipped", TopOutcomes: "a\nb"}))
	assert.Equal(t, "2024-02-26", review.WeekStart)

	rec := s.do(t, http.MethodPost, "/api/planner/week/2024-03-06/tasks", alice, TaskRequest{Title: "Gym x3"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2024-03-04", decodeBody[TaskDTO](t, rec).Date)

	rec = s.do(t, http.MethodPost, "/api/planner/week/2024-03-06/tasks", alice, TaskRequest{Title: "Late", Date: "2024-03-11"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	week := decodeBody[WeekDTO](t, s.do(t, http.MethodGet, "/api/planner/week/2024-03-09", alice, nil))
	assert.Equal(t, "2024-03-04", week.Week.Start)
	require.NotNil(t, week.LastReview)
	assert.Equal(t, "Shipped", week.LastReview.Achievements)
	assert.Nil(t, week.ThisReview)
	assert.Len(t, week.Tasks, 1)
}

func TestMonthPlanner(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice", "Alice")

	s.do(t, http.MethodPut, "/api/planner/month/2024-02/review", alice, MonthTextRequest{Text: "Good month"})
	s.do(t, http.MethodPut, "/api/planner/month/2024-03/goals", alice, MonthTextRequest{Text: "Run more"})

	rec := s.do(t, http.MethodPost, "/api/planner/month/2024-03/events", alice, TaskRequest{Title: "Dentist", Date: "2024-03-20", Time: "14:30"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/planner/month/2024-03/events", alice, TaskRequest{Title: "Elsewhere", Date: "2024-04-02"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	month := decodeBody[MonthDTO](t, s.do(t, http.MethodGet, "/api/planner/month/2024-03", alice, nil))
	assert.Equal(t, "Run more", month.Goals)
	assert.Equal(t, "Good month", month.PrevReview)
	require.Len(t, month.Events, 1)
	assert.Equal(t, "14:30", month.Events[0].Time)
	assert.Len(t, month.Grid, period.GridCells)
}

// =============================================================================
// CALENDAR & RECONCILIATION
// =============================================================================

func TestCalendarMonth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/calendar/month/2024-02", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[CalendarMonthDTO](t, rec)
	assert.Equal(t, 29, got.DaysInMonth)
	assert.Equal(t, "2024-01", got.Prev)
	assert.Equal(t, "2024-03", got.Next)
	assert.Len(t, got.Grid, period.GridCells)
	assert.Len(t, got.Rows, 6)
	assert.Equal(t, "Sun", got.Headers[0])

	rec = s.do(t, http.MethodGet, "/api/calendar/month/2024-13", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/calendar/week/2024-03-10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-04", decodeBody[period.Week](t, rec).Start)
}

func TestTriggerReconcile(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice", "Alice")

	rec := s.do(t, http.MethodPost, "/api/admin/reconcile", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	run := decodeBody[RunDTO](t, rec)
	assert.Equal(t, planner.RunCompleted, run.Status)

	runs := decodeBody[[]RunDTO](t, s.do(t, http.MethodGet, "/api/admin/reconciliation/runs?limit=5", alice, nil))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestReconciliationStatus(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice", "Alice")

	status := decodeBody[ReconcileStatusDTO](t, s.do(t, http.MethodGet, "/api/admin/reconciliation/status", alice, nil))
	assert.False(t, status.Running)
	assert.Equal(t, "1h0m0s", status.Interval)
	assert.Nil(t, status.NextRun)

	s.h.Scheduler.Start()
	defer s.h.Scheduler.Stop()
	require.Eventually(t, func() bool { return !s.h.Scheduler.LastTick().IsZero() }, time.Second, 5*time.Millisecond)

	status = decodeBody[ReconcileStatusDTO](t, s.do(t, http.MethodGet, "/api/admin/reconciliation/status", alice, nil))
	assert.True(t, status.Running)
	require.NotNil(t, status.LastTick)
	require.NotNil(t, status.NextRun)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	s := newTestServer(t)
	bob := s.login(t, "bob", "Bob")

	rec := s.do(t, http.MethodPost, "/api/admin/reconcile", bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/admin/reconciliation/runs", bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/admin/reconcile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	runs, err := s.h.Service.ReconciliationRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRouter_WithoutDemoOrAdmins(t *testing.T) {
	s := newTestServerWith(t, RouterOptions{})
	alice := s.login(t, "alice", "Alice")

	rec := s.do(t, http.MethodPost, "/api/scenarios/load", "", LoadScenarioRequest{ScenarioID: "solo-planner"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/scenarios", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/reconcile", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The rest of the API is unaffected.
	rec = s.do(t, http.MethodGet, "/api/me", alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
