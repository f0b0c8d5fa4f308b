/*
handlers.go - HTTP API handlers for the Winning planner

PURPOSE:
  Exposes the planner service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to planner.Service. Handlers never
  talk SQL; the only direct store use is scenario loading.

ENDPOINTS:
  See server.go for the full route table. Every handler under /api except
  health, calendar and scenarios runs behind RequireSession and acts as
  the session user ("viewer").

REQUEST FLOW:
  1. Resolve the viewer from the request context
  2. Decode path params, query and JSON body
  3. Call one planner.Service operation
  4. Serialize the refreshed rows

ERROR HANDLING:
  Errors are returned as JSON {error, details?} with a status derived
  from the planner sentinel errors by statusFor:
  - 400: Validation errors, malformed body
  - 401: No valid session
  - 403: Row owned by someone else, not a circle member
  - 404: Row not found
  - 409: Uniqueness violation
  - 410: Invalid or expired invite
  - 500: Everything else (logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/winning-app/winning/period"
	"github.com/winning-app/winning/planner"
	"github.com/winning-app/winning/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *planner.Service
	Store     *sqlite.Store
	Logger    *zap.Logger
	Scheduler *ReconciliationScheduler

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler. A nil logger discards output.
func NewHandler(svc *planner.Service, store *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service:   svc,
		Store:     store,
		Logger:    logger,
		Scheduler: NewReconciliationScheduler(svc, logger),
	}
}

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Me returns the session user.
// GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserDTO(userFrom(r.Context())))
}

// =============================================================================
// CALENDAR HANDLERS - no database
// =============================================================================

// CalendarMonth returns the 6x7 grid of a month.
// GET /api/calendar/month/{ym}
func (h *Handler) CalendarMonth(w http.ResponseWriter, r *http.Request) {
	ym := chi.URLParam(r, "ym")
	cal := h.Service.Calendar()

	grid, err := cal.BuildMonthGrid(ym)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}
	start, end, _ := period.MonthDateRange(ym)
	days, _ := period.DaysInMonth(ym)
	prev, _ := period.PrevMonth(ym)
	next, _ := period.NextMonth(ym)

	writeJSON(w, http.StatusOK, CalendarMonthDTO{
		Month:       ym,
		Prev:        prev,
		Next:        next,
		Start:       start,
		End:         end,
		DaysInMonth: days,
		Headers:     cal.WeekdayHeaders(),
		Grid:        grid,
		Rows:        period.Rows(grid),
	})
}

// CalendarWeek returns the week containing a date.
// GET /api/calendar/week/{date}
func (h *Handler) CalendarWeek(w http.ResponseWriter, r *http.Request) {
	week, err := period.WeekOf(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

// =============================================================================
// CIRCLE HANDLERS
// =============================================================================

// CreateCircle creates a circle owned by the viewer.
// POST /api/circle, POST /api/circles
func (h *Handler) CreateCircle(w http.ResponseWriter, r *http.Request) {
	var req CreateCircleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	name, ok := req.Name.(string)
	if !ok || strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "Circle name is required", nil)
		return
	}

	c, err := h.Service.CreateCircle(r.Context(), viewerID(r), name)
	if err != nil {
		h.Logger.Warn("circle not created", zap.String("user_id", viewerID(r)), zap.Error(err))
		writeError(w, http.StatusBadRequest, "Failed to create circle", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": c.ID})
}

// ListCircles returns the viewer's circles, most recently joined first.
// GET /api/circles
func (h *Handler) ListCircles(w http.ResponseWriter, r *http.Request) {
	memberships, err := h.Service.ListCircles(r.Context(), viewerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]CircleDTO, len(memberships))
	for i, m := range memberships {
		dtos[i] = toCircleDTO(m.Circle)
		dtos[i].Role = string(m.Role)
		dtos[i].JoinedAt = formatTime(m.JoinedAt)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCircle returns a circle the viewer belongs to.
// GET /api/circles/{id}
func (h *Handler) GetCircle(w http.ResponseWriter, r *http.Request) {
	c, role, err := h.Service.GetCircle(r.Context(), viewerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dto := toCircleDTO(*c)
	dto.Role = string(role)
	writeJSON(w, http.StatusOK, dto)
}

// ListMembers returns the circle's members.
// GET /api/circles/{id}/members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Service.ListMembers(r.Context(), viewerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = toMemberDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateInvite issues an invite link. Owners only.
// POST /api/circles/{id}/invites
func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	var req CreateInviteRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	ttl := time.Duration(req.TTLHours) * time.Hour
	inv, err := h.Service.CreateInvite(r.Context(), viewerID(r), chi.URLParam(r, "id"), planner.Role(req.Role), ttl)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, InviteDTO{
		Token:     inv.Token,
		CircleID:  inv.CircleID,
		Role:      string(inv.Role),
		ExpiresAt: formatTime(inv.ExpiresAt),
		URL:       "/invite?token=" + url.QueryEscape(inv.Token),
	})
}

// RedeemInvite joins the viewer to the invite's circle.
// GET /invite?token=
func (h *Handler) RedeemInvite(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Missing invite token", nil)
		return
	}
	if userFrom(r.Context()) == nil {
		next := "/invite?token=" + url.QueryEscape(token)
		http.Redirect(w, r, "/login?next="+url.QueryEscape(next), http.StatusFound)
		return
	}

	circleID, err := h.Service.AcceptInvite(r.Context(), viewerID(r), token)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"circle_id": circleID})
}

// =============================================================================
// CIRCLE VIEW HANDLERS
// =============================================================================

// GET /api/circles/{id}/goals
func (h *Handler) CircleGoals(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.CircleGoals(r.Context(), viewerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]MemberGoalsDTO, len(rows))
	for i, row := range rows {
		dtos[i] = MemberGoalsDTO{Member: toMemberDTO(row.Member), Goals: toGoalDTOs(row.Goals)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GET /api/circles/{id}/habits?month=
func (h *Handler) CircleHabits(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.CircleHabits(r.Context(), viewerID(r), chi.URLParam(r, "id"), r.URL.Query().Get("month"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]MemberHabitsDTO, len(rows))
	for i, row := range rows {
		dtos[i] = MemberHabitsDTO{Member: toMemberDTO(row.Member), Habits: toHabitDTOs(row.Habits)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GET /api/circles/{id}/daily?date=
func (h *Handler) CircleDaily(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.CircleDaily(r.Context(), viewerID(r), chi.URLParam(r, "id"), r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]MemberDayDTO, len(rows))
	for i, row := range rows {
		dtos[i] = MemberDayDTO{
			Member:   toMemberDTO(row.Member),
			Priority: toTaskDTOPtr(row.Priority),
			Schedule: row.Schedule,
			Notes:    row.Notes,
			Todos:    toTaskDTOs(row.Todos),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GET /api/circles/{id}/weekly?date=
func (h *Handler) CircleWeekly(w http.ResponseWriter, r *http.Request) {
	week, rows, err := h.Service.CircleWeekly(r.Context(), viewerID(r), chi.URLParam(r, "id"), r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := CircleWeeklyResponse{Week: week, Members: make([]MemberWeekDTO, len(rows))}
	for i, row := range rows {
		resp.Members[i] = MemberWeekDTO{
			Member:     toMemberDTO(row.Member),
			LastReview: toReviewDTO(row.LastReview),
			ThisReview: toReviewDTO(row.ThisReview),
			Tasks:      toTaskDTOs(row.Tasks),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/circles/{id}/calendar?month=
func (h *Handler) CircleCalendar(w http.ResponseWriter, r *http.Request) {
	frame, rows, err := h.Service.CircleCalendar(r.Context(), viewerID(r), chi.URLParam(r, "id"), r.URL.Query().Get("month"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := CircleCalendarResponse{Month: toMonthDTO(frame), Members: make([]MemberEventsDTO, len(rows))}
	for i, row := range rows {
		resp.Members[i] = MemberEventsDTO{Member: toMemberDTO(row.Member), Events: toTaskDTOs(row.Events)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/circles/{id}/routines
func (h *Handler) CircleRoutines(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.CircleRoutines(r.Context(), viewerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	today := h.Service.Calendar().Today()
	dtos := make([]MemberRoutinesDTO, len(rows))
	for i, row := range rows {
		dtos[i] = MemberRoutinesDTO{Member: toMemberDTO(row.Member), Routines: toRoutineDTOs(row.Routines, today)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GET /api/circles/{id}/wins
func (h *Handler) CircleWins(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.CircleWins(r.Context(), viewerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]WinDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toWinDTO(row.Win)
		dtos[i].DisplayName = row.DisplayName
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// GOAL HANDLERS
// =============================================================================

// GET /api/goals
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.Service.ListGoals(r.Context(), viewerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalDTOs(goals))
}

// POST /api/goals
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req GoalRequest
	if !decode(w, r, &req) {
		return
	}
	g, err := h.Service.CreateGoal(r.Context(), viewerID(r), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalDTO(*g))
}

// PUT /api/goals/{id}
func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req GoalRequest
	if !decode(w, r, &req) {
		return
	}
	g, err := h.Service.UpdateGoal(r.Context(), viewerID(r), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalDTO(*g))
}

// DELETE /api/goals/{id}
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteGoal(r.Context(), viewerID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/goals/{id}/milestones
func (h *Handler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	var req MilestoneRequest
	if !decode(w, r, &req) {
		return
	}
	g, err := h.Service.AddMilestone(r.Context(), viewerID(r), chi.URLParam(r, "id"), planner.MilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		DueWeek:     req.DueWeek,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalDTO(*g))
}

// PUT /api/milestones/{id}/toggle
func (h *Handler) ToggleMilestone(w http.ResponseWriter, r *http.Request) {
	g, err := h.Service.ToggleMilestone(r.Context(), viewerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalDTO(*g))
}

// DELETE /api/milestones/{id}
func (h *Handler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteMilestone(r.Context(), viewerID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HABIT HANDLERS
// =============================================================================

// GET /api/habits?month=
func (h *Handler) ListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := h.Service.ListHabits(r.Context(), viewerID(r), r.URL.Query().Get("month"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHabitDTOs(habits))
}

// POST /api/habits
func (h *Handler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	var req HabitRequest
	if !decode(w, r, &req) {
		return
	}
	habit, err := h.Service.CreateHabit(r.Context(), viewerID(r), req.Name, req.MonthYear)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHabitDTO(*habit))
}

// PUT /api/habits/{id}
func (h *Handler) RenameHabit(w http.ResponseWriter, r *http.Request) {
	var req HabitRequest
	if !decode(w, r, &req) {
		return
	}
	habit, err := h.Service.RenameHabit(r.Context(), viewerID(r), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHabitDTO(*habit))
}

// DELETE /api/habits/{id}
func (h *Handler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteHabit(r.Context(), viewerID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetHabitCheck marks or clears one day.
// PUT /api/habits/{id}/checks/{date}
func (h *Handler) SetHabitCheck(w http.ResponseWriter, r *http.Request) {
	var req HabitCheckRequest
	if !decode(w, r, &req) {
		return
	}
	habit, err := h.Service.SetHabitCheck(r.Context(), viewerID(r), chi.URLParam(r, "id"), chi.URLParam(r, "date"), req.Completed)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHabitDTO(*habit))
}

// GET /api/habits/{id}/stats
func (h *Handler) HabitStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.HabitStats(r.Context(), viewerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HabitStatsDTO{
		HabitID:        stats.HabitID,
		Streak:         stats.Streak,
		CheckedDays:    stats.CheckedDays,
		DaysInMonth:    stats.DaysInMonth,
		CompletionRate: stats.CompletionRate.String(),
	})
}

// =============================================================================
// ROUTINE HANDLERS
// =============================================================================

// GET /api/routines
func (h *Handler) ListRoutines(w http.ResponseWriter, r *http.Request) {
	routines, err := h.Service.ListRoutines(r.Context(), viewerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoutineDTOs(routines, h.Service.Calendar().Today()))
}

// SaveRoutineSteps replaces the step list.
// PUT /api/routines/{type}/steps
func (h *Handler) SaveRoutineSteps(w http.ResponseWriter, r *http.Request) {
	var req StepsRequest
	if !decode(w, r, &req) {
		return
	}
	steps := make([]planner.StepInput, len(req.Steps))
	for i, s := range req.Steps {
		steps[i] = planner.StepInput{ID: s.ID, Text: s.Text, DurationMinutes: s.DurationMinutes}
	}
	routine, err := h.Service.SaveRoutineSteps(r.Context(), viewerID(r), routineType(r), steps)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoutineDTO(*routine, h.Service.Calendar().Today()))
}

// POST /api/routines/{type}/steps/{stepID}/move
func (h *Handler) MoveRoutineStep(w http.ResponseWriter, r *http.Request) {
	var req MoveStepRequest
	if !decode(w, r, &req) {
		return
	}
	var dir planner.Direction
	switch req.Direction {
	case "up":
		dir = planner.Up
	case "down":
		dir = planner.Down
	default:
		writeError(w, http.StatusBadRequest, "direction must be up or down", nil)
		return
	}
	routine, err := h.Service.MoveRoutineStep(r.Context(), viewerID(r), routineType(r), chi.URLParam(r, "stepID"), dir)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoutineDTO(*routine, h.Service.Calendar().Today()))
}

// ToggleRoutineStep flips a step for today.
// PUT /api/routines/{type}/steps/{stepID}/today
func (h *Handler) ToggleRoutineStep(w http.ResponseWriter, r *http.Request) {
	routine, err := h.Service.ToggleRoutineStepToday(r.Context(), viewerID(r), routineType(r), chi.URLParam(r, "stepID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoutineDTO(*routine, h.Service.Calendar().Today()))
}

func routineType(r *http.Request) planner.RoutineType {
	return planner.RoutineType(chi.URLParam(r, "type"))
}

// =============================================================================
// DAY PLANNER HANDLERS
// =============================================================================

// GET /api/planner/day/{date}
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	day, err := h.Service.LoadDay(r.Context(), viewerID(r), chi.URLParam(r, "date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dto := DayDTO{
		Date:     day.Date,
		Prev:     day.Prev,
		Next:     day.Next,
		Priority: toTaskDTOPtr(day.Priority),
		Todos:    toTaskDTOs(day.Todos),
	}
	if day.Notes != nil {
		dto.Schedule = day.Notes.Schedule
		dto.Notes = day.Notes.Notes
	}
	writeJSON(w, http.StatusOK, dto)
}

// SetPriority upserts the day's priority; a blank title clears it.
// PUT /api/planner/day/{date}/priority
func (h *Handler) SetPriority(w http.ResponseWriter, r *http.Request) {
	var req PriorityRequest
	if !decode(w, r, &req) {
		return
	}
	task, err := h.Service.SetPriority(r.Context(), viewerID(r), chi.URLParam(r, "date"), req.Title)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTOPtr(task))
}

// PUT /api/planner/day/{date}/notes
func (h *Handler) SaveDayNotes(w http.ResponseWriter, r *http.Request) {
	var req DayNotesRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.Service.SaveDayNotes(r.Context(), viewerID(r), chi.URLParam(r, "date"), req.Schedule, req.Notes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DayNotesRequest{Schedule: n.Schedule, Notes: n.Notes})
}

// POST /api/planner/day/{date}/todos
func (h *Handler) AddTodo(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if !decode(w, r, &req) {
		return
	}
	task, err := h.Service.AddTodo(r.Context(), viewerID(r), chi.URLParam(r, "date"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskDTO(*task))
}

// =============================================================================
// WEEK PLANNER HANDLERS
// =============================================================================

// GetWeek normalizes any date to its week.
// GET /api/planner/week/{date}
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	week, err := h.Service.LoadWeek(r.Context(), viewerID(r), chi.URLParam(r, "date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, WeekDTO{
		Week:       week.Week,
		LastReview: toReviewDTO(week.LastReview),
		ThisReview: toReviewDTO(week.ThisReview),
		Tasks:      toTaskDTOs(week.Tasks),
	})
}

// PUT /api/planner/week/{date}/review
func (h *Handler) SaveWeekReview(w http.ResponseWriter, r *http.Request) {
	var req WeekReviewRequest
	if !decode(w, r, &req) {
		return
	}
	review, err := h.Service.SaveWeekReview(r.Context(), viewerID(r), chi.URLParam(r, "date"), planner.WeekReviewInput{
		Achievements: req.Achievements,
		Lessons:      req.Lessons,
		Reflections:  req.Reflections,
		NextFocus:    req.NextFocus,
		TopOutcomes:  req.TopOutcomes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewDTO(review))
}

// POST /api/planner/week/{date}/tasks
func (h *Handler) AddWeekTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if !decode(w, r, &req) {
		return
	}
	task, err := h.Service.AddWeekTask(r.Context(), viewerID(r), chi.URLParam(r, "date"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskDTO(*task))
}

// =============================================================================
// MONTH PLANNER HANDLERS
// =============================================================================

// GET /api/planner/month/{ym}
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	month, err := h.Service.LoadMonth(r.Context(), viewerID(r), chi.URLParam(r, "ym"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthDTO(month))
}

// PUT /api/planner/month/{ym}/goals
func (h *Handler) SaveMonthGoals(w http.ResponseWriter, r *http.Request) {
	var req MonthTextRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.Service.SaveMonthGoals(r.Context(), viewerID(r), chi.URLParam(r, "ym"), req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MonthNotesDTO{MonthYear: n.MonthYear, Goals: n.Goals, Review: n.Review})
}

// SaveMonthReview writes the review of {ym}. Clients review the month
// that just ended, so {ym} is usually the previous month.
// PUT /api/planner/month/{ym}/review
func (h *Handler) SaveMonthReview(w http.ResponseWriter, r *http.Request) {
	var req MonthTextRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.Service.SaveMonthReview(r.Context(), viewerID(r), chi.URLParam(r, "ym"), req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MonthNotesDTO{MonthYear: n.MonthYear, Goals: n.Goals, Review: n.Review})
}

// POST /api/planner/month/{ym}/events
func (h *Handler) AddEvent(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Date != "" && !period.InMonth(req.Date, chi.URLParam(r, "ym")) {
		writeError(w, http.StatusBadRequest, "date: must fall in "+chi.URLParam(r, "ym"), nil)
		return
	}
	task, err := h.Service.AddEvent(r.Context(), viewerID(r), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskDTO(*task))
}

// =============================================================================
// TASK HANDLERS
// =============================================================================

// PUT /api/tasks/{id}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if !decode(w, r, &req) {
		return
	}
	task, err := h.Service.UpdateTask(r.Context(), viewerID(r), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(*task))
}

// SetTaskStatus moves a task between planned, in_progress and done.
// PUT /api/tasks/{id}/status
func (h *Handler) SetTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decode(w, r, &req) {
		return
	}
	task, err := h.Service.SetTaskStatus(r.Context(), viewerID(r), chi.URLParam(r, "id"), planner.TaskStatus(req.Status))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(*task))
}

// ToggleTask flips a task between planned and done.
// POST /api/tasks/{id}/toggle
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.Service.ToggleTask(r.Context(), viewerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(*task))
}

// DELETE /api/tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteTask(r.Context(), viewerID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// WIN HANDLERS
// =============================================================================

// ListWins returns the viewer's feed, or ?user_id= of a circle mate.
// GET /api/wins
func (h *Handler) ListWins(w http.ResponseWriter, r *http.Request) {
	wins, err := h.Service.ListWins(r.Context(), viewerID(r), r.URL.Query().Get("user_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWinsResponse(wins))
}

// POST /api/wins
func (h *Handler) CreateWin(w http.ResponseWriter, r *http.Request) {
	var req WinRequest
	if !decode(w, r, &req) {
		return
	}
	win, err := h.Service.CreateWin(r.Context(), viewerID(r), planner.WinInput{
		Title:       req.Title,
		Description: req.Description,
		GoalID:      req.GoalID,
		MilestoneID: req.MilestoneID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWinDTO(*win))
}

// DELETE /api/wins/{id}
func (h *Handler) DeleteWin(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteWin(r.Context(), viewerID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

// TriggerReconcile runs one win reconciliation sweep.
// POST /api/admin/reconcile
func (h *Handler) TriggerReconcile(w http.ResponseWriter, r *http.Request) {
	run, err := h.Scheduler.RunNow(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run))
}

// ReconciliationStatus reports whether background sweeps run and when
// the next one is due.
// GET /api/admin/reconciliation/status
func (h *Handler) ReconciliationStatus(w http.ResponseWriter, r *http.Request) {
	rs := h.Scheduler
	resp := ReconcileStatusDTO{
		Running:  rs.Running(),
		Interval: rs.CheckInterval.String(),
	}
	if last := rs.LastTick(); !last.IsZero() {
		resp.LastTick = formatTimePtr(&last)
	}
	if next := rs.NextRunTime(); !next.IsZero() {
		resp.NextRun = formatTimePtr(&next)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/admin/reconciliation/runs?limit=
func (h *Handler) ListReconciliationRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.Service.ReconciliationRuns(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps planner errors to an HTTP status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, planner.ErrUnauthenticated):
		return http.StatusUnauthorized, "Not authenticated"
	case errors.Is(err, planner.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, planner.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, planner.ErrInviteInvalid):
		return http.StatusGone, "Invalid or expired invite"
	case errors.Is(err, planner.ErrDuplicate):
		return http.StatusConflict, err.Error()
	case planner.IsClientError(err):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "Internal server error"
}

// fail writes the error reply for err. Server errors are logged and
// their details withheld.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeError(w, status, message, nil)
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// decodeOptional is decode for endpoints whose body may be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	return decode(w, r, v)
}

func isUnauthenticated(err error) bool {
	return errors.Is(err, planner.ErrUnauthenticated)
}
