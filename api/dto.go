/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the planner domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific formatting (timestamps, decimals)
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Social:    UserDTO, CircleDTO, MemberDTO, InviteDTO
  Planning:  GoalDTO, MilestoneDTO, HabitDTO, HabitStatsDTO, RoutineDTO
  Planners:  TaskDTO, DayDTO, WeekDTO, ReviewDTO, MonthDTO, MonthNotesDTO
  Wins:      WinDTO, WinsResponse, RunDTO, ReconcileStatusDTO
  Scenarios: ScenarioDTO, LoadScenarioRequest, LoadScenarioResponse

FORMATS:
  Dates and months are the period keys ("2006-01-02", "2006-01").
  Timestamps are RFC3339. Percentages are decimal strings ("50").

VALIDATION:
  Validation is done by the planner service, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - planner/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/winning-app/winning/period"
	"github.com/winning-app/winning/planner"
)

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// USERS & CIRCLES
// =============================================================================

type UserDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type CircleDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
	Role      string `json:"role,omitempty"`
	JoinedAt  string `json:"joined_at,omitempty"`
}

type MemberDTO struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	JoinedAt    string `json:"joined_at"`
}

type InviteDTO struct {
	Token     string `json:"token"`
	CircleID  string `json:"circle_id"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at"`
	URL       string `json:"url"`
}

// CreateCircleRequest keeps Name untyped so a non-string name is a 400.
type CreateCircleRequest struct {
	Name any `json:"name"`
}

type CreateInviteRequest struct {
	Role     string `json:"role"`
	TTLHours int    `json:"ttl_hours"`
}

// =============================================================================
// GOALS & MILESTONES
// =============================================================================

type GoalDTO struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Horizon       string         `json:"horizon"`
	Deadline      string         `json:"deadline,omitempty"`
	Why           string         `json:"why,omitempty"`
	ActionPlan    string         `json:"action_plan,omitempty"`
	StrategyNotes string         `json:"strategy_notes,omitempty"`
	Completed     bool           `json:"completed"`
	CompletedAt   *string        `json:"completed_at,omitempty"`
	CreatedAt     string         `json:"created_at"`
	Progress      string         `json:"progress"`
	Milestones    []MilestoneDTO `json:"milestones"`
}

type MilestoneDTO struct {
	ID          string  `json:"id"`
	GoalID      string  `json:"goal_id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	DueWeek     string  `json:"due_week,omitempty"`
	Completed   bool    `json:"completed"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// ReconcileStatusDTO describes the background reconciliation schedule.
type ReconcileStatusDTO struct {
	Running  bool    `json:"running"`
	Interval string  `json:"interval"`
	LastTick *string `json:"last_tick,omitempty"`
	NextRun  *string `json:"next_run,omitempty"`
}

type GoalRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Horizon       string `json:"horizon"`
	Deadline      string `json:"deadline"`
	Why           string `json:"why"`
	ActionPlan    string `json:"action_plan"`
	StrategyNotes string `json:"strategy_notes"`
	Completed     *bool  `json:"completed"`
}

type MilestoneRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueWeek     string `json:"due_week"`
}

// =============================================================================
// HABITS & ROUTINES
// =============================================================================

type HabitDTO struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MonthYear    string   `json:"month_year"`
	CheckedDates []string `json:"checked_dates"`
	CreatedAt    string   `json:"created_at"`
}

type HabitStatsDTO struct {
	HabitID        string `json:"habit_id"`
	Streak         int    `json:"streak"`
	CheckedDays    int    `json:"checked_days"`
	DaysInMonth    int    `json:"days_in_month"`
	CompletionRate string `json:"completion_rate"`
}

type HabitRequest struct {
	Name      string `json:"name"`
	MonthYear string `json:"month_year"`
}

type HabitCheckRequest struct {
	Completed bool `json:"completed"`
}

type RoutineDTO struct {
	ID    string    `json:"id,omitempty"`
	Type  string    `json:"type"`
	Steps []StepDTO `json:"steps"`
}

type StepDTO struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	CompletedDates  []string `json:"completed_dates"`
	DoneToday       bool     `json:"done_today"`
}

type StepsRequest struct {
	Steps []StepRequest `json:"steps"`
}

type StepRequest struct {
	ID              string `json:"id"`
	Text            string `json:"text"`
	DurationMinutes *int   `json:"duration_minutes"`
}

type MoveStepRequest struct {
	Direction string `json:"direction"` // "up" or "down"
}

// =============================================================================
// TASKS & PLANNERS
// =============================================================================

type TaskDTO struct {
	ID                string `json:"id"`
	Type              string `json:"type"`
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	Date              string `json:"date"`
	Time              string `json:"time,omitempty"`
	Priority          string `json:"priority,omitempty"`
	Status            string `json:"status"`
	LinkedGoalID      string `json:"linked_goal_id,omitempty"`
	LinkedMilestoneID string `json:"linked_milestone_id,omitempty"`
	CreatedAt         string `json:"created_at"`
}

type TaskRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	Priority          string `json:"priority"`
	LinkedGoalID      string `json:"linked_goal_id"`
	LinkedMilestoneID string `json:"linked_milestone_id"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type PriorityRequest struct {
	Title string `json:"title"`
}

type DayNotesRequest struct {
	Schedule string `json:"schedule"`
	Notes    string `json:"notes"`
}

type DayDTO struct {
	Date     string    `json:"date"`
	Prev     string    `json:"prev"`
	Next     string    `json:"next"`
	Priority *TaskDTO  `json:"priority"`
	Schedule string    `json:"schedule"`
	Notes    string    `json:"notes"`
	Todos    []TaskDTO `json:"todos"`
}

type ReviewDTO struct {
	WeekStart       string   `json:"week_start"`
	Achievements    string   `json:"achievements"`
	Lessons         string   `json:"lessons"`
	Reflections     string   `json:"reflections"`
	NextFocus       string   `json:"next_focus"`
	TopOutcomes     string   `json:"top_outcomes"`
	TopOutcomesList []string `json:"top_outcomes_list,omitempty"`
	UpdatedAt       string   `json:"updated_at"`
}

type WeekReviewRequest struct {
	Achievements string `json:"achievements"`
	Lessons      string `json:"lessons"`
	Reflections  string `json:"reflections"`
	NextFocus    string `json:"next_focus"`
	TopOutcomes  string `json:"top_outcomes"`
}

type WeekDTO struct {
	Week       period.Week `json:"week"`
	LastReview *ReviewDTO  `json:"last_review"`
	ThisReview *ReviewDTO  `json:"this_review"`
	Tasks      []TaskDTO   `json:"tasks"`
}

type MonthDTO struct {
	Month      string        `json:"month"`
	Prev       string        `json:"prev"`
	Next       string        `json:"next"`
	Start      string        `json:"start"`
	End        string        `json:"end"`
	Headers    []string      `json:"headers"`
	Grid       []period.Cell `json:"grid"`
	Events     []TaskDTO     `json:"events"`
	Goals      string        `json:"goals"`
	PrevReview string        `json:"prev_review"`
}

// CalendarMonthDTO is the bare month grid, without planner data.
type CalendarMonthDTO struct {
	Month       string          `json:"month"`
	Prev        string          `json:"prev"`
	Next        string          `json:"next"`
	Start       string          `json:"start"`
	End         string          `json:"end"`
	DaysInMonth int             `json:"days_in_month"`
	Headers     []string        `json:"headers"`
	Grid        []period.Cell   `json:"grid"`
	Rows        [][]period.Cell `json:"rows"`
}

type MonthNotesDTO struct {
	MonthYear string `json:"month_year"`
	Goals     string `json:"goals"`
	Review    string `json:"review"`
}

// MonthTextRequest carries either the goals or the review of a month.
type MonthTextRequest struct {
	Text string `json:"text"`
}

// =============================================================================
// WINS & RECONCILIATION
// =============================================================================

type WinDTO struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	DisplayName    string `json:"display_name,omitempty"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Source         string `json:"source"`
	Category       string `json:"category"`
	TaskID         string `json:"task_id,omitempty"`
	GoalID         string `json:"goal_id,omitempty"`
	MilestoneID    string `json:"milestone_id,omitempty"`
	GoalTitle      string `json:"goal_title,omitempty"`
	MilestoneTitle string `json:"milestone_title,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// WinsResponse is the wins feed, flat and grouped by category.
type WinsResponse struct {
	Wins       []WinDTO            `json:"wins"`
	Categories []string            `json:"categories"`
	Groups     map[string][]WinDTO `json:"groups"`
}

type WinRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	GoalID      string `json:"goal_id"`
	MilestoneID string `json:"milestone_id"`
}

type RunDTO struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Created     int     `json:"created"`
	Removed     int     `json:"removed"`
	Error       string  `json:"error,omitempty"`
	StartedAt   string  `json:"started_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// =============================================================================
// CIRCLE VIEWS
// =============================================================================

type MemberGoalsDTO struct {
	Member MemberDTO `json:"member"`
	Goals  []GoalDTO `json:"goals"`
}

type MemberHabitsDTO struct {
	Member MemberDTO  `json:"member"`
	Habits []HabitDTO `json:"habits"`
}

type MemberDayDTO struct {
	Member   MemberDTO `json:"member"`
	Priority *TaskDTO  `json:"priority"`
	Schedule string    `json:"schedule"`
	Notes    string    `json:"notes"`
	Todos    []TaskDTO `json:"todos"`
}

type MemberWeekDTO struct {
	Member     MemberDTO  `json:"member"`
	LastReview *ReviewDTO `json:"last_review"`
	ThisReview *ReviewDTO `json:"this_review"`
	Tasks      []TaskDTO  `json:"tasks"`
}

type CircleWeeklyResponse struct {
	Week    period.Week     `json:"week"`
	Members []MemberWeekDTO `json:"members"`
}

type MemberEventsDTO struct {
	Member MemberDTO `json:"member"`
	Events []TaskDTO `json:"events"`
}

type CircleCalendarResponse struct {
	Month   MonthDTO          `json:"month"`
	Members []MemberEventsDTO `json:"members"`
}

type MemberRoutinesDTO struct {
	Member   MemberDTO    `json:"member"`
	Routines []RoutineDTO `json:"routines"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// LoadScenarioResponse lists the session token of every seeded user.
type LoadScenarioResponse struct {
	Scenario ScenarioDTO       `json:"scenario"`
	Sessions map[string]string `json:"sessions"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toUserDTO(u *planner.User) UserDTO {
	return UserDTO{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}

func toCircleDTO(c planner.Circle) CircleDTO {
	return CircleDTO{ID: c.ID, Name: c.Name, CreatedBy: c.CreatedBy, CreatedAt: formatTime(c.CreatedAt)}
}

func toMemberDTO(m planner.MemberView) MemberDTO {
	return MemberDTO{
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Email:       m.Email,
		Role:        string(m.Role),
		JoinedAt:    formatTime(m.JoinedAt),
	}
}

func toGoalDTO(g planner.Goal) GoalDTO {
	dto := GoalDTO{
		ID:            g.ID,
		Title:         g.Title,
		Description:   g.Description,
		Horizon:       string(g.Horizon),
		Deadline:      g.Deadline,
		Why:           g.Why,
		ActionPlan:    g.ActionPlan,
		StrategyNotes: g.StrategyNotes,
		Completed:     g.Completed,
		CompletedAt:   formatTimePtr(g.CompletedAt),
		CreatedAt:     formatTime(g.CreatedAt),
		Progress:      g.Progress().String(),
		Milestones:    make([]MilestoneDTO, len(g.Milestones)),
	}
	for i, m := range g.Milestones {
		dto.Milestones[i] = MilestoneDTO{
			ID:          m.ID,
			GoalID:      m.GoalID,
			Title:       m.Title,
			Description: m.Description,
			DueWeek:     m.DueWeek,
			Completed:   m.Completed,
			CompletedAt: formatTimePtr(m.CompletedAt),
		}
	}
	return dto
}

func toGoalDTOs(goals []planner.Goal) []GoalDTO {
	out := make([]GoalDTO, len(goals))
	for i, g := range goals {
		out[i] = toGoalDTO(g)
	}
	return out
}

func toHabitDTO(h planner.Habit) HabitDTO {
	dto := HabitDTO{
		ID:           h.ID,
		Name:         h.Name,
		MonthYear:    h.MonthYear,
		CheckedDates: []string{},
		CreatedAt:    formatTime(h.CreatedAt),
	}
	for _, c := range h.Checks {
		if c.Completed {
			dto.CheckedDates = append(dto.CheckedDates, c.Date)
		}
	}
	return dto
}

func toHabitDTOs(habits []planner.Habit) []HabitDTO {
	out := make([]HabitDTO, len(habits))
	for i, h := range habits {
		out[i] = toHabitDTO(h)
	}
	return out
}

func toRoutineDTO(r planner.Routine, today string) RoutineDTO {
	dto := RoutineDTO{ID: r.ID, Type: string(r.Type), Steps: make([]StepDTO, len(r.Steps))}
	for i, s := range r.Steps {
		dto.Steps[i] = StepDTO{
			ID:              s.ID,
			Text:            s.Text,
			DurationMinutes: s.DurationMinutes,
			CompletedDates:  s.CompletedDates,
			DoneToday:       s.DoneOn(today),
		}
	}
	return dto
}

func toRoutineDTOs(routines []planner.Routine, today string) []RoutineDTO {
	out := make([]RoutineDTO, len(routines))
	for i, r := range routines {
		out[i] = toRoutineDTO(r, today)
	}
	return out
}

func toTaskDTO(t planner.Task) TaskDTO {
	return TaskDTO{
		ID:                t.ID,
		Type:              string(t.Kind),
		Title:             t.Title,
		Description:       t.Description,
		Date:              t.Date,
		Time:              t.Time,
		Priority:          string(t.Priority),
		Status:            string(t.Status),
		LinkedGoalID:      t.LinkedGoalID,
		LinkedMilestoneID: t.LinkedMilestoneID,
		CreatedAt:         formatTime(t.CreatedAt),
	}
}

func toTaskDTOs(tasks []planner.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = toTaskDTO(t)
	}
	return out
}

func toTaskDTOPtr(t *planner.Task) *TaskDTO {
	if t == nil {
		return nil
	}
	dto := toTaskDTO(*t)
	return &dto
}

func toReviewDTO(r *planner.WeekReview) *ReviewDTO {
	if r == nil {
		return nil
	}
	return &ReviewDTO{
		WeekStart:       r.WeekStart,
		Achievements:    r.Achievements,
		Lessons:         r.Lessons,
		Reflections:     r.Reflections,
		NextFocus:       r.NextFocus,
		TopOutcomes:     r.TopOutcomes,
		TopOutcomesList: r.TopOutcomesList,
		UpdatedAt:       formatTime(r.UpdatedAt),
	}
}

func toMonthDTO(v *planner.MonthView) MonthDTO {
	return MonthDTO{
		Month:      v.Month,
		Prev:       v.Prev,
		Next:       v.Next,
		Start:      v.Start,
		End:        v.End,
		Headers:    v.Headers,
		Grid:       v.Grid,
		Events:     toTaskDTOs(v.Events),
		Goals:      v.Goals,
		PrevReview: v.PrevReview,
	}
}

func toWinDTO(w planner.Win) WinDTO {
	return WinDTO{
		ID:             w.ID,
		UserID:         w.UserID,
		Title:          w.Title,
		Description:    w.Description,
		Source:         string(w.Source),
		Category:       w.Category(),
		TaskID:         w.TaskID,
		GoalID:         w.GoalID,
		MilestoneID:    w.MilestoneID,
		GoalTitle:      w.GoalTitle,
		MilestoneTitle: w.MilestoneTitle,
		CreatedAt:      formatTime(w.CreatedAt),
	}
}

func toWinsResponse(wins []planner.Win) WinsResponse {
	resp := WinsResponse{
		Wins:       make([]WinDTO, len(wins)),
		Categories: planner.WinCategories,
		Groups:     make(map[string][]WinDTO),
	}
	for i, w := range wins {
		resp.Wins[i] = toWinDTO(w)
	}
	for category, group := range planner.GroupWins(wins) {
		dtos := make([]WinDTO, len(group))
		for i, w := range group {
			dtos[i] = toWinDTO(w)
		}
		resp.Groups[category] = dtos
	}
	return resp
}

func toRunDTO(r planner.ReconciliationRun) RunDTO {
	return RunDTO{
		ID:          r.ID,
		Status:      r.Status,
		Created:     r.Created,
		Removed:     r.Removed,
		Error:       r.Error,
		StartedAt:   formatTime(r.StartedAt),
		CompletedAt: formatTimePtr(r.CompletedAt),
	}
}

func (r TaskRequest) input() planner.TaskInput {
	return planner.TaskInput{
		Title:             r.Title,
		Description:       r.Description,
		Date:              r.Date,
		Time:              r.Time,
		Priority:          planner.Priority(r.Priority),
		LinkedGoalID:      r.LinkedGoalID,
		LinkedMilestoneID: r.LinkedMilestoneID,
	}
}

func (r GoalRequest) input() planner.GoalInput {
	return planner.GoalInput{
		Title:         r.Title,
		Description:   r.Description,
		Horizon:       planner.Horizon(r.Horizon),
		Deadline:      r.Deadline,
		Why:           r.Why,
		ActionPlan:    r.ActionPlan,
		StrategyNotes: r.StrategyNotes,
		Completed:     r.Completed,
	}
}
