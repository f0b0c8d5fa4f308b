/*
Package planner holds the domain model and operations of the Winning planner.

PURPOSE:
  Goals, habits, routines, day/week/month planning, circles and the wins
  feed. Each operation is load -> mutate -> reload against a Store;
  date keys come from the period package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Personal rows: owned by a user, CircleID empty
  - Task: one table, tagged by Kind (task, event, priority, week)
  - Win: achievement row derived from completing a task/goal/milestone
  - Circle: group of users sharing read access to each other's planning

DATE KEYS:
  Dates are "YYYY-MM-DD", months "YYYY-MM", weeks are the Monday date.
  They are stored as text, exactly as produced by the period package.

SEE ALSO:
  - store.go: persistence interfaces
  - service.go: operations
  - period/: date math
*/
package planner

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// USERS & SESSIONS
// =============================================================================

type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// Session is a bearer token issued by the auth collaborator.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// DisplayName resolves how viewer sees user.
func DisplayName(user *User, userID, viewerID string) string {
	if userID == viewerID {
		return "You"
	}
	if user != nil && user.DisplayName != "" {
		return user.DisplayName
	}
	short := userID
	if len(short) > 8 {
		short = short[:8]
	}
	return "User " + short
}

// =============================================================================
// CIRCLES
// =============================================================================

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

func (r Role) Valid() bool { return r == RoleOwner || r == RoleMember }

type Circle struct {
	ID        string
	Name      string
	CreatedBy string
	CreatedAt time.Time
}

type CircleMember struct {
	CircleID string
	UserID   string
	Role     Role
	JoinedAt time.Time
}

// Membership pairs a circle with the viewer's role in it.
type Membership struct {
	Circle   Circle
	Role     Role
	JoinedAt time.Time
}

// CircleInvite is a single-use, time-limited join capability.
type CircleInvite struct {
	Token     string
	CircleID  string
	InviterID string
	Role      Role
	ExpiresAt time.Time
	UsedBy    string
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the invite can still be redeemed at now.
func (i CircleInvite) Usable(now time.Time) bool {
	return i.UsedAt == nil && now.Before(i.ExpiresAt)
}

// =============================================================================
// GOALS & MILESTONES
// =============================================================================

type Horizon string

const (
	HorizonLong   Horizon = "long-term"
	HorizonMedium Horizon = "medium-term"
	HorizonShort  Horizon = "short-term"
)

func (h Horizon) Valid() bool {
	return h == HorizonLong || h == HorizonMedium || h == HorizonShort
}

type Goal struct {
	ID            string
	UserID        string
	CircleID      string
	Title         string
	Description   string
	Horizon       Horizon
	Deadline      string
	Why           string
	ActionPlan    string
	StrategyNotes string
	Completed     bool
	CompletedAt   *time.Time
	CreatedAt     time.Time
	Milestones    []Milestone
}

// Progress is the completed share of milestones as a whole percentage.
func (g Goal) Progress() decimal.Decimal {
	if len(g.Milestones) == 0 {
		return decimal.Zero
	}
	done := 0
	for _, m := range g.Milestones {
		if m.Completed {
			done++
		}
	}
	return percent(done, len(g.Milestones))
}

type Milestone struct {
	ID          string
	GoalID      string
	Title       string
	Description string
	DueWeek     string
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// =============================================================================
// HABITS
// =============================================================================

type Habit struct {
	ID        string
	UserID    string
	CircleID  string
	MonthYear string
	Name      string
	CreatedAt time.Time
	Checks    []HabitCheck
}

// Checked reports whether date has a completed check.
func (h Habit) Checked(date string) bool {
	for _, c := range h.Checks {
		if c.Date == date && c.Completed {
			return true
		}
	}
	return false
}

type HabitCheck struct {
	ID        string
	HabitID   string
	Date      string
	Completed bool
	CreatedAt time.Time
}

type HabitStats struct {
	HabitID        string
	Streak         int
	CheckedDays    int
	DaysInMonth    int
	CompletionRate decimal.Decimal
}

// =============================================================================
// ROUTINES
// =============================================================================

type RoutineType string

const (
	RoutineMorning RoutineType = "morning"
	RoutineEvening RoutineType = "evening"
)

func (t RoutineType) Valid() bool { return t == RoutineMorning || t == RoutineEvening }

// RoutineTypes lists routine types in display order.
var RoutineTypes = []RoutineType{RoutineMorning, RoutineEvening}

type Routine struct {
	ID        string
	UserID    string
	CircleID  string
	Type      RoutineType
	Steps     []RoutineStep
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoutineStep is stored inside the routine's JSON steps column.
type RoutineStep struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	DurationMinutes *int     `json:"durationMinutes"`
	CompletedDates  []string `json:"completedDates"`
}

// DoneOn reports whether the step was completed on date.
func (s RoutineStep) DoneOn(date string) bool {
	for _, d := range s.CompletedDates {
		if d == date {
			return true
		}
	}
	return false
}

// =============================================================================
// TASKS - one table, four kinds
// =============================================================================

// TaskKind tags what a Task row represents.
type TaskKind string

const (
	KindTask     TaskKind = "task"     // day planner to-do
	KindEvent    TaskKind = "event"    // calendar event
	KindPriority TaskKind = "priority" // the day's one priority
	KindWeek     TaskKind = "week"     // weekly task board entry
)

func (k TaskKind) Valid() bool {
	switch k {
	case KindTask, KindEvent, KindPriority, KindWeek:
		return true
	}
	return false
}

// EarnsWin reports whether completing this kind produces a Win.
func (k TaskKind) EarnsWin() bool {
	switch k {
	case KindTask, KindWeek:
		return true
	case KindEvent, KindPriority:
		return false
	}
	return false
}

type TaskStatus string

const (
	StatusPlanned    TaskStatus = "planned"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// ParseStatus normalizes stored status values; legacy "open" reads as planned.
func ParseStatus(s string) (TaskStatus, bool) {
	switch s {
	case "", "open", string(StatusPlanned):
		return StatusPlanned, true
	case string(StatusInProgress):
		return StatusInProgress, true
	case string(StatusDone):
		return StatusDone, true
	}
	return "", false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == "" || p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Task struct {
	ID                string
	UserID            string
	CircleID          string
	Kind              TaskKind
	Title             string
	Description       string
	Date              string
	Time              string
	Priority          Priority
	Status            TaskStatus
	LinkedGoalID      string
	LinkedMilestoneID string
	CreatedAt         time.Time
}

func (t Task) Done() bool { return t.Status == StatusDone }

// Validate applies the rules of the task's kind.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return invalid("title", "is required")
	}
	if !t.Priority.Valid() {
		return invalid("priority", "must be low, medium or high")
	}
	if _, ok := ParseStatus(string(t.Status)); !ok {
		return invalid("status", "must be planned, in_progress or done")
	}
	switch t.Kind {
	case KindEvent, KindPriority, KindTask, KindWeek:
		if t.Date == "" {
			return invalid("date", "is required for "+string(t.Kind))
		}
	default:
		return invalid("type", "unknown task type "+string(t.Kind))
	}
	if t.LinkedMilestoneID != "" && t.LinkedGoalID == "" {
		return invalid("linked_milestone_id", "requires linked_goal_id")
	}
	return nil
}

// NewTodo builds a day planner to-do.
func NewTodo(userID, date, title string) Task {
	return Task{UserID: userID, Kind: KindTask, Date: date, Title: title, Status: StatusPlanned}
}

// NewEvent builds a calendar event.
func NewEvent(userID, date, title string) Task {
	return Task{UserID: userID, Kind: KindEvent, Date: date, Title: title, Status: StatusPlanned}
}

// NewPriority builds the one priority of a day.
func NewPriority(userID, date, title string) Task {
	return Task{UserID: userID, Kind: KindPriority, Date: date, Title: title, Status: StatusPlanned}
}

// NewWeekTask builds a weekly board entry.
func NewWeekTask(userID, date, title string) Task {
	return Task{UserID: userID, Kind: KindWeek, Date: date, Title: title, Priority: PriorityMedium, Status: StatusPlanned}
}

// =============================================================================
// NOTES
// =============================================================================

type DayNotes struct {
	UserID    string
	Date      string
	Schedule  string
	Notes     string
	UpdatedAt time.Time
}

type MonthNotes struct {
	UserID    string
	MonthYear string
	Goals     string
	Review    string
	UpdatedAt time.Time
}

// WeekReview is keyed by the Monday of the week.
// TopOutcomesList is set when the row uses the array encoding.
type WeekReview struct {
	UserID          string
	WeekStart       string
	Achievements    string
	Lessons         string
	Reflections     string
	NextFocus       string
	TopOutcomes     string
	TopOutcomesList []string
	UpdatedAt       time.Time
}

// SplitLines splits free text into non-empty lines.
func SplitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// =============================================================================
// WINS
// =============================================================================

// WinSource names what produced a win.
type WinSource string

const (
	SourceManual    WinSource = "manual"
	SourceTask      WinSource = "task"
	SourceMilestone WinSource = "milestone"
	SourceGoal      WinSource = "goal"
)

type Win struct {
	ID          string
	UserID      string
	CircleID    string
	Title       string
	Description string
	Source      WinSource
	TaskID      string
	GoalID      string
	MilestoneID string
	CreatedAt   time.Time

	// Joined for display.
	GoalTitle      string
	MilestoneTitle string
}

const (
	CategoryMonthlyGoals = "Monthly Goals"
	CategoryWeeklyGoals  = "Weekly Goals"
	CategoryMilestones   = "Goals & Milestones"
	CategoryTasks        = "Tasks"
	CategoryGeneral      = "General"
)

// Category derives the feed bucket of a win.
func (w Win) Category() string {
	desc := strings.ToLower(w.Description)
	switch {
	case strings.Contains(desc, "monthly goal"):
		return CategoryMonthlyGoals
	case strings.Contains(desc, "weekly task"):
		return CategoryWeeklyGoals
	case strings.Contains(desc, "milestone"):
		return CategoryMilestones
	case w.TaskID != "":
		return CategoryTasks
	}
	return CategoryGeneral
}

// ReconciliationRun records one win reconciliation sweep.
type ReconciliationRun struct {
	ID          string
	Status      string
	Created     int
	Removed     int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

var hundred = decimal.NewFromInt(100)

func percent(part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Mul(hundred).Div(decimal.NewFromInt(int64(whole))).Round(0)
}
