/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates users with sessions,
	goals, habits, routines, tasks, reviews, wins and circles.

AVAILABLE SCENARIOS:

	solo-planner:          One user exercising every planner surface
	accountability-circle: Three users sharing one circle

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create users and issue a session token for each
 3. Replay the scenario through planner.Service, so wins, validation
    and normalization happen exactly as for API calls
 4. Create circles and join members through real invites

Dates in scenario files are offsets from today: `day: -1` is yesterday,
`week: 2` is the week after next.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "solo-planner"}

ADDING NEW SCENARIOS:
 1. Add a YAML file under scenarios/
 2. Nothing else; files are embedded and listed by name

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler
  - cmd/winning/seed.go: Loads a scenario from the command line
*/
package api

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/winning-app/winning/period"
	"github.com/winning-app/winning/planner"
)

// SessionTTL is the lifetime of scenario session tokens.
const SessionTTL = 30 * 24 * time.Hour

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

//go:embed scenarios/*.yaml
var scenarioFS embed.FS

type scenarioFile struct {
	ScenarioDTO `yaml:",inline"`
	Users       []scenarioUser   `yaml:"users"`
	Circles     []scenarioCircle `yaml:"circles"`
}

type scenarioUser struct {
	ID             string              `yaml:"id"`
	Email          string              `yaml:"email"`
	DisplayName    string              `yaml:"display_name"`
	Goals          []scenarioGoal      `yaml:"goals"`
	Habits         []scenarioHabit     `yaml:"habits"`
	Routines       map[string][]string `yaml:"routines"`
	Priorities     []scenarioTask      `yaml:"priorities"`
	Todos          []scenarioTask      `yaml:"todos"`
	WeekTasks      []scenarioTask      `yaml:"week_tasks"`
	Events         []scenarioTask      `yaml:"events"`
	Wins           []string            `yaml:"wins"`
	LastWeekReview *scenarioReview     `yaml:"last_week_review"`
	MonthGoals     string              `yaml:"month_goals"`
}

type scenarioGoal struct {
	Title      string              `yaml:"title"`
	Horizon    string              `yaml:"horizon"`
	Why        string              `yaml:"why"`
	Milestones []scenarioMilestone `yaml:"milestones"`
}

type scenarioMilestone struct {
	Title string `yaml:"title"`
	Week  int    `yaml:"week"`
	Done  bool   `yaml:"done"`
}

type scenarioHabit struct {
	Name    string `yaml:"name"`
	Checked []int  `yaml:"checked"`
}

type scenarioTask struct {
	Title string `yaml:"title"`
	Day   int    `yaml:"day"`
	Time  string `yaml:"time"`
	Done  bool   `yaml:"done"`
}

type scenarioReview struct {
	Achievements string `yaml:"achievements"`
	Lessons      string `yaml:"lessons"`
	Reflections  string `yaml:"reflections"`
	NextFocus    string `yaml:"next_focus"`
	TopOutcomes  string `yaml:"top_outcomes"`
}

type scenarioCircle struct {
	Name    string `yaml:"name"`
	Owner   string `yaml:"owner"`
	Members []struct {
		User string `yaml:"user"`
		Role string `yaml:"role"`
	} `yaml:"members"`
}

// parseScenarios reads every *.yaml under dir, ordered by file name.
func parseScenarios(fsys fs.FS, dir string) ([]scenarioFile, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]scenarioFile, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		var sc scenarioFile
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", name, err)
		}
		if sc.ID == "" {
			return nil, fmt.Errorf("scenario %s: missing id", name)
		}
		out = append(out, sc)
	}
	return out, nil
}

var loadScenarios = sync.OnceValues(func() ([]scenarioFile, error) {
	return parseScenarios(scenarioFS, "scenarios")
})

// Scenarios lists the embedded demo scenarios.
func Scenarios() ([]ScenarioDTO, error) {
	all, err := loadScenarios()
	if err != nil {
		return nil, err
	}
	out := make([]ScenarioDTO, len(all))
	for i, sc := range all {
		out[i] = sc.ScenarioDTO
	}
	return out, nil
}

func findScenario(id string) (*scenarioFile, error) {
	all, err := loadScenarios()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: unknown scenario %q", planner.ErrNotFound, id)
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	list, err := Scenarios()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	sc, err := findScenario(current)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc.ScenarioDTO)
}

// LoadScenario resets the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.Seed(r.Context(), req.ScenarioID)
	if err != nil {
		if planner.IsNotFound(err) {
			writeError(w, http.StatusBadRequest, "Unknown scenario", err)
			return
		}
		h.Logger.Error("scenario not loaded", zap.String("scenario", req.ScenarioID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Seed resets the store and replays scenario id. It returns a session
// token per seeded user.
func (h *Handler) Seed(ctx context.Context, id string) (*LoadScenarioResponse, error) {
	sc, err := findScenario(id)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset database: %w", err)
	}
	h.currentScenario = ""

	sessions := make(map[string]string, len(sc.Users))
	for _, u := range sc.Users {
		token, err := h.seedUser(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.ID, err)
		}
		sessions[u.ID] = token
	}
	for _, c := range sc.Circles {
		if err := h.seedCircle(ctx, c); err != nil {
			return nil, fmt.Errorf("circle %s: %w", c.Name, err)
		}
	}

	h.currentScenario = sc.ID
	h.Logger.Info("scenario loaded", zap.String("scenario", sc.ID), zap.Int("users", len(sc.Users)))
	return &LoadScenarioResponse{Scenario: sc.ScenarioDTO, Sessions: sessions}, nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) seedUser(ctx context.Context, u scenarioUser) (string, error) {
	svc := h.Service
	cal := svc.Calendar()
	now := cal.Now()
	today := cal.Today()

	if err := h.Store.SaveUser(ctx, planner.User{
		ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, CreatedAt: now,
	}); err != nil {
		return "", err
	}
	token := uuid.NewString()
	if err := h.Store.SaveSession(ctx, planner.Session{
		Token: token, UserID: u.ID, ExpiresAt: now.Add(SessionTTL), CreatedAt: now,
	}); err != nil {
		return "", err
	}

	day := func(offset int) string {
		d, _ := period.ShiftDay(today, offset)
		return d
	}

	for _, sg := range u.Goals {
		g, err := svc.CreateGoal(ctx, u.ID, planner.GoalInput{
			Title: sg.Title, Horizon: planner.Horizon(sg.Horizon), Why: sg.Why,
		})
		if err != nil {
			return "", err
		}
		for _, sm := range sg.Milestones {
			g, err = svc.AddMilestone(ctx, u.ID, g.ID, planner.MilestoneInput{
				Title: sm.Title, DueWeek: day(7 * sm.Week),
			})
			if err != nil {
				return "", err
			}
			if !sm.Done {
				continue
			}
			for _, m := range g.Milestones {
				if m.Title == sm.Title && !m.Completed {
					if g, err = svc.ToggleMilestone(ctx, u.ID, m.ID); err != nil {
						return "", err
					}
					break
				}
			}
		}
	}

	month := cal.CurrentMonth()
	for _, sh := range u.Habits {
		habit, err := svc.CreateHabit(ctx, u.ID, sh.Name, month)
		if err != nil {
			return "", err
		}
		for _, off := range sh.Checked {
			d := day(off)
			if !period.InMonth(d, month) {
				continue
			}
			if _, err := svc.SetHabitCheck(ctx, u.ID, habit.ID, d, true); err != nil {
				return "", err
			}
		}
	}

	for typ, texts := range u.Routines {
		steps := make([]planner.StepInput, len(texts))
		for i, text := range texts {
			steps[i] = planner.StepInput{Text: text}
		}
		if _, err := svc.SaveRoutineSteps(ctx, u.ID, planner.RoutineType(typ), steps); err != nil {
			return "", err
		}
	}

	for _, st := range u.Priorities {
		t, err := svc.SetPriority(ctx, u.ID, day(st.Day), st.Title)
		if err != nil {
			return "", err
		}
		if err := h.finish(ctx, u.ID, t, st.Done); err != nil {
			return "", err
		}
	}
	for _, st := range u.Todos {
		t, err := svc.AddTodo(ctx, u.ID, day(st.Day), planner.TaskInput{Title: st.Title, Time: st.Time})
		if err != nil {
			return "", err
		}
		if err := h.finish(ctx, u.ID, t, st.Done); err != nil {
			return "", err
		}
	}
	for _, st := range u.WeekTasks {
		t, err := svc.AddWeekTask(ctx, u.ID, day(st.Day), planner.TaskInput{Title: st.Title, Date: day(st.Day)})
		if err != nil {
			return "", err
		}
		if err := h.finish(ctx, u.ID, t, st.Done); err != nil {
			return "", err
		}
	}
	for _, st := range u.Events {
		if _, err := svc.AddEvent(ctx, u.ID, planner.TaskInput{
			Title: st.Title, Date: day(st.Day), Time: st.Time,
		}); err != nil {
			return "", err
		}
	}

	for _, title := range u.Wins {
		if _, err := svc.CreateWin(ctx, u.ID, planner.WinInput{Title: title}); err != nil {
			return "", err
		}
	}

	if rv := u.LastWeekReview; rv != nil {
		lastWeek, _ := period.WeekStart(day(-7))
		if _, err := svc.SaveWeekReview(ctx, u.ID, lastWeek, planner.WeekReviewInput{
			Achievements: rv.Achievements,
			Lessons:      rv.Lessons,
			Reflections:  rv.Reflections,
			NextFocus:    rv.NextFocus,
			TopOutcomes:  rv.TopOutcomes,
		}); err != nil {
			return "", err
		}
	}
	if u.MonthGoals != "" {
		if _, err := svc.SaveMonthGoals(ctx, u.ID, month, u.MonthGoals); err != nil {
			return "", err
		}
	}
	return token, nil
}

func (h *Handler) finish(ctx context.Context, userID string, t *planner.Task, done bool) error {
	if !done || t == nil {
		return nil
	}
	_, err := h.Service.SetTaskStatus(ctx, userID, t.ID, planner.StatusDone)
	return err
}

func (h *Handler) seedCircle(ctx context.Context, sc scenarioCircle) error {
	c, err := h.Service.CreateCircle(ctx, sc.Owner, sc.Name)
	if err != nil {
		return err
	}
	for _, m := range sc.Members {
		inv, err := h.Service.CreateInvite(ctx, sc.Owner, c.ID, planner.Role(m.Role), 0)
		if err != nil {
			return err
		}
		if _, err := h.Service.AcceptInvite(ctx, m.User, inv.Token); err != nil {
			return err
		}
	}
	return nil
}
