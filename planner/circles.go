/*
circles.go - Circles, invites and circle views

PURPOSE:
  A circle is a group of users who can read each other's personal
  planning. Only members see a circle; only owners invite.

INVITES:
  An invite is a random token with a role and an expiry. Redemption is
  a single store transaction: a token that is unknown, expired or used
  never creates a membership.

CIRCLE VIEWS:
  Each view resolves the member list once and then issues one batched
  query per table over all member ids, grouping rows by member in
  memory. Rows are personal rows (circle_id IS NULL) of each member.
*/
package planner

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/winning-app/winning/period"
)

// DefaultInviteTTL is how long an invite stays redeemable.
const DefaultInviteTTL = 7 * 24 * time.Hour

// MemberView is a circle member as shown to the viewer.
type MemberView struct {
	UserID      string
	DisplayName string
	Email       string
	Role        Role
	JoinedAt    time.Time
}

// =============================================================================
// CIRCLE MANAGEMENT
// =============================================================================

// CreateCircle creates a circle owned by the viewer.
func (s *Service) CreateCircle(ctx context.Context, viewerID, name string) (*Circle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	now := s.now()
	c := Circle{ID: newID(), Name: name, CreatedBy: viewerID, CreatedAt: now}
	owner := CircleMember{CircleID: c.ID, UserID: viewerID, Role: RoleOwner, JoinedAt: now}
	if err := s.store.CreateCircle(ctx, c, owner); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCircles returns the viewer's memberships, most recently joined first.
func (s *Service) ListCircles(ctx context.Context, viewerID string) ([]Membership, error) {
	return s.store.ListMemberships(ctx, viewerID)
}

// GetCircle returns a circle the viewer belongs to.
func (s *Service) GetCircle(ctx context.Context, viewerID, circleID string) (*Circle, Role, error) {
	m, err := s.membership(ctx, viewerID, circleID)
	if err != nil {
		return nil, "", err
	}
	c, err := s.store.GetCircle(ctx, circleID)
	if err != nil {
		return nil, "", err
	}
	return c, m.Role, nil
}

// ListMembers returns members with display names resolved for the viewer.
func (s *Service) ListMembers(ctx context.Context, viewerID, circleID string) ([]MemberView, error) {
	members, _, err := s.circleMembers(ctx, viewerID, circleID)
	return members, err
}

// CreateInvite issues an invite token. Only owners may invite.
// Empty role means member; zero ttl means DefaultInviteTTL.
func (s *Service) CreateInvite(ctx context.Context, viewerID, circleID string, role Role, ttl time.Duration) (*CircleInvite, error) {
	m, err := s.membership(ctx, viewerID, circleID)
	if err != nil {
		return nil, err
	}
	if m.Role != RoleOwner {
		return nil, ErrForbidden
	}
	if role == "" {
		role = RoleMember
	}
	if !role.Valid() {
		return nil, invalid("role", "must be owner or member")
	}
	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}

	now := s.now()
	inv := CircleInvite{
		Token:     uuid.NewString(),
		CircleID:  circleID,
		InviterID: viewerID,
		Role:      role,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.store.SaveInvite(ctx, inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// AcceptInvite redeems token for the viewer and returns the circle id.
// Redeeming into a circle the viewer already belongs to succeeds without
// a second membership.
func (s *Service) AcceptInvite(ctx context.Context, viewerID, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", invalid("token", "is required")
	}
	return s.store.AcceptInvite(ctx, token, viewerID, s.now())
}

func (s *Service) membership(ctx context.Context, viewerID, circleID string) (*CircleMember, error) {
	m, err := s.store.GetMember(ctx, circleID, viewerID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrForbidden
	}
	return m, err
}

// circleMembers checks the viewer's membership and resolves every
// member's display name.
func (s *Service) circleMembers(ctx context.Context, viewerID, circleID string) ([]MemberView, []string, error) {
	if _, err := s.membership(ctx, viewerID, circleID); err != nil {
		return nil, nil, err
	}
	rows, err := s.store.ListMembers(ctx, circleID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(rows))
	for i, m := range rows {
		ids[i] = m.UserID
	}
	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	out := make([]MemberView, len(rows))
	for i, m := range rows {
		var u *User
		if found, ok := users[m.UserID]; ok {
			u = &found
		}
		out[i] = MemberView{
			UserID:      m.UserID,
			DisplayName: DisplayName(u, m.UserID, viewerID),
			Role:        m.Role,
			JoinedAt:    m.JoinedAt,
		}
		if u != nil {
			out[i].Email = u.Email
		}
	}
	return out, ids, nil
}

// =============================================================================
// CIRCLE VIEWS
// =============================================================================

type MemberGoals struct {
	Member MemberView
	Goals  []Goal
}

type MemberHabits struct {
	Member MemberView
	Habits []Habit
}

type MemberDay struct {
	Member   MemberView
	Priority *Task
	Schedule string
	Notes    string
	Todos    []Task
}

type MemberWeek struct {
	Member     MemberView
	LastReview *WeekReview
	ThisReview *WeekReview
	Tasks      []Task
}

type MemberRoutines struct {
	Member   MemberView
	Routines []Routine
}

type MemberEvents struct {
	Member MemberView
	Events []Task
}

// CircleWin is a win with its author's display name.
type CircleWin struct {
	Win
	DisplayName string
}

func (s *Service) CircleGoals(ctx context.Context, viewerID, circleID string) ([]MemberGoals, error) {
	members, ids, err := s.circleMembers(ctx, viewerID, circleID)
	if err != nil {
		return nil, err
	}
	goals, err := s.store.ListGoals(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]MemberGoals, len(members))
	for i, m := range members {
		out[i] = MemberGoals{Member: m, Goals: []Goal{}}
		for _, g := range goals {
			if g.UserID == m.UserID {
				out[i].Goals = append(out[i].Goals, g)
			}
		}
	}
	return out, nil
}

func (s *Service) CircleHabits(ctx context.Context, viewerID, circleID, monthYear string) ([]MemberHabits, error) {
	month, err := s.monthOrCurrent(monthYear)
	if err != nil {
		return nil, err
	}
	members, ids, err := s.circleMembers(ctx, viewerID, circleID)
	if err != nil {
		return nil, err
	}
	habits, err := s.store.ListHabits(ctx, ids, month)
	if err != nil {
		return nil, err
	}
	out := make([]MemberHabits, len(members))
	for i, m := range members {
		out[i] = MemberHabits{Member: m, Habits: []Habit{}}
		for _, h := range habits {
			if h.UserID == m.UserID {
				out[i].Habits = append(out[i].Habits, h)
			}
		}
	}
	return out, nil
}

// CircleDaily loads each member's priority, schedule, notes and to-dos
// for one date.
func (s *Service) CircleDaily(ctx context.Context, viewerID, circleID, date string) ([]MemberDay, error) {
	if date == "" {
		date = s.cal.Today()
	}
	if _, err := period.ParseDate(date); err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}
	members, ids, err := s.circleMembers(ctx, viewerID, circleID)
	if err != nil {
		return nil, err
	}

	var notes []DayNotes
	var tasks []Task
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		notes, err = s.store.ListDayNotes(gctx, ids, date)
		return err
	})
	g.Go(func() (err error) {
		tasks, err = s.store.ListTasks(gctx, TaskFilter{
			UserIDs: ids,
			Kinds:   []TaskKind{KindPriority, KindTask},
			From:    date,
			To:      date,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]MemberDay, len(members))
	for i, m := range members {
		day := MemberDay{Member: m, Todos: []Task{}}
		for _, n := range notes {
			if n.UserID == m.UserID {
				day.Schedule, day.Notes = n.Schedule, n.Notes
			}
		}
		for _, t := range tasks {
			if t.UserID != m.UserID {
				continue
			}
			switch t.Kind {
			case KindPriority:
				p := t
				day.Priority = &p
			case KindTask:
				day.Todos = append(day.Todos, t)
			}
		}
		out[i] = day
	}
	return out, nil
}

// CircleWeekly loads last week's review, this week's plan and the week
// tasks of every member.
func (s *Service) CircleWeekly(ctx context.Context, viewerID, circleID, date string) (period.Week, []MemberWeek, error) {
	if date == "" {
		date = s.cal.Today()
	}
	week, err := period.WeekOf(date)
	if err != nil {
		return period.Week{}, nil, invalid("date", "must be YYYY-MM-DD")
	}
	members, ids, err := s.circleMembers(ctx, viewerID, circleID)
	if err != nil {
		return week, nil, err
	}

	var reviews []WeekReview
	var tasks []Task
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		reviews, err = s.store.ListWeekReviews(gctx, ids, []string{week.Prev, week.Start})
		return err
	})
	g.Go(func() (err error) {
		tasks, err = s.store.ListTasks(gctx, TaskFilter{
			UserIDs: ids,
			Kinds:   []TaskKind{KindWeek},
			From:    week.Start,
			To:      week.End,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return week, nil, err
	}

	out := make([]MemberWeek, len(members))
	for i, m := range members {
		mw := MemberWeek{Member: m, Tasks: []Task{}}
		for _, r := range reviews {
			if r.UserID != m.UserID {
				continue
			}
			r := r
			switch r.WeekStart {
			case week.Prev:
				mw.LastReview = &r
			case week.Start:
				mw.ThisReview = &r
			}
		}
		for _, t := range tasks {
			if t.UserID == m.UserID {
				mw.Tasks = append(mw.Tasks, t)
			}
		}
		out[i] = mw
	}
	return week, out, nil
}

// CircleCalendar returns the month frame and every member's events.
func (s *Service) CircleCalendar(ctx context.Context, viewerID, circleID, monthYear string) (*MonthView, []MemberEvents, error) {
	month, err := s.monthOrCurrent(monthYear)
	if err != nil {
		return nil, nil, err
	}
	frame, err := s.monthFrame(month)
	if err != nil {
		return nil, nil, err
	}
	members, ids, err := s.circleMembers(ctx, viewerID, circleID)
	if err != nil {
		return nil, nil, err
	}
	events, err := s.store.ListTasks(ctx, TaskFilter{
		UserIDs: ids,
		Kinds:   []TaskKind{KindEvent},
		From:    frame.Start,
		To:      frame.End,
	})
	if err != nil {
		return nil, nil, err
	}
	frame.Events = events

	out := make([]MemberEvents, len(members))
	for i, m := range members {
		out[i] = MemberEvents{Member: m, Events: []Task{}}
		for _, e := range events {
			if e.UserID == m.UserID {
				out[i].Events = append(out[i].Events, e)
			}
		}
	}
	return frame, out, nil
}

func (s *Service) CircleRoutines(ctx context.Context, viewerID, circleID string) ([]MemberRoutines, error) {
	members, ids, err := s.circleMembers(ctx, viewerID, circleID)
	if err != nil {
		return nil, err
	}
	routines, err := s.store.ListRoutines(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]MemberRoutines, len(members))
	for i, m := range members {
		out[i] = MemberRoutines{Member: m, Routines: []Routine{}}
		for _, r := range routines {
			if r.UserID == m.UserID {
				out[i].Routines = append(out[i].Routines, r)
			}
		}
	}
	return out, nil
}

// CircleWins returns the wins of all members, newest first.
func (s *Service) CircleWins(ctx context.Context, viewerID, circleID string) ([]CircleWin, error) {
	members, ids, err := s.circleMembers(ctx, viewerID, circleID)
	if err != nil {
		return nil, err
	}
	wins, err := s.store.ListWins(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.UserID] = m.DisplayName
	}
	out := make([]CircleWin, len(wins))
	for i, w := range wins {
		out[i] = CircleWin{Win: w, DisplayName: names[w.UserID]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
