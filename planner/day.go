package planner

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/winning-app/winning/period"
)

// DayView is everything the day planner shows for one date.
type DayView struct {
	Date     string
	Prev     string
	Next     string
	Priority *Task
	Notes    *DayNotes
	Todos    []Task
}

// LoadDay loads the three day panels concurrently.
func (s *Service) LoadDay(ctx context.Context, viewerID, date string) (*DayView, error) {
	if _, err := period.ParseDate(date); err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}
	view := &DayView{Date: date}
	view.Prev, _ = period.ShiftDay(date, -1)
	view.Next, _ = period.ShiftDay(date, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.store.GetPriority(gctx, viewerID, date)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		view.Priority = p
		return nil
	})
	g.Go(func() error {
		n, err := s.store.GetDayNotes(gctx, viewerID, date)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		view.Notes = n
		return nil
	})
	g.Go(func() error {
		todos, err := s.store.ListTasks(gctx, TaskFilter{
			UserIDs: []string{viewerID},
			Kinds:   []TaskKind{KindTask},
			From:    date,
			To:      date,
		})
		view.Todos = todos
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// SetPriority upserts the single priority of a day. A blank title clears it.
func (s *Service) SetPriority(ctx context.Context, viewerID, date, title string) (*Task, error) {
	if _, err := period.ParseDate(date); err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}
	title = strings.TrimSpace(title)

	existing, err := s.store.GetPriority(ctx, viewerID, date)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if title == "" {
		if existing != nil {
			return nil, s.store.DeleteTask(ctx, existing.ID)
		}
		return nil, nil
	}
	if existing != nil {
		existing.Title = title
		if err := s.store.SaveTask(ctx, *existing); err != nil {
			return nil, err
		}
		return s.store.GetTask(ctx, existing.ID)
	}

	created, err := s.createTask(ctx, NewPriority(viewerID, date, title), TaskInput{Title: title})
	if errors.Is(err, ErrDuplicate) {
		// Another request won the insert; update its row instead.
		return s.SetPriority(ctx, viewerID, date, title)
	}
	return created, err
}

// SaveDayNotes upserts schedule and notes for a day.
func (s *Service) SaveDayNotes(ctx context.Context, viewerID, date, schedule, notes string) (*DayNotes, error) {
	if _, err := period.ParseDate(date); err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}
	n := DayNotes{UserID: viewerID, Date: date, Schedule: schedule, Notes: notes, UpdatedAt: s.now()}
	if err := s.store.SaveDayNotes(ctx, n); err != nil {
		return nil, err
	}
	return s.store.GetDayNotes(ctx, viewerID, date)
}

// AddTodo adds a to-do to the day planner.
func (s *Service) AddTodo(ctx context.Context, viewerID, date string, in TaskInput) (*Task, error) {
	in.Date = date
	return s.createTask(ctx, NewTodo(viewerID, date, in.Title), in)
}
