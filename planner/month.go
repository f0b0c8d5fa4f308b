package planner

import (
	"context"
	"errors"

	"github.com/winning-app/winning/period"
)

// MonthView is the month planner: grid, events and notes.
type MonthView struct {
	Month      string
	Prev       string
	Next       string
	Start      string
	End        string
	Headers    []string
	Grid       []period.Cell
	Events     []Task
	Goals      string // this month's goals
	PrevReview string // review written for the previous month
}

// LoadMonth builds the grid and loads events in the month's date range
// together with this month's goals and last month's review.
func (s *Service) LoadMonth(ctx context.Context, viewerID, monthYear string) (*MonthView, error) {
	month, err := s.monthOrCurrent(monthYear)
	if err != nil {
		return nil, err
	}
	view, err := s.monthFrame(month)
	if err != nil {
		return nil, err
	}

	view.Events, err = s.store.ListTasks(ctx, TaskFilter{
		UserIDs: []string{viewerID},
		Kinds:   []TaskKind{KindEvent},
		From:    view.Start,
		To:      view.End,
	})
	if err != nil {
		return nil, err
	}

	cur, err := s.optionalMonthNotes(ctx, viewerID, month)
	if err != nil {
		return nil, err
	}
	view.Goals = cur.Goals

	prev, err := s.optionalMonthNotes(ctx, viewerID, view.Prev)
	if err != nil {
		return nil, err
	}
	view.PrevReview = prev.Review
	return view, nil
}

// SaveMonthGoals writes the goals of a month and keeps its review.
//
// This is a read-modify-write without a transaction: two concurrent
// saves of the same month can lose one side's sibling field.
func (s *Service) SaveMonthGoals(ctx context.Context, viewerID, monthYear, goals string) (*MonthNotes, error) {
	return s.saveMonthNotes(ctx, viewerID, monthYear, func(n *MonthNotes) { n.Goals = goals })
}

// SaveMonthReview writes the review of a month and keeps its goals.
func (s *Service) SaveMonthReview(ctx context.Context, viewerID, monthYear, review string) (*MonthNotes, error) {
	return s.saveMonthNotes(ctx, viewerID, monthYear, func(n *MonthNotes) { n.Review = review })
}

func (s *Service) saveMonthNotes(ctx context.Context, viewerID, monthYear string, set func(*MonthNotes)) (*MonthNotes, error) {
	if _, err := period.ParseYearMonth(monthYear); err != nil {
		return nil, invalid("month", "must be YYYY-MM")
	}
	n, err := s.optionalMonthNotes(ctx, viewerID, monthYear)
	if err != nil {
		return nil, err
	}
	set(n)
	n.UpdatedAt = s.now()
	if err := s.store.SaveMonthNotes(ctx, *n); err != nil {
		return nil, err
	}
	return s.store.GetMonthNotes(ctx, viewerID, monthYear)
}

// AddEvent adds a calendar event. Title and date are required.
func (s *Service) AddEvent(ctx context.Context, viewerID string, in TaskInput) (*Task, error) {
	return s.createTask(ctx, NewEvent(viewerID, in.Date, in.Title), in)
}

func (s *Service) monthFrame(month string) (*MonthView, error) {
	grid, err := s.cal.BuildMonthGrid(month)
	if err != nil {
		return nil, invalid("month", "must be YYYY-MM")
	}
	start, end, err := period.MonthDateRange(month)
	if err != nil {
		return nil, err
	}
	prev, _ := period.PrevMonth(month)
	next, _ := period.NextMonth(month)
	return &MonthView{
		Month:   month,
		Prev:    prev,
		Next:    next,
		Start:   start,
		End:     end,
		Headers: s.cal.WeekdayHeaders(),
		Grid:    grid,
	}, nil
}

func (s *Service) optionalMonthNotes(ctx context.Context, userID, monthYear string) (*MonthNotes, error) {
	n, err := s.store.GetMonthNotes(ctx, userID, monthYear)
	if errors.Is(err, ErrNotFound) {
		return &MonthNotes{UserID: userID, MonthYear: monthYear}, nil
	}
	return n, err
}
