package planner

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/winning-app/winning/period"
)

// WeekView is the week planner for the week containing a date.
type WeekView struct {
	Week       period.Week
	LastReview *WeekReview
	ThisReview *WeekReview
	Tasks      []Task
}

// WeekReviewInput carries the editable review fields.
type WeekReviewInput struct {
	Achievements string
	Lessons      string
	Reflections  string
	NextFocus    string
	TopOutcomes  string
}

// LoadWeek normalizes date to its week and loads both reviews and the
// week's tasks.
func (s *Service) LoadWeek(ctx context.Context, viewerID, date string) (*WeekView, error) {
	week, err := period.WeekOf(date)
	if err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}
	view := &WeekView{Week: week}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.optionalReview(gctx, viewerID, week.Prev)
		view.LastReview = r
		return err
	})
	g.Go(func() error {
		r, err := s.optionalReview(gctx, viewerID, week.Start)
		view.ThisReview = r
		return err
	})
	g.Go(func() error {
		tasks, err := s.store.ListTasks(gctx, TaskFilter{
			UserIDs: []string{viewerID},
			Kinds:   []TaskKind{KindWeek},
			From:    week.Start,
			To:      week.End,
		})
		view.Tasks = tasks
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// SaveWeekReview upserts the review of the week containing weekStart.
//
// Stores that keep top outcomes as a string array reject free text with
// ErrMalformedArray; the save is then retried once with the text split
// into lines.
func (s *Service) SaveWeekReview(ctx context.Context, viewerID, weekStart string, in WeekReviewInput) (*WeekReview, error) {
	start, err := period.WeekStart(weekStart)
	if err != nil {
		return nil, invalid("week_start", "must be YYYY-MM-DD")
	}
	r := WeekReview{
		UserID:       viewerID,
		WeekStart:    start,
		Achievements: in.Achievements,
		Lessons:      in.Lessons,
		Reflections:  in.Reflections,
		NextFocus:    in.NextFocus,
		TopOutcomes:  in.TopOutcomes,
		UpdatedAt:    s.now(),
	}

	err = s.store.SaveWeekReview(ctx, r)
	if errors.Is(err, ErrMalformedArray) {
		s.logger.Info("retrying week review with top outcomes as array",
			zap.String("user_id", viewerID),
			zap.String("week_start", start))
		r.TopOutcomesList = SplitLines(in.TopOutcomes)
		r.TopOutcomes = ""
		err = s.store.SaveWeekReview(ctx, r)
	}
	if err != nil {
		return nil, err
	}
	return s.store.GetWeekReview(ctx, viewerID, start)
}

// AddWeekTask adds a task to the weekly board. Date must fall inside the
// week and defaults to its Monday.
func (s *Service) AddWeekTask(ctx context.Context, viewerID, weekDate string, in TaskInput) (*Task, error) {
	week, err := period.WeekOf(weekDate)
	if err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}
	date := in.Date
	if date == "" {
		date = week.Start
	}
	if !week.Contains(date) {
		return nil, invalid("date", "must fall between "+week.Start+" and "+week.End)
	}
	in.Date = date
	return s.createTask(ctx, NewWeekTask(viewerID, date, in.Title), in)
}

func (s *Service) optionalReview(ctx context.Context, userID, weekStart string) (*WeekReview, error) {
	r, err := s.store.GetWeekReview(ctx, userID, weekStart)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return r, err
}
