package planner

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// StepInput is one step as submitted by the editor. An empty ID marks a
// new step.
type StepInput struct {
	ID              string
	Text            string
	DurationMinutes *int
}

// Direction for MoveRoutineStep.
type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

// ListRoutines returns the viewer's morning and evening routines. A
// routine that was never saved comes back empty, without an ID.
func (s *Service) ListRoutines(ctx context.Context, viewerID string) ([]Routine, error) {
	saved, err := s.store.ListRoutines(ctx, []string{viewerID})
	if err != nil {
		return nil, err
	}
	byType := make(map[RoutineType]Routine, len(saved))
	for _, r := range saved {
		byType[r.Type] = r
	}
	out := make([]Routine, 0, len(RoutineTypes))
	for _, t := range RoutineTypes {
		r, ok := byType[t]
		if !ok {
			r = Routine{UserID: viewerID, Type: t, Steps: []RoutineStep{}}
		}
		out = append(out, r)
	}
	return out, nil
}

// SaveRoutineSteps replaces the step list in one save. Known step ids keep
// their completion history; new steps get fresh ids.
func (s *Service) SaveRoutineSteps(ctx context.Context, viewerID string, t RoutineType, steps []StepInput) (*Routine, error) {
	r, err := s.ensureRoutine(ctx, viewerID, t)
	if err != nil {
		return nil, err
	}

	history := make(map[string][]string, len(r.Steps))
	for _, st := range r.Steps {
		history[st.ID] = st.CompletedDates
	}

	next := make([]RoutineStep, 0, len(steps))
	for _, in := range steps {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return nil, invalid("steps", "step text cannot be blank")
		}
		if in.DurationMinutes != nil && *in.DurationMinutes < 0 {
			return nil, invalid("steps", "duration cannot be negative")
		}
		id := in.ID
		done, known := history[id]
		if id == "" || !known {
			id = uuid.NewString()
			done = nil
		}
		if done == nil {
			done = []string{}
		}
		next = append(next, RoutineStep{ID: id, Text: text, DurationMinutes: in.DurationMinutes, CompletedDates: done})
	}

	r.Steps = next
	return s.saveRoutine(ctx, r)
}

// MoveRoutineStep swaps a step with its neighbour. Moving past either end
// is a no-op.
func (s *Service) MoveRoutineStep(ctx context.Context, viewerID string, t RoutineType, stepID string, dir Direction) (*Routine, error) {
	r, err := s.ensureRoutine(ctx, viewerID, t)
	if err != nil {
		return nil, err
	}
	i := stepIndex(r.Steps, stepID)
	if i < 0 {
		return nil, ErrNotFound
	}
	j := i + int(dir)
	if j < 0 || j >= len(r.Steps) {
		return r, nil
	}
	r.Steps[i], r.Steps[j] = r.Steps[j], r.Steps[i]
	return s.saveRoutine(ctx, r)
}

// ToggleRoutineStepToday flips the step's completion for the viewer's
// local today.
func (s *Service) ToggleRoutineStepToday(ctx context.Context, viewerID string, t RoutineType, stepID string) (*Routine, error) {
	r, err := s.ensureRoutine(ctx, viewerID, t)
	if err != nil {
		return nil, err
	}
	i := stepIndex(r.Steps, stepID)
	if i < 0 {
		return nil, ErrNotFound
	}

	today := s.cal.Today()
	step := &r.Steps[i]
	if step.DoneOn(today) {
		kept := step.CompletedDates[:0]
		for _, d := range step.CompletedDates {
			if d != today {
				kept = append(kept, d)
			}
		}
		step.CompletedDates = kept
	} else {
		step.CompletedDates = append(step.CompletedDates, today)
	}
	return s.saveRoutine(ctx, r)
}

// ensureRoutine loads the routine or starts a new one in memory.
func (s *Service) ensureRoutine(ctx context.Context, viewerID string, t RoutineType) (*Routine, error) {
	if !t.Valid() {
		return nil, invalid("type", "must be morning or evening")
	}
	r, err := s.store.GetRoutine(ctx, viewerID, t)
	if errors.Is(err, ErrNotFound) {
		now := s.now()
		return &Routine{ID: newID(), UserID: viewerID, Type: t, Steps: []RoutineStep{}, CreatedAt: now}, nil
	}
	return r, err
}

func (s *Service) saveRoutine(ctx context.Context, r *Routine) (*Routine, error) {
	r.UpdatedAt = s.now()
	if err := s.store.SaveRoutine(ctx, *r); err != nil {
		return nil, err
	}
	return s.store.GetRoutine(ctx, r.UserID, r.Type)
}

func stepIndex(steps []RoutineStep, id string) int {
	for i, st := range steps {
		if st.ID == id {
			return i
		}
	}
	return -1
}
