package planner

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/winning-app/winning/period"
)

// Service runs planner operations for a signed-in viewer.
// It is safe for concurrent use; all state lives in the Store.
type Service struct {
	store  Store
	cal    *period.Calendar
	logger *zap.Logger
}

// NewService wires a Service. A nil calendar means period.Default and a
// nil logger discards output.
func NewService(store Store, cal *period.Calendar, logger *zap.Logger) *Service {
	if cal == nil {
		cal = period.Default
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cal: cal, logger: logger}
}

// Calendar exposes the calendar used for "today" and month keys.
func (s *Service) Calendar() *period.Calendar { return s.cal }

func (s *Service) now() time.Time {
	if s.cal.Now != nil {
		return s.cal.Now().UTC()
	}
	return time.Now().UTC()
}

func newID() string { return ulid.Make().String() }

// owned rejects rows that belong to someone other than the viewer.
func owned(ownerID, viewerID string) error {
	if ownerID != viewerID {
		return ErrForbidden
	}
	return nil
}

// =============================================================================
// WIN SIDE EFFECTS - logged, never returned
// =============================================================================

func (s *Service) recordWin(ctx context.Context, w Win) {
	w.ID = newID()
	w.CreatedAt = s.now()
	if err := s.store.SaveWin(ctx, w); err != nil {
		s.logger.Warn("win not recorded",
			zap.String("user_id", w.UserID),
			zap.String("task_id", w.TaskID),
			zap.String("milestone_id", w.MilestoneID),
			zap.Error(err))
	}
}

func (s *Service) dropWins(ctx context.Context, what, id string, del func(context.Context, string) error) {
	if err := del(ctx, id); err != nil {
		s.logger.Warn("win not removed", zap.String(what, id), zap.Error(err))
	}
}
