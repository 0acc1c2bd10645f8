package sessions

import (
	"context"
	"time"

	"vrz_bot/internal/models"
	"vrz_bot/internal/notify"
)

// Report sends trade statistics for positions closed since the given time.
// Nothing is sent when no position was closed.
func (s *UserSession) Report(ctx context.Context, since time.Time) (models.PositionStats, error) {
	closed, err := s.deps.Positions.ClosedPositions(ctx, s.UserID, since)
	if err != nil {
		return models.PositionStats{}, err
	}
	st := models.CalcStats(closed)
	if st.Total > 0 {
		s.notify(ctx, notify.FormatReport(models.UserSettings{UserID: s.UserID, Name: s.Name}, st))
	}
	return st, nil
}
