package router

import (
	"context"
	"fmt"

	"vrz_bot/internal/models"
)

// StatusForUser returns the open positions of a running user.
func (r *Router) StatusForUser(ctx context.Context, userID int64) ([]models.Position, error) {
	sess, ok := r.GetSession(userID)
	if !ok {
		return nil, fmt.Errorf("session for user %d: %w", userID, models.ErrNotFound)
	}
	return sess.Status(ctx)
}

// ClosePosition flattens a position of a running user at market.
func (r *Router) ClosePosition(ctx context.Context, userID int64, positionID, reason string) (models.ExitAction, error) {
	sess, ok := r.GetSession(userID)
	if !ok {
		return models.ExitAction{}, fmt.Errorf("session for user %d: %w", userID, models.ErrNotFound)
	}
	return sess.ClosePosition(ctx, positionID, reason)
}
