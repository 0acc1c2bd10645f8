package router

import "vrz_bot/pkg/logger"

func (r *Router) DisableUser(userID int64) bool {
	r.mu.Lock()
	sess, ok := r.users[userID]
	if ok {
		delete(r.users, userID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	// stops in-flight work of this user
	sess.Cancel()
	logger.Info("session stopped for user %d", userID)
	return true
}
