package router

import (
	"vrz_bot/internal/models"
	"vrz_bot/internal/runner/sessions"
	"vrz_bot/pkg/logger"
)

// EnableUser starts a session. An existing session only gets the new settings.
func (r *Router) EnableUser(user *models.UserSettings) bool {
	if user == nil {
		logger.Warn("EnableUser called with nil user settings")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.users[user.UserID]; ok {
		sess.SetSettings(user.Settings)
		return false
	}
	r.users[user.UserID] = sessions.New(*user, r.deps)
	logger.Info("session started for user %d (%s)", user.UserID, user.Name)
	return true
}
