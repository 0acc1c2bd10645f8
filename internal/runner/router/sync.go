package router

import "vrz_bot/internal/models"

// Sync makes the running sessions match the active users.
func (r *Router) Sync(active []models.UserSettings) (enabled, disabled int) {
	keep := make(map[int64]struct{}, len(active))
	for i := range active {
		u := active[i]
		if !u.IsActive {
			continue
		}
		keep[u.UserID] = struct{}{}
		if r.EnableUser(&u) {
			enabled++
		}
	}

	for _, s := range r.Sessions() {
		if _, ok := keep[s.UserID]; !ok && r.DisableUser(s.UserID) {
			disabled++
		}
	}
	return enabled, disabled
}
