package router

import (
	"sort"
	"sync"

	"vrz_bot/internal/runner/sessions"
)

// Router keeps one session per active user.
type Router struct {
	mu    sync.RWMutex
	users map[int64]*sessions.UserSession // userID -> session
	deps  sessions.Deps
}

func NewRouter(deps sessions.Deps) *Router {
	return &Router{
		users: make(map[int64]*sessions.UserSession),
		deps:  deps,
	}
}

func (r *Router) GetSession(userID int64) (*sessions.UserSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.users[userID]
	return s, ok
}

// Sessions returns a snapshot ordered by user id.
func (r *Router) Sessions() []*sessions.UserSession {
	r.mu.RLock()
	out := make([]*sessions.UserSession, 0, len(r.users))
	for _, s := range r.users {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
