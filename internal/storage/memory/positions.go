package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vrz_bot/internal/models"
)

type Positions struct {
	mu   sync.RWMutex
	data map[string]*models.Position
}

func NewPositions() *Positions {
	return &Positions{data: make(map[string]*models.Position)}
}

func (s *Positions) Create(_ context.Context, pos models.Position) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos.ID == "" {
		pos.ID = uuid.NewString()
	}
	if _, ok := s.data[pos.ID]; ok {
		return "", fmt.Errorf("memory.CreatePosition: duplicate id %s", pos.ID)
	}
	p := clonePosition(pos)
	s.data[p.ID] = &p
	return p.ID, nil
}

func (s *Positions) Get(_ context.Context, id string) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("memory.GetPosition %s: %w", id, models.ErrNotFound)
	}
	out := clonePosition(*p)
	return &out, nil
}

// OpenPositions with userID 0 returns every user's positions.
func (s *Positions) OpenPositions(_ context.Context, userID int64) ([]models.Position, error) {
	return s.filter(func(p *models.Position) bool {
		return p.Status == models.PositionOpen && (userID == 0 || p.UserID == userID)
	}), nil
}

func (s *Positions) ClosedPositions(_ context.Context, userID int64, since time.Time) ([]models.Position, error) {
	return s.filter(func(p *models.Position) bool {
		return p.Status == models.PositionClosed && p.UserID == userID && !p.ClosedAt.Before(since)
	}), nil
}

// ApplyExit returns false when the position is already closed.
func (s *Positions) ApplyExit(_ context.Context, id string, action models.ExitAction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.data[id]
	if !ok {
		return false, fmt.Errorf("memory.ApplyExit %s: %w", id, models.ErrNotFound)
	}
	if p.Status == models.PositionClosed {
		return false, nil
	}
	p.Apply(action)
	return true, nil
}

func (s *Positions) PurgeClosed(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, p := range s.data {
		if p.Status == models.PositionClosed && p.ClosedAt.Before(before) {
			delete(s.data, id)
			n++
		}
	}
	return n, nil
}

func (s *Positions) filter(keep func(p *models.Position) bool) []models.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Position, 0)
	for _, p := range s.data {
		if keep(p) {
			out = append(out, clonePosition(*p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out
}

func clonePosition(p models.Position) models.Position {
	p.Targets = append([]models.Target(nil), p.Targets...)
	p.ExitDetails = append([]models.ExitAction(nil), p.ExitDetails...)
	if p.EntryZone != nil {
		z := *p.EntryZone
		p.EntryZone = &z
	}
	return p
}
