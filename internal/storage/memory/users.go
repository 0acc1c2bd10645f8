package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"vrz_bot/internal/models"
)

type Users struct {
	mu   sync.RWMutex
	data map[int64]*models.UserSettings
}

func NewUsers() *Users {
	return &Users{data: make(map[int64]*models.UserSettings)}
}

// Upsert creates or replaces the user.
func (u *Users) Upsert(_ context.Context, user *models.UserSettings) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	cp := *user
	cp.Settings.SelectedAssets = append([]string(nil), user.Settings.SelectedAssets...)
	cp.Settings.TargetLevels = append([]float64(nil), user.Settings.TargetLevels...)
	now := time.Now().UTC()
	if old, ok := u.data[user.UserID]; ok {
		cp.CreatedAt = old.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	u.data[user.UserID] = &cp
	return nil
}

func (u *Users) Get(_ context.Context, userID int64) (*models.UserSettings, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.data[userID]
	if !ok {
		return nil, fmt.Errorf("memory.GetUser %d: %w", userID, models.ErrNotFound)
	}
	cp := *user
	return &cp, nil
}

func (u *Users) Active(_ context.Context) ([]models.UserSettings, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make([]models.UserSettings, 0, len(u.data))
	for _, user := range u.data {
		if user.IsActive {
			out = append(out, *user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (u *Users) SetActive(_ context.Context, userID int64, active bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	user, ok := u.data[userID]
	if !ok {
		return fmt.Errorf("memory.SetActive %d: %w", userID, models.ErrNotFound)
	}
	user.IsActive = active
	user.UpdatedAt = time.Now().UTC()
	return nil
}
