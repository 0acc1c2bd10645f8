package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"

	"vrz_bot/internal/models"
	"vrz_bot/pkg/db"
)

// Users keeps trading preferences in user_settings; settings is a jsonb blob.
type Users struct {
	db db.TxManager
}

func NewUsers(tx db.TxManager) *Users {
	return &Users{db: tx}
}

func (u *Users) Upsert(ctx context.Context, user *models.UserSettings) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.UpsertUser: %w", err)
		}
	}()

	var data []byte
	data, err = sonic.Marshal(user.Settings)
	if err != nil {
		return err
	}
	_, err = u.db.Conn().Exec(ctx, `
		INSERT INTO user_settings (user_id, name, is_active, settings)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET name = EXCLUDED.name, is_active = EXCLUDED.is_active,
		    settings = EXCLUDED.settings, updated_at = now()`,
		user.UserID, user.Name, user.IsActive, data,
	)
	return err
}

func (u *Users) Get(ctx context.Context, userID int64) (user *models.UserSettings, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.GetUser %d: %w", userID, err)
		}
	}()

	row := u.db.Conn().QueryRow(ctx, `
		SELECT user_id, name, is_active, settings, created_at, updated_at
		FROM user_settings WHERE user_id = $1`, userID)
	user, err = scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return user, err
}

func (u *Users) Active(ctx context.Context) (out []models.UserSettings, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ActiveUsers: %w", err)
		}
	}()

	rows, err := u.db.Conn().Query(ctx, `
		SELECT user_id, name, is_active, settings, created_at, updated_at
		FROM user_settings WHERE is_active ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out = make([]models.UserSettings, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *user)
	}
	return out, rows.Err()
}

func (u *Users) SetActive(ctx context.Context, userID int64, active bool) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.SetActive %d: %w", userID, err)
		}
	}()

	tag, err := u.db.Conn().Exec(ctx,
		`UPDATE user_settings SET is_active = $2, updated_at = now() WHERE user_id = $1`, userID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*models.UserSettings, error) {
	var (
		user models.UserSettings
		data []byte
	)
	if err := row.Scan(&user.UserID, &user.Name, &user.IsActive, &data, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	if err := sonic.Unmarshal(data, &user.Settings); err != nil {
		return nil, err
	}
	return &user, nil
}
