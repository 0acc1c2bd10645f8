package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"vrz_bot/internal/models"
	"vrz_bot/pkg/db"
)

const (
	zoneColumns = `id, symbol, product_id, timeframe, zone_type, price_level, zone_upper, zone_lower,
	bar_index, swing_time, status, breach, created_at`
	zoneSelect = `id::text, symbol, product_id, timeframe, zone_type, price_level, zone_upper, zone_lower,
	bar_index, swing_time, status, breach, created_at`
)

// Zones implements the zone store on the vrz_zones table.
type Zones struct {
	db db.TxManager
}

func NewZones(tx db.TxManager) *Zones {
	return &Zones{db: tx}
}

// Save returns the id of the existing row when the swing is already stored.
// The no-op update keeps status and breach untouched.
func (z *Zones) Save(ctx context.Context, zone models.Zone) (id string, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.SaveZone: %w", err)
		}
	}()

	if zone.ID == "" {
		zone.ID = uuid.NewString()
	}
	if zone.CreatedAt.IsZero() {
		zone.CreatedAt = time.Now().UTC()
	}
	if zone.Status == "" {
		zone.Status = models.ZoneActive
	}

	err = z.db.Conn().QueryRow(ctx, `
		INSERT INTO vrz_zones (`+zoneColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULL, $12)
		ON CONFLICT (symbol, timeframe, zone_type, swing_time)
		DO UPDATE SET product_id = vrz_zones.product_id
		RETURNING id::text`,
		zone.ID, zone.Symbol, zone.ProductID, zone.Timeframe, string(zone.Type),
		zone.PriceLevel, zone.ZoneUpper, zone.ZoneLower, zone.BarIndex, zone.Timestamp,
		string(zone.Status), zone.CreatedAt,
	).Scan(&id)
	return id, err
}

func (z *Zones) ActiveZones(ctx context.Context, symbol, timeframe string, zoneType *models.ZoneType) (out []models.Zone, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ActiveZones: %w", err)
		}
	}()

	var zt *string
	if zoneType != nil {
		s := string(*zoneType)
		zt = &s
	}
	rows, err := z.db.Conn().Query(ctx, `
		SELECT `+zoneSelect+` FROM vrz_zones
		WHERE symbol = $1 AND status = 'active'
		  AND ($2 = '' OR timeframe = $2)
		  AND ($3::text IS NULL OR zone_type = $3)
		ORDER BY created_at DESC, swing_time DESC`,
		symbol, timeframe, zt,
	)
	if err != nil {
		return nil, err
	}
	return collectZones(rows)
}

func (z *Zones) Nearest(ctx context.Context, symbol, timeframe string, price float64, zoneType models.ZoneType, limit int) (out []models.Zone, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.NearestZones: %w", err)
		}
	}()

	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := z.db.Conn().Query(ctx, `
		SELECT `+zoneSelect+` FROM vrz_zones
		WHERE symbol = $1 AND timeframe = $2 AND zone_type = $3 AND status = 'active'
		ORDER BY abs(price_level - $4) ASC
		LIMIT $5`,
		symbol, timeframe, string(zoneType), price, lim,
	)
	if err != nil {
		return nil, err
	}
	return collectZones(rows)
}

// Invalidate keeps the first breach and reports whether this call flipped the
// zone. Unknown ids are ErrNotFound.
func (z *Zones) Invalidate(ctx context.Context, id string, breach models.BreachDetails) (changed bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.InvalidateZone %s: %w", id, err)
		}
	}()

	data, err := sonic.Marshal(breach)
	if err != nil {
		return false, err
	}
	err = z.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctxTx, `SELECT status FROM vrz_zones WHERE id = $1 FOR UPDATE`, id).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return err
		}
		if status != string(models.ZoneActive) {
			return nil
		}
		if _, err := tx.Exec(ctxTx, `UPDATE vrz_zones SET status = 'invalidated', breach = $2 WHERE id = $1`, id, data); err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}

func (z *Zones) PurgeInvalidated(ctx context.Context, before time.Time) (n int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.PurgeInvalidated: %w", err)
		}
	}()

	tag, err := z.db.Conn().Exec(ctx,
		`DELETE FROM vrz_zones WHERE status = 'invalidated' AND created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectZones(rows pgx.Rows) ([]models.Zone, error) {
	defer rows.Close()

	out := make([]models.Zone, 0)
	for rows.Next() {
		var (
			zone   models.Zone
			zt, st string
			breach []byte
		)
		if err := rows.Scan(&zone.ID, &zone.Symbol, &zone.ProductID, &zone.Timeframe, &zt,
			&zone.PriceLevel, &zone.ZoneUpper, &zone.ZoneLower, &zone.BarIndex, &zone.Timestamp,
			&st, &breach, &zone.CreatedAt); err != nil {
			return nil, err
		}
		zone.Type = models.ZoneType(zt)
		zone.Status = models.ZoneStatus(st)
		if len(breach) > 0 {
			var bd models.BreachDetails
			if err := sonic.Unmarshal(breach, &bd); err != nil {
				return nil, err
			}
			zone.Breach = &bd
		}
		out = append(out, zone)
	}
	return out, rows.Err()
}
