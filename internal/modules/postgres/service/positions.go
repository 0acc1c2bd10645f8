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

const positionSelect = `id::text, user_id, symbol, product_id, order_id, side, entry_price, stop_loss,
	targets, size, remaining_size, status, exit_details, pnl, entry_pattern, entry_zone, opened_at, closed_at`

type Positions struct {
	db db.TxManager
}

func NewPositions(tx db.TxManager) *Positions {
	return &Positions{db: tx}
}

func (p *Positions) Create(ctx context.Context, pos models.Position) (id string, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.CreatePosition: %w", err)
		}
	}()

	if pos.ID == "" {
		pos.ID = uuid.NewString()
	}
	targets, err := sonic.Marshal(pos.Targets)
	if err != nil {
		return "", err
	}
	details := pos.ExitDetails
	if details == nil {
		details = []models.ExitAction{}
	}
	exits, err := sonic.Marshal(details)
	if err != nil {
		return "", err
	}
	var zone []byte
	if pos.EntryZone != nil {
		if zone, err = sonic.Marshal(pos.EntryZone); err != nil {
			return "", err
		}
	}

	_, err = p.db.Conn().Exec(ctx, `
		INSERT INTO positions (id, user_id, symbol, product_id, order_id, side, entry_price, stop_loss,
			targets, size, remaining_size, status, exit_details, pnl, entry_pattern, entry_zone, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		pos.ID, pos.UserID, pos.Symbol, pos.ProductID, pos.OrderID, string(pos.Side), pos.EntryPrice,
		pos.StopLoss, targets, pos.Size, pos.RemainingSize, string(pos.Status), exits, pos.PnL,
		pos.EntryPattern, zone, pos.OpenedAt,
	)
	if err != nil {
		return "", err
	}
	return pos.ID, nil
}

func (p *Positions) Get(ctx context.Context, id string) (pos *models.Position, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.GetPosition %s: %w", id, err)
		}
	}()
	return getPosition(ctx, p.db.Conn(), id, false)
}

// OpenPositions with userID 0 returns every user's positions.
func (p *Positions) OpenPositions(ctx context.Context, userID int64) (out []models.Position, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.OpenPositions: %w", err)
		}
	}()

	rows, err := p.db.Conn().Query(ctx, `
		SELECT `+positionSelect+` FROM positions
		WHERE status = 'open' AND ($1::bigint = 0 OR user_id = $1)
		ORDER BY opened_at`, userID)
	if err != nil {
		return nil, err
	}
	return collectPositions(rows)
}

func (p *Positions) ClosedPositions(ctx context.Context, userID int64, since time.Time) (out []models.Position, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ClosedPositions: %w", err)
		}
	}()

	rows, err := p.db.Conn().Query(ctx, `
		SELECT `+positionSelect+` FROM positions
		WHERE status = 'closed' AND user_id = $1 AND closed_at >= $2
		ORDER BY opened_at`, userID, since)
	if err != nil {
		return nil, err
	}
	return collectPositions(rows)
}

// ApplyExit locks the row, applies the action in Go and writes it back, so
// concurrent exits on one position serialize.
func (p *Positions) ApplyExit(ctx context.Context, id string, action models.ExitAction) (applied bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ApplyExit %s: %w", id, err)
		}
	}()

	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		pos, err := getPosition(ctxTx, tx, id, true)
		if err != nil {
			return err
		}
		if pos.Status == models.PositionClosed {
			return nil
		}
		pos.Apply(action)

		exits, err := sonic.Marshal(pos.ExitDetails)
		if err != nil {
			return err
		}
		var closedAt *time.Time
		if pos.Status == models.PositionClosed {
			closedAt = &pos.ClosedAt
		}
		_, err = tx.Exec(ctxTx, `
			UPDATE positions
			SET remaining_size = $2, stop_loss = $3, status = $4, exit_details = $5, pnl = $6, closed_at = $7
			WHERE id = $1`,
			id, pos.RemainingSize, pos.StopLoss, string(pos.Status), exits, pos.PnL, closedAt,
		)
		if err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (p *Positions) PurgeClosed(ctx context.Context, before time.Time) (n int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.PurgeClosed: %w", err)
		}
	}()

	tag, err := p.db.Conn().Exec(ctx,
		`DELETE FROM positions WHERE status = 'closed' AND closed_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func getPosition(ctx context.Context, q db.Transaction, id string, forUpdate bool) (*models.Position, error) {
	query := `SELECT ` + positionSelect + ` FROM positions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	pos, err := scanPosition(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return pos, nil
}

func collectPositions(rows pgx.Rows) ([]models.Position, error) {
	defer rows.Close()

	out := make([]models.Position, 0)
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *pos)
	}
	return out, rows.Err()
}

func scanPosition(row pgx.Row) (*models.Position, error) {
	var (
		pos                  models.Position
		side, status         string
		targets, exits, zone []byte
		closedAt             *time.Time
	)
	err := row.Scan(&pos.ID, &pos.UserID, &pos.Symbol, &pos.ProductID, &pos.OrderID, &side,
		&pos.EntryPrice, &pos.StopLoss, &targets, &pos.Size, &pos.RemainingSize, &status, &exits,
		&pos.PnL, &pos.EntryPattern, &zone, &pos.OpenedAt, &closedAt)
	if err != nil {
		return nil, err
	}

	pos.Side = models.Side(side)
	pos.Status = models.PositionStatus(status)
	if closedAt != nil {
		pos.ClosedAt = *closedAt
	}
	if err := sonic.Unmarshal(targets, &pos.Targets); err != nil {
		return nil, err
	}
	if err := sonic.Unmarshal(exits, &pos.ExitDetails); err != nil {
		return nil, err
	}
	if len(zone) > 0 {
		var z models.Zone
		if err := sonic.Unmarshal(zone, &z); err != nil {
			return nil, err
		}
		pos.EntryZone = &z
	}
	return &pos, nil
}
