package entstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jensholdgaard/auctiondesk/internal/clock"
	"github.com/jensholdgaard/auctiondesk/internal/store"
)

// SaleRepo implements store.SaleRepository using database/sql.
type SaleRepo struct {
	db    *sql.DB
	clock clock.Clock
}

// NewSaleRepo returns a new SaleRepo.
func NewSaleRepo(db *sql.DB, clk clock.Clock) *SaleRepo {
	return &SaleRepo{db: db, clock: clk}
}

func (r *SaleRepo) Record(ctx context.Context, s *store.Sale) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.SoldAt.IsZero() {
		s.SoldAt = r.clock.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sales (id, session_id, lot, player_id, player_name, team_id, team_name, amount, overseas, sold_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.SessionID, s.Lot, s.PlayerID, s.PlayerName, s.TeamID, s.TeamName, s.Amount, s.Overseas, s.SoldAt,
	)
	if err != nil {
		return fmt.Errorf("recording sale: %w", err)
	}
	return nil
}

func (r *SaleRepo) ListBySession(ctx context.Context, sessionID string) ([]store.Sale, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, lot, player_id, player_name, team_id, team_name, amount, overseas, sold_at
		 FROM sales WHERE session_id = $1 ORDER BY lot ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	defer rows.Close()

	sales := []store.Sale{}
	for rows.Next() {
		var s store.Sale
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Lot, &s.PlayerID, &s.PlayerName,
			&s.TeamID, &s.TeamName, &s.Amount, &s.Overseas, &s.SoldAt); err != nil {
			return nil, fmt.Errorf("scanning sale row: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}
