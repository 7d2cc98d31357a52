package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/auctiondesk/internal/clock"
	"github.com/jensholdgaard/auctiondesk/internal/store"
)

// SaleRepo implements store.SaleRepository with sqlx.
type SaleRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewSaleRepo returns a new SaleRepo.
func NewSaleRepo(db *sqlx.DB, clk clock.Clock) *SaleRepo {
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
	sales := []store.Sale{}
	err := r.db.SelectContext(ctx, &sales,
		`SELECT id, session_id, lot, player_id, player_name, team_id, team_name, amount, overseas, sold_at
		 FROM sales WHERE session_id = $1 ORDER BY lot ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	return sales, nil
}
