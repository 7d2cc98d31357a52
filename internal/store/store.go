package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one lot sold to a team, kept for the post-auction ledger.
type Sale struct {
	ID         string          `db:"id" json:"id"`
	SessionID  string          `db:"session_id" json:"session_id"`
	Lot        int             `db:"lot" json:"lot"`
	PlayerID   int             `db:"player_id" json:"player_id"`
	PlayerName string          `db:"player_name" json:"player_name"`
	TeamID     int             `db:"team_id" json:"team_id"`
	TeamName   string          `db:"team_name" json:"team_name"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Overseas   bool            `db:"overseas" json:"overseas"`
	SoldAt     time.Time       `db:"sold_at" json:"sold_at"`
}

// SaleRepository defines sales ledger persistence operations.
type SaleRepository interface {
	Record(ctx context.Context, s *Sale) error
	ListBySession(ctx context.Context, sessionID string) ([]Sale, error)
}
