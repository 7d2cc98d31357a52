package event

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Type identifies an event kind.
type Type string

const (
	BidPlaced    Type = "lot.bid_placed"
	LotSold      Type = "lot.sold"
	LotPassed    Type = "lot.passed"
	AuctionReset Type = "auction.reset"
)

// ParseType maps a wire name such as "lot.sold" to its Type.
func ParseType(s string) (Type, bool) {
	switch t := Type(s); t {
	case BidPlaced, LotSold, LotPassed, AuctionReset:
		return t, true
	}
	return "", false
}

// Event is a single journal entry. AggregateID is the auction session and
// Version is the change-counter value the mutation produced.
type Event struct {
	ID          string          `json:"id" db:"id"`
	AggregateID string          `json:"aggregate_id" db:"aggregate_id"`
	Type        Type            `json:"type" db:"type"`
	Data        json.RawMessage `json:"data" db:"data"`
	Version     int64           `json:"version" db:"version"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// BidPlacedData is the payload for BidPlaced events.
type BidPlacedData struct {
	Lot      int             `json:"lot"`
	PlayerID int             `json:"player_id"`
	TeamID   int             `json:"team_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// LotSoldData is the payload for LotSold events.
type LotSoldData struct {
	Lot        int             `json:"lot"`
	PlayerID   int             `json:"player_id"`
	PlayerName string          `json:"player_name"`
	TeamID     int             `json:"team_id"`
	TeamName   string          `json:"team_name"`
	Amount     decimal.Decimal `json:"amount"`
	Overseas   bool            `json:"overseas"`
}

// LotPassedData is the payload for LotPassed events.
type LotPassedData struct {
	Lot        int    `json:"lot"`
	PlayerID   int    `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// AuctionResetData is the payload for AuctionReset events.
type AuctionResetData struct {
	Players int `json:"players"`
	Teams   int `json:"teams"`
}
