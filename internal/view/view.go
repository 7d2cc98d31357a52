// Package view derives the read-only projections served to the three
// auction screens. Everything here is a pure function of an auction
// snapshot and the current time.
package view

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jensholdgaard/auctiondesk/internal/auction"
	"github.com/jensholdgaard/auctiondesk/internal/catalog"
	"github.com/jensholdgaard/auctiondesk/internal/team"
)

// Mode selects which screen a projection is rendered for.
type Mode string

const (
	ModeFull    Mode = "full"
	ModeAdmin   Mode = "admin"
	ModeDisplay Mode = "display"
)

// ParseMode validates a view mode name. The empty string means ModeFull.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeFull, ModeAdmin, ModeDisplay:
		return m, nil
	case "":
		return ModeFull, nil
	default:
		return "", fmt.Errorf("unknown view mode %q", s)
	}
}

// Controls reports whether the mode shows bid and hammer buttons.
func (m Mode) Controls() bool {
	return m == ModeFull || m == ModeAdmin
}

// Projection is what a screen shows at one version.
type Projection struct {
	Complete bool        `json:"complete"`
	ViewMode Mode        `json:"view_mode"`
	StateID  int64       `json:"state_id"`
	Teams    []team.Team `json:"teams"`

	Player           *catalog.Player  `json:"player"`
	CurrentBid       *decimal.Decimal `json:"current_bid"`
	CurrentBidHolder *int             `json:"current_bid_holder"`
	Popup            *auction.Action  `json:"popup"`
	LotNumber        int              `json:"lot_number"`
	TotalLots        int              `json:"total_lots"`
}

// Project builds the projection for mode from snap as seen at now.
func Project(snap auction.Snapshot, mode Mode, now time.Time) Projection {
	p := Projection{
		Complete:  snap.Complete(),
		ViewMode:  mode,
		StateID:   snap.Version,
		Teams:     snap.Teams,
		TotalLots: snap.Total,
	}
	if p.Teams == nil {
		p.Teams = []team.Team{}
	}
	if p.Complete {
		return p
	}

	bid := snap.Bid
	p.Player = snap.Player
	p.CurrentBid = &bid
	p.CurrentBidHolder = snap.Holder
	p.LotNumber = snap.Lot + 1
	if snap.LastAction != nil && now.Sub(snap.LastAction.At) < auction.PopupTTL {
		p.Popup = snap.LastAction
	}
	return p
}

// HolderTeam returns the team holding the standing bid, if any.
func (p Projection) HolderTeam() *team.Team {
	if p.CurrentBidHolder == nil {
		return nil
	}
	for i := range p.Teams {
		if p.Teams[i].ID == *p.CurrentBidHolder {
			return &p.Teams[i]
		}
	}
	return nil
}

// CanRaise reports whether t could afford the next bid on the current lot.
func (p Projection) CanRaise(t team.Team) bool {
	if p.Complete || p.CurrentBid == nil {
		return false
	}
	return t.CanAfford(p.CurrentBid.Add(auction.BidIncrement).Round(2))
}

// NoPlayers reports a catalog that loaded empty, as opposed to one whose
// lots have all closed.
func (p Projection) NoPlayers() bool {
	return p.Complete && p.TotalLots == 0
}

// MarshalJSON drops the current-lot fields once the auction is complete.
// total_lots is kept so clients can tell an empty catalog from a finished one.
func (p Projection) MarshalJSON() ([]byte, error) {
	if p.Complete {
		return json.Marshal(struct {
			Complete  bool        `json:"complete"`
			ViewMode  Mode        `json:"view_mode"`
			StateID   int64       `json:"state_id"`
			Teams     []team.Team `json:"teams"`
			TotalLots int         `json:"total_lots"`
		}{p.Complete, p.ViewMode, p.StateID, p.Teams, p.TotalLots})
	}
	type alias Projection
	return json.Marshal(alias(p))
}
