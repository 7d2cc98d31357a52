package auction

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jensholdgaard/auctiondesk/internal/catalog"
	"github.com/jensholdgaard/auctiondesk/internal/clock"
	"github.com/jensholdgaard/auctiondesk/internal/event"
	"github.com/jensholdgaard/auctiondesk/internal/notify"
	"github.com/jensholdgaard/auctiondesk/internal/team"
)

// BidIncrement is added to the standing bid on every accepted bid.
var BidIncrement = decimal.RequireFromString("0.10")

// PopupTTL is how long a sold/unsold notice stays visible on the display.
const PopupTTL = 5 * time.Second

// Rejection reasons. Callers outside this package only see that nothing
// changed; the reasons exist for logs and tests.
var (
	ErrAuctionComplete    = errors.New("auction is complete")
	ErrUnknownTeam        = errors.New("unknown team")
	ErrInsufficientBudget = errors.New("insufficient budget")
	ErrNoBidHolder        = errors.New("no bid on the current lot")
)

// Kind distinguishes the two ways a lot can close.
type Kind string

const (
	KindSold   Kind = "sold"
	KindUnsold Kind = "unsold"
)

// Action is the notice shown when a lot closes.
type Action struct {
	Kind     Kind      `json:"type"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Color    string    `json:"color"`
	Gradient string    `json:"gradient"`
	At       time.Time `json:"-"`
}

const (
	unsoldColor    = "#6c757d"
	unsoldGradient = "linear-gradient(135deg, #6c757d 0%, #343a40 100%)"
)

// Result reports whether an operation changed state. Version is the change
// counter after the operation.
type Result struct {
	Applied bool
	Reason  error
	Version int64
}

// Auction is the state machine for a run of lots. It is safe for concurrent
// use: mutations are serialized and reads observe a consistent copy.
type Auction struct {
	mu sync.RWMutex

	session     string
	players     []catalog.Player
	teams       []team.Team
	lot         int
	bid         decimal.Decimal // zero until the first accepted bid on the lot
	holder      *int
	last        *Action
	homeCountry string

	notifier *notify.Notifier
	clock    clock.Clock
	events   []event.Event
	closed   []Action
}

// New creates an auction positioned on the first lot.
func New(players []catalog.Player, teams []team.Team, homeCountry string, n *notify.Notifier, clk clock.Clock) *Auction {
	return &Auction{
		session:     uuid.NewString(),
		players:     players,
		teams:       teams,
		homeCountry: homeCountry,
		notifier:    n,
		clock:       clk,
	}
}

// Session identifies the current run; it changes on every Reset.
func (a *Auction) Session() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

func (a *Auction) complete() bool {
	return a.lot >= len(a.players)
}

// standingBid is the bid a client sees: the base price until someone bids.
func (a *Auction) standingBid() decimal.Decimal {
	if a.bid.IsZero() {
		return a.players[a.lot].BasePrice
	}
	return a.bid
}

func (a *Auction) rejected(reason error) Result {
	return Result{Reason: reason, Version: a.notifier.Version()}
}

// PlaceBid raises the standing bid by BidIncrement on behalf of teamID.
func (a *Auction) PlaceBid(teamID int) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.complete() {
		return a.rejected(ErrAuctionComplete)
	}
	if teamID < 0 || teamID >= len(a.teams) {
		return a.rejected(ErrUnknownTeam)
	}

	next := a.standingBid().Add(BidIncrement).Round(2)
	if !a.teams[teamID].CanAfford(next) {
		return a.rejected(ErrInsufficientBudget)
	}

	a.bid = next
	a.holder = &teamID

	v := a.recordEvent(event.BidPlaced, event.BidPlacedData{
		Lot:      a.lot,
		PlayerID: a.players[a.lot].ID,
		TeamID:   teamID,
		Amount:   next,
	})
	return Result{Applied: true, Version: v}
}

// Sell awards the current lot to the highest bidder and moves to the next lot.
func (a *Auction) Sell() Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.complete() {
		return a.rejected(ErrAuctionComplete)
	}
	if a.holder == nil {
		return a.rejected(ErrNoBidHolder)
	}

	tm := &a.teams[*a.holder]
	p := &a.players[a.lot]
	amount := a.bid
	overseas := p.Country != a.homeCountry

	tm.Win(p.Name, amount, overseas)
	p.Status = catalog.StatusSold
	a.last = &Action{
		Kind:     KindSold,
		Title:    "SOLD TO " + tm.Name,
		Subtitle: fmt.Sprintf("For ₹%s Crores", team.FormatCrores(amount)),
		Color:    tm.Color,
		Gradient: tm.Gradient,
		At:       a.clock.Now(),
	}
	a.closed = append(a.closed, *a.last)

	data := event.LotSoldData{
		Lot:        a.lot,
		PlayerID:   p.ID,
		PlayerName: p.Name,
		TeamID:     tm.ID,
		TeamName:   tm.Name,
		Amount:     amount,
		Overseas:   overseas,
	}
	a.advance()
	v := a.recordEvent(event.LotSold, data)
	return Result{Applied: true, Version: v}
}

// Pass closes the current lot unsold. The player is never offered again.
func (a *Auction) Pass() Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.complete() {
		return a.rejected(ErrAuctionComplete)
	}

	p := a.players[a.lot]
	a.last = &Action{
		Kind:     KindUnsold,
		Title:    "UNSOLD",
		Subtitle: "Player Passed",
		Color:    unsoldColor,
		Gradient: unsoldGradient,
		At:       a.clock.Now(),
	}
	a.closed = append(a.closed, *a.last)

	data := event.LotPassedData{
		Lot:        a.lot,
		PlayerID:   p.ID,
		PlayerName: p.Name,
	}
	a.advance()
	v := a.recordEvent(event.LotPassed, data)
	return Result{Applied: true, Version: v}
}

// Reset discards all progress and starts a new session over the given
// catalog and teams.
func (a *Auction) Reset(players []catalog.Player, teams []team.Team) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.session = uuid.NewString()
	a.players = players
	a.teams = teams
	a.lot = 0
	a.bid = decimal.Zero
	a.holder = nil
	a.last = nil

	v := a.recordEvent(event.AuctionReset, event.AuctionResetData{
		Players: len(players),
		Teams:   len(teams),
	})
	return Result{Applied: true, Version: v}
}

func (a *Auction) advance() {
	a.lot++
	a.bid = decimal.Zero
	a.holder = nil
}

// Snapshot is a deep copy of the auction at one version.
type Snapshot struct {
	Session string
	Version int64
	Lot     int
	Total   int
	// Player is the current lot; nil once the auction is complete.
	Player *catalog.Player
	Teams  []team.Team
	// Bid is the standing bid, materialized to the base price when nobody
	// has bid yet. Zero when complete.
	Bid        decimal.Decimal
	Holder     *int
	LastAction *Action
}

// Complete reports whether every lot has been closed.
func (s Snapshot) Complete() bool {
	return s.Player == nil
}

// Snapshot returns a consistent copy of the current state.
func (a *Auction) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := Snapshot{
		Session: a.session,
		Version: a.notifier.Version(),
		Lot:     a.lot,
		Total:   len(a.players),
		Teams:   make([]team.Team, len(a.teams)),
	}
	for i, t := range a.teams {
		s.Teams[i] = t.Clone()
	}
	if a.last != nil {
		last := *a.last
		s.LastAction = &last
	}
	if a.complete() {
		return s
	}

	p := a.players[a.lot]
	s.Player = &p
	s.Bid = a.standingBid()
	if a.holder != nil {
		h := *a.holder
		s.Holder = &h
	}
	return s
}

// Players returns a copy of the catalog with current statuses.
func (a *Auction) Players() []catalog.Player {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]catalog.Player, len(a.players))
	copy(out, a.players)
	return out
}

// PendingEvents returns unpersisted journal events and clears the buffer.
func (a *Auction) PendingEvents() []event.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	events := a.events
	a.events = nil
	return events
}

// PendingActions returns the lots closed since the last call, oldest first,
// and clears the buffer.
func (a *Auction) PendingActions() []Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	closed := a.closed
	a.closed = nil
	return closed
}

// recordEvent bumps the change counter and buffers a journal entry. Must be
// called with a.mu held.
func (a *Auction) recordEvent(t event.Type, payload any) int64 {
	v := a.notifier.Bump()
	data, _ := json.Marshal(payload)
	a.events = append(a.events, event.Event{
		ID:          uuid.NewString(),
		AggregateID: a.session,
		Type:        t,
		Data:        data,
		Version:     v,
		CreatedAt:   a.clock.Now().UTC(),
	})
	return v
}
