package auction_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jensholdgaard/auctiondesk/internal/auction"
	"github.com/jensholdgaard/auctiondesk/internal/catalog"
	"github.com/jensholdgaard/auctiondesk/internal/clock"
	"github.com/jensholdgaard/auctiondesk/internal/event"
	"github.com/jensholdgaard/auctiondesk/internal/notify"
	"github.com/jensholdgaard/auctiondesk/internal/team"
)

var epoch = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func player(id int, name, country, price string) catalog.Player {
	return catalog.Player{
		ID:        id,
		Name:      name,
		Role:      "Batter",
		Country:   country,
		BasePrice: d(price),
		Status:    catalog.StatusUnsold,
		Type:      catalog.DefaultType,
	}
}

func newAuction(t *testing.T, players []catalog.Player, teams []team.Team) (*auction.Auction, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock(epoch)
	return auction.New(players, teams, "India", notify.New(), clk), clk
}

func TestPlaceBid(t *testing.T) {
	tests := []struct {
		name        string
		budget      string
		bids        []int
		wantApplied bool
		wantReason  error
		wantBid     string
		wantHolder  *int
	}{
		{
			name:        "first bid adds increment to base price",
			budget:      "43.40",
			bids:        []int{0},
			wantApplied: true,
			wantBid:     "2.10",
			wantHolder:  ptr(0),
		},
		{
			name:        "second bid builds on standing bid",
			budget:      "43.40",
			bids:        []int{0, 1},
			wantApplied: true,
			wantBid:     "2.20",
			wantHolder:  ptr(1),
		},
		{
			name:       "insufficient budget rejected",
			budget:     "0.05",
			bids:       []int{0},
			wantReason: auction.ErrInsufficientBudget,
			wantBid:    "2.00",
		},
		{
			name:       "unknown team rejected",
			budget:     "43.40",
			bids:       []int{99},
			wantReason: auction.ErrUnknownTeam,
			wantBid:    "2.00",
		},
		{
			name:       "negative team rejected",
			budget:     "43.40",
			bids:       []int{-1},
			wantReason: auction.ErrUnknownTeam,
			wantBid:    "2.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			teams := team.Initial()
			teams[0].Budget = d(tt.budget)
			teams[1].Budget = d(tt.budget)
			a, _ := newAuction(t, []catalog.Player{player(0, "X", "India", "2.0")}, teams)

			var res auction.Result
			for _, id := range tt.bids {
				res = a.PlaceBid(id)
			}

			if res.Applied != tt.wantApplied {
				t.Errorf("Applied = %v, want %v", res.Applied, tt.wantApplied)
			}
			if !errors.Is(res.Reason, tt.wantReason) {
				t.Errorf("Reason = %v, want %v", res.Reason, tt.wantReason)
			}

			snap := a.Snapshot()
			if !snap.Bid.Equal(d(tt.wantBid)) {
				t.Errorf("Bid = %s, want %s", snap.Bid, tt.wantBid)
			}
			switch {
			case tt.wantHolder == nil && snap.Holder != nil:
				t.Errorf("Holder = %d, want nil", *snap.Holder)
			case tt.wantHolder != nil && (snap.Holder == nil || *snap.Holder != *tt.wantHolder):
				t.Errorf("Holder = %v, want %d", snap.Holder, *tt.wantHolder)
			}
		})
	}
}

func TestPlaceBid_ExactBudgetAccepted(t *testing.T) {
	teams := team.Initial()
	teams[0].Budget = d("2.10")
	a, _ := newAuction(t, []catalog.Player{player(0, "X", "India", "2.0")}, teams)

	if res := a.PlaceBid(0); !res.Applied {
		t.Fatalf("bid equal to budget rejected: %v", res.Reason)
	}
}

func TestPlaceBid_RoundsToTwoPlaces(t *testing.T) {
	a, _ := newAuction(t, []catalog.Player{player(0, "X", "India", "0.75")}, team.Initial())
	for range 3 {
		a.PlaceBid(3)
	}
	if got := a.Snapshot().Bid; got.String() != "1.05" {
		t.Errorf("Bid = %s, want 1.05", got)
	}
}

func TestSellScenario(t *testing.T) {
	a, _ := newAuction(t, []catalog.Player{player(0, "X", "India", "2.0")}, team.Initial())

	if res := a.PlaceBid(0); !res.Applied {
		t.Fatalf("PlaceBid rejected: %v", res.Reason)
	}
	if got := a.Snapshot().Bid; !got.Equal(d("2.10")) {
		t.Fatalf("Bid = %s, want 2.10", got)
	}

	res := a.Sell()
	if !res.Applied {
		t.Fatalf("Sell rejected: %v", res.Reason)
	}

	snap := a.Snapshot()
	csk := snap.Teams[0]
	if !csk.Budget.Equal(d("41.30")) {
		t.Errorf("Budget = %s, want 41.30", csk.Budget)
	}
	if len(csk.Roster) != 1 || csk.Roster[0] != "X (2.1 Cr)" {
		t.Errorf("Roster = %v, want [X (2.1 Cr)]", csk.Roster)
	}
	if csk.SlotsFilled != 17 {
		t.Errorf("SlotsFilled = %d, want 17", csk.SlotsFilled)
	}
	if csk.Overseas != 4 {
		t.Errorf("Overseas = %d, want 4 (home player)", csk.Overseas)
	}
	if !snap.Complete() {
		t.Error("expected auction complete after selling the only lot")
	}
	if snap.Holder != nil || !snap.Bid.IsZero() {
		t.Errorf("bid state not cleared: bid=%s holder=%v", snap.Bid, snap.Holder)
	}

	last := snap.LastAction
	if last == nil {
		t.Fatal("LastAction is nil")
	}
	if last.Kind != auction.KindSold || last.Title != "SOLD TO CSK" || last.Subtitle != "For ₹2.1 Crores" {
		t.Errorf("LastAction = %+v", last)
	}
	if last.Color != csk.Color || last.Gradient != csk.Gradient {
		t.Errorf("LastAction colors = %q/%q, want team colors", last.Color, last.Gradient)
	}
	if !last.At.Equal(epoch) {
		t.Errorf("LastAction.At = %v, want %v", last.At, epoch)
	}
	if players := a.Players(); players[0].Status != catalog.StatusSold {
		t.Errorf("player status = %q, want %q", players[0].Status, catalog.StatusSold)
	}
}

func TestSell_OverseasCounted(t *testing.T) {
	a, _ := newAuction(t, []catalog.Player{
		player(0, "Overseas", "Australia", "1.0"),
		player(1, "Local", "India", "1.0"),
	}, team.Initial())

	a.PlaceBid(3)
	a.Sell()
	a.PlaceBid(3)
	a.Sell()

	kkr := a.Snapshot().Teams[3]
	if kkr.Overseas != 3 {
		t.Errorf("Overseas = %d, want 3", kkr.Overseas)
	}
	if kkr.SlotsFilled != 14 {
		t.Errorf("SlotsFilled = %d, want 14", kkr.SlotsFilled)
	}
}

func TestSell_NoHolderIsNoop(t *testing.T) {
	a, _ := newAuction(t, []catalog.Player{player(0, "X", "India", "2.0")}, team.Initial())
	before := a.Snapshot()

	res := a.Sell()
	if res.Applied {
		t.Fatal("Sell without a bid was applied")
	}
	if !errors.Is(res.Reason, auction.ErrNoBidHolder) {
		t.Errorf("Reason = %v, want %v", res.Reason, auction.ErrNoBidHolder)
	}

	after := a.Snapshot()
	if after.Version != before.Version || after.Lot != before.Lot {
		t.Errorf("state changed: version %d->%d lot %d->%d", before.Version, after.Version, before.Lot, after.Lot)
	}
	if after.LastAction != nil {
		t.Error("LastAction set by rejected Sell")
	}
	if len(a.PendingEvents()) != 0 {
		t.Error("rejected Sell recorded an event")
	}
}

func TestPass(t *testing.T) {
	a, clk := newAuction(t, []catalog.Player{
		player(0, "A", "India", "2.0"),
		player(1, "B", "India", "1.0"),
	}, team.Initial())
	clk.Advance(3 * time.Second)

	a.PlaceBid(0)
	res := a.Pass()
	if !res.Applied {
		t.Fatalf("Pass rejected: %v", res.Reason)
	}

	snap := a.Snapshot()
	if snap.Lot != 1 || snap.Player.Name != "B" {
		t.Errorf("lot = %d (%v), want 1 (B)", snap.Lot, snap.Player)
	}
	if snap.Holder != nil {
		t.Error("holder not cleared")
	}
	if !snap.Bid.Equal(d("1.0")) {
		t.Errorf("Bid = %s, want base price 1.0", snap.Bid)
	}
	if !snap.Teams[0].Budget.Equal(d("43.40")) {
		t.Errorf("passing charged the bidder: %s", snap.Teams[0].Budget)
	}

	want := auction.Action{
		Kind:     auction.KindUnsold,
		Title:    "UNSOLD",
		Subtitle: "Player Passed",
		Color:    "#6c757d",
		Gradient: "linear-gradient(135deg, #6c757d 0%, #343a40 100%)",
		At:       epoch.Add(3 * time.Second),
	}
	if snap.LastAction == nil {
		t.Fatal("LastAction is nil")
	}
	got := *snap.LastAction
	if !got.At.Equal(want.At) {
		t.Errorf("LastAction.At = %v, want %v", got.At, want.At)
	}
	got.At, want.At = time.Time{}, time.Time{}
	if got != want {
		t.Errorf("LastAction = %+v, want %+v", got, want)
	}
	if players := a.Players(); players[0].Status != catalog.StatusUnsold {
		t.Errorf("passed player status = %q, want %q", players[0].Status, catalog.StatusUnsold)
	}
}

func TestComplete_AllOperationsNoop(t *testing.T) {
	a, _ := newAuction(t, nil, team.Initial())

	snap := a.Snapshot()
	if !snap.Complete() {
		t.Fatal("empty catalog should be complete")
	}

	for name, op := range map[string]func() auction.Result{
		"bid":  func() auction.Result { return a.PlaceBid(0) },
		"sell": a.Sell,
		"pass": a.Pass,
	} {
		res := op()
		if res.Applied {
			t.Errorf("%s applied on complete auction", name)
		}
		if !errors.Is(res.Reason, auction.ErrAuctionComplete) {
			t.Errorf("%s reason = %v, want %v", name, res.Reason, auction.ErrAuctionComplete)
		}
		if res.Version != snap.Version {
			t.Errorf("%s version = %d, want %d", name, res.Version, snap.Version)
		}
	}
}

func TestVersion(t *testing.T) {
	teams := team.Initial()
	a, _ := newAuction(t, []catalog.Player{
		player(0, "A", "India", "2.7"),
		player(1, "B", "India", "2.7"),
	}, teams)

	if v := a.Snapshot().Version; v != notify.Initial {
		t.Fatalf("initial version = %d, want %d", v, notify.Initial)
	}

	steps := []struct {
		op   func() auction.Result
		want int64
	}{
		{func() auction.Result { return a.PlaceBid(0) }, 2},
		{func() auction.Result { return a.PlaceBid(5) }, 2}, // MI cannot afford 2.90
		{func() auction.Result { return a.PlaceBid(42) }, 2},
		{a.Sell, 3},
		{a.Sell, 3},
		{a.Pass, 4},
		{a.Pass, 4},
		{func() auction.Result { return a.Reset(nil, team.Initial()) }, 5},
	}
	for i, s := range steps {
		if got := s.op().Version; got != s.want {
			t.Errorf("step %d: version = %d, want %d", i, got, s.want)
		}
	}
}

func TestReset(t *testing.T) {
	a, _ := newAuction(t, []catalog.Player{player(0, "A", "India", "2.0")}, team.Initial())
	session := a.Session()

	a.PlaceBid(0)
	a.Sell()

	res := a.Reset([]catalog.Player{player(0, "Z", "India", "1.5")}, team.Initial())
	if !res.Applied {
		t.Fatal("Reset not applied")
	}

	snap := a.Snapshot()
	if snap.Session == session {
		t.Error("Reset kept the session id")
	}
	if snap.Lot != 0 || snap.Player == nil || snap.Player.Name != "Z" {
		t.Errorf("after reset: lot=%d player=%v", snap.Lot, snap.Player)
	}
	if snap.LastAction != nil || snap.Holder != nil {
		t.Error("Reset left a last action or holder behind")
	}
	if !snap.Teams[0].Budget.Equal(d("43.40")) || len(snap.Teams[0].Roster) != 0 {
		t.Errorf("team not restored: %+v", snap.Teams[0])
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	a, _ := newAuction(t, []catalog.Player{
		player(0, "A", "India", "2.0"),
		player(1, "B", "India", "2.0"),
	}, team.Initial())
	a.PlaceBid(0)
	a.Sell()

	snap := a.Snapshot()
	snap.Teams[0].Roster[0] = "tampered"
	snap.Teams[0].Budget = decimal.Zero
	*snap.LastAction = auction.Action{}

	again := a.Snapshot()
	if again.Teams[0].Roster[0] != "A (2.1 Cr)" {
		t.Errorf("roster aliased: %v", again.Teams[0].Roster)
	}
	if again.Teams[0].Budget.IsZero() {
		t.Error("budget aliased")
	}
	if again.LastAction.Title != "SOLD TO CSK" {
		t.Error("last action aliased")
	}
}

func TestPendingEvents(t *testing.T) {
	a, _ := newAuction(t, []catalog.Player{
		player(7, "A", "England", "2.0"),
		player(8, "B", "India", "2.0"),
	}, team.Initial())
	session := a.Session()

	a.PlaceBid(1)
	a.PlaceBid(42)
	a.Sell()
	a.Pass()

	events := a.PendingEvents()
	wantTypes := []event.Type{event.BidPlaced, event.LotSold, event.LotPassed}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d", len(events), len(wantTypes))
	}
	for i, e := range events {
		if e.Type != wantTypes[i] {
			t.Errorf("event %d type = %q, want %q", i, e.Type, wantTypes[i])
		}
		if e.Version != int64(i+2) {
			t.Errorf("event %d version = %d, want %d", i, e.Version, i+2)
		}
		if e.AggregateID != session {
			t.Errorf("event %d aggregate = %q, want session %q", i, e.AggregateID, session)
		}
	}

	var sold event.LotSoldData
	if err := json.Unmarshal(events[1].Data, &sold); err != nil {
		t.Fatal(err)
	}
	if sold.PlayerID != 7 || sold.TeamName != "DC" || !sold.Amount.Equal(d("2.10")) || !sold.Overseas {
		t.Errorf("sold payload = %+v", sold)
	}

	if len(a.PendingEvents()) != 0 {
		t.Error("PendingEvents did not clear the buffer")
	}
}

func TestConcurrentBids(t *testing.T) {
	a, _ := newAuction(t, []catalog.Player{player(0, "A", "India", "0.20")}, team.Initial())

	const bidders = 10
	const perBidder = 20
	var wg sync.WaitGroup
	for i := range bidders {
		wg.Add(1)
		go func(teamID int) {
			defer wg.Done()
			for range perBidder {
				a.PlaceBid(teamID)
				_ = a.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	snap := a.Snapshot()
	accepted := len(a.PendingEvents())
	if snap.Version != notify.Initial+int64(accepted) {
		t.Errorf("version = %d, want %d (one per accepted bid)", snap.Version, notify.Initial+int64(accepted))
	}
	want := d("0.20").Add(auction.BidIncrement.Mul(decimal.NewFromInt(int64(accepted))))
	if !snap.Bid.Equal(want) {
		t.Errorf("bid = %s, want %s after %d accepted bids", snap.Bid, want, accepted)
	}
	if holder := snap.Teams[*snap.Holder]; holder.Budget.LessThan(snap.Bid) {
		t.Errorf("holder %s cannot afford standing bid %s", holder.Name, snap.Bid)
	}
}

func ptr(i int) *int { return &i }
