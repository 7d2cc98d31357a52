package team_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jensholdgaard/auctiondesk/internal/team"
)

func TestInitial(t *testing.T) {
	teams := team.Initial()
	if len(teams) != 10 {
		t.Fatalf("Initial() returned %d teams, want 10", len(teams))
	}
	for i, tm := range teams {
		if tm.ID != i {
			t.Errorf("teams[%d].ID = %d", i, tm.ID)
		}
		if len(tm.Roster) != 0 {
			t.Errorf("%s roster not empty", tm.Name)
		}
	}

	csk := teams[0]
	if csk.Name != "CSK" || !csk.Budget.Equal(decimal.RequireFromString("43.40")) {
		t.Errorf("CSK = %s %s, want CSK 43.40", csk.Name, csk.Budget)
	}
	if csk.Logo != "/static/CSK.png" {
		t.Errorf("CSK logo = %q", csk.Logo)
	}
	if mi := teams[5]; mi.Overseas != 7 || mi.SlotsFilled != 20 {
		t.Errorf("MI overseas/slots = %d/%d, want 7/20", mi.Overseas, mi.SlotsFilled)
	}
}

func TestInitial_IndependentCopies(t *testing.T) {
	a := team.Initial()
	a[0].Win("X", decimal.RequireFromString("1"), true)

	b := team.Initial()
	if len(b[0].Roster) != 0 || !b[0].Budget.Equal(decimal.RequireFromString("43.40")) {
		t.Error("mutating one registry leaked into a fresh one")
	}
}

func TestTeam_Win(t *testing.T) {
	tm := team.Team{Budget: decimal.RequireFromString("43.40"), Overseas: 4, SlotsFilled: 16}

	tm.Win("X", decimal.RequireFromString("2.1"), false)
	if !tm.Budget.Equal(decimal.RequireFromString("41.30")) {
		t.Errorf("Budget = %s, want 41.30", tm.Budget)
	}
	if len(tm.Roster) != 1 || tm.Roster[0] != "X (2.1 Cr)" {
		t.Errorf("Roster = %v", tm.Roster)
	}
	if tm.Overseas != 4 {
		t.Errorf("Overseas = %d, want 4", tm.Overseas)
	}
	if tm.SlotsFilled != 17 {
		t.Errorf("SlotsFilled = %d, want 17", tm.SlotsFilled)
	}

	tm.Win("Y", decimal.RequireFromString("1"), true)
	if tm.Overseas != 5 {
		t.Errorf("Overseas after overseas win = %d, want 5", tm.Overseas)
	}
}

func TestTeam_CanAfford(t *testing.T) {
	tm := team.Team{Budget: decimal.RequireFromString("2.10")}
	if !tm.CanAfford(decimal.RequireFromString("2.1")) {
		t.Error("expected exact budget to be affordable")
	}
	if tm.CanAfford(decimal.RequireFromString("2.11")) {
		t.Error("expected amount above budget to be unaffordable")
	}
}

func TestTeam_Clone(t *testing.T) {
	tm := team.Team{Roster: []string{"A (1.0 Cr)"}}
	c := tm.Clone()
	c.Roster[0] = "changed"
	if tm.Roster[0] != "A (1.0 Cr)" {
		t.Error("Clone shares roster backing array")
	}
}

func TestFormatCrores(t *testing.T) {
	tests := map[string]string{
		"2.1":  "2.1",
		"2.10": "2.1",
		"2":    "2.0",
		"0.75": "0.75",
		"0.05": "0.05",
		"10.5": "10.5",
	}
	for in, want := range tests {
		if got := team.FormatCrores(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatCrores(%s) = %q, want %q", in, got, want)
		}
	}
}
