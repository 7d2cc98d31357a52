package catalog_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jensholdgaard/auctiondesk/internal/catalog"
)

func TestSetFor(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"2.0", "Set 1 (Marquee)"},
		{"2.5", "Set 1 (Marquee)"},
		{"1.99", "Set 2"},
		{"1.5", "Set 2"},
		{"1.25", "Set 3"},
		{"1.0", "Set 4"},
		{"0.75", "Set 5"},
		{"0.5", "Set 6"},
		{"0.40", "Set 7"},
		{"0.39", "Set 8 (Uncapped)"},
		{"0", "Set 8 (Uncapped)"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			if got := catalog.SetFor(decimal.RequireFromString(tt.price)); got != tt.want {
				t.Errorf("SetFor(%s) = %q, want %q", tt.price, got, tt.want)
			}
		})
	}
}

func TestFlag(t *testing.T) {
	tests := []struct {
		country   string
		wantURL   string
		wantEmoji string
	}{
		{"India", "https://flagcdn.com/w80/in.png", ""},
		{"England", "https://flagcdn.com/w80/gb-eng.png", ""},
		{"West Indies", "", "🌴"},
		{"Narnia", "https://flagcdn.com/w80/in.png", ""},
	}
	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			url, emoji := catalog.Flag(tt.country)
			if url != tt.wantURL || emoji != tt.wantEmoji {
				t.Errorf("Flag(%q) = (%q, %q), want (%q, %q)", tt.country, url, emoji, tt.wantURL, tt.wantEmoji)
			}
		})
	}
}

func TestParse(t *testing.T) {
	const data = `Name,Role,Country,Base Price (Cr),Status
Alpha,Batter,India,1.0,Capped
Bravo,Bowler,Australia,2.0,Capped
Charlie,All-Rounder, West Indies ,1.0,Uncapped
Delta,Keeper,England,0.3,
`
	players, err := catalog.Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(players) != 4 {
		t.Fatalf("Parse() returned %d players, want 4", len(players))
	}

	wantOrder := []string{"Bravo", "Alpha", "Charlie", "Delta"}
	for i, name := range wantOrder {
		if players[i].Name != name {
			t.Errorf("players[%d] = %q, want %q", i, players[i].Name, name)
		}
	}

	bravo := players[0]
	if bravo.ID != 1 {
		t.Errorf("Bravo.ID = %d, want 1 (row order)", bravo.ID)
	}
	if bravo.Set != "Set 1 (Marquee)" {
		t.Errorf("Bravo.Set = %q", bravo.Set)
	}
	if bravo.Status != catalog.StatusUnsold {
		t.Errorf("Bravo.Status = %q, want %q", bravo.Status, catalog.StatusUnsold)
	}

	charlie := players[2]
	if charlie.Country != "West Indies" || charlie.FlagEmoji != "🌴" || charlie.FlagURL != "" {
		t.Errorf("Charlie flag = (%q, %q, %q)", charlie.Country, charlie.FlagURL, charlie.FlagEmoji)
	}
	if charlie.Type != "Uncapped" {
		t.Errorf("Charlie.Type = %q, want Uncapped", charlie.Type)
	}

	if players[3].Type != catalog.DefaultType {
		t.Errorf("Delta.Type = %q, want %q", players[3].Type, catalog.DefaultType)
	}
}

func TestParse_OptionalColumns(t *testing.T) {
	const data = "Name,Role,Base Price\nEcho,Batter,0.75\n"
	players, err := catalog.Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(players) != 1 {
		t.Fatalf("got %d players, want 1", len(players))
	}
	p := players[0]
	if p.Country != catalog.DefaultCountry {
		t.Errorf("Country = %q, want %q", p.Country, catalog.DefaultCountry)
	}
	if p.Type != catalog.DefaultType {
		t.Errorf("Type = %q, want %q", p.Type, catalog.DefaultType)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty input", ""},
		{"missing price column", "Name,Role,Country\nA,Batter,India\n"},
		{"unparsable price", "Name,Role,Base Price (Cr)\nA,Batter,cheap\n"},
		{"negative price", "Name,Role,Base Price (Cr)\nA,Batter,-1\n"},
		{"short row", "Name,Role,Base Price (Cr)\nA,Batter\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := catalog.Parse(strings.NewReader(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestFileLoader(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("missing file yields empty catalog", func(t *testing.T) {
		l := catalog.FileLoader{Path: filepath.Join(t.TempDir(), "nope.csv"), Logger: logger}
		got := l.Load(context.Background())
		if got == nil || len(got) != 0 {
			t.Errorf("Load() = %v, want empty non-nil slice", got)
		}
	})

	t.Run("malformed file yields empty catalog", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "players.csv")
		if err := os.WriteFile(path, []byte("Name,Role,Base Price (Cr)\nA,Batter,abc\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		l := catalog.FileLoader{Path: path, Logger: logger}
		if got := l.Load(context.Background()); len(got) != 0 {
			t.Errorf("Load() returned %d players, want 0", len(got))
		}
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "players.csv")
		if err := os.WriteFile(path, []byte("Name,Role,Base Price (Cr)\nA,Batter,1.5\nB,Bowler,2\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		l := catalog.FileLoader{Path: path, Logger: logger}
		got := l.Load(context.Background())
		if len(got) != 2 || got[0].Name != "B" {
			t.Errorf("Load() = %+v", got)
		}
	})
}

func TestStatic_ReturnsCopies(t *testing.T) {
	src := catalog.Static{{ID: 0, Name: "A", Status: catalog.StatusUnsold}}
	first := src.Load(context.Background())
	first[0].Status = catalog.StatusSold

	second := src.Load(context.Background())
	if second[0].Status != catalog.StatusUnsold {
		t.Error("mutating a loaded catalog leaked into the source")
	}
}
