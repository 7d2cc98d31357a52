// Package team holds the franchise registry and per-team purse arithmetic.
package team

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Team is a franchise taking part in the auction. Presentation fields never
// change; Budget, Roster, Overseas and SlotsFilled change only when the team
// wins a lot.
type Team struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Logo      string          `json:"logo"`
	Color     string          `json:"color"`
	Gradient  string          `json:"gradient"`
	TextColor string          `json:"text"`
	Budget    decimal.Decimal `json:"budget"`
	Roster    []string        `json:"players"`
	Overseas  int             `json:"overseas"`
	// SlotsFilled starts at the squad size carried into the auction and is
	// incremented on every win. It is not a cap.
	SlotsFilled int `json:"total_slots_filled"`
}

// CanAfford reports whether the purse covers amount.
func (t Team) CanAfford(amount decimal.Decimal) bool {
	return t.Budget.GreaterThanOrEqual(amount)
}

// Win charges the purse and records the player on the roster.
func (t *Team) Win(playerName string, amount decimal.Decimal, overseas bool) {
	t.Budget = t.Budget.Sub(amount)
	t.Roster = append(t.Roster, fmt.Sprintf("%s (%s Cr)", playerName, FormatCrores(amount)))
	t.SlotsFilled++
	if overseas {
		t.Overseas++
	}
}

// Clone returns a deep copy.
func (t Team) Clone() Team {
	c := t
	c.Roster = slices.Clone(t.Roster)
	if c.Roster == nil {
		c.Roster = []string{}
	}
	return c
}

// FormatCrores renders an amount with two decimals, dropping a trailing zero
// so 2.10 prints as "2.1" and 2 as "2.0".
func FormatCrores(d decimal.Decimal) string {
	s := d.StringFixed(2)
	return strings.TrimSuffix(s, "0")
}

func logo(name string) string {
	return "/static/" + name + ".png"
}

type preset struct {
	name      string
	budget    string
	overseas  int
	slots     int
	color     string
	gradient  string
	textColor string
}

var presets = []preset{
	{"CSK", "43.40", 4, 16, "#F9CD05", "linear-gradient(135deg, #F9CD05 0%, #FFA500 100%)", "#fff"},
	{"DC", "21.80", 3, 17, "#00008B", "linear-gradient(135deg, #17449E 0%, #000 100%)", "#fff"},
	{"GT", "12.90", 4, 20, "#1B2133", "linear-gradient(135deg, #1B2133 0%, #0B4973 100%)", "#fff"},
	{"KKR", "64.30", 2, 12, "#3A225D", "linear-gradient(135deg, #3A225D 0%, #5F259F 100%)", "#fff"},
	{"LSG", "22.95", 4, 19, "#0057E0", "linear-gradient(135deg, #008ECC 0%, #0057E0 100%)", "#fff"},
	{"MI", "2.75", 7, 20, "#004BA0", "linear-gradient(135deg, #004BA0 0%, #002D60 100%)", "#fff"},
	{"PBKS", "11.50", 6, 21, "#DD1F2D", "linear-gradient(135deg, #DD1F2D 0%, #8C0D18 100%)", "#fff"},
	{"RR", "16.05", 7, 16, "#EA1A85", "linear-gradient(135deg, #EA1A85 0%, #254AA5 100%)", "#fff"},
	{"RCB", "16.40", 6, 17, "#EC1C24", "linear-gradient(135deg, #2B2B2B 0%, #EC1C24 100%)", "#fff"},
	{"SRH", "25.50", 6, 15, "#F7A721", "linear-gradient(135deg, #F7A721 0%, #E9530F 100%)", "#fff"},
}

// Initial returns a fresh copy of the ten franchises with their starting
// purses. Team IDs are their positions in the slice.
func Initial() []Team {
	teams := make([]Team, len(presets))
	for i, p := range presets {
		teams[i] = Team{
			ID:          i,
			Name:        p.name,
			Logo:        logo(p.name),
			Color:       p.color,
			Gradient:    p.gradient,
			TextColor:   p.textColor,
			Budget:      decimal.RequireFromString(p.budget),
			Roster:      []string{},
			Overseas:    p.overseas,
			SlotsFilled: p.slots,
		}
	}
	return teams
}
