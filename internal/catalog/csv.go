package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Column headers understood by Parse.
const (
	colName      = "Name"
	colRole      = "Role"
	colCountry   = "Country"
	colBasePrice = "Base Price (Cr)"
	colPriceAlt  = "Base Price"
	colStatus    = "Status"
)

type csvReader struct {
	r          *csv.Reader
	nameIdx    int
	roleIdx    int
	countryIdx int
	priceIdx   int
	statusIdx  int
}

func newCSVReader(r io.Reader) (*csvReader, error) {
	cr := &csvReader{
		r:          csv.NewReader(r),
		nameIdx:    -1,
		roleIdx:    -1,
		countryIdx: -1,
		priceIdx:   -1,
		statusIdx:  -1,
	}
	cr.r.FieldsPerRecord = -1

	header, err := cr.r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case colName:
			cr.nameIdx = i
		case colRole:
			cr.roleIdx = i
		case colCountry:
			cr.countryIdx = i
		case colBasePrice, colPriceAlt:
			cr.priceIdx = i
		case colStatus:
			cr.statusIdx = i
		}
	}

	if cr.nameIdx == -1 || cr.roleIdx == -1 || cr.priceIdx == -1 {
		return nil, fmt.Errorf("missing required columns; name: %d, role: %d, base price: %d",
			cr.nameIdx, cr.roleIdx, cr.priceIdx)
	}
	return cr, nil
}

func (cr *csvReader) read(id int) (Player, error) {
	record, err := cr.r.Read()
	if errors.Is(err, io.EOF) {
		return Player{}, err
	}
	if err != nil {
		return Player{}, fmt.Errorf("reading row %d: %w", id+1, err)
	}

	field := func(idx int) (string, bool) {
		if idx < 0 || idx >= len(record) {
			return "", false
		}
		return record[idx], true
	}

	name, ok := field(cr.nameIdx)
	if !ok {
		return Player{}, fmt.Errorf("row %d: missing name", id+1)
	}
	role, ok := field(cr.roleIdx)
	if !ok {
		return Player{}, fmt.Errorf("row %d: missing role", id+1)
	}
	rawPrice, ok := field(cr.priceIdx)
	if !ok {
		return Player{}, fmt.Errorf("row %d: missing base price", id+1)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(rawPrice))
	if err != nil {
		return Player{}, fmt.Errorf("row %d: parsing base price %q: %w", id+1, rawPrice, err)
	}
	if price.IsNegative() {
		return Player{}, fmt.Errorf("row %d: negative base price %s", id+1, price)
	}

	country := DefaultCountry
	if c, ok := field(cr.countryIdx); ok {
		country = strings.TrimSpace(c)
	}
	typ := DefaultType
	if s, ok := field(cr.statusIdx); ok && strings.TrimSpace(s) != "" {
		typ = strings.TrimSpace(s)
	}

	flagURL, flagEmoji := Flag(country)
	return Player{
		ID:        id,
		Name:      name,
		Role:      role,
		Country:   country,
		FlagURL:   flagURL,
		FlagEmoji: flagEmoji,
		BasePrice: price,
		Set:       SetFor(price),
		Status:    StatusUnsold,
		Type:      typ,
	}, nil
}

// Parse reads a player CSV. Any malformed row fails the whole parse. The
// result is sorted by base price, highest first, ties in file order.
func Parse(r io.Reader) ([]Player, error) {
	cr, err := newCSVReader(r)
	if err != nil {
		return nil, err
	}

	var players []Player
	for id := 0; ; id++ {
		p, err := cr.read(id)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}

	SortByPrice(players)
	return players, nil
}

// Loader produces a fresh catalog. Implementations never fail: a catalog
// that cannot be read is empty.
type Loader interface {
	Load(ctx context.Context) []Player
}

// FileLoader loads the catalog from a CSV file on disk.
type FileLoader struct {
	Path   string
	Logger *slog.Logger
}

// Load reads and parses the file. Errors are logged and yield an empty catalog.
func (l FileLoader) Load(ctx context.Context) []Player {
	players, err := l.load()
	if err != nil {
		l.Logger.ErrorContext(ctx, "could not load player catalog",
			slog.String("path", l.Path),
			slog.Any("error", err),
		)
		return []Player{}
	}
	l.Logger.InfoContext(ctx, "player catalog loaded",
		slog.String("path", l.Path),
		slog.Int("players", len(players)),
	)
	return players
}

func (l FileLoader) load() ([]Player, error) {
	f, err := os.Open(filepath.Clean(l.Path))
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	players, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return players, nil
}

// Static is a Loader that hands out copies of a fixed player list.
type Static []Player

// Load returns a copy so callers can mutate statuses freely.
func (s Static) Load(context.Context) []Player {
	return slices.Clone(s)
}
