package auction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jensholdgaard/auctiondesk/internal/catalog"
	"github.com/jensholdgaard/auctiondesk/internal/clock"
	"github.com/jensholdgaard/auctiondesk/internal/event"
	"github.com/jensholdgaard/auctiondesk/internal/notify"
	"github.com/jensholdgaard/auctiondesk/internal/store"
	"github.com/jensholdgaard/auctiondesk/internal/team"
	"github.com/jensholdgaard/auctiondesk/internal/telemetry"
)

const instrumentationName = "github.com/jensholdgaard/auctiondesk/internal/auction"

// Options configures a Manager.
type Options struct {
	HomeCountry    string
	Loader         catalog.Loader
	Events         event.Store
	Sales          store.SaleRepository
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Clock          clock.Clock
}

// Manager owns the running auction and everything attached to it: the
// catalog source, the journal and the sales ledger.
type Manager struct {
	auction  *Auction
	notifier *notify.Notifier

	// persistMu keeps journal writes and closed-lot delivery in version order.
	persistMu sync.Mutex
	followers feeds

	loader catalog.Loader
	events event.Store
	sales  store.SaleRepository
	logger *slog.Logger
	tracer trace.Tracer
	clock  clock.Clock

	bids   metric.Int64Counter
	closed metric.Int64Counter
}

// NewManager loads the catalog and opens the first session.
func NewManager(ctx context.Context, opts Options) (*Manager, error) {
	if opts.Loader == nil {
		return nil, errors.New("auction: catalog loader is required")
	}
	if opts.Events == nil || opts.Sales == nil {
		return nil, errors.New("auction: journal stores are required")
	}
	if opts.HomeCountry == "" {
		opts.HomeCountry = catalog.DefaultCountry
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = noop.NewTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = metricnoop.NewMeterProvider()
	}

	meter := opts.MeterProvider.Meter(instrumentationName)
	bids, err := meter.Int64Counter("auction.bids",
		metric.WithDescription("Bids received, by result"))
	if err != nil {
		return nil, fmt.Errorf("creating bids counter: %w", err)
	}
	closed, err := meter.Int64Counter("auction.lots.closed",
		metric.WithDescription("Lots closed, by outcome"))
	if err != nil {
		return nil, fmt.Errorf("creating lots counter: %w", err)
	}

	n := notify.New()
	m := &Manager{
		notifier: n,
		loader:   opts.Loader,
		events:   opts.Events,
		sales:    opts.Sales,
		logger:   opts.Logger,
		tracer:   opts.TracerProvider.Tracer(instrumentationName),
		clock:    opts.Clock,
		bids:     bids,
		closed:   closed,
	}

	players := m.loader.Load(ctx)
	m.auction = New(players, team.Initial(), opts.HomeCountry, n, opts.Clock)

	m.logger.InfoContext(ctx, "auction session opened",
		slog.String("session", m.auction.Session()),
		slog.Int("lots", len(players)),
	)
	return m, nil
}

// PlaceBid raises the standing bid on behalf of teamID.
func (m *Manager) PlaceBid(ctx context.Context, teamID int) Result {
	ctx, span := m.tracer.Start(ctx, "Manager.PlaceBid",
		trace.WithAttributes(attribute.Int("team_id", teamID)),
	)
	defer span.End()

	res := m.auction.PlaceBid(teamID)
	m.bids.Add(ctx, 1, metric.WithAttributes(attribute.String("result", resultLabel(res))))
	m.finish(ctx, span, "bid", res, slog.Int("team_id", teamID))
	return res
}

// Sell awards the current lot to the highest bidder.
func (m *Manager) Sell(ctx context.Context) Result {
	ctx, span := m.tracer.Start(ctx, "Manager.Sell")
	defer span.End()

	res := m.auction.Sell()
	if res.Applied {
		m.closed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(KindSold))))
	}
	m.finish(ctx, span, "sell", res)
	return res
}

// Pass closes the current lot unsold.
func (m *Manager) Pass(ctx context.Context) Result {
	ctx, span := m.tracer.Start(ctx, "Manager.Pass")
	defer span.End()

	res := m.auction.Pass()
	if res.Applied {
		m.closed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(KindUnsold))))
	}
	m.finish(ctx, span, "pass", res)
	return res
}

// Reset reloads the catalog, restores the initial purses and opens a new
// session.
func (m *Manager) Reset(ctx context.Context) Result {
	ctx, span := m.tracer.Start(ctx, "Manager.Reset")
	defer span.End()

	players := m.loader.Load(ctx)
	res := m.auction.Reset(players, team.Initial())
	m.finish(ctx, span, "reset", res, slog.Int("lots", len(players)))
	return res
}

func (m *Manager) finish(ctx context.Context, span trace.Span, op string, res Result, attrs ...slog.Attr) {
	span.SetAttributes(
		attribute.Bool("applied", res.Applied),
		attribute.Int64("version", res.Version),
	)
	logger := telemetry.LogWithTrace(ctx, m.logger)
	if !res.Applied {
		logger.LogAttrs(ctx, slog.LevelDebug, op+" rejected",
			append(attrs, slog.String("reason", res.Reason.Error()))...)
		return
	}
	logger.LogAttrs(ctx, slog.LevelInfo, op+" applied",
		append(attrs, slog.Int64("version", res.Version))...)
	m.persist(ctx)
}

// persist drains buffered journal events and writes them, deriving sales
// ledger rows from sold lots. Closed lots are then handed to followers.
func (m *Manager) persist(ctx context.Context) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	pending := m.auction.PendingEvents()
	defer func() {
		if closed := m.auction.PendingActions(); len(closed) > 0 {
			m.followers.publish(closed)
		}
	}()
	if len(pending) == 0 {
		return
	}
	if err := m.events.Append(ctx, pending...); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist journal events",
			slog.Int("count", len(pending)),
			slog.Any("error", err),
		)
	}

	for _, e := range pending {
		if e.Type != event.LotSold {
			continue
		}
		var d event.LotSoldData
		if err := json.Unmarshal(e.Data, &d); err != nil {
			m.logger.ErrorContext(ctx, "decoding sold event", slog.Any("error", err))
			continue
		}
		sale := &store.Sale{
			SessionID:  e.AggregateID,
			Lot:        d.Lot,
			PlayerID:   d.PlayerID,
			PlayerName: d.PlayerName,
			TeamID:     d.TeamID,
			TeamName:   d.TeamName,
			Amount:     d.Amount,
			Overseas:   d.Overseas,
			SoldAt:     e.CreatedAt,
		}
		if err := m.sales.Record(ctx, sale); err != nil {
			m.logger.ErrorContext(ctx, "failed to record sale",
				slog.String("player", d.PlayerName),
				slog.Any("error", err),
			)
		}
	}
}

// Snapshot returns a consistent copy of the auction state.
func (m *Manager) Snapshot() Snapshot {
	return m.auction.Snapshot()
}

// Players returns the catalog with current statuses.
func (m *Manager) Players() []catalog.Player {
	return m.auction.Players()
}

// Follow returns a Feed of every lot closed from now on. Call Close on the
// Feed when done.
func (m *Manager) Follow() *Feed {
	return m.followers.attach()
}

// Version returns the change counter.
func (m *Manager) Version() int64 {
	return m.notifier.Version()
}

// Wait blocks until the version differs from since or ctx ends.
func (m *Manager) Wait(ctx context.Context, since int64) (int64, error) {
	return m.notifier.Wait(ctx, since)
}

// Subscribe streams version changes until cancel is called.
func (m *Manager) Subscribe() (<-chan int64, func()) {
	return m.notifier.Subscribe()
}

// History returns the journal of the current session in version order.
func (m *Manager) History(ctx context.Context) ([]event.Event, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.History")
	defer span.End()

	events, err := m.events.Load(ctx, m.auction.Session())
	if err != nil {
		return nil, fmt.Errorf("loading session history: %w", err)
	}
	if events == nil {
		events = []event.Event{}
	}
	return events, nil
}

// EventsByType returns journal events of one type across all sessions.
func (m *Manager) EventsByType(ctx context.Context, t event.Type) ([]event.Event, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.EventsByType",
		trace.WithAttributes(attribute.String("type", string(t))),
	)
	defer span.End()

	events, err := m.events.LoadByType(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("loading %s events: %w", t, err)
	}
	if events == nil {
		events = []event.Event{}
	}
	return events, nil
}

// Sales returns the lots sold in the current session.
func (m *Manager) Sales(ctx context.Context) ([]store.Sale, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.Sales")
	defer span.End()

	sales, err := m.sales.ListBySession(ctx, m.auction.Session())
	if err != nil {
		return nil, fmt.Errorf("listing session sales: %w", err)
	}
	return sales, nil
}

func resultLabel(r Result) string {
	switch {
	case r.Applied:
		return "accepted"
	case errors.Is(r.Reason, ErrInsufficientBudget):
		return "insufficient_budget"
	case errors.Is(r.Reason, ErrUnknownTeam):
		return "unknown_team"
	case errors.Is(r.Reason, ErrAuctionComplete):
		return "complete"
	default:
		return "rejected"
	}
}
