// Package web serves the auction screens, the polling and push endpoints and
// the admin mutations over HTTP.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/unrolled/render"

	"github.com/jensholdgaard/auctiondesk/internal/auction"
	"github.com/jensholdgaard/auctiondesk/internal/catalog"
	"github.com/jensholdgaard/auctiondesk/internal/clock"
	"github.com/jensholdgaard/auctiondesk/internal/config"
	"github.com/jensholdgaard/auctiondesk/internal/event"
	"github.com/jensholdgaard/auctiondesk/internal/health"
	"github.com/jensholdgaard/auctiondesk/internal/store"
	"github.com/jensholdgaard/auctiondesk/internal/team"
)

//go:embed templates
var templates embed.FS

// Auction is the part of auction.Manager the HTTP layer drives.
type Auction interface {
	PlaceBid(ctx context.Context, teamID int) auction.Result
	Sell(ctx context.Context) auction.Result
	Pass(ctx context.Context) auction.Result
	Reset(ctx context.Context) auction.Result
	Snapshot() auction.Snapshot
	Players() []catalog.Player
	Version() int64
	Wait(ctx context.Context, since int64) (int64, error)
	Subscribe() (<-chan int64, func())
	History(ctx context.Context) ([]event.Event, error)
	EventsByType(ctx context.Context, t event.Type) ([]event.Event, error)
	Sales(ctx context.Context) ([]store.Sale, error)
}

// Options configures a Server.
type Options struct {
	Port        int
	Admin       config.AdminConfig
	StaticDir   string
	MaxLongPoll time.Duration
	Health      *health.Handler
	Logger      *slog.Logger
	Clock       clock.Clock
}

// Server is the auction HTTP server.
type Server struct {
	server  *http.Server
	handler http.Handler
	logger  *slog.Logger
}

// NewServer wires the router for a.
func NewServer(a Auction, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.MaxLongPoll <= 0 {
		opts.MaxLongPoll = 30 * time.Second
	}
	if opts.Health == nil {
		opts.Health = health.NewHandler(opts.Clock)
	}

	h := &handlers{
		auction:     a,
		render:      newRender(),
		logger:      opts.Logger,
		clock:       opts.Clock,
		maxLongPoll: opts.MaxLongPoll,
	}
	router := getRouter(h, opts)

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		handler: router,
		logger:  opts.Logger,
	}
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", slog.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	return nil
}

func newRender() *render.Render {
	return render.New(render.Options{
		Directory: "templates",
		Layout:    "layout",
		FileSystem: &render.EmbedFileSystem{
			FS: templates,
		},
		Funcs: []template.FuncMap{
			{
				"crores": team.FormatCrores,
				"purse":  purseFormatter,
				"css":    cssFormatter,
			},
		},
	})
}

// purseFormatter renders a budget with both decimals, e.g. 2.75 or 43.40.
func purseFormatter(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// cssFormatter marks a team color or gradient as safe in a style attribute.
// The values come from the fixed team registry, never from requests.
func cssFormatter(s string) template.CSS {
	return template.CSS(s)
}
