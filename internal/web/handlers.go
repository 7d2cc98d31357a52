package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/unrolled/render"

	"github.com/jensholdgaard/auctiondesk/internal/auction"
	"github.com/jensholdgaard/auctiondesk/internal/clock"
	"github.com/jensholdgaard/auctiondesk/internal/event"
	"github.com/jensholdgaard/auctiondesk/internal/view"
)

type handlers struct {
	auction     Auction
	render      *render.Render
	logger      *slog.Logger
	clock       clock.Clock
	maxLongPoll time.Duration
}

// update is the body of /check_update and of every /ws message.
type update struct {
	ID int64 `json:"id"`
}

// page is the data handed to the index template.
type page struct {
	view.Projection
	Increment string
}

func (h *handlers) project(mode view.Mode) view.Projection {
	return view.Project(h.auction.Snapshot(), mode, h.clock.Now())
}

func (h *handlers) screen(mode view.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render.HTML(w, http.StatusOK, "index", page{
			Projection: h.project(mode),
			Increment:  auction.BidIncrement.StringFixed(2),
		})
	}
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	mode, err := view.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.render.JSON(w, http.StatusOK, h.project(mode))
}

// checkUpdate returns the current version. With since and wait it long-polls
// until the version moves past since or wait elapses.
func (h *handlers) checkUpdate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("since") == "" || q.Get("wait") == "" {
		h.render.JSON(w, http.StatusOK, update{ID: h.auction.Version()})
		return
	}

	since, err := strconv.ParseInt(q.Get("since"), 10, 64)
	if err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "since must be an integer"})
		return
	}
	wait, err := time.ParseDuration(q.Get("wait"))
	if err != nil || wait < 0 {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "wait must be a non-negative duration"})
		return
	}
	wait = min(wait, h.maxLongPoll)

	ctx, cancel := context.WithTimeout(r.Context(), wait)
	defer cancel()

	v, err := h.auction.Wait(ctx, since)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		// Client went away.
		return
	}
	h.render.JSON(w, http.StatusOK, update{ID: v})
}

// push sends the version on connect and after every change.
func (h *handlers) push(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket accept failed", slog.Any("error", err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	clientID := uuid.NewString()
	logger := h.logger.With(slog.String("client_id", clientID))
	logger.DebugContext(r.Context(), "websocket client connected")
	defer logger.DebugContext(r.Context(), "websocket client disconnected")

	changes, unsubscribe := h.auction.Subscribe()
	defer unsubscribe()

	// Clients never send; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	if err := writeUpdate(ctx, conn, h.auction.Version()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-changes:
			if !ok {
				return
			}
			if err := writeUpdate(ctx, conn, v); err != nil {
				logger.DebugContext(ctx, "websocket write failed", slog.Any("error", err))
				return
			}
		}
	}
}

func writeUpdate(ctx context.Context, conn *websocket.Conn, v int64) error {
	payload, err := json.Marshal(update{ID: v})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

func (h *handlers) bid(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.Atoi(chi.URLParam(r, "teamID"))
	if err != nil {
		// Out of int range; the route pattern already guarantees digits.
		teamID = -1
	}
	h.auction.PlaceBid(r.Context(), teamID)
	backToAdmin(w, r)
}

func (h *handlers) sell(w http.ResponseWriter, r *http.Request) {
	h.auction.Sell(r.Context())
	backToAdmin(w, r)
}

func (h *handlers) pass(w http.ResponseWriter, r *http.Request) {
	h.auction.Pass(r.Context())
	backToAdmin(w, r)
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	h.auction.Reset(r.Context())
	backToAdmin(w, r)
}

func backToAdmin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *handlers) players(w http.ResponseWriter, _ *http.Request) {
	h.render.JSON(w, http.StatusOK, h.auction.Players())
}

// history serves the current session's journal, or with ?type= every
// journaled event of that type across sessions.
func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	var (
		events []event.Event
		err    error
	)
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, ok := event.ParseType(raw)
		if !ok {
			h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "unknown event type"})
			return
		}
		events, err = h.auction.EventsByType(r.Context(), t)
	} else {
		events, err = h.auction.History(r.Context())
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "loading history", slog.Any("error", err))
		h.render.JSON(w, http.StatusServiceUnavailable, map[string]string{"error": "journal unavailable"})
		return
	}
	h.render.JSON(w, http.StatusOK, events)
}

func (h *handlers) sales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.auction.Sales(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "loading sales", slog.Any("error", err))
		h.render.JSON(w, http.StatusServiceUnavailable, map[string]string{"error": "journal unavailable"})
		return
	}
	h.render.JSON(w, http.StatusOK, sales)
}
