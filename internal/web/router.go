package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jensholdgaard/auctiondesk/internal/view"
)

func getRouter(h *handlers, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	opts.Health.Mount(r)

	// Long-lived endpoints sit outside the request timeout.
	r.Get("/check_update", h.checkUpdate)
	r.Get("/ws", h.push)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))

		r.Get("/", h.screen(view.ModeFull))
		r.Get("/display", h.screen(view.ModeDisplay))

		r.Route("/api", func(r chi.Router) {
			r.Get("/state", h.state)
			r.Get("/players", h.players)
			r.Get("/history", h.history)
			r.Get("/sales", h.sales)
		})

		if opts.StaticDir != "" {
			r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
		}

		r.Group(func(r chi.Router) {
			if opts.Admin.Enabled() {
				r.Use(middleware.BasicAuth("auctiondesk", map[string]string{
					opts.Admin.Username: opts.Admin.Password,
				}))
			}

			r.Get("/admin", h.screen(view.ModeAdmin))

			for _, m := range []string{http.MethodGet, http.MethodPost} {
				r.Method(m, "/bid/{teamID:\\d+}", http.HandlerFunc(h.bid))
				r.Method(m, "/sell", http.HandlerFunc(h.sell))
				r.Method(m, "/pass", http.HandlerFunc(h.pass))
				r.Method(m, "/reset", http.HandlerFunc(h.reset))
			}
		})
	})

	return r
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.LogAttrs(r.Context(), slog.LevelDebug, "http request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
