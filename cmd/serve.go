package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jespergran98/originGuessr-Analyzer/internal/config"
	"github.com/jespergran98/originGuessr-Analyzer/internal/dashboard"
	"github.com/jespergran98/originGuessr-Analyzer/internal/fetcher"
	"github.com/jespergran98/originGuessr-Analyzer/internal/linkcheck"
	"github.com/jespergran98/originGuessr-Analyzer/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard data API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		sess, err := dashboard.NewSession(ctx, cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		checker := newChecker(cfg.LinkCheck)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(sess, checker, cfg),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newChecker(cfg config.LinkCheckConfig) *linkcheck.Checker {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:        time.Duration(cfg.TimeoutSecs) * time.Second,
		MaxRetries:     1,
		RequestsPerSec: cfg.RequestsPerSec,
	})
	return linkcheck.New(f, cfg)
}

func newRouter(sess *dashboard.Session, checker *linkcheck.Checker, cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, sess.Stats())
		})

		r.Get("/artifacts", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"sort":     sess.SortKey(),
				"rendered": sess.Rendered(),
				"cards":    sess.Cards(),
			})
		})

		r.Get("/view/sortkeys", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, dashboard.SortKeys())
		})

		r.Post("/view/sort", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Key string `json:"key"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if err := sess.SetSortKey(body.Key); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"sort":     sess.SortKey(),
				"rendered": sess.Rendered(),
			})
		})

		r.Post("/view/more", func(w http.ResponseWriter, _ *http.Request) {
			loaded, exhausted := sess.LoadMore()
			writeJSON(w, http.StatusOK, map[string]any{
				"loaded":    loaded,
				"exhausted": exhausted,
				"rendered":  sess.Rendered(),
			})
		})

		r.Get("/leaderboards", func(w http.ResponseWriter, req *http.Request) {
			if m := req.URL.Query().Get("metric"); m != "" {
				switch model.QualityMetric(m) {
				case model.MetricOverall, model.MetricAspectRatio, model.MetricPixelSize:
					sess.SetMetric(model.QualityMetric(m))
				default:
					writeError(w, http.StatusBadRequest, "unknown metric")
					return
				}
			}
			top, bottom := sess.Leaderboards()
			writeJSON(w, http.StatusOK, map[string]any{"top": top, "bottom": bottom})
		})

		r.Get("/lengths", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, sess.LengthLeaders(cfg.View.LeaderboardSize))
		})

		r.Get("/map", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, sess.MapPoints())
		})

		r.Get("/charts", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, sess.Charts())
		})

		r.Post("/analysis/start", func(w http.ResponseWriter, _ *http.Request) {
			sess.StartAnalysis()
			writeJSON(w, http.StatusAccepted, sess.Progress())
		})

		r.Get("/analysis/progress", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, sess.Progress())
		})

		r.Post("/linkcheck", func(w http.ResponseWriter, req *http.Request) {
			report, err := sess.RunLinkCheck(req.Context(), checker)
			if err != nil {
				zap.L().Error("link sweep failed to persist", zap.Error(err))
			}
			writeJSON(w, http.StatusOK, report)
		})

		r.Get("/linkcheck/latest", func(w http.ResponseWriter, req *http.Request) {
			latest, err := sess.LatestLinkReport(req.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if latest == nil {
				writeError(w, http.StatusNotFound, "no link report recorded")
				return
			}
			writeJSON(w, http.StatusOK, latest)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
