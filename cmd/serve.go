package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/campaign"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for discovery requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close(ctx)

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/budget", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, env.Governor.Status())
		})

		r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			run, err := env.Store.GetRun(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		r.Get("/runs/{id}/opportunities", func(w http.ResponseWriter, req *http.Request) {
			opps, err := env.Store.ListOpportunities(req.Context(), store.OpportunityFilter{
				RunID:             chi.URLParam(req, "id"),
				OnlyOpportunities: true,
			})
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, opps)
		})

		r.Post("/webhook/discover", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Keywords []string `json:"keywords"`
				Industry string   `json:"industry"`
				Size     string   `json:"size"`
				Budget   float64  `json:"budget"`
				Target   int      `json:"target"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if len(body.Keywords) == 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "keywords are required"})
				return
			}
			if body.Size == "" {
				body.Size = string(model.CampaignMedium)
			}

			c := model.Campaign{
				ID:       uuid.New().String(),
				Keywords: body.Keywords,
				Industry: body.Industry,
				Size:     model.CampaignSize(body.Size),
			}

			// Discovery runs take minutes; the webhook returns immediately
			// and the caller polls /runs/{id}.
			go func() {
				result, err := env.Pipeline.Run(ctx, c, campaign.RunOptions{
					BudgetLimit:         body.Budget,
					TargetOpportunities: body.Target,
				})
				if err != nil {
					zap.L().Error("webhook discovery failed",
						zap.Strings("keywords", c.Keywords),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("webhook discovery complete",
					zap.String("run_id", result.RunID),
					zap.Int("opportunities", result.Stats.FinalCount),
				)
			}()

			writeJSON(w, http.StatusAccepted, map[string]any{
				"status":   "accepted",
				"campaign": c.ID,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			// The signal context is already cancelled; give in-flight
			// requests their own drain window.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
