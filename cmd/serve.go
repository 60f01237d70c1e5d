package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-sync/internal/matching"
	"github.com/sells-group/outreach-sync/internal/monitoring"
	"github.com/sells-group/outreach-sync/internal/platform"
	"github.com/sells-group/outreach-sync/internal/reconcile"
	"github.com/sells-group/outreach-sync/internal/syncjob"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for reconcile and recovery requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		driver := reconcile.NewDriver(
			reconcile.NewPostgresStore(pool),
			matching.NewParser(matching.DefaultParserConfig()),
		)
		orch := syncjob.NewOrchestrator(
			syncjob.NewPostgresStore(pool),
			platform.NewClient(platformEndpoints()),
		)
		alerter := monitoring.NewAlerter(cfg.Recovery.WebhookURL)

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /webhook/reconcile", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				WorkspaceID string `json:"workspace_id"`
				DryRun      bool   `json:"dry_run"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
			if req.WorkspaceID == "" {
				http.Error(w, `{"error":"workspace_id is required"}`, http.StatusBadRequest)
				return
			}

			report, err := driver.Reconcile(r.Context(), req.WorkspaceID, req.DryRun)
			if err != nil {
				zap.L().Error("webhook reconcile failed",
					zap.String("workspace_id", req.WorkspaceID),
					zap.Error(err),
				)
				http.Error(w, `{"error":"reconcile failed"}`, http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(report)
		})

		mux.HandleFunc("POST /webhook/recover", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Action      string `json:"action"`
				Platform    string `json:"platform"`
				WorkspaceID string `json:"workspace_id"`
				ForceResume bool   `json:"force_resume"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
			action, err := syncjob.ParseAction(req.Action)
			if err != nil {
				http.Error(w, `{"error":"invalid action"}`, http.StatusBadRequest)
				return
			}

			scan, err := orch.Run(r.Context(), syncjob.Options{
				Action:      action,
				Platform:    req.Platform,
				WorkspaceID: req.WorkspaceID,
				ForceResume: req.ForceResume,
			})
			if err != nil {
				zap.L().Error("webhook recover failed", zap.Error(err))
				http.Error(w, `{"error":"recovery scan failed"}`, http.StatusInternalServerError)
				return
			}

			alerter.SendAlerts(r.Context(), alerter.Evaluate(scan))

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(scan)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
