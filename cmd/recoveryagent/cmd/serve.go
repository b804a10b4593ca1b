package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sequenceiq/ambari-agent/internal/adminhttp"
	"github.com/sequenceiq/ambari-agent/internal/config"
	"github.com/sequenceiq/ambari-agent/internal/controller"
	"github.com/sequenceiq/ambari-agent/internal/report"
	"github.com/sequenceiq/ambari-agent/pkg/clock"
	"github.com/sequenceiq/ambari-agent/pkg/logger"
	"github.com/sequenceiq/ambari-agent/pkg/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recovery manager tick loop and admin HTTP surface",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	agentCfg, err := config.LoadAgentConfig(cfgFile)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:      agentCfg.Log.Level,
		Format:     agentCfg.Log.Format,
		Output:     agentCfg.Log.Output,
		Filename:   agentCfg.Log.Filename,
		MaxSizeMB:  agentCfg.Log.MaxSize,
		MaxBackups: agentCfg.Log.MaxBackups,
		MaxAgeDays: agentCfg.Log.MaxAge,
		Compress:   agentCfg.Log.Compress,
	})
	log = logger.ForComponent(log, "recoveryagent")

	m := metrics.New(prometheus.DefaultRegisterer)
	ctrl := controller.New(clock.System{}, log, m)
	reporter := report.New(ctrl)

	admin := adminhttp.New(reporter, log)
	httpServer := &http.Server{
		Addr:    agentCfg.AdminAddr,
		Handler: admin.Handler(),
	}

	go func() {
		log.Info("admin HTTP surface starting", "addr", agentCfg.AdminAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(agentCfg.TickInterval)
	defer ticker.Stop()

	log.Info("recovery manager started", "host_id", agentCfg.HostID, "tick_interval", agentCfg.TickInterval)

runLoop:
	for {
		select {
		case <-ticker.C:
			cmds := ctrl.CollectCommands()
			if len(cmds) > 0 {
				log.Info("collected recovery commands", "count", len(cmds))
			}
		case <-quit:
			log.Info("shutting down recovery manager")
			break runLoop
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
