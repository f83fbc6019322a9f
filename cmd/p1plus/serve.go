package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NotCoffee418/p1plus_monitor/pkg/api"
	"github.com/NotCoffee418/p1plus_monitor/pkg/congestiondb"
	"github.com/NotCoffee418/p1plus_monitor/pkg/ledstrip"
	"github.com/NotCoffee418/p1plus_monitor/pkg/metrics"
	"github.com/NotCoffee418/p1plus_monitor/pkg/port_reader"
	"github.com/NotCoffee418/p1plus_monitor/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Read the P1 port and serve the live readings",
	Long: `Opens the configured serial device, drives the congestion indicator and
exposes the latest update, a websocket stream and the session controls over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := metrics.New(reg)

		indicator := ledstrip.NewIndicator(ledstrip.NewPixels(cfg.LedCount), cfg.LedStageDelay(), logger)
		hub := api.NewHub(logger)
		demo := api.NewDemoFlag(cfg.DemoMode)
		displays := session.Displays{hub, m}

		var events api.EventLog
		if cfg.CongestionDbPath != "" {
			store, err := congestiondb.Open(cfg.CongestionDbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			displays = append(displays, congestiondb.NewRecorder(store, logger))
			events = store
		}

		controller := session.NewController(
			port_reader.NewP1Port(cfg.SerialDevice, cfg.Baudrate, logger),
			displays,
			indicator,
			session.Options{
				StopTimeout: cfg.StopTimeout(),
				Demo:        demo,
				Observer:    m,
				Logger:      logger,
			},
		)
		defer controller.Stop()

		if cfg.AutoStart {
			if err := controller.Start(cmd.Context()); err != nil {
				// The session can be started again over the API.
				logger.Error().Err(err).Msg("Auto start failed")
			}
		}

		srv := &http.Server{
			Addr: cfg.ListenAddr(),
			Handler: api.NewHandler(api.Options{
				Hub:       hub,
				Demo:      demo,
				Session:   controller,
				Indicator: indicator,
				Events:    events,
				Gatherer:  reg,
				Logger:    logger,
			}),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", srv.Addr).Msg("Starting P1 Plus Monitor API")
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case sig := <-shutdown:
			logger.Info().Stringer("signal", sig).Msg("Start shutdown")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn().Err(err).Dur("timeout", shutdownTimeout).Msg("Graceful shutdown did not complete")
				if err := srv.Close(); err != nil {
					logger.Error().Err(err).Msg("Error killing server")
				}
			}
			logger.Info().Msg("Server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
