package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/bastiangx/wordrecall/pkg/config"
	"github.com/bastiangx/wordrecall/pkg/metrics"
	"github.com/bastiangx/wordrecall/pkg/server"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	metricsAddr string
	noWatch     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the msgpack IPC server on stdin/stdout",
	Long: `Run the msgpack IPC server. Requests are read from stdin and answered
on stdout; logs go to stderr. The history is saved every
history.autosave_every records and again on exit.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&metricsAddr, "metrics", "", "Serve Prometheus metrics on this address (e.g. :9101)")
	serveCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the config file on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithStore(sess.store)}
	if metricsAddr != "" {
		m := metrics.New(sess.provider)
		opts = append(opts, server.WithMetrics(m))
		stop := serveMetrics(metricsAddr, m)
		defer stop()
	}
	srv := server.NewServer(sess.provider, sess.cfg, opts...)

	if !noWatch && sess.configPath != "" {
		go func() {
			err := config.Watch(ctx, sess.configPath, func(cfg *config.Config) {
				applyOverrides(cfg)
				srv.UpdateConfig(cfg)
			})
			if err != nil {
				log.Warnf("Config reloading disabled: %v", err)
			}
		}()
	}

	showStartupInfo(sess)

	runErr := srv.Run(ctx)
	// Run already saved pending records; this releases the store
	if err := sess.store.Close(); err != nil {
		log.Warnf("Closing history store: %v", err)
	}
	return runErr
}

// serveMetrics starts an HTTP listener for /metrics and returns its shutdown.
func serveMetrics(addr string, m *metrics.Metrics) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Debugf("Serving metrics on %s/metrics", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Warnf("Metrics server shutdown: %v", err)
		}
	}
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(sess *session) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	stats := sess.provider.Stats()
	log.Info("===========")
	log.Info(" WordRecall ")
	log.Info("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Infof("history: %d words, style %s", stats["words"], sess.provider.Style())
	log.Info("status: ready")
	log.Info("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
