// Viewerscope daemon - live viewer presence and browser signal profiling
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantumlife/viewerscope/internal/api"
	"github.com/quantumlife/viewerscope/internal/config"
	"github.com/quantumlife/viewerscope/internal/geo"
	"github.com/quantumlife/viewerscope/internal/logging"
	"github.com/quantumlife/viewerscope/internal/presence"
	"github.com/quantumlife/viewerscope/internal/scheduler"
	"github.com/quantumlife/viewerscope/internal/storage"
)

const geoPurgeTaskID = "geo-cache-purge"

var (
	configPath    string
	port          int
	staticDir     string
	sweepInterval time.Duration
	logLevel      string

	version = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "viewerscope",
		Short: "Viewerscope - see who is on the page right now",
		Long: `Viewerscope serves a page that shows its live viewers to each other
and profiles the browser signals a visitor submits.

Everything is held in memory and forgotten when the process exits.`,
		RunE:         runDaemon,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "path to JSON config file")
	rootCmd.Flags().IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	rootCmd.Flags().StringVar(&staticDir, "static-dir", "", "directory of static assets to serve at /")
	rootCmd.Flags().DurationVar(&sweepInterval, "sweep-interval", 0, "liveness sweep interval (overrides config)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if cmd.Flags().Changed("static-dir") {
		cfg.Server.StaticDir = staticDir
	}
	if cmd.Flags().Changed("sweep-interval") {
		cfg.Presence.SweepInterval = config.Duration{Duration: sweepInterval}
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}

	return cfg, cfg.Validate()
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logging.SetLevel(level)
	log := logging.WithField("component", "daemon")

	log.Info("starting viewerscope %s", version)

	// Location cache lives in memory only
	db, err := storage.Open(storage.Config{InMemory: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	chain, closeGeo, err := buildChain(cfg.Geo, log)
	if err != nil {
		return err
	}
	defer closeGeo()
	log.Info("geo providers: %s", chain.Name())

	resolver := geo.NewCachedResolver(chain, storage.NewLocationStore(db), cfg.Geo.CacheTTL.Duration)

	sched := scheduler.NewScheduler()
	if cfg.Geo.CachePurgeInterval.Duration > 0 {
		purge := scheduler.IntervalTask(geoPurgeTaskID, "Purge expired locations", cfg.Geo.CachePurgeInterval.Duration, resolver.Purge)
		if err := sched.Register(purge); err != nil {
			return fmt.Errorf("failed to register %s: %w", geoPurgeTaskID, err)
		}
	}

	svc, err := presence.NewService(resolver, sched, presence.Config{
		SweepInterval:   cfg.Presence.SweepInterval.Duration,
		WriteTimeout:    cfg.Presence.WriteTimeout.Duration,
		MaxMessageBytes: cfg.Presence.MaxMessageBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to create presence service: %w", err)
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	server := api.New(api.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		StaticDir:      cfg.Server.StaticDir,
		MaxConnections: cfg.Server.MaxConnections,
		ReadTimeout:    cfg.Server.ReadTimeout.Duration,
		WriteTimeout:   cfg.Server.WriteTimeout.Duration,
		Presence:       svc,
		Resolver:       resolver,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var serveErr error
	select {
	case sig := <-sigCh:
		log.Info("received %s, shutting down", sig)
	case serveErr = <-errCh:
		if serveErr != nil {
			log.Error("server failed: %v", serveErr)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Warn("server shutdown: %v", err)
	}
	if err := svc.Close(); err != nil {
		log.Warn("presence shutdown: %v", err)
	}
	sched.Stop()

	log.Info("stopped")
	return serveErr
}

// buildChain assembles the location providers: the local MaxMind database
// first when configured, then the upstream HTTP providers in config order.
func buildChain(cfg config.GeoConfig, log *logging.Logger) (*geo.Chain, func(), error) {
	var providers []geo.Provider
	closeFn := func() {}

	if cfg.CityDatabase != "" {
		mm, err := geo.OpenMaxMind(cfg.CityDatabase, cfg.ASNDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open geoip database: %w", err)
		}
		providers = append(providers, mm)
		closeFn = func() {
			if err := mm.Close(); err != nil {
				log.Warn("geoip close: %v", err)
			}
		}
	}

	for _, name := range cfg.Providers {
		switch name {
		case "ip-api":
			providers = append(providers, geo.NewIPAPIProvider("", cfg.Timeout.Duration))
		case "ipapi.co":
			providers = append(providers, geo.NewIPAPICoProvider("", cfg.Timeout.Duration))
		}
	}

	if len(providers) == 0 {
		log.Warn("no geo providers configured, public viewers will have no location")
	}

	return geo.NewChain(providers...), closeFn, nil
}

// versionCmd shows version
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show viewerscope version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("viewerscope %s\n", version)
		},
	}
}

// configCmd writes the effective configuration to a file
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config <path>",
		Short: "Write the default configuration (with env overrides) to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			if err := cfg.Save(args[0]); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
}
