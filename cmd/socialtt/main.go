package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"socialtt/internal/config"
	appLog "socialtt/internal/log"
	"socialtt/internal/model"
	"socialtt/internal/store"
	"socialtt/internal/timetable"
	"socialtt/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("invalid timezone in config", err, "timezone", conf.Timezone)
		os.Exit(1)
	}
	model.ReferenceZone = loc

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"default_term", conf.DefaultTerm,
		"refresh", conf.RefreshCron,
		"bucket", conf.MinIO.Bucket,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	st, err := store.New(ctx, conf)
	if err != nil {
		appLog.Error("failed to connect to profile store", err, "endpoint", conf.MinIO.Endpoint)
		os.Exit(1)
	}

	fetcher := timetable.NewFetcher(conf.CacheTTL())
	importer := timetable.NewImporter(fetcher, st)

	var scheduler *cron.Cron
	if conf.RefreshCron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(conf.RefreshCron, func() {
			refreshAll(ctx, st, importer)
		})
		if err != nil {
			appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
			os.Exit(1)
		}
		scheduler.Start()
		appLog.Info("refresh scheduler started", "refresh", conf.RefreshCron)
	}

	server := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, st, importer).Handler(),
	}

	go func() {
		<-ctx.Done()
		if scheduler != nil {
			scheduler.Stop()
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}
	appLog.Info("socialtt exiting")
}

// refreshAll re-runs the saved import for every profile that has one.
// Individual failures are logged and skipped; a broken feed for one user
// must not stall everyone else's refresh.
func refreshAll(ctx context.Context, st *store.Store, importer *timetable.Importer) {
	profiles, err := st.AllProfiles(ctx)
	if err != nil {
		appLog.Error("refresh: listing profiles failed", err)
		return
	}

	refreshed := 0
	for _, p := range profiles {
		if p.Source == nil {
			continue
		}
		if err := importer.Refresh(ctx, p); err != nil {
			appLog.Error("refresh failed", err, "user", p.ID)
			continue
		}
		refreshed++
	}
	appLog.Info("refresh cycle complete", "profiles", len(profiles), "refreshed", refreshed)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/socialtt/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
