// ABOUTME: Entry point for the virtualization dashboard backend service
// ABOUTME: Serves the dashboard API and plugin main tab over vSphere or file snapshots

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/markalston/virt-dashboard/backend/cache"
	"github.com/markalston/virt-dashboard/backend/config"
	"github.com/markalston/virt-dashboard/backend/handlers"
	"github.com/markalston/virt-dashboard/backend/logger"
	"github.com/markalston/virt-dashboard/backend/metrics"
	"github.com/markalston/virt-dashboard/backend/middleware"
	"github.com/markalston/virt-dashboard/backend/render"
	"github.com/markalston/virt-dashboard/backend/services"
	"github.com/markalston/virt-dashboard/internal/intl"
	"github.com/markalston/virt-dashboard/internal/plugin"
	"github.com/markalston/virt-dashboard/internal/search"
	"github.com/markalston/virt-dashboard/internal/snapshot"
	"github.com/markalston/virt-dashboard/internal/view"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize structured logging
	log := logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting virtualization dashboard backend", "port", cfg.Port, "locale", cfg.Locale)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, vsphere, err := newSource(cfg)
	if err != nil {
		slog.Error("Failed to configure data source", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	c := cache.New[[]byte](ctx, cfg.CacheTTL)
	slog.Info("Cache initialized", "ttl", cfg.CacheTTL)

	loc := intl.New(cfg.Locale)
	dashboard, err := view.NewGlobalDashboard(loc)
	if err != nil {
		slog.Error("Failed to build dashboard", "error", err)
		os.Exit(1)
	}

	placeCfg := plugin.Config{Title: loc.Msg(intl.MainTabTitle), BasePath: cfg.PluginBasePath}
	renderer, err := render.New(loc, loc.Tag().String(), render.Paths{
		Tab:      plugin.DashboardPlace(placeCfg).URL,
		Navigate: "/api/v1/navigate",
		Refresh:  "/api/v1/refresh",
	}, time.Now)
	if err != nil {
		slog.Error("Failed to parse templates", "error", err)
		os.Exit(1)
	}

	store := &snapshot.Store{}
	manifest := plugin.NewManifest()
	deps := handlers.Dependencies{
		Store:     store,
		Dashboard: dashboard,
		Renderer:  renderer,
		Navigator: search.LogNavigator{Logger: log},
		Manifest:  manifest,
		Metrics:   m,
	}
	if vsphere != nil {
		deps.VSphere = vsphere
	}

	refreshCfg := services.RefresherConfig{
		Source:    source,
		Store:     store,
		Observer:  m,
		Interval:  cfg.RefreshInterval,
		Timeout:   cfg.RefreshTimeout,
		OnRefresh: func(*snapshot.Snapshot) { c.Flush() },
	}
	if cfg.HistoryDB != "" {
		history, err := services.NewSQLiteHistory(log, cfg.HistoryDB, cfg.HistorySamples)
		if err != nil {
			slog.Error("Failed to open history database", "error", err)
			os.Exit(1)
		}
		defer history.Close()
		refreshCfg.History = history
		slog.Info("Utilization history enabled", "path", cfg.HistoryDB, "samples", cfg.HistorySamples)
	}

	refresher := services.NewRefresher(refreshCfg)
	deps.Refresher = refresher
	h := handlers.NewHandler(cfg, c, deps)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: h.Router(
			middleware.LogRequest,
			middleware.Recover,
			middleware.CORSWithConfig(cfg.CORSAllowedOrigins),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	go refresher.Run(ctx)
	go registerPlugin(ctx, manifest, placeCfg, refresher)

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	if vsphere != nil {
		if err := vsphere.Disconnect(shutdownCtx); err != nil {
			slog.Warn("vSphere disconnect failed", "error", err)
		}
	}
	slog.Info("Backend stopped")
}

// registerPlugin marks the main tab ready once the first snapshot is
// installed. Failed refreshes are retried by the refresher's ticker, so this
// waits until one succeeds or ctx is done.
func registerPlugin(ctx context.Context, host plugin.Host, placeCfg plugin.Config, refresher *services.Refresher) {
	err := plugin.Register(ctx, host, placeCfg, refresher.WaitFirstSnapshot)
	if err != nil {
		slog.Warn("Plugin never became ready", "error", err)
		return
	}
	slog.Info("Plugin ready")
}

// newSource picks vSphere when it is configured, the snapshot file otherwise.
func newSource(cfg *config.Config) (snapshot.Source, *services.VSphereClient, error) {
	if !cfg.VSphereConfigured() {
		slog.Info("vSphere not configured, serving snapshot file", "path", cfg.SnapshotFile)
		return snapshot.FileSource{Path: cfg.SnapshotFile}, nil, nil
	}

	var dial services.DialContextFunc
	if cfg.VSphereAllProxy != "" {
		d, err := services.NewProxyDialContext(cfg.VSphereAllProxy)
		if err != nil {
			return nil, nil, err
		}
		dial = d
		slog.Info("vSphere connections go through SOCKS5 proxy")
	}

	client := services.NewVSphereClient(services.VSphereCredentials{
		Host:       cfg.VSphereHost,
		Username:   cfg.VSphereUsername,
		Password:   cfg.VSpherePassword,
		Datacenter: cfg.VSphereDatacenter,
		Insecure:   cfg.VSphereInsecure,
	}, dial)
	slog.Info("vSphere configured", "host", cfg.VSphereHost, "datacenter", cfg.VSphereDatacenter)
	return client, client, nil
}
