package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/assetgw-go/internal/core/service"
	"github.com/yndnr/assetgw-go/internal/infra/buildinfo"
	"github.com/yndnr/assetgw-go/internal/infra/confloader"
	"github.com/yndnr/assetgw-go/internal/infra/shutdown"
	"github.com/yndnr/assetgw-go/internal/infra/tlsroots"
	"github.com/yndnr/assetgw-go/internal/ledger/connmgr"
	"github.com/yndnr/assetgw-go/internal/ledger/fabric"
	"github.com/yndnr/assetgw-go/internal/ledger/gateway"
	"github.com/yndnr/assetgw-go/internal/ledger/profile"
	"github.com/yndnr/assetgw-go/internal/ledger/wallet"
	"github.com/yndnr/assetgw-go/internal/server/config"
	"github.com/yndnr/assetgw-go/internal/server/httpserver"
	"github.com/yndnr/assetgw-go/internal/telemetry/logger"
	"github.com/yndnr/assetgw-go/internal/telemetry/metric"
	"github.com/yndnr/assetgw-go/pkg/crypto/adaptive"
)

func main() {
	app := &cli.App{
		Name:    "assetgw-server",
		Usage:   "REST gateway for the ledger asset contract",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"ASSETGW_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "Validate the configuration and exit",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	configFile := c.String("config")

	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Bool("check") {
		fmt.Fprintln(c.App.Writer, "configuration OK")
		return nil
	}

	log := logger.New(logger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    os.Stdout,
		AddSource: cfg.Log.AddSource,
	})
	slog.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting assetgw-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout, shutdown.WithLogger(log))

	registry := metric.NewRegistry()

	// Ledger
	walletCfg := wallet.Config{
		Type:   cfg.Ledger.Wallet.Type,
		Path:   cfg.Ledger.Wallet.Path,
		Logger: log,
	}
	if cfg.Ledger.Wallet.EncryptionKey != "" {
		// Verify has already parsed the key once.
		walletCfg.EncryptionKey, _ = adaptive.ParseKey(cfg.Ledger.Wallet.EncryptionKey)
	}
	store, err := wallet.Open(walletCfg)
	if err != nil {
		return fmt.Errorf("open wallet: %w", err)
	}
	shutdownHandler.OnShutdown("wallet", func(context.Context) error {
		return store.Close()
	})

	sessions, err := initSessions(cfg, store, registry, log)
	if err != nil {
		_ = store.Close()
		return err
	}
	shutdownHandler.OnShutdown("sessions", func(context.Context) error {
		return sessions.Close()
	})

	gw := gateway.New(sessions, gateway.Config{
		Identity:        cfg.Ledger.Identity,
		Channel:         cfg.Ledger.Channel,
		Contract:        cfg.Ledger.Contract,
		DispatchTimeout: cfg.Ledger.DispatchTimeout,
	}, gateway.WithLogger(log), gateway.WithMetrics(registry))

	// HTTP
	routerCfg := httpserver.DefaultRouterConfig()
	routerCfg.Assets = service.NewAssetService(gw)
	routerCfg.Readiness = readiness(store, cfg.Ledger.Identity)
	routerCfg.Logger = log
	routerCfg.AllowedIdentities = cfg.Ledger.AllowedIdentities
	routerCfg.TrustedProxies = cfg.Server.HTTP.TrustedProxies
	routerCfg.RateLimit = cfg.Server.HTTP.RateLimit
	routerCfg.RateBurst = cfg.Server.HTTP.RateBurst
	routerCfg.CORSAllowedOrigins = cfg.Server.HTTP.CORSAllowedOrigins
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = registry
		routerCfg.MetricsAllowList = cfg.Metrics.AllowList
	}

	serverOpts := []httpserver.ServerOption{
		httpserver.WithWriteTimeout(cfg.Server.HTTP.WriteTimeout),
	}
	if cfg.Server.HTTP.TLS() {
		kp, err := tlsroots.LoadKeyPair(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(log))
		if err != nil {
			return fmt.Errorf("load TLS key pair: %w", err)
		}
		serverOpts = append(serverOpts, httpserver.WithTLS(kp))
		go func() {
			if err := kp.Watch(ctx); err != nil {
				log.Warn("TLS certificate watch stopped", "error", err)
			}
		}()
	}

	httpServer := httpserver.New(cfg.Server.HTTP.Addr, httpserver.NewRouter(routerCfg), serverOpts...)
	shutdownHandler.OnShutdown("http", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	if err := startWatchers(ctx, cfg, configFile, sessions, log); err != nil {
		log.Warn("file watching disabled", "error", err)
	}

	go func() {
		log.Info("HTTP server listening",
			"addr", cfg.Server.HTTP.Addr,
			"tls", httpServer.TLS())
		if err := httpServer.ListenAndServe(); err != nil {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger()
		}
	}()

	log.Info("server started",
		"channel", cfg.Ledger.Channel,
		"contract", cfg.Ledger.Contract,
		"identity", cfg.Ledger.Identity,
		"pooling", sessions.Pooled())

	err = shutdownHandler.Wait(ctx)
	cancel()
	if err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig layers defaults, the optional file, ASSETGW_ variables and
// the legacy variables, then validates the result.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{
		confloader.WithEnvPrefix(config.EnvPrefix),
		confloader.WithKnownKeys(config.Keys()),
	}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	config.ApplyLegacyEnv(cfg, os.LookupEnv)

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initSessions loads the connection profile and builds the connection
// manager.
func initSessions(cfg *config.ServerConfig, store wallet.Store, registry *metric.Registry, log *slog.Logger) (*connmgr.Manager, error) {
	prof, err := profile.Load(cfg.Ledger.Profile.Path)
	if err != nil {
		return nil, fmt.Errorf("load connection profile: %w", err)
	}

	dialer, err := fabric.NewDialer(fabric.Config{
		Profile: prof,
		Peer:    cfg.Ledger.Profile.Peer,
		Timeouts: fabric.Timeouts{
			Dial:         cfg.Ledger.DialTimeout,
			Evaluate:     cfg.Ledger.EvaluateTimeout,
			Endorse:      cfg.Ledger.EndorseTimeout,
			Submit:       cfg.Ledger.SubmitTimeout,
			CommitStatus: cfg.Ledger.CommitStatusTimeout,
		},
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("create ledger dialer: %w", err)
	}

	opts := []connmgr.Option{
		connmgr.WithLogger(log),
		connmgr.WithMetrics(registry),
	}
	if cfg.Ledger.Pool.Enabled {
		opts = append(opts, connmgr.WithPool(connmgr.PoolConfig{
			Enabled: true,
			MaxIdle: cfg.Ledger.Pool.MaxIdle,
			MaxAge:  cfg.Ledger.Pool.MaxAge,
		}))
	}

	mgr := connmgr.New(store, dialer, opts...)
	if mgr.Pooled() {
		if err := registry.RegisterPool(mgr); err != nil {
			return nil, fmt.Errorf("register pool metrics: %w", err)
		}
	}

	log.Info("connection profile loaded",
		"profile", prof.Name(),
		"path", cfg.Ledger.Profile.Path)
	return mgr, nil
}

// readiness reports ready once the default identity resolves.
func readiness(store wallet.Store, identity string) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, err := store.Resolve(ctx, identity); err != nil {
			return fmt.Errorf("default identity %q: %w", identity, err)
		}
		return nil
	}
}

// startWatchers reapplies the log level when the configuration file
// changes and evicts pooled sessions of identities whose wallet files
// change.
func startWatchers(ctx context.Context, cfg *config.ServerConfig, configFile string, sessions *connmgr.Manager, log *slog.Logger) error {
	watchWallet := cfg.Ledger.Wallet.Watch && sessions.Pooled() &&
		(cfg.Ledger.Wallet.Type == "" || cfg.Ledger.Wallet.Type == wallet.TypeFile)
	if configFile == "" && !watchWallet {
		return nil
	}

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return err
	}

	var errs []error
	if configFile != "" {
		errs = append(errs, w.WatchFile(configFile, func(string) {
			reloaded, err := loadConfig(configFile)
			if err != nil {
				log.Warn("configuration reload rejected", "error", err)
				return
			}
			if reloaded.Log.Level != logger.GetLevel() {
				logger.SetLevel(reloaded.Log.Level)
				log.Info("log level changed", "level", reloaded.Log.Level)
			}
		}))
	}
	if watchWallet {
		errs = append(errs, w.WatchDir(cfg.Ledger.Wallet.Path, func(path string) {
			label := wallet.LabelFromPath(path)
			if label == "" {
				return
			}
			if n := sessions.Evict(label); n > 0 {
				log.Info("identity changed, sessions evicted", "identity", label, "sessions", n)
			}
		}))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	go func() {
		if err := w.Run(ctx); err != nil {
			log.Warn("file watcher stopped", "error", err)
		}
	}()
	return nil
}
