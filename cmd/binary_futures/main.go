package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"frizo/binary_futures/internal/api"
	"frizo/binary_futures/internal/config"
	"frizo/binary_futures/internal/contract"
	"frizo/binary_futures/internal/keeper"
	"frizo/binary_futures/internal/ledger"
	"frizo/binary_futures/internal/logger"
	"frizo/binary_futures/internal/oracle"
	"frizo/binary_futures/internal/version"
	"frizo/binary_futures/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	feedRetry       = 3 * time.Second
)

func main() {
	// Command line flags
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		healthCheck = flag.Bool("health-check", false, "Query the health endpoint of a running instance")
		configFile  = flag.String("config", ".env.local", "Path to configuration file")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Handle help flag
	if *showHelp {
		fmt.Printf("%s %s\n\n", version.Name, version.Short())
		fmt.Println("Usage:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// Configuration file is optional, the environment always applies
	if *configFile != "" && utils.FileExists(*configFile) {
		if err := config.LoadEnvFile(*configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	cfg := config.Load()

	// Override log level from command line
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Handle health check
	if *healthCheck {
		if err := checkHealth(cfg); err != nil {
			fmt.Println("UNHEALTHY:", err)
			os.Exit(1)
		}
		fmt.Println("OK")
		os.Exit(0)
	}

	// Initialize logger
	log := logger.NewWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.SetDefault(log)

	log.Info("Starting "+version.Name,
		"version", version.Short(),
		"environment", cfg.Environment,
		"address", cfg.Address(),
		"ledger", cfg.LedgerDriver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Application error", "error", err)
		os.Exit(1)
	}

	log.Info(version.Name + " stopped")
}

// run wires the ledger, contracts, price feed, keeper and HTTP server, and blocks until ctx is done.
func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	l, closeLedger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	manager := contract.NewManager(l, contract.WithLogger(log))
	if err := deployContracts(cfg, manager, log); err != nil {
		return err
	}

	feed, runFeed, err := openFeed(cfg, log)
	if err != nil {
		return err
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.NewRouter(api.NewHandler(manager, l, log)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	k := keeper.New(manager, feed, log, time.Duration(cfg.KeeperIntervalSeconds)*time.Second)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(version.Name+" is running", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down " + version.Name + "...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return k.Run(gctx)
	})

	if runFeed != nil {
		g.Go(func() error {
			return runFeed(gctx)
		})
	}

	return g.Wait()
}

func openLedger(cfg *config.Config) (ledger.Ledger, func(), error) {
	switch cfg.LedgerDriver {
	case "sqlite":
		l, err := ledger.OpenSQLite(cfg.LedgerDSN)
		if err != nil {
			return nil, nil, err
		}
		return l, func() { _ = l.Close() }, nil
	default:
		return ledger.NewMemoryLedger(), func() {}, nil
	}
}

func deployContracts(cfg *config.Config, manager *contract.Manager, log *logger.Logger) error {
	if cfg.ContractsFile == "" {
		return nil
	}

	defs, err := config.LoadContracts(cfg.ContractsFile, int32(cfg.PriceScale))
	if err != nil {
		return err
	}
	for _, def := range defs {
		var opts []contract.Option
		if def.ID != "" {
			opts = append(opts, contract.WithID(def.ID))
		}
		if _, err := manager.Create(def.Config, opts...); err != nil {
			return fmt.Errorf("deploy contract %q: %w", def.ID, err)
		}
	}

	log.Info("contracts deployed", "file", cfg.ContractsFile, "count", len(defs))
	return nil
}

// openFeed returns the price feed and, for streaming feeds, the loop that keeps it fresh.
func openFeed(cfg *config.Config, log *logger.Logger) (oracle.PriceFeed, func(context.Context) error, error) {
	if cfg.OracleURL != "" {
		ws := oracle.NewWSFeed(cfg.OracleURL, cfg.OracleSymbol, int32(cfg.PriceScale), log)
		return ws, func(ctx context.Context) error { return ws.Follow(ctx, feedRetry) }, nil
	}

	static := oracle.NewStaticFeed("static")
	if cfg.OracleStaticPrice != "" {
		p, err := decimal.NewFromString(cfg.OracleStaticPrice)
		if err != nil {
			return nil, nil, fmt.Errorf("static oracle price: %w", err)
		}
		static.Set(oracle.ToFixedPoint(p, int32(cfg.PriceScale)), time.Now().Unix())
	}
	return static, nil, nil
}

func checkHealth(cfg *config.Config) error {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get("http://" + cfg.Address() + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
