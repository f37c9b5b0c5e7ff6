package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"jobclip-engine/internal/browser"
	"jobclip-engine/internal/capture"
	"jobclip-engine/internal/config"
	"jobclip-engine/internal/events"
	"jobclip-engine/internal/extract"
	"jobclip-engine/internal/httpapi"
	"jobclip-engine/internal/ingest"
	"jobclip-engine/internal/logging"
	"jobclip-engine/internal/scheduler"
	"jobclip-engine/internal/secrets"
	"jobclip-engine/internal/store"
)

func main() {
	// Engine data dir: use env if provided (the extension installer can
	// pass one), else local folder.
	dataDir := os.Getenv("JOBCLIP_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One engine per data dir; a second copy would fight over the sqlite
	// file and the port.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("instance lock failed: %v", err)
	}
	if !locked {
		log.Fatalf("another engine is already running for %s", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, lerr := config.Load(userCfgPath)
		if lerr != nil {
			return cfg, lerr
		}
		cfg, vr := config.NormalizeAndValidate(cfg)
		if !vr.OK() {
			return cfg, fmt.Errorf("config invalid: %v", vr.Errors)
		}
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	logger := logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	defer func() { _ = logger.Sync() }()

	dbPath := filepath.Join(dataDir, "jobclip.db")
	db, err := store.Open(dbPath)
	if err != nil {
		logger.Fatal("open database", zap.String("path", dbPath), zap.Error(err))
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	hub := events.NewHub()
	session := browser.NewSession()

	extractor := extract.NewHTTPExtractor(extract.Config{
		Timeout:    time.Duration(cfg.Extract.TimeoutSeconds) * time.Second,
		MaxBodyKB:  cfg.Extract.MaxBodyKB,
		PerHostRPS: cfg.Extract.PerHostRPS,
		Burst:      cfg.Extract.Burst,
	})

	// The ingest target is fixed for the life of the process; changing
	// ingest.url takes a restart.
	tokenAccount := cfg.Ingest.TokenAccount
	if tokenAccount == "" {
		tokenAccount = secrets.IngestKeyringAccount(cfg.Ingest.URL)
	}
	ingClient := ingest.New(
		cfg.Ingest.URL,
		time.Duration(cfg.Ingest.TimeoutSeconds)*time.Second,
		func() (string, error) { return secrets.GetIngestToken(tokenAccount) },
	)

	controller := capture.NewController(session, extractor, ingClient, logger)

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          db.Pool,
		Hub:         hub,
		Log:         logger,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		Session:     session,
		Controller:  controller,
		Submit:      ingClient.Submit,
	})

	srv := &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Shutdown endpoint for the extension's uninstall/update flow. The
	// token lands next to the database so only local software can read it.
	shutdownToken, err := randomToken(16)
	if err != nil {
		logger.Fatal("generate shutdown token", zap.Error(err))
	}
	tokenPath := filepath.Join(dataDir, "shutdown.token")
	if err := os.WriteFile(tokenPath, []byte(shutdownToken), 0o600); err != nil {
		logger.Fatal("write shutdown token", zap.String("path", tokenPath), zap.Error(err))
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&shutdownToken, srv))

	srv.Handler = httpapi.Chain(mux,
		httpapi.RequestID,
		httpapi.AccessLog(logger),
		httpapi.Recover(logger),
		httpapi.Cors,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Trim old history rows twice a day.
	go scheduler.Every(ctx, 12*time.Hour, "cleanup_old_captures", logger, func(tctx context.Context) error {
		cur := cfgVal.Load().(config.Config)
		n, cerr := store.CleanupOldCaptures(db.Pool, cur.History.RetentionDays)
		if cerr != nil {
			return cerr
		}
		if n > 0 {
			logger.Info("pruned old captures", zap.Int64("deleted", n))
		}
		return nil
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal("listen", zap.String("addr", addr), zap.Error(err))
	}
	logger.Info("engine listening",
		zap.String("addr", "http://"+addr),
		zap.String("db", dbPath),
		zap.String("config", userCfgPath))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		<-errCh
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}

	_ = os.Remove(tokenPath)
}
