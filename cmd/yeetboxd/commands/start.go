package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/yeetbox/yeetbox/internal/config"
	"github.com/yeetbox/yeetbox/internal/logger"
	"github.com/yeetbox/yeetbox/internal/telemetry"
	"github.com/yeetbox/yeetbox/pkg/auth"
	"github.com/yeetbox/yeetbox/pkg/blobstore"
	"github.com/yeetbox/yeetbox/pkg/blobstore/local"
	blobs3 "github.com/yeetbox/yeetbox/pkg/blobstore/s3"
	"github.com/yeetbox/yeetbox/pkg/engine"
	"github.com/yeetbox/yeetbox/pkg/facade"
	"github.com/yeetbox/yeetbox/pkg/facade/admin"
	"github.com/yeetbox/yeetbox/pkg/kvs"
	"github.com/yeetbox/yeetbox/pkg/kvs/badger"
	"github.com/yeetbox/yeetbox/pkg/kvs/sql"
)

// tierLocal and tierS3 are the fixed storage-tier indices this build
// recognizes; spec.md §9 leaves the tier set operator-defined, but two
// tiers (local disk, optional S3) are all this deployment wires.
const (
	tierLocal uint8 = 0
	tierS3    uint8 = 1
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the yeetbox server",
	Long: `Start the yeetbox server: opens the configured KVS and blob store
backends, wires the object engine and service facade, and serves RPCs
until SIGINT/SIGTERM.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	watcher, err := config.NewWatcher(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfg := watcher.Current()

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Server.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    cfg.Server.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	// Reconfigure the logger in place when the config file changes; the
	// logging section (level, format, output) is the only part applied
	// live, while anything else the operator changes only takes effect on
	// restart.
	watcher.Start(func(newCfg *config.Config, reloadErr error) {
		if reloadErr != nil {
			logger.Error("config reload failed", "error", reloadErr)
			return
		}
		if err := logger.Init(logger.Config{Level: newCfg.Logging.Level, Format: newCfg.Logging.Format, Output: newCfg.Logging.Output}); err != nil {
			logger.Error("config reload: reinitialize logger", "error", err)
			return
		}
		logger.Info("configuration reloaded", "level", newCfg.Logging.Level)
	})

	kv, err := openKVS(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Error("close metadata store", "error", err)
		}
	}()

	blobStores, err := openBlobStores(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	registry := prometheus.NewRegistry()
	eng := engine.New(kv, blobStores, slog.Default(), registry)

	creds := auth.NewStaticCredentials(nil)
	if cfg.Auth.CredentialsPath != "" {
		hashes, err := auth.LoadCredentialsFile(cfg.Auth.CredentialsPath)
		if err != nil {
			return fmt.Errorf("load credentials file: %w", err)
		}
		creds.Replace(hashes)

		credsWatcher := auth.NewCredentialsWatcher(cfg.Auth.CredentialsPath, creds)
		if err := credsWatcher.Start(); err != nil {
			return fmt.Errorf("start credentials watcher: %w", err)
		}
		defer credsWatcher.Stop()
	}

	authenticator := auth.NewAuthenticator(creds)
	sessions, err := auth.NewSessionManager(auth.SessionConfig{
		Secret:         cfg.Auth.SessionSecret,
		TokenDuration:  cfg.Auth.SessionDuration,
		AllowAnonymous: cfg.Auth.AllowAnonymous,
	})
	if err != nil {
		return fmt.Errorf("initialize session manager: %w", err)
	}

	fac := facade.New(eng, authenticator, sessions, auth.AllowAll{}, slog.Default())
	rpcServer := fac.NewServer(cfg.Server.ListenAddress)

	var reclaimDone chan struct{}
	if cfg.Server.OrphanReclaimInterval > 0 {
		reclaimDone = startOrphanReclaim(ctx, eng, blobStores, cfg.Server.OrphanReclaimInterval, cfg.Server.OrphanReclaimGrace)
	}

	serverErrs := make(chan error, 2)
	go func() {
		logger.Info("rpc server listening", "address", cfg.Server.ListenAddress)
		if err := rpcServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrs <- fmt.Errorf("rpc server: %w", err)
			return
		}
		serverErrs <- nil
	}()

	var adminServer *http.Server
	if cfg.Metrics.Enabled {
		adminServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: admin.NewRouter(registry, func() error { return checkKVSHealth(ctx, kv) }),
		}
		go func() {
			logger.Info("admin server listening", "port", cfg.Metrics.Port)
			if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErrs <- fmt.Errorf("admin server: %w", err)
				return
			}
			serverErrs <- nil
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("yeetboxd is running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, draining")
	case err := <-serverErrs:
		if err != nil {
			logger.Error("server error", "error", err)
		}
	}

	cancel()
	if reclaimDone != nil {
		<-reclaimDone
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := rpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("rpc server shutdown error", "error", err)
	}
	if adminServer != nil {
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("admin server shutdown error", "error", err)
		}
	}

	logger.Info("yeetboxd stopped")
	return nil
}

// checkKVSHealth opens and immediately discards a read snapshot, the
// cheapest operation that proves the store is still serving.
func checkKVSHealth(ctx context.Context, kv kvs.Store) error {
	txn, err := kv.BeginRead(ctx)
	if err != nil {
		return err
	}
	txn.Discard()
	return nil
}

func openKVS(cfg config.StorageConfig) (kvs.Store, error) {
	switch cfg.KVSDriver {
	case "badger":
		return badger.Open(cfg.DatabasePath)
	case "sql":
		return sql.Open(sql.Config{Dialect: sql.Dialect(cfg.SQLDialect), DSN: cfg.DatabasePath})
	default:
		return nil, fmt.Errorf("unknown kvs driver: %s", cfg.KVSDriver)
	}
}

func openBlobStores(ctx context.Context, cfg config.StorageConfig) (map[uint8]blobstore.Store, error) {
	localStore, err := local.Open(cfg.BlobDirectory)
	if err != nil {
		return nil, fmt.Errorf("open local blob store: %w", err)
	}
	stores := map[uint8]blobstore.Store{tierLocal: localStore}

	if cfg.S3.Enabled {
		s3Store, err := blobs3.Open(ctx, blobs3.Config{
			Bucket:         cfg.S3.Bucket,
			Region:         cfg.S3.Region,
			Endpoint:       cfg.S3.Endpoint,
			ForcePathStyle: cfg.S3.Endpoint != "",
			Prefix:         cfg.S3.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 blob store: %w", err)
		}
		stores[tierS3] = s3Store
	}

	return stores, nil
}

// startOrphanReclaim runs the orphan-blob reclamation pass on a ticker
// against every configured tier, until ctx is cancelled.
func startOrphanReclaim(ctx context.Context, eng *engine.Engine, stores map[uint8]blobstore.Store, interval, grace time.Duration) chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for tier := range stores {
					removed, err := eng.ReclaimOrphanBlobs(ctx, tier, grace)
					if err != nil {
						logger.Error("orphan reclamation failed", "tier", tier, "error", err)
						continue
					}
					if removed > 0 {
						logger.Info("orphan blobs reclaimed", "tier", tier, "removed", removed)
					}
				}
			}
		}
	}()
	return done
}
