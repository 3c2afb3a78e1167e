package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/config"
	"github.com/ziadkadry99/caseshelf/internal/db"
	"github.com/ziadkadry99/caseshelf/internal/server"
	"github.com/ziadkadry99/caseshelf/internal/watch"
)

var (
	servePort  int
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the case library web server",
	Long: `Starts the caseshelf HTTP server. Each browser gets its own viewer with
persistent bookmarks; navigation events travel over a websocket. With
--watch the manifest is reloaded whenever it changes on disk.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the manifest when it changes (dir sources only)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if serveWatch {
		cfg.Server.Watch = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	dbPath := filepath.Join(cfg.DataDir, "caseshelf.db")
	database, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// A manifest failure is rendered by the server, not fatal.
	session, _ := openSession(ctx, cfg)
	startSearch(ctx, cfg, session)

	srvCfg := server.Config{Port: cfg.Server.Port, AllowAll: cfg.Server.AllowAll}
	if cfg.Source.Kind == config.SourceDir || cfg.Source.Kind == "" {
		srvCfg.AssetsDir = cfg.Source.Root
		srvCfg.Assets = cfg.Build.Assets
		srvCfg.Exclude = cfg.Build.Exclude
		srvCfg.DenyDirs = []string{cfg.DataDir}
	}
	srv := server.New(srvCfg, database, session, logger)

	if cfg.Server.Watch {
		w, err := newManifestWatcher(cfg, srv)
		if err != nil {
			return err
		}
		if w != nil {
			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer w.Stop()
		}
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("caseshelf server starting",
		zap.String("version", Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("database", dbPath),
		zap.String("source", cfg.Source.Root),
		zap.Bool("watch", cfg.Server.Watch),
	)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newManifestWatcher reloads the session whenever the manifest file
// changes. Remote sources cannot be watched and yield nil.
func newManifestWatcher(cfg *config.Config, srv *server.Server) (*watch.Watcher, error) {
	if cfg.Source.Kind == config.SourceHTTP {
		logger.Warn("watch ignored for http sources")
		return nil, nil
	}
	path := filepath.Join(cfg.Source.Root, cfg.Source.Manifest)
	return watch.New(path, func(ctx context.Context) error {
		session, err := openSession(ctx, cfg)
		if err != nil {
			// Keep serving the last good manifest.
			return err
		}
		startSearch(ctx, cfg, session)
		srv.SetSession(session)
		logger.Info("manifest reloaded", zap.Int("cases", session.Manifest.Len()))
		return nil
	}, logger)
}
