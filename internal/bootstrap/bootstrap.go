// Package bootstrap provides dependency initialization for the silence
// remover service.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/gaurab-pandey/video-silence-remover/internal/analysis"
	"github.com/gaurab-pandey/video-silence-remover/internal/config"
	"github.com/gaurab-pandey/video-silence-remover/internal/export"
	"github.com/gaurab-pandey/video-silence-remover/internal/media"
	"github.com/gaurab-pandey/video-silence-remover/internal/session"
	"github.com/gaurab-pandey/video-silence-remover/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Session *session.Session
}

// NewDependencies creates and initializes all dependencies for the
// application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	toolchain := media.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath)
	driver := export.NewDriver(toolchain, logger)

	silenceCfg := analysis.DefaultSilenceConfig()
	silenceCfg.ThresholdDB = cfg.SilenceThresholdDB
	silenceCfg.MinSilenceDuration = cfg.MinSilenceDuration

	sess := session.New(toolchain, driver, store, silenceCfg, logger)

	return &Dependencies{Session: sess}, nil
}

// initStorage creates the appropriate storage backend based on
// configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}
