package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"lyricmirror/internal/config"
	"lyricmirror/internal/logger"
	"lyricmirror/internal/lyrics"
	"lyricmirror/internal/repository/sqlite"
	"lyricmirror/internal/route"
	"lyricmirror/internal/service/ai"
	"lyricmirror/internal/service/camera"
	"lyricmirror/internal/service/driver"
	"lyricmirror/internal/service/storage"
	"lyricmirror/internal/service/websocket"
	"lyricmirror/internal/tracker"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config         *config.Config
	logger         *logger.Logger
	db             *sqlite.DB
	historyService *storage.HistoryService
	hubService     *websocket.HubService
	cameraService  *camera.Service
	detector       *ai.DetectorService
	driver         *driver.Driver
	server         *http.Server
	cameraDone     chan struct{}
}

// NewApp wires every service from the environment configuration.
func NewApp() (*App, error) {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	catalog, err := lyrics.Load(cfg.LyricsPath)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to load lyrics: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, err
	}
	assignmentRepo := sqlite.NewAssignmentRepository(db)

	history := storage.NewHistoryService(cfg, log, assignmentRepo)
	hub := websocket.NewHubService(log)
	cam := camera.NewService(cfg, log)
	detector := ai.NewDetectorService(cfg, log)

	trk := tracker.New(trackerConfig(cfg), lyrics.NewAssigner(catalog, nil), nil)

	drv := driver.New(driver.Options{
		Interval:  cfg.PollInterval,
		Mirror:    cfg.Mirror,
		Source:    cam,
		Detector:  detector,
		Tracker:   trk,
		Publisher: hub,
		Recorder:  history,
		Logger:    log,
	})

	router := route.SetupRoutes(cfg, log, hub, drv, assignmentRepo)

	return &App{
		config:         cfg,
		logger:         log,
		db:             db,
		historyService: history,
		hubService:     hub,
		cameraService:  cam,
		detector:       detector,
		driver:         drv,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: router,
		},
	}, nil
}

// trackerConfig picks the tracking constants for the configured mode.
func trackerConfig(cfg *config.Config) tracker.Config {
	if cfg.SingleFace {
		tc := tracker.SingleFaceConfig()
		tc.BoxPadding = cfg.BoxPadding
		return tc
	}
	return tracker.Config{
		MatchRadius:       cfg.MatchRadius,
		ReassignThreshold: cfg.ReassignThreshold,
		MaxFaces:          cfg.MaxFaces,
		BoxPadding:        cfg.BoxPadding,
	}
}

// Run starts the background services and serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	// background services stop on any return, not only on ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.cameraService.Open(); err != nil {
		return err
	}

	go a.historyService.Run(ctx, a.config.HistoryFlushInterval)
	go a.hubService.Run(ctx)

	a.cameraDone = make(chan struct{})
	go func() {
		defer close(a.cameraDone)
		a.cameraService.Run(ctx, a.hubService.BroadcastFrame)
	}()

	a.driver.Start(ctx)

	a.logger.Info("🎤 Lyric Mirror")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("🤖 Face model: %s", a.config.ModelPath)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}

func (a *App) close() {
	a.driver.Stop()
	// the capture must not be released while a read is in progress
	if a.cameraDone != nil {
		<-a.cameraDone
	}
	a.historyService.Flush()
	a.detector.Close()
	if err := a.cameraService.Close(); err != nil {
		a.logger.Warning("Failed to close camera: %v", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warning("Failed to close database: %v", err)
	}
	a.logger.Close()
}
