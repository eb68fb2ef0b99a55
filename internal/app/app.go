package app

import (
	"fmt"
	"net/http"

	"github.com/ajmckee/fpl-assistant/external/fplapi"
	"github.com/ajmckee/fpl-assistant/external/gemini"
	"github.com/ajmckee/fpl-assistant/internal/config"
	"github.com/ajmckee/fpl-assistant/internal/infrastructure/repository/sqlite"
	"github.com/ajmckee/fpl-assistant/internal/interfaces/httpapi"
	"github.com/ajmckee/fpl-assistant/internal/platform/logging"
	"github.com/ajmckee/fpl-assistant/internal/platform/resilience"
	"github.com/ajmckee/fpl-assistant/internal/usecase"
)

// Application bundles the HTTP server with the long-lived components that
// need an orderly shutdown.
type Application struct {
	Server    *http.Server
	Snapshots *usecase.SnapshotService

	closers []func() error
}

func New(cfg config.Config, logger *logging.Logger) (*Application, error) {
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	fplClient := fplapi.NewClient(fplapi.ClientConfig{
		BaseURL:    cfg.FPLBaseURL,
		Timeout:    cfg.FPLTimeout,
		MaxRetries: cfg.FPLMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FPLCircuitEnabled,
			FailureThreshold: cfg.FPLCircuitFailureCount,
			OpenTimeout:      cfg.FPLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenMaxReq,
		},
	})

	geminiClient := gemini.NewClient(gemini.ClientConfig{
		BaseURL: cfg.GeminiBaseURL,
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.GeminiTimeout,
		Logger:  logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.GeminiCircuitEnabled,
			FailureThreshold: cfg.GeminiCircuitFailureCount,
			OpenTimeout:      cfg.GeminiCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.GeminiCircuitHalfOpenMaxReq,
		},
	})

	app := &Application{}

	var historyRepo *sqlite.HistoryRepository
	if cfg.HistoryDBPath != "" {
		db, err := sqlite.Open(cfg.HistoryDBPath)
		if err != nil {
			return nil, fmt.Errorf("open history db: %w", err)
		}
		app.closers = append(app.closers, db.Close)
		historyRepo = sqlite.NewHistoryRepository(db)
		logger.Info("history store enabled", "path", cfg.HistoryDBPath)
	} else {
		logger.Info("history store disabled", "reason", "HISTORY_DB_PATH empty")
	}

	snapshots := usecase.NewSnapshotService(usecase.SnapshotServiceConfig{
		Fetcher:         fplClient,
		Logger:          logger,
		TTL:             cfg.SnapshotTTL,
		RefreshInterval: cfg.SnapshotRefreshInterval,
	})
	app.Snapshots = snapshots

	chatCfg := usecase.ChatServiceConfig{
		Snapshots: snapshots,
		Generator: geminiClient,
		Managers:  fplClient,
		Logger:    logger,
	}
	if historyRepo != nil {
		chatCfg.History = historyRepo
	}

	handler := httpapi.NewHandler(
		usecase.NewChatService(chatCfg),
		usecase.NewChipService(snapshots, logger),
		usecase.NewInjuryService(snapshots, logger),
		usecase.NewTeamService(snapshots, logger),
		snapshots,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return app, nil
}

// Close releases resources opened by New. The HTTP server and the snapshot
// refresher are stopped by the caller before this runs.
func (a *Application) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
