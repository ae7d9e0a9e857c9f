// Package server assembles the application: configuration, storage,
// the service layer and the HTTP API, plus graceful shutdown on OS
// signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mvoronin/parceltrack/internal/cryptox"
	"github.com/mvoronin/parceltrack/internal/logging"
	"github.com/mvoronin/parceltrack/internal/server/config"
	"github.com/mvoronin/parceltrack/internal/server/httpapi"
	"github.com/mvoronin/parceltrack/internal/server/repositories/repomanager"
	"github.com/mvoronin/parceltrack/internal/server/services"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	repos          repomanager.RepositoryManager
	userService    *services.UserService
	packageService *services.PackageService
	proofService   *services.ProofService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	key, err := cfg.EncryptionKeyBytes()
	if err != nil {
		return nil, err
	}
	cipher, err := cryptox.New(key)
	if err != nil {
		return nil, err
	}

	rm, err := repomanager.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := services.NewUserService(rm.Users(), rm.RefreshTokens(), []byte(cfg.SecretKey),
		cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration, logger)
	ps := services.NewPackageService(rm.Packages(), rm.Audit(), rm.Users(), cipher, logger)
	prs := services.NewProofService(rm.Proofs(), rm.Packages(), cfg, logger)

	return &App{
		config:         cfg,
		logger:         logger,
		repos:          rm,
		userService:    us,
		packageService: ps,
		proofService:   prs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger,
		app.userService, app.packageService, app.proofService, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
