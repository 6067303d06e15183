package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	httpctx "github.com/clovalink/clovalink-server/internal/api/http/context"
	"github.com/clovalink/clovalink-server/internal/api/http/handler"
	"github.com/clovalink/clovalink-server/internal/api/http/middleware"
	"github.com/clovalink/clovalink-server/internal/api/http/router"
	"github.com/clovalink/clovalink-server/internal/config"
	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
	"github.com/clovalink/clovalink-server/internal/repository/postgres"
	"github.com/clovalink/clovalink-server/internal/server"
	"github.com/clovalink/clovalink-server/internal/service"
	storage "github.com/clovalink/clovalink-server/internal/storage/minio"
	"github.com/clovalink/clovalink-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	masterKey, err := cfg.DecodedMasterKey()
	if err != nil {
		logger.Fatal("failed to decode master key", "error", err)
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	employeeRepo := postgres.NewEmployeeRepository(db)
	passkeyRepo := postgres.NewPasskeyRepository(db)
	downloadLinkRepo := postgres.NewDownloadLinkRepository(db)
	uploadLinkRepo := postgres.NewUploadLinkRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	folderRepo := postgres.NewFolderRepository(db)
	activityRepo := postgres.NewActivityRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)

	storageClient, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	tokenManager := token.NewJWT(cfg.JWT.Secret)
	tokenService := service.NewTokenService(tokenManager, refreshTokenRepo, logger)

	totpService := service.NewTOTP(employeeRepo, activityRepo, cfg.Auth.TOTPIssuer, cfg.Auth.BcryptCost, logger)
	authService := service.NewAuth(employeeRepo, activityRepo, refreshTokenRepo, totpService, tokenManager, cfg.Auth.BcryptCost, logger)

	passkeyService, err := service.NewPasskey(service.PasskeyConfig{
		RPID:        cfg.WebAuthn.RPID,
		RPName:      cfg.WebAuthn.RPName,
		RPOrigins:   cfg.WebAuthn.RPOrigins,
		CeremonyTTL: time.Duration(cfg.WebAuthn.CeremonyTTL) * time.Second,
	}, passkeyRepo, employeeRepo, activityRepo, logger)
	if err != nil {
		logger.Fatal("failed to initialize passkey service", "error", err)
	}

	linkService := service.NewLink(downloadLinkRepo, uploadLinkRepo, documentRepo, folderRepo, employeeRepo, activityRepo, cfg.HTTP.BaseURL, logger)
	documentService := service.NewDocument(documentRepo, folderRepo, uploadLinkRepo, employeeRepo, activityRepo, storageClient, masterKey, logger)
	activityService := service.NewActivity(activityRepo, employeeRepo, logger)

	linkRetention := time.Duration(cfg.Maintenance.LinkRetentionDays) * 24 * time.Hour
	activityTTL := time.Duration(cfg.Maintenance.ActivityTTLDays) * 24 * time.Hour

	ctxMgr := httpctx.NewManager()

	h := router.Handlers{
		Auth:        handler.NewAuth(authService, ctxMgr, logger),
		TOTP:        handler.NewTOTP(totpService, ctxMgr, logger),
		Passkey:     handler.NewPasskey(passkeyService, authService, ctxMgr, logger),
		Link:        handler.NewLink(linkService, ctxMgr, logger),
		Document:    handler.NewDocument(documentService, linkService, ctxMgr, logger),
		Activity:    handler.NewActivity(activityService, ctxMgr, logger),
		Maintenance: handler.NewMaintenance(linkService, activityService, linkRetention, activityTTL, logger),
	}
	m := router.Middlewares{
		Logging:      middleware.NewLogging(logger),
		Authenticate: middleware.NewAuthenticate(tokenService, ctxMgr, logger),
		CronGuard:    middleware.NewCronGuard(cfg.Maintenance.CronSecret),
	}

	httpServer := server.NewHTTPServer(fmt.Sprintf(":%s", cfg.HTTP.Port), router.New(h, m), logger)

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	sweeper := service.NewSweeper(linkService, activityService,
		time.Duration(cfg.Maintenance.SweepIntervalMin)*time.Minute,
		linkRetention, activityTTL, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
