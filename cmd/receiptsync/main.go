package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/benx421/receiptsync/internal/config"
	"github.com/benx421/receiptsync/internal/db"
	"github.com/benx421/receiptsync/internal/messaging"
	"github.com/benx421/receiptsync/internal/provider"
	"github.com/benx421/receiptsync/internal/repository"
	"github.com/benx421/receiptsync/internal/secrets"
	"github.com/benx421/receiptsync/internal/service"
)

func main() {
	var (
		companyID  = flag.String("company", "", "company whose connection to sync (required)")
		tenantID   = flag.String("tenant", "", "provider tenant to sync (defaults to the first authorized tenant)")
		detectOnly = flag.Bool("detect-only", false, "detect and report flagged transactions without issuing links or notifications")
		disconnect = flag.Bool("disconnect", false, "revoke the company's provider connections and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	if *companyID == "" {
		logger.Error("missing required -company flag")
		flag.Usage()
		os.Exit(2)
	}

	logger.Info("starting receiptsync run",
		"company_id", *companyID,
		"tenant_id", *tenantID,
		"detect_only", *detectOnly,
		"log_level", cfg.Logger.Level,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	cipher, err := secretsCipher(cfg)
	if err != nil {
		logger.Error("failed to initialize token cipher", "error", err)
		os.Exit(1)
	}

	providerClient := provider.NewClient(&cfg.Provider, logger)

	connections := repository.NewConnectionRepository(database)

	if *disconnect {
		if err := connections.Disconnect(ctx, *companyID); err != nil {
			logger.Error("failed to disconnect company", "error", err)
			os.Exit(1)
		}
		logger.Info("company disconnected", "company_id", *companyID)
		return
	}
	uploadLinks := repository.NewUploadLinkRepository(database)
	notifyConfigs := repository.NewNotificationConfigRepository(database)

	tokens := service.NewTokenService(connections, providerClient, cipher, &cfg.Provider, logger)
	fetcher := service.NewFetchService(providerClient, tokens, &cfg.Provider, logger)
	links := service.NewUploadLinkService(uploadLinks, cfg.App.UploadBaseURL, cfg.App.LinkTTL, logger)
	notifier := service.NewNotificationService(
		messaging.NewSMSClient(&cfg.Messaging, logger),
		messaging.NewEmailClient(&cfg.Messaging, logger),
		logger,
	)
	detection := service.NewDetectionService(tokens, fetcher, links, notifier, notifyConfigs, &cfg.App, logger)

	var output any
	if *detectOnly {
		output, err = detection.Detect(ctx, *companyID, *tenantID)
	} else {
		output, err = detection.Process(ctx, *companyID, *tenantID)
	}
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		logger.Error("failed to encode run output", "error", err)
		os.Exit(1)
	}

	logger.Info("run complete")
}

// secretsCipher builds the refresh token cipher; without a configured key
// tokens are stored with the plaintext scheme.
func secretsCipher(cfg *config.Config) (*secrets.Cipher, error) {
	return secrets.NewCipher(cfg.App.EncryptionKey())
}

