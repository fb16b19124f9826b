package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"chatbot-dashboard/handler"
	"chatbot-dashboard/internal/integrations/paramstore"
	"chatbot-dashboard/internal/integrations/threadsvc"
	"chatbot-dashboard/internal/repository"
	"chatbot-dashboard/internal/selection"
	"chatbot-dashboard/internal/usecase"
)

func main() {
	ctx := context.Background()

	// Local runs may keep their settings in .env; Lambda never has one.
	_ = godotenv.Load(".env")

	// ---- Configuration (read only here) ----
	stateTable := mustEnv("STATE_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	threadServiceURL := mustEnv("THREAD_SERVICE_URL")
	defaultPageSize := envInt("DEFAULT_PAGE_SIZE", usecase.DefaultPageSize)
	maxPageSize := envInt("MAX_PAGE_SIZE", usecase.DefaultMaxPage)
	threadServiceRPS := envFloat("THREAD_SERVICE_RPS", 0)
	localAddr := os.Getenv("LOCAL_ADDR")

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	stateClient, err := repository.New(awsdynamodb.NewFromConfig(cfg), stateTable)
	if err != nil {
		slog.Error("failed to create state client", "err", err)
		os.Exit(1)
	}
	threadClient, err := threadsvc.NewClient(threadServiceURL, ssmClient, paramPrefix,
		threadsvc.WithRateLimit(threadServiceRPS, 1),
	)
	if err != nil {
		slog.Error("failed to create thread service client", "err", err)
		os.Exit(1)
	}

	registry, err := selection.NewRegistry(func(operatorID string) selection.Persister {
		return stateClient.PreferencesFor(operatorID)
	})
	if err != nil {
		slog.Error("failed to create selection registry", "err", err)
		os.Exit(1)
	}

	// ---- Services ----
	selectionService, err := usecase.NewSelectionService(registry, stateClient)
	if err != nil {
		slog.Error("failed to create selection service", "err", err)
		os.Exit(1)
	}
	messagesService, err := usecase.NewMessagesService(threadClient, selectionService, stateClient, defaultPageSize, maxPageSize)
	if err != nil {
		slog.Error("failed to create messages service", "err", err)
		os.Exit(1)
	}
	botService, err := usecase.NewBotService(stateClient, selectionService)
	if err != nil {
		slog.Error("failed to create bot service", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(messagesService, botService, selectionService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	if localAddr == "" {
		lambda.Start(h.Handle)
		return
	}

	srv := &http.Server{
		Addr:              localAddr,
		Handler:           handler.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("serving locally", "addr", localAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("local server stopped", "err", err)
		os.Exit(1)
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
