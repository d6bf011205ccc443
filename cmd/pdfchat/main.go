package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"pdfchat/internal/ai"
	"pdfchat/internal/config"
	"pdfchat/internal/filestore"
	"pdfchat/internal/handler"
	"pdfchat/internal/ingest"
	"pdfchat/internal/job"
	"pdfchat/internal/schedule"
	"pdfchat/internal/service"
	"pdfchat/internal/vectorstore"
)

const stagingSweepSpec = "0 * * * *"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "pdfchat",
		Short: "pdf question answering server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run pdfchat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			_ = godotenv.Load()
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg.ApplyEnv()
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("file_store", cfg.FileStore.Type),
	)

	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	chatModel := ai.NewChatModel(provider, cfg.AI.ChatModel)
	embedder := ai.NewEmbedder(provider, cfg.AI.EmbedModel)

	store, err := vectorstore.New(cfg.VectorStore.Type, vectorstore.Config{
		Collection: cfg.VectorStore.Collection,
		Dimension:  cfg.VectorStore.Dimension,
		Data:       cfg.VectorStore.Data,
	})
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("prepare vector store: %w", err)
	}
	retriever := vectorstore.NewRetriever(store, cfg.Retrieval.TopK, cfg.Retrieval.FetchK, cfg.Retrieval.MMRLambda)

	archive, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	ingestService := ingest.NewService(embedder, store, archive, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap, cfg.Ingest.StagingDir)
	history := service.NewChatHistory()
	chatService := service.NewChatService(chatModel, embedder, retriever, history, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)

	scheduler := schedule.NewCronScheduler()
	cleanup := job.NewStagingCleanupJob(cfg.Ingest.StagingDir, time.Duration(cfg.Ingest.StagingTTLHours)*time.Hour)
	if err := scheduler.AddJob(cleanup, stagingSweepSpec); err != nil {
		return fmt.Errorf("schedule staging cleanup: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := handler.NewRouter(handler.RouterDeps{
		Documents: handler.NewDocumentHandler(ingestService, 32*1024*1024),
		Chat:      handler.NewChatHandler(chatService, history),
		AskWindow: time.Second,
	})

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logutil.GetLogger(context.Background()).Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
