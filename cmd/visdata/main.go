package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/visdata-app/visdata/internal/ai"
	"github.com/visdata-app/visdata/internal/chat"
	"github.com/visdata-app/visdata/internal/config"
	"github.com/visdata-app/visdata/internal/db"
	"github.com/visdata-app/visdata/internal/filestore"
	"github.com/visdata-app/visdata/internal/handler"
	"github.com/visdata-app/visdata/internal/job"
	"github.com/visdata-app/visdata/internal/middleware"
	"github.com/visdata-app/visdata/internal/pkg/token"
	"github.com/visdata-app/visdata/internal/repo"
	"github.com/visdata-app/visdata/internal/schedule"
	"github.com/visdata-app/visdata/internal/service"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "visdata",
		Short: "visdata backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run visdata server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	rootCmd.AddCommand(runCmd)
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	issuer, err := token.NewIssuer([]byte(cfg.JWTSecret), cfg.JWTAlg)
	if err != nil {
		return fmt.Errorf("init token issuer: %w", err)
	}
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	aiProvider, err := ai.NewProvider(cfg.AI.Provider, map[string]interface{}{
		"api_key":  cfg.AI.APIKey,
		"base_url": cfg.AI.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}

	userRepo := repo.NewUserRepo(conn)
	fileRepo := repo.NewFileRepo(conn)

	sessions := chat.NewStore(cfg.Chat.MaxSessions, cfg.Chat.MaxMessages, time.Duration(cfg.Chat.SessionTTLMin)*time.Minute)
	authService := service.NewAuthService(userRepo, issuer, time.Duration(cfg.TokenTTLMin)*time.Minute)
	datasetService := service.NewDatasetService(fileRepo, store)
	chartService := service.NewChartService(
		datasetService,
		aiProvider,
		sessions,
		cfg.AI.Model,
		cfg.AI.AnalyzeModel,
		time.Duration(cfg.AI.TimeoutSec)*time.Second,
		cfg.Chat.ContextWindow,
	)

	deps := handler.RouterDeps{
		Auth:            handler.NewAuthHandler(authService),
		Users:           handler.NewUserHandler(authService),
		Files:           handler.NewFileHandler(datasetService, cfg.MaxUpload),
		Visualize:       handler.NewVisualizeHandler(datasetService),
		AI:              handler.NewAIHandler(chartService),
		Resolver:        authService,
		LoginRateWindow: time.Second,
	}

	engine, err := webapi.NewEngine(
		"/",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	_ = scheduler.AddJob(job.NewUploadSweepJob(fileRepo, store, time.Duration(cfg.Cleanup.UploadMaxAge)*time.Hour), cfg.Cleanup.Schedule)
	_ = scheduler.AddJob(job.NewChatStatsJob(sessions), cfg.Cleanup.Schedule)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
