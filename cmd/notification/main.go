package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mortgagecore/platform/internal/notification/application"
	notificationdomain "github.com/mortgagecore/platform/internal/notification/domain"
	"github.com/mortgagecore/platform/internal/notification/infrastructure/persistence/mysql"
	"github.com/mortgagecore/platform/internal/notification/infrastructure/sender"
	"github.com/mortgagecore/platform/internal/notification/interfaces/consumer"
	notificationhttp "github.com/mortgagecore/platform/internal/notification/interfaces/http"
	onboardingdomain "github.com/mortgagecore/platform/internal/onboarding/domain"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

var configPath = flag.String("config", "configs/notification/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 配置
	var cfg config.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 日志
	logCfg := &logging.Config{Service: cfg.Server.Name, Level: cfg.Log.Level}
	logger := logging.NewFromConfig(logCfg)
	slog.SetDefault(logger.Logger)

	// 3. 指标
	metricsImpl := metrics.NewMetrics(cfg.Server.Name)

	// 4. 数据库
	db, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	if cfg.Server.Environment == "dev" {
		if err := db.RawDB().AutoMigrate(&notificationdomain.Notification{}); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// 5. 业务组件
	repo := mysql.NewNotificationRepository(db.RawDB())
	emailSender := sender.NewMockEmailSender()
	appService := application.NewNotificationService(repo, emailSender)
	eventHandler := consumer.NewOnboardingEventHandler(appService, logger.Logger)

	// 6. 事件消费：每个入驻事件主题一个消费者
	topics := []string{
		onboardingdomain.OnboardingStartedEventType,
		onboardingdomain.OnboardingPhaseCompletedEventType,
		onboardingdomain.OnboardingCompletedEventType,
		onboardingdomain.OnboardingRejectedEventType,
		onboardingdomain.OnboardingReassignedEventType,
		onboardingdomain.OnboardingChangesRequestedEventType,
	}
	for _, topic := range topics {
		consumerCfg := cfg.MessageQueue.Kafka
		consumerCfg.Topic = topic
		if consumerCfg.GroupID == "" {
			consumerCfg.GroupID = "notification-onboarding-group"
		}
		kafkaConsumer := kafka.NewConsumer(&consumerCfg, logger, metricsImpl)
		kafkaConsumer.Start(context.Background(), 3, eventHandler.Handle)
	}

	// 7. 接口层
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	notificationhttp.NewNotificationHandler(appService).RegisterRoutes(r)

	// 8. 启动
	g, ctx := errgroup.WithContext(context.Background())

	addr := fmt.Sprintf(":%d", cfg.Server.HTTP.Port)
	server := &http.Server{Addr: addr, Handler: r}
	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
