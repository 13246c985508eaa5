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
	onboardingapp "github.com/mortgagecore/platform/internal/onboarding/application"
	onboardingdomain "github.com/mortgagecore/platform/internal/onboarding/domain"
	"github.com/mortgagecore/platform/internal/onboarding/infrastructure/messaging"
	onboardingmysql "github.com/mortgagecore/platform/internal/onboarding/infrastructure/persistence/mysql"
	onboardinghttp "github.com/mortgagecore/platform/internal/onboarding/interfaces/http"
	orgapp "github.com/mortgagecore/platform/internal/organization/application"
	orgdomain "github.com/mortgagecore/platform/internal/organization/domain"
	orgmysql "github.com/mortgagecore/platform/internal/organization/infrastructure/persistence/mysql"
	orghttp "github.com/mortgagecore/platform/internal/organization/interfaces/http"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

var configPath = flag.String("config", "configs/onboarding/config.toml", "config file path")

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
		if err := db.RawDB().AutoMigrate(
			&onboardingdomain.FlowTemplate{},
			&onboardingdomain.FlowPhaseTemplate{},
			&onboardingdomain.QuestionnairePlan{},
			&onboardingdomain.PlanQuestion{},
			&onboardingdomain.DocumentationPlan{},
			&onboardingdomain.PlanDocumentDefinition{},
			&onboardingdomain.PlanApprovalStage{},
			&onboardingdomain.GatePlan{},
			&onboardingdomain.OrganizationOnboarding{},
			&onboardingdomain.Phase{},
			&onboardingdomain.QuestionnairePhase{},
			&onboardingdomain.QuestionnaireField{},
			&onboardingdomain.DocumentationPhase{},
			&onboardingdomain.ApprovalStageProgress{},
			&onboardingdomain.GatePhase{},
			&onboardingdomain.GateReview{},
			&orgdomain.Organization{},
			&orgdomain.Membership{},
			&outbox.Message{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// 5. Kafka & Outbox
	kafkaProducer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, metricsImpl)
	outboxMgr := outbox.NewManager(db.RawDB(), logger.Logger)
	pusher := func(ctx context.Context, topic, key string, payload []byte) error {
		return kafkaProducer.PublishToTopic(ctx, topic, []byte(key), payload)
	}
	outboxProcessor := outbox.NewProcessor(outboxMgr, pusher, 100, 2*time.Second)

	// 6. 仓储
	onboardingRepo := onboardingmysql.NewOnboardingRepository(db.RawDB())
	templateRepo := onboardingmysql.NewTemplateRepository(db.RawDB())
	orgRepo := orgmysql.NewOrganizationRepository(db.RawDB())
	publisher := messaging.NewOutboxPublisher(outboxMgr)

	// 7. 应用服务
	orgService := orgapp.NewOrganizationService(orgRepo)
	commandSvc := onboardingapp.NewOnboardingCommandService(onboardingRepo, templateRepo, orgService, publisher)
	querySvc := onboardingapp.NewOnboardingQueryService(onboardingRepo)
	templateCommandSvc := onboardingapp.NewTemplateCommandService(templateRepo)
	templateQuerySvc := onboardingapp.NewTemplateQueryService(templateRepo)

	// 8. 接口层
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	onboardinghttp.NewOnboardingHandler(commandSvc, querySvc).RegisterRoutes(r)
	onboardinghttp.NewTemplateHandler(templateCommandSvc, templateQuerySvc).RegisterRoutes(r)
	orghttp.NewOrganizationHandler(orgService).RegisterRoutes(r)

	// 9. 启动
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		outboxProcessor.Start()
		<-ctx.Done()
		outboxProcessor.Stop()
		return nil
	})

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
