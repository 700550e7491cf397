package bootstrap

import (
	"context"
	"log"
	"path/filepath"

	"ml-segregation-be/internal/config"
	"ml-segregation-be/internal/controller"
	"ml-segregation-be/internal/handler"
	"ml-segregation-be/internal/pkg/logger"
	"ml-segregation-be/internal/pkg/mailer"
	"ml-segregation-be/internal/repository/memory"
	"ml-segregation-be/internal/repository/unitofwork"
	"ml-segregation-be/internal/service"
	"ml-segregation-be/internal/websocket"
	"ml-segregation-be/pkg/pipeline"
	"ml-segregation-be/pkg/pipeline/decision"
	"ml-segregation-be/pkg/pipeline/dispatch"
	"ml-segregation-be/pkg/pipeline/sets"

	pktNats "ml-segregation-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const ingestionTopic = "sessions.ingested"

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	SessionController  controller.ISessionController
	PipelineController controller.IPipelineController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	Orchestrator    *pipeline.Orchestrator

	// WebSockets & Feed
	FeedHandler  *handler.FeedHandler
	WebSocketHub *websocket.Hub

	// PlotsDir is served statically so the analyst can open rendered
	// review charts in a browser.
	PlotsDir string
}

func NewContainer(db *gorm.DB, cfg *config.Config, document *config.PipelineDocument) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/feed.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Pipeline Components
	outcomesDir := filepath.Join(cfg.Pipeline.DataDir, "outcomes")
	plotsDir := filepath.Join(cfg.Pipeline.DataDir, "plots")

	intakeGate := pipeline.NewIntakeGate(uowFactory, sysLogger)
	balancingGate := pipeline.NewBalancingGate(uowFactory, plotsDir, cfg.Pipeline.BalanceTolerance, sysLogger)
	coverageGate := pipeline.NewCoverageGate(uowFactory, plotsDir, sysLogger)

	var source decision.Source
	if cfg.Pipeline.DecisionMode == "auto" {
		source = decision.NewAutoSource(
			cfg.Pipeline.AutoSeed,
			cfg.Pipeline.AutoApproveBalancing,
			cfg.Pipeline.AutoApproveCoverage,
			sysLogger,
		)
		log.Printf("[INFO] Using Decision Source: AUTO (seed %d)", cfg.Pipeline.AutoSeed)
	} else {
		fileSource, err := decision.NewFileSource(outcomesDir, cfg.Pipeline.PollInterval, sysLogger)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize decision source: %v", err)
		}
		source = fileSource
		log.Printf("[INFO] Using Decision Source: FILE (%s)", outcomesDir)
	}

	builder, err := sets.NewBuilder(sets.Ratios{
		Train:      cfg.Pipeline.TrainRatio,
		Validation: cfg.Pipeline.ValidationRatio,
		Test:       cfg.Pipeline.TestRatio,
	})
	if err != nil {
		log.Fatalf("[FATAL] Invalid partition ratios: %v", err)
	}

	dispatcher := dispatch.NewHTTPClient(cfg.Dispatch.Timeout, sysLogger)
	reportRegistry := memory.NewReportRegistry()

	var eventPublisher pipeline.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	orchestrator := pipeline.NewOrchestrator(
		uowFactory,
		intakeGate,
		balancingGate,
		coverageGate,
		source,
		builder,
		dispatcher,
		document,
		reportRegistry,
		eventPublisher,
		sysLogger,
		pipeline.Options{
			PollInterval: cfg.Pipeline.PollInterval,
			RetryBackoff: cfg.Pipeline.RetryBackoff,
			SingleShot:   cfg.Pipeline.SingleShot,
		},
	)

	// 4. Services
	publisherService := service.NewPublisherService(ingestionTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, ingestionTopic, orchestrator, sysLogger)

	sessionService := service.NewSessionService(uowFactory, publisherService, natsPub, sysLogger)
	authService := service.NewAuthService(cfg.Auth)
	pipelineService := service.NewPipelineService(uowFactory, reportRegistry, document, outcomesDir, sysLogger)

	// 4.5 Feed Infrastructure
	notifService := service.NewNotificationService(natsSub, wsHub, emailService, cfg.Auth, cfg.SMTP, wsLogger)

	// Start Service (Worker)
	if natsSub != nil {
		go notifService.Start()
	}

	// Handler
	feedHandler := handler.NewFeedHandler(wsHub, wsLogger)

	// 5. Controllers
	return &Container{
		FeedHandler:  feedHandler,
		WebSocketHub: wsHub,

		AuthController:     controller.NewAuthController(authService),
		SessionController:  controller.NewSessionController(sessionService, document.Threshold()),
		PipelineController: controller.NewPipelineController(pipelineService, feedHandler),

		ConsumerService: consumerService,
		Orchestrator:    orchestrator,

		PlotsDir: plotsDir,
	}
}
