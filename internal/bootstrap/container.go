package bootstrap

import (
	"context"
	"log"

	"support-chat-be/internal/config"
	"support-chat-be/internal/controller"
	"support-chat-be/internal/handler"
	"support-chat-be/internal/pkg/logger"
	"support-chat-be/internal/repository/unitofwork"
	"support-chat-be/internal/service"
	"support-chat-be/internal/websocket"
	pktNats "support-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController    controller.IChatController
	MessageController controller.IMessageController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & realtime routing
	RealtimeHandler *handler.RealtimeHandler
	WebSocketHub    *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
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
	// Keep the interface nil when the connection failed: a typed-nil
	// *Publisher would slip past the services' nil check.
	var eventPublisher service.EventPublisher
	if err == nil {
		eventPublisher = natsPub
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

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.RealtimeLogPath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	publisherService := service.NewPublisherService(pubSub, cfg.App.PushTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.PushTopic,
		uowFactory,
		wsHub,
		wsLogger,
	)

	chatService := service.NewChatService(uowFactory, eventPublisher, sysLogger)
	messageService := service.NewMessageService(uowFactory, eventPublisher, publisherService, sysLogger)

	// 3.5 Realtime routing worker: fans lifecycle events from NATS out to
	// connected participants.
	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	realtimeHandler := handler.NewRealtimeHandler(wsHub, wsLogger)

	// 4. Controllers
	return &Container{
		ChatController:    controller.NewChatController(chatService),
		MessageController: controller.NewMessageController(messageService),

		RealtimeHandler: realtimeHandler,
		WebSocketHub:    wsHub,

		ConsumerService: consumerService,
	}
}
