package bootstrap

import (
	"context"
	"log"
	"time"

	"legal-assist-be/internal/config"
	"legal-assist-be/internal/controller"
	"legal-assist-be/internal/pkg/logger"
	"legal-assist-be/internal/repository/contract"
	"legal-assist-be/internal/repository/implementation"
	"legal-assist-be/internal/repository/memory"
	"legal-assist-be/internal/service"
	"legal-assist-be/internal/websocket"
	"legal-assist-be/pkg/answer"
	"legal-assist-be/pkg/regulation"
	"legal-assist-be/pkg/stream"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	ChatController       controller.IChatController
	RegulationController controller.IRegulationController

	// Background Services (Exposed for main.go to run)
	StreamConsumerService service.IStreamConsumerService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
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

	// Conversation storage backend
	var conversationRepo contract.IConversationRepository
	if cfg.Storage.Backend == "redis" {
		conversationRepo = implementation.NewRedisConversationRepository(rdb)
		log.Printf("[INFO] Using Conversation Storage: REDIS")
	} else {
		conversationRepo = memory.NewConversationRepository(cfg.Storage.Retention)
		log.Printf("[INFO] Using Conversation Storage: MEMORY")
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.StreamLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. External Clients
	answerClient := answer.NewClient(cfg.Answer.BaseURL, cfg.Answer.APIKey)
	regulationClient := regulation.NewClient(cfg.Answer.BaseURL, cfg.Answer.APIKey)

	// 4. Services
	policy := service.DefaultGroupingPolicy()
	if loc, err := time.LoadLocation(cfg.Chat.GroupingTimezone); err != nil {
		log.Printf("[WARN] Unknown grouping timezone %q: %v. Using local time", cfg.Chat.GroupingTimezone, err)
	} else {
		policy.Location = loc
	}

	conversationService := service.NewConversationService(conversationRepo, policy)

	streamManager := stream.NewManager(pubSub, sysLogger, cfg.Answer.StreamTimeout)

	chatService := service.NewChatService(
		conversationService,
		streamManager,
		answerClient,
		sysLogger,
	)

	streamConsumerService := service.NewStreamConsumerService(
		pubSub,
		conversationService,
		wsHub, // Hub implements StreamDelivery
		sysLogger,
	)

	// 5. Controllers
	// Note: We return the container with public fields for the server to register
	return &Container{
		WebSocketHub:         wsHub,
		ChatController:       controller.NewChatController(chatService, conversationService, wsHub),
		RegulationController: controller.NewRegulationController(regulationClient),

		StreamConsumerService: streamConsumerService,
	}
}
