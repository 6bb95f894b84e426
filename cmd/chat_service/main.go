package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"realtime_chat_service/internal/chat/app"
	"realtime_chat_service/internal/chat/repository"
	"realtime_chat_service/internal/chat/router"
	"realtime_chat_service/pkg/config"
	"realtime_chat_service/pkg/database"
	"realtime_chat_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)

	ctx := context.Background()
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.Mongo.User, cfg.Mongo.Password, cfg.Mongo.Host, cfg.Mongo.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.Mongo.RetryCount,
			RetryInterval: time.Duration(cfg.Mongo.RetryInterval),
		},
		cfg.Mongo.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s]", uri)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	// kafka journals every broadcast for offline consumers; the service
	// still runs without it
	journal, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		logger.Log.Warn(fmt.Sprintf("kafka journal unavailable : %v", err))
		journal = nil
	} else {
		defer journal.Close()
	}

	storage, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:      cfg.MinIO.Endpoint,
		User:          cfg.MinIO.User,
		Password:      cfg.MinIO.Password,
		BucketName:    cfg.MinIO.Bucket,
		UseSSL:        cfg.MinIO.UseSSL,
		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: time.Duration(cfg.MinIO.RetryInterval),
	})
	if err != nil {
		logger.Log.Warn(fmt.Sprintf("minio unavailable, icon upload disabled : %v", err))
		storage = nil
	}

	chatRepo := repository.NewMongoChatRepository(mongo.Database)
	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	userRepo := repository.NewMongoUserRepository(mongo.Database)
	broadcaster := repository.NewRedisBroadcaster(redisClient, journal)

	assembler := app.NewViewAssembler(userRepo, msgRepo)
	chatUC := app.NewChatUseCase(chatRepo, userRepo, assembler)
	messageUC := app.NewMessageUseCase(chatRepo, msgRepo, assembler, broadcaster)
	groupUC := app.NewGroupUseCase(chatRepo, msgRepo, userRepo, assembler, broadcaster)

	dedupTTL := time.Duration(cfg.DedupTTL) * time.Minute
	if dedupTTL <= 0 {
		dedupTTL = 10 * time.Minute
	}
	dedup := app.NewDedupFilter(dedupTTL)
	dedup.Start(ctx)

	presence := app.NewPresenceRegistry(broadcaster, messageUC)

	wsHandler := app.NewChatWebsocketHandler(presence, messageUC, dedup, broadcaster, broadcaster)
	chatHandler := app.NewChatHandler(chatUC, groupUC, messageUC, storage)

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, chatHandler, wsHandler)

	port := ":" + cfg.Port
	log.Printf("Chat Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
