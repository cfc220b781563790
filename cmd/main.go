package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fathima-sithara/messaging-service/internal/api"
	"github.com/fathima-sithara/messaging-service/internal/auth"
	"github.com/fathima-sithara/messaging-service/internal/cache"
	"github.com/fathima-sithara/messaging-service/internal/config"
	"github.com/fathima-sithara/messaging-service/internal/repository"
	"github.com/fathima-sithara/messaging-service/internal/service"
	"github.com/fathima-sithara/messaging-service/internal/storage"
	"github.com/fathima-sithara/messaging-service/internal/utils"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := utils.NewLogger(cfg.App.Env != "production")
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mc, err := repository.NewMongoClient(ctx, cfg.Mongo.URI)
	if err != nil {
		zlog.Fatalw("mongo init", "err", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()

	db := mc.Database(cfg.Mongo.Database)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		zlog.Fatalw("mongo indexes", "err", err)
	}

	var unread *cache.UnreadCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		unread = cache.NewUnreadCache(rdb, time.Duration(cfg.Redis.UnreadTTL)*time.Second)
	}

	var blob service.BlobStore
	if cfg.AWS.Bucket != "" {
		s3store, err := storage.NewS3Store(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.Endpoint, cfg.AWS.PublicRead)
		if err != nil {
			zlog.Fatalw("s3 init", "err", err)
		}
		blob = s3store
	} else {
		zlog.Warn("no s3 bucket configured, media messages disabled")
	}

	chatRepo := repository.NewChatRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	followRepo := repository.NewFollowRepository(db)
	blockedRepo := repository.NewBlockedUserRepository(db)
	keysRepo := repository.NewUserKeysRepository(db)

	chatSvc := service.NewChatService(chatRepo, followRepo, blockedRepo, zlog)
	msgSvc := service.NewMessageService(msgRepo, chatRepo, blockedRepo, keysRepo, blob, unread, zlog)
	followSvc := service.NewFollowService(followRepo, blockedRepo, zlog)
	keysSvc := service.NewKeysService(keysRepo, zlog)

	jv := auth.NewJWTValidator(cfg.JWT.Secret)
	h := api.NewHandlers(chatSvc, msgSvc, followSvc, keysSvc, zlog)
	app := api.NewServer(h, jv)

	addr := ":" + strconv.Itoa(cfg.App.Port)
	go func() {
		if err := app.Listen(addr); err != nil {
			zlog.Fatalw("server listen", "err", err)
		}
	}()
	zlog.Infow("messaging-service started", "addr", addr, "env", cfg.App.Env)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	_ = app.ShutdownWithContext(shutdownCtx)
	zlog.Info("messaging-service stopped")
}
