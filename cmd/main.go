package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"comments-service/internal/dao"
	"comments-service/internal/handler"
	"comments-service/internal/model"
	"comments-service/internal/service"
	"comments-service/pkg/config"
	"comments-service/pkg/database"
	"comments-service/pkg/kafka"
	"comments-service/pkg/logger"
	"comments-service/pkg/middleware"
	"comments-service/pkg/redis"
	"comments-service/pkg/snowflake"
	"comments-service/pkg/telemetry"
)

func main() {
	configPath := flag.String("config", "", "config directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.App.LogLevel)
	if err != nil {
		panic(err)
	}
	ctx := context.Background()

	if err := snowflake.InitGlobalSnowflake(cfg.App.MachineID); err != nil {
		log.Fatal(ctx, "Failed to init snowflake", logger.F("error", err.Error()))
	}

	var tp *telemetry.Provider
	if cfg.Telemetry.Enabled {
		tp, err = telemetry.NewProvider(&telemetry.Config{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			SampleRate:     cfg.Telemetry.SampleRate,
		})
		if err != nil {
			log.Fatal(ctx, "Failed to init telemetry", logger.F("error", err.Error()))
		}
	}

	connMaxLifetime, _ := time.ParseDuration(cfg.Postgres.ConnMaxLifetime)
	db, err := database.NewPostgreSQL(cfg.Postgres.DSN, database.PostgresOptions{
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		ConnMaxLifetime: connMaxLifetime,
	})
	if err != nil {
		log.Fatal(ctx, "Failed to connect to PostgreSQL", logger.F("error", err.Error()))
	}
	defer db.Close()

	if err := db.AutoMigrate(&model.Comment{}, &model.Attachment{}); err != nil {
		log.Fatal(ctx, "Failed to migrate database", logger.F("error", err.Error()))
	}

	redisClient, err := redis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal(ctx, "Failed to connect to Redis", logger.F("error", err.Error()))
	}
	defer redisClient.Close()

	esClient, err := database.NewElasticSearch(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Username, cfg.Elasticsearch.Password)
	if err != nil {
		log.Fatal(ctx, "Failed to connect to Elasticsearch", logger.F("error", err.Error()))
	}

	producer, err := kafka.InitProducer(cfg.Kafka.Brokers, log)
	if err != nil {
		log.Fatal(ctx, "Failed to init Kafka producer", logger.F("error", err.Error()))
	}
	defer producer.Close()

	storage, err := service.NewStorageService(cfg.Uploads.Dir)
	if err != nil {
		log.Fatal(ctx, "Failed to init file storage", logger.F("error", err.Error()))
	}

	commentDAO := dao.NewCommentDAO(db)
	searchDAO := dao.NewSearchDAO(esClient)

	publisher := service.NewEventPublisher(producer, cfg.Kafka.Topic, log)
	cache := service.NewCacheService(redisClient)
	index := service.NewIndexService(searchDAO, commentDAO, log)
	captcha := service.NewCaptchaService(redisClient)
	hub := service.NewHub(log)
	svc := service.NewCommentService(commentDAO, publisher, cache, index, captcha, storage, cfg.Cache.TTL, log)

	consumer, err := kafka.InitConsumer(kafka.KafkaConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.GroupID,
		Topics:  []string{cfg.Kafka.Topic},
	}, service.NewEventConsumer(index, hub, cfg.Kafka.ConsumerRetries, log), log)
	if err != nil {
		log.Fatal(ctx, "Failed to init Kafka consumer", logger.F("error", err.Error()))
	}

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	go func() {
		if err := consumer.StartConsuming(consumerCtx); err != nil {
			log.Error(ctx, "Kafka consumer stopped", logger.F("error", err.Error()))
		}
	}()

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS())
	r.Use(middleware.RequestLogging(log))
	if cfg.Telemetry.Enabled {
		r.Use(otelgin.Middleware(cfg.App.Name))
	}

	auth := middleware.NewAuthMiddleware(log, cfg.App.JWTSecret)
	h := handler.NewHTTPHandler(svc, index, captcha, hub, log)
	h.RegisterRoutes(r, auth)

	serverTimeout, _ := time.ParseDuration(cfg.Server.Timeout)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: serverTimeout,
	}

	go func() {
		log.Info(ctx, "HTTP server starting", logger.F("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(ctx, "HTTP server failed", logger.F("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info(ctx, "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "HTTP server shutdown failed", logger.F("error", err.Error()))
	}

	stopConsumer()
	if err := consumer.Close(); err != nil {
		log.Error(ctx, "Kafka consumer close failed", logger.F("error", err.Error()))
	}

	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "Telemetry shutdown failed", logger.F("error", err.Error()))
		}
	}
	log.Info(ctx, "Server exited")
}
