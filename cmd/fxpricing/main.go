// Package main FX 期权定价服务启动入口
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"github.com/wyfcoding/fxpricing/internal/fxpricing/application"
	"github.com/wyfcoding/fxpricing/internal/fxpricing/domain"
	"github.com/wyfcoding/fxpricing/internal/fxpricing/infrastructure/messaging"
	"github.com/wyfcoding/fxpricing/internal/fxpricing/infrastructure/persistence/mysql"
	rediscache "github.com/wyfcoding/fxpricing/internal/fxpricing/infrastructure/persistence/redis"
	fxgrpc "github.com/wyfcoding/fxpricing/internal/fxpricing/interfaces/grpc"
	fxhttp "github.com/wyfcoding/fxpricing/internal/fxpricing/interfaces/http"
	"github.com/wyfcoding/fxpricing/pkg/cache"
	"github.com/wyfcoding/fxpricing/pkg/config"
	"github.com/wyfcoding/fxpricing/pkg/db"
	"github.com/wyfcoding/fxpricing/pkg/logger"
	"github.com/wyfcoding/fxpricing/pkg/metrics"
	"github.com/wyfcoding/fxpricing/pkg/middleware"
	"github.com/wyfcoding/fxpricing/pkg/mq"
	"github.com/wyfcoding/fxpricing/pkg/ratelimit"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
)

func main() {
	configPath := flag.String("config", "configs/fxpricing.toml", "config file path")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Error(context.Background(), "fxpricing exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// .env 只用于本地开发，不存在时忽略
	_ = godotenv.Load()

	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logger); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting fxpricing", "version", cfg.Version, "environment", cfg.Environment)

	m := metrics.New("fxpricing")

	// 数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		return err
	}
	defer database.Close()

	if err := mysql.AutoMigrate(database.DB); err != nil {
		return fmt.Errorf("migrate pricing results: %w", err)
	}
	if err := messaging.AutoMigrate(database.DB); err != nil {
		return fmt.Errorf("migrate outbox: %w", err)
	}

	// 缓存与限流，Redis 不可用时降级为无缓存、本地限流
	var resultCache domain.PricingCache
	var limiter ratelimit.RateLimiter = ratelimit.NewLocalRateLimiter(0)
	if cfg.Redis.Enabled {
		rc, err := cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			logger.Warn(ctx, "redis unavailable, running without result cache", "error", err)
		} else {
			defer rc.Close()
			resultCache = rediscache.NewPricingCache(rc.GetClient(), time.Duration(cfg.FXPricing.CacheTTL)*time.Second)
			limiter = ratelimit.NewRedisRateLimiter(rc.GetClient())
		}
	}

	// 应用服务
	repo := mysql.NewPricingRepository(database.DB)
	outboxManager := outbox.NewManager(database.DB, logger.Get())
	publisher := messaging.NewOutboxPublisher(database.DB, outboxManager)
	app := application.NewPricingService(repo, resultCache, publisher, m)

	// outbox 投递
	var relay *messaging.OutboxRelay
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:           cfg.Kafka.Brokers,
			MaxRetries:        cfg.Kafka.MaxRetries,
			RetryBackoff:      cfg.Kafka.RetryBackoff,
			EnableCompression: cfg.Kafka.EnableCompression,
			WriteTimeout:      cfg.Kafka.WriteTimeout,
		})
		if err != nil {
			return err
		}
		defer producer.Close()

		relay = messaging.NewOutboxRelay(database.DB, outboxManager, producer, mq.NewDeadLetterQueue(producer, cfg.FXPricing.DeadLetterTopic), m, messaging.RelayConfig{
			BatchSize:           cfg.FXPricing.RelayBatchSize,
			Interval:            time.Duration(cfg.FXPricing.RelayInterval) * time.Millisecond,
			SendRetries:         cfg.Kafka.MaxRetries,
			Retention:           time.Duration(cfg.FXPricing.OutboxRetentionDays) * 24 * time.Hour,
			MaintenanceInterval: time.Duration(cfg.FXPricing.MaintenanceInterval) * time.Second,
		})
	} else {
		logger.Warn(ctx, "no kafka brokers configured, events stay in the outbox")
	}

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		middleware.GinLoggingMiddleware(),
		middleware.GinRecoveryMiddleware(),
		middleware.GinMetricsMiddleware(m),
		middleware.GinCORSMiddleware(),
	)
	router.GET("/health", func(c *gin.Context) {
		if err := database.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "UP", "service": cfg.ServiceName, "version": cfg.Version})
	})
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	api := router.Group("", middleware.RateLimitMiddleware(limiter, cfg.RateLimit))
	fxhttp.NewPricingHandler(app).RegisterRoutes(api)

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// gRPC
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.GRPCRecoveryInterceptor(),
			middleware.GRPCLoggingInterceptor(),
			middleware.GRPCMetricsInterceptor(m),
			middleware.GRPCRateLimitInterceptor(limiter, cfg.RateLimit),
		),
		grpc.MaxConcurrentStreams(uint32(cfg.GRPC.MaxConcurrentStreams)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: time.Duration(cfg.GRPC.IdleTimeout) * time.Second,
		}),
	)
	fxgrpc.RegisterFXOptionPricingServer(grpcServer, fxgrpc.NewHandler(app))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(fxgrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)

	// 生命周期
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr())
		if err != nil {
			return fmt.Errorf("failed to listen gRPC: %w", err)
		}
		logger.Info(gctx, "starting gRPC server", "addr", cfg.GRPC.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})

	if relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutting down fxpricing")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "HTTP server shutdown failed", "error", err)
		}
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}
