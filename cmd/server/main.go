package main // Entry point for the reservation server

import (
    "log"
    "os"
    "os/signal"
    "syscall"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/sahararesort/reservation/internal/config"
    "github.com/sahararesort/reservation/internal/handler"
    "github.com/sahararesort/reservation/internal/middleware"
    "github.com/sahararesort/reservation/internal/observability"
    "github.com/sahararesort/reservation/internal/queue"
    "github.com/sahararesort/reservation/internal/repository"
    "github.com/sahararesort/reservation/internal/router"
    "github.com/sahararesort/reservation/internal/server"
    "github.com/sahararesort/reservation/internal/store"
)

func main() {
    cfg := config.Load()

    logger, err := observability.NewLogger(cfg.LogLevel)
    if err != nil {
        log.Fatalf("build logger: %v", err)
    }
    defer func() { _ = logger.Sync() }()

    if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
        logger.Fatal("create data dir", zap.String("dir", cfg.DataDir), zap.Error(err))
    }

    userRepo := repository.NewUserRepo(cfg.UsersFile())
    resRepo := repository.NewReservationRepo(cfg.ReservationsFile())

    st, err := store.New(userRepo, resRepo, logger)
    if err != nil {
        logger.Fatal("load store", zap.Error(err))
    }

    pub := queue.NewPublisher(cfg.RabbitURL, logger)
    if pub.Enabled() {
        // The audit consumer tails our own queues into data/audit.log.
        go queue.StartAuditConsumer(cfg.RabbitURL, cfg.DataDir, logger)
    }

    var rdb *redis.Client
    if cfg.RedisAddr != "" {
        rdb = redis.NewClient(&redis.Options{
            Addr:     cfg.RedisAddr,
            Password: cfg.RedisPassword,
            DB:       cfg.RedisDB,
        })
        logger.Info("connection rate limiting enabled", zap.String("redis", cfg.RedisAddr))
    }
    limiter := middleware.NewConnLimiter(cfg.RateLimit, rdb, logger)

    disp := handler.New(st, pub, logger)
    srv := server.New(cfg.Addr, disp, limiter, cfg.MaxConns, logger)

    var ops *echo.Echo
    if cfg.OpsAddr != "" {
        ops = echo.New()
        ops.HideBanner = true
        router.RegisterRoutes(ops, handler.NewOps(st))
        go func() {
            if err := ops.Start(cfg.OpsAddr); err != nil {
                logger.Warn("ops server stopped", zap.Error(err))
            }
        }()
    }

    go func() {
        if err := srv.ListenAndServe(); err != nil {
            logger.Fatal("protocol server failed", zap.Error(err))
        }
    }()
    logger.Info("reservation server up",
        zap.String("addr", cfg.Addr),
        zap.String("ops_addr", cfg.OpsAddr),
        zap.String("data_dir", cfg.DataDir),
        zap.String("env", cfg.Env))

    sig := make(chan os.Signal, 1)
    signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
    <-sig

    logger.Info("shutting down")
    srv.Shutdown()
    if ops != nil {
        _ = ops.Close()
    }
}
