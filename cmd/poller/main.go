package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/config"
	"github.com/ivankudzin/tgrelay/internal/infra/logger"
	"github.com/ivankudzin/tgrelay/internal/infra/telegram"
	"github.com/ivankudzin/tgrelay/internal/jobs/poll"
	pgrepo "github.com/ivankudzin/tgrelay/internal/repo/postgres"
	redrepo "github.com/ivankudzin/tgrelay/internal/repo/redis"
	reconcilesvc "github.com/ivankudzin/tgrelay/internal/services/reconcile"
)

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal("postgres init failed", zap.Error(err))
	}
	defer pool.Close()

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() {
		_ = redisClient.Close()
	}()

	botRepo := pgrepo.NewBotRepo(pool)
	chatRepo := pgrepo.NewChatRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	membershipRepo := pgrepo.NewMembershipRepo(pool)
	actionLogRepo := pgrepo.NewActionLogRepo(pool)
	pollRepo := redrepo.NewPollRepo(redisClient)

	tgClient := telegram.NewClient(cfg.Telegram.APIBase, cfg.Telegram.RequestTimeout)
	reconcileService := reconcilesvc.NewService(chatRepo, userRepo, membershipRepo, actionLogRepo, log)

	job := poll.New(botRepo, pollRepo, tgClient, reconcileService, cfg.Poll.Interval, cfg.Poll.Limit, log)

	log.Info("poller started",
		zap.Duration("interval", cfg.Poll.Interval),
		zap.Int("limit", cfg.Poll.Limit))

	if err := job.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("poller failed", zap.Error(err))
	}
}
