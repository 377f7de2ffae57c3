package relayapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/config"
	"github.com/ivankudzin/tgrelay/internal/infra/telegram"
	pgrepo "github.com/ivankudzin/tgrelay/internal/repo/postgres"
	redrepo "github.com/ivankudzin/tgrelay/internal/repo/redis"
	flagssvc "github.com/ivankudzin/tgrelay/internal/services/flags"
	memberssvc "github.com/ivankudzin/tgrelay/internal/services/members"
	moderatesvc "github.com/ivankudzin/tgrelay/internal/services/moderate"
	reconcilesvc "github.com/ivankudzin/tgrelay/internal/services/reconcile"
	registrysvc "github.com/ivankudzin/tgrelay/internal/services/registry"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	cacheRepo := redrepo.NewCacheRepo(redisClient)
	botRepo := pgrepo.NewBotRepo(pool)
	chatRepo := pgrepo.NewChatRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	membershipRepo := pgrepo.NewMembershipRepo(pool)
	actionLogRepo := pgrepo.NewActionLogRepo(pool)
	flagRepo := pgrepo.NewFlagRepo(pool)

	tgClient := telegram.NewClient(cfg.Telegram.APIBase, cfg.Telegram.RequestTimeout)

	reconcileService := reconcilesvc.NewService(chatRepo, userRepo, membershipRepo, actionLogRepo, log)
	moderateService := moderatesvc.NewService(tgClient, reconcileService)
	registryService := registrysvc.NewService(
		botRepo, chatRepo, membershipRepo, actionLogRepo,
		cacheRepo, tgClient, reconcileService, log,
	)
	membersService := memberssvc.NewService(botRepo, chatRepo, membershipRepo, actionLogRepo)
	flagsService := flagssvc.NewService(
		flagRepo, chatRepo, userRepo, moderateService, actionLogRepo,
		cfg.Flags.Threshold, cfg.Flags.MuteFor, log,
	)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		RegistryService:  registryService,
		ReconcileService: reconcileService,
		ModerateService:  moderateService,
		MembersService:   membersService,
		FlagsService:     flagsService,
		Logger:           log,
		Config:           cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("relay server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
