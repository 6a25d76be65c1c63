// Package server implements the control plane server command.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	agentuc "veilink/internal/application/agent/usecases"
	appbilling "veilink/internal/application/billing"
	"veilink/internal/application/forward/services"
	forwarduc "veilink/internal/application/forward/usecases"
	apptask "veilink/internal/application/task"
	topologyuc "veilink/internal/application/topology/usecases"
	"veilink/internal/application/tunnel"
	useruc "veilink/internal/application/user/usecases"
	"veilink/internal/domain/task"
	"veilink/internal/infrastructure/config"
	"veilink/internal/infrastructure/database"
	"veilink/internal/infrastructure/migration"
	"veilink/internal/infrastructure/pubsub"
	"veilink/internal/infrastructure/repository"
	httpRouter "veilink/internal/interfaces/http"
	"veilink/internal/interfaces/http/handlers"
	"veilink/internal/shared/goroutine"
	"veilink/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

// NewCommand creates the server command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the control plane HTTP server",
		Long:  `Start the veilink control plane: the HTTP API, the task dispatcher and the agent result subscriber.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database auto-migration on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting server", "environment", env, "auto_migrate", autoMigrate)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if env == "production" {
			log.Warnw("auto-migration is enabled in production")
		}
		if err := migration.AutoMigrate(database.Get()); err != nil {
			return err
		}
		log.Infow("auto-migration completed")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(cmd.Context()).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Repositories.
	userRepo := repository.NewUserRepository(database.Get(), log)
	agentRepo := repository.NewAgentRepository(database.Get(), log)
	shareRepo := repository.NewAgentShareRepository(database.Get(), log)
	forwardRepo := repository.NewForwardRepository(database.Get(), log)
	taskRepo := repository.NewTaskRepository(database.Get(), log)
	walletRepo := repository.NewWalletRepository(database.Get(), log)
	balanceLogRepo := repository.NewBalanceLogRepository(database.Get(), log)
	engineConfigRepo := repository.NewEngineConfigRepository(database.Get(), log)

	// Messaging and provisioning.
	bus := pubsub.NewRedisBus(redisClient, log)
	channel := apptask.NewChannel(bus, taskRepo, log)
	configStore := tunnel.NewConfigStore(engineConfigRepo, log)
	provisioner := services.NewProvisioner(
		forwardRepo, agentRepo, channel, configStore,
		time.Duration(cfg.Forward.ProvisionTimeoutMinutes)*time.Minute,
		time.Duration(cfg.Forward.TeardownTimeoutMinutes)*time.Minute,
		log,
	)

	subscriber := apptask.NewSubscriber(bus, channel, taskRepo, agentRepo, log)
	resultHandler := services.NewResultHandler(forwardRepo, configStore, log)
	subscriber.Handle(task.TypeForward, resultHandler.Handle)
	goroutine.SafeGo(log, "task-subscriber", func() {
		if err := subscriber.Run(ctx); err != nil && ctx.Err() == nil {
			log.Errorw("task subscriber stopped", "error", err)
		}
	})

	// Use cases.
	createUserUC := useruc.NewCreateUserUseCase(userRepo, log)
	registerAgentUC := agentuc.NewRegisterAgentUseCase(agentRepo, log)
	listAgentsUC := agentuc.NewListAgentsUseCase(agentRepo, log)
	shareAgentUC := agentuc.NewShareAgentUseCase(agentRepo, shareRepo, log)
	unshareAgentUC := agentuc.NewUnshareAgentUseCase(agentRepo, shareRepo, log)
	createForwardUC := forwarduc.NewCreateForwardUseCase(forwardRepo, agentRepo, shareRepo, userRepo, provisioner, log)
	teardownForwardUC := forwarduc.NewTeardownForwardUseCase(forwardRepo, provisioner, log)
	listForwardsUC := forwarduc.NewListForwardsUseCase(forwardRepo, log)
	teardownChainUC := topologyuc.NewTeardownChainUseCase(forwardRepo, teardownForwardUC, log)
	createNetworkUC := topologyuc.NewCreateNetworkUseCase(forwardRepo, agentRepo, shareRepo, userRepo, createForwardUC, teardownForwardUC, log)
	walletQuery := appbilling.NewWalletQueryService(walletRepo, balanceLogRepo, log)

	// HTTP layer.
	router := httpRouter.NewRouter(
		handlers.NewUserHandler(createUserUC, userRepo, log),
		handlers.NewAgentHandler(registerAgentUC, listAgentsUC, shareAgentUC, unshareAgentUC, log),
		handlers.NewForwardHandler(createForwardUC, teardownForwardUC, listForwardsUC, log),
		handlers.NewNetworkHandler(createNetworkUC, teardownChainUC, log),
		handlers.NewWalletHandler(walletQuery, log),
		log,
	)
	router.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
