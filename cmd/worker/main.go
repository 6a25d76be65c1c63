// The worker drains agent heartbeat and traffic queues, probes agent
// liveness and runs the billing cycle.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	agentservices "veilink/internal/application/agent/services"
	appbilling "veilink/internal/application/billing"
	"veilink/internal/application/forward/services"
	forwarduc "veilink/internal/application/forward/usecases"
	apptask "veilink/internal/application/task"
	topologyuc "veilink/internal/application/topology/usecases"
	"veilink/internal/application/traffic"
	"veilink/internal/application/tunnel"
	"veilink/internal/domain/billing"
	"veilink/internal/domain/task"
	"veilink/internal/infrastructure/cache"
	"veilink/internal/infrastructure/config"
	"veilink/internal/infrastructure/database"
	"veilink/internal/infrastructure/pubsub"
	"veilink/internal/infrastructure/repository"
	"veilink/internal/infrastructure/scheduler"
	"veilink/internal/shared/db"
	"veilink/internal/shared/goroutine"
	"veilink/internal/shared/logger"
)

func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("failed to connect to redis", "error", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Repositories.
	agentRepo := repository.NewAgentRepository(database.Get(), log)
	forwardRepo := repository.NewForwardRepository(database.Get(), log)
	trafficRepo := repository.NewForwardTrafficRepository(database.Get(), log)
	taskRepo := repository.NewTaskRepository(database.Get(), log)
	walletRepo := repository.NewWalletRepository(database.Get(), log)
	balanceLogRepo := repository.NewBalanceLogRepository(database.Get(), log)
	engineConfigRepo := repository.NewEngineConfigRepository(database.Get(), log)

	// Messaging and provisioning. The worker runs its own subscriber
	// because its teardown dispatches wait on agent confirmations.
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

	// Billing pipeline.
	teardownForwardUC := forwarduc.NewTeardownForwardUseCase(forwardRepo, provisioner, log)
	teardownChainUC := topologyuc.NewTeardownChainUseCase(forwardRepo, teardownForwardUC, log)
	compensator := topologyuc.NewBillingCompensator(teardownForwardUC, teardownChainUC)

	defaultPrice := billing.Price{
		Amount: cfg.Billing.DefaultPrice,
		Unit:   billing.TrafficUnit(cfg.Billing.DefaultPriceUnit),
	}
	priceProvider := appbilling.NewPriceProvider(agentRepo, defaultPrice, log)
	pendingStore := cache.NewPendingBalanceStore(bus, log)
	cycleStore := cache.NewEngineCycleStore(bus, log)
	txm := db.NewTransactionManager(database.Get())
	biller := appbilling.NewBiller(
		walletRepo, balanceLogRepo, pendingStore, priceProvider,
		agentRepo, forwardRepo, txm, compensator, log,
	)
	ledger := appbilling.NewLedger(trafficRepo, biller, log)

	// Queue drains and liveness.
	reportService := traffic.NewReportService(forwardRepo, cycleStore, ledger, log)
	drainer := traffic.NewDrainer(agentRepo, bus, reportService, log)
	monitor := agentservices.NewStatusMonitor(
		agentRepo, bus, channel,
		time.Duration(cfg.Forward.PingTimeoutSeconds)*time.Second,
		log,
	)

	manager, err := scheduler.NewManager(log)
	if err != nil {
		logger.Fatal("failed to create scheduler", "error", err)
	}

	register := func(name string, seconds int, job scheduler.Job) {
		if err := manager.Register(name, time.Duration(seconds)*time.Second, job); err != nil {
			logger.Fatal("failed to register job", "job", name, "error", err)
		}
	}
	register("traffic-drain", cfg.Worker.TrafficDrainSeconds, scheduler.NewTrafficDrainJob(drainer))
	register("status-drain", cfg.Worker.StatusDrainSeconds, scheduler.NewStatusDrainJob(monitor))
	register("liveness-probe", cfg.Worker.LivenessSeconds, scheduler.NewLivenessJob(monitor))

	manager.Start()
	log.Infow("worker started",
		"traffic_drain_seconds", cfg.Worker.TrafficDrainSeconds,
		"status_drain_seconds", cfg.Worker.StatusDrainSeconds,
		"liveness_seconds", cfg.Worker.LivenessSeconds)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Infow("shutting down worker")
	cancel()
	if err := manager.Stop(); err != nil {
		log.Errorw("failed to stop scheduler", "error", err)
	}
	log.Infow("worker exited gracefully")
}
