package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	amqppub "github.com/mfc-unidade/treasury-api/internal/adapters/amqp"
	cronadapter "github.com/mfc-unidade/treasury-api/internal/adapters/cron"
	"github.com/mfc-unidade/treasury-api/internal/adapters/httpapi"
	memeventbus "github.com/mfc-unidade/treasury-api/internal/adapters/memory/eventbus"
	memeventrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/eventrepo"
	memidempotency "github.com/mfc-unidade/treasury-api/internal/adapters/memory/idempotency"
	memmemberrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/memberrepo"
	mempaymentrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/paymentrepo"
	memsalerepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/salerepo"
	memteamrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/teamrepo"
	postgres "github.com/mfc-unidade/treasury-api/internal/adapters/postgres"
	pgeventrepo "github.com/mfc-unidade/treasury-api/internal/adapters/postgres/eventrepo"
	pgidempotency "github.com/mfc-unidade/treasury-api/internal/adapters/postgres/idempotency"
	pgmemberrepo "github.com/mfc-unidade/treasury-api/internal/adapters/postgres/memberrepo"
	pgpaymentrepo "github.com/mfc-unidade/treasury-api/internal/adapters/postgres/paymentrepo"
	pgsalerepo "github.com/mfc-unidade/treasury-api/internal/adapters/postgres/salerepo"
	pgteamrepo "github.com/mfc-unidade/treasury-api/internal/adapters/postgres/teamrepo"
	redisidempotency "github.com/mfc-unidade/treasury-api/internal/adapters/redis/idempotency"
	"github.com/mfc-unidade/treasury-api/internal/app/dues"
	"github.com/mfc-unidade/treasury-api/internal/app/fundraising"
	"github.com/mfc-unidade/treasury-api/internal/app/members"
	"github.com/mfc-unidade/treasury-api/internal/app/reporting"
	platformclock "github.com/mfc-unidade/treasury-api/internal/platform/clock"
	"github.com/mfc-unidade/treasury-api/internal/platform/config"
	applog "github.com/mfc-unidade/treasury-api/internal/platform/log"
	clockport "github.com/mfc-unidade/treasury-api/internal/ports/out/clock"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/eventbus"
	eventrepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/eventrepo"
	idempotencyport "github.com/mfc-unidade/treasury-api/internal/ports/out/idempotency"
	memberrepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/memberrepo"
	paymentrepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/paymentrepo"
	salerepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/salerepo"
	teamrepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/teamrepo"
)

type repositories struct {
	members  memberrepoport.Repository
	teams    teamrepoport.Repository
	payments paymentrepoport.Repository
	events   eventrepoport.Repository
	sales    salerepoport.Repository
	idem     idempotencyport.Store
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid LOG_LEVEL: %v\n", err)
		os.Exit(1)
	}
	logCfg := applog.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.LogFormat
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api exited with error", applog.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *applog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}
	clk := platformclock.NewSystemClock(loc)

	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	repos, closeRepos, err := openRepositories(ctx, cfg, clk, logger)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, closeRepos)

	bus, closeBus, err := openEventBus(cfg, logger)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, closeBus)

	memberSvc := members.NewService(repos.members, repos.teams, clk)
	memberSvc.Log = logger.WithComponent(applog.ComponentMembers)

	duesSvc := dues.NewService(repos.members, repos.teams, repos.payments, clk)
	duesSvc.Rates = dues.RatePolicy{PerMember: cfg.DuesRatePerMember, CoupleRate: cfg.DuesRateCouple}
	duesSvc.Bus = bus
	duesSvc.Log = logger.WithComponent(applog.ComponentDues)

	fundSvc := fundraising.NewService(repos.events, repos.sales, repos.members, repos.teams, clk)
	fundSvc.Bus = bus
	fundSvc.Log = logger.WithComponent(applog.ComponentFundraising)

	repSvc := reporting.NewService(duesSvc, repos.members, repos.teams, clk)
	repSvc.Bus = bus
	repSvc.Log = logger.WithComponent(applog.ComponentReporting)

	api := httpapi.NewServer(memberSvc, duesSvc, fundSvc, repSvc, repos.idem)
	api.Log = logger.WithComponent(applog.ComponentHTTP)
	api.Now = clk.Now

	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		OperatorMiddleware: httpapi.NewOperatorMiddleware(cfg.DefaultOperator),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var sched *cronadapter.Scheduler
	if cfg.ReminderSchedule != "" {
		sched, err = cronadapter.NewScheduler(cfg.ReminderSchedule, repSvc, clk, logger)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", "addr", srv.Addr, "storage", cfg.StorageBackend, "idempotency", cfg.IdempotencyBackend, "event_bus", cfg.EventBus)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	if sched != nil {
		sched.Start()
		logger.Info("arrears reminder scheduled", "schedule", cfg.ReminderSchedule)
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if sched != nil {
			sched.Stop(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openRepositories(ctx context.Context, cfg config.Config, clk clockport.Clock, logger *applog.Logger) (repositories, func(), error) {
	var repos repositories
	cleanup := func() {}

	switch cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return repos, cleanup, fmt.Errorf("open postgres: %w", err)
		}
		cleanup = pool.Close
		if cfg.AutoMigrate {
			if err := postgres.Migrate(pool); err != nil {
				return repos, cleanup, fmt.Errorf("migrate: %w", err)
			}
			logger.WithComponent(applog.ComponentStorage).Info("migrations applied")
		}
		repos.members = pgmemberrepo.NewRepo(pool)
		repos.teams = pgteamrepo.NewRepo(pool)
		repos.payments = pgpaymentrepo.NewRepo(pool)
		repos.events = pgeventrepo.NewRepo(pool)
		repos.sales = pgsalerepo.NewRepo(pool)
		if cfg.IdempotencyBackend == config.IdempotencyPostgres {
			repos.idem = pgidempotency.NewStore(pool, cfg.IdempotencyTTL, clk.Now)
		}
	default:
		repos.members = memmemberrepo.NewRepo()
		repos.teams = memteamrepo.NewRepo()
		repos.payments = mempaymentrepo.NewRepo()
		repos.events = memeventrepo.NewRepo()
		repos.sales = memsalerepo.NewRepo()
	}

	switch cfg.IdempotencyBackend {
	case config.IdempotencyRedis:
		client, err := redisidempotency.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return repos, cleanup, fmt.Errorf("open redis: %w", err)
		}
		prev := cleanup
		cleanup = func() {
			_ = client.Close()
			prev()
		}
		repos.idem = redisidempotency.NewStore(client, cfg.IdempotencyTTL)
	case config.IdempotencyMemory:
		repos.idem = memidempotency.NewStoreWithTTL(cfg.IdempotencyTTL, clk.Now)
	}
	return repos, cleanup, nil
}

func openEventBus(cfg config.Config, logger *applog.Logger) (eventbus.Publisher, func(), error) {
	switch cfg.EventBus {
	case config.BusAMQP:
		pub, err := amqppub.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return nil, func() {}, err
		}
		return pub, func() { _ = pub.Close() }, nil
	case config.BusMemory:
		return memeventbus.NewRecorder(), func() {}, nil
	default:
		return eventbus.Discard{}, func() {}, nil
	}
}
