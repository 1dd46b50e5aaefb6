package main

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mkrylova/slotserve/libs/config"
	"github.com/mkrylova/slotserve/libs/db"
	"github.com/mkrylova/slotserve/libs/httpx"
	"github.com/mkrylova/slotserve/libs/kafkax"
	otelx "github.com/mkrylova/slotserve/libs/otel"
	"github.com/mkrylova/slotserve/libs/runtime"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/availability"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/booking"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/handlers"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/lifecycle"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/notify"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/scheduler"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/storage"
)

func parseWorkDays(raw string, logger *slog.Logger) []int {
	var days []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 || d > 6 {
			logger.Warn("invalid work day", "value", part)
			continue
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		days = []int{1, 2, 3, 4, 5}
	}
	return days
}

func main() {
	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, int32(config.Int("DB_MAX_CONNS", 10)))
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		logger.Error("migration failed", "err", err)
		panic(err)
	}

	defaults, err := availability.NewDefaults(
		parseWorkDays(config.String("DEFAULT_WORK_DAYS", "1,2,3,4,5"), logger),
		config.String("DEFAULT_WORK_START", "09:00"),
		config.String("DEFAULT_WORK_END", "18:00"),
	)
	if err != nil {
		logger.Error("invalid default schedule", "err", err)
		panic(err)
	}

	var notifier lifecycle.Notifier
	brokers := config.String("KAFKA_BROKERS", "")
	if brokers != "" {
		kn := notify.NewKafkaNotifier(brokers)
		defer func() { _ = kn.Close() }()
		notifier = kn
	} else {
		logger.Warn("kafka brokers not configured; notifications go to the log")
		notifier = notify.NewLogNotifier(logger)
	}

	store := scheduler.NewPGStore(pool)
	reviews := storage.NewReviewRepository(pool)
	customers := storage.NewCustomerRepository(pool)
	staffRepo := storage.NewStaffRepository(pool)
	serviceRepo := storage.NewServiceRepository(pool)
	scheduleRepo := storage.NewScheduleRepository(pool)

	timers := lifecycle.NewTimers()
	defer timers.Close()

	sched := scheduler.New(store, defaults, notifier, reviews, timers, logger, scheduler.Config{
		BufferMinutes: config.Int("SLOT_BUFFER_MINUTES", 0),
		GracePeriod:   config.Minutes("AUTO_COMPLETE_GRACE_MINUTES", lifecycle.DefaultGracePeriod),
		Booking: booking.Config{
			MaxAttempts: config.Int("BOOKING_MAX_ATTEMPTS", 5),
			BackoffBase: time.Duration(config.Int("BOOKING_BACKOFF_BASE_MS", 50)) * time.Millisecond,
		},
	})

	// Timers live in this process only; rebuild them from the store on boot.
	if err := sched.Rearm(ctx); err != nil {
		logger.Error("timer rearm failed", "err", err)
	}

	schedulingHandler := handlers.NewSchedulingHandler(sched, customers, logger)
	adminHandler := handlers.NewAdminHandler(staffRepo, serviceRepo, scheduleRepo, reviews, logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if brokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	limit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	var limiter httpx.Middleware
	if redisURL := config.String("REDIS_URL", ""); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "err", err)
			panic(err)
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		limiter = httpx.NewRedisRateLimiter(rdb, limit, time.Minute, service).Middleware(logger, true)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	} else {
		limiter = httpx.NewRateLimiter(limit, time.Minute).Middleware()
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	handlers.Register(mux, schedulingHandler, adminHandler)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		limiter,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduling")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
