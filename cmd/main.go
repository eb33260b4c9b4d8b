package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/sbilibin2017/gw-bank-core/internal/facades"
	"github.com/sbilibin2017/gw-bank-core/internal/handlers"
	"github.com/sbilibin2017/gw-bank-core/internal/jwt"
	"github.com/sbilibin2017/gw-bank-core/internal/logger"
	"github.com/sbilibin2017/gw-bank-core/internal/metrics"
	"github.com/sbilibin2017/gw-bank-core/internal/middlewares"
	"github.com/sbilibin2017/gw-bank-core/internal/repositories"
	"github.com/sbilibin2017/gw-bank-core/internal/repositories/memory"
	"github.com/sbilibin2017/gw-bank-core/internal/resilience"
	"github.com/sbilibin2017/gw-bank-core/internal/services"
	"github.com/sbilibin2017/gw-bank-core/internal/tracing"
	"github.com/sbilibin2017/gw-bank-core/internal/workers"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

const serviceName = "gw-bank-core"

// config holds everything read from the environment.
type config struct {
	AppHost  string
	AppPort  string
	GRPCPort string
	LogLevel string

	StorageDriver  string // postgres or memory
	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int
	AutoMigrate    bool

	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int

	KafkaBrokers []string
	KafkaTopic   string

	JWTSecret string
	JWTExp    time.Duration

	OTPTTL            time.Duration
	VerifyMaxAttempts int64
	VerifyWindow      time.Duration
	BcryptCost        int

	PendingTTL    time.Duration
	SweepInterval time.Duration
	AutoSettle    bool

	OTLPEndpoint string
}

// @title gw-bank-core API
// @version 1.0.0
// @description Balances, transfers with out-of-band verification, and admin overrides
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns the
// application configuration.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}
	getInt := func(key, defaultValue string) (int, error) {
		v, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return v, nil
	}
	getDuration := func(key, defaultValue string) (time.Duration, error) {
		v, err := time.ParseDuration(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return v, nil
	}
	getBool := func(key, defaultValue string) (bool, error) {
		v, err := strconv.ParseBool(getEnv(key, defaultValue))
		if err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}
		return v, nil
	}

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.GRPCPort = getEnv("GRPC_PORT", "50051")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")

	// Storage config
	cfg.StorageDriver = getEnv("STORAGE_DRIVER", "postgres")
	if cfg.StorageDriver != "postgres" && cfg.StorageDriver != "memory" {
		return cfg, fmt.Errorf("STORAGE_DRIVER: unknown driver %q", cfg.StorageDriver)
	}
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDB = getEnv("POSTGRES_DB", "database")
	if cfg.PGPort, err = getInt("POSTGRES_PORT", "5432"); err != nil {
		return
	}
	if cfg.PGMaxOpenConns, err = getInt("POSTGRES_MAX_OPEN_CONNS", "16"); err != nil {
		return
	}
	if cfg.PGMaxIdleConns, err = getInt("POSTGRES_MAX_IDLE_CONNS", "8"); err != nil {
		return
	}
	if cfg.AutoMigrate, err = getBool("DB_AUTO_MIGRATE", "true"); err != nil {
		return
	}

	// Redis config
	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisPort, err = getInt("REDIS_PORT", "6379"); err != nil {
		return
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", "0"); err != nil {
		return
	}
	if cfg.RedisPoolSize, err = getInt("REDIS_POOL_SIZE", "10"); err != nil {
		return
	}
	if cfg.RedisMinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", "2"); err != nil {
		return
	}

	// Kafka config; no brokers disables publishing
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "bank.notifications")

	// JWT config
	cfg.JWTSecret = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	if cfg.JWTExp, err = getDuration("JWT_EXP", "1h"); err != nil {
		return
	}

	// Verification config
	if cfg.OTPTTL, err = getDuration("OTP_TTL", "10m"); err != nil {
		return
	}
	var maxAttempts int
	if maxAttempts, err = getInt("VERIFY_MAX_ATTEMPTS", "5"); err != nil {
		return
	}
	cfg.VerifyMaxAttempts = int64(maxAttempts)
	if cfg.VerifyWindow, err = getDuration("VERIFY_ATTEMPT_WINDOW", "15m"); err != nil {
		return
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", "10"); err != nil {
		return
	}

	// Sweeper config
	if cfg.PendingTTL, err = getDuration("TRANSFER_PENDING_TTL", "24h"); err != nil {
		return
	}
	if cfg.SweepInterval, err = getDuration("SWEEP_INTERVAL", "1m"); err != nil {
		return
	}
	if cfg.AutoSettle, err = getBool("AUTO_SETTLE", "false"); err != nil {
		return
	}

	cfg.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	return cfg, nil
}

// stores groups the repositories behind the service interfaces so either
// storage driver can back them.
type stores struct {
	tx        services.Transactor
	accounts  services.AccountStore
	transfers services.TransferStore
	txns      services.TransactionStore
	audit     services.AuditStore
	methods   facades.PaymentMethodReader
	attempts  services.AttemptStore
	close     func()
}

// openPostgres connects to PostgreSQL and Redis and builds the SQL repositories.
func openPostgres(ctx context.Context, cfg config) (*stores, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDB)
	logger.Log.Infow("connecting to PostgreSQL", "host", cfg.PGHost, "port", cfg.PGPort, "db", cfg.PGDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if cfg.AutoMigrate {
		if err := repositories.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	tx := repositories.NewTransactor(db)
	return &stores{
		tx:        tx,
		accounts:  repositories.NewAccountRepository(db, repositories.TxFromContext),
		transfers: repositories.NewTransferRepository(db, repositories.TxFromContext),
		txns:      repositories.NewTransactionRepository(db, repositories.TxFromContext),
		audit:     repositories.NewAuditRepository(db, repositories.TxFromContext),
		methods:   repositories.NewPaymentMethodRepository(db),
		attempts:  repositories.NewAttemptRepository(rdb, cfg.VerifyWindow),
		close: func() {
			_ = rdb.Close()
			_ = db.Close()
		},
	}, nil
}

// openMemory builds the in-process repositories. State is lost on exit.
func openMemory(cfg config) *stores {
	logger.Log.Warnw("using in-memory storage, state is not persisted")
	s := memory.NewStore()
	return &stores{
		tx:        s,
		accounts:  memory.NewAccountRepository(s),
		transfers: memory.NewTransferRepository(s),
		txns:      memory.NewTransactionRepository(s),
		audit:     memory.NewAuditRepository(s),
		methods:   memory.NewPaymentMethodRepository(s),
		attempts:  memory.NewAttemptRepository(cfg.VerifyWindow),
		close:     func() {},
	}
}

// newNotifier returns the Kafka publisher, or one that only logs when no
// brokers are configured.
func newNotifier(cfg config) *facades.KafkaNotifier {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Log.Warnw("KAFKA_BROKERS not set, notifications are disabled")
		return facades.NewKafkaNotifier(nil, nil)
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return facades.NewKafkaNotifier(writer, resilience.NewCircuitBreaker("kafka-notifier"))
}

// newRouter mounts the public, authenticated and admin routes.
func newRouter(cfg config, m *metrics.Metrics, tokener middlewares.Tokener,
	transfers *services.TransferService,
	verification *services.VerificationService,
	admin *services.AdminService,
	ledger *services.LedgerService,
	recorder *services.RecorderService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(m))

	r.Handle("/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort)),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewares.AuthMiddleware(tokener))

		handlers.RegisterBalanceHandlers(r,
			handlers.NewGetBalanceHandler(ledger),
			handlers.NewListTransactionsHandler(recorder),
		)
		handlers.RegisterTransferHandlers(r,
			handlers.NewCreateTransferHandler(transfers),
			handlers.NewListTransfersHandler(transfers),
			handlers.NewGetTransferHandler(transfers),
		)
		handlers.RegisterVerificationHandlers(r,
			handlers.NewVerifyIMFHandler(verification),
			handlers.NewVerifyCOTHandler(verification),
			handlers.NewRequestOTPHandler(verification),
			handlers.NewVerifyOTPHandler(verification),
		)

		r.Group(func(r chi.Router) {
			r.Use(middlewares.AdminOnly)
			handlers.RegisterAdminHandlers(r,
				handlers.NewAdjustHandler(admin),
				handlers.NewClearAccountHandler(admin),
				handlers.NewRejectTransferHandler(transfers),
				handlers.NewCompleteTransferHandler(transfers),
			)
		})
	})
	return r
}

// run initializes the logger, tracing, storage, and notification publisher,
// then serves HTTP and gRPC health and runs the sweeper until ctx is done.
func run(ctx context.Context, cfg config) error {
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	shutdownTracing, err := tracing.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	var st *stores
	switch cfg.StorageDriver {
	case "memory":
		st = openMemory(cfg)
	default:
		if st, err = openPostgres(ctx, cfg); err != nil {
			return err
		}
	}
	defer st.close()

	notifier := newNotifier(cfg)
	defer notifier.Close()

	m := metrics.New()
	fees := facades.NewFeePolicy(st.methods)

	ledger := services.NewLedgerService(st.accounts, m)
	recorder := services.NewRecorderService(st.txns)
	transferService := services.NewTransferService(st.tx, st.accounts, st.transfers, st.txns, fees, st.audit, notifier, m,
		services.TransferConfig{})
	verificationService := services.NewVerificationService(st.tx, st.accounts, st.transfers, st.attempts, st.audit, notifier, m,
		services.VerificationConfig{
			OTPTTL:      cfg.OTPTTL,
			MaxAttempts: cfg.VerifyMaxAttempts,
			BcryptCost:  cfg.BcryptCost,
		})
	adminService := services.NewAdminService(st.tx, st.accounts, st.transfers, st.txns, st.audit, notifier, m)

	sweeper := workers.NewSweeper(st.transfers, transferService, m, workers.SweeperConfig{
		Interval:   cfg.SweepInterval,
		PendingTTL: cfg.PendingTTL,
		AutoSettle: cfg.AutoSettle,
	})

	tokener := jwt.New(jwt.WithSecretKey(cfg.JWTSecret), jwt.WithExpiration(cfg.JWTExp))

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler:           newRouter(cfg, m, tokener, transferService, verificationService, adminService, ledger, recorder),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.AppHost, cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Log.Infof("gRPC health server listening on %s:%s", cfg.AppHost, cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutdown signal received, stopping servers...")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorw("HTTP server shutdown error", "error", err)
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Log.Info("Servers stopped gracefully")
	return nil
}
