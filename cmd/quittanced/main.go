package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mathieuventurini/QuittanceOnClick/internal/api"
	"github.com/mathieuventurini/QuittanceOnClick/internal/auth"
	"github.com/mathieuventurini/QuittanceOnClick/internal/config"
	"github.com/mathieuventurini/QuittanceOnClick/internal/domain"
	"github.com/mathieuventurini/QuittanceOnClick/internal/issuance"
	"github.com/mathieuventurini/QuittanceOnClick/internal/lock"
	"github.com/mathieuventurini/QuittanceOnClick/internal/mail"
	"github.com/mathieuventurini/QuittanceOnClick/internal/metrics"
	"github.com/mathieuventurini/QuittanceOnClick/internal/pdf"
	"github.com/mathieuventurini/QuittanceOnClick/internal/scheduler"
	"github.com/mathieuventurini/QuittanceOnClick/internal/store"

	_ "github.com/lib/pq"
)

// Build-time variables set via -ldflags
var (
	version = "dev"
	commit  = "unknown"
)

const (
	exitSuccess       = 0
	exitRuntimeError  = 1
	exitInvalidConfig = 2
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("quittanced: loaded .env")
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitRuntimeError)
	}

	cmd := os.Args[1]

	switch cmd {
	case "serve":
		os.Exit(runServe())
	case "validate":
		os.Exit(runValidate())
	case "config":
		os.Exit(runConfig())
	case "version":
		os.Exit(runVersion())
	case "--help", "-h", "help":
		printUsage()
		os.Exit(exitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(exitRuntimeError)
	}
}

func printUsage() {
	fmt.Println(`quittanced - monthly rent receipt automation

Usage:
  quittanced <command>

Commands:
  serve      Start the HTTP server and the monthly scheduler
  validate   Validate configuration (no connections made)
  config     Print effective configuration as JSON (secrets masked)
  version    Print version information

Environment Variables:
  ADMIN_PASSWORD            Operator password (required)
  SESSION_SECRET            Session token signing key (required, min 16 chars)
  SESSION_TTL               Session lifetime (default: "168h")
  COOKIE_SECURE             Secure flag on the session cookie (default: "true")

  TENANT_NAME               Tenant full name
  TENANT_EMAIL              Tenant email address
  PROPERTY_ADDRESS          Rented property address
  RENT_AMOUNT               Monthly amount, decimal (e.g. "715")
  OWNER_NAME                Signing owner (default: "Anne Funfschilling")
  CITY                      City the receipt is issued in (default: "Tours")

  RENT_BREAKDOWN_TOTAL      Itemized total (default: "715")
  RENT_BREAKDOWN_RENT       Rent part (default: "670")
  RENT_BREAKDOWN_CHARGES    Charges part (default: "45")
  RENT_AMOUNT_IN_WORDS      Spelled-out total (default: "Sept cent quinze euros")

  RESEND_API_KEY            Resend API key
  MAIL_FROM                 Sender (default: "Quittance Express <onboarding@resend.dev>")
  MAIL_BCC                  Comma-separated BCC addresses (optional)

  REDIS_ADDR                Redis address for history and locking (optional)
  DATABASE_URL              PostgreSQL fallback store (optional)
  STORE_OP_TIMEOUT          Store startup operation timeout (default: "5s")

  CRON_EXPRESSION           Issuance schedule (default: "0 10 8 * *")
  RUN_TIMEOUT               One scheduled run timeout (default: "2m")
  LOCK_TTL                  Scheduled-run lock TTL (default: "5m")

  HTTP_ADDR                 HTTP server address (default: ":8080", PORT fallback)
  HTTP_SHUTDOWN_TIMEOUT     Graceful HTTP shutdown timeout (default: "10s")
  METRICS_ENABLED           Enable Prometheus metrics (default: "false")
  METRICS_PATH              Metrics endpoint path (default: "/metrics")`)
}

// logConfigWarnings flags configurations that start fine but degrade
// the service. The server still boots; the operator decides.
func logConfigWarnings(cfg *config.Config) {
	if cfg.ResendAPIKey == "" {
		log.Println("WARNING: RESEND_API_KEY not set; all deliveries will fail")
	}

	settings := domain.Settings{
		TenantName: cfg.TenantName,
		Email:      cfg.TenantEmail,
		Address:    cfg.PropertyAddress,
		Amount:     cfg.RentAmount,
	}
	if err := settings.Validate(); err != nil {
		log.Printf("WARNING: %v; scheduled runs will refuse until fixed", err)
	}

	if cfg.RedisAddr == "" {
		if cfg.DatabaseURL != "" {
			log.Println("INFO: REDIS_ADDR not set; scheduled-run lock disabled, run a single instance only")
		} else {
			log.Println("WARNING: no REDIS_ADDR or DATABASE_URL; history is in-memory and lost on restart")
		}
	}

	if !cfg.CookieSecure {
		log.Println("WARNING: COOKIE_SECURE=false; session cookie will be sent over plain HTTP")
	}

	if !cfg.MetricsEnabled {
		log.Println("INFO: METRICS_ENABLED=false; no Prometheus endpoint")
	}
}

func runServe() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}

	logConfigWarnings(&cfg)

	settings := domain.Settings{
		TenantName: cfg.TenantName,
		Email:      cfg.TenantEmail,
		Address:    cfg.PropertyAddress,
		Amount:     cfg.RentAmount,
	}

	// Initialize metrics sink (optional)
	var metricsSink *metrics.PrometheusSink
	if cfg.MetricsEnabled {
		metricsSink = metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
		log.Printf("quittanced: metrics enabled (path=%s)", cfg.MetricsPath)
	}

	// Select the store backend: redis, then postgres, then in-memory.
	var backend store.Store
	var locker lock.Locker = lock.Disabled{}

	switch {
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreOpTimeout)
		if err := client.Ping(pingCtx).Err(); err != nil {
			// Degraded start: the fallback wrapper keeps requests
			// working until redis comes back.
			log.Printf("quittanced: redis unreachable at startup: %v", err)
		}
		cancel()

		backend = store.NewRedis(client)
		locker = lock.NewRedisLocker(client, cfg.LockTTL)
		log.Printf("quittanced: store backend redis (addr=%s)", cfg.RedisAddr)

	case cfg.DatabaseURL != "":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
			return exitRuntimeError
		}
		defer db.Close()

		initCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreOpTimeout)
		pg, err := store.NewPostgres(initCtx, db)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize postgres store: %v\n", err)
			return exitRuntimeError
		}

		backend = pg
		log.Println("quittanced: store backend postgres; scheduled-run lock disabled (no redis)")

	default:
		backend = store.NewMemory()
		log.Println("quittanced: store backend in-memory")
	}

	docStore := store.NewFallback(backend)
	if metricsSink != nil {
		docStore = docStore.WithMetrics(metricsSink)
	}

	gate := auth.NewGate(auth.Config{
		AdminPassword: cfg.AdminPassword,
		Secret:        []byte(cfg.SessionSecret),
		TTL:           cfg.SessionTTL,
		SecureCookie:  cfg.CookieSecure,
	})

	renderer := pdf.NewRenderer(pdf.Config{
		OwnerName: cfg.OwnerName,
		City:      cfg.City,
		Breakdown: pdf.Breakdown{
			Total:   cfg.BreakdownTotal,
			Rent:    cfg.BreakdownRent,
			Charges: cfg.BreakdownCharges,
			Words:   cfg.AmountInWords,
		},
	})

	sender := mail.NewResend(mail.Config{
		APIKey: cfg.ResendAPIKey,
		From:   cfg.MailFrom,
		BCC:    cfg.MailBCC,
	})

	svc := issuance.New(docStore, renderer, sender, locker, settings)
	if metricsSink != nil {
		svc = svc.WithMetrics(metricsSink)
	}

	sched := scheduler.New(scheduler.Config{
		CronExpression: cfg.CronExpression,
		RunTimeout:     cfg.RunTimeout,
	}, svc)
	if err := sched.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start scheduler: %v\n", err)
		return exitRuntimeError
	}

	apiHandler := api.NewHandler(gate, svc, docStore)
	if metricsSink != nil {
		apiHandler = apiHandler.WithMetrics(metricsSink)
	}

	mux := http.NewServeMux()
	if metricsSink != nil {
		mux.Handle(cfg.MetricsPath, promhttp.Handler())
	}
	mux.Handle("/", apiHandler)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("quittanced: http server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("quittanced: http server error: %v", err)
		}
	}()

	log.Printf("quittanced: started (cron=%q, http=%s)", cfg.CronExpression, cfg.HTTPAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig

	log.Printf("quittanced: received signal %v, shutting down", received)

	// Stop the scheduler first so no new issuance starts, then drain
	// in-flight HTTP requests.
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("quittanced: http server shutdown error: %v", err)
	}
	log.Println("quittanced: http server stopped")

	log.Println("quittanced: stopped")
	return exitSuccess
}

func runValidate() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitInvalidConfig
	}

	fmt.Println("configuration valid")
	return exitSuccess
}

func runConfig() int {
	cfg := config.Load()

	data, err := cfg.MaskedJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal config: %v\n", err)
		return exitRuntimeError
	}

	fmt.Println(string(data))
	return exitSuccess
}

func runVersion() int {
	fmt.Printf("quittanced version %s (commit: %s)\n", version, commit)
	return exitSuccess
}
