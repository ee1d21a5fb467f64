package main

import (
	"log"
	"net/http"
	"net/http/pprof"
	"net/smtp"
	"os"
	"time"

	"github.com/beenest/bmg/config"
	"github.com/beenest/bmg/contact"
	"github.com/beenest/bmg/content"
	"github.com/beenest/bmg/customer"
	"github.com/beenest/bmg/db"
	"github.com/beenest/bmg/external"
	"github.com/beenest/bmg/gateway"
	"github.com/beenest/bmg/identity"
	"github.com/beenest/bmg/ledger"
	"github.com/beenest/bmg/mailer"
	"github.com/beenest/bmg/order"
	"github.com/beenest/bmg/subscription"
	"github.com/beenest/bmg/verification"
	"github.com/beenest/bmg/webhook"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v7"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build-time injected variables
var (
	Version = ""
)

func main() {
	var logger *zap.Logger
	var dotFile string
	var err error

	// Determine running environment and initialize structural logger
	env := os.Getenv("API_ENV")
	if "production" == env {
		dotFile = ".env.production"
		logger, err = zap.NewProduction()
	} else {
		dotFile = ".env.development"
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		log.Fatalf("Cannot initialize logger: %v\n", err)
	}
	logger = logger.With(zap.String("Version", Version))
	defer logger.Sync()

	// Load configurations from dotFile
	if err := godotenv.Load(dotFile); err != nil {
		logger.Fatal("Cannot load configurations from .env",
			zap.Error(err),
		)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Cannot load configurations",
			zap.Error(err),
		)
	}

	// Initialize sentry for error reporting
	if err := sentry.Init(sentry.ClientOptions{
		Environment: env,
		Debug:       env != "production",
	}); err != nil {
		logger.Fatal("Cannot initialize sentry",
			zap.Error(err),
		)
	}
	defer sentry.Flush(time.Second * 2)

	// Attach sentry to zap so we can do automatic error capturing
	zapsentryCfg := zapsentry.Configuration{
		Level: zapcore.ErrorLevel,
		Tags: map[string]string{
			"component": "api",
		},
	}
	core, err := zapsentry.NewCore(zapsentryCfg, zapsentry.NewSentryClientFromClient(sentry.CurrentHub().Client()))
	if err != nil {
		logger.Fatal("Cannot initialize zapsentry",
			zap.Error(err),
		)
	}
	logger = zapsentry.AttachCoreToLogger(core, logger)

	gormDB, err := db.New(logger, db.Options{
		URI: cfg.PostgresURI,
	})
	if err != nil {
		logger.Fatal("Cannot connect to Postgres",
			zap.Error(err),
		)
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.RedisURI},
		Password: cfg.RedisPW,
		DB:       0,
	})
	if _, err := rdb.Ping().Result(); err != nil {
		logger.Fatal("Cannot connect to Redis",
			zap.Error(err),
		)
	}
	defer rdb.Close()

	smtpAuth := smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)

	mail, err := mailer.New(mailer.Options{
		SMTPAuth:   smtpAuth,
		Hostname:   cfg.SMTPHost + ":" + cfg.SMTPPort,
		From:       cfg.FromEmail,
		AdminEmail: cfg.AdminEmail,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Mailer",
			zap.Error(err),
		)
	}

	razorpayGateway := gateway.NewRazorpayClient(external.NewRazorpayClient(cfg.RazorpayKeyID, cfg.CheckoutSecret()))

	contentStore, err := content.NewStore(content.StoreOptions{
		Client: external.NewHygraphClient(cfg.HygraphAPI),
		Token:  cfg.HygraphToken,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize content Store",
			zap.Error(err),
		)
	}

	identityStore, err := identity.NewClerkStore(identity.ClerkStoreOptions{
		Users:  external.NewClerkUserClient(cfg.ClerkSecretKey),
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize identity Store",
			zap.Error(err),
		)
	}

	ledgerManager, err := ledger.NewManager(logger, gormDB)
	if err != nil {
		logger.Fatal("Cannot initialize LedgerManager",
			zap.Error(err),
		)
	}

	verificationManager, err := verification.NewManager(verification.ManagerOptions{
		Config:        cfg,
		Gateway:       razorpayGateway,
		IdentityStore: identityStore,
		ContentStore:  contentStore,
		Ledger:        ledgerManager,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize VerificationManager",
			zap.Error(err),
		)
	}

	verificationRouter, err := verification.NewService(verification.ServiceOptions{
		VerificationManager: verificationManager,
		Logger:              logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Verification Service Router",
			zap.Error(err),
		)
	}

	webhookManager, err := webhook.NewManager(webhook.ManagerOptions{
		Config:       cfg,
		ContentStore: contentStore,
		Ledger:       ledgerManager,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize WebhookManager",
			zap.Error(err),
		)
	}

	webhookRouter, err := webhook.NewService(webhook.ServiceOptions{
		WebhookManager: webhookManager,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Webhook Service Router",
			zap.Error(err),
		)
	}

	subscriptionManager, err := subscription.NewManager(subscription.ManagerOptions{
		Gateway:      razorpayGateway,
		ContentStore: contentStore,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize SubscriptionManager",
			zap.Error(err),
		)
	}

	subscriptionRouter, err := subscription.NewService(subscription.ServiceOptions{
		Config:              cfg,
		SubscriptionManager: subscriptionManager,
		Logger:              logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Subscription Service Router",
			zap.Error(err),
		)
	}

	orderManager, err := order.NewManager(order.ManagerOptions{
		Gateway:      razorpayGateway,
		ContentStore: contentStore,
		Redis:        rdb,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize OrderManager",
			zap.Error(err),
		)
	}

	orderRouter, err := order.NewService(order.ServiceOptions{
		Config:       cfg,
		OrderManager: orderManager,
		Mailer:       mail,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Order Service Router",
			zap.Error(err),
		)
	}

	customerRouter, err := customer.NewService(customer.Options{
		ContentStore: contentStore,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Customer Service Router",
			zap.Error(err),
		)
	}

	contactRouter, err := contact.NewService(contact.Options{
		Mailer: mail,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Contact Service Router",
			zap.Error(err),
		)
	}

	adminRouter, err := ledger.NewService(ledger.ServiceOptions{
		LedgerManager: ledgerManager,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Admin Service Router",
			zap.Error(err),
		)
	}

	rootRouter := chi.NewRouter()

	rootRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", webhook.SignatureHeader},
		MaxAge:         300,
	}))

	rootRouter.Route("/api", func(r chi.Router) {
		r.Mount("/verify-payment", verificationRouter.Router())
		r.Mount("/webhook/razorpay", webhookRouter.Router())
		r.Mount("/subscriptions", subscriptionRouter.Router())
		r.Mount("/orders", orderRouter.Router())
		r.Mount("/customers", customerRouter.Router())
		r.Mount("/contact", contactRouter.Router())
		r.Mount("/admin", adminRouter.Router())
	})

	rootRouter.HandleFunc("/pprof/*", pprof.Index)
	rootRouter.HandleFunc("/pprof/cmdline", pprof.Cmdline)
	rootRouter.HandleFunc("/pprof/profile", pprof.Profile)
	rootRouter.HandleFunc("/pprof/symbol", pprof.Symbol)
	rootRouter.HandleFunc("/pprof/trace", pprof.Trace)

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Handler: rootRouter,
		Addr:    cfg.ListenAddr,
	}

	logger.Info("Starting API server",
		zap.String("Addr", cfg.ListenAddr),
	)

	log.Fatalln(srv.ListenAndServe())
}
