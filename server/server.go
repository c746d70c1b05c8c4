package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"ratemyfit/cache"
	"ratemyfit/config"
	"ratemyfit/core/account"
	"ratemyfit/core/mail"
	"ratemyfit/core/provider"
	"ratemyfit/db"
	"ratemyfit/logger"
	"ratemyfit/model"
	"ratemyfit/repository"
	"ratemyfit/session"
	"ratemyfit/storage"
)

// Start initializes dependencies and runs the HTTP server until interrupted.
func Start() {
	cfg := config.Load()

	logLevel := logger.InfoLevel
	if !cfg.IsProduction() {
		logLevel = logger.DebugLevel
	}
	logger.InitLogger(logger.Config{
		Level:      logLevel,
		OutputPath: "logs/ratemyfit.log",
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect GORM: %v", err)
	}
	defer db.CloseGormDB()

	// Connect to Redis
	if err := db.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer db.CloseRedis()

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := db.AutoMigrateModels(&model.Outfit{}, &model.VerificationCode{}); err != nil {
		log.Fatalf("Failed to migrate models: %v", err)
	}

	ensureDirExists(cfg.PublicDir)
	ensureDirExists(cfg.UploadDir)

	var uploads storage.UploadStore
	var err error
	switch cfg.StorageBackend {
	case "minio":
		uploads, err = storage.NewMinioStore(cfg)
	default:
		uploads, err = storage.NewLocalStore(cfg.UploadDir)
	}
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	outfitRepo := repository.NewGormOutfitRepository(db.GormDB)
	codeRepo := repository.NewGormVerificationRepository(db.GormDB)

	var mailer mail.Sender
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		mailer = mail.NewNoopSender()
	}

	resolver := account.NewResolver(userRepo)
	verifier := account.NewVerifier(userRepo, codeRepo, mailer)
	sessions := session.NewManager(session.NewRedisStore(db.RedisClient), cfg.IsProduction())
	trending := cache.NewTrendingCache(db.RedisClient)
	limiter := cache.NewRateLimiter(db.RedisClient)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go verifier.SweepLoop(sweepCtx, time.Hour)

	providers := provider.NewClients(map[model.Provider]provider.Credentials{
		model.ProviderGoogle: {
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/auth/google/callback",
		},
		model.ProviderGitHub: {
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.BaseURL + "/auth/github/callback",
		},
	})
	states := provider.NewStateSigner(cfg.SessionSecret)

	views, err := NewRenderer(cfg.ViewsDir, !cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	h := NewHandler(cfg, userRepo, outfitRepo, resolver, verifier, sessions, providers, states, uploads, trending, limiter, views)

	router := mux.NewRouter()
	router.Use(h.recoverMiddleware, h.securityHeaders, h.logMiddleware, h.sessionMiddleware, h.csrfMiddleware)

	// Credential guessing and OAuth churn share one tight cap per IP.
	const authLimitMsg = "Too many login attempts from this IP, please try again after an hour"
	authLimit := func(next http.HandlerFunc) http.HandlerFunc {
		return h.rateLimit("auth", 10, time.Hour, authLimitMsg, next)
	}

	router.HandleFunc("/", h.Home).Methods(http.MethodGet)

	// Local credential flow
	router.HandleFunc("/login", h.LoginPage).Methods(http.MethodGet)
	router.HandleFunc("/login", authLimit(h.Login)).Methods(http.MethodPost)
	router.HandleFunc("/register", h.RegisterPage).Methods(http.MethodGet)
	router.HandleFunc("/register", authLimit(h.Register)).Methods(http.MethodPost)
	router.HandleFunc("/verify", h.VerifyPage).Methods(http.MethodGet)
	router.HandleFunc("/verify", authLimit(h.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/resend-verification", authLimit(h.ResendVerification)).Methods(http.MethodGet)
	router.HandleFunc("/logout", h.Logout).Methods(http.MethodGet)

	// OAuth flow
	router.HandleFunc("/auth/{provider}", authLimit(h.OAuthRedirect)).Methods(http.MethodGet)
	router.HandleFunc("/auth/{provider}/callback", authLimit(h.OAuthCallback)).Methods(http.MethodGet)

	// Trending is the public shop window; everything else needs a login.
	router.HandleFunc("/trending", h.Trending).Methods(http.MethodGet)

	// Authenticated pages
	router.HandleFunc("/dashboard", h.requireAuth(h.Dashboard)).Methods(http.MethodGet)
	router.HandleFunc("/upload", h.requireAuth(h.Upload)).Methods(http.MethodPost)
	router.HandleFunc("/vote", h.requireAuth(h.Vote)).Methods(http.MethodPost)
	router.HandleFunc("/profile", h.requireAuth(h.ProfilePage)).Methods(http.MethodGet)
	router.HandleFunc("/profile", h.requireAuth(h.UpdateProfile)).Methods(http.MethodPost)
	router.HandleFunc("/complete-profile", h.requireAuth(h.CompleteProfilePage)).Methods(http.MethodGet)
	router.HandleFunc("/complete-profile", h.requireAuth(h.CompleteProfile)).Methods(http.MethodPost)
	router.HandleFunc("/update-my-avatar", h.requireAuth(h.UpdateMyAvatar)).Methods(http.MethodGet)

	// Uploaded images go through the storage backend so local and MinIO
	// deployments serve the same URLs.
	router.HandleFunc("/uploads/{file}", h.ServeUpload).Methods(http.MethodGet)

	// Remaining static assets
	router.PathPrefix("/css/").Handler(http.FileServer(http.Dir(cfg.PublicDir)))
	router.PathPrefix("/js/").Handler(http.FileServer(http.Dir(cfg.PublicDir)))
	router.PathPrefix("/img/").Handler(http.FileServer(http.Dir(cfg.PublicDir)))

	router.NotFoundHandler = http.HandlerFunc(h.NotFound)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", server.Addr), logger.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("server stopped")
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", path, err)
		}
	} else if err != nil {
		log.Fatalf("Failed to check directory %s: %v", path, err)
	}
}
