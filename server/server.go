package server

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dpstore/cache"
	"dpstore/config"
	"dpstore/core/account"
	"dpstore/core/auth"
	"dpstore/core/mail"
	"dpstore/db"
	"dpstore/logger"
	"dpstore/model"
	"dpstore/repository"
	"dpstore/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until SIGINT
// or SIGTERM.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	auth.Init(cfg.JWTSecret, time.Duration(cfg.JWTExpireHours)*time.Hour)

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.Package{}, &model.Subscription{}); err != nil {
		logger.Fatal("Failed to migrate subscription models", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()
	cache.Init(db.RedisClient)
	logger.Info("Successfully connected to Redis")

	userRepo := repository.NewMySQLUserRepository(db.DB)
	profileRepo := repository.NewMySQLProfileRepository(db.DB)
	deviceRepo := repository.NewMySQLDeviceRepository(db.DB)
	categoryRepo := repository.NewMySQLCategoryRepository(db.DB)
	productRepo := repository.NewMySQLProductRepository(db.DB)
	packageRepo := repository.NewGormPackageRepository(db.GormDB)
	subRepo := repository.NewGormSubscriptionRepository(db.GormDB)

	accounts := account.NewManager(userRepo)
	mailer := mail.NewMailer(cfg)

	apiHandler := NewAPIHandler(accounts, userRepo, profileRepo, deviceRepo,
		categoryRepo, productRepo, packageRepo, subRepo, mailer, cfg)

	router := NewRouter(apiHandler)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")
	server.Close()
}

// NewRouter builds the route table.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Auth
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)

	// Users
	router.HandleFunc("/api/users/me/profile", h.AuthMiddleware(h.GetProfileHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/users/me/profile", h.AuthMiddleware(h.UpdateProfileHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/users/me/avatar", h.AuthMiddleware(h.UploadAvatarHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/users/me/devices", h.AuthMiddleware(h.RegisterDeviceHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/users/me/devices", h.AuthMiddleware(h.ListDevicesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/users/provinces", h.ListProvincesHandler).Methods(http.MethodGet)

	// Catalog (public reads)
	router.HandleFunc("/api/categories", h.GetCategoriesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/products", h.GetProductsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/products/{id}", h.GetProductHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/files/{id}/download", h.AuthMiddleware(h.DownloadFileHandler)).Methods(http.MethodGet)

	// Subscriptions
	router.HandleFunc("/api/subs/packages", h.GetPackagesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/subs/mine", h.AuthMiddleware(h.GetMySubscriptionsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/subs/purchase", h.AuthMiddleware(h.PurchaseHandler)).Methods(http.MethodPost)

	// Admin (staff only)
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return h.AuthMiddleware(h.StaffMiddleware(next))
	}
	router.HandleFunc("/api/admin/categories", admin(h.AdminListCategoriesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/admin/categories", admin(h.AdminCreateCategoryHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/categories/{id}", admin(h.AdminUpdateCategoryHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/admin/categories/{id}", admin(h.AdminDeleteCategoryHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/admin/products", admin(h.AdminListProductsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/admin/products", admin(h.AdminCreateProductHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/products/{id}", admin(h.AdminUpdateProductHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/admin/products/{id}", admin(h.AdminDeleteProductHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/admin/products/{id}/files", admin(h.AdminUploadFileHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/files/{id}", admin(h.AdminDeleteFileHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/admin/packages", admin(h.AdminListPackagesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/admin/packages", admin(h.AdminCreatePackageHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/packages/{id}", admin(h.AdminUpdatePackageHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/admin/packages/{id}", admin(h.AdminDeletePackageHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/admin/users", admin(h.AdminCreateUserHandler)).Methods(http.MethodPost)

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
