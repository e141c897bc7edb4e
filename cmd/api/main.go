package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-receipts-api/internal/config"
	"go-receipts-api/internal/handler"
	"go-receipts-api/internal/model"
	"go-receipts-api/internal/repository"
	"go-receipts-api/internal/service"
	"go-receipts-api/internal/ws"
	"go-receipts-api/pkg/database"
	"go-receipts-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()

	zapLogger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zapLogger.Sync()

	// 2. Setup Storage
	userRepo, receiptRepo := setupStorage(cfg, zapLogger)

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub(zapLogger)
	go wsHub.Run()

	// 4. Dependency Injection (Wiring Layers)
	tokens := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(userRepo, tokens, zapLogger)
	receiptService := service.NewReceiptService(receiptRepo, userRepo, wsHub, zapLogger)

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.Server.AppName,
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 6. Routes
	handler.SetupRoutes(app, handler.Deps{
		AuthService:       authService,
		ReceiptService:    receiptService,
		Hub:               wsHub,
		DefaultLineLength: cfg.Receipt.DefaultLineLength,
		Logger:            zapLogger,
	})

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			zapLogger.Panic("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down server")
	wsHub.Stop()
	if err := app.Shutdown(); err != nil {
		zapLogger.Fatal("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("server exited")
}

func setupStorage(cfg *config.Config, zapLogger *zap.Logger) (repository.UserRepository, repository.ReceiptRepository) {
	switch cfg.Database.Driver {
	case config.StorageMemory:
		zapLogger.Warn("using in-memory storage, data is lost on restart")
		store := repository.NewMemoryStore()
		return store.Users(), store.Receipts()

	case config.StoragePostgres:
		db, err := database.ConnectDB(cfg.Database.DSN(), cfg.Database.LogLevel)
		if err != nil {
			zapLogger.Fatal("connect database", zap.Error(err))
		}
		if err := db.AutoMigrate(&model.User{}, &model.Receipt{}, &model.Product{}); err != nil {
			zapLogger.Fatal("migrate database", zap.Error(err))
		}
		return repository.NewUserRepo(db), repository.NewReceiptRepo(db)

	default:
		zapLogger.Fatal("unknown storage driver", zap.String("driver", cfg.Database.Driver))
		return nil, nil
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
