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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/learntrack/backend/docs"
	authMiddleware "github.com/learntrack/backend/internal/auth/middleware"
	authService "github.com/learntrack/backend/internal/auth/service"
	"github.com/learntrack/backend/internal/cache"
	"github.com/learntrack/backend/internal/config"
	"github.com/learntrack/backend/internal/handlers"
	"github.com/learntrack/backend/internal/logger"
	"github.com/learntrack/backend/internal/middlewares"
	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/internal/repositories"
	"github.com/learntrack/backend/internal/services"
)

const maxRequestSize = 1 * 1024 * 1024 // 1MB, JSON payloads only

// @title LearnTrack API
// @version 1.0
// @description API for course progress, attendance and the achievement leaderboard
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description JWT access token, format: Bearer <token>
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting LearnTrack API")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to Redis for the leaderboard snapshot cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Initialize JWT token generator (for auth middleware)
	tokenGenerator := authService.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Initialize repositories
	courseRepo := repositories.NewCourseRepository(db)
	enrollmentRepo := repositories.NewEnrollmentRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	attendanceRepo := repositories.NewAttendanceRepository(db)
	achievementRepo := repositories.NewAchievementRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// Initialize services. The keyed mutex is shared so all writers of one
	// enrollment or attendance record serialize on the same lock.
	locks := services.NewKeyedMutex()
	enrollmentService := services.NewEnrollmentService(enrollmentRepo, courseRepo, locks)
	progressService := services.NewProgressService(enrollmentRepo, courseRepo, locks)
	attendanceService := services.NewAttendanceService(attendanceRepo, eventRepo, enrollmentRepo, locks)
	achievementService := services.NewAchievementService(achievementRepo, userRepo)
	leaderboardCache := cache.NewLeaderboardCache(redisClient, cfg.Leaderboard.CacheTTL)
	leaderboardService := services.NewLeaderboardService(
		achievementRepo, enrollmentRepo, userRepo, progressService, leaderboardCache,
	)

	// Initialize middleware
	authMw := authMiddleware.AuthMiddleware(tokenGenerator, cfg.AdminUserID)
	instructorMw := authMiddleware.RoleMiddleware(tokenGenerator, models.RoleInstructor, cfg.AdminUserID)
	adminMw := authMiddleware.RoleMiddleware(tokenGenerator, models.RoleAdmin, cfg.AdminUserID)
	apiKeyMw := authMiddleware.APIKeyMiddleware(cfg.APIKey)

	// Initialize handlers
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService, logger.Logger)
	progressHandler := handlers.NewProgressHandler(progressService, logger.Logger)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService, logger.Logger)
	achievementHandler := handlers.NewAchievementHandler(achievementService, logger.Logger)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(middlewares.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(maxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		enrollmentHandler.RegisterRoutes(r, authMw, adminMw, apiKeyMw)
		progressHandler.RegisterRoutes(r, authMw)
		attendanceHandler.RegisterRoutes(r, authMw, instructorMw)
		achievementHandler.RegisterRoutes(r, authMw, adminMw)
		leaderboardHandler.RegisterRoutes(r, authMw)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "learntrack_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
