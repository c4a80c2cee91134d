package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Skufu/apptrisk/internal/artifact"
	"github.com/Skufu/apptrisk/internal/logger"
	"github.com/Skufu/apptrisk/internal/predictlog"
	"github.com/Skufu/apptrisk/internal/predictor"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Port         string
	LogLevel     string
	ModelDir     string
	LogPath      string
	StaticRoot   string
	DatabaseURL  string
	EnableDB     bool
	RedisURL     string
	RedisChannel string
}

func main() {
	gin.SetMode(getEnv("GIN_MODE", "release"))

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	bundle, err := artifact.Load(cfg.ModelDir)
	if err != nil {
		log.Fatal("failed to load model artifacts", zap.String("dir", cfg.ModelDir), zap.Error(err))
	}
	log.Info("model artifacts loaded",
		zap.String("dir", cfg.ModelDir),
		zap.String("model_version", bundle.ModelVersion),
		zap.Int("doctors", len(bundle.Doctors.Classes())),
		zap.Int("appointment_types", len(bundle.AppointmentTypes.Classes())),
	)

	ctx := context.Background()
	predictionLog := predictlog.NewCSVLog(cfg.LogPath)
	var opts []predictor.Option

	var db HealthChecker
	if cfg.EnableDB {
		pool, err := connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		defer pool.Close()

		sink, err := predictlog.NewPostgresSink(ctx, pool)
		if err != nil {
			log.Fatal("prediction_log table setup failed", zap.Error(err))
		}
		opts = append(opts, predictor.WithMirror("postgres", sink))
		db = pool
		log.Info("database connected")
	}

	if cfg.RedisURL != "" {
		redisClient, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, skipping prediction events", zap.Error(err))
		} else {
			defer redisClient.Close()
			opts = append(opts, predictor.WithMirror("redis", predictlog.NewRedisSink(redisClient, cfg.RedisChannel)))
			log.Info("redis connected", zap.String("channel", cfg.RedisChannel))
		}
	}

	svc := predictor.New(bundle, predictionLog, log, opts...)

	staticRoot := cfg.StaticRoot
	if staticRoot == "" {
		staticRoot = detectStaticRoot()
	}
	router := setupRouter(svc, predictionLog, db, staticRoot, log)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	log.Info("server listening", zap.String("port", cfg.Port), zap.String("log_path", cfg.LogPath))
	waitForShutdown(server, log)
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		ModelDir:     getEnv("MODEL_DIR", "models"),
		LogPath:      getEnv("PREDICTION_LOG_PATH", "prediction_log.csv"),
		StaticRoot:   os.Getenv("STATIC_ROOT"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		EnableDB:     strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
		RedisURL:     os.Getenv("REDIS_URL"),
		RedisChannel: getEnv("REDIS_CHANNEL", "noshow:predictions"),
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}

	return cfg, nil
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func waitForShutdown(server *http.Server, log *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// detectStaticRoot looks for web/index.html in the working directory and up
// to two parents so the binary can run from cmd/server during development.
func detectStaticRoot() string {
	startDir, err := os.Getwd()
	if err != nil {
		return "web"
	}

	candidates := []string{
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, dir := range candidates {
		web := filepath.Join(dir, "web")
		if fileExists(filepath.Join(web, "index.html")) {
			return web
		}
	}

	return filepath.Join(startDir, "web")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
