package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Skufu/apptrisk/internal/appointment"
	"github.com/Skufu/apptrisk/internal/artifact"
	"github.com/Skufu/apptrisk/internal/predictor"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const logDownloadName = "prediction_log.csv"

type Predictor interface {
	Predict(ctx context.Context, in appointment.Input) (predictor.Result, error)
	Options() appointment.Options
}

type LogFile interface {
	Path() string
	Exists() bool
}

func setupRouter(svc Predictor, logFile LogFile, db HealthChecker, staticRoot string, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		requestLogger(log),
		gin.Recovery(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.Static("/static", staticRoot)
	router.StaticFile("/", filepath.Join(staticRoot, "index.html"))
	router.StaticFile("/styles.css", filepath.Join(staticRoot, "styles.css"))
	router.StaticFile("/app.js", filepath.Join(staticRoot, "app.js"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     fmt.Sprintf("unhealthy: %v", err),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	api.GET("/options", func(c *gin.Context) {
		opts := svc.Options()
		opts.LogAvailable = logFile.Exists()
		c.JSON(http.StatusOK, opts)
	})

	api.POST("/predict", func(c *gin.Context) {
		var in appointment.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload", "message": "request body must be a JSON prediction form"})
			return
		}

		result, err := svc.Predict(c.Request.Context(), in)
		if err != nil {
			status, body := predictError(err)
			if status == http.StatusInternalServerError {
				log.Error("prediction failed", zap.Error(err))
			}
			c.JSON(status, body)
			return
		}

		c.JSON(http.StatusOK, result)
	})

	api.GET("/log", func(c *gin.Context) {
		if !logFile.Exists() {
			c.JSON(http.StatusNotFound, gin.H{"error": "log_not_found", "message": "no predictions have been logged yet"})
			return
		}
		c.Header("Content-Type", "text/csv")
		c.FileAttachment(logFile.Path(), logDownloadName)
	})

	return router
}

func predictError(err error) (int, gin.H) {
	switch {
	case errors.Is(err, appointment.ErrInvalidInput):
		return http.StatusBadRequest, gin.H{"error": "invalid_input", "message": err.Error()}
	case errors.Is(err, artifact.ErrUnknownLabel):
		return http.StatusUnprocessableEntity, gin.H{"error": "unknown_label", "message": err.Error()}
	default:
		return http.StatusInternalServerError, gin.H{"error": "prediction_failed", "message": "prediction failed"}
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
