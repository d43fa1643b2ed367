package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	v1 "github.com/Requiemgoi/integrity-os/internal/controller/http/v1"
	"github.com/Requiemgoi/integrity-os/internal/controller/ws"
	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
	"github.com/Requiemgoi/integrity-os/internal/domain/usecase"
	psqlRepo "github.com/Requiemgoi/integrity-os/internal/repository/psql"
	"github.com/Requiemgoi/integrity-os/internal/repository/rabbitmq"
	redisRepo "github.com/Requiemgoi/integrity-os/internal/repository/redis"
	s3Repo "github.com/Requiemgoi/integrity-os/internal/repository/s3"
	"github.com/Requiemgoi/integrity-os/pkg/client/llm"
	"github.com/Requiemgoi/integrity-os/pkg/client/psql"
	redisClient "github.com/Requiemgoi/integrity-os/pkg/client/redis"
	s3Client "github.com/Requiemgoi/integrity-os/pkg/client/s3"
	"github.com/Requiemgoi/integrity-os/pkg/middleware"
)

const (
	alertsExchange   = "alerts.exchange"
	alertsRoutingKey = "alerts.created"
	alertsQueue      = "alerts.ws"
)

type Config struct {
	HTTPPort string

	PSQLHost     string
	PSQLPort     int
	PSQLUser     string
	PSQLPassword string
	PSQLDBName   string
	PSQLSSLMode  string

	RedisAddr string
	RedisDB   int

	S3Host      string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	RabbitMQURL string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	StreamInterval time.Duration
}

func main() {
	cfg := loadConfig()

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := psql.NewPostgresDB(psql.Config{
		Host:     cfg.PSQLHost,
		Port:     cfg.PSQLPort,
		User:     cfg.PSQLUser,
		Password: cfg.PSQLPassword,
		DBName:   cfg.PSQLDBName,
		SslMode:  cfg.PSQLSSLMode,
	})
	if err != nil {
		logger.Fatalw("postgres connection failed", "error", err)
	}

	if err := db.AutoMigrate(
		&entity.SensorReading{},
		&entity.Alert{},
		&entity.KPI{},
		&entity.Pipeline{},
		&entity.Object{},
		&entity.Defect{},
	); err != nil {
		logger.Fatalw("auto migration failed", "error", err)
	}

	rdb, err := redisClient.NewRedisClient(ctx, redisClient.Config{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err != nil {
		logger.Fatalw("redis connection failed", "error", err)
	}

	storage, err := s3Client.NewS3Client(cfg.S3Host, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		logger.Fatalw("s3 connection failed", "error", err)
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalw("rabbitmq connection failed", "error", err)
	}
	defer conn.Close()

	alertPublisher, err := rabbitmq.NewRabbitPublisher(conn, alertsExchange, alertsRoutingKey)
	if err != nil {
		logger.Fatalw("rabbitmq publisher init failed", "error", err)
	}
	defer alertPublisher.Close()

	readingRepo := psqlRepo.NewGormReadingRepo(db)
	alertRepo := psqlRepo.NewGormAlertRepo(db)
	kpiRepo := psqlRepo.NewGormKPIRepo(db)
	defectRepo := psqlRepo.NewGormDefectRepo(db)
	objectRepo := psqlRepo.NewGormObjectRepo(db)
	pipelineRepo := psqlRepo.NewGormPipelineRepo(db)
	snapshotRepo := redisRepo.NewSnapshotRepo(rdb)
	reportRepo := s3Repo.NewS3Repo(storage)

	var llmClient usecase.LLMClient
	if c := llm.New(llm.Config{APIKey: cfg.LLMAPIKey, BaseURL: cfg.LLMBaseURL, Model: cfg.LLMModel}); c != nil {
		llmClient = c
	} else {
		logger.Info("LLM API key not set, AI refinement disabled")
	}

	sensorUC := usecase.NewSensorUseCase(readingRepo, snapshotRepo, logger)
	simulatorUC := usecase.NewSimulatorUseCase(readingRepo, kpiRepo, snapshotRepo, time.Now().UnixNano(), logger)
	alertUC := usecase.NewAlertUseCase(alertRepo, alertPublisher, logger)
	dashboardUC := usecase.NewDashboardUseCase(readingRepo, alertRepo, kpiRepo, defectRepo)
	analyticsUC := usecase.NewAnalyticsUseCase(readingRepo)
	defectUC := usecase.NewDefectUseCase(defectRepo, objectRepo, pipelineRepo, defectRepo)
	importUC := usecase.NewImportUseCase(defectRepo, logger)
	riskUC := usecase.NewRiskUseCase(llmClient, logger)
	reportUC := usecase.NewReportUseCase(defectRepo, reportRepo)

	sensorHandler := v1.NewSensorHandler(sensorUC, simulatorUC, alertUC)
	dashboardHandler := v1.NewDashboardHandler(dashboardUC, simulatorUC, alertUC)
	analyticsHandler := v1.NewAnalyticsHandler(analyticsUC)
	defectHandler := v1.NewDefectHandler(defectUC, importUC)
	aiHandler := v1.NewAIHandler(riskUC)
	reportHandler := v1.NewReportHandler(reportUC)

	hub := ws.NewHub(logger)

	consumer, err := rabbitmq.NewAlertConsumer(conn, alertsExchange, alertsRoutingKey, alertsQueue, hub, logger)
	if err != nil {
		logger.Fatalw("rabbitmq consumer init failed", "error", err)
	}
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Errorw("alert consumer stopped", "error", err)
		}
	}()

	streamer := ws.NewStreamer(simulatorUC, alertUC, hub, cfg.StreamInterval, logger)
	go streamer.Run(ctx)

	r := gin.Default()
	r.Use(middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", hub.Handle)

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())
	api.Use(middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RedisClient: rdb,
		Limit:       100,
		Window:      time.Minute,
	}))
	{
		api.GET("/sensors/types", sensorHandler.GetTypes)
		api.GET("/sensors/:sensor_type/data", sensorHandler.GetData)
		api.GET("/sensors/:sensor_type/latest", sensorHandler.GetLatest)
		api.GET("/sensors/:sensor_type/insights", sensorHandler.GetInsights)
		api.POST("/sensors/:sensor_type/simulate", sensorHandler.Simulate)
		api.POST("/sensors/:sensor_type/data", sensorHandler.IngestData)

		api.GET("/dashboard/kpis", dashboardHandler.GetKPIs)
		api.POST("/dashboard/kpis/generate", dashboardHandler.GenerateKPIs)
		api.GET("/dashboard/alerts", dashboardHandler.GetAlerts)
		api.POST("/dashboard/alerts/:id/resolve", dashboardHandler.ResolveAlert)
		api.GET("/dashboard/summary", dashboardHandler.GetSummary)
		api.GET("/dashboard/widgets", dashboardHandler.GetWidgets)

		api.GET("/analytics/trends", analyticsHandler.GetTrends)

		api.GET("/defects", defectHandler.List)
		api.GET("/defects/:id", defectHandler.Get)
		api.POST("/defects/import", defectHandler.Import)
		api.GET("/stats/methods", defectHandler.MethodStats)
		api.GET("/stats/severity", defectHandler.SeverityStats)
		api.GET("/stats/top_risks", defectHandler.TopRisks)
		api.GET("/stats/inspections_by_year", defectHandler.InspectionsByYear)
		api.GET("/objects", defectHandler.ListObjects)
		api.GET("/objects/:id", defectHandler.GetObject)
		api.GET("/pipelines", defectHandler.ListPipelines)

		api.POST("/ai/defect/evaluate", aiHandler.EvaluateDefect)
		api.POST("/ai/defects/summary", aiHandler.DefectsSummary)

		api.GET("/reports/defects/export", reportHandler.ExportDefects)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	go func() {
		logger.Infow("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("http server shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

func loadConfig() Config {
	if err := godotenv.Load("./.env.local"); err != nil {
		log.Println("No .env file found. Falling back to OS environment variables.")
	}
	mustGetEnv := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			log.Fatalf("Environment variable %s is not set", key)
		}
		return val
	}
	getEnv := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	psqlPort, err := strconv.Atoi(mustGetEnv("PSQL_PORT"))
	if err != nil {
		log.Fatalf("Invalid PSQL_PORT value: %v", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		log.Fatalf("Invalid REDIS_DB value: %v", err)
	}

	streamInterval, err := time.ParseDuration(getEnv("STREAM_INTERVAL", "5s"))
	if err != nil {
		log.Fatalf("Invalid STREAM_INTERVAL value: %v", err)
	}

	rabbitMQURL := "amqp://" + mustGetEnv("RABBITMQ_USER") + ":" + mustGetEnv("RABBITMQ_PASSWORD") +
		"@" + mustGetEnv("RABBITMQ_HOST") + ":" + mustGetEnv("RABBITMQ_PORT") + "/"

	return Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		PSQLHost:     mustGetEnv("PSQL_HOST"),
		PSQLPort:     psqlPort,
		PSQLUser:     mustGetEnv("PSQL_USER"),
		PSQLPassword: mustGetEnv("PSQL_PASSWORD"),
		PSQLDBName:   mustGetEnv("PSQL_DB"),
		PSQLSSLMode:  mustGetEnv("PSQL_SSLMODE"),

		RedisAddr: mustGetEnv("REDIS_HOST") + ":" + mustGetEnv("REDIS_PORT"),
		RedisDB:   redisDB,

		S3Host:      mustGetEnv("S3_HOST") + ":" + mustGetEnv("S3_PORT"),
		S3Bucket:    mustGetEnv("S3_BUCKET"),
		S3AccessKey: mustGetEnv("S3_ACCESS_KEY"),
		S3SecretKey: mustGetEnv("S3_SECRET_KEY"),

		RabbitMQURL: rabbitMQURL,

		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMBaseURL: os.Getenv("LLM_BASE_URL"),
		LLMModel:   os.Getenv("LLM_MODEL"),

		StreamInterval: streamInterval,
	}
}
