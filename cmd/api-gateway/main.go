package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

// @title School Timetable API
// @version 1.0.0
// @description Weekly timetable generation and manual cell editing for the school dashboard.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type roster interface {
	ListStreams(ctx context.Context, mode models.TimetableMode) ([]models.ClassStream, error)
	FindStream(ctx context.Context, classID, streamID string) (*models.ClassStream, error)
	ListBindings(ctx context.Context, mode models.TimetableMode) ([]models.DemandBinding, error)
	ListBindingsBySubjectClass(ctx context.Context, subjectID, classID string) ([]models.DemandBinding, error)
	FindSubject(ctx context.Context, id string) (*models.Subject, error)
	FindTeacher(ctx context.Context, id string) (*models.Teacher, error)
	ListActiveTeachers(ctx context.Context) ([]models.Teacher, error)
}

type backends struct {
	db     *sqlx.DB
	redis  *redis.Client
	checks map[string]handler.ReadinessCheck
	logger *zap.Logger
}

func (b *backends) postgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if b.db != nil {
		return b.db, nil
	}
	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := database.RunMigrations(db.DB, b.logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	b.db = db
	b.checks["postgres"] = func(ctx context.Context) error { return db.PingContext(ctx) }
	return db, nil
}

func (b *backends) redisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if b.redis != nil {
		return b.redis, nil
	}
	client, err := cache.NewRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b.redis = client
	b.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return client, nil
}

func (b *backends) Close() {
	if b.db != nil {
		_ = b.db.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

func openRoster(ctx context.Context, cfg *config.Config, b *backends) (roster, error) {
	switch cfg.Roster.Source {
	case config.RosterPostgres:
		db, err := b.postgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return repository.NewRosterRepository(db), nil
	case config.RosterFile, "":
		return repository.LoadMemoryRoster(cfg.Roster.File)
	default:
		return nil, fmt.Errorf("unknown roster source %q", cfg.Roster.Source)
	}
}

func openGridStore(ctx context.Context, cfg *config.Config, b *backends) (service.GridStore, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory, "":
		return repository.NewMemoryGridRepository(), nil
	case config.StoreFile:
		local, err := storage.NewLocalStorage(cfg.Store.Dir)
		if err != nil {
			return nil, err
		}
		return repository.NewFileGridRepository(local), nil
	case config.StorePostgres:
		db, err := b.postgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresGridRepository(db), nil
	case config.StoreRedis:
		client, err := b.redisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return repository.NewRedisGridRepository(client, cfg.Redis.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown grid store backend %q", cfg.Store.Backend)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	periodGrids, err := config.LoadPeriodGrids(cfg.Scheduler.PeriodGridFile)
	if err != nil {
		logr.Fatal("failed to load period grids", zap.Error(err))
	}
	grids, err := service.NewPeriodGrids(periodGrids)
	if err != nil {
		logr.Fatal("invalid period grids", zap.Error(err))
	}

	b := &backends{checks: make(map[string]handler.ReadinessCheck), logger: logr}
	defer b.Close()

	registry, err := openRoster(ctx, cfg, b)
	if err != nil {
		logr.Fatal("failed to open roster", zap.String("source", cfg.Roster.Source), zap.Error(err))
	}
	store, err := openGridStore(ctx, cfg, b)
	if err != nil {
		logr.Fatal("failed to open grid store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	validate := validator.New()
	generator := service.NewTimetableGeneratorService(grids, registry, registry, store, metricsSvc, validate, logr, service.TimetableGeneratorConfig{
		MaxSubjectPerDay: cfg.Scheduler.MaxSubjectPerDay,
		Seed:             cfg.Scheduler.Seed,
	})
	editor := service.NewTimetableEditorService(grids, registry, registry, registry, registry, store, metricsSvc, validate, logr, cfg.Scheduler.MaxSubjectPerDay)

	timetableHandler := handler.NewTimetableHandler(generator, editor)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, b.checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsSvc != nil {
		r.Use(internalmiddleware.Metrics(metricsSvc))
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var guards []gin.HandlerFunc
	if cfg.JWT.Enabled {
		guards = append(guards,
			internalmiddleware.JWT(service.NewTokenService(cfg.JWT.Secret)),
			internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin),
		)
	} else {
		logr.Warn("authentication disabled; timetable write routes are open")
	}
	timetableHandler.Register(r.Group(cfg.APIPrefix), guards...)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting",
			zap.String("addr", addr),
			zap.String("env", cfg.Env),
			zap.String("grid_store", cfg.Store.Backend),
			zap.String("roster", cfg.Roster.Source),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logr.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
