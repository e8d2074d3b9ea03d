package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"authapi/internal/config"
	"authapi/internal/handlers"
	"authapi/internal/middleware"
	"authapi/internal/repositories"
	"authapi/internal/services"
	"authapi/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// application owns every long-lived resource of the process.
type application struct {
	cfg         *config.Config
	db          *gorm.DB
	sqlDB       *sql.DB
	fiber       *fiber.App
	authService *services.AuthService
	mq          *rabbitmq.Client // nil when events are disabled
}

// newApp connects to the database (and RabbitMQ when configured), migrates the
// schema and wires repositories, services and handlers into a Fiber app.
func newApp(ctx context.Context, cfg *config.Config) (*application, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if cfg.DatabaseDriver == config.DriverSQLite {
		// sqlite allows a single writer; queue writers in the pool instead of failing with "database is locked"
		sqlDB.SetMaxOpenConns(1)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	if err := userRepo.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}

	app := &application{
		cfg:   cfg,
		db:    db,
		sqlDB: sqlDB,
	}

	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, user events disabled")
		} else {
			app.mq = mq
			events = mq
		}
	}

	app.authService = services.NewAuthService(
		userRepo,
		services.NewBcryptHasher(cfg.BcryptCost),
		services.NewRandomTokenIssuer(),
		events,
	)
	app.fiber = newRouter(cfg, app.authService, sqlDB)
	return app, nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseDSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func newRouter(cfg *config.Config, authService *services.AuthService, db handlers.Pinger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "authapi",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowedOrigins}))

	handlers.NewSystemHandler(db).RegisterRoutes(app)
	handlers.NewAuthHandler(authService).RegisterRoutes(app)
	handlers.NewUserHandler(authService).RegisterRoutes(app, middleware.AuthRequired(authService))

	return app
}

// startConsumer logs every user event when RabbitMQ is configured.
func (a *application) startConsumer() error {
	if a.mq == nil {
		return nil
	}
	return a.mq.ConsumeUserEvents(rabbitmq.LogUserEvent)
}

// close stops the HTTP server and releases the broker and database connections.
func (a *application) close() error {
	var errs []error
	if a.fiber != nil {
		if err := a.fiber.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
		}
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.sqlDB != nil {
		if err := a.sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}
	return errors.Join(errs...)
}
