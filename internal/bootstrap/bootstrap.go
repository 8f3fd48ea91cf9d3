package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	appControllers "github.com/yigit/enrollhub/internal/app/controllers"
	appMigrations "github.com/yigit/enrollhub/internal/app/migrations"
	appRepos "github.com/yigit/enrollhub/internal/app/repositories"
	"github.com/yigit/enrollhub/internal/app/repositories/memory"
	appRoutes "github.com/yigit/enrollhub/internal/app/routes"
	"github.com/yigit/enrollhub/internal/app/rules"
	appServices "github.com/yigit/enrollhub/internal/app/services"
	"github.com/yigit/enrollhub/internal/config"
	"github.com/yigit/enrollhub/internal/db"
	appMiddleware "github.com/yigit/enrollhub/internal/middleware"
	pkgAuth "github.com/yigit/enrollhub/internal/pkg/auth"
	"github.com/yigit/enrollhub/internal/pkg/logger"
	"github.com/yigit/enrollhub/internal/pkg/tracing"
	"github.com/yigit/enrollhub/internal/pkg/websocket"
	"github.com/yigit/enrollhub/internal/seed"
)

// DefaultConfigPath is read when no other path is given
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store                 appRepos.Store
	Services              *appServices.Services
	StudentController     *appControllers.StudentController
	CourseController      *appControllers.CourseController
	EnrollmentController  *appControllers.EnrollmentController
	DiagnosticsController *appControllers.DiagnosticsController
	ChangeFeedController  *appControllers.ChangeFeedController
	ChangeHub             *websocket.Hub                // started by the server
	AuthMiddleware        *appMiddleware.AuthMiddleware // nil when auth is disabled
	JWTService            *pkgAuth.JWTService
	Logger                zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.ConfigFrom(cfg.Logging.Level, cfg.Logging.Format, cfg.Tracing.ServiceName))

	lgr := logger.Get()
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupTracing installs the tracer provider described by the configuration.
func SetupTracing(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (tracing.ShutdownFunc, error) {
	shutdown, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Server.Mode,
	})
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize tracing")
		return nil, err
	}
	if cfg.Tracing.Enabled {
		lgr.Info().Str("exporter", cfg.Tracing.Exporter).Float64("sampleRatio", cfg.Tracing.SampleRatio).Msg("Tracing enabled")
	}
	return shutdown, nil
}

// SetupStore opens the configured store and runs migrations when asked to.
// The returned close function releases the store's resources.
func SetupStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (appRepos.Store, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		lgr.Warn().Msg("Using the in-memory store; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if cfg.Database.Migrate {
		lgr.Info().Msg("Running database migrations...")
		if err := appMigrations.NewMigrator(database.Pool).Migrate(ctx); err != nil {
			lgr.Error().Err(err).Msg("Database migration error")
			database.Close()
			return nil, nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Msg("Database migrations successfully applied.")
	}

	return appRepos.NewRepositories(database), database.Close, nil
}

// BuildDependencies initializes services, controllers and auth over store.
func BuildDependencies(cfg *config.Config, store appRepos.Store, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{Store: store, Logger: lgr}

	engine := rules.NewEngine(rules.Options{StrictStatus: cfg.Enrollment.StrictStatus})
	deps.ChangeHub = websocket.NewHub(lgr)
	deps.Services = appServices.NewServices(store, engine, lgr, appServices.WithPublisher(deps.ChangeHub))

	if cfg.Auth.Enabled {
		deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
			SecretKey:   cfg.Auth.Secret,
			TokenTTL:    cfg.TokenTTL(),
			TokenIssuer: cfg.Auth.Issuer,
		})
		deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	} else {
		lgr.Warn().Msg("Authentication is disabled; mutating routes are open")
	}

	deps.StudentController = appControllers.NewStudentController(deps.Services.StudentService)
	deps.CourseController = appControllers.NewCourseController(deps.Services.CourseService)
	deps.EnrollmentController = appControllers.NewEnrollmentController(deps.Services.EnrollmentService)
	deps.DiagnosticsController = appControllers.NewDiagnosticsController(deps.Services.DiagnosticsService)
	deps.ChangeFeedController = appControllers.NewChangeFeedController(websocket.NewHandler(deps.ChangeHub, cfg.Server.CORSOrigins))

	return deps
}

// SeedIfEnabled creates the demo data when the configuration asks for it.
// Failures are logged and do not stop the startup.
func SeedIfEnabled(ctx context.Context, cfg *config.Config, deps *Dependencies) {
	if !cfg.Seed.Enabled {
		return
	}
	if err := seed.CreateDefaultData(ctx, deps.Services, deps.Logger); err != nil {
		deps.Logger.Error().Err(err).Msg("Failed to create demo data, proceeding anyway...")
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.Tracing.ServiceName),
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.CORS(cfg.Server.CORSOrigins),
	)

	appRoutes.SetupRouter(router,
		deps.StudentController,
		deps.CourseController,
		deps.EnrollmentController,
		deps.DiagnosticsController,
		deps.ChangeFeedController,
		deps.AuthMiddleware,
	)

	// Liveness endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
