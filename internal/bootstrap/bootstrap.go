package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/gtech-mulearn/mulearn/internal/app/controllers"
	appMigrations "github.com/gtech-mulearn/mulearn/internal/app/migrations"
	appRepos "github.com/gtech-mulearn/mulearn/internal/app/repositories"
	appRoutes "github.com/gtech-mulearn/mulearn/internal/app/routes"
	appServices "github.com/gtech-mulearn/mulearn/internal/app/services"
	"github.com/gtech-mulearn/mulearn/internal/config"
	"github.com/gtech-mulearn/mulearn/internal/db"
	appMiddleware "github.com/gtech-mulearn/mulearn/internal/middleware"
	pkgAuth "github.com/gtech-mulearn/mulearn/internal/pkg/auth"
	"github.com/gtech-mulearn/mulearn/internal/pkg/discord"
	"github.com/gtech-mulearn/mulearn/internal/pkg/eventbus"
	"github.com/gtech-mulearn/mulearn/internal/pkg/helpers"
	"github.com/gtech-mulearn/mulearn/internal/pkg/kkem"
	"github.com/gtech-mulearn/mulearn/internal/pkg/logger"
	"github.com/gtech-mulearn/mulearn/internal/pkg/metrics"
	"github.com/gtech-mulearn/mulearn/internal/pkg/validation"
	"github.com/gtech-mulearn/mulearn/internal/pkg/websocket"
	"github.com/gtech-mulearn/mulearn/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos      *appRepos.Repositories
	Transactor appRepos.Transactor
	JWTService *pkgAuth.JWTService
	Bus        eventbus.Bus
	Metrics    *metrics.Provider

	LeaderboardService appServices.LeaderboardService
	LiveCounts         *appServices.LiveCountsService
	DiscordOnboarder   *appServices.DiscordOnboarder

	Hub            *websocket.Hub
	LandingSocket  *websocket.Handler
	SocketMessages *websocket.MessageHandler

	AuthMiddleware *appMiddleware.AuthMiddleware
	Controllers    appRoutes.Controllers

	RollbarEnabled bool
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects to PostgreSQL, applies migrations when autoMigrate
// is set and seeds the admin account.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	if cfg.Server.AutoMigrate {
		if err := RunMigrations(cfg, lgr, func(m *appMigrations.Migrator) error { return m.Up() }); err != nil {
			dbPool.Close()
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	admin := seed.Admin{
		FullName: cfg.Seed.AdminName,
		Email:    cfg.Seed.AdminEmail,
		Password: cfg.Seed.AdminPassword,
	}
	if err := seed.EnsureAdmin(ctx, appRepos.NewRepositories(dbPool), appRepos.NewTransactor(dbPool), admin, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to seed admin user, proceeding anyway...")
	}

	return dbPool, nil
}

// RunMigrations opens a migrator for the configured database and runs fn on it
func RunMigrations(cfg *config.Config, lgr zerolog.Logger, fn func(*appMigrations.Migrator) error) error {
	migrator, err := appMigrations.NewMigrator(cfg.GetPostgresConnectionString(), lgr)
	if err != nil {
		return fmt.Errorf("failed to open migrator: %w", err)
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			lgr.Warn().Err(err).Msg("Failed to close migrator")
		}
	}()

	if err := fn(migrator); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return err
	}
	return nil
}

// SetupMetrics builds the meter provider for the configured exporter
func SetupMetrics(ctx context.Context, cfg *config.Config) (*metrics.Provider, error) {
	return metrics.New(ctx, metrics.Config{
		Exporter:     cfg.Metrics.Exporter,
		OTLPEndpoint: cfg.Metrics.OTLPEndpoint,
		Interval:     helpers.ParseDuration(cfg.Metrics.Interval, 30*time.Second),
		ServiceName:  "mulearn-api",
		Environment:  cfg.Server.Mode,
	})
}

// SetupEventBus connects to NATS when enabled and falls back to the
// in-process bus otherwise
func SetupEventBus(cfg *config.Config, observer eventbus.Observer, lgr zerolog.Logger) (eventbus.Bus, error) {
	busLogger := logger.Named("eventbus")
	if !cfg.NATS.Enabled {
		lgr.Info().Msg("NATS disabled, using in-process event bus")
		return eventbus.NewLocalBus(busLogger, observer), nil
	}

	bus, err := eventbus.ConnectNATS(eventbus.NATSConfig{
		URL:    cfg.NATS.URL,
		Stream: cfg.NATS.Stream,
	}, busLogger, observer)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	lgr.Info().Str("url", cfg.NATS.URL).Str("stream", cfg.NATS.Stream).Msg("Connected to NATS")
	return bus, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, bus eventbus.Bus, provider *metrics.Provider, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Bus:     bus,
		Metrics: provider,
		Logger:  lgr,
	}

	deps.RollbarEnabled = logger.ConfigureRollbar(cfg.Rollbar.Token, cfg.Rollbar.Environment)
	validation.RegisterWithGin()

	deps.Repos = appRepos.NewRepositories(dbPool)
	deps.Transactor = appRepos.NewTransactor(dbPool)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	circleRules := appServices.CircleRules{
		MaxMembers:         cfg.Circles.MaxMembers,
		MaxMeetingsPerWeek: cfg.Circles.MaxMeetingsPerWeek,
		Location:           helpers.LoadLocation(cfg.Circles.Timezone),
		MeetReportHashtag:  cfg.Circles.MeetReportHashtag,
	}

	authService := appServices.NewAuthService(deps.Repos, deps.Transactor, deps.JWTService, bus, logger.Named("auth"))
	karmaService := appServices.NewKarmaService(deps.Repos, deps.Transactor, bus, provider, logger.Named("karma"))
	deps.LeaderboardService = appServices.NewLeaderboardService(deps.Repos, circleRules.Location)
	circleService := appServices.NewCircleService(deps.Repos, deps.Transactor, bus, circleRules, logger.Named("circles"))
	voucherService := appServices.NewVoucherService(deps.Repos, deps.Transactor, bus, provider, logger.Named("vouchers"))
	orgService := appServices.NewOrganizationService(deps.Repos.Organizations)
	eventService := appServices.NewEventService(deps.Repos.Events)

	kkemCipher := kkem.New(kkem.Params{
		SecretKey:  cfg.KKEM.SecretKey,
		Salt:       cfg.KKEM.Salt,
		Iterations: cfg.KKEM.Iterations,
	})
	integrationService := appServices.NewIntegrationService(deps.Repos, kkemCipher, bus, logger.Named("integrations"))

	resolver := discord.NewOAuthResolver(helpers.ParseDuration(cfg.Discord.RequestTimeout, 10*time.Second))
	deps.DiscordOnboarder = appServices.NewDiscordOnboarder(deps.Transactor, resolver, logger.Named("discord"))

	deps.Hub = websocket.NewHub(logger.Named("websocket"), provider)
	deps.LiveCounts = appServices.NewLiveCountsService(deps.Repos.Stats, deps.Hub, logger.Named("livecounts"))
	deps.LandingSocket = websocket.NewHandler(deps.Hub, appServices.LandingRoom, appServices.CountsMessageType,
		deps.LiveCounts.SnapshotAny, cfg.Server.AllowedOrigins, logger.Named("websocket"))
	deps.SocketMessages = websocket.NewMessageHandler(deps.Hub, deps.LiveCounts.SnapshotAny,
		appServices.CountsMessageType, logger.Named("websocket"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Auth:         appControllers.NewAuthController(authService, lgr),
		Karma:        appControllers.NewKarmaController(karmaService),
		Leaderboard:  appControllers.NewLeaderboardController(deps.LeaderboardService),
		Organization: appControllers.NewOrganizationController(orgService, eventService),
		Circle:       appControllers.NewCircleController(circleService, lgr),
		Voucher:      appControllers.NewVoucherController(voucherService, lgr),
		Integration:  appControllers.NewIntegrationController(integrationService),
		Stats:        appControllers.NewStatsController(deps.LiveCounts, dbPool, lgr),
	}

	return deps, nil
}

// StartBackground runs the websocket hub and subscribes the bus consumers.
// Everything stops when ctx is done.
func StartBackground(ctx context.Context, deps *Dependencies) error {
	go deps.Hub.Run(ctx)
	deps.SocketMessages.Start(ctx)

	if err := deps.LiveCounts.Start(deps.Bus); err != nil {
		return fmt.Errorf("failed to subscribe live counts: %w", err)
	}
	if err := deps.DiscordOnboarder.Start(deps.Bus); err != nil {
		return fmt.Errorf("failed to subscribe discord onboarder: %w", err)
	}
	return nil
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
		appMiddleware.Recovery(lgr, deps.RollbarEnabled),
		appMiddleware.RequestLogger(logger.Named("http"), deps.Metrics),
		appMiddleware.CORS(cfg.Server.AllowedOrigins),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.LandingSocket)

	return router
}
