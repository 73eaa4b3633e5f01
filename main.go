package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/memory/v2"
	"github.com/gofiber/storage/redis/v3"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/accounts"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/analytics"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/apps"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/audit"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/auth"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/common"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/config"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/handlers/api"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/middlewares"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/middlewares/sessions"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/oauth"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/ratelimit"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/store"
	"github.com/harsh-haria/unified-event-analytics-engine/model"
	"github.com/harsh-haria/unified-event-analytics-engine/params"
	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
	gitTag    string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "unified-event-analytics-engine - multi-tenant event analytics ingestion service"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func mustInitDatabase(dbConfig config.MySQLConfig) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dbConfig.Dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dbConfig.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if len(dbConfig.ReplicaDsns) > 0 {
		replicas := make([]gorm.Dialector, 0, len(dbConfig.ReplicaDsns))
		for _, dsn := range dbConfig.ReplicaDsns {
			replicas = append(replicas, mysql.Open(dsn))
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{Replicas: replicas})); err != nil {
			slog.Error("Failed to register read replicas", "error", err)
			os.Exit(1)
		}
	}

	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	return db
}

func oauthCallbackURL(baseURL string, providerName string) (string, error) {
	return url.JoinPath(baseURL, "api", "auth", providerName, "callback")
}

func mustInitOAuthProviders(config *config.Config) []oauth.OAuthProvider {
	var providers []oauth.OAuthProvider
	for providerName, providerCfg := range config.AuthProviders.OAuth {
		callbackURL, err := oauthCallbackURL(config.BaseURL, providerName)
		if err != nil {
			slog.Error("Invalid base URL for OAuth callback", "baseURL", config.BaseURL, "error", err)
			os.Exit(1)
		}
		switch providerName {
		case "google":
			provider := oauth.NewGoogleOAuthProvider(callbackURL, providerCfg.ClientID, providerCfg.ClientSecret)
			providers = append(providers, provider)
		default:
			slog.Error("Unsupported OAuth provider", "provider", providerName)
			os.Exit(1)
		}
	}
	return providers
}

func mustInitRedisStorage(redisCfg config.RedisConfig) *redis.Storage {
	return redis.New(redis.Config{
		URL:           redisCfg.URL,
		PoolSize:      redisCfg.PoolSize,
		IsClusterMode: redisCfg.ClusterMode,
	})
}

func setupAPIRoutes(
	router fiber.Router,
	sessionConfig sessions.Config,
	limiter *ratelimit.Limiter,
	keyring *auth.Keyring,
	accessService *auth.AccessService,
	accountService *accounts.AccountService,
	appService *apps.AppService,
	analyticsService *analytics.AnalyticsService,
	oauthProviders []oauth.OAuthProvider,
	masterKey string) {

	// handlers
	var (
		authHandler      = api.NewAuthHandler(accountService, oauthProviders, masterKey)
		appsHandler      = api.NewAppsHandler(appService)
		keysHandler      = api.NewKeysHandler(keyring, accessService)
		analyticsHandler = api.NewAnalyticsHandler(analyticsService, accessService)
	)

	rateLimited := ratelimit.New(ratelimit.Config{
		Limiter:      limiter,
		KeyGenerator: middlewares.RateKey,
	})
	requireUser := middlewares.RequireUser()

	// routes
	router.Use(sessions.New(sessionConfig))
	router.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString("Server alive")
	})
	router.Get("/auth/:provider", authHandler.GetLogin)
	router.Get("/auth/:provider/callback", authHandler.GetLoginCallback)
	router.Get("/auth/logout", authHandler.GetLogout)
	router.Get("/profile", requireUser, authHandler.GetProfile)

	router.Post("/apps", requireUser, appsHandler.PostApp)
	router.Get("/apps", requireUser, appsHandler.GetApps)
	router.Post("/apps/:app_id/keys", requireUser, keysHandler.PostAppKey)
	router.Get("/apps/:app_id/keys", requireUser, keysHandler.GetAppKeys)
	router.Delete("/keys", requireUser, keysHandler.DeleteKey)

	router.Post("/analytics/collect", middlewares.RequireApiKey(keyring), rateLimited, analyticsHandler.PostCollect)
	router.Get("/analytics/event-summary", requireUser, rateLimited, analyticsHandler.GetEventSummary)
	router.Get("/analytics/user-stats", requireUser, rateLimited, analyticsHandler.GetUserStats)
}

func run(ctx *cli.Context) error {
	config, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	mustInitLogger(config.Debug || ctx.IsSet(debugFlag.Name))

	db := mustInitDatabase(config.MySQL)
	audit.Initialize(audit.NewAuditEventRepository(db))

	var (
		sessionStorage fiber.Storage
		cacheStorage   store.Storage
		redisStorage   *redis.Storage
	)
	if config.Redis.URL != "" {
		redisStorage = mustInitRedisStorage(config.Redis)
		sessionStorage = redisStorage
		cacheStorage = store.NewRedisStorage(redisStorage.Conn())
	} else {
		slog.Warn("Redis not configured, using in-process storage")
		sessionStorage = memory.New()
		cacheStorage = store.NewMemoryStorage()
	}

	// repositories
	var (
		userRepo  = accounts.NewUserRepository(db)
		appRepo   = apps.NewAppRepository(db)
		keyRepo   = auth.NewKeyRepository(db)
		eventRepo = analytics.NewEventRepository(db)
	)

	// services
	var (
		keyCache         = store.New[auth.KeyDetails](cacheStorage, params.ApiKeyCachePrefix)
		appService       = apps.NewAppService(appRepo)
		keyring          = auth.NewKeyring(keyRepo, keyCache, config.ApiKey.ExpirationDays)
		accessService    = auth.NewAccessService(appService, keyring)
		accountService   = accounts.NewAccountService(db, userRepo, appService, keyring)
		analyticsService = analytics.NewAnalyticsService(eventRepo)
		limiter          = ratelimit.NewLimiter(cacheStorage, config.RateLimit.Max, config.RateLimit.Window)
	)

	oauthProviders := mustInitOAuthProviders(config)

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(config.AllowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, " + middlewares.ApiKeyHeader,
	}))

	setupAPIRoutes(
		router.Group("/api"),
		sessions.Config{
			Storage:        sessionStorage,
			SessionMaxAge:  config.Session.SessionMaxAge,
			CookieSecure:   config.Session.CookieSecure,
			CookieHttpOnly: config.Session.CookieHttpOnly,
			CookieName:     config.Session.CookieName,
		},
		limiter,
		keyring,
		accessService,
		accountService,
		appService,
		analyticsService,
		oauthProviders,
		config.MasterKey,
	)

	healthCheckCtx, term := context.WithCancel(ctx.Context)
	done := make(chan struct{})
	var rdb goredis.UniversalClient
	if redisStorage != nil {
		rdb = redisStorage.Conn()
	}
	go common.StartHealthCheckServer(healthCheckCtx, done, rdb, db)
	defer func() {
		term()
		<-done
	}()
	return router.Listen(config.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
