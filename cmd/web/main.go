package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/mkarvo/yachtmurder/internal/ai"
	"github.com/mkarvo/yachtmurder/internal/envstruct"
	"github.com/mkarvo/yachtmurder/internal/errors"
	"github.com/mkarvo/yachtmurder/internal/gamedata"
	"github.com/mkarvo/yachtmurder/internal/interrogation"
	"github.com/mkarvo/yachtmurder/internal/logging"
	"github.com/mkarvo/yachtmurder/internal/pprofserver"
	"github.com/mkarvo/yachtmurder/internal/repositories"
	"github.com/mkarvo/yachtmurder/internal/sqlite"
)

type configuration struct {
	Addr      string `env:"YACHTMURDER_ADDR" envDefault:"localhost:4000"`
	SQLiteURL string `env:"YACHTMURDER_SQLITE_URL" envDefault:"./yachtmurder.sqlite"`
	DataDir   string `env:"YACHTMURDER_DATA_DIR" envDefault:"./data"`
	// OpenAIAPIKey has no default on purpose: a missing credential aborts startup.
	OpenAIAPIKey   string        `env:"OPENAI_API_KEY"`
	Model          string        `env:"YACHTMURDER_MODEL" envDefault:"gpt-3.5-turbo"`
	MaxRetries     int           `env:"YACHTMURDER_MAX_RETRIES" envDefault:"3"`
	InitialBackoff time.Duration `env:"YACHTMURDER_INITIAL_BACKOFF" envDefault:"1s"`
	MaxBackoff     time.Duration `env:"YACHTMURDER_MAX_BACKOFF" envDefault:"10s"`
	RequestTimeout time.Duration `env:"YACHTMURDER_REQUEST_TIMEOUT" envDefault:"30s"`
}

type application struct {
	logger         *slog.Logger
	aiClient       *ai.Client
	aiConfig       ai.Config
	interrogations *interrogation.Service
	gameState      *repositories.GameStateRepository
	sessionManager *scs.SessionManager
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg configuration
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse configuration")
	}

	dbs, err := sqlite.NewDatabase(ctx, cfg.SQLiteURL, logger)
	if err != nil {
		return errors.Wrap(err, "connect to database", slog.String("url", cfg.SQLiteURL))
	}
	go dbs.StartOptimizer(ctx)

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite.DB, 24*time.Hour)
	sessionManager.Lifetime = 12 * time.Hour

	loader := gamedata.NewLoader(cfg.DataDir, logger)
	// The prompt template is a deployment precondition; refuse to start without it.
	if _, err = loader.LoadTemplate(); err != nil {
		return errors.Wrap(err, "verify content store", slog.String("dataDir", cfg.DataDir))
	}

	aiConfig := ai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		Model:          cfg.Model,
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		RequestTimeout: cfg.RequestTimeout,
	}
	aiClient := ai.NewClient(aiConfig, logger)

	app := application{
		logger:         logger,
		aiClient:       aiClient,
		aiConfig:       aiConfig,
		interrogations: interrogation.NewService(loader, aiClient, logger),
		gameState:      repositories.NewGameStateRepository(dbs, logger),
		sessionManager: sessionManager,
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err.Error())
	}

	// pprof listens on localhost only so that it's not open to the world.
	pprofPort := os.Getenv("YACHTMURDER_PPROF_PORT")
	if pprofPort == "" {
		pprofPort = ":6060"
	}
	pprofserver.Launch(pprofPort, logger)

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server error", errors.SlogError(err))
		os.Exit(1)
	}
}
