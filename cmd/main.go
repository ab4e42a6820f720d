package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"githubActivity/internal/config"
	"githubActivity/internal/events"
	"githubActivity/internal/github"
	"githubActivity/internal/handlers"
	"githubActivity/internal/logger"
	"githubActivity/internal/repl"
	"githubActivity/internal/store"

	"github.com/fatih/color"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const version = "1.0.0"

func run(ctx context.Context) error {
	cmd := &cli.Command{
		Name:    "github-activity",
		Usage:   "Show the recent public activity of a GitHub user",
		Version: version,
		Flags:   allFlags(),
		Action:  interactive,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve user activity as a JSON HTTP API",
				Flags:  serveFlags(),
				Action: serve,
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		return fmt.Errorf("command: %w", err)
	}

	return nil
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String(FlagConfig), cmd.IsSet(FlagConfig))
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.OK(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// backend is everything a service needs, plus what must be closed after.
type backend struct {
	service events.Service
	db      *sql.DB
	rdb     *redis.Client
}

func (b *backend) Close(lg *zap.Logger) {
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			lg.Error("db close error", zap.Error(err))
		}
	}
	if b.rdb != nil {
		if err := b.rdb.Close(); err != nil {
			lg.Error("redis close error", zap.Error(err))
		}
	}
}

// newBackend wires the client with whichever of cache and history are
// configured. A store that cannot be reached is reported and skipped.
func newBackend(ctx context.Context, cfg *config.Config, lg *zap.Logger) *backend {
	b := &backend{}

	client := github.New(github.Options{
		BaseURL:           cfg.APIURL,
		Token:             cfg.Token,
		PerPage:           cfg.PerPage,
		Timeout:           cfg.Timeout,
		UserAgent:         "github-activity/" + version,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, lg)

	var cache events.Cache
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			lg.Error("redis unavailable", zap.Error(err))
			color.Yellow("⚠️  Response cache disabled: %v", err)
		} else {
			b.rdb = rdb
			cache = events.NewRedisCache(rdb)
		}
	}

	var history events.History
	if cfg.HistoryDB != "" {
		db, err := store.OpenDB(ctx, cfg.HistoryDriver, cfg.HistoryDB)
		if err != nil {
			lg.Error("history unavailable", zap.Error(err))
			color.Yellow("⚠️  History disabled: %v", err)
		} else {
			b.db = db
			history = events.NewSQLHistory(db, cfg.HistoryRetention)
		}
	}

	b.service = events.NewService(client, cache, history, events.Options{
		CacheTTL:  cfg.CacheTTL,
		Retention: cfg.HistoryRetention,
	}, lg)
	return b
}

func interactive(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.NoColor {
		color.NoColor = true
	}

	lg, err := logger.New(cfg.Debug, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer lg.Sync()

	loc, _ := cfg.Location() // validated by OK

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := newBackend(ctx, cfg, lg)
	defer b.Close(lg)

	r := repl.New(repl.Options{
		Service:  b.service,
		In:       os.Stdin,
		Out:      color.Output,
		Location: loc,
		Logger:   lg,
	})
	return r.Run(ctx)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	lg, err := logger.NewServer(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer lg.Sync()

	loc, _ := cfg.Location()

	b := newBackend(ctx, cfg, lg)
	defer b.Close(lg)
	app := handlers.NewApp(handlers.NewHTTP(b.service, loc), lg)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.ListenAddr)
	}()
	lg.Info("Listening", zap.String("addr", cfg.ListenAddr))

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigchan)

	if err := GracefulShutdown(app, listenErr, sigchan, lg); err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}
	lg.Info("Shutdown complete")
	return nil
}

// GracefulShutdown waits for a signal or for the server to stop on its own.
// A server that stopped with an error is reported instead of waited on.
func GracefulShutdown(app *fiber.App, listenErr <-chan error, sigchan <-chan os.Signal, lg *zap.Logger) error {
	select {
	case err := <-listenErr:
		if err != nil {
			lg.Error("Server stopped", zap.Error(err))
		}
		return err
	case <-sigchan:
		lg.Info("Shutdown sig rcv")
		if err := app.Shutdown(); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		return nil
	}
}

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}
