package main

import (
	"time"

	"githubActivity/internal/config"

	"github.com/urfave/cli/v3"
)

func allFlags() []cli.Flag {
	flags := make([]cli.Flag, 0, 16)
	flags = append(flags, generalFlags()...)
	flags = append(flags, apiFlags()...)
	flags = append(flags, storageFlags()...)

	return flags
}

const (
	FlagConfig  = "config"
	EnvConfig   = "GITHUB_ACTIVITY_CONFIG"
	FlagDebug   = "debug"
	EnvDebug    = "GITHUB_ACTIVITY_DEBUG"
	FlagLogFile = "log-file"
	EnvLogFile  = "GITHUB_ACTIVITY_LOG_FILE"
	FlagNoColor = "no-color"
	EnvNoColor  = "GITHUB_ACTIVITY_NO_COLOR"
	FlagTZ      = "timezone"
	EnvTZ       = "GITHUB_ACTIVITY_TIMEZONE"
)

func generalFlags() []cli.Flag {
	category := "general"

	return []cli.Flag{
		&cli.StringFlag{
			Name:     FlagConfig,
			Aliases:  []string{"c"},
			Category: category,
			Sources:  cli.EnvVars(EnvConfig),
			Usage:    "Read settings from the TOML `FILE` (default $HOME/.config/github-activity/config.toml).",
		},
		&cli.BoolFlag{
			Name:     FlagDebug,
			Aliases:  []string{"D"},
			Category: category,
			Sources:  cli.EnvVars(EnvDebug),
			Usage:    "Write debug logs to the log file.",
		},
		&cli.StringFlag{
			Name:     FlagLogFile,
			Category: category,
			Sources:  cli.EnvVars(EnvLogFile),
			Value:    "github-activity.log",
			Usage:    "The `FILE` debug logs are appended to.",
		},
		&cli.BoolFlag{
			Name:     FlagNoColor,
			Aliases:  []string{"C"},
			Category: category,
			Sources:  cli.EnvVars(EnvNoColor),
			Usage:    "Disable coloration.",
		},
		&cli.StringFlag{
			Name:     FlagTZ,
			Category: category,
			Sources:  cli.EnvVars(EnvTZ),
			Usage:    "Show timestamps in the IANA `ZONE` instead of the local time zone.",
		},
	}
}

const (
	FlagToken   = "token"
	EnvToken    = "GITHUB_TOKEN"
	FlagAPIURL  = "api-url"
	EnvAPIURL   = "GITHUB_ACTIVITY_API_URL"
	FlagTimeout = "timeout"
	EnvTimeout  = "GITHUB_ACTIVITY_TIMEOUT"
	FlagPerPage = "per-page"
	EnvPerPage  = "GITHUB_ACTIVITY_PER_PAGE"
	FlagRPS     = "requests-per-second"
	EnvRPS      = "GITHUB_ACTIVITY_REQUESTS_PER_SECOND"
)

func apiFlags() []cli.Flag {
	category := "api"

	return []cli.Flag{
		&cli.StringFlag{
			Name:     FlagToken,
			Aliases:  []string{"t"},
			Category: category,
			Sources:  cli.EnvVars(EnvToken),
			Usage:    "GitHub `TOKEN` sent as a bearer token to raise the rate limit.",
		},
		&cli.StringFlag{
			Name:     FlagAPIURL,
			Category: category,
			Sources:  cli.EnvVars(EnvAPIURL),
			Value:    "https://api.github.com",
			Usage:    "Base `URL` of the GitHub REST API.",
		},
		&cli.DurationFlag{
			Name:     FlagTimeout,
			Category: category,
			Sources:  cli.EnvVars(EnvTimeout),
			Value:    10 * time.Second,
			Usage:    "Give up on a request after this long.",
		},
		&cli.IntFlag{
			Name:     FlagPerPage,
			Category: category,
			Sources:  cli.EnvVars(EnvPerPage),
			Value:    100,
			Usage:    "Events to request per lookup (1-100).",
		},
		&cli.FloatFlag{
			Name:     FlagRPS,
			Category: category,
			Sources:  cli.EnvVars(EnvRPS),
			Value:    1,
			Usage:    "Upper bound on API requests per second, 0 for none.",
		},
	}
}

const (
	FlagRedis         = "redis-addr"
	EnvRedis          = "GITHUB_ACTIVITY_REDIS_ADDR"
	FlagCacheTTL      = "cache-ttl"
	EnvCacheTTL       = "GITHUB_ACTIVITY_CACHE_TTL"
	FlagHistoryDB     = "history-db"
	EnvHistoryDB      = "GITHUB_ACTIVITY_HISTORY_DB"
	FlagHistoryDriver = "history-driver"
	EnvHistoryDriver  = "GITHUB_ACTIVITY_HISTORY_DRIVER"
	FlagRetention     = "history-retention"
	EnvRetention      = "GITHUB_ACTIVITY_HISTORY_RETENTION"
)

func storageFlags() []cli.Flag {
	category := "storage"

	return []cli.Flag{
		&cli.StringFlag{
			Name:     FlagRedis,
			Category: category,
			Sources:  cli.EnvVars(EnvRedis),
			Usage:    "Cache API responses in the Redis server at `HOST:PORT`.",
		},
		&cli.DurationFlag{
			Name:     FlagCacheTTL,
			Category: category,
			Sources:  cli.EnvVars(EnvCacheTTL),
			Value:    time.Minute,
			Usage:    "How long a cached response is reused.",
		},
		&cli.StringFlag{
			Name:     FlagHistoryDB,
			Category: category,
			Sources:  cli.EnvVars(EnvHistoryDB),
			Usage:    "Record fetched events in the SQLite database at `PATH`.",
		},
		&cli.StringFlag{
			Name:     FlagHistoryDriver,
			Category: category,
			Sources:  cli.EnvVars(EnvHistoryDriver),
			Value:    "sqlite",
			Usage:    "SQLite driver: sqlite (pure Go) or sqlite3 (cgo).",
		},
		&cli.IntFlag{
			Name:     FlagRetention,
			Category: category,
			Sources:  cli.EnvVars(EnvRetention),
			Value:    100,
			Usage:    "Events kept per user in the history database.",
		},
	}
}

const (
	FlagListen = "listen"
	EnvListen  = "GITHUB_ACTIVITY_LISTEN"
)

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagListen,
			Aliases: []string{"l"},
			Sources: cli.EnvVars(EnvListen),
			Value:   ":3000",
			Usage:   "`ADDRESS` the HTTP API listens on.",
		},
	}
}

// applyFlags overlays every flag the user actually set, on the command line
// or through its environment variable, onto cfg.
func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet(FlagDebug) {
		cfg.Debug = cmd.Bool(FlagDebug)
	}
	if cmd.IsSet(FlagLogFile) {
		cfg.LogFile = cmd.String(FlagLogFile)
	}
	if cmd.IsSet(FlagNoColor) {
		cfg.NoColor = cmd.Bool(FlagNoColor)
	}
	if cmd.IsSet(FlagTZ) {
		cfg.Timezone = cmd.String(FlagTZ)
	}
	if cmd.IsSet(FlagToken) {
		cfg.Token = cmd.String(FlagToken)
	}
	if cmd.IsSet(FlagAPIURL) {
		cfg.APIURL = cmd.String(FlagAPIURL)
	}
	if cmd.IsSet(FlagTimeout) {
		cfg.Timeout = cmd.Duration(FlagTimeout)
	}
	if cmd.IsSet(FlagPerPage) {
		cfg.PerPage = cmd.Int(FlagPerPage)
	}
	if cmd.IsSet(FlagRPS) {
		cfg.RequestsPerSecond = cmd.Float(FlagRPS)
	}
	if cmd.IsSet(FlagRedis) {
		cfg.RedisAddr = cmd.String(FlagRedis)
	}
	if cmd.IsSet(FlagCacheTTL) {
		cfg.CacheTTL = cmd.Duration(FlagCacheTTL)
	}
	if cmd.IsSet(FlagHistoryDB) {
		cfg.HistoryDB = cmd.String(FlagHistoryDB)
	}
	if cmd.IsSet(FlagHistoryDriver) {
		cfg.HistoryDriver = cmd.String(FlagHistoryDriver)
	}
	if cmd.IsSet(FlagRetention) {
		cfg.HistoryRetention = cmd.Int(FlagRetention)
	}
	if cmd.IsSet(FlagListen) {
		cfg.ListenAddr = cmd.String(FlagListen)
	}
}
