package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Quiz store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
	StoreTiered = "tiered" // mongo, read through redis
)

// EnvPrefix is prepended to every environment variable
const EnvPrefix = "DUEL"

type Config struct {
	Bind string
	Port int

	QuizStore     string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	RedisPassword string
	QuizTTL       time.Duration

	SessionIdleTimeout time.Duration
	DoneRetention      time.Duration
	SweepSchedule      string

	CORSOrigin string
	Verbose    bool
}

// RegisterFlags adds every setting to fs with its default
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&c.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: DUEL_BIND)")
	fs.IntVarP(&c.Port, "port", "p", 8080, "port to listen on (env: DUEL_PORT)")
	fs.StringVar(&c.QuizStore, "quiz-store", StoreMemory, "quiz store backend: memory, redis, mongo or tiered (env: DUEL_QUIZ_STORE)")
	fs.StringVar(&c.MongoURI, "mongo-uri", "mongodb://localhost:27017", "MongoDB connection string (env: DUEL_MONGO_URI)")
	fs.StringVar(&c.MongoDatabase, "mongo-database", "duelquiz", "MongoDB database name (env: DUEL_MONGO_DATABASE)")
	fs.StringVar(&c.RedisAddr, "redis-addr", "localhost:6379", "Redis address (env: DUEL_REDIS_ADDR)")
	fs.StringVar(&c.RedisPassword, "redis-password", "", "Redis password (env: DUEL_REDIS_PASSWORD)")
	fs.DurationVar(&c.QuizTTL, "quiz-ttl", 24*time.Hour, "expiry of quiz documents in Redis, longer than --session-idle-timeout for the redis store (env: DUEL_QUIZ_TTL)")
	fs.DurationVar(&c.SessionIdleTimeout, "session-idle-timeout", 60*time.Minute, "time before idle sessions are evicted, 0 to disable (env: DUEL_SESSION_IDLE_TIMEOUT)")
	fs.DurationVar(&c.DoneRetention, "done-retention", 10*time.Minute, "time finished sessions are kept, 0 to disable (env: DUEL_DONE_RETENTION)")
	fs.StringVar(&c.SweepSchedule, "sweep-schedule", "@every 1m", "cron schedule of the eviction sweep (env: DUEL_SWEEP_SCHEDULE)")
	fs.StringVar(&c.CORSOrigin, "cors-origin", "*", "allowed CORS and WebSocket origin (env: DUEL_CORS_ORIGIN)")
	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "log every connection event (env: DUEL_VERBOSE)")
}

// BindEnv lets DUEL_* environment variables fill any flag not set on the command line
func BindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}

	switch c.QuizStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("--redis-addr is required for the redis quiz store")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("--mongo-uri is required for the mongo quiz store")
		}
	case StoreTiered:
		if c.RedisAddr == "" || c.MongoURI == "" {
			return errors.New("both --redis-addr and --mongo-uri are required for the tiered quiz store")
		}
	default:
		return fmt.Errorf("unknown quiz store %q", c.QuizStore)
	}

	if c.QuizTTL <= 0 {
		return errors.New("--quiz-ttl must be positive")
	}
	if c.SessionIdleTimeout < 0 || c.DoneRetention < 0 {
		return errors.New("eviction timeouts must not be negative")
	}
	// a redis-only store loses the quiz when the key expires; idle sessions must go before that
	if c.QuizStore == StoreRedis {
		if c.SessionIdleTimeout == 0 {
			return errors.New("--session-idle-timeout must be set for the redis quiz store")
		}
		if c.QuizTTL <= c.SessionIdleTimeout {
			return fmt.Errorf("--quiz-ttl (%s) must be longer than --session-idle-timeout (%s) for the redis quiz store", c.QuizTTL, c.SessionIdleTimeout)
		}
	}
	if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
		return fmt.Errorf("invalid --sweep-schedule %q: %w", c.SweepSchedule, err)
	}
	return nil
}

// UsesRedis reports whether the configured store needs a Redis client
func (c *Config) UsesRedis() bool {
	return c.QuizStore == StoreRedis || c.QuizStore == StoreTiered
}

// UsesMongo reports whether the configured store needs a MongoDB client
func (c *Config) UsesMongo() bool {
	return c.QuizStore == StoreMongo || c.QuizStore == StoreTiered
}
