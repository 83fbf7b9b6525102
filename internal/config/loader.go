package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/facility-coordinator/internal/scheduler"
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config captures environment driven configuration values for the coordinator service.
type Config struct {
	HTTPPort     int
	Storage      string
	SQLiteDSN    string
	Seed         bool
	Grid         scheduler.Grid
	SessionStore string
	SessionTTL   time.Duration
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	AMQPURL      string
	AMQPQueue    string
	LogLevel     slog.Level
}

// Load reads .env from the working directory when present and then parses
// the process environment.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile loads path into the environment when the file exists, without
// overriding variables that are already set, and then parses the environment.
func LoadFile(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("no se pudo leer %s: %w", path, err)
		}
	}
	return parse()
}

func parse() (Config, error) {
	cfg := Config{
		HTTPPort:     8080,
		Storage:      StorageMemory,
		SQLiteDSN:    "coordinator.db",
		Seed:         true,
		Grid:         scheduler.DefaultGrid(),
		SessionStore: SessionStoreMemory,
		SessionTTL:   2 * time.Hour,
		AMQPQueue:    "assignment.created",
		LogLevel:     slog.LevelInfo,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := env("COORDINATOR_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "COORDINATOR_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	switch storage := strings.ToLower(env("COORDINATOR_STORAGE")); storage {
	case "":
	case StorageMemory, StorageSQLite:
		cfg.Storage = storage
	default:
		invalid = append(invalid, "COORDINATOR_STORAGE")
	}

	if dsn := env("COORDINATOR_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if seedValue := env("COORDINATOR_SEED"); seedValue != "" {
		seed, err := strconv.ParseBool(seedValue)
		if err != nil {
			invalid = append(invalid, "COORDINATOR_SEED")
		} else {
			cfg.Seed = seed
		}
	}

	first, last, step := cfg.Grid.First(), cfg.Grid.Last(), time.Hour
	gridOK := true
	if value := env("COORDINATOR_GRID_START"); value != "" {
		slot, err := scheduler.ParseTimeSlot(value)
		if err != nil {
			invalid = append(invalid, "COORDINATOR_GRID_START")
			gridOK = false
		} else {
			first = slot
		}
	}
	if value := env("COORDINATOR_GRID_END"); value != "" {
		slot, err := scheduler.ParseTimeSlot(value)
		if err != nil {
			invalid = append(invalid, "COORDINATOR_GRID_END")
			gridOK = false
		} else {
			last = slot
		}
	}
	if value := env("COORDINATOR_GRID_STEP"); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed <= 0 {
			invalid = append(invalid, "COORDINATOR_GRID_STEP")
			gridOK = false
		} else {
			step = parsed
		}
	}
	if gridOK {
		grid, err := scheduler.NewGrid(first, last, step)
		if err != nil {
			invalid = append(invalid, "COORDINATOR_GRID_START/COORDINATOR_GRID_END/COORDINATOR_GRID_STEP")
		} else {
			cfg.Grid = grid
		}
	}

	switch store := strings.ToLower(env("COORDINATOR_SESSION_STORE")); store {
	case "":
	case SessionStoreMemory, SessionStoreRedis:
		cfg.SessionStore = store
	default:
		invalid = append(invalid, "COORDINATOR_SESSION_STORE")
	}

	if ttlValue := env("COORDINATOR_SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "COORDINATOR_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	cfg.RedisAddr = env("COORDINATOR_REDIS_ADDR")
	if cfg.SessionStore == SessionStoreRedis && cfg.RedisAddr == "" {
		missing = append(missing, "COORDINATOR_REDIS_ADDR")
	}
	cfg.RedisPass = os.Getenv("COORDINATOR_REDIS_PASSWORD")
	if dbValue := env("COORDINATOR_REDIS_DB"); dbValue != "" {
		db, err := strconv.Atoi(dbValue)
		if err != nil || db < 0 {
			invalid = append(invalid, "COORDINATOR_REDIS_DB")
		} else {
			cfg.RedisDB = db
		}
	}

	cfg.AMQPURL = env("COORDINATOR_AMQP_URL")
	if queue := env("COORDINATOR_AMQP_QUEUE"); queue != "" {
		cfg.AMQPQueue = queue
	}

	if levelValue := env("COORDINATOR_LOG_LEVEL"); levelValue != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "COORDINATOR_LOG_LEVEL")
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("faltan variables de entorno obligatorias: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valores inválidos en variables de entorno: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
