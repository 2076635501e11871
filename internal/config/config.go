package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"formula-trivia/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port      string `yaml:"port"`
		RateLimit struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		TTL  string `yaml:"ttl"`
		File string `yaml:"file"`
	} `yaml:"questions"`
	Game struct {
		IdleTimeout string          `yaml:"idle_timeout"`
		Levels      []LevelOverride `yaml:"levels"`
	} `yaml:"game"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// LevelOverride adjusts one entry of the built-in level table. Zero values
// keep the default.
type LevelOverride struct {
	Level            int      `yaml:"level"`
	Name             string   `yaml:"name"`
	Questions        int      `yaml:"questions"`
	MaxWrongAnswers  int      `yaml:"max_wrong_answers"`
	PenaltySeconds   *float64 `yaml:"penalty_seconds"`
	SurchargeSeconds *float64 `yaml:"surcharge_seconds"`
}

// LoadEnv reads a .env file into the process environment if one exists.
func LoadEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// LevelTable returns the built-in levels with the configured overrides applied.
func (c Config) LevelTable() (domain.LevelTable, error) {
	table := domain.DefaultLevels()
	for _, o := range c.Game.Levels {
		cfg, err := table.Lookup(o.Level)
		if err != nil {
			return nil, err
		}
		if o.Name != "" {
			cfg.Name = o.Name
		}
		if o.Questions > 0 {
			cfg.QuestionsToSelect = o.Questions
		}
		if o.MaxWrongAnswers > 0 {
			cfg.MaxWrongAnswers = o.MaxWrongAnswers
		}
		if o.PenaltySeconds != nil {
			cfg.PenaltyPerWrong = seconds(*o.PenaltySeconds)
		}
		if o.SurchargeSeconds != nil {
			cfg.FirstWrongSurcharge = seconds(*o.SurchargeSeconds)
		}
		cfg.HasPenalties = cfg.PenaltyPerWrong > 0 || cfg.FirstWrongSurcharge > 0
		table = table.With(cfg)
	}
	return table, nil
}

func seconds(s float64) time.Duration {
	if s < 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

// Logger builds the service logger from the log section.
func (c Config) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Log.Level)}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return slog.Level(n)
	}
	return slog.LevelInfo
}
