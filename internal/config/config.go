package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ServerAddr       string        `env:"OFFICE_ADDR"               envDefault:"localhost:2567"`
	AllowedOrigins   []string      `env:"OFFICE_ALLOWED_ORIGINS"    envSeparator:","`
	ChatLogLimit     int           `env:"OFFICE_CHAT_LOG_LIMIT"     envDefault:"0"`
	PreQuizDuration  time.Duration `env:"OFFICE_PREQUIZ_DURATION"   envDefault:"3s"`
	QuizDuration     time.Duration `env:"OFFICE_QUIZ_DURATION"      envDefault:"10s"`
	QuestionCount    int           `env:"OFFICE_QUESTION_COUNT"     envDefault:"3"`
	PatchInterval    time.Duration `env:"OFFICE_PATCH_INTERVAL"     envDefault:"50ms"`
	IdleRoomTimeout  time.Duration `env:"OFFICE_IDLE_ROOM_TIMEOUT"  envDefault:"5s"`
	LobbyName        string        `env:"OFFICE_LOBBY_NAME"         envDefault:"Public Lobby"`
	LobbyDescription string        `env:"OFFICE_LOBBY_DESCRIPTION"  envDefault:"For making friends and familiarizing yourself with the controls"`
}

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

// Load reads the environment, applies command-line overrides from args and
// validates the result.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	var origins stringSliceFlag
	fs.StringVar(&cfg.ServerAddr, "addr", cfg.ServerAddr, "server address")
	fs.Var(&origins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	fs.IntVar(&cfg.ChatLogLimit, "chat-log-limit", cfg.ChatLogLimit, "max chat messages kept per room, 0 for unbounded")
	fs.DurationVar(&cfg.PreQuizDuration, "prequiz-duration", cfg.PreQuizDuration, "countdown before a quiz question opens")
	fs.DurationVar(&cfg.QuizDuration, "quiz-duration", cfg.QuizDuration, "time a quiz question stays open")
	fs.IntVar(&cfg.QuestionCount, "question-count", cfg.QuestionCount, "number of quiz questions to pick from")
	fs.DurationVar(&cfg.PatchInterval, "patch-interval", cfg.PatchInterval, "interval between state patches")
	fs.DurationVar(&cfg.IdleRoomTimeout, "idle-room-timeout", cfg.IdleRoomTimeout, "how long an unjoined room lives before disposal")
	fs.StringVar(&cfg.LobbyName, "lobby-name", cfg.LobbyName, "name of the public lobby room")
	fs.StringVar(&cfg.LobbyDescription, "lobby-description", cfg.LobbyDescription, "description of the public lobby room")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	if len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.ChatLogLimit < 0 {
		return fmt.Errorf("chat log limit cannot be negative")
	}
	if c.PreQuizDuration <= 0 || c.QuizDuration <= 0 {
		return fmt.Errorf("quiz durations must be positive")
	}
	if c.QuestionCount < 1 {
		return fmt.Errorf("question count must be at least 1")
	}
	if c.PatchInterval <= 0 {
		return fmt.Errorf("patch interval must be positive")
	}
	if c.IdleRoomTimeout <= 0 {
		return fmt.Errorf("idle room timeout must be positive")
	}
	if c.LobbyName == "" {
		return fmt.Errorf("lobby name cannot be empty")
	}
	return nil
}
