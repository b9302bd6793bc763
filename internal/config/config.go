// Package config loads the quiz configuration from an optional YAML file, an
// optional .env file and the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jbpratt/quotes/internal/quiz"
)

var (
	ErrMissingChatToken  = errors.New("missing required environment variable QUIZ_CHAT_TOKEN")
	ErrUnknownSourceKind = errors.New("unknown quote source kind")
)

const (
	SourceEnv      = "env"
	SourceLiteral  = "literal"
	SourceFile     = "file"
	SourceEmbedded = "embedded"
	SourceSQLite   = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	Env     string       `mapstructure:"env"`
	Phrases string       `mapstructure:"phrases"` // serialized quote list, see QUIZ_PHRASES
	Source  SourceConfig `mapstructure:"source"`
	Quiz    QuizConfig   `mapstructure:"quiz"`
	Chat    ChatConfig   `mapstructure:"chat"`
}

// SourceConfig selects where quotes come from.
type SourceConfig struct {
	Kind   string `mapstructure:"kind"`
	EnvVar string `mapstructure:"env_var"`
	Path   string `mapstructure:"path"`
	DBPath string `mapstructure:"db_path"`
}

type QuizConfig struct {
	OptionsCount    int           `mapstructure:"options_count"`
	FeedbackDelay   time.Duration `mapstructure:"feedback_delay"`
	DistinctOptions bool          `mapstructure:"distinct_options"`
}

type ChatConfig struct {
	URL       string `mapstructure:"url"`
	Token     string `mapstructure:"token"`
	Reconnect bool   `mapstructure:"reconnect"`
}

// Load reads configuration. path may name a YAML file; when empty a
// config.yaml in ./config or the working directory is used if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetDefault("env", "local")
	v.SetDefault("phrases", "")
	v.SetDefault("source.kind", SourceLiteral)
	v.SetDefault("source.env_var", quiz.DefaultEnvVar)
	v.SetDefault("source.path", "phrases.json")
	v.SetDefault("source.db_path", "quotes.db")
	v.SetDefault("quiz.options_count", quiz.DefaultOptionsCount)
	v.SetDefault("quiz.feedback_delay", quiz.DefaultFeedbackDelay)
	v.SetDefault("quiz.distinct_options", true)
	v.SetDefault("chat.url", "wss://chat.strims.gg/ws")
	v.SetDefault("chat.token", "")
	v.SetDefault("chat.reconnect", true)

	// every key is reachable as QUIZ_<SECTION>_<NAME>, e.g. QUIZ_SOURCE_KIND
	v.SetEnvPrefix("quiz")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "QUIZ_ENV", "APP_ENV")
	_ = v.BindEnv("phrases", quiz.DefaultEnvVar, "VITE_PHRASES")
	_ = v.BindEnv("quiz.options_count", "QUIZ_OPTIONS_COUNT")
	_ = v.BindEnv("quiz.feedback_delay", "QUIZ_FEEDBACK_DELAY")
	_ = v.BindEnv("quiz.distinct_options", "QUIZ_DISTINCT_OPTIONS")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// RequireChat checks the settings needed to join chat.
func (c *Config) RequireChat() error {
	if c.Chat.Token == "" {
		return ErrMissingChatToken
	}
	return nil
}

// QuoteSource builds the configured quote source. The returned close func
// releases any resources held by it.
func (c *Config) QuoteSource(ctx context.Context, logger *zap.SugaredLogger) (quiz.Source, func() error, error) {
	noop := func() error { return nil }

	switch c.Source.Kind {
	case SourceLiteral, "":
		return quiz.LiteralSource(c.Phrases), noop, nil
	case SourceEnv:
		return quiz.NewEnvSource(c.Source.EnvVar), noop, nil
	case SourceFile:
		return &quiz.FileSource{Path: c.Source.Path}, noop, nil
	case SourceEmbedded:
		return quiz.EmbeddedSource{}, noop, nil
	case SourceSQLite:
		src, err := quiz.OpenSQLiteSource(ctx, logger, c.Source.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownSourceKind, c.Source.Kind)
	}
}

// SessionOptions translates the quiz settings.
func (c *Config) SessionOptions() []quiz.SessionOption {
	return []quiz.SessionOption{
		quiz.WithOptionsCount(c.Quiz.OptionsCount),
		quiz.WithFeedbackDelay(c.Quiz.FeedbackDelay),
		quiz.WithDistinctOptions(c.Quiz.DistinctOptions),
	}
}
