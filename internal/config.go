package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/adhocore/gronx"
	"github.com/joho/godotenv"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	GRPCPort int    `env:"GRPC_PORT,default=8080"`
	HTTPPort int    `env:"HTTP_PORT,default=8081"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath   string  `env:"BADGER_FILEPATH,required=true"`
	InspectorPort    int     `env:"INSPECTOR_PORT,default=0"`
	JWTSecret        string  `env:"JWT_SECRET,required=true"`
	CensoredWords    string  `env:"CENSORED_WORDS"`
	CensoredWordsDir string  `env:"CENSORED_WORDS_DIR"`
	CharReplacement  string  `env:"CHARACTER_REPLACEMENT,default=*"`
	ReaperCron       string  `env:"REAPER_CRON"`
	ReaperBatchSize  int     `env:"REAPER_BATCH_SIZE,default=500"`
	NumberOfWorkers  int     `env:"NUMBER_OF_WORKERS,default=8"`
	BufferSize       int     `env:"BUFFER_SIZE,default=256"`
	ConnectionBuffer int     `env:"CONNECTION_BUFFER_SIZE,default=64"`
	EventRateBurst   int     `env:"EVENT_RATE_BURST,default=40"`
	EventRateLimit   float64 `env:"EVENT_RATE_LIMIT,default=20"`
	LowCapacity      int     `env:"LOW_CAPACITY_THRESHOLD,default=16"`

	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=168h"`
	MessageTTL        time.Duration `env:"MESSAGE_TTL,default=12h"`
	ReaperInterval    time.Duration `env:"REAPER_INTERVAL,default=1h"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=100ms"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,default=5s"`
}

// LoadConfig reads an optional .env file then the environment.
// Variables already set in the environment win over the file.
func LoadConfig(files ...string) (Config, error) {
	_ = godotenv.Load(files...)
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	switch {
	case c.MessageTTL <= 0:
		return fmt.Errorf("MESSAGE_TTL must be positive, got %s", c.MessageTTL)
	case c.ReaperInterval <= 0:
		return fmt.Errorf("REAPER_INTERVAL must be positive, got %s", c.ReaperInterval)
	case c.ReaperCron != "" && !gronx.IsValid(c.ReaperCron):
		return fmt.Errorf("REAPER_CRON is not a valid cron expression: %q", c.ReaperCron)
	case c.ReaperBatchSize < 1:
		return fmt.Errorf("REAPER_BATCH_SIZE must be at least 1, got %d", c.ReaperBatchSize)
	case c.MetricInterval <= 0:
		return fmt.Errorf("METRIC_INTERVAL must be positive, got %s", c.MetricInterval)
	case c.NumberOfWorkers < 1:
		return fmt.Errorf("NUMBER_OF_WORKERS must be at least 1, got %d", c.NumberOfWorkers)
	case c.EventRateLimit <= 0 || c.EventRateBurst < 1:
		return fmt.Errorf("EVENT_RATE_LIMIT and EVENT_RATE_BURST must be positive")
	case len(c.JWTSecret) < 32:
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes long")
	}
	if _, err := c.CharacterRune(); err != nil {
		return err
	}
	return nil
}

func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.CharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			c.CharReplacement,
		)
	}
	return r[0], nil
}

// Words splits CENSORED_WORDS on commas.
func (c Config) Words() []string {
	var words []string
	for _, word := range strings.Split(c.CensoredWords, ",") {
		if word = strings.TrimSpace(word); word != "" {
			words = append(words, word)
		}
	}
	return words
}
