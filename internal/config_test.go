package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func setRequired(t *testing.T) {
	t.Setenv("BADGER_FILEPATH", t.TempDir())
	t.Setenv("JWT_SECRET", secret)
}

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	setRequired(t)

	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	req.NoError(err)
	req.Equal(8080, config.GRPCPort)
	req.Equal(8081, config.HTTPPort)
	req.Equal(12*time.Hour, config.MessageTTL)
	req.Equal(time.Hour, config.ReaperInterval)
	req.Equal(7*24*time.Hour, config.AuthTokenDuration)
	req.Equal(500, config.ReaperBatchSize)
	replacement, err := config.CharacterRune()
	req.NoError(err)
	req.Equal('*', replacement)
	req.Empty(config.Words())
}

func TestLoadConfig_Environment_Wins_Over_File(t *testing.T) {
	req := require.New(t)
	setRequired(t)
	file := filepath.Join(t.TempDir(), ".env")
	req.NoError(os.WriteFile(file, []byte("MESSAGE_TTL=30m\nGRPC_PORT=9000\n"), 0o600))
	t.Setenv("GRPC_PORT", "7000")
	// registered so that the value loaded from the file is restored afterwards
	t.Setenv("MESSAGE_TTL", "")
	req.NoError(os.Unsetenv("MESSAGE_TTL"))

	config, err := LoadConfig(file)

	req.NoError(err)
	req.Equal(30*time.Minute, config.MessageTTL)
	req.Equal(7000, config.GRPCPort)
}

func TestLoadConfig_Requires_Secret(t *testing.T) {
	req := require.New(t)
	t.Setenv("BADGER_FILEPATH", t.TempDir())
	t.Setenv("JWT_SECRET", "")
	req.NoError(os.Unsetenv("JWT_SECRET"))

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	req.Error(err)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		JWTSecret:       secret,
		CharReplacement: "*",
		MessageTTL:      time.Hour,
		ReaperInterval:  time.Minute,
		ReaperBatchSize: 10,
		NumberOfWorkers: 2,
		EventRateLimit:  5,
		EventRateBurst:  5,
		MetricInterval:  time.Second,
	}
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "valid cron", mutate: func(c *Config) { c.ReaperCron = "*/5 * * * *" }},
		{name: "zero ttl", mutate: func(c *Config) { c.MessageTTL = 0 }, errMsg: "MESSAGE_TTL"},
		{name: "negative interval", mutate: func(c *Config) { c.ReaperInterval = -time.Second }, errMsg: "REAPER_INTERVAL"},
		{name: "bad cron", mutate: func(c *Config) { c.ReaperCron = "every day" }, errMsg: "REAPER_CRON"},
		{name: "no batch", mutate: func(c *Config) { c.ReaperBatchSize = 0 }, errMsg: "REAPER_BATCH_SIZE"},
		{name: "no metric interval", mutate: func(c *Config) { c.MetricInterval = 0 }, errMsg: "METRIC_INTERVAL"},
		{name: "no worker", mutate: func(c *Config) { c.NumberOfWorkers = 0 }, errMsg: "NUMBER_OF_WORKERS"},
		{name: "no rate", mutate: func(c *Config) { c.EventRateLimit = 0 }, errMsg: "EVENT_RATE_LIMIT"},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = "short" }, errMsg: "JWT_SECRET"},
		{name: "multi rune replacement", mutate: func(c *Config) { c.CharReplacement = "**" }, errMsg: "CHARACTER_REPLACEMENT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			config := valid
			tt.mutate(&config)

			err := config.Validate()

			if tt.errMsg == "" {
				req.NoError(err)
				return
			}
			req.ErrorContains(err, tt.errMsg)
		})
	}
}

func TestConfig_Words(t *testing.T) {
	req := require.New(t)
	config := Config{CensoredWords: " spam, ,scam ,"}

	req.Equal([]string{"spam", "scam"}, config.Words())
}

func TestLoadCensor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given no word at all, moderation is disabled
	censor, err := loadCensor(Config{CharReplacement: "*"}, log)
	req.NoError(err)
	req.Nil(censor)

	// Given a word directory and inline words
	dir := t.TempDir()
	req.NoError(os.WriteFile(filepath.Join(dir, "en.txt"), []byte("spam\n"), 0o600))
	censor, err = loadCensor(Config{CharReplacement: "#", CensoredWords: "scam", CensoredWordsDir: dir}, log)
	req.NoError(err)
	req.NotNil(censor)

	// Then both sources are censored
	text, matched := censor.Censor("no spam, no scam")
	req.Equal("no ####, no ####", text)
	req.Len(matched, 2)
	req.False(strings.Contains(text, "spam"))
}
