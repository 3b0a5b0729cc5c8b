package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

// Config points the suites at a running server. They are skipped when
// E2E_GRPC_ADDR is empty.
type Config struct {
	GRPCAddr string `envconfig:"E2E_GRPC_ADDR"`
	HTTPAddr string `envconfig:"E2E_HTTP_ADDR" default:"http://localhost:8081"`
	// E2E_DEBUG_JSON dumps every realtime frame as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
