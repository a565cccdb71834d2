package config

import (
	"github.com/bobmcallan/toolsmith/internal/common"
	"github.com/bobmcallan/toolsmith/internal/models"
)

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 4270,
			Host: "localhost",
		},
		Upstream: UpstreamConfig{
			TimeoutSeconds: 300,
		},
		Logging: common.LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console", "file"},
			FilePath:   "logs/toolsmith.log",
			MaxSizeMB:  10,
			MaxBackups: 20,
		},
		Policy: models.SafetyPolicy{
			RequireWriteConfirmation: true,
		},
		Enhance: EnhanceConfig{
			TimeoutSeconds: 30,
			Providers: []ProviderConfig{
				{
					Name:    "k2",
					BaseURL: "https://api.ifm.ai/v1",
					Model:   "K2-Chat",
					KeyEnv:  "K2_API_KEY",
				},
				{
					Name:    "featherless",
					BaseURL: "https://api.featherless.ai/v1",
					Model:   "deepseek-ai/DeepSeek-V3-0324",
					KeyEnv:  "FEATHERLESS_API_KEY",
				},
			},
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Cache: CacheConfig{
			TTLSeconds: 60,
			MaxEntries: 256,
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
	}
}
