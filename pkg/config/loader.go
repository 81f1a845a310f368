package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from configPath, or from .esdown.yaml in
// the working directory or ./config when configPath is empty. A missing
// default file is not an error; a missing explicit file is. ESDOWN_*
// environment variables override file values.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("translate.runtime", DefaultTranslateRuntime)
	viperCfg.SetDefault("translate.wrap", DefaultTranslateWrap)
	viperCfg.SetDefault("translate.global", DefaultTranslateGlobal)

	viperCfg.SetDefault("bundle.runtime", DefaultBundleRuntime)
	viperCfg.SetDefault("bundle.max_concurrent_reads", DefaultBundleMaxConcurrentReads)

	viperCfg.SetDefault("resolve.default_extension", DefaultResolveExtension)
	viperCfg.SetDefault("resolve.index_file", DefaultResolveIndexFile)
	viperCfg.SetDefault("resolve.legacy_schemes", DefaultLegacySchemes)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultTelemetryInsecure)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
}
