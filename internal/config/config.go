package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
	Analysis    AnalysisConfig `mapstructure:"analysis"`
	Logging     LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	HTTPPort     int `mapstructure:"http_port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	IdleTimeout  int `mapstructure:"idle_timeout"`
}

// KafkaConfig holds event publishing configuration. An empty broker
// list disables publishing entirely.
type KafkaConfig struct {
	Brokers                []string `mapstructure:"brokers"`
	AnalysisCompletedTopic string   `mapstructure:"analysis_completed_topic"`
}

// Enabled reports whether event publishing is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// AnalysisConfig holds the network analysis constants. These are
// configuration rather than hard-coded values so the qualitative
// boundaries can be tuned without touching the engine.
type AnalysisConfig struct {
	MinRelationshipStrength  float64 `mapstructure:"min_relationship_strength"`
	DenseThreshold           float64 `mapstructure:"dense_threshold"`
	SparseThreshold          float64 `mapstructure:"sparse_threshold"`
	MaxNetworkDepth          int     `mapstructure:"max_network_depth"`
	MaxConnectionPaths       int     `mapstructure:"max_connection_paths"`
	CommunitySeed            int64   `mapstructure:"community_seed"`
	CommunityResolution      float64 `mapstructure:"community_resolution"`
	EigenvectorMaxIterations int     `mapstructure:"eigenvector_max_iterations"`
	EigenvectorTolerance     float64 `mapstructure:"eigenvector_tolerance"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from config files and environment
// variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/powermap")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("POWERMAP")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// DefaultAnalysis returns the analysis constants used when no
// configuration source overrides them.
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		MinRelationshipStrength:  0.1,
		DenseThreshold:           0.5,
		SparseThreshold:          0.1,
		MaxNetworkDepth:          3,
		MaxConnectionPaths:       5,
		CommunitySeed:            42,
		CommunityResolution:      1.0,
		EigenvectorMaxIterations: 1000,
		EigenvectorTolerance:     1e-3,
	}
}

func setDefaults() {
	viper.SetDefault("environment", "development")

	viper.SetDefault("server.http_port", 8084)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)

	viper.SetDefault("kafka.brokers", []string{})
	viper.SetDefault("kafka.analysis_completed_topic", "analysis.completed")

	defaults := DefaultAnalysis()
	viper.SetDefault("analysis.min_relationship_strength", defaults.MinRelationshipStrength)
	viper.SetDefault("analysis.dense_threshold", defaults.DenseThreshold)
	viper.SetDefault("analysis.sparse_threshold", defaults.SparseThreshold)
	viper.SetDefault("analysis.max_network_depth", defaults.MaxNetworkDepth)
	viper.SetDefault("analysis.max_connection_paths", defaults.MaxConnectionPaths)
	viper.SetDefault("analysis.community_seed", defaults.CommunitySeed)
	viper.SetDefault("analysis.community_resolution", defaults.CommunityResolution)
	viper.SetDefault("analysis.eigenvector_max_iterations", defaults.EigenvectorMaxIterations)
	viper.SetDefault("analysis.eigenvector_tolerance", defaults.EigenvectorTolerance)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

func validateConfig(config *Config) error {
	if config.Server.HTTPPort <= 0 || config.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", config.Server.HTTPPort)
	}

	if config.Kafka.Enabled() && config.Kafka.AnalysisCompletedTopic == "" {
		return fmt.Errorf("analysis_completed_topic is required when Kafka brokers are set")
	}

	a := config.Analysis
	if a.MinRelationshipStrength < 0 || a.MinRelationshipStrength > 1 {
		return fmt.Errorf("min_relationship_strength must be between 0 and 1")
	}
	if a.SparseThreshold < 0 || a.SparseThreshold > 1 {
		return fmt.Errorf("sparse_threshold must be between 0 and 1")
	}
	if a.DenseThreshold < 0 || a.DenseThreshold > 1 {
		return fmt.Errorf("dense_threshold must be between 0 and 1")
	}
	if a.SparseThreshold > a.DenseThreshold {
		return fmt.Errorf("sparse_threshold must not exceed dense_threshold")
	}
	if a.MaxNetworkDepth <= 0 {
		return fmt.Errorf("max_network_depth must be positive")
	}
	if a.MaxConnectionPaths <= 0 {
		return fmt.Errorf("max_connection_paths must be positive")
	}
	if a.CommunityResolution <= 0 {
		return fmt.Errorf("community_resolution must be positive")
	}
	if a.EigenvectorMaxIterations <= 0 {
		return fmt.Errorf("eigenvector_max_iterations must be positive")
	}
	if a.EigenvectorTolerance <= 0 {
		return fmt.Errorf("eigenvector_tolerance must be positive")
	}

	return nil
}
