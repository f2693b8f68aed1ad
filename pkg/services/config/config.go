package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	ProviderDataproc   = "dataproc"
	ProviderDatabricks = "databricks"
	ProviderEMR        = "emr"

	DefaultConfigurationPrefix   = "dataproc-cluster-configuration-library"
	DefaultRecommendationsPrefix = "dataproc-cluster-spark-recommendations"
	DefaultConcurrency           = 4
	DefaultDatabricksProfile     = "DEFAULT"

	envPrefix = "SPARK_ADVISOR"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Config struct {
	Provider string `mapstructure:"provider" validate:"required"`
	Project  string `mapstructure:"project"`
	Region   string `mapstructure:"region"`
	Zone     string `mapstructure:"zone"`
	// Profile names a .databrickscfg section for databricks or a shared AWS profile for emr.
	Profile              string `mapstructure:"profile"`
	DatabricksConfigPath string `mapstructure:"databricks_config"`

	// Sink is the blob destination URI, e.g. gs://bucket, s3://bucket/prefix.
	Sink   string `mapstructure:"sink" validate:"required"`
	Bucket string `mapstructure:"bucket"`

	ConfigurationPrefix   string `mapstructure:"configuration_prefix"`
	RecommendationsPrefix string `mapstructure:"recommendations_prefix"`
	Concurrency           int    `mapstructure:"concurrency"`
	HistoryDB             string `mapstructure:"history_db"`

	Server ServerConfig `mapstructure:"server"`
}

// Load reads the configuration file at path, when given, and applies
// SPARK_ADVISOR_* environment overrides. PROJECT_ID, REGION, ZONE and
// BUCKET_NAME are honoured as fallbacks.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("provider", ProviderDataproc)
	v.SetDefault("profile", "")
	v.SetDefault("databricks_config", "")
	v.SetDefault("sink", "")
	v.SetDefault("configuration_prefix", DefaultConfigurationPrefix)
	v.SetDefault("recommendations_prefix", DefaultRecommendationsPrefix)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("history_db", "")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "")

	bindings := map[string]string{
		"project": "PROJECT_ID",
		"region":  "REGION",
		"zone":    "ZONE",
		"bucket":  "BUCKET_NAME",
	}
	for key, legacy := range bindings {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(key), legacy); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse advisor config: %w", err)
	}

	if cfg.Sink == "" && cfg.Bucket != "" {
		cfg.Sink = "gs://" + cfg.Bucket
	}
	if cfg.Provider == ProviderDatabricks && cfg.Profile == "" {
		cfg.Profile = DefaultDatabricksProfile
	}

	return &cfg, nil
}

// Validate fails when a value the configured provider needs is absent.
func (c Config) Validate() error {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	require("sink", c.Sink)
	switch c.Provider {
	case ProviderDataproc:
		require("project", c.Project)
		require("region", c.Region)
		require("zone", c.Zone)
	case ProviderDatabricks:
		require("profile", c.Profile)
	case ProviderEMR:
		require("region", c.Region)
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration for provider %s: %s",
			c.Provider, strings.Join(missing, ", "))
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}

// Target describes what a run audits, e.g. "my-project/us-central1".
func (c Config) Target() string {
	switch c.Provider {
	case ProviderDataproc:
		return c.Project + "/" + c.Region
	case ProviderDatabricks:
		return c.Profile
	default:
		if c.Profile != "" {
			return c.Profile + "/" + c.Region
		}
		return c.Region
	}
}
