// Package config loads a node's runtime configuration from YAML plus
// environment overrides, merging a named overlay on top of sane defaults.
package config

import (
	"fmt"

	"github.com/manifoldweb/node/internal/errs"
	"github.com/spf13/viper"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a manifold node.
type Config struct {
	Network struct {
		ID             string   `mapstructure:"id" json:"id"`
		ListenAddr     string   `mapstructure:"listen_addr" json:"listen_addr"`
		P2PPort        int      `mapstructure:"p2p_port" json:"p2p_port"`
		MaxPeers       int      `mapstructure:"max_peers" json:"max_peers"`
		DiscoveryTag   string   `mapstructure:"discovery_tag" json:"discovery_tag"`
		BootstrapPeers []string `mapstructure:"bootstrap_peers" json:"bootstrap_peers"`
	} `mapstructure:"network" json:"network"`

	Sector struct {
		Size float32 `mapstructure:"size" json:"size"`
	} `mapstructure:"sector" json:"sector"`

	Tick struct {
		PeriodMS              int     `mapstructure:"period_ms" json:"period_ms"`
		MutationRate           float64 `mapstructure:"mutation_rate" json:"mutation_rate"`
		ReplicationThreshold   uint64  `mapstructure:"replication_threshold" json:"replication_threshold"`
		ReplicationTax         uint64  `mapstructure:"replication_tax" json:"replication_tax"`
		SandboxFailurePenalty  uint64  `mapstructure:"sandbox_failure_penalty" json:"sandbox_failure_penalty"`
	} `mapstructure:"tick" json:"tick"`

	Consensus struct {
		RoundTimeoutMS int `mapstructure:"round_timeout_ms" json:"round_timeout_ms"`
	} `mapstructure:"consensus" json:"consensus"`

	DeadReckoning struct {
		BlendFactor       float32 `mapstructure:"blend_factor" json:"blend_factor"`
		SmoothingAlpha    float32 `mapstructure:"smoothing_alpha" json:"smoothing_alpha"`
		MaxErrorThreshold float32 `mapstructure:"max_error_threshold" json:"max_error_threshold"`
	} `mapstructure:"dead_reckoning" json:"dead_reckoning"`

	Genesis struct {
		ManifestFile string `mapstructure:"manifest_file" json:"manifest_file"`
	} `mapstructure:"genesis" json:"genesis"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configs/default.yaml and merges any environment-specific
// overrides named by env (e.g. "sandbox" loads configs/sandbox.yaml on top
// of the defaults). The resulting configuration is stored in AppConfig and
// returned.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("configs")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, errs.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, errs.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, errs.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the MANIFOLD_ENV environment
// variable to select an overlay.
func LoadFromEnv() (*Config, error) {
	return Load(EnvOrDefault("MANIFOLD_ENV", ""))
}
