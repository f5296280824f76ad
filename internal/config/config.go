// Package config loads feeling-system configuration from YAML, environment
// variables and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/feeling-system/internal/embodied"
	"github.com/danielpatrickdp/feeling-system/internal/ethics"
	"github.com/danielpatrickdp/feeling-system/internal/feeling"
	"github.com/danielpatrickdp/feeling-system/internal/logging"
	"github.com/danielpatrickdp/feeling-system/internal/memory"
	"github.com/danielpatrickdp/feeling-system/internal/mortality"
	"github.com/danielpatrickdp/feeling-system/internal/narrative"
	"github.com/danielpatrickdp/feeling-system/internal/relational"
	"github.com/danielpatrickdp/feeling-system/internal/signals"
	"github.com/danielpatrickdp/feeling-system/internal/synthesis"
)

// EnvPrefix prefixes every environment override, e.g. FEELING_MEMORY_MAX_MEMORIES.
const EnvPrefix = "FEELING"

// #region types

// Config holds the complete application configuration.
type Config struct {
	Storage    StorageConfig     `mapstructure:"storage" yaml:"storage"`
	Logging    logging.Config    `mapstructure:"logging" yaml:"logging"`
	Server     ServerConfig      `mapstructure:"server" yaml:"server"`
	Mortality  MortalityConfig   `mapstructure:"mortality" yaml:"mortality"`
	Embodied   EmbodiedConfig    `mapstructure:"embodied" yaml:"embodied"`
	Memory     MemoryConfig      `mapstructure:"memory" yaml:"memory"`
	Relational RelationalConfig  `mapstructure:"relational" yaml:"relational"`
	Ethics     EthicsConfig      `mapstructure:"ethics" yaml:"ethics"`
	Signals    SignalsConfig     `mapstructure:"signals" yaml:"signals"`
	Weights    synthesis.Weights `mapstructure:"weights" yaml:"weights"`
}

// StorageConfig selects where state is persisted. Empty values disable a store.
type StorageConfig struct {
	Key    string `mapstructure:"key" yaml:"key"`         // snapshot file prefix
	DBPath string `mapstructure:"db_path" yaml:"db_path"` // SQLite history
}

// ServerConfig holds the gRPC listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type MortalityConfig struct {
	InitialCoherence float64 `mapstructure:"initial_coherence" yaml:"initial_coherence"`
	DecayRate        float64 `mapstructure:"decay_rate" yaml:"decay_rate"`
	RenewalGain      float64 `mapstructure:"renewal_gain" yaml:"renewal_gain"`
	EntropyLogSize   int     `mapstructure:"entropy_log_size" yaml:"entropy_log_size"`
}

type EmbodiedConfig struct {
	MaxEnergy     float64 `mapstructure:"max_energy" yaml:"max_energy"`
	MaxAttention  float64 `mapstructure:"max_attention" yaml:"max_attention"`
	MaxProcessing float64 `mapstructure:"max_processing" yaml:"max_processing"`
	HistorySize   int     `mapstructure:"history_size" yaml:"history_size"`
}

type MemoryConfig struct {
	MaxMemories        int     `mapstructure:"max_memories" yaml:"max_memories"`
	DecayHalfLifeHours float64 `mapstructure:"decay_half_life_hours" yaml:"decay_half_life_hours"`
}

type RelationalConfig struct {
	InitialTrust    float64 `mapstructure:"initial_trust" yaml:"initial_trust"`
	InitialIntimacy float64 `mapstructure:"initial_intimacy" yaml:"initial_intimacy"`
}

type EthicsConfig struct {
	Values           map[string]float64 `mapstructure:"values" yaml:"values"`
	MoralSensitivity float64            `mapstructure:"moral_sensitivity" yaml:"moral_sensitivity"`
	LogSize          int                `mapstructure:"log_size" yaml:"log_size"`
}

type SignalsConfig struct {
	QualityFloor   float64 `mapstructure:"quality_floor" yaml:"quality_floor"`
	EmptyQuality   float64 `mapstructure:"empty_quality" yaml:"empty_quality"`
	EmpathyDivisor float64 `mapstructure:"empathy_divisor" yaml:"empathy_divisor"`
}

// #endregion types

// #region defaults

// DefaultConfig mirrors feeling.DefaultConfig with logging and storage added.
func DefaultConfig() *Config {
	f := feeling.DefaultConfig()
	return &Config{
		Storage: StorageConfig{DBPath: "feeling.db"},
		Logging: logging.DefaultConfig(),
		Server:  ServerConfig{Addr: "127.0.0.1:50061"},
		Mortality: MortalityConfig{
			InitialCoherence: f.Mortality.InitialCoherence,
			DecayRate:        f.Mortality.DecayRate,
			RenewalGain:      f.Mortality.RenewalGain,
			EntropyLogSize:   f.Mortality.LogSize,
		},
		Embodied: EmbodiedConfig{
			MaxEnergy:     f.Embodied.MaxEnergy,
			MaxAttention:  f.Embodied.MaxAttention,
			MaxProcessing: f.Embodied.MaxProcessing,
			HistorySize:   f.Embodied.HistorySize,
		},
		Memory: MemoryConfig{
			MaxMemories:        f.Memory.MaxMemories,
			DecayHalfLifeHours: f.Memory.DecayHalfLifeHours,
		},
		Relational: RelationalConfig{
			InitialTrust:    f.Relational.InitialTrust,
			InitialIntimacy: f.Relational.InitialIntimacy,
		},
		Ethics: EthicsConfig{
			Values:           f.Ethics.Values,
			MoralSensitivity: f.Ethics.MoralSensitivity,
			LogSize:          f.Ethics.LogSize,
		},
		Signals: SignalsConfig{
			QualityFloor:   f.Signals.QualityFloor,
			EmptyQuality:   f.Signals.EmptyQuality,
			EmpathyDivisor: f.Signals.EmpathyDivisor,
		},
		Weights: f.Weights,
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("storage.key", d.Storage.Key)
	v.SetDefault("storage.db_path", d.Storage.DBPath)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("mortality.initial_coherence", d.Mortality.InitialCoherence)
	v.SetDefault("mortality.decay_rate", d.Mortality.DecayRate)
	v.SetDefault("mortality.renewal_gain", d.Mortality.RenewalGain)
	v.SetDefault("mortality.entropy_log_size", d.Mortality.EntropyLogSize)
	v.SetDefault("embodied.max_energy", d.Embodied.MaxEnergy)
	v.SetDefault("embodied.max_attention", d.Embodied.MaxAttention)
	v.SetDefault("embodied.max_processing", d.Embodied.MaxProcessing)
	v.SetDefault("embodied.history_size", d.Embodied.HistorySize)
	v.SetDefault("memory.max_memories", d.Memory.MaxMemories)
	v.SetDefault("memory.decay_half_life_hours", d.Memory.DecayHalfLifeHours)
	v.SetDefault("relational.initial_trust", d.Relational.InitialTrust)
	v.SetDefault("relational.initial_intimacy", d.Relational.InitialIntimacy)
	v.SetDefault("ethics.values", d.Ethics.Values)
	v.SetDefault("ethics.moral_sensitivity", d.Ethics.MoralSensitivity)
	v.SetDefault("ethics.log_size", d.Ethics.LogSize)
	v.SetDefault("signals.quality_floor", d.Signals.QualityFloor)
	v.SetDefault("signals.empty_quality", d.Signals.EmptyQuality)
	v.SetDefault("signals.empathy_divisor", d.Signals.EmpathyDivisor)
	v.SetDefault("weights.mortality", d.Weights.Mortality)
	v.SetDefault("weights.relational", d.Weights.Relational)
	v.SetDefault("weights.memory", d.Weights.Memory)
	v.SetDefault("weights.embodied", d.Weights.Embodied)
	v.SetDefault("weights.narrative", d.Weights.Narrative)
	v.SetDefault("weights.ethical", d.Weights.Ethical)
}

// #endregion defaults

// #region load

// Load reads configuration from configPath (or ./feeling.yaml when empty),
// then applies FEELING_* environment overrides. A missing default file is
// not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("feeling")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// SaveToFile writes c as YAML.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// #endregion load

// #region convert

// Feeling converts c into a coordinator configuration. Narrative core values
// follow the ethical value names.
func (c *Config) Feeling() feeling.Config {
	eth := ethics.Config{
		Values:           copyValues(c.Ethics.Values),
		MoralSensitivity: c.Ethics.MoralSensitivity,
		LogSize:          c.Ethics.LogSize,
	}
	return feeling.Config{
		Mortality: mortality.Config{
			InitialCoherence: c.Mortality.InitialCoherence,
			DecayRate:        c.Mortality.DecayRate,
			RenewalGain:      c.Mortality.RenewalGain,
			LogSize:          c.Mortality.EntropyLogSize,
		},
		Embodied: embodied.Config{
			MaxEnergy:     c.Embodied.MaxEnergy,
			MaxAttention:  c.Embodied.MaxAttention,
			MaxProcessing: c.Embodied.MaxProcessing,
			HistorySize:   c.Embodied.HistorySize,
		},
		Memory: memory.Config{
			MaxMemories:        c.Memory.MaxMemories,
			DecayHalfLifeHours: c.Memory.DecayHalfLifeHours,
		},
		Relational: relational.Config{
			InitialTrust:    c.Relational.InitialTrust,
			InitialIntimacy: c.Relational.InitialIntimacy,
		},
		Narrative: narrative.Config{CoreValues: eth.ValueNames()},
		Ethics:    eth,
		Signals: signals.ProducerConfig{
			QualityFloor:   c.Signals.QualityFloor,
			EmptyQuality:   c.Signals.EmptyQuality,
			EmpathyDivisor: c.Signals.EmpathyDivisor,
		},
		Weights:    c.Weights,
		StorageKey: c.Storage.Key,
	}
}

func copyValues(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// #endregion convert
