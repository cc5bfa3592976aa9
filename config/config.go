// Package config is for engine-wide settings that are unmarshalled from
// Viper (see: /cmd). Thresholds live in blueprint.yaml; every key can be
// overridden through a BLUEPRINT_* environment variable.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/A-Akhil/BluePrint/pkg/model"
)

// Worker pool bounds enforced by Validate.
const (
	minWorkers = 2
	maxWorkers = 20
)

// ScoringConfig sets the confidence tiers applied to match scores.
type ScoringConfig struct {
	// score at or above which an assignment is high confidence
	HighThreshold float64 `mapstructure:"high_threshold"`

	// score at or above which an assignment is medium confidence
	MediumThreshold float64 `mapstructure:"medium_threshold"`

	// score at or above which an assignment is low confidence
	LowThreshold float64 `mapstructure:"low_threshold"`

	// coverage percent below which the identity fraction is down-weighted
	CoveragePenaltyFloor float64 `mapstructure:"coverage_penalty_floor"`
}

// CascadeConfig drives the ordered database cascade.
type CascadeConfig struct {
	// score at which a stage's best hit stops the cascade early
	AcceptanceThreshold float64 `mapstructure:"acceptance_threshold"`

	// identity percent below which a matched sequence is still flagged novel
	NovelIdentityThreshold float64 `mapstructure:"novel_identity_threshold"`

	// e-value passed to the search tool
	EValueCutoff float64 `mapstructure:"e_value_cutoff"`

	// the reference databases in search order
	Databases []model.ReferenceDatabase `mapstructure:"databases"`
}

// PipelineConfig bounds the per-sample fan-out.
type PipelineConfig struct {
	// number of concurrent cascades per sample
	Workers int `mapstructure:"workers"`

	// per-invocation limit for the search tool
	SearchTimeout time.Duration `mapstructure:"search_timeout"`

	// wait before the single retry of a failed search
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// Config is the root-level settings struct.
type Config struct {
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Cascade  CascadeConfig  `mapstructure:"cascade"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`

	// Groups maps major community groups to the phyla counted toward them.
	Groups map[string][]string `mapstructure:"groups"`
}

// ValidationError reports a setting that would make the pipeline refuse to
// start. Nothing is searched or persisted before validation passes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Default returns the documented reference settings.
func Default() Config {
	return Config{
		Scoring: ScoringConfig{
			HighThreshold:        0.90,
			MediumThreshold:      0.70,
			LowThreshold:         0.50,
			CoveragePenaltyFloor: 70,
		},
		Cascade: CascadeConfig{
			AcceptanceThreshold:    0.70,
			NovelIdentityThreshold: 80,
			EValueCutoff:           1e-5,
			Databases:              model.DefaultDatabases,
		},
		Pipeline: PipelineConfig{
			Workers:       4,
			SearchTimeout: 30 * time.Second,
			RetryBackoff:  2 * time.Second,
		},
		Groups: model.DefaultGroups,
	}
}

// Load reads the settings file plus BLUEPRINT_* environment overrides. An
// empty path falls back to blueprint.yaml in the working directory, and a
// missing fallback file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BLUEPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("blueprint")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}

	// Composite defaults are applied here; viper defaults cover scalars.
	if len(c.Cascade.Databases) == 0 {
		c.Cascade.Databases = model.DefaultDatabases
	}
	if len(c.Groups) == 0 {
		c.Groups = model.DefaultGroups
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("scoring.high_threshold", d.Scoring.HighThreshold)
	v.SetDefault("scoring.medium_threshold", d.Scoring.MediumThreshold)
	v.SetDefault("scoring.low_threshold", d.Scoring.LowThreshold)
	v.SetDefault("scoring.coverage_penalty_floor", d.Scoring.CoveragePenaltyFloor)
	v.SetDefault("cascade.acceptance_threshold", d.Cascade.AcceptanceThreshold)
	v.SetDefault("cascade.novel_identity_threshold", d.Cascade.NovelIdentityThreshold)
	v.SetDefault("cascade.e_value_cutoff", d.Cascade.EValueCutoff)
	v.SetDefault("pipeline.workers", d.Pipeline.Workers)
	v.SetDefault("pipeline.search_timeout", d.Pipeline.SearchTimeout.String())
	v.SetDefault("pipeline.retry_backoff", d.Pipeline.RetryBackoff.String())
}

// Validate rejects settings the pipeline would refuse. It reports the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Cascade.Databases) == 0 {
		return &ValidationError{Field: "cascade.databases", Reason: "database list is empty"}
	}
	for i, db := range c.Cascade.Databases {
		if db.Name == "" {
			return &ValidationError{
				Field:  "cascade.databases",
				Reason: fmt.Sprintf("database %d has no name", i),
			}
		}
	}

	if err := checkUnit("scoring.high_threshold", c.Scoring.HighThreshold); err != nil {
		return err
	}
	if err := checkUnit("scoring.medium_threshold", c.Scoring.MediumThreshold); err != nil {
		return err
	}
	if err := checkUnit("scoring.low_threshold", c.Scoring.LowThreshold); err != nil {
		return err
	}
	if c.Scoring.HighThreshold < c.Scoring.MediumThreshold || c.Scoring.MediumThreshold < c.Scoring.LowThreshold {
		return &ValidationError{Field: "scoring", Reason: "thresholds must be ordered high >= medium >= low"}
	}
	if c.Scoring.CoveragePenaltyFloor < 0 || c.Scoring.CoveragePenaltyFloor > 100 {
		return &ValidationError{Field: "scoring.coverage_penalty_floor", Reason: "must be within [0,100]"}
	}

	if err := checkUnit("cascade.acceptance_threshold", c.Cascade.AcceptanceThreshold); err != nil {
		return err
	}
	if c.Cascade.NovelIdentityThreshold < 0 || c.Cascade.NovelIdentityThreshold > 100 {
		return &ValidationError{Field: "cascade.novel_identity_threshold", Reason: "must be within [0,100]"}
	}
	if c.Cascade.EValueCutoff <= 0 {
		return &ValidationError{Field: "cascade.e_value_cutoff", Reason: "must be positive"}
	}

	if c.Pipeline.Workers < minWorkers || c.Pipeline.Workers > maxWorkers {
		return &ValidationError{
			Field:  "pipeline.workers",
			Reason: fmt.Sprintf("must be between %d and %d", minWorkers, maxWorkers),
		}
	}
	if c.Pipeline.SearchTimeout < 0 {
		return &ValidationError{Field: "pipeline.search_timeout", Reason: "must not be negative"}
	}
	if c.Pipeline.RetryBackoff < 0 {
		return &ValidationError{Field: "pipeline.retry_backoff", Reason: "must not be negative"}
	}
	return nil
}

func checkUnit(field string, value float64) error {
	if value < 0 || value > 1 {
		return &ValidationError{Field: field, Reason: "threshold must be within [0,1]"}
	}
	return nil
}
