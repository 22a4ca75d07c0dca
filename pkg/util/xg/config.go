package xg

import (
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Fill strategy names accepted by the strength estimator
const (
	FillLeagueMean = "league_mean"
	FillTeamMedian = "team_median"
	FillZero       = "zero"
)

// XgConfig centralizes every parameter that influences estimation and
// prediction so nothing is buried as a magic number
type XgConfig struct {
	// Filesystem layout
	DataDir       string `mapstructure:"DATA_DIR"`       // base directory for all engine data
	RawDir        string `mapstructure:"RAW_DIR"`        // raw ingested xG CSVs
	CleanDir      string `mapstructure:"CLEAN_DIR"`      // cleaned xG CSVs
	StrengthsPath string `mapstructure:"STRENGTHS_PATH"` // canonical strength table the predictor reads
	HistoryDbPath string `mapstructure:"HISTORY_DB_PATH"`

	// Estimator settings
	FillMethod string `mapstructure:"FILL_METHOD"` // league_mean, team_median or zero
	Version    string `mapstructure:"VERSION"`     // tag appended to strength table filenames

	// Predictor settings
	// PoissonRange is the number of goal counts considered, so 6 means
	// scores 0..5. The distribution is deliberately truncated there:
	// realistic football scorelines rarely exceed that range, so the lost
	// tail mass is an accepted approximation rather than a defect.
	PoissonRange        int `mapstructure:"POISSON_RANGE"`
	ExpectedXgPrecision int `mapstructure:"EXPECTED_XG_PRECISION"` // decimal places for display
}

// DefaultConfig returns the standard configuration
func DefaultConfig() *XgConfig {
	dataDir := "data"
	return &XgConfig{
		DataDir:             dataDir,
		RawDir:              filepath.Join(dataDir, "raw"),
		CleanDir:            filepath.Join(dataDir, "clean"),
		StrengthsPath:       filepath.Join(dataDir, "team_strengths.csv"),
		HistoryDbPath:       filepath.Join(dataDir, "history.db"),
		FillMethod:          FillLeagueMean,
		Version:             "v1",
		PoissonRange:        6,
		ExpectedXgPrecision: 2,
	}
}

// Config is the process-wide configuration instance
var Config *XgConfig

func init() {
	Config = DefaultConfig()
}

// LoadConfig reads configuration from the environment and an optional .env
// file, overlaying the defaults. Environment keys carry a TACTI_ prefix,
// e.g. TACTI_FILL_METHOD=team_median.
func LoadConfig() (*XgConfig, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	defaults := DefaultConfig()
	v.SetDefault("DATA_DIR", defaults.DataDir)
	v.SetDefault("RAW_DIR", defaults.RawDir)
	v.SetDefault("CLEAN_DIR", defaults.CleanDir)
	v.SetDefault("STRENGTHS_PATH", defaults.StrengthsPath)
	v.SetDefault("HISTORY_DB_PATH", defaults.HistoryDbPath)
	v.SetDefault("FILL_METHOD", defaults.FillMethod)
	v.SetDefault("VERSION", defaults.Version)
	v.SetDefault("POISSON_RANGE", defaults.PoissonRange)
	v.SetDefault("EXPECTED_XG_PRECISION", defaults.ExpectedXgPrecision)

	v.SetEnvPrefix("TACTI")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	config := &XgConfig{}
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	Config = config
	return config, nil
}

// ValidateConfig ensures configuration values are usable before any
// computation starts
func ValidateConfig(config *XgConfig) error {
	switch config.FillMethod {
	case FillLeagueMean, FillTeamMedian, FillZero:
	default:
		return &ConfigurationError{Field: "fill_method", Value: config.FillMethod}
	}

	if config.PoissonRange < 3 {
		return &ConfigurationError{Field: "poisson_range", Value: strconv.Itoa(config.PoissonRange)}
	}

	if config.ExpectedXgPrecision < 0 {
		return &ConfigurationError{Field: "expected_xg_precision", Value: strconv.Itoa(config.ExpectedXgPrecision)}
	}

	return nil
}
