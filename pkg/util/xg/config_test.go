package xg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	assert.NoError(t, ValidateConfig(DefaultConfig()))
}

func TestValidateConfigRejectsBadFill(t *testing.T) {
	config := DefaultConfig()
	config.FillMethod = "hope"

	err := ValidateConfig(config)
	require.Error(t, err)

	var configErr *ConfigurationError
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, "fill_method", configErr.Field)
}

func TestValidateConfigRejectsTinyRange(t *testing.T) {
	config := DefaultConfig()
	config.PoissonRange = 2
	assert.Error(t, ValidateConfig(config))
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("TACTI_FILL_METHOD", "team_median")
	t.Setenv("TACTI_VERSION", "v7")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, FillTeamMedian, config.FillMethod)
	assert.Equal(t, "v7", config.Version)

	// Restore the process-wide defaults for other tests
	Config = DefaultConfig()
}
