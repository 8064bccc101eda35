package observability

import (
	"testing"

	"github.com/smallbiznis/adpricing/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaultsServiceName(t *testing.T) {
	cfg := LoadConfig(config.Config{Environment: " production ", LogLevel: "INFO"})
	assert.Equal(t, "adpricing", cfg.ServiceName)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Debug())
}

func TestDebugFollowsLevelOrEnvironment(t *testing.T) {
	assert.True(t, Config{LogLevel: "debug", Environment: "production"}.Debug())
	assert.True(t, Config{LogLevel: "info", Environment: "local"}.Debug())
	assert.False(t, Config{LogLevel: "warn", Environment: "staging"}.Debug())
}

func TestLoadConfigClampsSamplingRatio(t *testing.T) {
	assert.Equal(t, 1.0, LoadConfig(config.Config{OtelSamplingRatio: 3}).OtelSamplingRatio)
	assert.Equal(t, 0.0, LoadConfig(config.Config{OtelSamplingRatio: -1}).OtelSamplingRatio)
	assert.Equal(t, 0.25, LoadConfig(config.Config{OtelSamplingRatio: 0.25}).OtelSamplingRatio)
}
