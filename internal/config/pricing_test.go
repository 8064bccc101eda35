package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingSettingsDefaultsWhenFileMissing(t *testing.T) {
	holder, err := NewPricingSettingsHolder(Config{PricingSettingsPath: t.TempDir()})
	require.NoError(t, err)

	got := holder.Get()
	assert.False(t, got.StrictTimeSlots)
	assert.Equal(t, 30*time.Second, got.ResolverCacheTTL)
	assert.Equal(t, "10", got.BasePrice().String())
	assert.Equal(t, "0.04", got.TokenUsdPrice().String())
	assert.Equal(t, "Default Config", got.DefaultConfigName)
}

func TestPricingSettingsFromFile(t *testing.T) {
	dir := t.TempDir()
	body := []byte(`pricing:
  strictTimeSlots: true
  resolverCacheTTL: 5s
  defaultBasePrice: "25.5"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pricing.yml"), body, 0o600))

	holder, err := NewPricingSettingsHolder(Config{PricingSettingsPath: dir})
	require.NoError(t, err)

	got := holder.Get()
	assert.True(t, got.StrictTimeSlots)
	assert.Equal(t, 5*time.Second, got.ResolverCacheTTL)
	assert.Equal(t, "25.5", got.BasePrice().String())
	// keys absent from the file keep their defaults
	assert.Equal(t, "0.04", got.TokenUsdPrice().String())
}

func TestPricingSettingsRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	body := []byte(`pricing:
  defaultBasePrice: "0"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pricing.yml"), body, 0o600))

	_, err := NewPricingSettingsHolder(Config{PricingSettingsPath: dir})
	assert.Error(t, err)
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var holder *PricingSettingsHolder
	assert.Equal(t, DefaultPricingSettings(), holder.Get())
}
