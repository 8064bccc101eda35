package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PricingSettings are runtime tunables for the pricing core. They never change
// how a given version prices an input; they only steer the surrounding flow.
type PricingSettings struct {
	// StrictTimeSlots rejects quotes that reference time slot ids missing
	// from the active version instead of ignoring them.
	StrictTimeSlots      bool
	ResolverCacheTTL     time.Duration
	DefaultBasePrice     string
	DefaultTokenUsdPrice string
	DefaultConfigName    string
}

func DefaultPricingSettings() PricingSettings {
	return PricingSettings{
		StrictTimeSlots:      false,
		ResolverCacheTTL:     30 * time.Second,
		DefaultBasePrice:     "10",
		DefaultTokenUsdPrice: "0.04",
		DefaultConfigName:    "Default Config",
	}
}

// BasePrice returns the default base price applied to authoring requests that omit one.
func (s PricingSettings) BasePrice() decimal.Decimal {
	return decimal.RequireFromString(s.DefaultBasePrice)
}

// TokenUsdPrice returns the default token exchange rate.
func (s PricingSettings) TokenUsdPrice() decimal.Decimal {
	return decimal.RequireFromString(s.DefaultTokenUsdPrice)
}

type PricingSettingsHolder struct {
	current atomic.Value // holds PricingSettings
}

// NewStaticPricingSettings returns a holder that never reloads.
func NewStaticPricingSettings(settings PricingSettings) *PricingSettingsHolder {
	holder := &PricingSettingsHolder{}
	holder.current.Store(settings)
	return holder
}

func NewPricingSettingsHolder(cfg Config) (*PricingSettingsHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	if cfg.PricingSettingsPath != "" {
		v.AddConfigPath(cfg.PricingSettingsPath)
	}
	v.AddConfigPath("/etc/adpricing")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ADPRICING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPricingSettings()
	v.SetDefault("pricing.strictTimeSlots", defaults.StrictTimeSlots)
	v.SetDefault("pricing.resolverCacheTTL", defaults.ResolverCacheTTL)
	v.SetDefault("pricing.defaultBasePrice", defaults.DefaultBasePrice)
	v.SetDefault("pricing.defaultTokenUsdPrice", defaults.DefaultTokenUsdPrice)
	v.SetDefault("pricing.defaultConfigName", defaults.DefaultConfigName)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	settings := readPricingSettings(v)
	if err := validatePricingSettings(settings); err != nil {
		return nil, err
	}

	holder := NewStaticPricingSettings(settings)

	if fileFound {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated := readPricingSettings(v)
			if err := validatePricingSettings(updated); err != nil {
				zap.L().Warn("invalid pricing settings ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			zap.L().Info("pricing settings reloaded", zap.String("file", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

// readPricingSettings reads leaf keys one by one so that keys missing from the
// file still resolve to their defaults.
func readPricingSettings(v *viper.Viper) PricingSettings {
	return PricingSettings{
		StrictTimeSlots:      v.GetBool("pricing.strictTimeSlots"),
		ResolverCacheTTL:     v.GetDuration("pricing.resolverCacheTTL"),
		DefaultBasePrice:     strings.TrimSpace(v.GetString("pricing.defaultBasePrice")),
		DefaultTokenUsdPrice: strings.TrimSpace(v.GetString("pricing.defaultTokenUsdPrice")),
		DefaultConfigName:    strings.TrimSpace(v.GetString("pricing.defaultConfigName")),
	}
}

func (h *PricingSettingsHolder) Get() PricingSettings {
	if h == nil {
		return DefaultPricingSettings()
	}
	settings, ok := h.current.Load().(PricingSettings)
	if !ok {
		return DefaultPricingSettings()
	}
	return settings
}

func validatePricingSettings(s PricingSettings) error {
	if s.ResolverCacheTTL < 0 {
		return errors.New("pricing.resolverCacheTTL cannot be negative")
	}
	base, err := decimal.NewFromString(strings.TrimSpace(s.DefaultBasePrice))
	if err != nil {
		return fmt.Errorf("pricing.defaultBasePrice: %w", err)
	}
	if !base.IsPositive() {
		return errors.New("pricing.defaultBasePrice must be greater than 0")
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(s.DefaultTokenUsdPrice))
	if err != nil {
		return fmt.Errorf("pricing.defaultTokenUsdPrice: %w", err)
	}
	if !rate.IsPositive() {
		return errors.New("pricing.defaultTokenUsdPrice must be greater than 0")
	}
	if strings.TrimSpace(s.DefaultConfigName) == "" {
		return errors.New("pricing.defaultConfigName cannot be empty")
	}
	return nil
}
