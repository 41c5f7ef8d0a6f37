// Package config holds the runtime configuration for a scrape and turns it
// into the browser, locator and extractor settings the run needs.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/storepage/pkg/browser"
	"github.com/jmylchreest/storepage/pkg/extractor"
	"github.com/jmylchreest/storepage/pkg/locator"
)

// Config is the full scrape configuration. Keys match the YAML config file
// and the STOREPAGE_ environment variables.
type Config struct {
	AppID    string `mapstructure:"app_id" validate:"required"`
	Country  string `mapstructure:"country" validate:"required,alpha,len=2"`
	Language string `mapstructure:"lang" validate:"required"`
	Slug     string `mapstructure:"slug" validate:"required"`
	URL      string `mapstructure:"url" validate:"omitempty,url"`

	DriverPath        string        `mapstructure:"driver_path"`
	RemoteURL         string        `mapstructure:"remote_url" validate:"omitempty,url"`
	Headless          bool          `mapstructure:"headless"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" validate:"gte=0"`

	LocatorsFile string `mapstructure:"locators" validate:"omitempty,file"`
	Snapshot     string `mapstructure:"snapshot" validate:"omitempty,file"`
	SaveSnapshot string `mapstructure:"save_snapshot"`
	Strict       bool   `mapstructure:"strict"`

	Format string `mapstructure:"format" validate:"oneof=json yaml"`
	Output string `mapstructure:"output"`
}

// Default returns the configuration for the Polish Instagram listing.
func Default() Config {
	return Config{
		AppID:             "id389801252",
		Country:           "pl",
		Language:          "pl",
		Slug:              "instagram",
		DriverPath:        "chromedriver",
		Headless:          true,
		Timeout:           extractor.DefaultTimeout,
		NavigationTimeout: 30 * time.Second,
		Format:            "json",
	}
}

// SetDefaults registers Default() with v so unset keys fall back to it.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("app_id", d.AppID)
	v.SetDefault("country", d.Country)
	v.SetDefault("lang", d.Language)
	v.SetDefault("slug", d.Slug)
	v.SetDefault("driver_path", d.DriverPath)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("navigation_timeout", d.NavigationTimeout)
	v.SetDefault("format", d.Format)
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.AppID = NormalizeAppID(cfg.AppID)
	cfg.Country = strings.ToLower(cfg.Country)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !strings.HasPrefix(c.AppID, "id") || strings.Trim(c.AppID[2:], "0123456789") != "" || len(c.AppID) == 2 {
		return fmt.Errorf("invalid config: app id %q is not of the form id<digits>", c.AppID)
	}
	return nil
}

// NormalizeAppID accepts "389801252" or "id389801252" and returns the
// "id"-prefixed form used in store URLs.
func NormalizeAppID(id string) string {
	id = strings.TrimSpace(id)
	if id != "" && !strings.HasPrefix(id, "id") {
		return "id" + id
	}
	return id
}

// TargetURL returns the product page URL, honouring an explicit URL override.
func (c Config) TargetURL() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "https",
		Host:     "apps.apple.com",
		Path:     fmt.Sprintf("/%s/app/%s/%s", c.Country, url.PathEscape(c.Slug), c.AppID),
		RawQuery: url.Values{"l": {c.Language}}.Encode(),
	}
	return u.String()
}

// Locators returns the locator set, from LocatorsFile when set.
func (c Config) Locators() (locator.Set, error) {
	if c.LocatorsFile == "" {
		return locator.Default(), nil
	}
	return locator.LoadFile(c.LocatorsFile)
}

// ChromeConfig maps the browser settings onto the Chrome driver.
func (c Config) ChromeConfig() browser.ChromeConfig {
	cc := browser.DefaultChromeConfig()
	cc.Headless = c.Headless
	cc.UserAgent = c.UserAgent
	cc.RemoteURL = c.RemoteURL
	cc.SnapshotPath = c.SaveSnapshot
	if c.RemoteURL == "" {
		cc.ExecPath = browser.ResolveExecPath(c.DriverPath)
	}
	return cc
}

// Opener picks the offline snapshot driver when a snapshot file is
// configured, and Chrome otherwise.
func (c Config) Opener() browser.Opener {
	if c.Snapshot != "" {
		return browser.SnapshotOpener(c.Snapshot)
	}
	return browser.ChromeOpener(c.ChromeConfig())
}

// ExtractorOptions builds the extractor settings.
func (c Config) ExtractorOptions() (extractor.Options, error) {
	set, err := c.Locators()
	if err != nil {
		return extractor.Options{}, err
	}
	return extractor.Options{
		URL:               c.TargetURL(),
		Locators:          set,
		Timeout:           c.Timeout,
		NavigationTimeout: c.NavigationTimeout,
		Strict:            c.Strict,
	}, nil
}
