package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/jmylchreest/storepage/pkg/locator"
)

// --- Default / Load Tests ---

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AppID != "id389801252" {
		t.Errorf("AppID = %q", cfg.AppID)
	}
	if cfg.DriverPath != "chromedriver" {
		t.Errorf("DriverPath = %q", cfg.DriverPath)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if !cfg.Headless {
		t.Error("Headless should default to true")
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q", cfg.Format)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storepage.yaml")
	content := "app_id: \"310633997\"\ncountry: US\nlang: en\nslug: whatsapp-messenger\ntimeout: 8s\nstrict: true\nformat: yaml\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AppID != "id310633997" {
		t.Errorf("AppID should be normalised, got %q", cfg.AppID)
	}
	if cfg.Country != "us" {
		t.Errorf("Country should be lower-cased, got %q", cfg.Country)
	}
	if cfg.Timeout != 8*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if !cfg.Strict || cfg.Format != "yaml" {
		t.Errorf("unexpected strict/format: %v/%q", cfg.Strict, cfg.Format)
	}
	if want := "https://apps.apple.com/us/app/whatsapp-messenger/id310633997?l=en"; cfg.TargetURL() != want {
		t.Errorf("TargetURL() = %q, want %q", cfg.TargetURL(), want)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]any{
		"timeout":    "0s",
		"format":     "xml",
		"country":    "poland",
		"app_id":     "id38x",
		"url":        "not a url",
		"locators":   "/does/not/exist.yaml",
		"snapshot":   "/does/not/exist.html",
		"remote_url": "::",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			v := viper.New()
			v.Set(key, value)
			if _, err := Load(v); err == nil {
				t.Errorf("expected error for %s=%v", key, value)
			}
		})
	}
}

// --- App ID Tests ---

func TestNormalizeAppID(t *testing.T) {
	tests := map[string]string{
		"389801252":    "id389801252",
		"id389801252":  "id389801252",
		"  389801252 ": "id389801252",
		"":             "",
	}
	for in, want := range tests {
		if got := NormalizeAppID(in); got != want {
			t.Errorf("NormalizeAppID(%q) = %q, want %q", in, got, want)
		}
	}
}

// --- URL Tests ---

func TestTargetURL_Default(t *testing.T) {
	want := "https://apps.apple.com/pl/app/instagram/id389801252?l=pl"
	if got := Default().TargetURL(); got != want {
		t.Errorf("TargetURL() = %q, want %q", got, want)
	}
}

func TestTargetURL_Override(t *testing.T) {
	cfg := Default()
	cfg.URL = "https://apps.apple.com/gb/app/instagram/id389801252"
	if got := cfg.TargetURL(); got != cfg.URL {
		t.Errorf("TargetURL() = %q", got)
	}
}

// --- Derived Settings Tests ---

func TestLocators_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locators.yaml")
	if err := os.WriteFile(path, []byte("locators:\n  size: //dd[1]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	cfg.LocatorsFile = path

	set, err := cfg.Locators()
	if err != nil {
		t.Fatalf("Locators() error = %v", err)
	}
	if set.Get(locator.Size) != locator.ByXPath("//dd[1]") {
		t.Errorf("size = %+v", set.Get(locator.Size))
	}
}

func TestExtractorOptions(t *testing.T) {
	cfg := Default()
	cfg.Strict = true
	cfg.Timeout = 2 * time.Second

	opts, err := cfg.ExtractorOptions()
	if err != nil {
		t.Fatalf("ExtractorOptions() error = %v", err)
	}
	if opts.URL != cfg.TargetURL() || !opts.Strict || opts.Timeout != 2*time.Second {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.NavigationTimeout != 30*time.Second {
		t.Errorf("NavigationTimeout = %v", opts.NavigationTimeout)
	}
}

func TestChromeConfig_Remote(t *testing.T) {
	cfg := Default()
	cfg.RemoteURL = "ws://127.0.0.1:9222/devtools/browser/abc"
	cfg.Headless = false
	cfg.SaveSnapshot = "page.html"

	cc := cfg.ChromeConfig()
	if cc.RemoteURL != cfg.RemoteURL || cc.Headless || cc.SnapshotPath != "page.html" {
		t.Errorf("unexpected chrome config: %+v", cc)
	}
	if cc.ExecPath != "" {
		t.Error("remote sessions should not resolve a local binary")
	}
}

func TestOpener_Snapshot(t *testing.T) {
	cfg := Default()
	cfg.Snapshot = filepath.Join(t.TempDir(), "missing.html")

	_, err := cfg.Opener()(t.Context())
	if err == nil || !strings.Contains(err.Error(), "snapshot") {
		t.Errorf("snapshot opener should be used, got %v", err)
	}
}
