package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/storepage/internal/config"
)

// configKeys maps flag names onto config keys.
var configKeys = map[string]string{
	"app-id":             "app_id",
	"driver-path":        "driver_path",
	"timeout":            "timeout",
	"navigation-timeout": "navigation_timeout",
	"country":            "country",
	"lang":               "lang",
	"slug":               "slug",
	"url":                "url",
	"locators":           "locators",
	"headless":           "headless",
	"remote-url":         "remote_url",
	"user-agent":         "user_agent",
	"snapshot":           "snapshot",
	"save-snapshot":      "save_snapshot",
	"strict":             "strict",
	"format":             "format",
	"output":             "output",
}

func addTargetFlags(flags *pflag.FlagSet) {
	d := config.Default()
	flags.String("app-id", d.AppID, "App Store app id, with or without the id prefix")
	flags.String("country", d.Country, "storefront country code")
	flags.String("lang", d.Language, "listing language")
	flags.String("slug", d.Slug, "app slug in the product URL")
	flags.String("url", "", "explicit product page URL (overrides app-id, country, lang and slug)")
	flags.String("user-agent", "", "override the user agent")
	flags.Duration("navigation-timeout", d.NavigationTimeout, "page load timeout (0 = none)")
}

// bindConfigFlags binds the running command's flags into viper. Several
// commands share flag names, so binding happens per run rather than in init.
func bindConfigFlags(cmd *cobra.Command, args []string) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := configKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = viper.BindPFlag(key, f)
	})
	return err
}
