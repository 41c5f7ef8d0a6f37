// Package commands implements the CLI commands for storepage.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/storepage/internal/config"
	"github.com/jmylchreest/storepage/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "storepage",
	Short: "Scrape a single App Store product page",
	Long: `Storepage opens an App Store product page in Chrome and extracts the
listing metadata as a single JSON (or YAML) record.

Examples:
  # Default listing (Instagram, Polish storefront)
  storepage scrape

  # Another app and storefront
  storepage scrape --app-id 310633997 --slug whatsapp-messenger \
      --country us --lang en

  # Re-run against a saved page without a browser
  storepage scrape --snapshot page.html`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Options{
			Debug:  viper.GetBool("debug"),
			Quiet:  viper.GetBool("quiet"),
			JSON:   viper.GetBool("log_json"),
			Output: cmd.ErrOrStderr(),
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.storepage.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().Bool("log-json", false, "log JSON lines instead of text")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))

	config.SetDefaults(viper.GetViper())
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".storepage")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("STOREPAGE")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
