package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/storepage/internal/output"
	"github.com/jmylchreest/storepage/pkg/locator"
)

var locatorsCmd = &cobra.Command{
	Use:   "locators",
	Short: "Print the effective element locators as YAML",
	Long: `Print the locator set the scrape command would use: the built-in
defaults, overlaid with --locators when given. The output is a valid
locators file to start an override from.`,
	Args:    cobra.NoArgs,
	PreRunE: bindConfigFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		set := locator.Default()
		if path := viper.GetString("locators"); path != "" {
			var err error
			if set, err = locator.LoadFile(path); err != nil {
				return err
			}
		}
		return output.NewYAMLWriter(cmd.OutOrStdout()).Write(set)
	},
}

func init() {
	rootCmd.AddCommand(locatorsCmd)
	locatorsCmd.Flags().String("locators", "", "YAML file overriding the default element locators")
}
