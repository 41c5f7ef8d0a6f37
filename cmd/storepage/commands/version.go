package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/storepage/internal/output"
	"github.com/jmylchreest/storepage/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return output.NewJSONWriter(cmd.OutOrStdout(), true, "  ").Write(version.Get())
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("json", false, "print as JSON")
}
