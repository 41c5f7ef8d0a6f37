package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/storepage/internal/config"
	"github.com/jmylchreest/storepage/internal/logger"
	"github.com/jmylchreest/storepage/pkg/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the product page HTML without a browser",
	Long: `Download the server-rendered product page over plain HTTP and save it
for offline extraction with scrape --snapshot.

Examples:
  storepage fetch -o instagram.html
  storepage scrape --snapshot instagram.html`,
	Args:    cobra.NoArgs,
	PreRunE: bindConfigFlags,
	RunE:    runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addTargetFlags(fetchCmd.Flags())
	fetchCmd.Flags().StringP("save-to", "o", "page.html", "file to save the page to")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}
	path, _ := cmd.Flags().GetString("save-to")

	target := cfg.TargetURL()
	logger.Info("fetching page", "url", target)
	page, err := fetcher.Fetch(ctx, target, fetcher.Config{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.NavigationTimeout,
		Language:  cfg.Language,
	})
	if err != nil {
		logger.Error("fetch failed", "url", target, "error", err)
		return err
	}

	if err := os.WriteFile(path, page.HTML, 0o644); err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	logger.Info("page saved", "path", path, "title", page.Title)
	return nil
}
