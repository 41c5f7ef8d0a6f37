package commands

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/storepage/internal/config"
	"github.com/jmylchreest/storepage/internal/logger"
	"github.com/jmylchreest/storepage/internal/output"
	"github.com/jmylchreest/storepage/pkg/extractor"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Extract the listing record from a product page",
	Long: `Open the product page, expand the description and version history,
and print the listing record.

Fields that cannot be found within the timeout are logged and left null.
With --strict, malformed header or ratings text aborts the run instead.`,
	Args:    cobra.NoArgs,
	PreRunE: bindConfigFlags,
	RunE:    runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	d := config.Default()
	flags := scrapeCmd.Flags()
	addTargetFlags(flags)

	// Browser
	flags.String("driver-path", d.DriverPath, "browser binary; chromedriver paths fall back to Chrome auto-detection")
	flags.String("remote-url", "", "DevTools websocket URL of an already running browser")
	flags.Bool("headless", d.Headless, "run Chrome headless")
	flags.Duration("timeout", d.Timeout, "per-element wait timeout")

	// Extraction
	flags.String("locators", "", "YAML file overriding the default element locators")
	flags.String("snapshot", "", "extract from a saved HTML page instead of a live browser")
	flags.String("save-snapshot", "", "save the final page HTML to this file")
	flags.Bool("strict", false, "abort on malformed header or ratings text")

	// Output
	flags.String("format", d.Format, "output format: json, yaml")
	flags.StringP("output", "o", "", "output file (default: stdout)")
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	opts, err := cfg.ExtractorOptions()
	if err != nil {
		logger.Error("failed to load locators", "error", err)
		return err
	}
	ext, err := extractor.New(opts)
	if err != nil {
		return err
	}

	source := "chrome"
	if cfg.Snapshot != "" {
		source = cfg.Snapshot
	}
	logger.Info("starting scrape",
		"url", opts.URL,
		"source", source,
		"timeout", cfg.Timeout,
		"strict", cfg.Strict,
	)

	start := time.Now()
	rec, err := ext.Extract(ctx, cfg.Opener())
	if err != nil {
		logger.Error("scrape failed", "error", err, logger.Since(start))
		return err
	}

	return writeRecord(cfg, rec)
}

func writeRecord(cfg config.Config, rec extractor.Record) (err error) {
	dst, err := output.Open(cfg.Output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
	}()

	w, err := output.NewWriter(dst, output.Format(cfg.Format))
	if err != nil {
		return err
	}
	if err := w.Write(rec); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if cfg.Output != "" {
		logger.Info("record written", "path", cfg.Output, "format", cfg.Format)
	}
	return nil
}
