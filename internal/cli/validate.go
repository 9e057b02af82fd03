package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tradepost/internal/config"
	"github.com/roach88/tradepost/internal/shop"
	"github.com/roach88/tradepost/internal/world"
)

// ValidationReport holds validation results for JSON output.
type ValidationReport struct {
	Valid       bool   `json:"valid"`
	ConfigPath  string `json:"config_path,omitempty"`
	ShopsPath   string `json:"shops_path,omitempty"`
	ShopsLoaded int    `json:"shops_loaded"`
	ShopsBad    int    `json:"shops_skipped"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var configPath, shopsPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file and the shops data file",
		Long: `Validate the runtime configuration against its schema and check
every record in the shops file. Records that would be skipped on a real
load (bad owner id, invalid item, out-of-range price) are reported.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd, configPath, shopsPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yml", "config file to validate")
	cmd.Flags().StringVar(&shopsPath, "shops", "", "shops file to validate (optional)")
	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command, configPath, shopsPath string) error {
	formatter := newFormatter(opts, cmd)
	log := newLogger(opts, cmd)
	report := ValidationReport{ConfigPath: configPath}

	cfg, err := config.Load(configPath)
	if err != nil {
		_ = formatter.Error(ErrCodeBadConfig, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}
	formatter.VerboseLog("config ok: %s", configPath)

	if shopsPath != "" {
		report.ShopsPath = shopsPath
		if _, err := os.Stat(shopsPath); err != nil {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("shops file not found: %s", shopsPath), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		reg := shop.NewRegistry()
		persister := shop.NewPersister(shopsPath, cfg.Shops.MaxPrice, log)
		res, err := persister.Load(reg, world.AcceptAllProber{})
		if err != nil {
			_ = formatter.Error(ErrCodeBadShops, err.Error(), nil)
			return NewExitError(ExitFailure, err.Error())
		}
		report.ShopsLoaded = res.Loaded
		report.ShopsBad = res.Skipped
		if res.Skipped > 0 {
			report.Valid = false
			if opts.Format == "json" {
				_ = formatter.Success(report)
			} else {
				fmt.Fprintf(formatter.Writer, "✗ %d of %d shop record(s) invalid\n",
					res.Skipped, res.Loaded+res.Skipped)
			}
			return NewExitError(ExitFailure, fmt.Sprintf("%d invalid shop record(s)", res.Skipped))
		}
	}

	report.Valid = true
	if opts.Format == "json" {
		return formatter.Success(report)
	}
	fmt.Fprintln(formatter.Writer, "✓ All files valid")
	return nil
}
