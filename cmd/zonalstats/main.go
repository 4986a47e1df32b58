// Command zonalstats computes land-use areas, annual precipitation means and annual
// temperature maxima per boundary region and writes one GeoPackage per combination.
//
// Usage:
//
//	zonalstats run --config zonalstats.yaml
//	zonalstats limits municipios
//	zonalstats pixel-area uso_solo/uso.tif
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wgdzlh/zonalstats"
	"github.com/wgdzlh/zonalstats/log"

	"github.com/lukeroth/gdal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "zonalstats",
	Short:         "Zonal statistics of land use and climate rasters over boundary polygons",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := zonalstats.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if err = log.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		gdal.AllRegister()
		toolbox, err = zonalstats.NewZonalToolbox(cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if toolbox != nil {
			toolbox.Close()
		}
		_ = log.Sync()
	},
}

var toolbox *zonalstats.ZonalToolbox

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every boundary × statistic combination and write the GeoPackages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		outs, err := toolbox.RunAll(ctx)
		for _, out := range outs {
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
		return err
	},
}

var limitsCmd = &cobra.Command{
	Use:   "limits <boundary>",
	Short: "Print the sorted region identifiers of a boundary dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limites, _, err := toolbox.ListLimits(args[0])
		if err != nil {
			return err
		}
		for _, l := range limites {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return nil
	},
}

var pixelAreaCmd = &cobra.Command{
	Use:   "pixel-area <raster>",
	Short: "Print the ground area of one raster cell",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		area, err := toolbox.PixelArea(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), area)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults reproduce ./inputs, ./outputs and the fixed raster folders)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override: debug, info, warn, error")
	rootCmd.AddCommand(runCmd, limitsCmd, pixelAreaCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error("zonalstats failed", zap.Error(err))
		_ = log.Sync()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
