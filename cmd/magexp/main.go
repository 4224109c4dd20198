// Command magexp computes experimental observables of a magnetic sample
// described in a JSON5 experiment file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bob-anderson-ok/magexp/internal/config"
	"github.com/bob-anderson-ok/magexp/internal/experiment"
	"github.com/bob-anderson-ok/magexp/internal/viewer"
	"github.com/bob-anderson-ok/magexp/ltem"
)

const version = "0_3_0"

var (
	// Global flags
	verbose bool
	outDir  string
	show    bool

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:     "magexp",
	Short:   "Experimental observables from micromagnetic fields",
	Version: version,
	Long: `magexp turns a magnetisation field into what an experiment would see:
LTEM phase and defocus images, MFM phase shift, SANS cross sections,
X-ray holography and SAXS, MOKE images and bulk magnetometry.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run [experiment-file]",
	Short: "Compute the observables selected in an experiment file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExperiment,
}

var wavelengthCmd = &cobra.Command{
	Use:   "wavelength [volts]",
	Short: "Print the relativistic electron wavelength for an accelerating voltage",
	Args:  cobra.ExactArgs(1),
	RunE:  runWavelength,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	runCmd.Flags().StringVarP(&outDir, "out", "o", "", "output folder (overrides output_folder)")
	runCmd.Flags().BoolVar(&show, "show", false, "show the images in a window when done")

	rootCmd.AddCommand(runCmd, wavelengthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps failures to distinct process exit codes.
func exitCode(err error) int {
	var keyErr *config.KeyError
	switch {
	case errors.Is(err, os.ErrNotExist):
		return 2
	case errors.As(err, &keyErr):
		return 4
	case errors.Is(err, context.Canceled):
		return 130
	}
	return 1
}

func runExperiment(cmd *cobra.Command, args []string) error {
	path := args[0]
	e, data, err := config.Load(path)
	if err != nil {
		return err
	}
	if outDir != "" {
		e.OutputFolder = outDir
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nVersion %s\n\n", version)
	if e.ShowInput {
		fmt.Fprintf(out, "%s", "Printout of complete experiment file...\n")
		fmt.Fprintln(out, string(data))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Running experiment", zap.String("file", path), zap.String("output", e.OutputFolder))
	sum, err := experiment.Run(ctx, e, logger)
	if err != nil {
		return err
	}

	for _, o := range sum.Outputs {
		fmt.Fprintf(out, "%-22s %s\n", o.Name, o.Path)
	}
	if sum.Defocus != nil {
		fmt.Fprintf(out, "\nDefocus image contrast is %0.4f\n", sum.Defocus.Contrast)
	}
	if sum.Magnetisation != nil {
		m := sum.Magnetisation
		fmt.Fprintf(out, "Magnetisation is (%0.4g, %0.4g, %0.4g) A/m\n", m.X, m.Y, m.Z)
	}
	if sum.MaxEffectiveField != nil {
		fmt.Fprintf(out, "Largest effective field is %0.4g A/m\n", *sum.MaxEffectiveField)
	}
	if sum.Torque != nil {
		tau := sum.Torque
		fmt.Fprintf(out, "Torque density is (%0.4g, %0.4g, %0.4g) N/m²\n", tau.X, tau.Y, tau.Z)
	}
	fmt.Fprintf(out, "\nTotal run time is %s\n", sum.Elapsed)

	if show && e.WindowSizePixels > 0 && len(sum.Outputs) > 0 {
		title := e.Title
		if title == "" {
			title = path
		}
		viewer.Show(title, sum.Images(), e.WindowSizePixels)
	}
	return nil
}

func runWavelength(cmd *cobra.Command, args []string) error {
	u, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("voltage %q: %w", args[0], err)
	}
	lambda, err := ltem.VoltageBeam(u).Wavelength()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%.5g m\n", lambda)
	return nil
}
