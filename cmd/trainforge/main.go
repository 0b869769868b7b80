// Package main provides the CLI entrypoint for trainforge.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/trainforge/internal/artifacts"
	"github.com/verte-zerg/trainforge/internal/config"
	"github.com/verte-zerg/trainforge/internal/model"
	"github.com/verte-zerg/trainforge/internal/simulator"
	"github.com/verte-zerg/trainforge/internal/stats"
	"github.com/verte-zerg/trainforge/internal/statsui"
)

const (
	defaultEpochs    = 10
	defaultLR        = 0.001
	defaultBatchSize = 32
	defaultOutput    = "outputs"
	defaultDelay     = 500 * time.Millisecond
	defaultWindow    = 1
	bannerWidth      = 50
)

var (
	trainEpochs    int
	trainLR        float64
	trainBatchSize int
	trainOutput    string
	trainDelay     time.Duration
	trainSeed      int64

	reportWindow int
	reportWidth  int

	viewWindow int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "trainforge",
		Short:         "Simulated ML training run",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTrainCmd,
	}

	rootCmd.Flags().IntVar(&trainEpochs, "epochs", defaultEpochs, "number of epochs")
	rootCmd.Flags().Float64Var(&trainLR, "lr", defaultLR, "learning rate")
	rootCmd.Flags().IntVar(&trainBatchSize, "batch-size", defaultBatchSize, "batch size")
	rootCmd.Flags().StringVar(&trainOutput, "output", defaultOutput, "output directory")
	rootCmd.Flags().DurationVar(&trainDelay, "delay", defaultDelay, "pause per epoch (0 disables)")
	rootCmd.Flags().Int64Var(&trainSeed, "seed", 0, "random seed (0 seeds from the clock)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newViewCmd())

	return rootCmd
}

func runTrainCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "epochs", &trainEpochs, fileCfg.Train.Epochs)
	applyFloatConfig(cmd, "lr", &trainLR, fileCfg.Train.LearningRate)
	applyIntConfig(cmd, "batch-size", &trainBatchSize, fileCfg.Train.BatchSize)
	applyStringConfig(cmd, "output", &trainOutput, fileCfg.Train.Output)
	applyInt64Config(cmd, "seed", &trainSeed, fileCfg.Train.Seed)
	delay, err := fileCfg.Train.DelayDuration()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyDurationConfig(cmd, "delay", &trainDelay, delay)

	cfg := model.Config{
		Epochs:       trainEpochs,
		LearningRate: trainLR,
		BatchSize:    trainBatchSize,
		OutputDir:    trainOutput,
		Delay:        trainDelay,
		Seed:         trainSeed,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	logErrf("Seed: %d\n", cfg.Seed)

	return train(cmd.OutOrStdout(), cfg)
}

func train(out io.Writer, cfg model.Config) error {
	rule := strings.Repeat("=", bannerWidth)
	header := []string{
		rule,
		"TrainForge Demo - ML Training",
		rule,
		"Starting training with:",
		fmt.Sprintf("  - Epochs: %d", cfg.Epochs),
		fmt.Sprintf("  - Learning Rate: %g", cfg.LearningRate),
		fmt.Sprintf("  - Batch Size: %d", cfg.BatchSize),
		strings.Repeat("-", bannerWidth),
	}
	if err := writeLines(out, header); err != nil {
		return err
	}

	sim := simulator.NewSeeded(cfg.Seed, out, simulator.WithDelay(cfg.Delay))
	series, err := sim.Run(cfg)
	if err != nil {
		return fmt.Errorf("failed to run training: %w", err)
	}

	if _, err := artifacts.Write(cfg.OutputDir, series, out); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	summary, err := artifacts.Summarize(series)
	if err != nil {
		return err
	}
	footer := []string{
		"",
		rule,
		"Training complete!",
		fmt.Sprintf("Final accuracy: %.4f", summary.FinalAccuracy),
		rule,
	}
	return writeLines(out, footer)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [dir]",
		Short: "Print a report for a finished run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReportCmd,
	}
	cmd.Flags().IntVar(&reportWindow, "window", defaultWindow, "moving average window for curves")
	cmd.Flags().IntVar(&reportWidth, "width", 0, "total plot width (0 uses the terminal width)")
	return cmd
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	if reportWindow < 1 {
		return fmt.Errorf("--window must be > 0")
	}
	if reportWidth < 0 {
		return fmt.Errorf("--width must be >= 0")
	}
	dir := resultsDir(args)
	series, summary, err := artifacts.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}
	return stats.RenderReport(cmd.OutOrStdout(), summary, series, reportWindow, reportWidth)
}

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [dir]",
		Short: "Browse a finished run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runViewCmd,
	}
	cmd.Flags().IntVar(&viewWindow, "window", defaultWindow, "moving average window for curves")
	return cmd
}

func runViewCmd(_ *cobra.Command, args []string) error {
	if viewWindow < 1 {
		return fmt.Errorf("--window must be > 0")
	}
	m := statsui.NewModel(resultsDir(args), viewWindow)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run viewer: %w", err)
	}
	return nil
}

func resultsDir(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0]
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		logErrf("failed to load config: %v\n", err)
		return defaultOutput
	}
	if fileCfg.Train.Output != nil && *fileCfg.Train.Output != "" {
		return *fileCfg.Train.Output
	}
	return defaultOutput
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target, value *time.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# trainforge configuration
# Uncomment a value to enable it. CLI flags override config values.

[train]
# epochs = %d             # Number of epochs
# lr = %g              # Learning rate
# batch-size = %d         # Batch size
# output = %q      # Output directory
# delay = %q         # Pause per epoch, 0s disables
# seed = 0                # Random seed, 0 seeds from the clock
`,
		defaultEpochs,
		defaultLR,
		defaultBatchSize,
		defaultOutput,
		defaultDelay.String(),
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Epochs <= 0 {
		return fmt.Errorf("--epochs must be > 0")
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return fmt.Errorf("--output must not be empty")
	}
	if cfg.Delay < 0 {
		return fmt.Errorf("--delay must be >= 0")
	}
	return nil
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
