// cmd/cyclewiz/main.go
//
// Entry point for the cyclewiz CLI. Running `cyclewiz` with no arguments
// launches the campaign wizard TUI in the current directory; the other
// subcommands work on campaign files and row-schema plugins without the TUI.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/webstepper/cyclewiz/internal/campaign"
	"github.com/webstepper/cyclewiz/internal/campaign/steps/review"
	"github.com/webstepper/cyclewiz/internal/config"
	"github.com/webstepper/cyclewiz/internal/dom"
	"github.com/webstepper/cyclewiz/internal/tui"
	"github.com/webstepper/cyclewiz/plugins"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cyclewiz",
	Short: "cyclewiz - recurring discount campaign wizard",
	Long: `cyclewiz builds recurring discount campaigns through a step-by-step
wizard: campaign basics, schedule, quantity tiers, and a final review.

Progress is saved to .cyclewiz/ as you go, so a closed session resumes
where it left off. Row-schema plugins under .cyclewiz/schemas extend the
tier editor without recompiling.

Run without arguments to start the wizard.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The TUI builds its own file-backed logger.
		if cmd.Name() == "cyclewiz" || cmd.Name() == "wizard" {
			return nil
		}
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
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
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard()
	},
}

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Launch the campaign wizard TUI",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [campaign.yaml]",
	Short: "Validate a campaign file",
	Long: `Checks a campaign YAML file against the same rules the wizard
applies: name limits, schedule windows, and the tier ladder. Every
finding is printed; the command exits non-zero if any exist.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var previewCmd = &cobra.Command{
	Use:   "preview [campaign.yaml]",
	Short: "Render the campaign summary fragment as HTML",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List row-schema plugins loaded from .cyclewiz/schemas",
	RunE:  runSchemas,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(wizardCmd, validateCmd, previewCmd, schemasCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runWizard() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	return tui.Run(cwd)
}

func loadCampaignFile(path string) (*campaign.Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var c campaign.Campaign
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	c, err := loadCampaignFile(args[0])
	if err != nil {
		return err
	}
	findings := campaign.Validate(c)
	if len(findings) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
		return nil
	}
	for _, finding := range findings {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", args[0], finding)
	}
	logger.Warn("campaign failed validation",
		zap.String("path", args[0]),
		zap.Int("findings", len(findings)))
	return fmt.Errorf("%d finding(s)", len(findings))
}

func runPreview(cmd *cobra.Command, args []string) error {
	c, err := loadCampaignFile(args[0])
	if err != nil {
		return err
	}
	fragment, err := review.SummaryFragment(c, nil)
	if err != nil {
		return err
	}
	markup, err := dom.Render(fragment)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), markup)
	return nil
}

func runSchemas(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := config.NewConfig(cwd)
	if err != nil {
		return err
	}
	defs, err := plugins.Discover(cfg.SchemasDir())
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no row schemas under %s\n", cfg.SchemasDir())
		return nil
	}
	for _, file := range defs {
		def := file.Definition
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tstep=%s\tfields=%d\t(%s)\n",
			def.ID, def.Version, def.Step, len(def.Row.Fields), file.Path)
	}
	return nil
}
