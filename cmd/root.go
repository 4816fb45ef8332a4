package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/mstrctl/config"
	"github.com/s0up4200/mstrctl/filter"
	"github.com/s0up4200/mstrctl/mstr"
	"github.com/s0up4200/mstrctl/output"
)

// skipConnect marks commands that run without config or a session
const skipConnect = "skip-connect"

var (
	cfgFile    string
	cfg        *config.Config
	logger     zerolog.Logger
	client     *mstr.Client
	filters    *filter.Manager
	formatFlag string
	logLevel   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mstrctl",
	Short: "Browse and run MicroStrategy reports from the command line",
	Long: `mstrctl talks to the MicroStrategy Web task API (TaskProc.aspx).

It can browse folders and attribute elements, look up attributes, discover
report prompts, and execute reports with prompt answers. Report rows can be
filtered locally with expressions and printed as a table, TSV, JSON or YAML.`,
	SilenceUsage:       true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the root command and always closes the session
func run(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when RunE fails
	if closeErr := closeSession(); err == nil {
		err = closeErr
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "output", "o", "", "output format: table, tsv, json or yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level from config")

	rootCmd.AddCommand(testCmd)
}

// initializeApp loads configuration, sets up logging and logs in
func initializeApp(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipConnect] == "true" {
		logger = setupLogger(config.LoggingConfig{Level: "info", Format: "console", Color: true}, os.Stderr)
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if formatFlag != "" {
		if !config.ValidOutputFormat(formatFlag) {
			return fmt.Errorf("invalid output format: %s (must be one of %s)", formatFlag, strings.Join(config.OutputFormats, ", "))
		}
		cfg.Output.Format = formatFlag
	}

	logger = setupLogger(cfg.Logging, os.Stderr)

	filters = newFilterManager()
	if err := filters.RegisterFilters(cfg.Filters); err != nil {
		return fmt.Errorf("invalid filter in config: %w", err)
	}

	creds := mstr.Credentials{
		ProjectSource: cfg.MSTR.ProjectSource,
		ProjectName:   cfg.MSTR.Project,
		Username:      cfg.MSTR.Username,
		Password:      cfg.MSTR.Password,
	}

	var opts []mstr.Option
	if cfg.MSTR.Timeout > 0 {
		opts = append(opts, mstr.WithTimeout(cfg.MSTR.Timeout))
	}
	opts = append(opts, mstr.WithUserAgent("mstrctl/"+appVersion))

	client, err = mstr.Connect(cmd.Context(), cfg.MSTR.URL, creds, logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.MSTR.URL, err)
	}

	return nil
}

// newFilterManager builds the manager for configured and ad hoc row filters
func newFilterManager() *filter.Manager {
	compiler := filter.NewExprCompiler(
		filter.WithCache(100),
		filter.WithCustomFunctions(map[string]any{
			"oneOf": oneOf,
		}),
	)
	return filter.NewManager(filter.WithCompiler(compiler))
}

// oneOf reports whether value equals any of the options, e.g.
// oneOf(Region, "East", "West")
func oneOf(value string, options ...string) bool {
	return slices.Contains(options, value)
}

// shutdownApp logs out and stops the filter workers
func shutdownApp(cmd *cobra.Command, args []string) error {
	return closeSession()
}

func closeSession() error {
	var errs []error
	if filters != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := filters.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		cancel()
		filters = nil
	}
	if client != nil {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("Logout failed")
			errs = append(errs, err)
		}
		client = nil
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(out).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(out),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newPrinter returns a printer for the configured output format. Colour is
// only used when stdout is a terminal.
func newPrinter(cmd *cobra.Command) *output.Printer {
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		format = output.FormatTable
	}
	useColor := cfg.Output.Color
	if !isTerminal(cmd.OutOrStdout()) {
		useColor = false
	}
	return output.NewPrinter(cmd.OutOrStdout(), format, useColor)
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection to MicroStrategy",
	Long:  `Log in to the configured project, list the root folder, and log out again.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Testing connection to %s...\n", cfg.MSTR.URL)

	// Login already happened in initializeApp
	fmt.Fprintf(out, "✓ Logged in to %s as %s\n", cfg.MSTR.Project, cfg.MSTR.Username)

	items, err := client.FolderContents(cmd.Context(), "")
	if err != nil {
		return fmt.Errorf("failed to browse root folder: %w", err)
	}

	fmt.Fprintf(out, "\nProject:\n")
	fmt.Fprintf(out, "- Project source: %s\n", cfg.MSTR.ProjectSource)
	fmt.Fprintf(out, "- Root folder entries: %d\n", len(items))
	fmt.Fprintf(out, "- Report presets: %d\n", len(cfg.Reports))

	if names := filters.ListFilters(); len(names) > 0 {
		fmt.Fprintf(out, "\nConfigured filters:\n")
		for _, name := range names {
			fmt.Fprintf(out, "  • %s\n", name)
		}
	}

	return nil
}
