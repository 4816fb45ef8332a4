package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/mstrctl/config"
	"github.com/s0up4200/mstrctl/mstr"
)

// runFlags collects the flags shared by report run and report summary
type runFlags struct {
	preset         string
	startRow       int
	startCol       int
	maxRows        int
	maxCols        int
	valuePrompts   []string
	elementPrompts []string
	filter         string
}

// runRequest is a fully resolved report execution
type runRequest struct {
	ReportID string
	Options  mstr.ExecuteOptions
	Filter   string
}

var reportFlags runFlags

// reportCmd groups the report commands
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect and execute reports",
}

var reportPromptsCmd = &cobra.Command{
	Use:   "prompts <report-id|preset>",
	Short: "List the attributes a report prompts for",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportPrompts,
}

var reportAttributesCmd = &cobra.Command{
	Use:   "attributes <report-id|preset>",
	Short: "List the attributes of a report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportAttributes,
}

var reportRunCmd = &cobra.Command{
	Use:   "run [report-id|preset]",
	Short: "Execute a report and print its rows",
	Long: `Execute a report and print its rows.

The report is given by id or by the name of a preset from the reports
section of the config. Flags override the preset's prompt answers and filter.

Element prompts are answered with --element-prompt ATTRIBUTE_ID=value1,value2.
An attribute id without values answers the prompt with no elements.

The --filter flag takes the name of a configured filter or an expression,
for example: --filter 'Region == "East" && Revenue > 1000'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReportRun,
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary [report-id|preset]",
	Short: "Execute a report and count the rows matching each configured filter",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReportSummary,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportPromptsCmd, reportAttributesCmd, reportRunCmd, reportSummaryCmd)

	for _, c := range []*cobra.Command{reportRunCmd, reportSummaryCmd} {
		c.Flags().StringVarP(&reportFlags.preset, "preset", "p", "", "use a report preset from config")
		c.Flags().IntVar(&reportFlags.startRow, "start-row", 0, "first row of the result window")
		c.Flags().IntVar(&reportFlags.startCol, "start-col", 0, "first column of the result window")
		c.Flags().IntVar(&reportFlags.maxRows, "max-rows", 0, "maximum rows to return (default from report.max_rows)")
		c.Flags().IntVar(&reportFlags.maxCols, "max-cols", 0, "maximum columns to return (default from report.max_cols)")
		c.Flags().StringArrayVar(&reportFlags.valuePrompts, "value-prompt", nil, "value prompt answer, repeat in prompt order")
		c.Flags().StringArrayVar(&reportFlags.elementPrompts, "element-prompt", nil, "element prompt answer as ATTRIBUTE_ID=v1,v2, repeatable")
	}
	reportRunCmd.Flags().StringVarP(&reportFlags.filter, "filter", "f", "", "filter name or expression applied to rows")
}

func runReportPrompts(cmd *cobra.Command, args []string) error {
	report := client.Report(reportID(cfg, args[0]))

	prompts, err := report.Prompts(cmd.Context())
	if err != nil {
		return err
	}

	return newPrinter(cmd).Attributes(prompts)
}

func runReportAttributes(cmd *cobra.Command, args []string) error {
	report := client.Report(reportID(cfg, args[0]))

	attrs, err := report.Attributes(cmd.Context())
	if err != nil {
		return err
	}

	return newPrinter(cmd).Attributes(attrs)
}

func runReportRun(cmd *cobra.Command, args []string) error {
	req, err := resolveRun(cfg, args, reportFlags)
	if err != nil {
		return err
	}

	report, err := executeReport(cmd, req)
	if err != nil {
		return err
	}

	headers, err := report.Headers()
	if err != nil {
		return err
	}
	rows, err := report.Values()
	if err != nil {
		return err
	}

	if req.Filter != "" {
		total := len(rows)
		rows, err = applyFilter(cmd, req.Filter, rows)
		if err != nil {
			return err
		}
		logger.Info().Str("filter", req.Filter).Int("rows", total).Int("matched", len(rows)).Msg("Filter applied")
	}

	return newPrinter(cmd).Report(req.ReportID, headers, rows)
}

func runReportSummary(cmd *cobra.Command, args []string) error {
	if len(filters.ListFilters()) == 0 {
		return fmt.Errorf("no filters configured. Please add named expressions to the filters section of the config")
	}

	req, err := resolveRun(cfg, args, reportFlags)
	if err != nil {
		return err
	}

	report, err := executeReport(cmd, req)
	if err != nil {
		return err
	}

	rows, err := report.Values()
	if err != nil {
		return err
	}

	results, err := filters.EvaluateAll(cmd.Context(), rows)
	if err != nil {
		return err
	}

	counts := make(map[string]int, len(results))
	for name, matched := range results {
		counts[name] = len(matched)
	}
	logger.Info().Str("report", req.ReportID).Int("rows", len(rows)).Msg("Report summarised")

	return newPrinter(cmd).Counts("filter", counts)
}

// applyFilter runs a named filter from config, or compiles nameOrExpression
// as an ad hoc expression
func applyFilter(cmd *cobra.Command, nameOrExpression string, rows []mstr.Row) ([]mstr.Row, error) {
	if _, named := filters.GetFilter(nameOrExpression); named {
		return filters.EvaluateFilter(cmd.Context(), nameOrExpression, rows)
	}

	compiled, err := filters.Resolve(nameOrExpression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	return filters.Apply(cmd.Context(), compiled, rows)
}

func executeReport(cmd *cobra.Command, req runRequest) (*mstr.Report, error) {
	report := client.Report(req.ReportID)

	logger.Info().
		Str("report", req.ReportID).
		Int("max_rows", req.Options.MaxRows).
		Int("value_prompts", len(req.Options.ValuePromptAnswers)).
		Int("element_prompts", len(req.Options.ElementPromptAnswers)).
		Msg("Executing report")

	if err := report.Execute(cmd.Context(), req.Options); err != nil {
		return nil, err
	}
	return report, nil
}

// reportID maps a preset name to its report id; anything else is taken as
// an id
func reportID(cfg *config.Config, nameOrID string) string {
	if preset, ok := lookupPreset(cfg, nameOrID); ok {
		return preset.ID
	}
	return nameOrID
}

// lookupPreset finds a preset by name. Config keys arrive lowercased, so
// names match case-insensitively.
func lookupPreset(cfg *config.Config, name string) (config.ReportPreset, bool) {
	preset, ok := cfg.Reports[strings.ToLower(strings.TrimSpace(name))]
	return preset, ok
}

// resolveRun combines a preset, the config defaults, and flags into one
// execution. Flags win over the preset, the preset over config defaults.
func resolveRun(cfg *config.Config, args []string, f runFlags) (runRequest, error) {
	var preset *config.ReportPreset
	var req runRequest

	name := f.preset
	if name == "" && len(args) > 0 {
		if _, ok := lookupPreset(cfg, args[0]); ok {
			name = args[0]
		}
	}

	switch {
	case name != "":
		p, ok := lookupPreset(cfg, name)
		if !ok {
			return req, fmt.Errorf("preset '%s' not found in config", name)
		}
		preset = &p
		req.ReportID = p.ID
		if len(args) > 0 && args[0] != name {
			return req, fmt.Errorf("report id %s given together with preset '%s'", args[0], name)
		}
	case len(args) > 0:
		req.ReportID = args[0]
	default:
		return req, fmt.Errorf("no report specified: pass a report id or --preset")
	}

	opts := mstr.ExecuteOptions{
		StartRow: f.startRow,
		StartCol: f.startCol,
		MaxRows:  cfg.Report.MaxRows,
		MaxCols:  cfg.Report.MaxCols,
	}
	if f.maxRows != 0 {
		opts.MaxRows = f.maxRows
	}
	if f.maxCols != 0 {
		opts.MaxCols = f.maxCols
	}

	if preset != nil {
		opts.ValuePromptAnswers = preset.ValuePrompts
		for _, p := range preset.ElementPrompts {
			opts.ElementPromptAnswers = append(opts.ElementPromptAnswers, mstr.ElementPromptAnswer{
				Attribute: &mstr.Attribute{ID: p.Attribute},
				Values:    p.Values,
			})
		}
		req.Filter = preset.Filter
	}

	if len(f.valuePrompts) > 0 {
		opts.ValuePromptAnswers = f.valuePrompts
	}
	if len(f.elementPrompts) > 0 {
		answers := make([]mstr.ElementPromptAnswer, 0, len(f.elementPrompts))
		for _, raw := range f.elementPrompts {
			answer, err := parseElementPrompt(raw)
			if err != nil {
				return req, err
			}
			answers = append(answers, answer)
		}
		opts.ElementPromptAnswers = answers
	}
	if f.filter != "" {
		req.Filter = f.filter
	}

	req.Options = opts
	return req, nil
}

// parseElementPrompt parses ATTRIBUTE_ID=v1,v2. A bare id or an empty value
// list answers the prompt with no elements.
func parseElementPrompt(raw string) (mstr.ElementPromptAnswer, error) {
	id, values, _ := strings.Cut(raw, "=")
	id = strings.TrimSpace(id)
	if id == "" {
		return mstr.ElementPromptAnswer{}, fmt.Errorf("invalid element prompt %q: %w", raw, mstr.ErrMissingAttributeID)
	}

	answer := mstr.ElementPromptAnswer{Attribute: &mstr.Attribute{ID: id}}
	for _, v := range strings.Split(values, ",") {
		if v = strings.TrimSpace(v); v != "" {
			answer.Values = append(answer.Values, v)
		}
	}
	return answer, nil
}
