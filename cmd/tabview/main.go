// Package main provides the tabview command line: a one-shot table viewer and
// the HTTP server.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/razeghi71/tabview/config"
	"github.com/razeghi71/tabview/engine"
	"github.com/razeghi71/tabview/errhandling"
	"github.com/razeghi71/tabview/filter"
	"github.com/razeghi71/tabview/logger"
	"github.com/razeghi71/tabview/parser"
	"github.com/razeghi71/tabview/server"
	"github.com/razeghi71/tabview/view"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitUsageError   = 1
	ExitLoadError    = 2
	ExitRuntimeError = 3
)

var (
	// Build information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
)

// usageError marks a bad flag combination.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

// runtimeError wraps unclassified failures from a command body.
type runtimeError struct {
	err error
}

func (e *runtimeError) Error() string { return e.err.Error() }
func (e *runtimeError) Unwrap() error { return e.err }

// exitCode maps an error to the process exit status. Errors that are neither
// classified nor wrapped by a command come from cobra's flag and argument
// parsing and count as usage errors.
func exitCode(err error) int {
	var ue *usageError
	var re *runtimeError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ue):
		return ExitUsageError
	case errhandling.KindOf(err) == errhandling.KindLoadError:
		return ExitLoadError
	case errors.As(err, &re), errhandling.KindOf(err) != errhandling.KindUnknown:
		return ExitRuntimeError
	default:
		return ExitUsageError
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "tabview",
		Short: "tabview - browse, filter and group tabular files",
		Long: `tabview loads a tabular file (CSV, TSV, JSON, JSONL, Avro, Parquet) and lets
you sort, filter and group it without touching the original data.

Examples:
  # Print the rows of a file where age is over 30
  tabview view users.csv --where 'age > 30 and city == "NY"'

  # Count rows per city
  tabview view users.csv --group city --agg Count

  # Serve the HTTP API
  tabview serve --addr :8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format (json, text)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Shorthand for --log-level debug")

	root.AddCommand(newViewCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// setup loads the config, applies flag overrides and configures logging.
func (o *rootOptions) setup(defaultFormat string) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	if o.configPath == "" {
		cfg.Log.Format = defaultFormat
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}

	lvl, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	if err := logger.Configure(lvl, cfg.Log.Format, nil); err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	return cfg, nil
}

type viewOptions struct {
	where      string
	filterJSON string
	quick      string
	column     string
	group      string
	agg        string
	sort       string
	desc       bool
	offset     int
	limit      int
	explain    bool
}

func newViewCmd(root *rootOptions) *cobra.Command {
	o := &viewOptions{}
	cmd := &cobra.Command{
		Use:   "view <file>",
		Short: "Load a file, apply one transformation and print the result",
		Long: `Load a file, optionally filter or group it, sort the result and print a page.

Filters and group-by always start from the loaded file, so at most one of
--where, --filter-json, --quick and --group may be given.

Exit codes:
  0 - Success
  1 - Usage errors (bad flags, bad filter expression)
  2 - The file could not be loaded
  3 - Runtime errors (missing column, non-numeric aggregation, ...)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, root, o, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.where, "where", "", "Filter expression, e.g. 'age > 30 and name contains \"a\"'")
	f.StringVar(&o.filterJSON, "filter-json", "", "Path to a JSON filter tree")
	f.StringVar(&o.quick, "quick", "", "Substring to search for")
	f.StringVar(&o.column, "column", "", "Limit --quick to one column")
	f.StringVar(&o.group, "group", "", "Column to group by")
	f.StringVar(&o.agg, "agg", "Count", "Aggregation for --group (Count, Sum, Mean, Min, Max)")
	f.StringVar(&o.sort, "sort", "", "Column to sort by")
	f.BoolVar(&o.desc, "desc", false, "Sort descending")
	f.IntVar(&o.offset, "offset", 0, "First row to print")
	f.IntVar(&o.limit, "limit", 50, "Number of rows to print")
	f.BoolVar(&o.explain, "explain", false, "Print the compiled filter tree as JSON and exit")
	return cmd
}

func (o *viewOptions) validate() error {
	set := 0
	for _, s := range []string{o.where, o.filterJSON, o.quick, o.group} {
		if s != "" {
			set++
		}
	}
	if set > 1 {
		return &usageError{msg: "only one of --where, --filter-json, --quick and --group may be given"}
	}
	if o.column != "" && o.quick == "" {
		return &usageError{msg: "--column requires --quick"}
	}
	if o.explain && o.where == "" && o.filterJSON == "" {
		return &usageError{msg: "--explain requires --where or --filter-json"}
	}
	if o.offset < 0 || o.limit < 0 {
		return &usageError{msg: "--offset and --limit must not be negative"}
	}
	return nil
}

// filterNode compiles --where or --filter-json. It returns nil when neither
// is set.
func (o *viewOptions) filterNode() (filter.Node, error) {
	switch {
	case o.where != "":
		n, err := parser.ParseFilter(o.where)
		if err != nil {
			return nil, &usageError{msg: err.Error()}
		}
		return n, nil
	case o.filterJSON != "":
		data, err := os.ReadFile(o.filterJSON)
		if err != nil {
			return nil, &usageError{msg: fmt.Sprintf("cannot read filter file: %v", err)}
		}
		n, err := filter.Parse(data)
		if err != nil {
			return nil, &usageError{msg: err.Error()}
		}
		return n, nil
	}
	return nil, nil
}

func runView(cmd *cobra.Command, root *rootOptions, o *viewOptions, path string) error {
	if err := o.validate(); err != nil {
		return err
	}
	cfg, err := root.setup(logger.FormatText)
	if err != nil {
		return err
	}

	node, err := o.filterNode()
	if err != nil {
		return err
	}
	if o.explain {
		data, err := filter.Marshal(node)
		if err != nil {
			return &runtimeError{err: err}
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	var kind engine.AggKind
	if o.group != "" {
		if kind, err = engine.ParseAggKind(o.agg); err != nil {
			return &usageError{msg: err.Error()}
		}
	}

	state := view.New()
	if _, err := state.LoadFile(path, cfg.LoaderOptions()); err != nil {
		return err
	}

	switch {
	case node != nil:
		_, err = state.AdvancedFilter(node)
	case o.quick != "":
		var column *string
		if o.column != "" {
			column = &o.column
		}
		_, err = state.QuickFilter(column, o.quick)
	case o.group != "":
		var summary string
		summary, err = state.GroupBy(o.group, kind)
		if err == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), summary)
		}
	}
	if err != nil {
		return err
	}

	if o.sort != "" {
		if _, err := state.Sort(o.sort, o.desc); err != nil {
			return err
		}
	}

	current, err := state.Current()
	if err != nil {
		return err
	}
	printTable(cmd.OutOrStdout(), current.Slice(o.offset, o.limit))
	fmt.Fprintf(cmd.ErrOrStderr(), "(%d of %d rows)\n", min(o.limit, max(current.Height()-o.offset, 0)), current.Height())
	return nil
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr, preload string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the view API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.setup(logger.FormatJSON)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			state := view.New()
			if preload != "" {
				if _, err := state.LoadFile(preload, cfg.LoaderOptions()); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := server.NewServer(state, cfg).Start(ctx); err != nil {
				return &runtimeError{err: err}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().StringVar(&preload, "load", "", "File to load before serving")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tabview %s (commit %s)\n", version, commit)
		},
	}
}
