package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muman613/nomad-helper/pkg/config"
	"github.com/muman613/nomad-helper/pkg/logging"
	"github.com/muman613/nomad-helper/pkg/nomad"
	"github.com/muman613/nomad-helper/pkg/report"
)

// version metadata populated via -ldflags at build time
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// cliFlags holds raw flag values. Only flags the user actually set are
// applied on top of the file and environment.
type cliFlags struct {
	configPath string
	host       string
	certPath   string
	serverName string
	namespace  string
	region     string
	prefix     string
	logType    string
	taskPolicy string
	timezone   string
	timeout    time.Duration
	verbose    bool
	logLevel   string
	logFormat  string
}

// reportedError marks a failure whose ERROR line is already on stdout.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func newRootCommand(stdout, stderr io.Writer, getenv func(string) string) *cobra.Command {
	var f cliFlags

	cmd := &cobra.Command{
		Use:   "nomad-helper",
		Short: "Print the stderr log of every allocation of every Nomad job",
		Long: `nomad-helper connects to a Nomad cluster over mutual TLS using ca.pem,
client.crt and client.key from the cert directory, lists every job and its
allocations, and prints one task log per allocation.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, &f, stdout, stderr, getenv)
		},
	}

	bindFlags(cmd, &f)
	cmd.AddCommand(newVersionCommand(stdout))
	return cmd
}

// bindFlags registers the root flags on cmd, storing values in f.
func bindFlags(cmd *cobra.Command, f *cliFlags) {
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	fl.StringVar(&f.host, "host", config.DefaultHost, "Nomad server host, host:port or https URL")
	fl.StringVar(&f.certPath, "cert-path", "~/keys/ssl", "Directory holding ca.pem, client.crt and client.key")
	fl.StringVar(&f.serverName, "tls-server-name", "", "Expected name on the server certificate")
	fl.StringVar(&f.namespace, "namespace", "", "Nomad namespace (default: server default)")
	fl.StringVar(&f.region, "region", "", "Nomad region (default: server region)")
	fl.StringVar(&f.prefix, "prefix", "", "Only report jobs whose ID starts with this prefix")
	fl.StringVar(&f.logType, "log-type", config.LogTypeStderr, "Task log to print: stderr or stdout")
	fl.StringVar(&f.taskPolicy, "task-policy", config.PolicyLexical, "Task selection: lexical or declared")
	fl.StringVar(&f.timezone, "timezone", "Local", "Time zone for submission times")
	fl.DurationVar(&f.timeout, "timeout", config.DefaultTimeout, "Timeout for each API request")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Also print each allocation as JSON")
	fl.StringVar(&f.logLevel, "log-level", "info", "Diagnostic log level: debug, info, warn, error")
	fl.StringVar(&f.logFormat, "log-format", "console", "Diagnostic log format: console or json")
}

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(stdout, "nomad-helper %s", version)
			if commit != "" {
				fmt.Fprintf(stdout, " (commit %s)", commit)
			}
			if date != "" {
				fmt.Fprintf(stdout, " built %s", date)
			}
			fmt.Fprintln(stdout)
		},
	}
}

// resolveConfig layers defaults, the config file, the environment and
// explicitly set flags, in that order.
func resolveConfig(cmd *cobra.Command, f *cliFlags, getenv func(string) string) (*config.Config, error) {
	cfg, err := config.Default()
	if err != nil {
		return nil, err
	}
	if f.configPath != "" {
		if err := cfg.LoadFile(f.configPath); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(getenv)

	fl := cmd.Flags()
	str := func(name string, dst *string, v string) {
		if fl.Changed(name) {
			*dst = v
		}
	}
	str("host", &cfg.Host, f.host)
	str("cert-path", &cfg.CertPath, f.certPath)
	str("tls-server-name", &cfg.ServerName, f.serverName)
	str("namespace", &cfg.Namespace, f.namespace)
	str("region", &cfg.Region, f.region)
	str("prefix", &cfg.Prefix, f.prefix)
	str("log-type", &cfg.LogType, f.logType)
	str("task-policy", &cfg.TaskPolicy, f.taskPolicy)
	str("timezone", &cfg.Timezone, f.timezone)
	str("log-level", &cfg.Logging.Level, f.logLevel)
	str("log-format", &cfg.Logging.Format, f.logFormat)
	if fl.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if fl.Changed("verbose") {
		cfg.Verbose = f.verbose
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, stderr io.Writer) (*logging.ColoredLogger, error) {
	opts := logging.Options{
		Output:       stderr,
		Level:        "info",
		Format:       "console",
		EnableColors: stderr == io.Writer(os.Stderr),
	}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("run_id", uuid.NewString())), nil
}

func run(cmd *cobra.Command, f *cliFlags, stdout, stderr io.Writer, getenv func(string) string) error {
	cfg, cfgErr := resolveConfig(cmd, f, getenv)

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		report.PrintError(stdout, err)
		return &reportedError{err}
	}
	defer logger.Sync()

	if cfgErr != nil {
		return fail(logger, stdout, "Invalid configuration", cfgErr)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return fail(logger, stdout, "Invalid configuration", err)
	}

	client, err := nomad.NewClient(cfg, nomad.WithLogger(logger))
	if err != nil {
		return fail(logger, stdout, "Cannot create Nomad client", err)
	}
	logger.ComponentInfo(logging.ComponentCLI, "Connecting to Nomad",
		zap.String("address", client.Address()),
		zap.String("cert_path", cfg.CertPath),
	)

	selector, err := report.NewSelector(cfg.TaskPolicy, client)
	if err != nil {
		return fail(logger, stdout, "Invalid configuration", err)
	}

	dumper := report.NewDumper(client, report.Options{
		Out:      stdout,
		Location: loc,
		LogType:  cfg.LogType,
		Verbose:  cfg.Verbose,
		Selector: selector,
		Logger:   logger,
	})
	sum, err := dumper.Run(ctx)
	if err != nil {
		return &reportedError{err}
	}

	logger.ComponentInfo(logging.ComponentCLI, "Report complete",
		zap.Int("jobs", sum.Jobs),
		zap.Int("allocations", sum.Allocations),
		zap.Int("logs", sum.Logs),
		zap.Int("exceptions", sum.Exceptions),
	)
	return nil
}

// fail prints the single ERROR line for a setup failure and logs it.
func fail(logger *logging.ColoredLogger, stdout io.Writer, msg string, err error) error {
	logger.ComponentError(logging.ComponentCLI, msg,
		append(logging.ErrorFields(err), zap.Error(err))...,
	)
	report.PrintError(stdout, err)
	return &reportedError{err}
}

// isReported reports whether err's ERROR line was already printed.
func isReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}
