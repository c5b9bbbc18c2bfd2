package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ToxVanity/internal/crypto"
	"ToxVanity/internal/generator"
	"ToxVanity/internal/metrics"
	"ToxVanity/internal/ops/inspect"
	"ToxVanity/pkg/appcfg"
	"ToxVanity/pkg/logx"
)

const Version = "0.99.0"

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitConfig      = 3
	ExitInterrupted = 130
)

const DefaultConfigPath = "configs/app.yaml"

// usageError marks a command line that could not be parsed.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer

	configPath string
	prefix     string
	threads    int
	scheme     string
	outDir     string
	logFile    string
	logLevel   string
	password   string
	report     time.Duration
	showSecret bool
}

func NewRunner() *Runner {
	return &Runner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes one command line and returns the process exit code.
func (r *Runner) Run(args []string) int {
	root := r.rootCmd()
	root.SetArgs(args)
	root.SetOut(r.Stdout)
	root.SetErr(r.Stderr)

	err := root.Execute()
	code := exitCode(err)
	switch code {
	case ExitOK, ExitInterrupted:
	case ExitUsage:
		fmt.Fprintf(r.Stderr, "Error: %v\nTry '%s --help' for more information.\n", err, root.Name())
	default:
		fmt.Fprintf(r.Stderr, "Error: %v\n", err)
	}
	return code
}

func exitCode(err error) int {
	var (
		usage *usageError
		cfg   *generator.ConfigError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &usage):
		return ExitUsage
	case errors.As(err, &cfg):
		return ExitConfig
	case errors.Is(err, generator.ErrInterrupted):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

func (r *Runner) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "toxvanity",
		Short:         "Search for a Tox ID that starts with a chosen hex prefix",
		Version:       Version,
		Args:          noArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.runSearch(cmd)
		},
	}
	root.SetVersionTemplate("Version: {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&r.configPath, "config", DefaultConfigPath, "YAML config file (missing file = defaults)")
	pf.StringVar(&r.scheme, "scheme", "", "identity scheme: tox, evm or mnemonic (default from config: tox)")
	pf.StringVar(&r.logFile, "log-file", "", "log file path, \"-\" disables it (default from config)")
	pf.StringVar(&r.logLevel, "log-level", "", "debug|info|warn|error (default from config)")
	pf.StringVar(&r.password, "password", "", "keystore password for the evm scheme")

	f := root.Flags()
	f.StringVarP(&r.prefix, "address", "a", "", "hex prefix the address must start with (case-insensitive)")
	f.IntVarP(&r.threads, "threads", "t", 0, "number of worker threads (default: all logical CPUs)")
	f.StringVar(&r.outDir, "out-dir", "", "directory for the result file (default from config: .)")
	f.DurationVar(&r.report, "report-interval", 0, "throughput report period per worker (default 10s)")

	root.AddCommand(r.inspectCmd())
	return root
}

func (r *Runner) inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect PATH...",
		Short: "Restore result files and print their addresses",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
				return &usageError{err: err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runInspect(cmd, args)
		},
	}
	cmd.Flags().BoolVar(&r.showSecret, "show-secret", false, "also log the secret key")
	return cmd
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &usageError{err: err}
	}
	return nil
}

// setup loads the config, applies flag overrides and starts logging. With
// appendLog the log file keeps the lines of earlier runs.
// The caller must call logx.Close once setup succeeded.
func (r *Runner) setup(cmd *cobra.Command, appendLog bool) (*appcfg.Config, error) {
	conf, err := appcfg.Load(r.configPath)
	if err != nil {
		return nil, &generator.ConfigError{Field: "config", Err: err}
	}
	flags := cmd.Flags()
	if flags.Changed("scheme") {
		conf.Scheme = r.scheme
	}
	if flags.Changed("log-file") {
		conf.LogFile = r.logFile
	}
	if flags.Changed("log-level") {
		conf.LogLevel = r.logLevel
	}
	if flags.Changed("password") {
		conf.KeystorePassword = r.password
	}
	if flags.Changed("out-dir") {
		conf.OutDir = r.outDir
	}
	if flags.Changed("report-interval") {
		conf.ReportInterval = r.report
	}
	if err := conf.Validate(); err != nil {
		return nil, &generator.ConfigError{Field: "flags", Err: err}
	}

	logPath := conf.LogFile
	if logPath == "-" {
		logPath = ""
	}
	if err := logx.Init(logx.Config{
		Level:                conf.LogLevel,
		FilePath:             logPath,
		Append:               appendLog,
		HideSecretsInConsole: conf.HideSecretsInConsole,
		Console:              r.Stderr,
	}); err != nil {
		return nil, fmt.Errorf("log init: %w", err)
	}
	return conf, nil
}

func (r *Runner) runSearch(cmd *cobra.Command) error {
	conf, err := r.setup(cmd, false)
	if err != nil {
		return err
	}
	defer logx.Close()
	app := logx.S()

	workers := conf.Cores
	if cmd.Flags().Changed("threads") {
		if r.threads < 1 {
			err := &generator.ConfigError{Field: "threads", Err: generator.ErrWorkers}
			app.Errorw("configuration error", "err", err)
			return err
		}
		workers = r.threads
	}

	scheme, err := crypto.NewScheme(conf.Scheme, crypto.SchemeOptions{KeystorePassword: conf.KeystorePassword})
	if err != nil {
		err = &generator.ConfigError{Field: "scheme", Err: err}
		app.Errorw("configuration error", "err", err)
		return err
	}

	runID := uuid.NewString()
	opt := generator.Options{
		Prefix:         r.prefix,
		Workers:        workers,
		Scheme:         scheme,
		OutDir:         conf.OutDir,
		RunID:          runID,
		ReportInterval: conf.ReportInterval,
	}
	// reject the request before connecting anything
	if err := opt.Validate(); err != nil {
		app.Errorw("configuration error", "err", err)
		return err
	}

	ctx, stop := withInterrupt(cmd.Context())
	defer stop()

	opt.Metrics = r.recorder(ctx, conf, runID, scheme.Name())
	defer opt.Metrics.Close()

	app.Infow("toxvanity started",
		"version", Version,
		"run_id", runID,
		"scheme", scheme.Name(),
		"out_dir", conf.OutDir,
		"log_file", conf.LogFile,
	)

	res, err := generator.Run(ctx, opt)
	if err != nil {
		if errors.Is(err, generator.ErrInterrupted) {
			app.Infow("search interrupted, nothing saved")
			return err
		}
		app.Errorw("search failed", "err", err)
		return err
	}

	fmt.Fprintf(r.Stdout, "-> %s\n", res.Address)
	fmt.Fprintf(r.Stdout, "saved to %s\n", res.Path)
	return nil
}

// recorder connects to InfluxDB when configured. A broken connection only
// disables the export.
func (r *Runner) recorder(ctx context.Context, conf *appcfg.Config, runID, scheme string) metrics.Recorder {
	if conf.Influx.URL == "" {
		return metrics.Nop{}
	}
	in, err := metrics.NewInflux(ctx, metrics.InfluxConfig{
		URL:    conf.Influx.URL,
		Token:  conf.Influx.Token,
		Org:    conf.Influx.Org,
		Bucket: conf.Influx.Bucket,
		RunID:  runID,
		Scheme: scheme,
	})
	if err != nil {
		logx.S().Warnw("influx disabled", "url", conf.Influx.URL, "err", err)
		return metrics.Nop{}
	}
	go func() {
		for err := range in.Errors() {
			logx.S().Warnw("influx write failed", "err", err)
		}
	}()
	logx.S().Infow("influx export enabled", "url", conf.Influx.URL, "bucket", conf.Influx.Bucket)
	return in
}

// runInspect appends to the log so the search that wrote the results keeps
// its lines.
func (r *Runner) runInspect(cmd *cobra.Command, paths []string) error {
	conf, err := r.setup(cmd, true)
	if err != nil {
		return err
	}
	defer logx.Close()

	scheme, err := crypto.NewScheme(conf.Scheme, crypto.SchemeOptions{KeystorePassword: conf.KeystorePassword})
	if err != nil {
		return &generator.ConfigError{Field: "scheme", Err: err}
	}

	ctx, stop := withInterrupt(cmd.Context())
	defer stop()

	entries, err := inspect.Run(ctx, inspect.Options{Paths: paths, Scheme: scheme, ShowSecret: r.showSecret})
	for _, e := range entries {
		fmt.Fprintf(r.Stdout, "%s  %s\n", e.Address, e.File)
	}
	return err
}

// withInterrupt cancels the returned context on SIGINT or SIGTERM.
func withInterrupt(parent context.Context) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-ch:
			name := "SIGTERM"
			if sig == syscall.SIGINT {
				name = "SIGINT"
			}
			logx.S().Warnf("received %s, pid=%d", name, os.Getpid())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(ch)
		cancel()
	}
}
