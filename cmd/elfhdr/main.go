package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raven-betanet/elfhdr/internal/checks"
	"github.com/raven-betanet/elfhdr/internal/elfhdr"
	"github.com/raven-betanet/elfhdr/internal/utils"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// exitError carries a process exit code through cobra's RunE
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitUsage
}

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	configFile   string
	outputFormat string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "elfhdr",
		Short: "Decode and validate ELF identification and 32-bit headers",
		Long: `elfhdr reads the first 54 bytes of an ELF file, validates the 16-byte
identification block (magic, class, data encoding, OS/ABI) and decodes the
32-bit file header using the byte order the file declares.

Exit codes:
  0 - Success
  1 - Decode or check failure
  2 - Invalid arguments or configuration error`,
		Version:       utils.GetVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().StringVarP(&opts.outputFormat, "format", "f", "", "Output format (text, json, table)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")

	cmd.AddCommand(newIdentCmd(opts))
	cmd.AddCommand(newHeaderCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd(opts))

	return cmd
}

// session is the loaded configuration and logger for one invocation
type session struct {
	manager *utils.ConfigManager
	config  *utils.Config
	logger  *utils.Logger
	format  string
}

// overrides maps the persistent flags onto config keys
func (o *globalOptions) overrides() map[string]interface{} {
	overrides := make(map[string]interface{})
	if o.outputFormat != "" {
		overrides["output_format"] = strings.ToLower(o.outputFormat)
	}
	if o.verbose {
		overrides["log_level"] = string(utils.LogLevelDebug)
	}
	return overrides
}

func (o *globalOptions) load() (*session, error) {
	manager := utils.NewConfigManager()
	if o.verbose {
		manager.SetLogger(utils.NewLogger(utils.LoggerConfig{Level: utils.LogLevelDebug}))
	}

	if err := manager.LoadConfig(o.configFile, o.overrides()); err != nil {
		return nil, &exitError{code: exitUsage, err: fmt.Errorf("failed to load configuration: %w", err)}
	}
	config := manager.GetConfig()

	return &session{
		manager: manager,
		config:  config,
		logger: utils.NewLogger(utils.LoggerConfig{
			Level:  utils.ParseLogLevel(config.LogLevel),
			Format: utils.ParseLogFormat(config.LogFormat),
		}),
		format: strings.ToLower(config.OutputFormat),
	}, nil
}

func newIdentCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ident <file>",
		Short: "Print the ELF identification block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load()
			if err != nil {
				return err
			}

			f, err := elfhdr.Open(args[0])
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			defer f.Close()

			s.logger.WithFile("ident", f.Name()).Debug("Reading identification block")
			id, err := elfhdr.ReadIdent(f)
			if err != nil {
				s.logger.WithFile("ident", f.Name()).Debugf("Decode failed: %v", err)
				return &exitError{code: exitFailure, err: err}
			}

			return writeIdent(cmd.OutOrStdout(), s.format, id)
		},
	}
}

func newHeaderCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "header <file>",
		Short: "Print the 32-bit ELF header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load()
			if err != nil {
				return err
			}

			f, err := elfhdr.Open(args[0])
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			defer f.Close()

			s.logger.WithFile("header", f.Name()).Debug("Reading 32-bit header")
			h, err := elfhdr.ReadHeader32(f)
			if err != nil {
				s.logger.WithFile("header", f.Name()).Debugf("Decode failed: %v", err)
				return &exitError{code: exitFailure, err: err}
			}

			return writeHeader(cmd.OutOrStdout(), s.format, h)
		},
	}
}

func newCheckCmd(opts *globalOptions) *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Run the header checks against a file",
		Long: `Run every header check against the specified file:

  ident-magic      ELF magic bytes
  ident-class      32-bit or 64-bit class
  ident-encoding   little or big endian data encoding
  ident-osabi      known OS/ABI
  header32-decode  full 32-bit header decode (skipped for 64-bit files)

Checks listed under checks.skip in the configuration are reported as skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load()
			if err != nil {
				return err
			}

			log := s.logger.WithComponent("elfhdr")
			log.Infof("Starting header checks for: %s", args[0])

			runner := checks.NewCheckRunner(checks.DefaultRegistry(), checks.RunnerOptions{
				Skip:     s.config.Checks.Skip,
				FailFast: s.config.Checks.FailFast,
			})

			ctx := utils.WithLogger(cmd.Context(), s.logger)
			var report *checks.CheckReport
			if len(only) > 0 {
				report, err = runner.RunSelected(ctx, args[0], only)
			} else {
				report, err = runner.RunAll(ctx, args[0])
			}
			if err != nil {
				return &exitError{code: exitUsage, err: fmt.Errorf("failed to run checks: %w", err)}
			}

			if err := writeReport(cmd.OutOrStdout(), s.format, report); err != nil {
				return &exitError{code: exitFailure, err: fmt.Errorf("failed to output results: %w", err)}
			}

			if !report.OK() {
				log.Errorf("Header checks failed: %d/%d checks passed", report.Summary.Passed, report.Summary.Total)
				return &exitError{code: exitFailure}
			}

			log.Infof("Header checks passed: %d/%d", report.Summary.Passed, report.Summary.Total)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&only, "only", nil, "Run only the listed check IDs")

	return cmd
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or export the effective configuration",
		Long: `Configuration is merged from defaults, a config.yaml file (--config, ./,
$HOME/.elfhdr or /etc/elfhdr), ELFHDR_* environment variables and flags.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value (e.g. checks.skip)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load()
			if err != nil {
				return err
			}

			value := s.manager.GetConfigValue(args[0])
			if value == nil {
				return &exitError{code: exitUsage, err: fmt.Errorf("unknown configuration key: %s", args[0])}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save <file>",
		Short: "Write the effective configuration to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load()
			if err != nil {
				return err
			}

			if err := s.manager.SaveConfig(args[0]); err != nil {
				return &exitError{code: exitFailure, err: fmt.Errorf("failed to save configuration: %w", err)}
			}
			s.logger.WithFile("config", args[0]).Info("Configuration saved")
			return nil
		},
	})

	return cmd
}

func newVersionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeVersion(cmd.OutOrStdout(), opts.outputFormat)
		},
	}
}
