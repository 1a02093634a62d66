// Command adjudicate resolves Diplomacy turns from scenario files and
// inspects boards given in DFEN.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/freeeve/polite-betrayal/adjudicator/internal/config"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/logger"
)

// app carries what the subcommands share.
type app struct {
	cfg      *config.Config
	logLevel string
	closeLog func() error
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "adjudicate",
		Short:         "Diplomacy turn adjudicator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}
			a.closeLog, err = logger.Init(logger.Options{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				File:   cfg.LogFile,
				Out:    cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(
		newRunCmd(a),
		newAdjustmentsCmd(a),
		newRetreatsCmd(a),
		newReplayCmd(a),
	)
	return root, a
}

func execute(args []string, out, errOut io.Writer) error {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	err := root.Execute()
	if a.closeLog != nil {
		if cerr := a.closeLog(); cerr != nil && err == nil {
			err = fmt.Errorf("close log file: %w", cerr)
		}
	}
	return err
}

func main() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
