package cmd

import (
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/spf13/cobra"

	"github.com/ava-labs/crank/consts"
	"github.com/ava-labs/crank/programs/crank"
	"github.com/ava-labs/crank/x/programs/runtime"
)

type rootOptions struct {
	configPath string
	logLevel   string

	cfg *Config
	log logging.Logger
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "simulator",
		Short:         "Run the " + consts.Name + " program against a local runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.log != nil {
				opts.log.Stop()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "overrides the configured log level")

	cmd.AddCommand(
		newIDLCmd(opts),
		newInvokeCmd(opts),
		newServeCmd(opts),
		newKeyCmd(),
		newVersionCmd(),
	)
	return cmd
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg := DefaultConfig()
	if o.configPath != "" {
		var err error
		cfg, err = LoadConfig(o.configPath)
		if err != nil {
			return err
		}
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
		if err := cfg.Verify(); err != nil {
			return err
		}
	}
	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.log = log
	return nil
}

// newRuntime returns a runtime with the crank program registered.
func (o *rootOptions) newRuntime(opts ...runtime.Option) (*runtime.Runtime, error) {
	rt, err := runtime.New(o.log, &o.cfg.Runtime, opts...)
	if err != nil {
		return nil, err
	}
	if err := rt.Register(crank.New()); err != nil {
		return nil, err
	}
	return rt, nil
}
