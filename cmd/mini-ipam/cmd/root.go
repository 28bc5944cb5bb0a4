// Package cmd implements the mini-ipam command line client.
package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dobriak/mini-ipam/sdk"
)

var (
	// Version information (set at build time via ldflags)
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// rootOptions holds the global flags and the lazily built client.
type rootOptions struct {
	urls       []string
	token      string
	configPath string
	timeout    time.Duration
	output     string
	verbose    bool

	// getenv is os.Getenv outside tests.
	getenv func(string) string

	logger *zap.Logger
	client *sdk.Client
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mini-ipam",
		Short: "mini-ipam - private IPv4 address management",
		Long: `mini-ipam manages collections of private IPv4 space and the nodes
assigned inside them.

Collections are CIDR blocks that must lie in the RFC 1918 ranges
(10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16) and may not overlap.
Nodes are address and port records, optionally assigned to the most
specific collection that contains their address.

Server settings come from flags, then MINI_IPAM_URL and MINI_IPAM_TOKEN,
then ~/.config/mini-ipam/config.yaml.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != outputTable && opts.output != outputJSON {
				return fmt.Errorf("unknown output format %q (want %s or %s)", opts.output, outputTable, outputJSON)
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringSliceVar(&opts.urls, "url", nil, "Server URL; repeat or comma-separate for failover")
	flags.StringVar(&opts.token, "token", "", "API token for write operations")
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (default ~/.config/mini-ipam/config.yaml)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "HTTP request timeout (default 30s)")
	flags.StringVarP(&opts.output, "output", "o", outputTable, "Output format: table or json")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log requests and decisions to stderr")

	rootCmd.AddCommand(
		newVersionCmd(),
		newCollectionsCmd(opts),
		newNodesCmd(opts),
		newSuggestCmd(opts),
	)

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// sdkClient resolves settings and builds the client on first use.
func (o *rootOptions) sdkClient(cmd *cobra.Command) (*sdk.Client, error) {
	if o.client != nil {
		return o.client, nil
	}

	logger := o.log(cmd.ErrOrStderr())

	settings, err := resolveSettings(o)
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved settings",
		zap.Strings("urls", settings.URLs),
		zap.Bool("token", settings.Token != ""),
		zap.String("source", settings.Source),
	)

	client, err := sdk.NewClient(sdk.ClientConfig{
		BaseURLs: settings.URLs,
		Token:    settings.Token,
		Timeout:  settings.Timeout,
	})
	if err != nil {
		return nil, err
	}
	o.client = client
	return client, nil
}

// log returns a development logger on stderr when --verbose is set.
func (o *rootOptions) log(w io.Writer) *zap.Logger {
	if o.logger != nil {
		return o.logger
	}
	if !o.verbose {
		o.logger = zap.NewNop()
		return o.logger
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), zap.DebugLevel)
	o.logger = zap.New(core)
	return o.logger
}

// versionString returns formatted version information
func versionString() string {
	return fmt.Sprintf("mini-ipam %s (commit: %s, built: %s)", Version, Commit, BuildDate)
}
