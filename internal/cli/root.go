// Package cli implements the ninekw command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	ninekw "github.com/anatolykoptev/go-9kw"
	"github.com/anatolykoptev/go-9kw/internal/journal"
	"github.com/anatolykoptev/go-9kw/internal/version"
)

const apiKeyEnv = "NINEKW_API_KEY"

// options holds the global flags shared by every subcommand.
type options struct {
	apiKey   string
	proxy    string
	envProxy bool
	endpoint string
	journal  string
	verbose  bool

	// injected by tests
	transport ninekw.Transport
	fetch     func(url string) ([]byte, error)
}

// NewRootCmd builds the ninekw command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "ninekw",
		Short:   "Client for the 9kw.eu captcha solving service",
		Version: version.String(),
		Long: `ninekw uploads captcha images to 9kw.eu, waits for the answer
and reports back whether the answer was right.

The API key is read from --api-key or the NINEKW_API_KEY environment variable.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(opts.verbose)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.apiKey, "api-key", "", "9kw.eu API key (default $"+apiKeyEnv+")")
	pf.StringVar(&opts.proxy, "proxy", "", "proxy URL (http:// or socks5://)")
	pf.BoolVar(&opts.envProxy, "env-proxy", false, "use http_proxy from the environment")
	pf.StringVar(&opts.endpoint, "endpoint", "", "override the 9kw.eu API URL")
	pf.StringVar(&opts.journal, "journal", journal.DefaultPath(), "request journal path (empty disables)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(BalanceCmd(opts))
	rootCmd.AddCommand(SolveCmd(opts))
	rootCmd.AddCommand(FeedbackCmd(opts))
	rootCmd.AddCommand(HistoryCmd(opts))
	rootCmd.AddCommand(SampleCmd(opts))

	return rootCmd
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// newClient builds a 9kw client from the global flags.
func (o *options) newClient() (*ninekw.Client, error) {
	key := o.apiKey
	if key == "" {
		key = os.Getenv(apiKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("no API key: pass --api-key or set %s", apiKeyEnv)
	}
	return ninekw.NewClient(ninekw.ClientConfig{
		APIKey:    key,
		Endpoint:  o.endpoint,
		Proxy:     o.proxy,
		EnvProxy:  o.envProxy,
		Transport: o.transport,
	})
}

// openJournal returns nil when the journal is disabled.
func (o *options) openJournal() (*journal.Journal, error) {
	if o.journal == "" {
		return nil, nil
	}
	return journal.Open(o.journal)
}
