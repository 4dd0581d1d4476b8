package commands

import (
	"os"
	"time"

	"github.com/benvon/todo-api/internal/client"
	"github.com/spf13/cobra"
)

// serverEnv overrides the default server URL when --server is not given
const serverEnv = "TODO_API_URL"

type rootOptions struct {
	server  string
	timeout time.Duration
	noColor bool
}

// NewRootCmd creates the todoctl command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "todoctl",
		Short:         "Command line client for the Todo API",
		Long:          "Manage todos on a running Todo API server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				disableColor()
			}
		},
	}

	defaultServer := os.Getenv(serverEnv)
	if defaultServer == "" {
		defaultServer = client.DefaultBaseURL
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", defaultServer, "Todo API base URL (env "+serverEnv+")")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		newListCmd(opts),
		newGetCmd(opts),
		newAddCmd(opts),
		newUpdateCmd(opts),
		newDoneCmd(opts),
		newDeleteCmd(opts),
		newCompleteAllCmd(opts),
		newClearCompletedCmd(opts),
		newStatsCmd(opts),
		newHealthCmd(opts),
	)

	return rootCmd
}

func (o *rootOptions) client() (*client.Client, error) {
	return client.New(o.server)
}
