package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stubd",
		Short: "stubd serves HTTP stubs managed through a REST API",
		Long: `stubd stores stub definitions, compiles them into matching rules and
serves canned responses for requests that match.

Configuration can be provided via flags, STUBD_* environment variables, or a
configuration file (stubd.yaml in the working directory by default).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newNormalizeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
