package cmd

import (
	"github.com/grovetools/projsync/cli"
	"github.com/grovetools/projsync/logging"
	"github.com/grovetools/projsync/pkg/profiling"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the projsync command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := cli.NewStandardCommand(
		"projsync",
		"Merge cloud project metadata with local files",
	)
	rootCmd.Long = `projsync pairs the cloud record of each project with its files on local
disk and tracks which project is currently selected.`

	profiling.NewCobraProfiler(logging.NewLogger("profiling")).AddFlags(rootCmd)

	rootCmd.AddCommand(NewFilesCmd())
	rootCmd.AddCommand(NewShowCmd())
	rootCmd.AddCommand(NewSelectCmd())
	rootCmd.AddCommand(NewClearCmd())
	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewDaemonCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewPathsCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("projsync"))

	cli.ApplyStyledHelpRecursive(rootCmd)
	return rootCmd
}
