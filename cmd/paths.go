package cmd

import (
	"github.com/grovetools/projsync/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput lists the locations projsync reads and writes.
type PathsOutput struct {
	ConfigDir string `json:"config_dir"`
	StateDir  string `json:"state_dir"`
	CacheDir  string `json:"cache_dir"`
	Socket    string `json:"socket"`
	PidFile   string `json:"pid_file"`
	HashIndex string `json:"hash_index"`
}

// NewPathsCmd prints the resolved paths as JSON.
func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the paths used by projsync",
		Long: `Print the paths used by projsync as JSON. Set PROJSYNC_HOME to keep
everything under one directory; otherwise the XDG base directories apply.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, PathsOutput{
				ConfigDir: paths.ConfigDir(),
				StateDir:  paths.StateDir(),
				CacheDir:  paths.CacheDir(),
				Socket:    paths.SocketPath(),
				PidFile:   paths.PidFilePath(),
				HashIndex: paths.IndexPath(),
			})
		},
	}
}
