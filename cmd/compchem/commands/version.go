package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/compchem/cmd"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version, commit, build date and Go runtime of compchem.`,
	Run: func(c *cobra.Command, _ []string) {
		out := c.OutOrStdout()
		fmt.Fprintf(out, "compchem version %s\n", cmd.Version)
		fmt.Fprintf(out, "  commit:    %s\n", cmd.Commit)
		fmt.Fprintf(out, "  built:     %s\n", cmd.Date)
		fmt.Fprintf(out, "  go:        %s\n", runtime.Version())
	},
}
