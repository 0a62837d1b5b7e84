package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"spectrum-keeper/cmd/root"
	"spectrum-keeper/internal/version"
)

func PrintVersions() {
	fmt.Printf("Version %s\n", version.SoftwareVer)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Build Commit ID: %s\n", version.BuildCommitId)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",

	Run: func(cmd *cobra.Command, args []string) {
		PrintVersions()
	},
}

func init() {
	root.RootCmd.AddCommand(versionCmd)
}
