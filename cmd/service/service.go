package service

import (
	"github.com/spf13/cobra"

	"spectrum-keeper/cmd/root"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Background service operations (status/start/stop/restart etc.)",
	Long:  `Operate the installed background service through the host init system.`,
}

const serviceExample = `  # start the background service
  spectrum-keeper service start

  # cross-checked status (init system, process table, port)
  spectrum-keeper service status`

func init() {
	root.RootCmd.AddCommand(serviceCmd)

	serviceCmd.Example = serviceExample
}
