package service

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/system"
	"spectrum-keeper/services"
)

var logLines int

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent service journal entries",
	Run: func(cmd *cobra.Command, args []string) {
		manager := services.NewUnitManager(config.Get(), system.NewExecRunner())
		out, err := manager.Logs(context.Background(), logLines)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Print(out)
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logLines, "lines", "n", 50, "Number of journal lines to show")
	serviceCmd.AddCommand(logsCmd)
}
