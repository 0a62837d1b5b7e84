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

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the background service",
	Run: func(cmd *cobra.Command, args []string) {
		manager := services.NewUnitManager(config.Get(), system.NewExecRunner())
		if err := manager.Restart(context.Background()); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Println("Service restarted")
	},
}

func init() {
	serviceCmd.AddCommand(restartCmd)
}
