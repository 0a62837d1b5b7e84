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

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable the service at boot",
	Run: func(cmd *cobra.Command, args []string) {
		manager := services.NewUnitManager(config.Get(), system.NewExecRunner())
		if err := manager.Enable(context.Background()); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Println("Service enabled")
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable the service at boot",
	Run: func(cmd *cobra.Command, args []string) {
		manager := services.NewUnitManager(config.Get(), system.NewExecRunner())
		if err := manager.Disable(context.Background()); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Println("Service disabled")
	},
}

func init() {
	serviceCmd.AddCommand(enableCmd)
	serviceCmd.AddCommand(disableCmd)
}
