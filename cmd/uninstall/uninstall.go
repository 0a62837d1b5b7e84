package uninstall

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spectrum-keeper/cmd/root"
	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/system"
	"spectrum-keeper/services"
)

var assumeYes bool

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove installed system artifacts",
	Long: `Removes the service unit, getty override, udev rules, bootstrap and
diagnose scripts, the shell profile hook, and the Python virtualenv.
Native OS packages are left alone. Keeps going past individual
failures and reports what could not be removed.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runUninstall(context.Background()); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func confirmRemoval() bool {
	fmt.Print("This removes the service, device rules and virtualenv. Continue? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func runUninstall(ctx context.Context) error {
	cfg := config.Get()
	u := services.NewUninstaller(cfg, system.NewExecRunner())
	if !assumeYes {
		u.Confirm = confirmRemoval
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	report := u.Run(ctx, home)

	for _, w := range report.Warnings {
		fmt.Println("warning:", w)
	}
	fmt.Printf("Uninstall finished: %s\n", report.Outcome)
	if !report.Ok() {
		return fmt.Errorf("uninstall did not complete cleanly")
	}
	return nil
}

func init() {
	uninstallCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	root.RootCmd.AddCommand(uninstallCmd)
}
