package service

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/system"
	"spectrum-keeper/services"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cross-checked service status",
	Long: `Shows the init system's view of the background service alongside a
process-table scan and a port probe, since "active" in systemd does not
always mean the listener is ready.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := showServiceStatus(context.Background()); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

/**
 * Show cross-checked service status
 * @description
 * - Queries the unit manager for the aggregated view
 * - Prints one row per check plus an overall verdict
 */
func showServiceStatus(ctx context.Context) error {
	manager := services.NewUnitManager(config.Get(), system.NewExecRunner())
	st, err := manager.Status(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "unit\t%s\n", st.Unit)
	fmt.Fprintf(w, "systemd\t%s\n", st.ActiveState)
	fmt.Fprintf(w, "enabled\t%s\n", yesNo(st.Enabled))
	fmt.Fprintf(w, "process\t%s", yesNo(st.ProcessRunning))
	if len(st.Pids) > 0 {
		fmt.Fprintf(w, " (pid %d)", st.Pids[0])
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "port %d\t%s\n", st.Port, yesNo(st.PortBound))
	w.Flush()

	if st.Converged() {
		fmt.Println("\nService is active and reachable")
	} else if st.Active {
		fmt.Println("\nService is active but not fully reachable; run 'spectrum-keeper doctor'")
	} else {
		fmt.Println("\nService is not running")
	}
	return nil
}

func init() {
	serviceCmd.AddCommand(statusCmd)
}
