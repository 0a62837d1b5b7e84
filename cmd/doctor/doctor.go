package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spectrum-keeper/cmd/root"
	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/system"
	"spectrum-keeper/services"
)

var (
	doctorHost string
	doctorPort int
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run end-to-end health diagnostics",
	Long: `Runs the diagnostic chain against the background service: init system
state, process table, listening port, TCP connect, and the HTTP status
endpoint. Each failed check comes with a suggested next step.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDoctor(context.Background()); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

/**
 * Run all diagnostic checks and print the report
 * @description
 * - Prints one PASS/FAIL line per check with detail
 * - Failed checks print their remediation hint
 * - Exits non-zero when any check fails
 */
func runDoctor(ctx context.Context) error {
	cfg := config.Get()
	if doctorHost != "" {
		cfg.Server.Host = doctorHost
	}
	if doctorPort != 0 {
		cfg.Server.Port = doctorPort
	}

	d := services.NewDoctor(cfg, system.NewExecRunner())
	report := d.Run(ctx)

	for _, c := range report.Checks {
		mark := "PASS"
		if !c.Passed {
			mark = "FAIL"
		}
		fmt.Printf("[%s] %-16s %s\n", mark, c.Name, c.Detail)
		if !c.Passed && c.Hint != "" {
			fmt.Printf("       hint: %s\n", c.Hint)
		}
	}

	fmt.Printf("\n%d/%d checks passed\n", report.PassedChecks, report.TotalChecks)
	if !report.Healthy {
		return fmt.Errorf("diagnostics found problems")
	}
	fmt.Println("All checks passed")
	return nil
}

func init() {
	doctorCmd.Flags().StringVar(&doctorHost, "host", "", "Service host to probe (default from config)")
	doctorCmd.Flags().IntVar(&doctorPort, "port", 0, "Service port to probe (default from config)")
	root.RootCmd.AddCommand(doctorCmd)
}
