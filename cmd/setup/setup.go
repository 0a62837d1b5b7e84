package setup

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"spectrum-keeper/cmd/root"
	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/models"
	"spectrum-keeper/internal/system"
	"spectrum-keeper/services"
)

var (
	flagConsole  bool
	flagHeadless bool
	flagFull     bool
	flagSkipDeps bool
	flagDev      bool
	flagYes      bool
	flagHost     string
	flagPort     int
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the host and install a deployment architecture",
	Long: `Provisions the host (native packages, device permissions, runtime
environment) and installs the service definitions for the selected
deployment architecture:

  --console   auto-login console session attached to a persistent tmux session
  --headless  background network service with auto-restart
  --full      both at once

Re-running is safe; every artifact is overwritten in place.`,
	RunE: runSetup,
}

const setupExample = `  # headless service on the default port
  sudo spectrum-keeper setup --headless

  # interactive console on tty1, no native packages
  sudo spectrum-keeper setup --console --skip-deps`

func init() {
	root.RootCmd.AddCommand(setupCmd)
	setupCmd.Example = setupExample
	setupCmd.Flags().SortFlags = false
	setupCmd.Flags().BoolVar(&flagConsole, "console", false, "install the auto-login console session")
	setupCmd.Flags().BoolVar(&flagHeadless, "headless", false, "install the background network service")
	setupCmd.Flags().BoolVar(&flagFull, "full", false, "install both console and headless")
	setupCmd.Flags().BoolVar(&flagSkipDeps, "skip-deps", false, "skip native package installation")
	setupCmd.Flags().BoolVar(&flagDev, "dev", false, "development mode: runtime environment and scripts only, no system changes")
	setupCmd.Flags().BoolVar(&flagYes, "yes", false, "run non-interactively, accept defaults")
	setupCmd.Flags().StringVar(&flagHost, "host", "", "service bind host baked into the unit")
	setupCmd.Flags().IntVar(&flagPort, "port", 0, "service port baked into the unit")
}

func selectedArchitecture() (models.Architecture, error) {
	n := 0
	for _, f := range []bool{flagConsole, flagHeadless, flagFull} {
		if f {
			n++
		}
	}
	if n > 1 {
		return "", fmt.Errorf("choose exactly one of --console, --headless, --full")
	}
	switch {
	case flagConsole:
		return models.ArchConsole, nil
	case flagHeadless:
		return models.ArchHeadless, nil
	case flagFull:
		return models.ArchFull, nil
	}
	if flagYes {
		return models.ArchHeadless, nil
	}
	return promptArchitecture()
}

func promptArchitecture() (models.Architecture, error) {
	fmt.Println("Select deployment architecture:")
	fmt.Println("  1) console   - auto-login interactive session on tty1")
	fmt.Println("  2) headless  - background network service")
	fmt.Println("  3) full      - both")
	fmt.Print("Choice [2]: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("architecture selection required (or pass --console/--headless/--full)")
	}
	switch strings.TrimSpace(line) {
	case "1":
		return models.ArchConsole, nil
	case "2", "":
		return models.ArchHeadless, nil
	case "3":
		return models.ArchFull, nil
	default:
		return "", fmt.Errorf("unknown choice %q", strings.TrimSpace(line))
	}
}

func runSetup(cmd *cobra.Command, args []string) error {
	arch, err := selectedArchitecture()
	if err != nil {
		return err
	}

	cfg := config.Get()
	runner := system.NewExecRunner()
	ctx := context.Background()

	overall := models.NewStepReport("setup")

	prov := services.NewProvisioner(cfg, runner)
	overall.Merge(prov.Provision(ctx, flagSkipDeps || flagDev))

	if !flagDev {
		perms := services.NewPermissionInstaller(cfg, runner)
		overall.Merge(perms.Install(ctx, invokingUser()))

		cfgr := services.NewConfigurator(cfg, runner)
		overall.Merge(cfgr.Apply(ctx, arch, services.ConfiguratorOptions{
			Host: flagHost,
			Port: flagPort,
		}))
	} else {
		fmt.Println("Dev mode: skipping device permissions and service definitions")
	}

	if err := writeDiagnoseScript(cfg); err != nil {
		overall.Warnf("diagnose script: %v", err)
	}

	printReport(overall, arch)
	if !overall.Ok() {
		return fmt.Errorf("setup failed")
	}
	return nil
}

// invokingUser resolves the non-privileged operator even under sudo.
func invokingUser() string {
	if u := os.Getenv("SUDO_USER"); u != "" {
		return u
	}
	return os.Getenv("USER")
}

func writeDiagnoseScript(cfg *config.AppConfig) error {
	script, err := services.RenderDiagnoseScript(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Directory.Bin, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cfg.Directory.Bin, "diagnose.sh"), script, 0755)
}

func printReport(report *models.StepReport, arch models.Architecture) {
	fmt.Printf("\nSetup (%s): %s\n", arch, report.Outcome)
	if len(report.Warnings) > 0 {
		fmt.Println("Outstanding issues:")
		for _, w := range report.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
}
