package run

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"spectrum-keeper/cmd/root"
	"spectrum-keeper/controllers"
	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/env"
	"spectrum-keeper/internal/logger"
	"spectrum-keeper/internal/middleware"
	"spectrum-keeper/internal/system"
	"spectrum-keeper/internal/version"
	"spectrum-keeper/services"
)

var (
	flagService   bool
	flagHost      string
	flagPort      int
	flagReinstall bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch the toolkit (interactive session or background service)",
	Long: `Without flags, attaches this login to the persistent interactive
session. With --service, runs the background HTTP service that exposes the
tool-control API; this is the command baked into the generated service unit.`,
	RunE: doRun,
}

func init() {
	root.RootCmd.AddCommand(runCmd)
	runCmd.Flags().SortFlags = false
	runCmd.Flags().BoolVar(&flagService, "service", false, "run as the background network service")
	runCmd.Flags().StringVar(&flagHost, "host", "", "bind host (service mode)")
	runCmd.Flags().IntVar(&flagPort, "port", 0, "listen port (service mode)")
	runCmd.Flags().BoolVar(&flagReinstall, "reinstall", false, "re-provision the runtime environment before starting")
}

func doRun(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if flagHost != "" {
		cfg.Server.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}

	runner := system.NewExecRunner()
	prov := services.NewProvisioner(cfg, runner)

	// The runtime environment invariant: both the session and the service
	// refuse to start without it, re-provisioning when asked.
	if err := prov.Verify(); err != nil {
		if !flagReinstall {
			return err
		}
		logger.Warnf("Runtime environment incomplete, re-provisioning: %v", err)
		if report := prov.CreateRuntime(cmd.Context()); !report.Ok() {
			return fmt.Errorf("re-provisioning failed: %v", report.Warnings)
		}
	} else if flagReinstall {
		if report := prov.CreateRuntime(cmd.Context()); !report.Ok() {
			return fmt.Errorf("re-provisioning failed: %v", report.Warnings)
		}
	}

	if !flagService {
		boot := services.NewSessionBootstrap(cfg, runner)
		entry := filepath.Join(cfg.Directory.Venv, "bin", "python") + " -m spectrumsnek"
		return boot.Run(context.Background(), entry)
	}
	return runService(cfg, runner)
}

func runService(cfg *config.AppConfig, runner system.Runner) error {
	env.Daemon = true
	env.ListenPort = cfg.Server.Port

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.MetricsMiddleware())

	registry := services.NewRegistry(cfg, runner)
	api := controllers.NewAPIController(registry, version.SoftwareVer)
	api.RegisterRoutes(engine)

	srv := services.NewServer(cfg, registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, engine)
}
