package root

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "spectrum-keeper",
	Short: "SpectrumSnek deployment and service keeper",
	Long: `spectrum-keeper installs, supervises and diagnoses the SpectrumSnek
radio toolkit: host provisioning, device permissions, console/headless
deployment topologies, the background tool service and its health checks.`,
}
