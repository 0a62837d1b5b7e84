package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"spectrum-keeper/cmd/root"
	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/system"
	"spectrum-keeper/services"
)

var sessionEntry string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Attach to or create the console tmux session",
	Long: `Decides between creating a fresh tmux session and attaching to an
existing one based on where the caller sits: a local console replaces
itself with the session, while a remote shell attaches and returns.
Without tmux installed the entry command runs in the foreground.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		entry := sessionEntry
		if entry == "" {
			entry = filepath.Join(cfg.Directory.Venv, "bin", "python") + " -m spectrumsnek"
		}
		b := services.NewSessionBootstrap(cfg, system.NewExecRunner())
		if err := b.Run(context.Background(), entry); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	sessionCmd.Flags().StringVar(&sessionEntry, "entry", "", "Command to run inside the session (default: toolkit entry point)")
	root.RootCmd.AddCommand(sessionCmd)
}
