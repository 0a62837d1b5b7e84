package cmd

import (
	_ "spectrum-keeper/cmd/doctor"
	_ "spectrum-keeper/cmd/root"
	_ "spectrum-keeper/cmd/run"
	_ "spectrum-keeper/cmd/service"
	_ "spectrum-keeper/cmd/session"
	_ "spectrum-keeper/cmd/setup"
	_ "spectrum-keeper/cmd/uninstall"
)
