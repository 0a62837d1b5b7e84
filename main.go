package main

import (
	"os"

	_ "spectrum-keeper/cmd"
	"spectrum-keeper/cmd/root"
	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/logger"
)

func main() {
	// The daemon tees logs to stdout so journald captures them too.
	isServiceMode := false
	if len(os.Args) > 1 && os.Args[1] == "run" {
		for _, arg := range os.Args[2:] {
			if arg == "--service" {
				isServiceMode = true
				break
			}
		}
	}
	logger.InitLogger(&config.Config.Log, isServiceMode)

	if err := root.RootCmd.Execute(); err != nil {
		logger.Fatal(err)
	}
	os.Exit(0)
}
