// Package main provides the entry point for the DentalCeph application.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"dentalceph/internal/app"
	"dentalceph/internal/config"
	"dentalceph/internal/logging"
	"dentalceph/internal/version"
	"dentalceph/ui/mainwindow"
)

const appID = "io.github.dentalceph"

func main() {
	configDir := flag.String("config", config.DefaultDir(), "directory holding "+config.FileName)
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	settings, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, closer, err := logging.Setup(settings.LogLevel, settings.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	logger.Info("Starting", "version", version.String(), "config", *configDir)

	state, err := app.NewState(settings, logger)
	if err != nil {
		logger.Error("Failed to create session", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.DentalCephTheme{})

	win := mainwindow.New(fyneApp, state, settings, *configDir, logger)

	// Open an image given on the command line
	if path := flag.Arg(0); path != "" {
		if err := state.LoadImage(path); err != nil {
			logger.Warn("Failed to load image", "path", path, "error", err)
		}
	}

	win.ShowAndRun()
	slog.Info("Exiting")
}
