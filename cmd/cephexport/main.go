// Command cephexport annotates a radiograph from a JSON script and exports
// the result without opening a window.
//
// A script is an array of steps, for example:
//
//	[{"op":"tool","arg":"line"},
//	 {"op":"drag","x":10,"y":10,"x2":200,"y2":40},
//	 {"op":"tool","arg":"text"},
//	 {"op":"click","x":30,"y":60},
//	 {"op":"text","arg":"Sella"}]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"dentalceph/internal/annotation"
	"dentalceph/internal/app"
	"dentalceph/internal/config"
	"dentalceph/internal/export"
	"dentalceph/internal/interaction"
	"dentalceph/internal/logging"
	"dentalceph/internal/version"
)

var errNothingExported = errors.New("nothing exported")

// options are the command-line inputs of one export run.
type options struct {
	input      string
	scriptPath string
	output     string
	format     string
	configDir  string
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "i", "", "Path to radiograph (png, jpeg, tiff, bmp)")
	flag.StringVar(&opts.scriptPath, "s", "", "Path to JSON script")
	flag.StringVar(&opts.output, "o", ".", "Output file or directory")
	flag.StringVar(&opts.format, "f", "", "Export format: png, jpeg or pdf (default from config)")
	flag.StringVar(&opts.configDir, "config", config.DefaultDir(), "Config directory")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if opts.input == "" {
		fmt.Println("Usage: cephexport -i <image> [-s <script.json>] [-o <out>] [-f png|jpeg|pdf]")
		os.Exit(1)
	}

	if err := execute(opts); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// execute runs one annotate-and-export pass. Every resource it opens is
// released before it returns.
func execute(opts options) error {
	settings, err := config.Load(opts.configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, closer, err := logging.Setup(settings.LogLevel, settings.LogFile)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()

	state, err := app.NewState(settings, logger)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer state.Close()

	state.On(app.EventAngleMeasured, func(data interface{}) {
		if a, ok := data.(annotation.Angle); ok {
			fmt.Printf("angle #%d: %.1f° (%s)\n", a.ID, a.Degrees, a.Side)
		}
	})
	state.On(app.EventRatioComputed, func(data interface{}) {
		if r, ok := data.(interaction.RatioResult); ok {
			fmt.Printf("ratio: %.3f\n", r.Value)
		}
	})
	exported := false
	state.On(app.EventExported, func(data interface{}) {
		exported = true
		fmt.Printf("exported: %v\n", data)
	})

	if err := state.LoadImage(opts.input); err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	if opts.scriptPath != "" {
		f, err := os.Open(opts.scriptPath)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		steps, err := parseScript(f)
		f.Close()
		if err != nil {
			return err
		}
		if err := run(state, steps); err != nil {
			return fmt.Errorf("script failed: %w", err)
		}
	}

	snap := state.Snapshot()
	fmt.Printf("annotations: %d points, %d lines, %d texts, %d angles\n",
		len(snap.Points), len(snap.Lines), len(snap.Texts), len(snap.Angles))

	format := opts.format
	if format == "" {
		format = settings.Export.DefaultFormat
	}
	state.ExportAs(context.Background(), format, export.FileDestination{Path: opts.output})
	if !exported {
		return errNothingExported
	}
	return nil
}
