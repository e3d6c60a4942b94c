// Command anomalydetector runs the LiDAR point-ingestion, object
// characterization, and anomaly-comparison pipeline (spec §6): it scans a
// live sensor or a recorded file, then drops into an interactive shell for
// defining backgrounds/objects, registering objects and models, and
// analyzing an object against a model.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ilmartoo-go/lidaranomaly/internal/config"
	"github.com/ilmartoo-go/lidaranomaly/internal/version"
)

var (
	broadcastCode = flag.String("b", "", "broadcast code / serial port of a live sensor (mutually exclusive with -f)")
	file          = flag.String("f", "", "recorded point file to scan; .csv or .lvx (mutually exclusive with -b)")

	objFrameMs  = flag.Int("t", 0, "object window, in ms (overrides the tuning config's obj_frame)")
	backFrameMs = flag.Int("g", 0, "background window, in ms (overrides the tuning config's back_frame)")
	reflFlag    = flag.Float64("r", -1, "reflectivity threshold (overrides the tuning config's min_reflectivity)")
	backDistM   = flag.Float64("d", -1, "background-distance threshold, in meters (overrides back_distance_m)")
	chronoFlag  = flag.String("c", "notime", "enable chronometers: notime, char, anom, or all")

	configPath  = flag.String("config", "", "path to a JSON tuning configuration file (defaults to the built-in defaults)")
	catalogPath = flag.String("catalog", "catalog.db", "path to the object/model registry database")

	helpFlag     = flag.Bool("h", false, "show usage and exit")
	helpFlagLong = flag.Bool("help", false, "show usage and exit")
	versionFlag  = flag.Bool("version", false, "print version information and exit")
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `lidaranomaly - LiDAR point ingestion, characterization and anomaly detection

Usage:
  lidaranomaly -b <broadcast_code> [options]
  lidaranomaly -f <filename> [options]

Exactly one of -b or -f is required.

Options:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Chronometer targets (-c): notime, char, anom, all.

Once running, the interactive shell accepts: define, discard, object,
model, list, analyze, set, chrono, info, help, exit. Type "help" at the
shell prompt for details on each.
`)
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if *helpFlag || *helpFlagLong {
		printUsage()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("lidaranomaly %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		os.Exit(0)
	}

	mode, source, err := resolveMode(*broadcastCode, *file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
		printUsage()
		os.Exit(1)
	}

	switch *chronoFlag {
	case "notime", "char", "anom", "all":
	default:
		fmt.Fprintf(os.Stderr, "error: invalid -c value %q (want notime, char, anom, or all)\n", *chronoFlag)
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid tuning configuration: %v\n", err)
		os.Exit(1)
	}

	a, err := newApp(mode, source, cfg, *catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	switch *chronoFlag {
	case "char", "all":
		a.setChronoDefine(true)
	}
	if *chronoFlag == "anom" || *chronoFlag == "all" {
		a.chronoAnalyze = true
	}

	newShell(a, os.Stdin, os.Stdout).run()
}

// resolveMode enforces the -b XOR -f contract (spec §6).
func resolveMode(b, f string) (mode, source string, err error) {
	switch {
	case b != "" && f != "":
		return "", "", fmt.Errorf("-b and -f are mutually exclusive")
	case b != "":
		return "b", b, nil
	case f != "":
		return "f", f, nil
	default:
		return "", "", fmt.Errorf("one of -b or -f is required")
	}
}

func loadConfig(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.MustLoadDefaultConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

// applyOverrides layers the CLI's -t/-g/-r/-d flags over the loaded tuning
// config, since the CLI contract (spec §6) treats them as overrides rather
// than replacements for the rest of the profile.
func applyOverrides(cfg *config.TuningConfig) {
	if *objFrameMs > 0 {
		d := fmt.Sprintf("%dms", *objFrameMs)
		cfg.ObjFrame = &d
	}
	if *backFrameMs > 0 {
		d := fmt.Sprintf("%dms", *backFrameMs)
		cfg.BackFrame = &d
	}
	if *reflFlag >= 0 {
		v := *reflFlag
		cfg.MinReflectivity = &v
	}
	if *backDistM >= 0 {
		v := *backDistM
		cfg.BackDistanceM = &v
	}
}
