package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/deepsight-tools/internal/capture"
	"github.com/ironsheep/deepsight-tools/internal/config"
	"github.com/ironsheep/deepsight-tools/internal/geometry"
	"github.com/ironsheep/deepsight-tools/internal/labels"
	"github.com/ironsheep/deepsight-tools/internal/logging"
	"github.com/ironsheep/deepsight-tools/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("deepsight - dataset capture and labeling tools")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  deepsight [serve] [options]     Run the MCP server on stdin/stdout")
	fmt.Println("  deepsight capture [options]     Record augmented training samples")
	fmt.Println()
	fmt.Println("Common options:")
	fmt.Println("  -config FILE     Settings file (default maintenance.json)")
	fmt.Println("  -debug           Enable debug logging")
	fmt.Println()
	fmt.Println("Serve options:")
	fmt.Println("  -dataset DIR     Dataset root (default yolo_training_data)")
	fmt.Println("  -data-yaml FILE  Class registry (default <dataset>/data.yaml)")
	fmt.Println()
	fmt.Println("Capture options:")
	fmt.Println("  -camera-dir DIR  Directory of frames replayed as the camera")
	fmt.Println("  -category NAME   Object category")
	fmt.Println("  -label NAME      Object label")
	fmt.Println("  -out DIR         Output root (default training_data)")
	fmt.Println("  -seed N          Augmentation seed (default: time based)")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug    Set the log level\n", logging.EnvLevel)
	fmt.Println()
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
}

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("deepsight %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "serve", "capture":
			cmd, args = args[0], args[1:]
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "capture":
		err = runCapture(ctx, args)
	default:
		err = runServe(ctx, args)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "deepsight: %v\n", err)
		os.Exit(1)
	}
}

type commonFlags struct {
	config string
	debug  bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", config.DefaultPath, "settings file")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
}

// setup builds the logger and opens the settings file, reloading it on
// external edits until ctx is done.
func (c *commonFlags) setup(ctx context.Context) (*logrus.Logger, *config.Store) {
	// stdout is reserved for the MCP protocol
	log := logging.New(logging.LevelFromEnv(c.debug), os.Stderr)
	log.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("Starting deepsight")

	cfg := config.Open(c.config, log)
	if err := cfg.Watch(ctx); err != nil {
		log.WithError(err).Warn("Settings changes will not be picked up")
	}
	return log, cfg
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	dataset := fs.String("dataset", "yolo_training_data", "dataset root")
	dataYAML := fs.String("data-yaml", "", "class registry file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataYAML == "" {
		*dataYAML = filepath.Join(*dataset, "data.yaml")
	}

	log, cfg := common.setup(ctx)

	store, err := labels.NewStore(*dataset)
	if err != nil {
		return err
	}
	reg, err := labels.OpenRegistry(*dataYAML)
	if err != nil {
		return err
	}

	srv := server.New(server.Deps{
		Config:   cfg,
		Store:    store,
		Registry: reg,
		Log:      log,
		Version:  Version,
	})
	log.WithField("dataset", *dataset).Info("Serving MCP on stdio")
	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runCapture(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	cameraDir := fs.String("camera-dir", "", "directory of frames replayed as the camera")
	category := fs.String("category", "", "object category")
	label := fs.String("label", "", "object label")
	out := fs.String("out", capture.DefaultBaseDir, "output root")
	seed := fs.Int64("seed", 0, "augmentation seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cameraDir == "" {
		return fmt.Errorf("capture needs -camera-dir")
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	log, cfg := common.setup(ctx)
	c := cfg.Get()

	var roi *geometry.Rect
	if r, ok := c.ROI(); ok {
		roi = &r
	}
	session := capture.NewSession(capture.NewDevice(capture.DirOpener{Dir: *cameraDir}), capture.Options{
		BaseDir:     *out,
		Category:    *category,
		Label:       *label,
		NumPictures: c.Training.NumPictures,
		Interval:    c.Training.Interval(),
		Resolution:  c.Resolution(),
		ROI:         roi,
		Params:      c.Training.Params(),
		Seed:        *seed,
	}, log)
	session.OnSample = func(ev capture.SampleEvent) {
		log.WithField("path", ev.Path).WithFields(ev.Realized.Fields()).Debug("Sample saved")
	}

	report, err := session.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d saved, %d skipped in %s\n", report.Saved, report.Skipped, report.Dir)
	return nil
}
