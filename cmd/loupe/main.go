package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/loupedev/loupe/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	follow := flag.Bool("f", false, "keep watching the file for appended lines")
	remoteAddr := flag.String("remote", "", "poll an HTTP log API at this address instead of local files")
	baseline := flag.String("baseline", "", "reference log file for anomaly comparison")
	parser := flag.String("parser", "", "force a named parser instead of auto-detection")
	mode := flag.String("mode", "", "output mode: lines, templates, fields, anomaly")
	sessionName := flag.String("session", "", "load a saved filter session by name")
	exportPath := flag.String("export", "", "write the filtered view to this file")
	logLevel := flag.String("log-level", "", "diagnostic log level (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		Paths:      flag.Args(),
		Follow:     *follow,
		Remote:     *remoteAddr,
		Baseline:   *baseline,
		Parser:     *parser,
		Mode:       *mode,
		Session:    *sessionName,
		ExportPath: *exportPath,
		LogLevel:   *logLevel,
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "loupe: %v\n", err)
		return 1
	}
	return 0
}
