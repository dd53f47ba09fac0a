// Package cmd implements the ccprobe CLI.
package cmd

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "ccprobe",
	Short: "C/C++ toolchain auto-configuration",
	Long: `ccprobe detects the host C/C++ compiler, probes which flags it accepts and
writes a toolchain descriptor for the build system to consume. Environment
variables like CC, CXX and the BAZEL_* overrides take precedence over the
detected defaults.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// loadConfig loads the operational settings and builds the context carrying
// the configured logger.
func loadConfig() (context.Context, *config.Config, error) {
	cfg, loader := config.Loader()
	if err := loader.Load(); err != nil {
		return nil, nil, eris.Wrap(err, "failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var logger zerolog.Logger
	if cfg.Log.JSON {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(NewConsoleWriter())
	}

	level := cfg.LogLevel()
	if debugRequested() {
		level = zerolog.DebugLevel
	}
	logger = logger.Level(level)

	return cclog.WithLogger(context.Background(), &logger), cfg, nil
}

// debugRequested reports whether CC_CONFIGURE_DEBUG asks for verbose probe
// logs.
func debugRequested() bool {
	value := os.Getenv("CC_CONFIGURE_DEBUG")
	return value != "" && value != "0"
}
