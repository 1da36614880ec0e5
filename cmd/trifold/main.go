// trifold converts an animated 3D model document into a 2D prefab built
// from right-triangle objects.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/trifold/internal/config"
	"github.com/Faultbox/trifold/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		printUsage()
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	if path := config.SavePath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			logger.Error("failed to save config", zap.String("path", path), zap.Error(err))
			logger.Sync()
			os.Exit(1)
		}
		logger.Info("config saved", zap.String("path", path))
	}

	res, err := run(cfg)
	if err != nil {
		logger.Error("conversion failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	printSummary(os.Stdout, cfg, res)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  trifold -model m.yaml -output out.lsp [-theme out.lst] [-name n]
          [-depth s] [-width w] [-height h] [-framerate r] [-duration d]
          [-clip name|none] [-preview p.webp|p.tga] [-config c.yaml] [-save-config c.yaml] [-debug]`)
}
