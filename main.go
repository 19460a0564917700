package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/soocke/buff-scanner-go/app"
	"github.com/soocke/buff-scanner-go/config"
)

func main() {
	// Optional .env for local overrides; absence is fine.
	_ = godotenv.Load()

	cfgPath := os.Getenv("BUFF_SCANNER_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.json"
	}

	logger := NewLogger(false)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config load failed, using defaults", "path", cfgPath, "error", err)
	}
	if os.Getenv("BUFF_SCANNER_DEBUG") != "" {
		cfg.Debug = true
	}
	if cfg.Debug {
		logger = NewLogger(true)
	}

	container := app.BuildContainer(cfg, cfgPath, logger)
	container.Run()
}
