package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"chatdrop/internal/config"
	"chatdrop/internal/observability"
	"chatdrop/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file")
		host       = flag.String("host", "", "listen host (overrides config)")
		port       = flag.Int("port", 0, "listen port (overrides config)")
		fileDir    = flag.String("file-dir", "", "directory for stored files (overrides config)")
		imageDir   = flag.String("image-dir", "", "directory for stored images (overrides config)")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logger := observability.InitLogger("chatd", *debug)

	// Precedence, lowest to highest: defaults, config file, .env /
	// environment, command-line flags.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("failed to load .env file")
	}

	cfg := config.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := config.LoadServerConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load server config")
		}
		cfg = loaded
		logger.Info().Str("path", *configPath).Msg("loaded server config")
	}
	if err := config.ApplyServerEnv(&cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid environment override")
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *fileDir != "" {
		cfg.FileDir = *fileDir
	}
	if *imageDir != "" {
		cfg.ImageDir = *imageDir
	}
	if err := config.ValidateServerConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid server config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger)
	logger.Info().
		Str("addr", cfg.Addr()).
		Str("file_dir", cfg.FileDir).
		Str("image_dir", cfg.ImageDir).
		Strs("commands", srv.Registry().Keywords()).
		Msg("starting chatd")
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("chatd stopped")
}
