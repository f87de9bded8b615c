package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"chatdrop/internal/client"
	"chatdrop/internal/config"
	"chatdrop/internal/observability"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file")
		host       = flag.String("host", "", "server host (overrides config)")
		port       = flag.Int("port", 0, "server port (overrides config)")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logger := observability.InitLogger("chatctl", *debug)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("failed to load .env file")
	}

	cfg := config.DefaultClientConfig()
	if *configPath != "" {
		loaded, err := config.LoadClientConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load client config")
		}
		cfg = loaded
		logger.Info().Str("path", *configPath).Msg("loaded client config")
	}
	if err := config.ApplyClientEnv(&cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid environment override")
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if err := config.ValidateClientConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid client config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(cfg, logger)
	conn, err := c.Connect(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Addr()).Msg("could not reach server")
	}
	defer conn.Close()

	if err := c.Session(ctx, conn, os.Stdin, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("session ended with error")
	}
	logger.Info().Msg("session closed")
}
