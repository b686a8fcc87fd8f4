package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/database"
	httpHandlers "github.com/ANIKETSHETTY47/energy-weekly-brief/internal/http"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/logging"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/service"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logging.Setup(config.LogLevel(), config.LogFormat())

	profile, err := config.ReportProfile()
	if err != nil {
		log.Fatal().Err(err).Msg("report profile invalid")
	}

	db, err := database.Connect(config.DBDriver(), config.DBDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := service.CloudOptions(ctx, true)
	if err != nil {
		log.Fatal().Err(err).Msg("cloud setup failed")
	}
	svcs := service.New(db, profile, config.ReportWorkers(), opts...)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httpHandlers.Register(app, svcs.Repos, svcs.Reports)

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdown); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Msg("api listening")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server exit")
	}
}
