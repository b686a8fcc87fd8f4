package main

import (
	"context"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/database"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/logging"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/metrics"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/repository"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/service"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logging.Setup(config.LogLevel(), config.LogFormat())

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

	readings := service.NewReadingService(repository.New(db))

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker()).SetClientID("weekly-brief-ingestor")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		if err := readings.FromMQTT(ctx, msg.Topic(), msg.Payload()); err != nil {
			metrics.ReadingsIngested.WithLabelValues("error").Inc()
			log.Error().Err(err).Str("topic", msg.Topic()).Msg("ingest failed")
			return
		}
		metrics.ReadingsIngested.WithLabelValues("ok").Inc()
	}

	topic := config.MQTTTopic()
	filters := map[string]byte{topic: 1, topic + "/+": 1}
	if token := client.SubscribeMultiple(filters, handler); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("subscribe failed")
	}

	log.Info().Str("topic", topic).Msg("ingestor running; Ctrl+C to stop")
	<-ctx.Done()
	log.Info().Msg("ingestor stopping")
}
