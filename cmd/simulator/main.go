package main

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/logging"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/service"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/simulate"
)

// Publishes the baseline weeks plus the last complete week of demo readings.
// The site and channels must already exist; see `brief seed --readings=false`.
func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logging.Setup(config.LogLevel(), config.LogFormat())
	profile, err := config.ReportProfile()
	if err != nil {
		log.Fatal().Err(err).Msg("report profile invalid")
	}

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker()).SetClientID("weekly-brief-simulator")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	week := calendar.LastCompleteWeek(time.Now(), profile.Location())
	history := calendar.BaselinePeriod(week.Start, profile.Baseline.WeeksCount)
	span := calendar.Range{Start: history.Start, End: week.End}
	classifier := profile.Classifier()

	published := 0
	for id, p := range simulate.DemoProfiles(week) {
		topic := fmt.Sprintf("%s/%d", config.MQTTTopic(), id)
		for _, rd := range simulate.Readings(id, span, 15*time.Minute, classifier, p, uint64(week.Start.Unix())) {
			payload, err := json.Marshal(service.ReadingMessage{
				ChannelID: rd.ChannelID,
				Timestamp: rd.Timestamp,
				PowerKW:   rd.PowerKW,
			})
			if err != nil {
				log.Fatal().Err(err).Msg("encode reading")
			}
			token := client.Publish(topic, 1, false, payload)
			token.Wait()
			if err := token.Error(); err != nil {
				log.Error().Err(err).Int64("channel", id).Msg("publish failed")
				continue
			}
			published++
		}
	}
	log.Info().Int("readings", published).Time("week_start", week.Start).Msg("simulation done")
}
