package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/domain"
)

type ReadingService struct {
	store Store
}

func NewReadingService(store Store) *ReadingService { return &ReadingService{store: store} }

// ReadingMessage is the MQTT payload. A missing channel_id is taken from the
// last topic segment, e.g. energy/readings/42.
type ReadingMessage struct {
	ChannelID int64     `json:"channel_id"`
	Timestamp time.Time `json:"ts"`
	PowerKW   *float64  `json:"power_kw,omitempty"`
	EnergyKWh *float64  `json:"energy_kwh,omitempty"`
}

func (s *ReadingService) FromMQTT(ctx context.Context, topic string, payload []byte) error {
	var m ReadingMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return fmt.Errorf("failed to decode reading: %w", err)
	}
	if m.ChannelID == 0 {
		id, err := strconv.ParseInt(topic[strings.LastIndex(topic, "/")+1:], 10, 64)
		if err != nil {
			return fmt.Errorf("no channel id in payload or topic %q", topic)
		}
		m.ChannelID = id
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("reading for channel %d has no timestamp", m.ChannelID)
	}
	if m.PowerKW == nil && m.EnergyKWh == nil {
		return fmt.Errorf("reading for channel %d has neither power nor energy", m.ChannelID)
	}
	return s.store.InsertReading(ctx, &domain.Reading{
		ChannelID: m.ChannelID,
		Timestamp: m.Timestamp.UTC(),
		PowerKW:   m.PowerKW,
		EnergyKWh: m.EnergyKWh,
	})
}
