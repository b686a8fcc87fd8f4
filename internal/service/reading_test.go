package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMQTT(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		channel int64
		wantErr string
	}{
		{name: "channel in payload", topic: "energy/readings", payload: `{"channel_id":7,"ts":"2024-01-08T10:00:00-05:00","power_kw":3.5}`, channel: 7},
		{name: "channel from topic", topic: "energy/readings/42", payload: `{"ts":"2024-01-08T15:00:00Z","energy_kwh":1.2}`, channel: 42},
		{name: "no channel anywhere", topic: "energy/readings", payload: `{"ts":"2024-01-08T15:00:00Z","power_kw":1}`, wantErr: "no channel id"},
		{name: "no timestamp", topic: "energy/readings/42", payload: `{"power_kw":1}`, wantErr: "no timestamp"},
		{name: "no value", topic: "energy/readings/42", payload: `{"ts":"2024-01-08T15:00:00Z"}`, wantErr: "neither power nor energy"},
		{name: "bad json", topic: "energy/readings/42", payload: `{`, wantErr: "failed to decode reading"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			err := NewReadingService(store).FromMQTT(context.Background(), tt.topic, []byte(tt.payload))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Empty(t, store.inserted)
				return
			}
			require.NoError(t, err)
			require.Len(t, store.inserted, 1)
			rd := store.inserted[0]
			assert.Equal(t, tt.channel, rd.ChannelID)
			assert.Equal(t, time.UTC, rd.Timestamp.Location())
			assert.True(t, rd.Timestamp.Equal(time.Date(2024, 1, 8, 15, 0, 0, 0, time.UTC)))
		})
	}
}
