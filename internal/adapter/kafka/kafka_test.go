package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hydrophone-sonify/internal/config"
	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
)

func testEvent(at time.Time) domain.ExportEvent {
	return domain.ExportEvent{
		RunID:         "run-1",
		FolderURL:     "https://rawdata-west.oceanobservatories.org/files/RS03AXPS/PC03A/HYDBBA303/2025/05/14/",
		FolderPart:    "RS03AXPS_PC03A_HYDBBA303_2025_05_14",
		Path:          "sonifications/RS03AXPS_PC03A_HYDBBA303_2025_05_14_151000_sonification.mp3",
		Format:        domain.FormatMP3,
		SampleRate:    64000,
		Samples:       128000,
		Duration:      2,
		FilesSelected: 4,
		FilesMerged:   3,
		FilesFailed:   1,
		ExportedAt:    at,
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 5, 14, 15, 10, 0, 0, time.UTC)
	msg, err := serializeToMessage(testEvent(now))
	require.NoError(t, err)

	assert.Equal(t, []byte("RS03AXPS_PC03A_HYDBBA303_2025_05_14"), msg.Key)
	assert.Contains(t, string(msg.Value), `"format":"mp3"`)
	assert.Contains(t, string(msg.Value), `"files_failed":1`)
	assert.NotContains(t, string(msg.Value), "clipped_samples")
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "format", msg.Headers[0].Key)
	assert.Equal(t, []byte("mp3"), msg.Headers[0].Value)
	assert.Equal(t, "exported_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var roundtrip domain.ExportEvent
	require.NoError(t, json.Unmarshal(msg.Value, &roundtrip))
	assert.Equal(t, testEvent(now), roundtrip)
}

func TestSerializeToMessage_HeaderInUTC(t *testing.T) {
	local := time.Date(2025, 5, 14, 8, 10, 0, 0, time.FixedZone("PDT", -7*3600))
	msg, err := serializeToMessage(testEvent(local))
	require.NoError(t, err)
	assert.Equal(t, "2025-05-14T15:10:00Z", string(msg.Headers[1].Value))
}

func TestNewNotifier(t *testing.T) {
	n := NewNotifier(&config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "sonification-exports"}, nil)
	t.Cleanup(func() { _ = n.Close() })
	assert.Equal(t, "sonification-exports", n.writer.Topic)
}
