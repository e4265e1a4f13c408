package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWritesOneJSONLine(t *testing.T) {
	var buf bytes.Buffer
	sink := newSink(&buf)

	body, err := json.Marshal(BookingSnapshot{
		BookingID:       9,
		Student:         "kim@uni.ac.uk",
		RoomNumber:      "101",
		Accommodation:   "Maple House",
		DateBooked:      "2026-03-01T10:00:00Z",
		OriginalPrice:   "100.00",
		DiscountApplied: "20.00",
		FinalPrice:      "80.00",
	})
	require.NoError(t, err)
	require.NoError(t, record(sink, body))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var got map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &got))
	assert.Equal(t, "booking created", got["msg"])
	assert.Equal(t, "80.00", got["final_price"])
	assert.Equal(t, float64(9), got["booking_id"])
}

func TestRecordRejectsMalformed(t *testing.T) {
	var buf bytes.Buffer
	sink := newSink(&buf)

	assert.Error(t, record(sink, []byte("{not json")))
	assert.Error(t, record(sink, []byte(`{"student":"x"}`)))
	assert.Zero(t, buf.Len())
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
	assert.True(t, sleep(context.Background(), time.Millisecond))
}
