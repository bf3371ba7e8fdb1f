package device

import (
	"context"
	"strings"
	"testing"

	"github.com/itohio/trainspeed/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEvents(t *testing.T) {
	input := strings.Join([]string{
		"READY: SCALE:1:148 DISTANCE_0:100mm DISTANCE_1:100mm INTER_TRAIN_DELAY:3000ms MEASURING:ACCELERATION_VELOCITY TRIGGERS:3_GATES",
		"",
		"STATUS: Waiting for train.",
		"garbage from a reset",
		"STATUS: Timing train.",
		"STATUS: Calculating.",
		"VA_DATA: 1:148 100mm 100mm 500ms 200ms 300ms 0.40m/s 0.50m/s 0.33m/s -0.67m/s/s 213.12km/h -355.20km/h/s 132.43mph -220.71mph/s",
		"ERROR: Sensors not clear.",
	}, "\r\n")

	events := make(chan report.Event, 10)
	readEvents(context.Background(), strings.NewReader(input), events)
	close(events)

	var kinds []report.Kind
	for ev := range events {
		assert.False(t, ev.Time.IsZero())
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []report.Kind{
		report.KindReady,
		report.KindStatus,
		report.KindStatus,
		report.KindStatus,
		report.KindReading,
		report.KindError,
	}, kinds)
}

func TestReadEvents_DropsWhenFull(t *testing.T) {
	input := "STATUS: Waiting for train.\nSTATUS: Timing train.\nSTATUS: Calculating.\n"

	events := make(chan report.Event, 1)
	readEvents(context.Background(), strings.NewReader(input), events)

	require.Len(t, events, 1)
	ev := <-events
	assert.Equal(t, "Waiting for train", ev.Message)
}

func TestReadEvents_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := make(chan report.Event, 10)
	readEvents(ctx, strings.NewReader("STATUS: Waiting for train.\n"), events)
	assert.Empty(t, events)
}

func TestNew(t *testing.T) {
	dev := New("COM3", 115200, 100)
	assert.NotNil(t, dev)
	assert.Equal(t, "COM3", dev.port)
	assert.Equal(t, 115200, dev.baudRate)
	assert.Equal(t, 100, cap(dev.events))
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("COM3", 0, 0)
	assert.NotNil(t, dev)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, cap(dev.events))
}

func TestSerial_ConnectMissingPort(t *testing.T) {
	dev := New("/dev/trainspeed-does-not-exist", 0, 0)
	assert.Error(t, dev.Connect())
	assert.False(t, dev.IsConnected())
	assert.NoError(t, dev.Close())
}
