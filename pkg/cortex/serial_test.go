package cortex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseData(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Sample
		wantErr bool
	}{
		{
			name: "valid line",
			line: "DATA,1234,-12.345",
			want: Sample{Elapsed: 1234 * time.Millisecond, Value: -12.345},
		},
		{
			name: "zero elapsed",
			line: "DATA,0,0.000",
			want: Sample{Elapsed: 0, Value: 0},
		},
		{
			name: "positive value",
			line: "DATA,4,37.125",
			want: Sample{Elapsed: 4 * time.Millisecond, Value: 37.125},
		},
		{
			name:    "invalid - missing value",
			line:    "DATA,1234",
			wantErr: true,
		},
		{
			name:    "invalid - too many fields",
			line:    "DATA,1234,1.0,2.0",
			wantErr: true,
		},
		{
			name:    "invalid - negative elapsed",
			line:    "DATA,-4,1.0",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric elapsed",
			line:    "DATA,abc,1.0",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric value",
			line:    "DATA,4,abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseData(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want.Elapsed, got.Elapsed)
				assert.Equal(t, tt.want.Value, got.Value)
			}
		})
	}
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKind EventKind
		wantText string
	}{
		{"status line", "STATUS:Stopped", EventStatus, "Stopped"},
		{"error line", "ERROR:Unknown command", EventError, "Unknown command"},
		{"ready marker", "CORTEXKEY_READY", EventReady, "CORTEXKEY_READY"},
		{"banner", "========== TEST STOPPED ==========", EventBanner, "========== TEST STOPPED =========="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make(chan Sample, 1)
			events := make(chan Event, 1)

			dispatch(tt.line, time.Now(), samples, events)

			require.Len(t, events, 1)
			ev := <-events
			assert.Equal(t, tt.wantKind, ev.Kind)
			assert.Equal(t, tt.wantText, ev.Text)
			assert.Empty(t, samples)
		})
	}
}

func TestDispatch_DataLine(t *testing.T) {
	samples := make(chan Sample, 1)
	events := make(chan Event, 1)

	dispatch("DATA,8,1.500", time.Now(), samples, events)

	require.Len(t, samples, 1)
	s := <-samples
	assert.Equal(t, 8*time.Millisecond, s.Elapsed)
	assert.Equal(t, 1.5, s.Value)
	assert.Empty(t, events)
}

func TestDispatch_MalformedDataDropped(t *testing.T) {
	samples := make(chan Sample, 1)
	events := make(chan Event, 1)

	dispatch("DATA,oops", time.Now(), samples, events)

	assert.Empty(t, samples)
	assert.Empty(t, events)
}

func TestNew(t *testing.T) {
	dev := New("COM3", 115200, 100)
	assert.NotNil(t, dev)
	assert.Equal(t, "COM3", dev.port)
	assert.Equal(t, 115200, dev.baudRate)
	assert.Equal(t, 100, dev.bufSize)
	assert.NotNil(t, dev.samples)
	assert.NotNil(t, dev.events)
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("COM3", 0, 0)
	assert.NotNil(t, dev)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_SendNotConnected(t *testing.T) {
	dev := New("COM3", 0, 0)
	err := dev.Send(CmdStart)
	assert.Error(t, err)
}
