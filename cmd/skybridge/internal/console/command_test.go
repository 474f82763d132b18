package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/skybridge/pkg/bus"
)

func TestNewConsoleCommand(t *testing.T) {
	cmd := NewConsoleCommand()

	require.NotNil(t, cmd)

	assert.Equal(t, "console", cmd.Use)
	assert.True(t, cmd.HasExample())
	assert.NotNil(t, cmd.RunE)
	assert.NotNil(t, cmd.Flags().Lookup("debug"))
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want *bus.OutboundMessage
	}{
		{"", nil},
		{"   ", nil},
		{"hello there", &bus.OutboundMessage{Channel: "skype", Text: "hello there"}},
		{"/forward alice IRC hi all", &bus.OutboundMessage{Channel: "skype", Sender: "alice", Source: "IRC", Text: "hi all"}},
		{"/raw <b>bold</b>", &bus.OutboundMessage{Channel: "skype", Text: "<b>bold</b>", Raw: true}},
	}

	for _, tt := range tests {
		got, err := parseLine(tt.line, "skype")
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestParseLine_Errors(t *testing.T) {
	_, err := parseLine("/quit", "skype")
	assert.ErrorIs(t, err, errQuit)

	_, err = parseLine("/forward alice", "skype")
	assert.ErrorContains(t, err, "usage")

	_, err = parseLine("/raw", "skype")
	assert.ErrorContains(t, err, "usage")

	_, err = parseLine("/nope", "skype")
	assert.ErrorContains(t, err, "unknown command")
}

func TestFormatInbound(t *testing.T) {
	assert.Equal(t, "<alice> <hi>", formatInbound(bus.InboundMessage{Sender: "alice", Text: "<hi>"}))
}
