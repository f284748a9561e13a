package debugirc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		command string
		data    string
	}{
		{
			name:    "command with data",
			input:   "NICK alice",
			command: "NICK",
			data:    "alice",
		},
		{
			name:    "command alone",
			input:   "LIST",
			command: "LIST",
			data:    "",
		},
		{
			name:    "data keeps inner spaces",
			input:   "USER alice 0 * :Alice",
			command: "USER",
			data:    "alice 0 * :Alice",
		},
		{
			name:    "trailing space yields empty data",
			input:   "NICK ",
			command: "NICK",
			data:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, data := splitCommand(tt.input)
			assert.Equal(t, tt.command, command)
			assert.Equal(t, tt.data, data)
		})
	}
}

func TestSplitChannelMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		channel string
		message string
	}{
		{
			name:    "channel and text",
			input:   "#debug :hello world",
			channel: "#debug",
			message: "hello world",
		},
		{
			name:    "channel only",
			input:   "#debug",
			channel: "#debug",
			message: "",
		},
		{
			name:    "channel with untrailed remainder",
			input:   "#debug hello",
			channel: "#debug",
			message: "",
		},
		{
			name:    "text keeps later colons",
			input:   "#debug :a :b :c",
			channel: "#debug",
			message: "a :b :c",
		},
		{
			name:    "colon found after extra token",
			input:   "#debug extra :payload",
			channel: "#debug",
			message: "payload",
		},
		{
			name:    "missing hash prefix",
			input:   "debug :hello",
			channel: "",
			message: "",
		},
		{
			name:    "empty input",
			input:   "",
			channel: "",
			message: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			channel, message := splitChannelMessage(tt.input)
			assert.Equal(t, tt.channel, channel)
			assert.Equal(t, tt.message, message)
		})
	}
}
