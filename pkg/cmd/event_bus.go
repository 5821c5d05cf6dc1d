package cmd

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/waflow/waflow/pkg/channels/gochannel"
	"github.com/waflow/waflow/pkg/eventbus"
)

// NewEventBus creates the mutation event bus. Only the in-process GoChannel
// transport is supported; the editor and its autosaver live in one process.
func NewEventBus(logger *slog.Logger) eventbus.EventBus {
	pub, sub := gochannel.CreateChannel(watermill.NewSlogLogger(logger))

	return eventbus.NewWatermillEventBus(pub, sub)
}
