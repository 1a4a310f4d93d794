package events

import (
	"context"

	"github.com/scaleworks/libralog/internal/model"
)

// TopicPrefix is the subject namespace for scale events. Each event is
// published on TopicPrefix + "." + device_id, so consumers can subscribe to
// a single scale or to TopicAll.
const (
	TopicPrefix = "libra.events"
	TopicAll    = "libra.events.>"
)

// DeviceTopic returns the subject for one device's event stream.
func DeviceTopic(deviceID string) string {
	return TopicPrefix + "." + deviceID
}

// NewEvent is the payload published for every newly detected event.
type NewEvent struct {
	Event *model.Event `json:"event"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
