// Package events carries LED state changes from the controller to the
// status feed and metrics.
package events

import (
	"time"

	"github.com/kelindar/event"
)

// Event type constants for kelindar/event.
const (
	TypeColorChanged uint32 = iota + 1
	TypeDeviceStopped
)

// ColorChanged is published after all three channels were written.
type ColorChanged struct {
	Requested [3]int    `json:"requested"`
	Applied   [3]int    `json:"applied"`
	Duty      [3]uint8  `json:"duty"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for ColorChanged.
func (e ColorChanged) Type() uint32 { return TypeColorChanged }

// DeviceStopped is published once the controller released the hardware.
type DeviceStopped struct {
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for DeviceStopped.
func (e DeviceStopped) Type() uint32 { return TypeDeviceStopped }

// Bus wraps a kelindar/event dispatcher. A nil *Bus drops everything.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// PublishColor announces a color change.
func (b *Bus) PublishColor(e ColorChanged) {
	if b == nil {
		return
	}
	event.Publish(b.dispatcher, e)
}

// PublishStopped announces that the device was stopped.
func (b *Bus) PublishStopped(e DeviceStopped) {
	if b == nil {
		return
	}
	event.Publish(b.dispatcher, e)
}

// OnColor subscribes to color changes and returns the unsubscribe func.
func (b *Bus) OnColor(h func(ColorChanged)) func() {
	if b == nil {
		return func() {}
	}
	return event.Subscribe(b.dispatcher, h)
}

// OnStopped subscribes to stop events and returns the unsubscribe func.
func (b *Bus) OnStopped(h func(DeviceStopped)) func() {
	if b == nil {
		return func() {}
	}
	return event.Subscribe(b.dispatcher, h)
}

// Close stops delivery to all subscribers.
func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	return b.dispatcher.Close()
}
