package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversColorChanges(t *testing.T) {
	bus := New()
	defer bus.Close()

	got := make(chan ColorChanged, 1)
	unsub := bus.OnColor(func(e ColorChanged) { got <- e })
	defer unsub()

	bus.PublishColor(ColorChanged{Requested: [3]int{999, -10, 0}, Applied: [3]int{255, 0, 0}})

	select {
	case e := <-got:
		assert.Equal(t, [3]int{999, -10, 0}, e.Requested)
		assert.Equal(t, [3]int{255, 0, 0}, e.Applied)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestBusKeepsTypesApart(t *testing.T) {
	bus := New()
	defer bus.Close()

	colors := make(chan ColorChanged, 1)
	stops := make(chan DeviceStopped, 1)
	defer bus.OnColor(func(e ColorChanged) { colors <- e })()
	defer bus.OnStopped(func(e DeviceStopped) { stops <- e })()

	bus.PublishStopped(DeviceStopped{Timestamp: time.Now()})

	select {
	case <-stops:
	case <-time.After(time.Second):
		t.Fatal("no stop event delivered")
	}
	require.Never(t, func() bool { return len(colors) > 0 }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestNilBusIsSafe(t *testing.T) {
	var bus *Bus
	bus.PublishColor(ColorChanged{})
	bus.PublishStopped(DeviceStopped{})
	bus.OnColor(func(ColorChanged) {})()
	assert.NoError(t, bus.Close())
}
