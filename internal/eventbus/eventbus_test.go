package eventbus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type packetProgress struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

func TestPublish_DeliversToSubscriber(t *testing.T) {
	bus := New(nil)
	sub := bus.Subscribe()

	err := bus.Publish(Event{Type: "packet-progress", Data: packetProgress{SessionID: "s1", Status: "pending"}})
	require.NoError(t, err)

	frame := <-sub.Frames()
	s := string(frame)
	assert.True(t, strings.HasPrefix(s, "event: packet-progress\n"))
	assert.Contains(t, s, `"sessionId":"s1"`)
	assert.Contains(t, s, `"type":"packet-progress"`)
	assert.True(t, strings.HasSuffix(s, "\n\n"))
}

func TestPublish_FansOutToAllSubscribers(t *testing.T) {
	bus := New(nil)
	a, b := bus.Subscribe(), bus.Subscribe()

	require.NoError(t, bus.Publish(Event{Type: "epoch", Data: map[string]int{"tick": 1}}))

	_, okA := <-a.Frames()
	_, okB := <-b.Frames()
	assert.True(t, okA)
	assert.True(t, okB)
}

func TestUnsubscribe_StopsCounting(t *testing.T) {
	bus := New(nil)
	sub := bus.Subscribe()
	assert.Equal(t, 1, bus.Count())

	bus.Unsubscribe(sub)
	assert.Equal(t, 0, bus.Count())
}

func TestPublish_DropsFrameWhenQueueFull(t *testing.T) {
	drops := 0
	bus := New(func() { drops++ })
	sub := bus.Subscribe()

	for i := 0; i < queueCapacity+5; i++ {
		require.NoError(t, bus.Publish(Event{Type: "tick", Data: map[string]int{"i": i}}))
	}

	assert.Greater(t, drops, 0)
	assert.Len(t, sub.frames, queueCapacity)
}

func TestEncodeFrame_DefaultsEventType(t *testing.T) {
	frame := EncodeFrame("", []byte(`{"a":1}`))
	assert.Equal(t, "event: message\ndata: {\"a\":1}\n\n", string(frame))
}
