package connection

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRoutesByTopic(t *testing.T) {
	t.Parallel()

	l := NewLocal("local")
	var got []string
	require.NoError(t, l.Register("kitchen/led", func(msg string) { got = append(got, "a:"+msg) }))
	require.NoError(t, l.Register("kitchen/led", func(msg string) { got = append(got, "b:"+msg) }))
	require.NoError(t, l.Register("hall/led", func(msg string) { got = append(got, "hall:"+msg) }))

	l.Publish("ON", "kitchen/led")
	assert.Equal(t, []string{"a:ON", "b:ON"}, got)

	last, ok := l.Last("kitchen/led")
	require.True(t, ok)
	assert.Equal(t, "ON", last)

	_, ok = l.Last("nobody/listens")
	assert.False(t, ok)
}

func TestArgumentText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DIM", ArgumentText([]interface{}{"DIM"}))
	assert.Equal(t, "120,50,100", ArgumentText([]interface{}{int32(120), int32(50), int32(100)}))
	assert.Equal(t, "12.5", ArgumentText([]interface{}{float32(12.5)}))
	assert.Equal(t, "ON", ArgumentText([]interface{}{true}))
	assert.Equal(t, "", ArgumentText(nil))
}

func TestAddress(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/kitchen/led", Address("kitchen/led"))
	assert.Equal(t, "/kitchen/led", Address("/kitchen/led"))
}

func TestOSCReceivesCommands(t *testing.T) {
	t.Parallel()

	o := NewOSC("osc", "127.0.0.1:0", "", 0)

	var (
		mu  sync.Mutex
		got string
	)
	require.NoError(t, o.Register("kitchen/led", func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		got = msg
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, o.Start(ctx))

	addr, ok := o.LocalAddr().(*net.UDPAddr)
	require.True(t, ok)
	client := osc.NewClient("127.0.0.1", addr.Port)

	require.Eventually(t, func() bool {
		// UDP may drop the first datagrams while the server goroutine starts
		_ = client.Send(osc.NewMessage("/kitchen/led", "STOP"))
		mu.Lock()
		defer mu.Unlock()
		return got == "STOP"
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, o.Close())
}
