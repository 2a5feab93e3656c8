package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHostResolver_FormatsNodeID(t *testing.T) {
	assert.Equal(t, "sagsin-node-7", DefaultHostResolver(7))
}

func TestHandle_LastHopDoesNotForward(t *testing.T) {
	s := New(1, 0, func(int32) string { return "127.0.0.1" })
	client, server := net.Pipe()

	done := make(chan struct{})
	go func() { s.handle(server); close(done) }()

	payload, err := json.Marshal(Frame{SessionID: "s1", Path: []int32{0, 1}, Idx: 1})
	require.NoError(t, err)
	client.Write(payload)
	client.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handle did not return for a last-hop frame")
	}
}

func TestHandle_ForwardsToNextHop(t *testing.T) {
	capturer, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer capturer.Close()
	capPort := capturer.Addr().(*net.TCPAddr).Port

	captured := make(chan Frame, 1)
	go func() {
		conn, err := capturer.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		var f Frame
		_ = json.Unmarshal(data, &f)
		captured <- f
	}()

	s := New(1, capPort, func(int32) string { return "127.0.0.1" })
	client, server := net.Pipe()
	go s.handle(server)

	payload, err := json.Marshal(Frame{SessionID: "sess", Path: []int32{0, 1, 2}, Idx: 0, Message: "hi"})
	require.NoError(t, err)
	client.Write(payload)
	client.Close()

	select {
	case f := <-captured:
		assert.Equal(t, "sess", f.SessionID)
		assert.Equal(t, 1, f.Idx)
		assert.Equal(t, "hi", f.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forwarded frame")
	}
}

func TestHandle_MalformedFrameIsIgnored(t *testing.T) {
	s := New(1, 0, nil)
	client, server := net.Pipe()

	done := make(chan struct{})
	go func() { s.handle(server); close(done) }()

	client.Write([]byte("not json"))
	client.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handle did not return for a malformed frame")
	}
}

func TestListenAndServe_StopsOnContextCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	s := New(1, port, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe(ctx) }()
	time.Sleep(30 * time.Millisecond)

	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	require.NoError(t, err)
	conn.Close()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("ListenAndServe did not stop after context cancellation")
	}
}
