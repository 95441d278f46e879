package endpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWSBindConnectExchangesTextFramedPacks(t *testing.T) {
	const addr = "127.0.0.1:18791"

	server := NewWS()
	received := make(chan string, 1)
	ok, err := server.Bind(addr, func(conn Conn) ReceiveFunc {
		return func(pack string) {
			received <- pack
			conn.Send("ack:" + pack)
		}
	})
	require.NoError(t, err)
	require.True(t, ok)
	defer server.Close()

	client := NewWS()
	clientReceived := make(chan string, 1)

	var clientConn Conn
	require.Eventually(t, func() bool {
		conn, dialErr := client.Connect("ws://"+addr+"/", func(conn Conn) ReceiveFunc {
			return func(pack string) { clientReceived <- pack }
		})
		if dialErr != nil || conn == nil {
			return false
		}
		clientConn = conn
		return true
	}, 2*time.Second, 20*time.Millisecond)
	defer client.Close()

	require.NotNil(t, clientConn)
	require.True(t, clientConn.Send("ping"))

	select {
	case pack := <-received:
		assert.Equal(t, "ping", pack)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the pack")
	}

	select {
	case pack := <-clientReceived:
		assert.Equal(t, "ack:ping", pack)
	case <-time.After(2 * time.Second):
		t.Fatal("client never received the ack")
	}
}
