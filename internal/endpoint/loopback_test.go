package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackBindConnectExchangesPacks(t *testing.T) {
	server := NewLoopback()
	var serverReceived []string
	ok, err := server.Bind("node-a", func(conn Conn) ReceiveFunc {
		return func(pack string) {
			serverReceived = append(serverReceived, pack)
			conn.Send("ack:" + pack)
		}
	})
	require.NoError(t, err)
	require.True(t, ok)
	defer server.Close()

	client := NewLoopback()
	var clientReceived []string
	clientConn, err := client.Connect("node-a", func(conn Conn) ReceiveFunc {
		return func(pack string) {
			clientReceived = append(clientReceived, pack)
		}
	})
	require.NoError(t, err)
	require.NotNil(t, clientConn)
	assert.True(t, clientConn.Send("hello"))
	assert.Equal(t, []string{"hello"}, serverReceived)
	assert.Equal(t, []string{"ack:hello"}, clientReceived)
}

func TestLoopbackConnectFailsWithoutListener(t *testing.T) {
	client := NewLoopback()
	conn, err := client.Connect("nowhere", func(Conn) ReceiveFunc { return func(string) {} })
	assert.NoError(t, err)
	assert.Nil(t, conn)
}

func TestLoopbackBindTwiceFails(t *testing.T) {
	l := NewLoopback()
	ok, err := l.Bind("node-b", func(Conn) ReceiveFunc { return func(string) {} })
	require.True(t, ok)
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Bind("node-c", func(Conn) ReceiveFunc { return func(string) {} })
	assert.ErrorIs(t, err, ErrAlreadyBound)
}
