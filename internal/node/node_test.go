package node

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brypt-community/brypt-node/internal/await"
	"github.com/brypt-community/brypt-node/internal/config"
	"github.com/brypt-community/brypt-node/internal/logger"
	"github.com/brypt-community/brypt-node/internal/route"
	"github.com/brypt-community/brypt-node/internal/wire"
)

func testLogger() logger.Logger {
	return logger.NewLogger(io.Discard, logger.FatalLevel)
}

type echoHandler struct{}

func (echoHandler) OnFetchServices(route.ServiceProvider) bool { return true }

func (echoHandler) OnMessage(parcel *wire.ApplicationParcel, next *route.Next) bool {
	return next.Respond(append([]byte("echo:"), parcel.Payload...), 0)
}

func newTestNode(t *testing.T) *Node {
	t.Helper()
	n, err := New(&config.Config{}, testLogger())
	require.NoError(t, err)
	return n
}

func TestNodeHandshakeRegistersBothPeers(t *testing.T) {
	server := newTestNode(t)
	client := newTestNode(t)

	require.NoError(t, server.Bind("loopback", "node-handshake"))
	require.NoError(t, client.Connect("loopback", "node-handshake"))

	require.Eventually(t, func() bool {
		return server.Peers().Len() == 1 && client.Peers().Len() == 1
	}, time.Second, time.Millisecond)

	serverSideID := server.Peers().Snapshot()[0]
	clientSideID := client.Peers().Snapshot()[0]
	assert.True(t, serverSideID.Equal(client.Identity().NodeID()))
	assert.True(t, clientSideID.Equal(server.Identity().NodeID()))
}

func TestNodeRegistersInformationHandlerByDefault(t *testing.T) {
	server := newTestNode(t)
	client := newTestNode(t)

	require.True(t, server.Router().Init())

	require.NoError(t, server.Bind("loopback", "node-information"))
	require.NoError(t, client.Connect("loopback", "node-information"))

	require.Eventually(t, func() bool {
		return server.Peers().Len() == 1 && client.Peers().Len() == 1
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Run(ctx)
	go client.Run(ctx)

	peerID := client.Peers().Snapshot()[0]
	proxy, ok := client.Peers().Get(peerID)
	require.True(t, ok)

	endpointID := "loopback:node-information"
	responses := make(chan await.Response, 1)
	builder := wire.NewApplicationBuilder().
		WithSource(client.Identity().NodeID()).
		WithDestination(wire.Destination{Type: wire.DestinationNode, ID: peerID}).
		WithRoute(route.InformationPath).
		WithPayload(nil)

	_, err := proxy.Request(endpointID, builder, time.Second, func(resp await.Response) {
		responses <- resp
	}, func(error) {})
	require.NoError(t, err)

	select {
	case resp := <-responses:
		var body map[string]any
		require.NoError(t, json.Unmarshal(resp.Payload, &body))
		assert.Contains(t, body, "cluster")
		assert.Contains(t, body, "neighbor_count")
		assert.Contains(t, body, "designation")
		assert.Contains(t, body, "protocols")
		assert.Contains(t, body, "update_timestamp")
	case <-time.After(2 * time.Second):
		t.Fatal("never received information response")
	}
}

func TestNodeRoutesApplicationRequestToHandlerAndBack(t *testing.T) {
	server := newTestNode(t)
	client := newTestNode(t)

	require.NoError(t, server.Router().Register("/echo", echoHandler{}))
	require.True(t, server.Router().Init())

	require.NoError(t, server.Bind("loopback", "node-echo"))
	require.NoError(t, client.Connect("loopback", "node-echo"))

	require.Eventually(t, func() bool {
		return server.Peers().Len() == 1 && client.Peers().Len() == 1
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Run(ctx)
	go client.Run(ctx)

	peerID := client.Peers().Snapshot()[0]
	proxy, ok := client.Peers().Get(peerID)
	require.True(t, ok)

	endpointID := "loopback:node-echo"
	responses := make(chan await.Response, 1)
	builder := wire.NewApplicationBuilder().
		WithSource(client.Identity().NodeID()).
		WithDestination(wire.Destination{Type: wire.DestinationNode, ID: peerID}).
		WithRoute("/echo").
		WithPayload([]byte("ping"))

	_, err := proxy.Request(endpointID, builder, time.Second, func(resp await.Response) {
		responses <- resp
	}, func(error) {})
	require.NoError(t, err)

	select {
	case resp := <-responses:
		assert.Equal(t, "echo:ping", string(resp.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("never received echoed response")
	}
}
