package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	closed bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error { return nil }
func (f *fakeConn) ReadMessage() (int, []byte, error) { select {} }
func (f *fakeConn) Close() error { f.closed = true; return nil }
func (f *fakeConn) SetReadDeadline(t time.Time) error { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }
func (f *fakeConn) SetReadLimit(limit int64) {}
func (f *fakeConn) SetPongHandler(h func(string) error) {}
func (f *fakeConn) RemoteAddr() string { return "127.0.0.1:12345" }

func receiveMessage(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.send:
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func registerClient(t *testing.T, hub *Hub) *Client {
	t.Helper()
	client := NewClientWithConnection(hub, &fakeConn{}, nil)
	hub.Register(client)

	welcome := receiveMessage(t, client)
	require.Equal(t, TypeConnection, welcome["type"])
	return client
}

func TestHub_RegisterSendsWelcome(t *testing.T) {
	hub := startHub(t)
	client := NewClientWithConnection(hub, &fakeConn{}, nil)
	hub.Register(client)

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeConnection, msg["type"])

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, client.id, data["client_id"])
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := startHub(t)
	first := registerClient(t, hub)
	second := registerClient(t, hub)
	require.Equal(t, 2, hub.ClientCount())

	hub.BroadcastStatus("ready", "dataset loaded")

	for _, client := range []*Client{first, second} {
		msg := receiveMessage(t, client)
		assert.Equal(t, TypeStatus, msg["type"])
		data := msg["data"].(map[string]interface{})
		assert.Equal(t, "ready", data["status"])
		assert.Equal(t, "dataset loaded", data["message"])
	}
}

func TestHub_BroadcastDatasetLoaded(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub)

	hub.BroadcastDatasetLoaded("sample", 480, 20, 35)

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeDatasetLoaded, msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "sample", data["source"])
	assert.Equal(t, float64(480), data["rows_loaded"])
	assert.Equal(t, float64(20), data["rows_dropped"])
	assert.Equal(t, float64(35), data["issues_logged"])
	assert.NotEmpty(t, msg["timestamp"])
}

func TestHub_BroadcastCleaningProgress(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub)

	hub.BroadcastCleaningProgress("cleaning", 50, 200, "normalizing cities")

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeCleaningProgress, msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, float64(50), data["current"])
	assert.Equal(t, float64(200), data["total"])
	assert.Equal(t, float64(25), data["percentage"])
}

func TestHub_BroadcastSimulationCompleteCarriesTraceID(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub)

	hub.BroadcastSimulationComplete("eid-flash-sale", 1250.75, "trace-abc")

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeSimulationComplete, msg["type"])
	assert.Equal(t, "trace-abc", msg["trace_id"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "eid-flash-sale", data["scenario"])
	assert.Equal(t, 1250.75, data["revenue_delta"])
}

func TestHub_BroadcastError(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub)

	hub.BroadcastError("DATASET_NOT_FOUND", "no dataset loaded", true)

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeError, msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "DATASET_NOT_FOUND", data["code"])
	assert.Equal(t, true, data["recoverable"])
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub)

	hub.unregister <- client

	select {
	case _, ok := <-client.send:
		assert.False(t, ok, "send channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_StopIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	registerClient(t, hub)

	hub.Stop()
	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())
}
