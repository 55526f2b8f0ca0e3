package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"arbscan/internal/model"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testWsServer is a minimal WebSocket echo server for client tests. It
// records received messages and pushes queued payloads to the client.
type testWsServer struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	received [][]byte
	outgoing chan []byte
}

func newTestWsServer(t *testing.T) *testWsServer {
	t.Helper()
	ts := &testWsServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		outgoing: make(chan []byte, 16),
	}
	ts.server = httptest.NewServer(http.HandlerFunc(ts.handle))
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testWsServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := ts.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	go func() {
		for msg := range ts.outgoing {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ts.mu.Lock()
		ts.received = append(ts.received, data)
		ts.mu.Unlock()
	}
}

func (ts *testWsServer) url() string {
	return "ws" + strings.TrimPrefix(ts.server.URL, "http")
}

func (ts *testWsServer) receivedMessages() [][]byte {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := make([][]byte, len(ts.received))
	copy(out, ts.received)
	return out
}

func passthroughHandler(raw []byte, books chan<- model.TopOfBook) error {
	books <- model.TopOfBook{
		Venue:     model.VenueKraken,
		Pair:      model.CanonicalPair{Base: "BTC", Quote: "USD"},
		TsLocalMs: time.Now().UnixMilli(),
		BidPx:     decimal.NewFromInt(int64(len(raw))),
	}
	return nil
}

// Test_NewClient_Validation tests config validation
func Test_NewClient_Validation(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Handler: passthroughHandler})
	require.Error(t, err, "Should reject a missing endpoint")

	_, err = NewClient(context.Background(), Config{Endpoint: "ws://example.test"})
	require.Error(t, err, "Should reject a missing handler")
}

// Test_Client_SubscribeAndReceive tests the full connect-subscribe-receive
// lifecycle against a local server
func Test_Client_SubscribeAndReceive(t *testing.T) {
	ts := newTestWsServer(t)

	subscription := []byte(`{"method":"subscribe","params":{"channel":"ticker"}}`)
	client, err := NewClient(context.Background(), Config{
		Endpoint:             ts.url(),
		Handler:              passthroughHandler,
		SubscriptionMessages: [][]byte{subscription},
	})
	require.NoError(t, err)
	defer client.Close()

	// The subscription message arrives at the server.
	require.Eventually(t, func() bool {
		return len(ts.receivedMessages()) == 1
	}, 2*time.Second, 10*time.Millisecond, "Server should receive the subscription")
	assert.Equal(t, subscription, ts.receivedMessages()[0])

	// A pushed message flows through the handler onto BookChan.
	ts.outgoing <- []byte(`{"channel":"ticker"}`)

	select {
	case tob := <-client.BookChan:
		assert.Equal(t, model.VenueKraken, tob.Venue)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a snapshot on BookChan")
	}
}

// Test_Client_HandlerErrorsTolerated verifies one bad message does not
// kill the connection
func Test_Client_HandlerErrorsTolerated(t *testing.T) {
	ts := newTestWsServer(t)

	handler := func(raw []byte, books chan<- model.TopOfBook) error {
		if strings.Contains(string(raw), "bad") {
			return errors.New("unparseable payload")
		}
		return passthroughHandler(raw, books)
	}

	client, err := NewClient(context.Background(), Config{
		Endpoint: ts.url(),
		Handler:  handler,
	})
	require.NoError(t, err)
	defer client.Close()

	ts.outgoing <- []byte(`bad message`)
	ts.outgoing <- []byte(`good message`)

	select {
	case <-client.BookChan:
	case <-time.After(2 * time.Second):
		t.Fatal("the message after a handler error should still be processed")
	}
}

// Test_Client_ServerClose tests disconnect signalling
func Test_Client_ServerClose(t *testing.T) {
	ts := newTestWsServer(t)

	client, err := NewClient(context.Background(), Config{
		Endpoint: ts.url(),
		Handler:  passthroughHandler,
	})
	require.NoError(t, err)
	defer client.Close()

	close(ts.outgoing) // server sends a close frame and hangs up

	select {
	case <-client.DisconnectChan():
	case <-time.After(2 * time.Second):
		t.Fatal("DisconnectChan should close when the server hangs up")
	}

	// BookChan drains and closes after disconnect.
	for range client.BookChan {
	}
}

// Test_Client_ContextCancel tests shutdown via context
func Test_Client_ContextCancel(t *testing.T) {
	ts := newTestWsServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	client, err := NewClient(ctx, Config{
		Endpoint: ts.url(),
		Handler:  passthroughHandler,
	})
	require.NoError(t, err)

	cancel()

	select {
	case <-client.DisconnectChan():
	case <-time.After(2 * time.Second):
		t.Fatal("Cancelling the context should shut the client down")
	}
}

// Test_Client_CloseIdempotent verifies repeated Close calls are safe
func Test_Client_CloseIdempotent(t *testing.T) {
	ts := newTestWsServer(t)

	client, err := NewClient(context.Background(), Config{
		Endpoint: ts.url(),
		Handler:  passthroughHandler,
	})
	require.NoError(t, err)

	client.Close()
	client.Close()
	client.Close()
}

// Test_Client_DialFailure tests connection errors
func Test_Client_DialFailure(t *testing.T) {
	_, err := NewClient(context.Background(), Config{
		Endpoint: "ws://127.0.0.1:1", // nothing listens here
		Handler:  passthroughHandler,
	})
	require.Error(t, err, "Dialing a dead endpoint should fail construction")
}
