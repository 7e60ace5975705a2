package server_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/relaychat/internal/server"
	"github.com/Tyrowin/relaychat/internal/testhelpers"
)

const testOrigin = "http://localhost:8080"

func startGateway(t *testing.T, room *server.Room, origins string) *httptest.Server {
	t.Helper()
	cfg := server.DefaultConfig()
	cfg.AllowedOrigins = origins
	gateway := server.NewGateway(room, cfg, testhelpers.Logger())
	s := httptest.NewServer(server.SetupRoutes(gateway))
	t.Cleanup(s.Close)
	return s
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
}

func dialWS(t *testing.T, s *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}
	dialer := websocket.Dialer{HandshakeTimeout: testhelpers.DefaultTimeout}
	conn, resp, err := dialer.Dial(wsURL(s), headers)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

// readWS reads frames until want bytes have arrived.
func readWS(t *testing.T, conn *websocket.Conn, want string) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testhelpers.DefaultTimeout)))
	var got string
	for len(got) < len(want) {
		messageType, data, err := conn.ReadMessage()
		require.NoError(t, err, "received so far: %q", got)
		require.Equal(t, websocket.BinaryMessage, messageType)
		got += string(data)
	}
	require.Equal(t, want, got)
}

func TestHealthHandler(t *testing.T) {
	req := require.New(t)
	room := testhelpers.StartRoom(t)
	s := startGateway(t, room, testOrigin)

	resp, err := http.Get(s.URL + "/")
	req.NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("text/plain", resp.Header.Get("Content-Type"))
	req.Equal("Relay is running! 0 participants connected", string(body))
}

func TestWebSocketHandler_RejectsNonGet(t *testing.T) {
	room := testhelpers.StartRoom(t)
	s := startGateway(t, room, testOrigin)

	resp, err := http.Post(s.URL+"/ws", "text/plain", strings.NewReader("hi"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWebSocketHandler_OriginPolicy(t *testing.T) {
	tests := []struct {
		name    string
		allowed string
		origin  string
		ok      bool
	}{
		{name: "allowed origin", allowed: testOrigin, origin: testOrigin, ok: true},
		{name: "case insensitive", allowed: testOrigin, origin: "HTTP://LOCALHOST:8080", ok: true},
		{name: "disallowed origin", allowed: testOrigin, origin: "http://evil.example", ok: false},
		{name: "missing origin", allowed: testOrigin, origin: "", ok: false},
		{name: "wildcard", allowed: "*", origin: "http://anything.example", ok: true},
		{name: "invalid entries ignored", allowed: "not-a-url, http://ok.example", origin: "http://ok.example", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := testhelpers.StartRoom(t)
			s := startGateway(t, room, tt.allowed)

			_, resp, err := dialWS(t, s, tt.origin)
			if tt.ok {
				require.NoError(t, err)
				testhelpers.WaitForMembers(t, room, 1)
				return
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.Equal(t, http.StatusForbidden, resp.StatusCode)
			require.Zero(t, room.Len())
		})
	}
}

func TestGateway_SharesRoomWithTCP(t *testing.T) {
	room := testhelpers.StartRoom(t)
	acceptor := testhelpers.StartRelay(t, room)
	s := startGateway(t, room, testOrigin)

	// Given a TCP participant
	tcp := testhelpers.Dial(t, acceptor.Addr().String())
	testhelpers.ExpectStream(t, tcp, "New user connected, total of 1!\n")

	// When a WebSocket participant joins
	ws, _, err := dialWS(t, s, testOrigin)
	require.NoError(t, err)

	// Then it is replayed the history and both see the announcement
	readWS(t, ws, "New user connected, total of 1!\nNew user connected, total of 2!\n")
	testhelpers.ExpectStream(t, tcp, "New user connected, total of 2!\n")

	// When the WebSocket side speaks, the TCP side hears it
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("from the browser\n")))
	testhelpers.ExpectStream(t, tcp, "from the browser\n")
	readWS(t, ws, "from the browser\n")

	// When the TCP side speaks, the WebSocket side hears it
	_, err = tcp.Write([]byte("from the terminal\n"))
	require.NoError(t, err)
	readWS(t, ws, "from the terminal\n")

	// When the WebSocket participant closes, TCP is told
	require.NoError(t, ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	testhelpers.ExpectStream(t, tcp, "from the terminal\nUser disconnected, 1 left!\n")
	testhelpers.WaitForMembers(t, room, 1)
}

func TestGateway_LargeFrameIsRelayedInChunks(t *testing.T) {
	room := testhelpers.StartRoom(t)
	s := startGateway(t, room, testOrigin)

	ws, _, err := dialWS(t, s, testOrigin)
	require.NoError(t, err)
	readWS(t, ws, "New user connected, total of 1!\n")

	payload := strings.Repeat("y", 300)
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, []byte(payload)))
	readWS(t, ws, payload)

	// 300 bytes arrive as reads of at most 128 bytes
	history := room.History()
	require.Len(t, history, 4)
	require.Len(t, history[1], 128)
	require.Len(t, history[2], 128)
	require.Len(t, history[3], 44)
}
