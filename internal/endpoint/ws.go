package endpoint

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WS is the WebSocket endpoint driver, an alternative to TCP for
// environments that route over HTTP infrastructure. Grounded on the
// teacher's pkg/agent/transport/websocket package, which wraps the same
// library as a message transport: the upgrader configuration and
// text-message framing below mirror that package's WSServer/WSClient
// shape, adapted from SecureMessage JSON frames to raw encoded packs.
type WS struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	server *http.Server
	conns  []*websocket.Conn
	closed bool
}

// NewWS returns an unbound WebSocket driver.
func NewWS() *WS {
	return &WS{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

func (w *WS) Protocol() string { return "ws" }

// Bind starts an HTTP server at address upgrading every request on "/" to
// a WebSocket connection.
func (w *WS) Bind(address string, onAccept AcceptFunc) (bool, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false, ErrClosed
	}
	if w.server != nil {
		w.mu.Unlock()
		return false, ErrAlreadyBound
	}
	w.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(rw http.ResponseWriter, r *http.Request) {
		conn, err := w.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		w.track(conn)
		w.serve(conn, onAccept)
	})

	server := &http.Server{Addr: address, Handler: mux}
	w.mu.Lock()
	w.server = server
	w.mu.Unlock()

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return false, err
		}
	default:
	}
	return true, nil
}

// Connect dials a ws:// address and wires it into onAccept.
func (w *WS) Connect(address string, onAccept AcceptFunc) (Conn, error) {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	conn, _, err := websocket.DefaultDialer.Dial(address, nil)
	if err != nil {
		return nil, err
	}
	w.track(conn)
	return w.serve(conn, onAccept), nil
}

func (w *WS) track(conn *websocket.Conn) {
	w.mu.Lock()
	w.conns = append(w.conns, conn)
	w.mu.Unlock()
}

func (w *WS) serve(conn *websocket.Conn, onAccept AcceptFunc) Conn {
	wrapped := &wsConn{conn: conn}
	recv := onAccept(wrapped)

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				_ = conn.Close()
				return
			}
			recv(string(data))
		}
	}()

	return wrapped
}

func (w *WS) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.server != nil {
		_ = w.server.Close()
	}
	for _, c := range w.conns {
		_ = c.Close()
	}
	return nil
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) RemoteAddress() string {
	return c.conn.RemoteAddr().String()
}

func (c *wsConn) Send(pack string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(pack)) == nil
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
