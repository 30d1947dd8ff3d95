package slim

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

const writeWait = 10 * time.Second

// peerConn wraps one websocket connection to a remote SLIM node, either
// dialed by us (client role) or accepted on our listener (server role). All
// writes go through sendCh so only writePump ever calls WriteMessage,
// matching gorilla/websocket's single-writer requirement.
type peerConn struct {
	conn      *websocket.Conn
	endpoint  string
	sendCh    chan []byte
	closeOnce sync.Once
}

func newPeerConn(conn *websocket.Conn, endpoint string) *peerConn {
	return &peerConn{conn: conn, endpoint: endpoint, sendCh: make(chan []byte, 256)}
}

func (pc *peerConn) send(env envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrDecode, err)
	}
	select {
	case pc.sendCh <- data:
		return nil
	default:
		return fmt.Errorf("%w: send queue full for %s", transport.ErrTransport, pc.endpoint)
	}
}

func (pc *peerConn) writePump() {
	defer pc.conn.Close()
	for data := range pc.sendCh {
		_ = pc.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := pc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = pc.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (pc *peerConn) close() {
	pc.closeOnce.Do(func() {
		close(pc.sendCh)
	})
}
