package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fauzanhilmi/vocalis/pkg/errorsx"
	"github.com/fauzanhilmi/vocalis/pkg/protocol"
)

const writeWait = 10 * time.Second

// wsSink serializes all writes to one websocket connection. Events go
// out as JSON text frames, audio as binary frames.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSSink(conn *websocket.Conn) *wsSink {
	return &wsSink{conn: conn}
}

func (w *wsSink) SendEvent(ev protocol.ServerEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := w.conn.WriteJSON(ev); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportSend)
	}
	return nil
}

func (w *wsSink) SendAudio(chunk []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := w.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportSend)
	}
	return nil
}
