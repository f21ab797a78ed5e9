// Package ws frames the engine's duplex channel protocol (§6.1) onto a
// real WebSocket connection: it owns the gorilla/websocket upgrade, the
// read loop, the mutex-guarded writer, and the inbound-message
// demultiplexer. All
// pipeline logic lives in internal/engine; this package only moves
// bytes.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/tabletalk/voicegate/internal/engine"
	"github.com/tabletalk/voicegate/internal/protocol"
	"github.com/tabletalk/voicegate/internal/utils"
)

// closeUnknownTable is a private-use WebSocket close code (RFC 6455
// §7.4.2 reserves 4000-4999) signalling the qr_token in the path
// resolved to no table.
const closeUnknownTable = 4004

const (
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
	drainTimeout  = 2 * time.Second
)

// Driver upgrades one HTTP request into a voice channel and drives it
// until the client disconnects or the server shuts it down.
type Driver struct {
	sessions *engine.SessionManager
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

func NewDriver(sessions *engine.SessionManager, log *logrus.Logger) *Driver {
	return &Driver{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// conn implements engine.Emitter over a single gorilla/websocket
// connection: every write, text or binary, goes through the same
// mutex so concurrent goroutines (the bridge's TTS sender and the
// scheduler's partial-transcript sender) never interleave frames.
type conn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *conn) SendJSON(msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(writeDeadline))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *conn) SendBinary(frame []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(writeDeadline))
	return w.c.WriteMessage(websocket.BinaryMessage, frame)
}

func (w *conn) close(code int, reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(writeDeadline))
	_ = w.c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	_ = w.c.Close()
}

// Serve implements §4.9 channel-open/close and the inbound demux for a
// single /voice/:qr_token connection.
func (d *Driver) Serve(w http.ResponseWriter, r *http.Request, qrToken string) {
	rawConn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	wc := &conn{c: rawConn}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sessionID := uuid.NewString()
	sess, greeting, err := d.sessions.OpenSession(ctx, sessionID, qrToken, wc)
	if err != nil {
		if utils.IsCode(err, utils.CodeTableUnknown) {
			wc.close(closeUnknownTable, "unknown table")
			return
		}
		wc.close(websocket.CloseInternalServerErr, "failed to open session")
		return
	}
	defer d.closeSession(sess)

	if err := wc.SendJSON(protocol.NewGreeting(greeting)); err != nil {
		return
	}

	_ = rawConn.SetReadDeadline(time.Now().Add(readDeadline))
	rawConn.SetPongHandler(func(string) error {
		_ = rawConn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		msgType, data, rerr := rawConn.ReadMessage()
		if rerr != nil {
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			d.sessions.HandleAudioChunk(ctx, sess, data)

		case websocket.TextMessage:
			var env protocol.InboundEnvelope
			if err := json.Unmarshal(data, &env); err != nil {
				_ = wc.SendJSON(protocol.NewError("invalid json"))
				continue
			}
			switch env.Type {
			case protocol.InboundAudioEnd:
				d.sessions.HandleAudioEnd(ctx, sess)
			case protocol.InboundInterrupt:
				d.sessions.HandleInterrupt(ctx, sess)
			case protocol.InboundPing:
				d.sessions.HandlePing(sess)
			case protocol.InboundPlaybackComplete:
				// informational only; nothing to drive server-side.
			default:
				_ = wc.SendJSON(protocol.NewError("unknown message type"))
			}
		}
	}
}

func (d *Driver) closeSession(sess *engine.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	d.sessions.Close(ctx, sess)
}
