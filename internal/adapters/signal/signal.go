package signal

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/huddlemap/huddle/internal/app"
	"github.com/huddlemap/huddle/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller bridges websocket connections to the hub: it upgrades,
// assigns a fresh connection id, pumps frames both ways and reports
// disconnects.
type Controller struct {
	Hub     *app.Hub
	Emitter *WSEmitter

	readLimit  int64
	pingPeriod time.Duration
}

func NewController(hub *app.Hub, emitter *WSEmitter, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{
		Hub:        hub,
		Emitter:    emitter,
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
	}
}

type WsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleWS upgrades the request and starts the connection's pumps. Each
// connection gets its own session id; inbound events are dispatched
// sequentially from the read pump, so the hub sees one event at a time
// per connection.
func (ctl *Controller) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	sid := core.SessionID(uuid.NewString())
	conn := &WsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}
	ctl.Emitter.add(sid, conn)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	go ctl.writePump(conn)
	go ctl.readPump(sid, conn)
}

// disconnect is the transport-originated leave: the hub tears the session
// down, then the connection is forgotten.
func (ctl *Controller) disconnect(sid core.SessionID) {
	ctl.Hub.Leave(sid)
	ctl.Emitter.remove(sid)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("disconnected")
}
