package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"city-relay-server/domain"
)

type Options struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func DefaultOptions() Options {
	return Options{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     256,
	}
}

func (o Options) pingPeriod() time.Duration {
	return (o.PongWait * 9) / 10
}

// NewUpgrader accepts requests whose Origin host is listed in origins.
// "*" or an empty list accepts any origin.
func NewUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(origins),
	}
}

func checkOrigin(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, allowed := range origins {
			if strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Host) {
				return true
			}
		}
		return false
	}
}

// Conn adapts a websocket to domain.Connection. Outbound frames go through
// a bounded queue; a full queue fails Send instead of blocking the caller.
type Conn struct {
	id      string
	ws      *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	opts    Options
	handler domain.SessionHandler
}

func NewConn(id string, ws *websocket.Conn, h domain.SessionHandler, opts Options) *Conn {
	return &Conn{
		id:      id,
		ws:      ws,
		send:    make(chan []byte, opts.SendBuffer),
		done:    make(chan struct{}),
		opts:    opts,
		handler: h,
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Send(data []byte) error {
	select {
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return domain.ErrSendQueueFull
	}
}

// Close stops both pumps. The read pump then runs the disconnect path.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteWait))
		err = c.ws.Close()
	})
	return err
}

// Start runs the connect handshake before any frame is read, so the roster
// is queued ahead of everything else on this connection.
func (c *Conn) Start() {
	c.handler.Connect(c)
	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.handler.Disconnect(c)
		c.Close()
	}()

	c.ws.SetReadLimit(c.opts.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Error("read error", "clientId", c.id, "error", err)
			}
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))

		c.handler.Handle(c, data)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
