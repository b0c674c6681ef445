package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"city-relay-server/domain"
	"city-relay-server/protocol"
)

// ErrOffline is returned by Run when the relay cannot be reached. The
// caller keeps simulating locally with no remote entities.
var ErrOffline = errors.New("relay offline")

type Config struct {
	URL          string
	SendRate     rate.Limit
	Burst        int
	DialTimeout  time.Duration
	PingInterval time.Duration
}

func DefaultConfig(url string) Config {
	return Config{
		URL:          url,
		SendRate:     10,
		Burst:        1,
		DialTimeout:  5 * time.Second,
		PingInterval: 5 * time.Second,
	}
}

// Session connects one local entity to the relay. Mirror and Publish are
// usable whether or not a connection is up.
type Session struct {
	cfg       Config
	mirror    *Mirror
	publisher *Publisher
	dialer    *websocket.Dialer
	rtt       atomic.Int64
}

func NewSession(cfg Config) *Session {
	return &Session{
		cfg:       cfg,
		mirror:    NewMirror(),
		publisher: NewPublisher(cfg.SendRate, cfg.Burst),
		dialer:    &websocket.Dialer{HandshakeTimeout: cfg.DialTimeout},
	}
}

// Mirror is the roster view for the renderer.
func (s *Session) Mirror() *Mirror { return s.mirror }

// Publish queues the local transform for the next throttled emission.
func (s *Session) Publish(t domain.TransformSnapshot) { s.publisher.Publish(t) }

// RTT is the last measured ping round trip, zero until a pong arrives.
func (s *Session) RTT() time.Duration { return time.Duration(s.rtt.Load()) }

// Run holds one relay connection until ctx ends or the connection drops.
// A dropped connection is not resumed; call Run again for a new session.
func (s *Session) Run(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
	conn, _, err := s.dialer.DialContext(dialCtx, s.cfg.URL, nil)
	cancel()
	if err != nil {
		slog.Warn("relay unreachable, running local-only", "url", s.cfg.URL, "error", err)
		return fmt.Errorf("%w: %v", ErrOffline, err)
	}
	defer conn.Close()
	defer s.mirror.Clear()

	s.publisher.Reset()
	var writeMu sync.Mutex
	write := func(m protocol.Message) error {
		data, err := protocol.Encode(m)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		return conn.Close()
	})
	g.Go(func() error {
		return s.readLoop(conn)
	})
	g.Go(func() error {
		return s.publisher.Run(gctx, func(p domain.PartialSnapshot) error {
			return write(protocol.Move{Update: p})
		})
	})
	if s.cfg.PingInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(s.cfg.PingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-ticker.C:
					if err := write(protocol.Ping{Timestamp: time.Now().UnixMilli()}); err != nil {
						return err
					}
				}
			}
		})
	}

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	slog.Info("relay connection lost", "error", err)
	return err
}

func (s *Session) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			slog.Warn("invalid relay event", "error", err)
			continue
		}
		if pong, ok := msg.(protocol.Pong); ok {
			s.rtt.Store(int64(time.Since(time.UnixMilli(pong.Timestamp))))
			continue
		}
		s.mirror.Apply(msg)
	}
}
