// Package wsremote talks to an engine over a websocket, one request at a time.
package wsremote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/chessfront/internal/engine"
	"github.com/park285/chessfront/internal/obslog"
	"github.com/park285/chessfront/pkg/chessdto"
)

// HeaderProvider injects headers into the handshake.
type HeaderProvider func() map[string]string

// Client dials lazily and redials after any transport failure. A request whose
// context ends closes the connection, so replies never arrive out of turn.
type Client struct {
	wsURL       string
	headers     HeaderProvider
	dialTimeout time.Duration
	logger      *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID uint64
}

type Option func(*Client)

func WithHeaderProvider(h HeaderProvider) Option { return func(c *Client) { c.headers = h } }
func WithDialTimeout(d time.Duration) Option     { return func(c *Client) { c.dialTimeout = d } }
func WithLogger(l *zap.Logger) Option            { return func(c *Client) { c.logger = l } }

func New(wsURL string, opts ...Option) *Client {
	c := &Client{wsURL: wsURL, dialTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = obslog.OrNop(c.logger)
	return c
}

var _ engine.Engine = (*Client)(nil)

func (c *Client) InitialState(ctx context.Context) (engine.State, error) {
	return c.roundTrip(ctx, chessdto.Frame{Op: chessdto.OpInitial})
}

func (c *Client) Advance(ctx context.Context, encoding string, history []string) (engine.State, error) {
	return c.roundTrip(ctx, chessdto.Frame{Op: chessdto.OpAdvance, Encoding: encoding, History: history})
}

func (c *Client) roundTrip(ctx context.Context, f chessdto.Frame) (engine.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.connLocked(ctx)
	if err != nil {
		return engine.State{}, err
	}
	c.nextID++
	f.ID = c.nextID

	if err := wsjson.Write(ctx, conn, f); err != nil {
		c.dropLocked("write failure")
		return engine.State{}, fmt.Errorf("ws write: %w", err)
	}
	for {
		var reply chessdto.Reply[engine.State]
		if err := wsjson.Read(ctx, conn, &reply); err != nil {
			c.dropLocked("read failure")
			return engine.State{}, fmt.Errorf("ws read: %w", err)
		}
		if reply.ID != f.ID {
			c.logger.Debug("ws_stale_reply", zap.Uint64("want", f.ID), zap.Uint64("got", reply.ID))
			continue
		}
		if reply.Error != nil {
			return engine.State{}, fmt.Errorf("engine %s: %w", f.Op, *reply.Error)
		}
		if reply.Result == nil {
			return engine.State{}, fmt.Errorf("engine %s: empty reply", f.Op)
		}
		return *reply.Result, nil
	}
}

func (c *Client) connLocked(ctx context.Context) (*websocket.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, c.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      c.buildHeaders(),
	})
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}
	conn.SetReadLimit(1 << 20)
	c.conn = conn
	c.logger.Debug("ws_connected", zap.String("url", c.wsURL))
	return conn, nil
}

func (c *Client) dropLocked(reason string) {
	if c.conn == nil {
		return
	}
	_ = c.conn.Close(websocket.StatusGoingAway, reason)
	c.conn = nil
}

// Close ends the current connection; the next request dials again.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	defer func() { c.conn = nil }()
	return c.conn.Close(websocket.StatusNormalClosure, "close")
}

func (c *Client) buildHeaders() http.Header {
	hdr := http.Header{}
	if c.headers == nil {
		return hdr
	}
	for k, v := range c.headers() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
