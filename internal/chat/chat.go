// Package chat is a client for strims style websocket chat, where every frame
// is a message kind followed by a JSON payload: `MSG {"data":"hi"}`.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	KindMsg     = "MSG"
	KindPrivMsg = "PRIVMSG"
)

// Msg is a chat message as sent over the wire.
type Msg struct {
	Kind     string   `json:"-"`
	Data     string   `json:"data"`
	User     string   `json:"nick,omitempty"`
	Time     int64    `json:"timestamp,omitempty"`
	Features []string `json:"features,omitempty"`
}

func (m *Msg) IsMod() bool {
	return slices.Contains(m.Features, "moderator")
}

type HandlerFunc func(context.Context, *Msg) error

type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, messageType websocket.MessageType, data []byte) error
	Close(code websocket.StatusCode, reason string) error
}

type Dialer func(ctx context.Context, url string, opts *websocket.DialOptions) (Conn, *http.Response, error)

func WebsocketDialer(ctx context.Context, url string, opts *websocket.DialOptions) (Conn, *http.Response, error) {
	return websocket.Dial(ctx, url, opts)
}

type Option func(*Client)

// WithReconnect redials instead of failing when a read breaks.
func WithReconnect(reconnect bool) Option {
	return func(c *Client) { c.reconnect = reconnect }
}

// WithIgnoredKinds drops frames of the given kinds before parsing.
func WithIgnoredKinds(kinds ...string) Option {
	return func(c *Client) { c.ignored = append(c.ignored, kinds...) }
}

// Client is a connection to the chat server.
type Client struct {
	logger    *zap.SugaredLogger
	dialer    Dialer
	url       string
	token     string
	reconnect bool
	ignored   []string

	mu       sync.Mutex
	conn     Conn
	lastSent string
	handlers map[string][]HandlerFunc
}

func Dial(
	ctx context.Context,
	logger *zap.SugaredLogger,
	dialer Dialer,
	url, token string,
	opts ...Option,
) (*Client, error) {
	c := &Client{
		logger:   logger,
		dialer:   dialer,
		url:      url,
		token:    token,
		handlers: map[string][]HandlerFunc{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.dial(ctx); err != nil {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}
	return c, nil
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := c.dialer(ctx, c.url, &websocket.DialOptions{
		HTTPHeader: http.Header{
			"Cookie": []string{fmt.Sprintf("jwt=%s", c.token)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.logger.Debugw("dialed server", "url", c.url)
	return nil
}

// Handle registers fns for messages of the given kind.
func (c *Client) Handle(kind string, fns ...HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[kind] = append(c.handlers[kind], fns...)
}

// Send broadcasts msg. The server drops a message identical to the previous
// one, so a repeat gets a trailing marker.
func (c *Client) Send(ctx context.Context, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg == c.lastSent {
		msg += " ."
	}

	if err := c.write(ctx, KindMsg, &Msg{Data: clean(msg)}); err != nil {
		return fmt.Errorf("failed to send message %q: %w", msg, err)
	}

	c.lastSent = msg
	return nil
}

// SendPriv whispers msg to user.
func (c *Client) SendPriv(ctx context.Context, msg, user string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.write(ctx, KindPrivMsg, &Msg{Data: clean(msg), User: user}); err != nil {
		return fmt.Errorf("failed to send private message to %q: %w", user, err)
	}
	return nil
}

func (c *Client) write(ctx context.Context, kind string, msg *Msg) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	frame := kind + " " + string(payload)
	c.logger.Debugw("sending frame", "frame", frame)
	if err = c.conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

func clean(msg string) string {
	return strings.ReplaceAll(html.UnescapeString(msg), "\"", "'")
}

// Run reads frames and dispatches them to the registered handlers until ctx
// is done or a handler fails. The connection is closed on return.
func (c *Client) Run(ctx context.Context) error {
	defer func() {
		if err := c.Close(); err != nil {
			c.logger.Warnw("failed to close connection", "err", err)
		}
	}()

	c.logger.Info("chat client is now running")
	frames := make(chan string)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer close(frames)
		return c.readLoop(egCtx, frames)
	})
	eg.Go(func() error {
		return c.dispatchLoop(egCtx, frames)
	})

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failure while running: %w", err)
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context, frames chan<- string) error {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("context canceled, stopping read loop")
				return nil
			}
			if !c.reconnect {
				return fmt.Errorf("failed while reading frame: %w", err)
			}

			c.logger.Warnw("read failed, redialing", "err", err)
			if err = c.dial(ctx); err != nil {
				return err
			}
			continue
		}

		c.logger.Debugw("frame read", "frame", string(data))
		select {
		case frames <- string(data):
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Client) dispatchLoop(ctx context.Context, frames <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context canceled, stopping dispatch loop")
			return nil
		case raw, ok := <-frames:
			if !ok {
				return nil
			}

			if slices.ContainsFunc(c.ignored, func(kind string) bool {
				return strings.HasPrefix(raw, kind+" ")
			}) {
				continue
			}

			msg, err := parseFrame(raw)
			if err != nil {
				c.logger.Infow("failed to parse frame", "err", err)
				continue
			}

			c.mu.Lock()
			handlers := c.handlers[msg.Kind]
			c.mu.Unlock()

			for _, h := range handlers {
				if err = h(ctx, msg); err != nil {
					return fmt.Errorf("%s handler: %w", msg.Kind, err)
				}
			}
		}
	}
}

func (c *Client) Close() error {
	c.logger.Info("closing chat connection")
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close(websocket.StatusNormalClosure, "going away")
}

var errServer = errors.New("server returned error")

func parseFrame(raw string) (*Msg, error) {
	kind, payload, ok := strings.Cut(raw, " ")
	if !ok {
		return nil, fmt.Errorf("frame %q has no payload", raw)
	}

	if kind == "ERR" {
		value, err := strconv.Unquote(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to unquote error: %w", err)
		}
		return nil, fmt.Errorf("%w: %s", errServer, value)
	}

	msg := &Msg{Kind: kind}
	if kind != KindMsg && kind != KindPrivMsg {
		if !json.Valid([]byte(payload)) {
			return nil, fmt.Errorf("invalid %s payload: %s", kind, payload)
		}
		return msg, nil
	}

	if err := json.Unmarshal([]byte(payload), msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", payload, err)
	}
	return msg, nil
}
