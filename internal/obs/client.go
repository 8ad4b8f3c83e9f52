package obs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	reconnectDelay   = 5 * time.Second
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = 30 * time.Second
	maxMessageSize   = 1 << 20

	// DefaultRequestTimeout bounds requests whose context has no deadline
	DefaultRequestTimeout = 2 * time.Second
)

// Client is an obs-websocket v5 client. Requests may be issued from any
// goroutine; responses are matched to requests by id.
type Client struct {
	addr     string
	password string
	dialer   *websocket.Dialer

	// RequestTimeout applies to requests whose context has no deadline
	RequestTimeout time.Duration

	mu          sync.Mutex
	conn        *websocket.Conn
	send        chan Message
	connDone    chan struct{}
	isConnected bool
	pending     map[string]chan RequestResponse

	items *itemCache

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a client for the server at addr ("host:port" or a
// ws:// URL). An empty password skips authentication.
func NewClient(addr, password string) *Client {
	return &Client{
		addr:     addr,
		password: password,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
			Subprotocols:     []string{Subprotocol},
		},
		RequestTimeout: DefaultRequestTimeout,
		pending:        make(map[string]chan RequestResponse),
		items:          newItemCache(),
		done:           make(chan struct{}),
	}
}

func wsURL(addr string) string {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	return "ws://" + addr
}

// Run keeps a session open until ctx is cancelled or Close is called,
// reconnecting after every failure or disconnect.
func (c *Client) Run(ctx context.Context) {
	for {
		if err := c.Connect(ctx); err != nil {
			log.Printf("OBS: Connection failed: %v", err)
		} else {
			select {
			case <-c.sessionDone():
				log.Println("OBS: Disconnected")
			case <-ctx.Done():
				return
			case <-c.done:
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-time.After(reconnectDelay):
			log.Println("OBS: Attempting reconnection...")
		}
	}
}

// Connect dials the server and completes the Hello/Identify handshake.
// It is a no-op while a session is open.
func (c *Client) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}

	u := wsURL(c.addr)
	log.Printf("OBS: Connecting to %s", u)

	conn, _, err := c.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return err
	}

	if err := c.identify(conn); err != nil {
		conn.Close()
		return err
	}

	send := make(chan Message, 64)
	connDone := make(chan struct{})

	c.mu.Lock()
	c.conn = conn
	c.send = send
	c.connDone = connDone
	c.isConnected = true
	c.mu.Unlock()
	c.items.reset()

	log.Println("OBS: Connected")

	go c.writePump(conn, send, connDone)
	go c.session(conn, connDone)
	return nil
}

func (c *Client) identify(conn *websocket.Conn) error {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	conn.SetWriteDeadline(time.Now().Add(handshakeTimeout))
	defer conn.SetWriteDeadline(time.Time{})

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if msg.Op != OpHello {
		return fmt.Errorf("expected hello, got op %d", msg.Op)
	}
	var hello Hello
	if err := json.Unmarshal(msg.D, &hello); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}

	id := Identify{RPCVersion: RPCVersion}
	if hello.Authentication != nil {
		id.Authentication = AuthResponse(c.password, hello.Authentication.Salt, hello.Authentication.Challenge)
	}
	out, err := encode(OpIdentify, id)
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(out); err != nil {
		return fmt.Errorf("send identify: %w", err)
	}

	if err := conn.ReadJSON(&msg); err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) && ce.Code == CloseAuthenticationFailed {
			return ErrAuthFailed
		}
		return fmt.Errorf("read identified: %w", err)
	}
	if msg.Op != OpIdentified {
		return fmt.Errorf("expected identified, got op %d", msg.Op)
	}
	return nil
}

// session runs the read pump and tears the session down when it ends
func (c *Client) session(conn *websocket.Conn, connDone chan struct{}) {
	c.readPump(conn)

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.isConnected = false
	}
	c.mu.Unlock()

	close(connDone)
	conn.Close()
}

func (c *Client) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("OBS: Read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("OBS: Invalid message: %v", err)
			continue
		}
		if msg.Op != OpRequestResponse {
			continue
		}

		var resp RequestResponse
		if err := json.Unmarshal(msg.D, &resp); err != nil {
			log.Printf("OBS: Invalid response: %v", err)
			continue
		}
		c.deliver(resp)
	}
}

func (c *Client) writePump(conn *websocket.Conn, send <-chan Message, connDone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("OBS: Write error: %v", err)
				conn.Close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}

		case <-connDone:
			return
		case <-c.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			conn.Close()
			return
		}
	}
}

func (c *Client) deliver(resp RequestResponse) {
	c.mu.Lock()
	ch, ok := c.pending[resp.RequestID]
	c.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- resp:
	default:
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) sessionDone() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connDone
}

// request sends one request and decodes responseData into out (if non-nil)
func (c *Client) request(ctx context.Context, requestType string, data, out interface{}) error {
	c.mu.Lock()
	if !c.isConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	send, connDone := c.send, c.connDone
	id := newRequestID()
	ch := make(chan RequestResponse, 1)
	c.pending[id] = ch
	c.mu.Unlock()
	defer c.forget(id)

	msg, err := encode(OpRequest, Request{RequestType: requestType, RequestID: id, RequestData: data})
	if err != nil {
		return fmt.Errorf("encode %s: %w", requestType, err)
	}

	if _, ok := ctx.Deadline(); !ok && c.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.RequestTimeout)
		defer cancel()
	}

	select {
	case send <- msg:
	case <-connDone:
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case resp := <-ch:
		if !resp.RequestStatus.Result {
			return &RequestError{
				RequestType: requestType,
				Code:        resp.RequestStatus.Code,
				Comment:     resp.RequestStatus.Comment,
			}
		}
		if out != nil && len(resp.ResponseData) > 0 {
			if err := json.Unmarshal(resp.ResponseData, out); err != nil {
				return fmt.Errorf("decode %s: %w", requestType, err)
			}
		}
		return nil
	case <-connDone:
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsConnected reports whether a session is open
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}

// Close ends the session and stops Run
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
