package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"Voxline/internal/event"
	"Voxline/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// tuning parameters
	writeWait      = 10 * time.Second    // time allowed to write a message to the peer
	pongWait       = 60 * time.Second    // time allowed to read the next pong message from the peer
	pingInterval   = (pongWait * 9) / 10 // send pings to peer with this period
	maxMessageSize = 64 * 1024           // max inbound message size (64KB)
	sendBufSize    = 256                 // per-connection outbound buffer size
	ingressBufSize = 64                  // per-connection inbound queue
)

// Client is one authenticated socket connection
type Client struct {
	ID          string
	userID      primitive.ObjectID
	conn        *websocket.Conn
	hub         *Hub
	egress      chan event.WsEvent
	ingress     chan event.WsEvent
	limiter     *rate.Limiter
	connectedAt time.Time
	logger      *zap.Logger

	// presence shown to the monitor: "online" or "away"
	status   string
	statusMu sync.RWMutex

	// cancel or stop goroutines
	ctx         context.Context
	cancel      context.CancelFunc
	once        sync.Once
	closeCode   int
	closeReason string
	done        sync.WaitGroup
}

func newClient(userID primitive.ObjectID, conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(h.ctx)
	clientID := uuid.New().String()

	var limiter *rate.Limiter
	if h.opts.EventsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.opts.EventsPerSecond), h.opts.EventBurst)
	}

	return &Client{
		ID:          clientID,
		userID:      userID,
		conn:        conn,
		hub:         h,
		egress:      make(chan event.WsEvent, sendBufSize),
		ingress:     make(chan event.WsEvent, ingressBufSize),
		limiter:     limiter,
		connectedAt: h.clock.Now(),
		logger:      h.logger.With(zap.String("client_id", clientID), zap.String("user_id", userID.Hex())),
		ctx:         ctx,
		cancel:      cancel,
		status:      model.StatusOnline,
		closeCode:   websocket.CloseNormalClosure,
	}
}

// UserID returns the authenticated owner of the connection
func (c *Client) UserID() primitive.ObjectID {
	return c.userID
}

func (c *Client) ConnectedAt() time.Time {
	return c.connectedAt
}

func (c *Client) start() {
	c.done.Add(3)
	go c.readMessages()
	go c.processMessages()
	go c.writeMessages()
}

func (c *Client) readMessages() {
	defer c.done.Done()
	defer func() {
		c.hub.unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		var ev event.WsEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.Event == "" {
			c.SendError("invalid event format")
			continue
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.SendError("rate limit exceeded")
			continue
		}

		// Blocking hand-off keeps arrival order and applies back-pressure to the reader
		select {
		case c.ingress <- ev:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) logReadError(err error) {
	switch {
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	):
		c.logger.Debug("client disconnected")
	case websocket.IsUnexpectedCloseError(err):
		c.logger.Info("unexpected close", zap.Error(err))
	case isTimeout(err):
		c.logger.Info("client timed out - closing connection")
	case c.ctx.Err() != nil:
		// closed locally
	default:
		c.logger.Debug("error reading from client", zap.Error(err))
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// processMessages handles this connection's events one at a time, in the
// order they were read
func (c *Client) processMessages() {
	defer c.done.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.ingress:
			c.hub.dispatch(c, ev)
		}
	}
}

func (c *Client) writeMessages() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		c.done.Done()
	}()

	for {
		select {
		case <-c.ctx.Done():
			msg := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		case ev := <-c.egress:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.logger.Debug("write error", zap.String("event", ev.Event), zap.Error(err))
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("ping error", zap.Error(err))
				c.Close()
				return
			}
		}
	}
}

func (c *Client) pongHandler(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

// Close stops the connection with a normal closure
func (c *Client) Close() {
	c.closeWith(websocket.CloseNormalClosure, "")
}

// closeWith stops all goroutines of the connection; the writer sends a close
// frame carrying code and reason before closing the socket
func (c *Client) closeWith(code int, reason string) {
	c.once.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		c.cancel()
	})
}

// IsClosed returns true if the client has been closed
func (c *Client) IsClosed() bool {
	return c.ctx.Err() != nil
}

// SafeSend attempts to send an event to the client's egress channel.
// Returns true if sent successfully, false if client is closed or timeout.
func (c *Client) SafeSend(ev event.WsEvent, timeout time.Duration) bool {
	// Check if closed first (fast path)
	if c.IsClosed() {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.ctx.Done():
		return false
	case c.egress <- ev:
		return true
	case <-timer.C:
		return false
	}
}

// TrySend enqueues ev only if there is room right now
func (c *Client) TrySend(ev event.WsEvent) bool {
	if c.IsClosed() {
		return false
	}

	select {
	case c.egress <- ev:
		return true
	default:
		return false
	}
}

// Send marshals payload under name and enqueues it with the hub send timeout
func (c *Client) Send(name string, payload any) bool {
	ev, err := event.New(name, payload)
	if err != nil {
		c.logger.Error("failed to encode event", zap.String("event", name), zap.Error(err))
		return false
	}

	if !c.SafeSend(ev, c.hub.opts.SendTimeout) {
		c.hub.metrics.OutboundDropped(name)
		c.logger.Warn("outbound event dropped", zap.String("event", name))
		return false
	}
	return true
}

// SendError reports a failed inbound event back to this connection
func (c *Client) SendError(message string) bool {
	return c.Send(event.EventError, event.ErrorEvent{Message: message})
}

// GetStatus returns the current presence status of the client
func (c *Client) GetStatus() string {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// SetStatus sets the client presence status
func (c *Client) SetStatus(status string) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.status = status
}

// Wait blocks until every goroutine of the connection has exited
func (c *Client) Wait() {
	c.done.Wait()
}
