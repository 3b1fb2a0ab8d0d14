package hub

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"Voxline/internal/auth"
	"Voxline/internal/event"
	"Voxline/internal/media"
	"Voxline/internal/metrics"
	"Voxline/internal/model"
	"Voxline/internal/repo"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	DefaultRingTimeout = 40 * time.Second
	DefaultSendTimeout = 2 * time.Second

	closeReasonSuperseded = "superseded"
)

// Options tunes the relay
type Options struct {
	RingTimeout        time.Duration // 0 disables the ring timer
	SendTimeout        time.Duration
	EventsPerSecond    float64 // 0 disables inbound rate limiting
	EventBurst         int
	AllowedOrigins     []string
	DirectoryCacheSize int
	DirectoryCacheTTL  time.Duration
}

// Deps are the collaborators of the relay
type Deps struct {
	Users    repo.UserRepository
	Messages repo.MessageRepository
	Calls    repo.CallRepository
	Verifier auth.Verifier
	Media    *media.LiveKit
	Metrics  *metrics.Metrics
	Clock    clock.Clock
	Logger   *zap.Logger
}

type Hub struct {
	registry  *Registry
	directory *Directory
	calls     *CallHandler
	users     repo.UserRepository
	messages  repo.MessageRepository
	verifier  auth.Verifier
	media     *media.LiveKit
	metrics   *metrics.Metrics
	clock     clock.Clock
	logger    *zap.Logger
	opts      Options
	upgrader  websocket.Upgrader

	clientsWg sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewHub(deps Deps, opts Options) *Hub {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if opts.EventBurst <= 0 {
		opts.EventBurst = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		registry:  NewRegistry(),
		directory: NewDirectory(deps.Users, opts.DirectoryCacheSize, opts.DirectoryCacheTTL),
		users:     deps.Users,
		messages:  deps.Messages,
		verifier:  deps.Verifier,
		media:     deps.Media,
		metrics:   deps.Metrics,
		clock:     deps.Clock,
		logger:    deps.Logger,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
	}
	h.calls = NewCallHandler(h, deps.Calls, opts.RingTimeout)
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

func (h *Hub) Directory() *Directory {
	return h.directory
}

func (h *Hub) Calls() *CallHandler {
	return h.calls
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ServeWS authenticates the request, upgrades it and registers the new
// connection as the user's live session
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := h.verifier.Verify(auth.CredentialFromRequest(r))
	if err != nil {
		h.logger.Debug("socket authentication failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	if _, err := h.directory.Lookup(r.Context(), userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, auth.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
			return
		}
		h.logger.Error("socket user lookup failed", zap.String("user_id", userID.Hex()), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if h.ctx.Err() != nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(userID, conn, h)
	h.register(c)

	h.clientsWg.Add(1)
	c.start()
	go func() {
		defer h.clientsWg.Done()
		c.Wait()
	}()
}

// register makes c the live session of its user, closes the session it
// replaced and announces the user online
func (h *Hub) register(c *Client) {
	if previous := h.registry.Register(c.userID, c); previous != nil {
		previous.closeWith(websocket.ClosePolicyViolation, closeReasonSuperseded)
		c.logger.Info("superseded previous connection", zap.String("previous_client_id", previous.ID))
	}
	h.metrics.ConnectionOpened()
	c.logger.Info("client registered")

	ctx, cancel := h.storeContext(c)
	defer cancel()
	h.announcePresence(ctx, c.userID, model.StatusOnline)
}

// unregister removes c if it is still its user's live session and announces
// the user offline; a stale connection changes nothing
func (h *Hub) unregister(c *Client) {
	h.metrics.ConnectionClosed()

	if !h.registry.Deregister(c.userID, c) {
		c.logger.Debug("stale connection closed")
		return
	}
	c.logger.Info("client unregistered")

	ctx, cancel := h.storeContext(c)
	defer cancel()
	h.announcePresence(ctx, c.userID, model.StatusOffline)
}

// storeContext outlives the connection so writes already started complete
// after a disconnect
func (h *Hub) storeContext(c *Client) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.ctx), 10*time.Second)
}

// dispatch routes one inbound event to its handler
func (h *Hub) dispatch(c *Client, ev event.WsEvent) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while handling event",
				zap.String("event", ev.Event),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	ctx, cancel := h.storeContext(c)
	defer cancel()

	var err error
	switch ev.Event {
	case event.EventSendMessage:
		err = h.handleSendMessage(ctx, c, ev)
	case event.EventTyping:
		err = h.handleTyping(c, ev)
	default:
		if IsCallEvent(ev.Event) {
			err = h.calls.HandleCallEvent(ctx, ev, c)
		} else {
			h.metrics.InboundEvent("unknown")
			c.SendError("unknown event: " + ev.Event)
			return
		}
	}
	h.metrics.InboundEvent(ev.Event)

	if err != nil {
		h.reportError(c, ev.Event, err)
	}
}

func (h *Hub) reportError(c *Client, name string, err error) {
	var ee *EventError
	if !errors.As(err, &ee) {
		c.logger.Error("event handling failed", zap.String("event", name), zap.Error(err))
		return
	}

	switch ee.Kind {
	case KindInternal:
		c.logger.Error("event handling failed", zap.String("event", name), zap.Error(err))
	default:
		c.logger.Debug("event rejected", zap.String("event", name), zap.Error(err))
	}
	c.SendError(ee.Message)
}

// sendToUser delivers to userID's live session, if any
func (h *Hub) sendToUser(userID primitive.ObjectID, name string, payload any) bool {
	c, ok := h.registry.Lookup(userID)
	if !ok {
		return false
	}
	return c.Send(name, payload)
}

// IsOnline reports whether userID has a live session
func (h *Hub) IsOnline(userID primitive.ObjectID) bool {
	_, ok := h.registry.Lookup(userID)
	return ok
}

// Stop closes every live session, waits for their goroutines up to ctx and
// stops pending ring timers
func (h *Hub) Stop(ctx context.Context) error {
	for _, c := range h.registry.Snapshot() {
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
	}
	h.cancel()
	h.calls.Stop()

	done := make(chan struct{})
	go func() {
		h.clientsWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
