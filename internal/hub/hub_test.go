package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"Voxline/internal/auth"
	"Voxline/internal/db"
	"Voxline/internal/event"
	"Voxline/internal/model"
	"Voxline/internal/repo"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const eventWait = 3 * time.Second

type testEnv struct {
	t      *testing.T
	hub    *Hub
	store  *repo.Store
	clock  *clock.Mock
	tokens *auth.TokenService
	server *httptest.Server
}

func newTestEnv(t *testing.T, configure ...func(*Deps, *Options)) *testEnv {
	t.Helper()

	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	store := repo.NewSQLiteStore(conn, zap.NewNop())
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	tokens := auth.NewTokenService("test-secret", time.Hour, clk)

	deps := Deps{
		Users:    store.Users,
		Messages: store.Messages,
		Calls:    store.Calls,
		Verifier: tokens,
		Clock:    clk,
		Logger:   zap.NewNop(),
	}
	opts := Options{RingTimeout: DefaultRingTimeout}
	for _, fn := range configure {
		fn(&deps, &opts)
	}

	h := NewHub(deps, opts)
	server := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(server.Close)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Stop(ctx)
	})

	return &testEnv{t: t, hub: h, store: store, clock: clk, tokens: tokens, server: server}
}

func (e *testEnv) user(name string) *model.User {
	e.t.Helper()
	u := &model.User{
		Name:      name,
		Email:     name + "@example.com",
		Avatar:    name + ".png",
		Status:    model.StatusOffline,
		CreatedAt: e.clock.Now(),
	}
	require.NoError(e.t, e.store.Users.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) wsURL() string {
	return "ws" + strings.TrimPrefix(e.server.URL, "http")
}

// connect opens a session for u and waits until it is registered
func (e *testEnv) connect(u *model.User) *testConn {
	e.t.Helper()
	token, err := e.tokens.Issue(u.ID)
	require.NoError(e.t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(e.wsURL(), header)
	require.NoError(e.t, err)

	tc := newTestConn(e.t, conn)
	ev := tc.expect(event.EventUserStatus)
	status := decode[event.UserStatusEvent](e.t, ev)
	require.Equal(e.t, u.ID.Hex(), status.UserID)
	require.Equal(e.t, model.StatusOnline, status.Status)
	return tc
}

type testConn struct {
	t        *testing.T
	conn     *websocket.Conn
	events   chan event.WsEvent
	closeErr chan error
}

func newTestConn(t *testing.T, conn *websocket.Conn) *testConn {
	tc := &testConn{
		t:        t,
		conn:     conn,
		events:   make(chan event.WsEvent, 128),
		closeErr: make(chan error, 1),
	}
	go func() {
		for {
			var ev event.WsEvent
			if err := conn.ReadJSON(&ev); err != nil {
				tc.closeErr <- err
				close(tc.events)
				return
			}
			tc.events <- ev
		}
	}()
	t.Cleanup(func() { _ = conn.Close() })
	return tc
}

func (tc *testConn) send(name string, payload any) {
	tc.t.Helper()
	ev, err := event.New(name, payload)
	require.NoError(tc.t, err)
	require.NoError(tc.t, tc.conn.WriteJSON(ev))
}

// expect returns the next event called name, skipping any others
func (tc *testConn) expect(name string) event.WsEvent {
	tc.t.Helper()
	deadline := time.After(eventWait)
	for {
		select {
		case ev, ok := <-tc.events:
			if !ok {
				tc.t.Fatalf("connection closed while waiting for %s", name)
			}
			if ev.Event == name {
				return ev
			}
		case <-deadline:
			tc.t.Fatalf("timed out waiting for %s", name)
		}
	}
}

// expectNone fails if an event called name arrives within d
func (tc *testConn) expectNone(name string, d time.Duration) {
	tc.t.Helper()
	deadline := time.After(d)
	for {
		select {
		case ev, ok := <-tc.events:
			if !ok {
				return
			}
			if ev.Event == name {
				tc.t.Fatalf("unexpected %s: %s", name, string(ev.Payload))
			}
		case <-deadline:
			return
		}
	}
}

func decode[T any](t *testing.T, ev event.WsEvent) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(ev.Payload, &v))
	return v
}

// -----------------------------------------------------------------
// Connection lifecycle
// -----------------------------------------------------------------

func TestServeWS_RejectsMissingOrBadToken(t *testing.T) {
	env := newTestEnv(t)

	_, resp, err := websocket.DefaultDialer.Dial(env.wsURL(), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(env.wsURL()+"?token=garbage", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWS_RejectsUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.tokens.Issue(primitive.NewObjectID())
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(env.wsURL()+"?token="+token, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPresence_OnlineAndOffline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice")
	bob := env.user("bob")

	a := env.connect(alice)
	got, err := env.store.Users.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, got.Status)

	b := env.connect(bob)
	status := decode[event.UserStatusEvent](t, a.expect(event.EventUserStatus))
	assert.Equal(t, bob.ID.Hex(), status.UserID)
	assert.Equal(t, model.StatusOnline, status.Status)

	require.NoError(t, b.conn.Close())

	status = decode[event.UserStatusEvent](t, a.expect(event.EventUserStatus))
	assert.Equal(t, bob.ID.Hex(), status.UserID)
	assert.Equal(t, model.StatusOffline, status.Status)

	require.Eventually(t, func() bool {
		u, err := env.store.Users.GetUser(ctx, bob.ID)
		return err == nil && u.Status == model.StatusOffline
	}, eventWait, 20*time.Millisecond)
	_, online := env.hub.Registry().Lookup(bob.ID)
	assert.False(t, online)
}

func TestSupersession_ClosesOlderConnection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice")

	first := env.connect(alice)
	second := env.connect(alice)

	select {
	case err := <-first.closeErr:
		var ce *websocket.CloseError
		require.True(t, errors.As(err, &ce), "got %v", err)
		assert.Equal(t, websocket.ClosePolicyViolation, ce.Code)
		assert.Equal(t, closeReasonSuperseded, ce.Text)
	case <-time.After(eventWait):
		t.Fatal("superseded connection was not closed")
	}

	// the stale connection closing must not take the user offline
	assert.Never(t, func() bool {
		u, err := env.store.Users.GetUser(ctx, alice.ID)
		return err != nil || u.Status != model.StatusOnline
	}, 300*time.Millisecond, 20*time.Millisecond)

	current, ok := env.hub.Registry().Lookup(alice.ID)
	require.True(t, ok)
	assert.False(t, current.IsClosed())
	assert.Equal(t, 1, env.hub.Registry().Len())

	second.send(event.EventTyping, event.TypingPayload{ReceiverID: alice.ID.Hex(), IsTyping: true})
	typing := decode[event.UserTypingEvent](t, second.expect(event.EventUserTyping))
	assert.Equal(t, alice.ID.Hex(), typing.UserID)
}

func TestDispatch_UnknownEventAndBadFrames(t *testing.T) {
	env := newTestEnv(t)
	a := env.connect(env.user("alice"))

	a.send("dance", map[string]string{})
	errEv := decode[event.ErrorEvent](t, a.expect(event.EventError))
	assert.Equal(t, "unknown event: dance", errEv.Message)

	require.NoError(t, a.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	errEv = decode[event.ErrorEvent](t, a.expect(event.EventError))
	assert.Equal(t, "invalid event format", errEv.Message)

	// the connection survives both
	a.send(event.EventSendMessage, event.SendMessagePayload{ReceiverID: "", Content: "x"})
	errEv = decode[event.ErrorEvent](t, a.expect(event.EventError))
	assert.Equal(t, "receiverId is required", errEv.Message)
}

// -----------------------------------------------------------------
// Messages and typing
// -----------------------------------------------------------------

func TestSendMessage_DeliversAndAcknowledges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice")
	bob := env.user("bob")

	a := env.connect(alice)
	b := env.connect(bob)

	a.send(event.EventSendMessage, event.SendMessagePayload{
		ReceiverID: bob.ID.Hex(),
		Content:    "  hello bob  ",
	})

	received := decode[model.PopulatedMessage](t, b.expect(event.EventReceiveMessage))
	assert.Equal(t, "hello bob", received.Content)
	assert.Equal(t, model.MessageTypeText, received.Type)
	assert.Equal(t, alice.ID, received.Sender.ID)
	assert.Equal(t, "alice", received.Sender.Name)
	assert.Equal(t, "bob", received.Receiver.Name)

	sent := decode[model.PopulatedMessage](t, a.expect(event.EventMessageSent))
	assert.Equal(t, received.ID, sent.ID)
	a.expectNone(event.EventMessageSent, 200*time.Millisecond)

	stored, err := env.store.Messages.GetConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "hello bob", stored[0].Content)
	assert.Equal(t, sent.ID, stored[0].ID)
}

func TestSendMessage_OfflineReceiverIsPersisted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice")
	bob := env.user("bob")

	a := env.connect(alice)
	a.send(event.EventSendMessage, event.SendMessagePayload{
		ReceiverID: bob.ID.Hex(),
		Content:    "see you later",
		Type:       model.MessageTypeImage,
		MediaURL:   "https://cdn.example.com/a.png",
	})

	sent := decode[model.PopulatedMessage](t, a.expect(event.EventMessageSent))
	assert.Equal(t, model.MessageTypeImage, sent.Type)
	assert.Equal(t, "https://cdn.example.com/a.png", sent.MediaURL)

	stored, err := env.store.Messages.GetConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSendMessage_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice")
	bob := env.user("bob")
	a := env.connect(alice)

	cases := []struct {
		name    string
		payload event.SendMessagePayload
		message string
	}{
		{"blank content", event.SendMessagePayload{ReceiverID: bob.ID.Hex(), Content: "   "}, "content is required"},
		{"bad type", event.SendMessagePayload{ReceiverID: bob.ID.Hex(), Content: "x", Type: "sticker"}, "invalid message type: sticker"},
		{"unknown receiver", event.SendMessagePayload{ReceiverID: "65f000000000000000000000", Content: "x"}, "Receiver not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a.send(event.EventSendMessage, tc.payload)
			errEv := decode[event.ErrorEvent](t, a.expect(event.EventError))
			assert.Equal(t, tc.message, errEv.Message)
		})
	}

	stored, err := env.store.Messages.GetConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

type failingMessages struct {
	repo.MessageRepository
}

func (failingMessages) InsertMessage(context.Context, *model.Message) error {
	return errors.New("disk full")
}

func TestSendMessage_PersistFailureNotifiesSenderOnly(t *testing.T) {
	env := newTestEnv(t, func(d *Deps, _ *Options) {
		d.Messages = failingMessages{d.Messages}
	})
	alice := env.user("alice")
	bob := env.user("bob")
	a := env.connect(alice)
	b := env.connect(bob)

	a.send(event.EventSendMessage, event.SendMessagePayload{ReceiverID: bob.ID.Hex(), Content: "lost"})

	errEv := decode[event.ErrorEvent](t, a.expect(event.EventError))
	assert.Equal(t, failedToSendMessage, errEv.Message)
	b.expectNone(event.EventReceiveMessage, 200*time.Millisecond)
}

func TestTyping(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user("alice")
	bob := env.user("bob")
	carol := env.user("carol")

	a := env.connect(alice)
	b := env.connect(bob)

	a.send(event.EventTyping, event.TypingPayload{ReceiverID: bob.ID.Hex(), IsTyping: true})
	typing := decode[event.UserTypingEvent](t, b.expect(event.EventUserTyping))
	assert.Equal(t, alice.ID.Hex(), typing.UserID)
	assert.True(t, typing.IsTyping)

	// offline receiver: dropped, no error to the sender
	a.send(event.EventTyping, event.TypingPayload{ReceiverID: carol.ID.Hex(), IsTyping: true})
	a.expectNone(event.EventError, 200*time.Millisecond)
}

// -----------------------------------------------------------------
// Calls
// -----------------------------------------------------------------

func TestCall_AcceptAndEndRecordsDuration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice")
	bob := env.user("bob")
	a := env.connect(alice)
	b := env.connect(bob)

	a.send(event.EventCallRequest, event.CallRequestPayload{ReceiverID: bob.ID.Hex(), Type: model.CallTypeVideo})
	incoming := decode[event.CallIncomingEvent](t, b.expect(event.EventCallRequest))
	require.NotNil(t, incoming.Call)
	assert.Equal(t, alice.ID.Hex(), incoming.CallerID)
	assert.Equal(t, "alice", incoming.CallerName)
	assert.Equal(t, "alice.png", incoming.CallerAvatar)
	assert.Equal(t, model.CallTypeVideo, incoming.Type)
	assert.Equal(t, model.CallStatusInitiated, incoming.Call.Status)
	assert.True(t, incoming.Call.MediaSettings.VideoEnabled)

	callID := incoming.Call.ID
	b.send(event.EventCallAccept, event.CallAcceptPayload{CallID: callID.Hex(), CallerID: alice.ID.Hex()})
	accepted := decode[event.CallStateEvent](t, a.expect(event.EventCallAccepted))
	assert.Equal(t, model.CallStatusOngoing, accepted.Call.Status)
	require.NotNil(t, accepted.Call.StartTime)
	assert.Nil(t, accepted.Media)

	env.clock.Add(65 * time.Second)

	a.send(event.EventCallEnd, event.CallEndPayload{CallID: callID.Hex(), ParticipantID: bob.ID.Hex()})
	ended := decode[event.CallEndedEvent](t, b.expect(event.EventCallEnded))
	assert.Equal(t, callID.Hex(), ended.CallID)

	stored, err := env.store.Calls.GetCall(ctx, callID)
	require.NoError(t, err)
	assert.Equal(t, model.CallStatusCompleted, stored.Status)
	assert.Equal(t, 65, stored.Duration)
	require.NotNil(t, stored.EndTime)
	assert.Empty(t, env.hub.Calls().ActiveCalls())

	// ending again is a silent no-op
	a.send(event.EventCallEnd, event.CallEndPayload{CallID: callID.Hex(), ParticipantID: bob.ID.Hex()})
	a.expectNone(event.EventError, 200*time.Millisecond)
}

func TestCall_OnlyReceiverMayAccept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice")
	bob := env.user("bob")
	a := env.connect(alice)
	b := env.connect(bob)

	a.send(event.EventCallRequest, event.CallRequestPayload{ReceiverID: bob.ID.Hex()})
	incoming := decode[event.CallIncomingEvent](t, b.expect(event.EventCallRequest))
	assert.Equal(t, model.CallTypeAudio, incoming.Type)

	a.send(event.EventCallAccept, event.CallAcceptPayload{CallID: incoming.Call.ID.Hex()})
	a.expectNone(event.EventError, 200*time.Millisecond)

	stored, err := env.store.Calls.GetCall(ctx, incoming.Call.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CallStatusInitiated, stored.Status)
}

func TestCall_Reject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice")
	bob := env.user("bob")
	a := env.connect(alice)
	b := env.connect(bob)

	a.send(event.EventCallRequest, event.CallRequestPayload{ReceiverID: bob.ID.Hex()})
	incoming := decode[event.CallIncomingEvent](t, b.expect(event.EventCallRequest))

	b.send(event.EventCallReject, event.CallRejectPayload{CallID: incoming.Call.ID.Hex(), CallerID: alice.ID.Hex()})
	rejected := decode[event.CallStateEvent](t, a.expect(event.EventCallRejected))
	assert.Equal(t, model.CallStatusRejected, rejected.Call.Status)
	assert.NotNil(t, rejected.Call.EndTime)

	// a late accept loses the race silently
	b.send(event.EventCallAccept, event.CallAcceptPayload{CallID: incoming.Call.ID.Hex()})
	b.expectNone(event.EventError, 200*time.Millisecond)

	stored, err := env.store.Calls.GetCall(ctx, incoming.Call.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CallStatusRejected, stored.Status)
	assert.Equal(t, 0, stored.Duration)
}

func TestCall_DuplicateActiveCallIsRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice")
	bob := env.user("bob")
	a := env.connect(alice)
	b := env.connect(bob)

	a.send(event.EventCallRequest, event.CallRequestPayload{ReceiverID: bob.ID.Hex()})
	b.expect(event.EventCallRequest)

	b.send(event.EventCallRequest, event.CallRequestPayload{ReceiverID: alice.ID.Hex()})
	errEv := decode[event.ErrorEvent](t, b.expect(event.EventError))
	assert.Equal(t, repo.ErrActiveCallExists.Error(), errEv.Message)
	a.expectNone(event.EventCallRequest, 200*time.Millisecond)

	calls, err := env.store.Calls.ListCallsForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, calls, 1)
}

func TestCall_HangUpBeforeAnswerIsMissed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice")
	bob := env.user("bob")
	a := env.connect(alice)
	b := env.connect(bob)

	a.send(event.EventCallRequest, event.CallRequestPayload{ReceiverID: bob.ID.Hex()})
	incoming := decode[event.CallIncomingEvent](t, b.expect(event.EventCallRequest))

	env.clock.Add(10 * time.Second)
	a.send(event.EventCallEnd, event.CallEndPayload{CallID: incoming.Call.ID.Hex(), ParticipantID: bob.ID.Hex()})
	b.expect(event.EventCallEnded)

	stored, err := env.store.Calls.GetCall(ctx, incoming.Call.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CallStatusMissed, stored.Status)
	assert.Equal(t, 0, stored.Duration)
	assert.Nil(t, stored.StartTime)
}

func TestCall_RingTimeoutMarksMissed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice")
	bob := env.user("bob")
	a := env.connect(alice)
	b := env.connect(bob)

	a.send(event.EventCallRequest, event.CallRequestPayload{ReceiverID: bob.ID.Hex()})
	incoming := decode[event.CallIncomingEvent](t, b.expect(event.EventCallRequest))

	env.clock.Add(DefaultRingTimeout)

	missedA := decode[event.CallStateEvent](t, a.expect(event.EventCallMissed))
	missedB := decode[event.CallStateEvent](t, b.expect(event.EventCallMissed))
	assert.Equal(t, incoming.Call.ID, missedA.Call.ID)
	assert.Equal(t, model.CallStatusMissed, missedB.Call.Status)

	stored, err := env.store.Calls.GetCall(ctx, incoming.Call.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CallStatusMissed, stored.Status)

	// the pair is free again
	a.send(event.EventCallRequest, event.CallRequestPayload{ReceiverID: bob.ID.Hex()})
	b.expect(event.EventCallRequest)
}

func TestCall_OfflineReceiverGetsRecordOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice")
	bob := env.user("bob")
	a := env.connect(alice)

	a.send(event.EventCallRequest, event.CallRequestPayload{ReceiverID: bob.ID.Hex()})

	var calls []model.Call
	require.Eventually(t, func() bool {
		var err error
		calls, err = env.store.Calls.ListCallsForUser(ctx, bob.ID)
		return err == nil && len(calls) == 1
	}, eventWait, 20*time.Millisecond)
	assert.Equal(t, model.CallStatusInitiated, calls[0].Status)
	a.expectNone(event.EventError, 200*time.Millisecond)
}

func TestCall_UnknownReceiverIsDropped(t *testing.T) {
	env := newTestEnv(t)
	a := env.connect(env.user("alice"))

	a.send(event.EventCallRequest, event.CallRequestPayload{ReceiverID: "65f000000000000000000000"})
	a.expectNone(event.EventError, 200*time.Millisecond)

	a.send(event.EventCallRequest, event.CallRequestPayload{ReceiverID: "65f000000000000000000000", Type: "hologram"})
	errEv := decode[event.ErrorEvent](t, a.expect(event.EventError))
	assert.Equal(t, "invalid call type: hologram", errEv.Message)
}

func TestCall_SignalPassThrough(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user("alice")
	bob := env.user("bob")
	a := env.connect(alice)
	b := env.connect(bob)

	signal := json.RawMessage(`{"sdp":"v=0...","kind":"offer"}`)
	a.send(event.EventCallSignal, event.CallSignalPayload{ReceiverID: bob.ID.Hex(), Signal: signal, Type: "offer"})

	got := decode[event.CallSignalEvent](t, b.expect(event.EventCallSignal))
	assert.Equal(t, alice.ID.Hex(), got.CallerID)
	assert.Equal(t, "alice", got.CallerName)
	assert.Equal(t, "offer", got.Type)
	assert.JSONEq(t, string(signal), string(got.Signal))
}

func TestMonitor_ReportsSessionsAndCalls(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user("alice")
	bob := env.user("bob")
	a := env.connect(alice)
	b := env.connect(bob)

	a.send(event.EventCallRequest, event.CallRequestPayload{ReceiverID: bob.ID.Hex()})
	b.expect(event.EventCallRequest)

	stats := NewMonitorService(env.hub).GetStats()
	assert.Equal(t, "healthy", stats.Status)
	assert.Equal(t, 2, stats.Connections.TotalConnected)
	assert.Equal(t, 2, stats.Connections.TotalInCall)
	assert.Equal(t, 1, stats.Calls.TotalActiveCalls)
	assert.Equal(t, 1, stats.Calls.TotalRinging)
	assert.Len(t, stats.Clients, 2)
	assert.Equal(t, 2, stats.StatusCount[model.StatusOnline])
}
