package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"Voxline/internal/db"
	"Voxline/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	store := NewSQLiteStore(conn, zap.NewNop())
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func seedUser(t *testing.T, store *Store, name string) *model.User {
	t.Helper()
	u := &model.User{
		Name:      name,
		Email:     name + "@example.com",
		Status:    model.StatusOffline,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Users.CreateUser(context.Background(), u))
	return u
}

func TestSQLiteUsers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	t.Run("duplicate email", func(t *testing.T) {
		err := store.Users.CreateUser(ctx, &model.User{Name: "other", Email: " ALICE@example.com", CreatedAt: time.Now()})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("lookup", func(t *testing.T) {
		got, err := store.Users.GetUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Name)

		got, err = store.Users.GetUserByEmail(ctx, "Bob@Example.com")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.ID)

		_, err = store.Users.GetUser(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list excludes caller", func(t *testing.T) {
		users, err := store.Users.ListUsers(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, bob.ID, users[0].ID)
	})

	t.Run("presence", func(t *testing.T) {
		at := time.UnixMilli(1_700_000_000_000).UTC()
		require.NoError(t, store.Users.UpdatePresence(ctx, alice.ID, model.StatusOnline, at))

		got, err := store.Users.GetUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusOnline, got.Status)
		assert.True(t, at.Equal(got.LastActive))

		err = store.Users.UpdatePresence(ctx, primitive.NewObjectID(), model.StatusOnline, at)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSQLiteMessages(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	carol := seedUser(t, store, "carol")

	base := time.UnixMilli(1_700_000_000_000).UTC()
	send := func(from, to *model.User, content string, offset time.Duration) *model.Message {
		msg := &model.Message{
			SenderID:   from.ID,
			ReceiverID: to.ID,
			Content:    content,
			Type:       model.MessageTypeText,
			CreatedAt:  base.Add(offset),
		}
		require.NoError(t, store.Messages.InsertMessage(ctx, msg))
		return msg
	}

	first := send(alice, bob, "hi", 0)
	send(bob, alice, "hello", time.Second)
	send(alice, carol, "elsewhere", 2*time.Second)

	conv, err := store.Messages.GetConversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "hi", conv[0].Content)
	assert.Equal(t, "hello", conv[1].Content)

	n, err := store.Messages.MarkConversationRead(ctx, bob.ID, alice.ID, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.Messages.GetMessage(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	require.NotNil(t, got.ReadAt)

	require.NoError(t, store.Messages.DeleteMessage(ctx, first.ID))
	assert.ErrorIs(t, store.Messages.DeleteMessage(ctx, first.ID), ErrNotFound)
}

func TestSQLiteCalls(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	now := time.UnixMilli(1_700_000_000_000).UTC()
	call := model.NewCall(alice.ID, bob.ID, model.CallTypeVideo, now)
	require.NoError(t, store.Calls.InsertCall(ctx, call))

	t.Run("one active call per pair", func(t *testing.T) {
		again := model.NewCall(bob.ID, alice.ID, model.CallTypeAudio, now)
		assert.ErrorIs(t, store.Calls.InsertCall(ctx, again), ErrActiveCallExists)

		active, err := store.Calls.GetActiveCall(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, call.ID, active.ID)
	})

	start := now.Add(5 * time.Second)
	t.Run("accept", func(t *testing.T) {
		got, err := store.Calls.TransitionCall(ctx, call.ID,
			[]model.CallStatus{model.CallStatusInitiated},
			model.CallUpdate{Status: model.CallStatusOngoing, StartTime: &start, UpdatedAt: start})
		require.NoError(t, err)
		assert.Equal(t, model.CallStatusOngoing, got.Status)
		require.NotNil(t, got.StartTime)
		assert.True(t, start.Equal(*got.StartTime))
		assert.True(t, got.MediaSettings.VideoEnabled)
	})

	t.Run("lost race", func(t *testing.T) {
		_, err := store.Calls.TransitionCall(ctx, call.ID,
			[]model.CallStatus{model.CallStatusInitiated},
			model.CallUpdate{Status: model.CallStatusRejected, UpdatedAt: start})
		assert.ErrorIs(t, err, ErrCallStateConflict)

		_, err = store.Calls.TransitionCall(ctx, primitive.NewObjectID(),
			[]model.CallStatus{model.CallStatusInitiated},
			model.CallUpdate{Status: model.CallStatusRejected, UpdatedAt: start})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("media settings", func(t *testing.T) {
		got, err := store.Calls.UpdateMediaSettings(ctx, call.ID, model.MediaSettings{AudioEnabled: false, SpeakerEnabled: true}, start)
		require.NoError(t, err)
		assert.False(t, got.MediaSettings.AudioEnabled)
		assert.True(t, got.MediaSettings.SpeakerEnabled)
	})

	t.Run("end frees the pair", func(t *testing.T) {
		end := start.Add(65 * time.Second)
		duration := model.CallDuration(start, end)
		got, err := store.Calls.TransitionCall(ctx, call.ID,
			[]model.CallStatus{model.CallStatusOngoing},
			model.CallUpdate{Status: model.CallStatusCompleted, EndTime: &end, Duration: &duration, UpdatedAt: end})
		require.NoError(t, err)
		assert.Equal(t, 65, got.Duration)
		assert.False(t, got.Active)

		_, err = store.Calls.GetActiveCall(ctx, alice.ID, bob.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, store.Calls.InsertCall(ctx, model.NewCall(bob.ID, alice.ID, model.CallTypeAudio, end)))
	})

	calls, err := store.Calls.ListCallsForUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, calls, 2)
}
