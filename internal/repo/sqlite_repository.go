package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"Voxline/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// NewSQLiteStore builds a Store over an opened embedded database
func NewSQLiteStore(conn *sql.DB, logger *zap.Logger) *Store {
	return &Store{
		Users:    &sqliteUserRepository{db: conn, logger: logger},
		Messages: &sqliteMessageRepository{db: conn, logger: logger},
		Calls:    &sqliteCallRepository{db: conn, logger: logger},
		closer: func(context.Context) error {
			return conn.Close()
		},
	}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

type rowScanner interface {
	Scan(dest ...any) error
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

type sqliteUserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

const userColumns = `id, name, email, password_hash, avatar, status, last_active, created_at`

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u                     model.User
		id                    string
		lastActive, createdAt int64
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.Status, &lastActive, &createdAt); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", id, err)
	}
	u.ID = oid
	u.LastActive = fromMillis(lastActive)
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

func (r *sqliteUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.New("invalid user: user cannot be nil")
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID.Hex(), user.Name, user.Email, user.PasswordHash, user.Avatar, user.Status,
		toMillis(user.LastActive), toMillis(user.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		r.logger.Error("failed to insert user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *sqliteUserRepository) GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.Hex())
}

func (r *sqliteUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *sqliteUserRepository) getOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *sqliteUserRepository) ListUsers(ctx context.Context, exclude primitive.ObjectID) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	excludeID := ""
	if !exclude.IsZero() {
		excludeID = exclude.Hex()
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id != ? ORDER BY name`, excludeID)
	if err != nil {
		r.logger.Error("failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *sqliteUserRepository) UpdatePresence(ctx context.Context, id primitive.ObjectID, status string, lastActive time.Time) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = ?, last_active = ? WHERE id = ?`,
		status, toMillis(lastActive), id.Hex())
	if err != nil {
		r.logger.Error("failed to update presence", zap.String("user_id", id.Hex()), zap.Error(err))
		return fmt.Errorf("failed to update presence: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// -----------------------------------------------------------------------------
// Messages
// -----------------------------------------------------------------------------

type sqliteMessageRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

const messageColumns = `id, sender_id, receiver_id, content, type, media_url, is_read, read_at, created_at`

func scanMessage(row rowScanner) (*model.Message, error) {
	var (
		m                        model.Message
		id, senderID, receiverID string
		readAt                   sql.NullInt64
		createdAt                int64
	)
	if err := row.Scan(&id, &senderID, &receiverID, &m.Content, &m.Type, &m.MediaURL, &m.IsRead, &readAt, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if m.ID, err = primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("corrupt message id %q: %w", id, err)
	}
	if m.SenderID, err = primitive.ObjectIDFromHex(senderID); err != nil {
		return nil, fmt.Errorf("corrupt sender id %q: %w", senderID, err)
	}
	if m.ReceiverID, err = primitive.ObjectIDFromHex(receiverID); err != nil {
		return nil, fmt.Errorf("corrupt receiver id %q: %w", receiverID, err)
	}
	m.ReadAt = timePtr(readAt)
	m.CreatedAt = fromMillis(createdAt)
	return &m, nil
}

func (r *sqliteMessageRepository) InsertMessage(ctx context.Context, msg *model.Message) error {
	if msg == nil {
		return ErrInvalidMessage
	}
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID.Hex(), msg.SenderID.Hex(), msg.ReceiverID.Hex(), msg.Content, msg.Type, msg.MediaURL,
		msg.IsRead, nullMillis(msg.ReadAt), toMillis(msg.CreatedAt))
	if err != nil {
		r.logger.Error("failed to insert message",
			zap.String("sender_id", msg.SenderID.Hex()),
			zap.String("receiver_id", msg.ReceiverID.Hex()),
			zap.Error(err))
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *sqliteMessageRepository) GetMessage(ctx context.Context, id primitive.ObjectID) (*model.Message, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msg, err := scanMessage(r.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id.Hex()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

func (r *sqliteMessageRepository) GetConversation(ctx context.Context, a, b primitive.ObjectID) ([]model.Message, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		 ORDER BY created_at, rowid`,
		a.Hex(), b.Hex(), b.Hex(), a.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

func (r *sqliteMessageRepository) MarkConversationRead(ctx context.Context, readerID, otherID primitive.ObjectID, at time.Time) (int64, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = 1, read_at = ?
		 WHERE sender_id = ? AND receiver_id = ? AND is_read = 0`,
		toMillis(at), otherID.Hex(), readerID.Hex())
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return res.RowsAffected()
}

func (r *sqliteMessageRepository) DeleteMessage(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id.Hex())
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// -----------------------------------------------------------------------------
// Calls
// -----------------------------------------------------------------------------

type sqliteCallRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

const callColumns = `id, caller_id, receiver_id, type, status, start_time, end_time, duration,
	audio_enabled, video_enabled, speaker_enabled, pair_key, created_at, updated_at`

func scanCall(row rowScanner) (*model.Call, error) {
	var (
		c                    model.Call
		id, callerID, recvID string
		status               string
		startTime, endTime   sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(&id, &callerID, &recvID, &c.Type, &status, &startTime, &endTime, &c.Duration,
		&c.MediaSettings.AudioEnabled, &c.MediaSettings.VideoEnabled, &c.MediaSettings.SpeakerEnabled,
		&c.PairKey, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if c.ID, err = primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("corrupt call id %q: %w", id, err)
	}
	if c.CallerID, err = primitive.ObjectIDFromHex(callerID); err != nil {
		return nil, fmt.Errorf("corrupt caller id %q: %w", callerID, err)
	}
	if c.ReceiverID, err = primitive.ObjectIDFromHex(recvID); err != nil {
		return nil, fmt.Errorf("corrupt receiver id %q: %w", recvID, err)
	}
	c.Status = model.CallStatus(status)
	c.Active = c.Status.IsActive()
	c.StartTime = timePtr(startTime)
	c.EndTime = timePtr(endTime)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return &c, nil
}

func (r *sqliteCallRepository) InsertCall(ctx context.Context, call *model.Call) error {
	if call == nil {
		return ErrInvalidCall
	}
	if call.ID.IsZero() {
		call.ID = primitive.NewObjectID()
	}
	call.PairKey = model.PairKey(call.CallerID.Hex(), call.ReceiverID.Hex())
	call.Active = call.Status.IsActive()

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO calls (`+callColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		call.ID.Hex(), call.CallerID.Hex(), call.ReceiverID.Hex(), call.Type, string(call.Status),
		nullMillis(call.StartTime), nullMillis(call.EndTime), call.Duration,
		call.MediaSettings.AudioEnabled, call.MediaSettings.VideoEnabled, call.MediaSettings.SpeakerEnabled,
		call.PairKey, toMillis(call.CreatedAt), toMillis(call.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrActiveCallExists
		}
		r.logger.Error("failed to insert call", zap.String("pair_key", call.PairKey), zap.Error(err))
		return fmt.Errorf("failed to insert call: %w", err)
	}
	return nil
}

func (r *sqliteCallRepository) GetCall(ctx context.Context, id primitive.ObjectID) (*model.Call, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()
	return r.getOne(ctx, r.db, `SELECT `+callColumns+` FROM calls WHERE id = ?`, id.Hex())
}

func (r *sqliteCallRepository) GetActiveCall(ctx context.Context, a, b primitive.ObjectID) (*model.Call, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()
	return r.getOne(ctx, r.db,
		`SELECT `+callColumns+` FROM calls WHERE pair_key = ? AND status IN ('initiated', 'ongoing')`,
		model.PairKey(a.Hex(), b.Hex()))
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *sqliteCallRepository) getOne(ctx context.Context, q queryRower, query string, args ...any) (*model.Call, error) {
	call, err := scanCall(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	return call, nil
}

func (r *sqliteCallRepository) TransitionCall(ctx context.Context, id primitive.ObjectID, from []model.CallStatus, update model.CallUpdate) (*model.Call, error) {
	if len(from) == 0 {
		return nil, ErrCallStateConflict
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to transition call: %w", err)
	}
	defer tx.Rollback()

	var duration sql.NullInt64
	if update.Duration != nil {
		duration = sql.NullInt64{Int64: int64(*update.Duration), Valid: true}
	}

	args := []any{
		string(update.Status),
		toMillis(update.UpdatedAt),
		nullMillis(update.StartTime),
		nullMillis(update.EndTime),
		duration,
		id.Hex(),
	}
	for _, s := range statusStrings(from) {
		args = append(args, s)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE calls SET
			status = ?,
			updated_at = ?,
			start_time = COALESCE(?, start_time),
			end_time = COALESCE(?, end_time),
			duration = COALESCE(?, duration)
		 WHERE id = ? AND status IN (`+placeholders(len(from))+`)`,
		args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrActiveCallExists
		}
		r.logger.Error("failed to transition call", zap.String("call_id", id.Hex()), zap.Error(err))
		return nil, fmt.Errorf("failed to transition call: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM calls WHERE id = ?`, id.Hex()).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to transition call: %w", err)
		}
		return nil, ErrCallStateConflict
	}

	call, err := r.getOne(ctx, tx, `SELECT `+callColumns+` FROM calls WHERE id = ?`, id.Hex())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to transition call: %w", err)
	}
	return call, nil
}

func (r *sqliteCallRepository) UpdateMediaSettings(ctx context.Context, id primitive.ObjectID, settings model.MediaSettings, at time.Time) (*model.Call, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update media settings: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE calls SET audio_enabled = ?, video_enabled = ?, speaker_enabled = ?, updated_at = ? WHERE id = ?`,
		settings.AudioEnabled, settings.VideoEnabled, settings.SpeakerEnabled, toMillis(at), id.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to update media settings: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	call, err := r.getOne(ctx, tx, `SELECT `+callColumns+` FROM calls WHERE id = ?`, id.Hex())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to update media settings: %w", err)
	}
	return call, nil
}

func (r *sqliteCallRepository) ListCallsForUser(ctx context.Context, userID primitive.ObjectID) ([]model.Call, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+callColumns+` FROM calls WHERE caller_id = ? OR receiver_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		userID.Hex(), userID.Hex())
	if err != nil {
		r.logger.Error("failed to list calls", zap.String("user_id", userID.Hex()), zap.Error(err))
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}
	defer rows.Close()

	calls := make([]model.Call, 0)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, *c)
	}
	return calls, rows.Err()
}
