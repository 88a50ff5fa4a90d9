//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=../../mocks/mock_message_repository.go -package=mocks
package message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/christmas-fire/courier/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrObserverFailed  = errors.New("after create observer failed")
)

// HistoryWriter records history rows inside the transaction of the update being
// intercepted. Rows written through it become visible together with the update.
type HistoryWriter interface {
	CreateHistory(ctx context.Context, h *models.MessageHistory) error
}

// UpdateInterceptor runs before an update is committed. old is the stored row read
// under the row lock, nil when no message with incoming.ID exists. Interceptors may
// modify incoming; returning an error aborts the update.
type UpdateInterceptor interface {
	BeforeUpdate(ctx context.Context, w HistoryWriter, old, incoming *models.Message) error
}

// CreateObserver runs once after a message create has committed.
type CreateObserver interface {
	AfterCreate(ctx context.Context, msg *models.Message) error
}

type Hooks struct {
	BeforeUpdate []UpdateInterceptor
	AfterCreate  []CreateObserver
}

type Filter struct {
	SenderID   int64
	ReceiverID int64
	// Between selects messages exchanged by the two users in either direction.
	Between  [2]int64
	ParentID string
	Edited   *bool
	Limit    int
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	Get(ctx context.Context, id string) (*models.Message, error)
	Update(ctx context.Context, msg *models.Message) error
	Filter(ctx context.Context, f Filter) ([]models.Message, error)
	History(ctx context.Context, messageID string) ([]models.MessageHistory, error)
}

type postgresRepository struct {
	db    *pgxpool.Pool
	hooks Hooks
}

func NewPostgresRepository(db *pgxpool.Pool, hooks Hooks) MessageRepository {
	return &postgresRepository{db: db, hooks: hooks}
}

const messageColumns = "id::text, sender_id, receiver_id, content, created_at, edited, edited_at, edited_by, parent_id::text"

func scanMessage(row pgx.Row, msg *models.Message) error {
	return row.Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.CreatedAt,
		&msg.Edited, &msg.EditedAt, &msg.EditedBy, &msg.ParentID,
	)
}

func (r *postgresRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()
	msg.Edited = false
	msg.EditedAt = nil
	msg.EditedBy = nil

	query := `
		INSERT INTO messages (id, sender_id, receiver_id, content, created_at, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.CreatedAt, msg.ParentID)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return notifyCreated(ctx, r.hooks.AfterCreate, msg)
}

func (r *postgresRepository) Get(ctx context.Context, id string) (*models.Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrMessageNotFound
	}

	query := "SELECT " + messageColumns + " FROM messages WHERE id = $1"

	var msg models.Message
	if err := scanMessage(r.db.QueryRow(ctx, query, id), &msg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

func (r *postgresRepository) Update(ctx context.Context, msg *models.Message) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var old *models.Message
	if _, perr := uuid.Parse(msg.ID); perr == nil {
		var stored models.Message
		lockQuery := "SELECT " + messageColumns + " FROM messages WHERE id = $1 FOR UPDATE"
		err = scanMessage(tx.QueryRow(ctx, lockQuery, msg.ID), &stored)
		switch {
		case err == nil:
			old = &stored
		case errors.Is(err, pgx.ErrNoRows):
		default:
			return fmt.Errorf("failed to lock message: %w", err)
		}
	}

	w := &txHistoryWriter{tx: tx}
	for _, interceptor := range r.hooks.BeforeUpdate {
		if err := interceptor.BeforeUpdate(ctx, w, old, msg); err != nil {
			return fmt.Errorf("before update interceptor: %w", err)
		}
	}

	if old == nil {
		return ErrMessageNotFound
	}

	updateQuery := `
		UPDATE messages
		SET content = $2, edited = $3, edited_at = $4, edited_by = $5
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, updateQuery, msg.ID, msg.Content, msg.Edited, msg.EditedAt, msg.EditedBy); err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	msg.SenderID, msg.ReceiverID = old.SenderID, old.ReceiverID
	msg.CreatedAt, msg.ParentID = old.CreatedAt, old.ParentID
	return nil
}

func (r *postgresRepository) Filter(ctx context.Context, f Filter) ([]models.Message, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.SenderID != 0 {
		conds = append(conds, "sender_id = "+arg(f.SenderID))
	}
	if f.ReceiverID != 0 {
		conds = append(conds, "receiver_id = "+arg(f.ReceiverID))
	}
	if f.Between != [2]int64{} {
		a, b := arg(f.Between[0]), arg(f.Between[1])
		conds = append(conds, fmt.Sprintf("((sender_id = %s AND receiver_id = %s) OR (sender_id = %s AND receiver_id = %s))", a, b, b, a))
	}
	if f.ParentID != "" {
		if _, err := uuid.Parse(f.ParentID); err != nil {
			return nil, nil
		}
		conds = append(conds, "parent_id = "+arg(f.ParentID))
	}
	if f.Edited != nil {
		conds = append(conds, "edited = "+arg(*f.Edited))
	}

	query := "SELECT " + messageColumns + " FROM messages"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := scanMessage(rows, &msg); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

func (r *postgresRepository) History(ctx context.Context, messageID string) ([]models.MessageHistory, error) {
	if _, err := uuid.Parse(messageID); err != nil {
		return nil, nil
	}

	query := `
		SELECT id, message_id::text, content, saved_at, edited_by
		FROM message_history
		WHERE message_id = $1
		ORDER BY saved_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query message history: %w", err)
	}
	defer rows.Close()

	var history []models.MessageHistory
	for rows.Next() {
		var h models.MessageHistory
		if err := rows.Scan(&h.ID, &h.MessageID, &h.Content, &h.SavedAt, &h.EditedBy); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		history = append(history, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}

	return history, nil
}

type txHistoryWriter struct {
	tx pgx.Tx
}

func (w *txHistoryWriter) CreateHistory(ctx context.Context, h *models.MessageHistory) error {
	if h.SavedAt.IsZero() {
		h.SavedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO message_history (message_id, content, saved_at, edited_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := w.tx.QueryRow(ctx, query, h.MessageID, h.Content, h.SavedAt, h.EditedBy).Scan(&h.ID); err != nil {
		return fmt.Errorf("failed to insert message history: %w", err)
	}
	return nil
}

func notifyCreated(ctx context.Context, observers []CreateObserver, msg *models.Message) error {
	var errs []error
	for _, o := range observers {
		if err := o.AfterCreate(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrObserverFailed, errors.Join(errs...))
	}
	return nil
}
