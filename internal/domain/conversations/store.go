package conversations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, conversation *Conversation) error {
	query := `
        INSERT INTO conversations (user_one_id, user_two_id)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at
    `
	return r.db.QueryRow(ctx, query,
		conversation.UserOneID,
		conversation.UserTwoID,
	).Scan(&conversation.ID, &conversation.CreatedAt, &conversation.UpdatedAt)
}

const conversationSelect = `
    SELECT c.id, c.user_one_id, c.user_two_id, c.created_at, c.updated_at,
           u1.username, u2.username
    FROM conversations c
    JOIN users u1 ON u1.id = c.user_one_id
    JOIN users u2 ON u2.id = c.user_two_id
`

func (r *Repository) GetByID(ctx context.Context, conversationID int64) (*Conversation, error) {
	var conversation Conversation
	err := r.db.QueryRow(ctx, conversationSelect+` WHERE c.id = $1`, conversationID).Scan(
		&conversation.ID,
		&conversation.UserOneID,
		&conversation.UserTwoID,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
		&conversation.UserOneUsername,
		&conversation.UserTwoUsername,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]Conversation, error) {
	query := conversationSelect + `
        WHERE c.user_one_id = $1 OR c.user_two_id = $1
        ORDER BY c.updated_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var conversation Conversation
		err := rows.Scan(
			&conversation.ID,
			&conversation.UserOneID,
			&conversation.UserTwoID,
			&conversation.CreatedAt,
			&conversation.UpdatedAt,
			&conversation.UserOneUsername,
			&conversation.UserTwoUsername,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, conversation)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, conversationID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, conversationID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) CreateMessage(ctx context.Context, message *Message) error {
	query := `
        INSERT INTO messages (conversation_id, sender_id, content)
        VALUES ($1, $2, $3)
        RETURNING id, read, created_at
    `
	return r.db.QueryRow(ctx, query,
		message.ConversationID,
		message.SenderID,
		message.Content,
	).Scan(&message.ID, &message.Read, &message.CreatedAt)
}

func (r *Repository) ListMessages(ctx context.Context, conversationID int64) ([]Message, error) {
	query := `
        SELECT id, conversation_id, sender_id, content, read, created_at
        FROM messages
        WHERE conversation_id = $1
        ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var message Message
		err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.Content,
			&message.Read,
			&message.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, message)
	}
	return out, rows.Err()
}

func (r *Repository) GetMessage(ctx context.Context, messageID int64) (*Message, error) {
	query := `
        SELECT id, conversation_id, sender_id, content, read, created_at
        FROM messages
        WHERE id = $1
    `
	var message Message
	err := r.db.QueryRow(ctx, query, messageID).Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderID,
		&message.Content,
		&message.Read,
		&message.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &message, nil
}

func (r *Repository) MarkMessageRead(ctx context.Context, messageID int64) error {
	result, err := r.db.Exec(ctx, `UPDATE messages SET read = true WHERE id = $1`, messageID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}
