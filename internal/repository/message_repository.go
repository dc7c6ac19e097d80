package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// MessageRepository persists broadcast notification messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListBroadcast(ctx context.Context, limit, offset int) ([]domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository instantiates repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (sender_id, receiver_id, content)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.SenderID,
		msg.ReceiverID,
		msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) ListBroadcast(ctx context.Context, limit, offset int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, sender_id, receiver_id, content, created_at
        FROM messages WHERE receiver_id IS NULL
        ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
