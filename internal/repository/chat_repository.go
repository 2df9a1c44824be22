package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
)

// ChatRepository is an append-only in-memory message log.
type ChatRepository struct {
	mu       sync.RWMutex
	messages []domain.ChatMessage
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{}
}

func (r *ChatRepository) Append(ctx context.Context, msg domain.ChatMessage) (*domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	r.messages = append(r.messages, msg)
	return &msg, nil
}

// List returns messages in send order. A positive limit keeps only the
// most recent ones.
func (r *ChatRepository) List(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}
