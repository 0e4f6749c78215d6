package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const ChatMembershipQueue = "chat_membership_queue"

// ChatMembershipCommand is consumed by the chat service worker.
type ChatMembershipCommand struct {
	Action      string    `json:"action"`
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	RequestedAt time.Time `json:"requested_at"`
}

const (
	ChatActionAdd    = "add"
	ChatActionRemove = "remove"
)

// ChatOutbox queues chat membership changes on a Redis list.
type ChatOutbox struct {
	redis *redis.Client
	now   func() time.Time
}

func NewChatOutbox(redisClient *redis.Client) *ChatOutbox {
	return &ChatOutbox{
		redis: redisClient,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (c *ChatOutbox) AddUserToEventChat(ctx context.Context, eventID, userID string) error {
	return c.enqueue(ctx, ChatActionAdd, eventID, userID)
}

func (c *ChatOutbox) RemoveUserFromEventChat(ctx context.Context, eventID, userID string) error {
	return c.enqueue(ctx, ChatActionRemove, eventID, userID)
}

func (c *ChatOutbox) enqueue(ctx context.Context, action, eventID, userID string) error {
	data, err := json.Marshal(ChatMembershipCommand{
		Action:      action,
		EventID:     eventID,
		UserID:      userID,
		RequestedAt: c.now(),
	})
	if err != nil {
		return err
	}

	if err := c.redis.RPush(ctx, ChatMembershipQueue, data).Err(); err != nil {
		return fmt.Errorf("queue chat %s for event %s: %w", action, eventID, err)
	}
	return nil
}
