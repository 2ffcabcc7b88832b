package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnswerCache keeps recently generated answers per room so repeated
// questions skip the embedding and generation round trips. Entries live
// in one hash per room, which lets a room deletion drop the whole set
// with a single key.
type AnswerCache struct {
	client    *redisv9.Client
	answerTTL time.Duration
}

func NewAnswerCache(client *redisv9.Client, answerTTL time.Duration) *AnswerCache {
	if answerTTL <= 0 {
		answerTTL = 5 * time.Minute
	}
	return &AnswerCache{
		client:    client,
		answerTTL: answerTTL,
	}
}

func (c *AnswerCache) GetAnswer(ctx context.Context, roomID primitive.ObjectID, query string) (string, bool, error) {
	answer, err := c.client.HGet(ctx, c.roomKey(roomID), queryField(query)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get answer failed: %w", err)
	}
	return answer, true, nil
}

func (c *AnswerCache) SetAnswer(ctx context.Context, roomID primitive.ObjectID, query, answer string) error {
	key := c.roomKey(roomID)
	if err := c.client.HSet(ctx, key, queryField(query), answer).Err(); err != nil {
		return fmt.Errorf("redis set answer failed: %w", err)
	}
	// The TTL covers the whole room hash; a hot room keeps refreshing it.
	if err := c.client.Expire(ctx, key, c.answerTTL).Err(); err != nil {
		return fmt.Errorf("redis expire answers failed: %w", err)
	}
	return nil
}

func (c *AnswerCache) DeleteRoom(ctx context.Context, roomID primitive.ObjectID) error {
	if err := c.client.Del(ctx, c.roomKey(roomID)).Err(); err != nil {
		return fmt.Errorf("redis delete answers failed: %w", err)
	}
	return nil
}

func (c *AnswerCache) roomKey(roomID primitive.ObjectID) string {
	return fmt.Sprintf("room:answers:%s", roomID.Hex())
}

// queryField normalizes case and spacing before hashing so trivially
// reworded repeats of the same question still hit.
func queryField(query string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
