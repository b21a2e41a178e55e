package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// RedisGridRepository stores each mode as a hash of slot key to JSON slot.
type RedisGridRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisGridRepository constructs the repository. An empty prefix defaults to "sma".
func NewRedisGridRepository(client redis.UniversalClient, prefix string) *RedisGridRepository {
	if prefix == "" {
		prefix = "sma"
	}
	return &RedisGridRepository{client: client, prefix: prefix}
}

func (r *RedisGridRepository) key(mode models.TimetableMode) string {
	return fmt.Sprintf("%s:timetable:%s", r.prefix, mode)
}

// LoadAll returns every slot of the mode.
func (r *RedisGridRepository) LoadAll(ctx context.Context, mode models.TimetableMode) ([]models.Slot, error) {
	key := r.key(mode)
	raw, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", key, err)
	}
	slots := make([]models.Slot, 0, len(raw))
	for field, value := range raw {
		slot, err := decodeSlot(value)
		if err != nil {
			return nil, fmt.Errorf("decode slot %s: %w", field, err)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// ReplaceAll drops the mode's hash and writes slots inside one MULTI/EXEC.
func (r *RedisGridRepository) ReplaceAll(ctx context.Context, mode models.TimetableMode, slots []models.Slot) error {
	key := r.key(mode)
	values := make([]interface{}, 0, len(slots)*2)
	for _, slot := range slots {
		slot.Mode = mode
		payload, err := json.Marshal(slot)
		if err != nil {
			return fmt.Errorf("encode slot %s: %w", slot.ID().Key(), err)
		}
		values = append(values, slot.ID().Key(), payload)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis replace %s: %w", key, err)
	}
	return nil
}

// Upsert stores slot under id.
func (r *RedisGridRepository) Upsert(ctx context.Context, id models.SlotID, slot models.Slot) error {
	payload, err := json.Marshal(withID(slot, id))
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", id.Key(), err)
	}
	key := r.key(id.Mode)
	if err := r.client.HSet(ctx, key, id.Key(), payload).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

// Delete removes the slot if present.
func (r *RedisGridRepository) Delete(ctx context.Context, id models.SlotID) error {
	key := r.key(id.Mode)
	if err := r.client.HDel(ctx, key, id.Key()).Err(); err != nil {
		return fmt.Errorf("redis hdel %s: %w", key, err)
	}
	return nil
}

func decodeSlot(value string) (models.Slot, error) {
	var slot models.Slot
	if err := json.Unmarshal([]byte(value), &slot); err != nil {
		return models.Slot{}, err
	}
	return slot, nil
}
