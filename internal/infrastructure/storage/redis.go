// internal/infrastructure/storage/redis.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisFactory opens Redis-backed stores sharing one client
type RedisFactory struct {
	client    *redis.Client
	keyPrefix string
	logger    *logrus.Logger
}

// NewRedisFactory creates a new Redis store factory
func NewRedisFactory(client *redis.Client, keyPrefix string, logger *logrus.Logger) *RedisFactory {
	return &RedisFactory{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

// Open returns the store view of one execution context
func (f *RedisFactory) Open(origin, contextID string) Store {
	return NewRedisStore(f.client, f.keyPrefix, origin, contextID, f.logger)
}

// RedisStore keeps values under "<prefix>:<origin>:<key>" and announces every write
// on the origin's change channel.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	origin    string
	contextID string
	logger    *logrus.Logger
}

// NewRedisStore creates a store for one execution context of an origin
func NewRedisStore(client *redis.Client, keyPrefix, origin, contextID string, logger *logrus.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		origin:    origin,
		contextID: contextID,
		logger:    logger,
	}
}

// ContextID returns the execution context this view writes as
func (s *RedisStore) ContextID() string {
	return s.contextID
}

// Get retrieves a value by key
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return value, nil
}

// Set stores a value and publishes the change in the same transaction
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	payload, err := s.changePayload(key, OpSet)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.redisKey(key), value, 0)
		pipe.Publish(ctx, s.channel(), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes a key and publishes the change in the same transaction
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	payload, err := s.changePayload(key, OpDelete)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.redisKey(key))
		pipe.Publish(ctx, s.channel(), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Subscribe listens for writes to key made by other execution contexts.
// It returns once the subscription is confirmed by the server.
func (s *RedisStore) Subscribe(ctx context.Context, key string, fn func(Change)) (Subscription, error) {
	pubsub := s.client.Subscribe(ctx, s.channel())
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("redis subscribe failed: %w", err)
	}

	messages := pubsub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					s.logger.WithFields(logrus.Fields{
						"channel": msg.Channel,
						"error":   err,
					}).Warn("Dropping malformed change notification")
					continue
				}
				if change.Key != key || change.ContextID == s.contextID {
					continue
				}
				fn(change)
			}
		}
	}()

	return pubsub, nil
}

func (s *RedisStore) changePayload(key string, op Op) (string, error) {
	data, err := json.Marshal(Change{Key: key, ContextID: s.contextID, Op: op})
	if err != nil {
		return "", fmt.Errorf("marshal change failed: %w", err)
	}
	return string(data), nil
}

func (s *RedisStore) redisKey(key string) string {
	return fmt.Sprintf("%s:%s:%s", s.keyPrefix, s.origin, key)
}

func (s *RedisStore) channel() string {
	return fmt.Sprintf("%s:%s:changes", s.keyPrefix, s.origin)
}
