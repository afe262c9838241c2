package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisStore はセッションを Redis に JSON で保存します。有効期限はキーの TTL で管理します。
type RedisStore struct {
	rdb redis.UniversalClient
}

// NewRedisStore は RedisStore を作成します。
func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// NewRedisStoreFromURL は接続URLから Redis クライアントを作成し、疎通を確認します。
func NewRedisStoreFromURL(ctx context.Context, rawURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisStore(client), nil
}

// Save はセッションを保存します。
func (s *RedisStore) Save(ctx context.Context, token string, record *Record, ttl time.Duration) error {
	if token == "" {
		return ErrEmptyToken
	}
	if record == nil {
		return errors.New("record is nil")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(token), payload, ttl).Err()
}

// Load はセッションを取得します。
func (s *RedisStore) Load(ctx context.Context, token string) (*Record, error) {
	data, err := s.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Delete はセッションを削除します。
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}

// Close は Redis クライアントを閉じます。
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}
