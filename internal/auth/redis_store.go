package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	redisTokenPrefix = "refresh:token:"
	redisUserPrefix  = "refresh:user:"
)

// RedisRefreshStore shares the refresh token list between instances.
type RedisRefreshStore struct {
	client redis.UniversalClient
}

func NewRedisRefreshStore(client redis.UniversalClient) *RedisRefreshStore {
	return &RedisRefreshStore{client: client}
}

func (s *RedisRefreshStore) Add(ctx context.Context, token, userID string, ttl time.Duration) error {
	userKey := redisUserPrefix + userID

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisTokenPrefix+token, userID, ttl)
		pipe.SAdd(ctx, userKey, token)
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	return errors.Wrap(err, "store refresh token")
}

func (s *RedisRefreshStore) Contains(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, redisTokenPrefix+token).Result()
	if err != nil {
		return false, errors.Wrap(err, "lookup refresh token")
	}
	return n > 0, nil
}

func (s *RedisRefreshStore) Remove(ctx context.Context, token string) error {
	key := redisTokenPrefix + token

	userID, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "lookup refresh token")
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, redisUserPrefix+userID, token)
		return nil
	})
	return errors.Wrap(err, "remove refresh token")
}

func (s *RedisRefreshStore) RemoveUser(ctx context.Context, userID string) error {
	userKey := redisUserPrefix + userID

	tokens, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return errors.Wrap(err, "list user refresh tokens")
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, redisTokenPrefix+token)
	}
	keys = append(keys, userKey)

	return errors.Wrap(s.client.Del(ctx, keys...).Err(), "remove user refresh tokens")
}
