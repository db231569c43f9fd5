package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes the Redis keys when no namespace is configured.
const DefaultNamespace = "authgate"

// RedisStorage persists the credential pair in Redis so a restarted process
// resumes its session. The pair lives under two keys sharing a namespace
// prefix; writes use MSET and deletes a single DEL so both halves move in one
// command.
type RedisStorage struct {
	client     redis.UniversalClient
	accessKey  string
	refreshKey string
}

// NewRedisStorage returns a Storage backed by the given Redis client. An
// empty namespace falls back to [DefaultNamespace].
func NewRedisStorage(client redis.UniversalClient, namespace string) *RedisStorage {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &RedisStorage{
		client:     client,
		accessKey:  fmt.Sprintf("%s:access_token", namespace),
		refreshKey: fmt.Sprintf("%s:refresh_token", namespace),
	}
}

func (s *RedisStorage) Load(ctx context.Context) (Credential, bool, error) {
	vals, err := s.client.MGet(ctx, s.accessKey, s.refreshKey).Result()
	if err != nil {
		return Credential{}, false, fmt.Errorf("session: load credential: %w", err)
	}
	cred := Credential{
		AccessToken:  stringAt(vals, 0),
		RefreshToken: stringAt(vals, 1),
	}
	// A torn pair in storage (crash between external writes, manual key
	// deletion) is treated as no session rather than surfaced half-usable.
	if !cred.Complete() {
		return Credential{}, false, nil
	}
	return cred, true, nil
}

func (s *RedisStorage) Store(ctx context.Context, cred Credential) error {
	err := s.client.MSet(ctx,
		s.accessKey, cred.AccessToken,
		s.refreshKey, cred.RefreshToken,
	).Err()
	if err != nil {
		return fmt.Errorf("session: store credential: %w", err)
	}
	return nil
}

func (s *RedisStorage) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.accessKey, s.refreshKey).Err(); err != nil {
		return fmt.Errorf("session: clear credential: %w", err)
	}
	return nil
}

func stringAt(vals []interface{}, i int) string {
	if i >= len(vals) {
		return ""
	}
	if s, ok := vals[i].(string); ok {
		return s
	}
	return ""
}
