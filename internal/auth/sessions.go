package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/eanlabs/bioplast/internal/models"
)

const (
	sessionKeyTpl = "session:%s" // session:${token}
	tokenPrefix   = "sk-biopl-"
)

// Sessions holds login tokens. A session lives until logout; there is no
// expiry.
type Sessions interface {
	Create(ctx context.Context, s *models.Session) (string, error)
	Resolve(ctx context.Context, token string) (*models.Session, error)
	Destroy(ctx context.Context, token string) error
	Close() error
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

// RedisSessions keeps one hash per token, so tokens survive a server
// restart alongside the redis instance.
type RedisSessions struct {
	redis *redis.Client
}

func NewRedisSessions(redisURL string) (*RedisSessions, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisSessions{redis: client}, nil
}

func (s *RedisSessions) Create(ctx context.Context, sess *models.Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf(sessionKeyTpl, token)
	err = s.redis.HSet(ctx, key, map[string]interface{}{
		"id":    sess.UserID,
		"name":  sess.Name,
		"email": sess.Email,
		"role":  sess.Role,
	}).Err()
	if err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

func (s *RedisSessions) Resolve(ctx context.Context, token string) (*models.Session, error) {
	key := fmt.Sprintf(sessionKeyTpl, token)

	values, err := s.redis.HGetAll(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	return &models.Session{
		UserID: values["id"],
		Name:   values["name"],
		Email:  values["email"],
		Role:   values["role"],
	}, nil
}

func (s *RedisSessions) Destroy(ctx context.Context, token string) error {
	return s.redis.Del(ctx, fmt.Sprintf(sessionKeyTpl, token)).Err()
}

func (s *RedisSessions) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}

// MemorySessions is the in-process fallback used when no redis URL is
// configured, and in tests.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]models.Session)}
}

func (s *MemorySessions) Create(ctx context.Context, sess *models.Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.sessions[token] = *sess
	s.mu.Unlock()
	return token, nil
}

func (s *MemorySessions) Resolve(ctx context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *MemorySessions) Destroy(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

func (s *MemorySessions) Close() error { return nil }
