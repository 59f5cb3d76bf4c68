package redis

import (
	"context"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/infra/memory"
	"livequiz-service/internal/logger"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Fan-out stays in process through memory.SessionStore; Redis only records
// which rooms are live on some instance so operators can see them.
type SessionStore struct {
	*memory.SessionStore
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		SessionStore: memory.NewSessionStore(),
		client:       client,
		ttl:          ttl,
	}
}

func (s *SessionStore) GetOrCreate(quizID string) *app.Session {
	session, _ := s.SessionStore.Open(quizID)
	// best-effort liveness marker, refreshed on every subscription
	if err := s.client.Set(context.Background(), s.key(quizID), "1", s.ttl).Err(); err != nil {
		logger.Warn("room liveness marker failed", "quiz_id", quizID, "error", err)
	}
	return session
}

func (s *SessionStore) DeleteIfEmpty(quizID string) {
	if !s.SessionStore.Drop(quizID) {
		return
	}
	if err := s.client.Del(context.Background(), s.key(quizID)).Err(); err != nil {
		logger.Warn("room liveness cleanup failed", "quiz_id", quizID, "error", err)
	}
}

// Live reports whether any instance marked the room live.
func (s *SessionStore) Live(ctx context.Context, quizID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(quizID)).Result()
	return n > 0, err
}

func (s *SessionStore) key(quizID string) string {
	return "livequiz:room:" + quizID
}
