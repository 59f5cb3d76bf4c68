package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// AnswerGuard claims (quiz, player, question) keys with SET NX so duplicate
// submissions across instances are turned away before touching Postgres.
type AnswerGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAnswerGuard(client *redis.Client, ttl time.Duration) *AnswerGuard {
	return &AnswerGuard{client: client, ttl: ttl}
}

func (g *AnswerGuard) Claim(ctx context.Context, quizID, playerID, questionID string) (bool, error) {
	return g.client.SetNX(ctx, g.key(quizID, playerID, questionID), time.Now().Unix(), g.ttl).Result()
}

func (g *AnswerGuard) Release(ctx context.Context, quizID, playerID, questionID string) error {
	return g.client.Del(ctx, g.key(quizID, playerID, questionID)).Err()
}

func (g *AnswerGuard) key(quizID, playerID, questionID string) string {
	return "livequiz:answer:" + quizID + ":" + playerID + ":" + questionID
}
