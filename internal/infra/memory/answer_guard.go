package memory

import (
	"context"
	"sync"
	"time"
)

// AnswerGuard is an in-process implementation of app.AnswerGuard. Claims
// expire after ttl; a zero ttl keeps them until released.
type AnswerGuard struct {
	ttl   time.Duration
	clock func() time.Time

	mu     sync.Mutex
	claims map[string]time.Time
	sweeps int
}

func NewAnswerGuard(ttl time.Duration) *AnswerGuard {
	return &AnswerGuard{
		ttl:    ttl,
		clock:  time.Now,
		claims: make(map[string]time.Time),
	}
}

func (g *AnswerGuard) Claim(_ context.Context, quizID, playerID, questionID string) (bool, error) {
	key := quizID + ":" + playerID + ":" + questionID
	now := g.clock()

	g.mu.Lock()
	defer g.mu.Unlock()
	if expires, ok := g.claims[key]; ok && (expires.IsZero() || expires.After(now)) {
		return false, nil
	}
	var expires time.Time
	if g.ttl > 0 {
		expires = now.Add(g.ttl)
	}
	g.claims[key] = expires

	g.sweeps++
	if g.sweeps%256 == 0 {
		for k, exp := range g.claims {
			if !exp.IsZero() && !exp.After(now) {
				delete(g.claims, k)
			}
		}
	}
	return true, nil
}

func (g *AnswerGuard) Release(_ context.Context, quizID, playerID, questionID string) error {
	g.mu.Lock()
	delete(g.claims, quizID+":"+playerID+":"+questionID)
	g.mu.Unlock()
	return nil
}
