package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"livequiz-service/internal/infra/memory"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Add(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	store     *memory.Store
	quizzes   *memory.QuizRepository
	live      *app.QuizService
	authoring *app.AuthoringService
	clock     *clock
}

func newFixture(t *testing.T, rules app.Rules) *fixture {
	t.Helper()
	store := memory.NewStore()
	quizzes := memory.NewQuizRepository(store, time.Minute)
	clk := &clock{t: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)}
	return &fixture{
		store:     store,
		quizzes:   quizzes,
		live:      app.NewQuizServiceWithClock(memory.NewSessionStore(), quizzes, store, memory.NewAnswerGuard(time.Hour), rules, clk.Now),
		authoring: app.NewAuthoringService(store, quizzes, nil, 20),
		clock:     clk,
	}
}

func defaultRules() app.Rules {
	return app.Rules{FiftyFiftyCost: 500, StartingDoublers: 1, DoublerStreak: 3}
}

func mcq(text string, correct int) domain.Question {
	return domain.Question{
		Text:               text,
		Type:               domain.QuestionMCQ,
		Options:            []string{"A", "B", "C", "D"},
		CorrectAnswerIndex: correct,
		TimeLimit:          10,
		Technology:         "Go",
		Skill:              "Basics",
	}
}

func (f *fixture) createQuiz(t *testing.T, cfg domain.QuizConfig, questions ...domain.Question) domain.Quiz {
	t.Helper()
	quiz, err := f.authoring.CreateQuiz(context.Background(), "ann", app.CreateQuizInput{
		Title:     "Go night",
		Questions: questions,
		Config:    cfg,
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return quiz
}

func (f *fixture) join(t *testing.T, quizID, name string) domain.Player {
	t.Helper()
	p, err := f.live.Join(context.Background(), quizID, app.JoinRequest{Name: name})
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return p
}

// advanceTo steps the phase machine until phase is reached.
func (f *fixture) advanceTo(t *testing.T, quizID string, phase domain.Phase) app.RoomState {
	t.Helper()
	for i := 0; i < 20; i++ {
		rs, err := f.live.Advance(context.Background(), quizID)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if rs.Phase == phase {
			return rs
		}
	}
	t.Fatalf("never reached %s", phase)
	return app.RoomState{}
}

func (f *fixture) answer(t *testing.T, quizID, playerID string, index int) app.AnswerResult {
	t.Helper()
	res, err := f.live.SubmitAnswer(context.Background(), quizID, playerID, app.Submission{Answer: domain.IndexAnswer(index)})
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	return res
}
