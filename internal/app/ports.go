package app

import (
	"context"

	"livequiz-service/internal/domain"
)

// SessionRepository abstracts how live quiz sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(quizID string) *Session
	Get(quizID string) (*Session, bool)
	DeleteIfEmpty(quizID string)
}

// QuizRepository loads quiz content (from cache/backing store). Content is
// immutable once published; Invalidate drops a cached copy after a change.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string) error
}

// QuizStore persists quiz headers, their questions and the live phase.
type QuizStore interface {
	// CreateQuiz stores the header and every question atomically. It returns
	// domain.ErrQuizExists when the id is taken.
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	GetState(ctx context.Context, quizID string) (domain.QuizState, error)
	// SwapState replaces from with to, failing with domain.ErrInvalidTransition
	// when the stored phase or index no longer equals from.
	SwapState(ctx context.Context, quizID string, from, to domain.QuizState) error
	SetFlags(ctx context.Context, quizID string, draft, archived bool) error
	ListQuizzes(ctx context.Context, organizer string) ([]domain.Quiz, error)
}

// AnswerRecord is one scored submission to persist.
type AnswerRecord struct {
	QuizID   string
	PlayerID string
	Answer   domain.PlayerAnswer
	// Scorable answers move the correct streak; others leave it alone.
	Scorable bool
	// DoublerStreak grants a point doubler each time the streak reaches a
	// multiple of it. Zero disables the reward.
	DoublerStreak int
}

// LifelineUse spends a lifeline on a question.
type LifelineUse struct {
	QuizID     string
	PlayerID   string
	QuestionID string
	Lifeline   domain.Lifeline
	Cost       int
}

// PlayerStore persists players, their answers and lifeline spending.
type PlayerStore interface {
	AddPlayer(ctx context.Context, player domain.Player) error
	GetPlayer(ctx context.Context, quizID, playerID string) (domain.Player, error)
	// ListPlayers returns players in join order with their answers.
	ListPlayers(ctx context.Context, quizID string) ([]domain.Player, error)
	// RecordAnswer inserts the answer and increments the score in one step.
	// A second answer for the same player and question fails with
	// domain.ErrAlreadyAnswered and changes nothing.
	RecordAnswer(ctx context.Context, rec AnswerRecord) (domain.Player, error)
	// UseLifeline fails with domain.ErrLifelineUsed when any lifeline was
	// already spent on the question, and with domain.ErrLifelineUnavailable
	// when the player cannot afford it.
	UseLifeline(ctx context.Context, use LifelineUse) (domain.Player, error)
	LifelineFor(ctx context.Context, playerID, questionID string) (domain.Lifeline, error)
}

// LibraryStore is the reusable question bank.
type LibraryStore interface {
	AddToLibrary(ctx context.Context, questions []domain.Question) error
	ListLibrary(ctx context.Context, filter domain.LibraryFilter) ([]domain.Question, error)
}

// UsageStore counts AI generated questions per organizer and UTC day (YYYY-MM-DD).
type UsageStore interface {
	AIUsage(ctx context.Context, organizer, day string) (int, error)
	// AddAIUsage adds n and returns the new total.
	AddAIUsage(ctx context.Context, organizer, day string, n int) (int, error)
}

// AnswerGuard is a fast first line against duplicate submissions, keyed by
// quiz, player and question.
type AnswerGuard interface {
	Claim(ctx context.Context, quizID, playerID, questionID string) (bool, error)
	Release(ctx context.Context, quizID, playerID, questionID string) error
}

// QuestionGenerator drafts multiple choice questions.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, topic, skill string, count int) ([]domain.Question, error)
}

// InsightGenerator writes free text analysis for a report prompt.
type InsightGenerator interface {
	Insights(ctx context.Context, prompt string) (string, error)
}
