package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	require.NoError(t, store.CreateQuiz(context.Background(), sampleQuiz()))
	require.NoError(t, store.AddPlayer(context.Background(), domain.Player{ID: "p1", QuizID: "QUIZ01", Name: "Ann", PointDoublers: 1}))
	return store
}

func TestCreateQuizRejectsDuplicateCode(t *testing.T) {
	store := seededStore(t)
	err := store.CreateQuiz(context.Background(), sampleQuiz())
	assert.ErrorIs(t, err, domain.ErrQuizExists)
}

func TestSwapStateComparesPhaseAndIndex(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	lobby := domain.QuizState{Phase: domain.PhaseLobby}
	intro := domain.QuizState{Phase: domain.PhaseQuestionIntro}

	require.NoError(t, store.SwapState(ctx, "QUIZ01", lobby, intro))
	err := store.SwapState(ctx, "QUIZ01", lobby, intro)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	state, err := store.GetState(ctx, "QUIZ01")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseQuestionIntro, state.Phase)
}

func TestRecordAnswerIsOncePerQuestion(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	rec := app.AnswerRecord{
		QuizID:   "QUIZ01",
		PlayerID: "p1",
		Answer:   domain.PlayerAnswer{QuestionID: "q1", Score: 1500, IsCorrect: true, SubmittedAt: time.Now()},
		Scorable: true,
	}

	p, err := store.RecordAnswer(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, 1500, p.Score)
	assert.Equal(t, 1, p.CorrectStreak)

	_, err = store.RecordAnswer(ctx, rec)
	assert.ErrorIs(t, err, domain.ErrAlreadyAnswered)

	p, err = store.GetPlayer(ctx, "QUIZ01", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1500, p.Score)
	assert.Len(t, p.Answers, 1)
}

func TestRecordAnswerStreakEarnsDoubler(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	answer := func(id string, correct, scorable bool) domain.Player {
		p, err := store.RecordAnswer(ctx, app.AnswerRecord{
			QuizID:        "QUIZ01",
			PlayerID:      "p1",
			Answer:        domain.PlayerAnswer{QuestionID: id, IsCorrect: correct},
			Scorable:      scorable,
			DoublerStreak: 3,
		})
		require.NoError(t, err)
		return p
	}

	answer("a", true, true)
	answer("b", true, true)
	p := answer("survey", false, false)
	assert.Equal(t, 2, p.CorrectStreak, "non-scorable answers leave the streak alone")
	p = answer("c", true, true)
	assert.Equal(t, 3, p.CorrectStreak)
	assert.Equal(t, 2, p.PointDoublers)
	p = answer("d", false, true)
	assert.Equal(t, 0, p.CorrectStreak)
}

func TestUseLifelineRules(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)

	_, err := store.UseLifeline(ctx, app.LifelineUse{QuizID: "QUIZ01", PlayerID: "p1", QuestionID: "q1", Lifeline: domain.LifelineFiftyFifty, Cost: 250})
	assert.ErrorIs(t, err, domain.ErrLifelineUnavailable, "score below the cost")

	p, err := store.UseLifeline(ctx, app.LifelineUse{QuizID: "QUIZ01", PlayerID: "p1", QuestionID: "q1", Lifeline: domain.LifelinePointDoubler})
	require.NoError(t, err)
	assert.Equal(t, 0, p.PointDoublers)

	_, err = store.UseLifeline(ctx, app.LifelineUse{QuizID: "QUIZ01", PlayerID: "p1", QuestionID: "q1", Lifeline: domain.LifelinePointDoubler})
	assert.True(t, errors.Is(err, domain.ErrLifelineUsed))

	used, err := store.LifelineFor(ctx, "p1", "q1")
	require.NoError(t, err)
	assert.Equal(t, domain.LifelinePointDoubler, used)

	_, err = store.UseLifeline(ctx, app.LifelineUse{QuizID: "QUIZ01", PlayerID: "p1", QuestionID: "q2", Lifeline: domain.LifelinePointDoubler})
	assert.ErrorIs(t, err, domain.ErrLifelineUnavailable, "no doublers left")
}

func TestLibraryAndUsage(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.AddToLibrary(ctx, []domain.Question{
		{ID: "a", Text: "A", Type: domain.QuestionMCQ, Technology: "Go", OrganizerName: "ann"},
		{ID: "b", Text: "B", Type: domain.QuestionSurvey, Technology: "SQL", OrganizerName: "ann"},
		{ID: "c", Text: "C", Type: domain.QuestionMCQ, Technology: "Go", OrganizerName: "bob"},
	}))

	got, err := store.ListLibrary(ctx, domain.LibraryFilter{Technology: "Go"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID, "newest first")

	total, err := store.AddAIUsage(ctx, "ann", "2024-11-22", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	used, err := store.AIUsage(ctx, "ann", "2024-11-22")
	require.NoError(t, err)
	assert.Equal(t, 4, used)
	used, _ = store.AIUsage(ctx, "ann", "2024-11-23")
	assert.Zero(t, used)
}

func TestAnswerGuard(t *testing.T) {
	ctx := context.Background()
	guard := NewAnswerGuard(time.Minute)
	now := time.Now()
	guard.clock = func() time.Time { return now }

	ok, err := guard.Claim(ctx, "Q", "p1", "q1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = guard.Claim(ctx, "Q", "p1", "q1")
	assert.False(t, ok)

	require.NoError(t, guard.Release(ctx, "Q", "p1", "q1"))
	ok, _ = guard.Claim(ctx, "Q", "p1", "q1")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = guard.Claim(ctx, "Q", "p1", "q1")
	assert.True(t, ok, "claims expire")
}
