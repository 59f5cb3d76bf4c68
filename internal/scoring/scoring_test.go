package scoring

import (
	"math/rand/v2"
	"testing"

	"livequiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mcq() domain.Question {
	return domain.Question{
		ID:                 "q1",
		Type:               domain.QuestionMCQ,
		Options:            []string{"a", "b", "c", "d"},
		CorrectAnswerIndex: 2,
		TimeLimit:          20,
	}
}

func TestCorrectMCQDecaysWithTime(t *testing.T) {
	q := mcq()
	prev := 1 << 30
	for elapsed := 0.0; elapsed <= 20; elapsed += 0.5 {
		res, err := Score(q, domain.IndexAnswer(2), elapsed, domain.LifelineNone)
		require.NoError(t, err)
		assert.True(t, res.IsCorrect)
		assert.GreaterOrEqual(t, res.Score, 1000)
		assert.LessOrEqual(t, res.Score, 2000)
		assert.LessOrEqual(t, res.Score, prev)
		prev = res.Score
	}

	res, _ := Score(q, domain.IndexAnswer(2), 0, domain.LifelineNone)
	assert.Equal(t, 2000, res.Score)
	res, _ = Score(q, domain.IndexAnswer(2), 5, domain.LifelineNone)
	assert.Equal(t, 1750, res.Score)
	res, _ = Score(q, domain.IndexAnswer(2), 45, domain.LifelineNone)
	assert.Equal(t, 1000, res.Score)
}

func TestIncorrectMCQScoresZero(t *testing.T) {
	q := mcq()
	for _, idx := range []int{0, 1, 3, 7, -1} {
		res, err := Score(q, domain.IndexAnswer(idx), 1, domain.LifelinePointDoubler)
		require.NoError(t, err)
		assert.Zero(t, res.Score)
		assert.False(t, res.IsCorrect)
	}
}

func TestUnscoredTypes(t *testing.T) {
	survey := domain.Question{Type: domain.QuestionSurvey, Options: []string{"x", "y"}, TimeLimit: 10}
	res, err := Score(survey, domain.IndexAnswer(1), 0, domain.LifelinePointDoubler)
	require.NoError(t, err)
	assert.Zero(t, res.Score)

	cloud := domain.Question{Type: domain.QuestionWordCloud, TimeLimit: 10}
	res, err = Score(cloud, domain.TextAnswer("gophers"), 0, domain.LifelineNone)
	require.NoError(t, err)
	assert.Zero(t, res.Score)

	_, err = Score(cloud, domain.IndexAnswer(1), 0, domain.LifelineNone)
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
}

func TestMatchPartialCredit(t *testing.T) {
	q := domain.Question{
		Type:    domain.QuestionMatch,
		Options: []string{"Go", "Rust", "Zig"},
		MatchPairs: []domain.MatchPair{
			{Prompt: "gopher", CorrectMatch: "Go"},
			{Prompt: "crab", CorrectMatch: "Rust"},
			{Prompt: "lizard", CorrectMatch: "Zig"},
		},
	}

	res, err := Score(q, domain.MatchAnswer(0, 1, 2), 3, domain.LifelineNone)
	require.NoError(t, err)
	assert.Equal(t, 3000, res.Score)
	assert.True(t, res.IsCorrect)

	res, _ = Score(q, domain.MatchAnswer(0, 2, 1), 3, domain.LifelineNone)
	assert.Equal(t, 1000, res.Score)
	assert.Equal(t, 1, res.CorrectPairs)
	assert.False(t, res.IsCorrect)

	res, _ = Score(q, domain.MatchAnswer(0), 3, domain.LifelineNone)
	assert.Equal(t, 1000, res.Score)
}

func TestPointDoubler(t *testing.T) {
	res, err := Score(mcq(), domain.IndexAnswer(2), 0, domain.LifelinePointDoubler)
	require.NoError(t, err)
	assert.Equal(t, 4000, res.Score)
}

func TestMaxScore(t *testing.T) {
	assert.Equal(t, 2000, MaxScore(mcq()))
	assert.Equal(t, 3000, MaxScore(domain.Question{Type: domain.QuestionMatch}))
	assert.Zero(t, MaxScore(domain.Question{Type: domain.QuestionSurvey}))
	assert.False(t, IsScorable(domain.Question{Type: domain.QuestionWordCloud}))
}

func TestEliminateOptionsKeepsCorrect(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	q := mcq()
	for i := 0; i < 20; i++ {
		out := EliminateOptions(q, rnd)
		require.Len(t, out, 2)
		assert.NotContains(t, out, q.CorrectAnswerIndex)
		assert.NotEqual(t, out[0], out[1])
	}

	q.Options = q.Options[:2]
	q.CorrectAnswerIndex = 0
	assert.Equal(t, []int{1}, EliminateOptions(q, rnd))
}
