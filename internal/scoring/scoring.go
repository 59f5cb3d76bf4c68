// Package scoring turns a submitted answer into points.
package scoring

import (
	"math"
	"math/rand/v2"

	"livequiz-service/internal/domain"
)

const (
	// BasePoints is awarded for any correct multiple choice answer.
	BasePoints = 1000
	// SpeedBonus is the extra decaying linearly to zero over the time limit.
	SpeedBonus = 1000
	// MatchPoints is the value of a fully correct matching question.
	MatchPoints = 3000
)

type Result struct {
	Score        int
	IsCorrect    bool
	CorrectPairs int
}

// Score evaluates answer against q. elapsed is in seconds, measured from the
// moment the question became active. A point doubler doubles any positive score.
func Score(q domain.Question, answer domain.Answer, elapsed float64, lifeline domain.Lifeline) (Result, error) {
	var res Result
	switch q.Type {
	case domain.QuestionMCQ:
		if answer.Index == nil {
			return Result{}, domain.ErrInvalidAnswer
		}
		if *answer.Index == q.CorrectAnswerIndex {
			res.IsCorrect = true
			res.Score = timedScore(elapsed, float64(q.TimeLimit))
		}
	case domain.QuestionMatch:
		if answer.Indices == nil {
			return Result{}, domain.ErrInvalidAnswer
		}
		res.CorrectPairs = correctPairs(q, answer.Indices)
		total := len(q.MatchPairs)
		if total > 0 {
			res.Score = int(math.Round(MatchPoints * float64(res.CorrectPairs) / float64(total)))
			res.IsCorrect = res.CorrectPairs == total
		}
	case domain.QuestionSurvey:
		if answer.Index == nil {
			return Result{}, domain.ErrInvalidAnswer
		}
		if *answer.Index < 0 || *answer.Index >= len(q.Options) {
			return Result{}, domain.ErrInvalidAnswer
		}
	case domain.QuestionWordCloud:
		if answer.Text == "" {
			return Result{}, domain.ErrInvalidAnswer
		}
	default:
		return Result{}, domain.ErrInvalidAnswer
	}
	if lifeline == domain.LifelinePointDoubler && res.Score > 0 {
		res.Score *= 2
	}
	return res, nil
}

func timedScore(elapsed, limit float64) int {
	if elapsed < 0 {
		elapsed = 0
	}
	bonus := 0.0
	if limit > 0 {
		bonus = math.Max(0, 1-elapsed/limit)
	}
	return int(math.Round(BasePoints + bonus*SpeedBonus))
}

func correctPairs(q domain.Question, indices []int) int {
	n := 0
	for i, pair := range q.MatchPairs {
		if i >= len(indices) {
			break
		}
		idx := indices[i]
		if idx >= 0 && idx < len(q.Options) && q.Options[idx] == pair.CorrectMatch {
			n++
		}
	}
	return n
}

// IsScorable reports whether a question type awards points.
func IsScorable(q domain.Question) bool {
	return q.Type == domain.QuestionMCQ || q.Type == domain.QuestionMatch
}

// MaxScore is the best score reachable on q without lifelines.
func MaxScore(q domain.Question) int {
	switch q.Type {
	case domain.QuestionMCQ:
		return BasePoints + SpeedBonus
	case domain.QuestionMatch:
		return MatchPoints
	}
	return 0
}

// EliminateOptions picks up to two wrong option indices to hide for the 50:50 lifeline.
func EliminateOptions(q domain.Question, rnd *rand.Rand) []int {
	wrong := make([]int, 0, len(q.Options))
	for i := range q.Options {
		if i != q.CorrectAnswerIndex {
			wrong = append(wrong, i)
		}
	}
	rnd.Shuffle(len(wrong), func(i, j int) { wrong[i], wrong[j] = wrong[j], wrong[i] })
	if len(wrong) > 2 {
		wrong = wrong[:2]
	}
	return wrong
}
