package app

import (
	"strings"
	"time"

	"livequiz-service/internal/domain"
	"livequiz-service/internal/ranking"
)

// RoomState is the snapshot every client of a quiz renders. Correct answers
// stay hidden until the question result is revealed.
type RoomState struct {
	QuizID            string                 `json:"quizId"`
	Title             string                 `json:"title"`
	Phase             domain.Phase           `json:"phase"`
	QuestionIndex     int                    `json:"questionIndex"`
	QuestionCount     int                    `json:"questionCount"`
	QuestionStartedAt *time.Time             `json:"questionStartedAt,omitempty"`
	Config            domain.QuizConfig      `json:"config"`
	Question          *QuestionView          `json:"question,omitempty"`
	ResponseCount     *int                   `json:"responseCount,omitempty"`
	Results           *QuestionResults       `json:"results,omitempty"`
	Leaderboard       []ranking.Standing     `json:"leaderboard"`
	Clans             []ranking.ClanStanding `json:"clans,omitempty"`
	Awards            []ranking.Award        `json:"awards,omitempty"`
	PlayerCount       int                    `json:"playerCount"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

// QuestionView is a question without its answer key. Matching prompts are
// listed separately from the pool of options they are matched against.
type QuestionView struct {
	ID           string              `json:"id"`
	Text         string              `json:"text"`
	Type         domain.QuestionType `json:"type"`
	Options      []string            `json:"options,omitempty"`
	MatchPrompts []string            `json:"matchPrompts,omitempty"`
	TimeLimit    int                 `json:"timeLimit"`
	Technology   string              `json:"technology"`
	Skill        string              `json:"skill"`
}

// QuestionResults is revealed from QUESTION_RESULT on.
type QuestionResults struct {
	CorrectAnswerIndex *int               `json:"correctAnswerIndex,omitempty"`
	MatchPairs         []domain.MatchPair `json:"matchPairs,omitempty"`
	OptionCounts       []int              `json:"optionCounts,omitempty"`
	WordCounts         map[string]int     `json:"wordCounts,omitempty"`
	Answers            int                `json:"answers"`
	Correct            int                `json:"correct"`
}

func newQuestionView(q domain.Question) *QuestionView {
	view := &QuestionView{
		ID:         q.ID,
		Text:       q.Text,
		Type:       q.Type,
		Options:    q.Options,
		TimeLimit:  q.TimeLimit,
		Technology: q.Technology,
		Skill:      q.Skill,
	}
	for _, pair := range q.MatchPairs {
		view.MatchPrompts = append(view.MatchPrompts, pair.Prompt)
	}
	return view
}

func questionResults(q domain.Question, players []domain.Player) *QuestionResults {
	res := &QuestionResults{}
	switch q.Type {
	case domain.QuestionMCQ:
		idx := q.CorrectAnswerIndex
		res.CorrectAnswerIndex = &idx
		res.OptionCounts = make([]int, len(q.Options))
	case domain.QuestionSurvey:
		res.OptionCounts = make([]int, len(q.Options))
	case domain.QuestionMatch:
		res.MatchPairs = q.MatchPairs
	case domain.QuestionWordCloud:
		res.WordCounts = make(map[string]int)
	}

	for _, p := range players {
		answer, ok := p.AnswerFor(q.ID)
		if !ok {
			continue
		}
		res.Answers++
		if answer.IsCorrect {
			res.Correct++
		}
		if answer.Answer.Index != nil && *answer.Answer.Index >= 0 && *answer.Answer.Index < len(res.OptionCounts) {
			res.OptionCounts[*answer.Answer.Index]++
		}
		if res.WordCounts != nil {
			if word := strings.ToLower(strings.TrimSpace(answer.Answer.Text)); word != "" {
				res.WordCounts[word]++
			}
		}
	}
	return res
}

// buildRoomState assembles the snapshot for quiz at state from players.
func buildRoomState(quiz domain.Quiz, state domain.QuizState, players []domain.Player, now time.Time) RoomState {
	quiz.QuizState = state
	rs := RoomState{
		QuizID:            quiz.ID,
		Title:             quiz.Title,
		Phase:             state.Phase,
		QuestionIndex:     state.CurrentQuestionIndex,
		QuestionCount:     len(quiz.Questions),
		QuestionStartedAt: state.QuestionStartedAt,
		Config:            quiz.Config,
		PlayerCount:       len(players),
		UpdatedAt:         now,
	}

	questionID := ""
	question, hasQuestion := quiz.CurrentQuestion()
	switch state.Phase {
	case domain.PhaseQuestionIntro, domain.PhaseQuestionActive, domain.PhaseQuestionResult, domain.PhaseLeaderboard:
		if hasQuestion {
			questionID = question.ID
			rs.Question = newQuestionView(question)
		}
	}

	if rs.Question != nil {
		answered := 0
		for _, p := range players {
			if _, ok := p.AnswerFor(questionID); ok {
				answered++
			}
		}
		revealed := state.Phase == domain.PhaseQuestionResult || state.Phase == domain.PhaseLeaderboard
		if quiz.Config.ShowLiveResponseCount || revealed {
			rs.ResponseCount = &answered
		}
		if revealed {
			rs.Results = questionResults(question, players)
		}
	}

	ranked, rankedID, first := players, questionID, state.CurrentQuestionIndex == 0
	switch state.Phase {
	case domain.PhaseQuestionIntro, domain.PhaseQuestionActive:
		// Scores for the open question stay hidden until the reveal.
		if questionID != "" {
			ranked = withoutAnswer(players, questionID)
		}
		rankedID, first = "", true
		if i := state.CurrentQuestionIndex - 1; i >= 0 && i < len(quiz.Questions) {
			rankedID, first = quiz.Questions[i].ID, i == 0
		}
	case domain.PhaseFinished:
		if n := len(quiz.Questions); n > 0 {
			rankedID, first = quiz.Questions[n-1].ID, n == 1
		}
	}
	first = first || rankedID == ""
	rs.Leaderboard = ranking.Individual(ranked, rankedID, first)
	if quiz.Config.ClanBased {
		rs.Clans = ranking.Clans(ranked, quiz.Config, rankedID, first)
	}
	if state.Phase == domain.PhaseFinished {
		rs.Awards = ranking.Awards(quiz, players)
	}
	return rs
}

// withoutAnswer returns copies of players as they stood before questionID was scored.
func withoutAnswer(players []domain.Player, questionID string) []domain.Player {
	out := make([]domain.Player, len(players))
	for i, p := range players {
		answers := make([]domain.PlayerAnswer, 0, len(p.Answers))
		for _, a := range p.Answers {
			if a.QuestionID == questionID {
				p.Score -= a.Score
				continue
			}
			answers = append(answers, a)
		}
		p.Answers = answers
		out[i] = p
	}
	return out
}
