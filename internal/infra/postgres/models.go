package postgres

import (
	"time"

	"livequiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID                   string            `bun:"id,pk"`
	Title                string            `bun:"title"`
	OrganizerName        string            `bun:"organizer_name"`
	Config               domain.QuizConfig `bun:"config,type:jsonb"`
	IsDraft              bool              `bun:"is_draft"`
	IsArchived           bool              `bun:"is_archived"`
	Phase                string            `bun:"phase"`
	CurrentQuestionIndex int               `bun:"current_question_index"`
	QuestionStartedAt    *time.Time        `bun:"question_started_at"`
	CreatedAt            time.Time         `bun:"created_at"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:quiz_questions"`

	QuizID             string             `bun:"quiz_id,pk"`
	ID                 string             `bun:"id,pk"`
	Position           int                `bun:"position"`
	Text               string             `bun:"text"`
	Type               string             `bun:"type"`
	Options            []string           `bun:"options,type:jsonb"`
	CorrectAnswerIndex int                `bun:"correct_answer_index"`
	MatchPairs         []domain.MatchPair `bun:"match_pairs,type:jsonb"`
	TimeLimit          int                `bun:"time_limit"`
	Technology         string             `bun:"technology"`
	Skill              string             `bun:"skill"`
}

type playerRow struct {
	bun.BaseModel `bun:"table:quiz_players"`

	ID             string    `bun:"id,pk"`
	QuizID         string    `bun:"quiz_id"`
	Name           string    `bun:"name"`
	Avatar         string    `bun:"avatar"`
	Clan           string    `bun:"clan"`
	Score          int       `bun:"score"`
	PointDoublers  int       `bun:"point_doublers"`
	FiftyFiftyUses int       `bun:"fifty_fifty_uses"`
	CorrectStreak  int       `bun:"correct_streak"`
	JoinedAt       time.Time `bun:"joined_at"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:quiz_answers"`

	PlayerID     string        `bun:"player_id,pk"`
	QuestionID   string        `bun:"question_id,pk"`
	QuizID       string        `bun:"quiz_id"`
	Answer       domain.Answer `bun:"answer,type:jsonb"`
	TimeTaken    float64       `bun:"time_taken"`
	Score        int           `bun:"score"`
	IsCorrect    bool          `bun:"is_correct"`
	CorrectPairs int           `bun:"correct_pairs"`
	LifelineUsed string        `bun:"lifeline_used"`
	SubmittedAt  time.Time     `bun:"submitted_at"`
}

type lifelineRow struct {
	bun.BaseModel `bun:"table:quiz_lifelines"`

	PlayerID   string    `bun:"player_id,pk"`
	QuestionID string    `bun:"question_id,pk"`
	Lifeline   string    `bun:"lifeline"`
	UsedAt     time.Time `bun:"used_at"`
}

type bankRow struct {
	bun.BaseModel `bun:"table:question_bank"`

	ID                 string             `bun:"id,pk"`
	OrganizerName      string             `bun:"organizer_name"`
	Text               string             `bun:"text"`
	Type               string             `bun:"type"`
	Options            []string           `bun:"options,type:jsonb"`
	CorrectAnswerIndex int                `bun:"correct_answer_index"`
	MatchPairs         []domain.MatchPair `bun:"match_pairs,type:jsonb"`
	TimeLimit          int                `bun:"time_limit"`
	Technology         string             `bun:"technology"`
	Skill              string             `bun:"skill"`
	CreatedAt          time.Time          `bun:"created_at"`
}

type usageRow struct {
	bun.BaseModel `bun:"table:ai_usage"`

	OrganizerName      string `bun:"organizer_name,pk"`
	Day                string `bun:"day,pk,type:date"`
	QuestionsGenerated int    `bun:"questions_generated"`
}

func newQuizRow(q domain.Quiz) *quizRow {
	return &quizRow{
		ID:                   q.ID,
		Title:                q.Title,
		OrganizerName:        q.OrganizerName,
		Config:               q.Config,
		IsDraft:              q.IsDraft,
		IsArchived:           q.IsArchived,
		Phase:                string(q.Phase),
		CurrentQuestionIndex: q.CurrentQuestionIndex,
		QuestionStartedAt:    q.QuestionStartedAt,
		CreatedAt:            q.CreatedAt,
	}
}

func (r quizRow) toDomain(questions []domain.Question) domain.Quiz {
	for i := range questions {
		questions[i].OrganizerName = r.OrganizerName
	}
	return domain.Quiz{
		ID:            r.ID,
		Title:         r.Title,
		OrganizerName: r.OrganizerName,
		Questions:     questions,
		Config:        r.Config,
		IsDraft:       r.IsDraft,
		IsArchived:    r.IsArchived,
		CreatedAt:     r.CreatedAt,
		QuizState: domain.QuizState{
			Phase:                domain.Phase(r.Phase),
			CurrentQuestionIndex: r.CurrentQuestionIndex,
			QuestionStartedAt:    r.QuestionStartedAt,
		},
	}
}

func newQuestionRow(quizID string, position int, q domain.Question) questionRow {
	return questionRow{
		QuizID:             quizID,
		ID:                 q.ID,
		Position:           position,
		Text:               q.Text,
		Type:               string(q.Type),
		Options:            nonNil(q.Options),
		CorrectAnswerIndex: q.CorrectAnswerIndex,
		MatchPairs:         nonNilPairs(q.MatchPairs),
		TimeLimit:          q.TimeLimit,
		Technology:         q.Technology,
		Skill:              q.Skill,
	}
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:                 r.ID,
		Text:               r.Text,
		Type:               domain.QuestionType(r.Type),
		Options:            r.Options,
		CorrectAnswerIndex: r.CorrectAnswerIndex,
		MatchPairs:         r.MatchPairs,
		TimeLimit:          r.TimeLimit,
		Technology:         r.Technology,
		Skill:              r.Skill,
	}
}

func newPlayerRow(p domain.Player) *playerRow {
	return &playerRow{
		ID:             p.ID,
		QuizID:         p.QuizID,
		Name:           p.Name,
		Avatar:         p.Avatar,
		Clan:           string(p.Clan),
		Score:          p.Score,
		PointDoublers:  p.PointDoublers,
		FiftyFiftyUses: p.FiftyFiftyUses,
		CorrectStreak:  p.CorrectStreak,
		JoinedAt:       p.JoinedAt,
	}
}

func (r playerRow) toDomain(answers []domain.PlayerAnswer) domain.Player {
	if answers == nil {
		answers = []domain.PlayerAnswer{}
	}
	return domain.Player{
		ID:             r.ID,
		QuizID:         r.QuizID,
		Name:           r.Name,
		Avatar:         r.Avatar,
		Clan:           domain.Clan(r.Clan),
		Score:          r.Score,
		Answers:        answers,
		PointDoublers:  r.PointDoublers,
		FiftyFiftyUses: r.FiftyFiftyUses,
		CorrectStreak:  r.CorrectStreak,
		JoinedAt:       r.JoinedAt,
	}
}

func (r answerRow) toDomain() domain.PlayerAnswer {
	return domain.PlayerAnswer{
		QuestionID:   r.QuestionID,
		Answer:       r.Answer,
		TimeTaken:    r.TimeTaken,
		Score:        r.Score,
		IsCorrect:    r.IsCorrect,
		CorrectPairs: r.CorrectPairs,
		LifelineUsed: domain.Lifeline(r.LifelineUsed),
		SubmittedAt:  r.SubmittedAt,
	}
}

func newBankRow(q domain.Question, now time.Time) bankRow {
	return bankRow{
		ID:                 q.ID,
		OrganizerName:      q.OrganizerName,
		Text:               q.Text,
		Type:               string(q.Type),
		Options:            nonNil(q.Options),
		CorrectAnswerIndex: q.CorrectAnswerIndex,
		MatchPairs:         nonNilPairs(q.MatchPairs),
		TimeLimit:          q.TimeLimit,
		Technology:         q.Technology,
		Skill:              q.Skill,
		CreatedAt:          now,
	}
}

func (r bankRow) toDomain() domain.Question {
	return domain.Question{
		ID:                 r.ID,
		Text:               r.Text,
		Type:               domain.QuestionType(r.Type),
		Options:            r.Options,
		CorrectAnswerIndex: r.CorrectAnswerIndex,
		MatchPairs:         r.MatchPairs,
		TimeLimit:          r.TimeLimit,
		Technology:         r.Technology,
		Skill:              r.Skill,
		OrganizerName:      r.OrganizerName,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilPairs(p []domain.MatchPair) []domain.MatchPair {
	if p == nil {
		return []domain.MatchPair{}
	}
	return p
}
