package domain

import "time"

// Phase is the synchronized stage every client of a quiz observes.
type Phase string

const (
	PhaseLobby           Phase = "LOBBY"
	PhaseClanBattleIntro Phase = "CLAN_BATTLE_INTRO"
	PhaseClanBattleVS    Phase = "CLAN_BATTLE_VS"
	PhaseQuestionIntro   Phase = "QUESTION_INTRO"
	PhaseQuestionActive  Phase = "QUESTION_ACTIVE"
	PhaseQuestionResult  Phase = "QUESTION_RESULT"
	PhaseLeaderboard     Phase = "LEADERBOARD"
	PhaseFinished        Phase = "FINISHED"
)

type QuestionType string

const (
	QuestionMCQ       QuestionType = "MCQ"
	QuestionSurvey    QuestionType = "SURVEY"
	QuestionMatch     QuestionType = "MATCH"
	QuestionWordCloud QuestionType = "WORD_CLOUD"
)

type Clan string

const (
	ClanTitans    Clan = "Titans"
	ClanDefenders Clan = "Defenders"
)

// Clans lists the two sides in display order.
var Clans = []Clan{ClanTitans, ClanDefenders}

type ClanAssignment string

const (
	ClanPlayerChoice ClanAssignment = "playerChoice"
	ClanAutoBalance  ClanAssignment = "autoBalance"
)

type Lifeline string

const (
	LifelineNone         Lifeline = ""
	LifelineFiftyFifty   Lifeline = "fiftyFifty"
	LifelinePointDoubler Lifeline = "pointDoubler"
)

type MatchPair struct {
	Prompt       string `json:"prompt"`
	CorrectMatch string `json:"correctMatch"`
}

// Question is a single quiz item. The payload fields used depend on Type.
type Question struct {
	ID                 string       `json:"id"`
	Text               string       `json:"text"`
	Type               QuestionType `json:"type"`
	Options            []string     `json:"options,omitempty"`
	CorrectAnswerIndex int          `json:"correctAnswerIndex"`
	MatchPairs         []MatchPair  `json:"matchPairs,omitempty"`
	TimeLimit          int          `json:"timeLimit"`
	Technology         string       `json:"technology"`
	Skill              string       `json:"skill"`
	OrganizerName      string       `json:"organizerName,omitempty"`
}

type QuizConfig struct {
	ShowLiveResponseCount bool            `json:"showLiveResponseCount"`
	ShowQuestionToPlayers bool            `json:"showQuestionToPlayers"`
	ClanBased             bool            `json:"clanBased"`
	ClanNames             map[Clan]string `json:"clanNames,omitempty"`
	ClanAssignment        ClanAssignment  `json:"clanAssignment,omitempty"`
}

// ClanName returns the display name configured for a clan.
func (c QuizConfig) ClanName(clan Clan) string {
	if name, ok := c.ClanNames[clan]; ok && name != "" {
		return name
	}
	return string(clan)
}

// QuizState is the mutable part of a quiz driven by the host.
type QuizState struct {
	Phase                Phase      `json:"phase"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	QuestionStartedAt    *time.Time `json:"questionStartedAt,omitempty"`
}

type Quiz struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	OrganizerName string     `json:"organizerName"`
	Questions     []Question `json:"questions"`
	Config        QuizConfig `json:"config"`
	IsDraft       bool       `json:"isDraft"`
	IsArchived    bool       `json:"isArchived"`
	CreatedAt     time.Time  `json:"createdAt"`
	QuizState
}

// CurrentQuestion returns the question at the current index, if any.
func (q Quiz) CurrentQuestion() (Question, bool) {
	if q.CurrentQuestionIndex < 0 || q.CurrentQuestionIndex >= len(q.Questions) {
		return Question{}, false
	}
	return q.Questions[q.CurrentQuestionIndex], true
}

func (q Quiz) QuestionByID(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// Answer is the submitted value. Exactly one field is meaningful for a given
// question type: Index for MCQ and SURVEY, Indices for MATCH, Text for WORD_CLOUD.
type Answer struct {
	Index   *int   `json:"index,omitempty"`
	Indices []int  `json:"indices,omitempty"`
	Text    string `json:"text,omitempty"`
}

func IndexAnswer(i int) Answer { return Answer{Index: &i} }

func MatchAnswer(indices ...int) Answer { return Answer{Indices: indices} }

func TextAnswer(text string) Answer { return Answer{Text: text} }

type PlayerAnswer struct {
	QuestionID   string    `json:"questionId"`
	Answer       Answer    `json:"answer"`
	TimeTaken    float64   `json:"timeTaken"`
	Score        int       `json:"score"`
	IsCorrect    bool      `json:"isCorrect"`
	CorrectPairs int       `json:"correctPairs,omitempty"`
	LifelineUsed Lifeline  `json:"lifelineUsed,omitempty"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

type Player struct {
	ID             string         `json:"id"`
	QuizID         string         `json:"quizId"`
	Name           string         `json:"name"`
	Avatar         string         `json:"avatar"`
	Clan           Clan           `json:"clan,omitempty"`
	Score          int            `json:"score"`
	Answers        []PlayerAnswer `json:"answers"`
	PointDoublers  int            `json:"pointDoublers"`
	FiftyFiftyUses int            `json:"fiftyFiftyUses"`
	CorrectStreak  int            `json:"correctStreak"`
	JoinedAt       time.Time      `json:"joinedAt"`
}

func (p Player) AnswerFor(questionID string) (PlayerAnswer, bool) {
	for _, answer := range p.Answers {
		if answer.QuestionID == questionID {
			return answer, true
		}
	}
	return PlayerAnswer{}, false
}

// LibraryFilter narrows a question bank listing. Empty fields match everything.
type LibraryFilter struct {
	Organizer  string
	Technology string
	Skill      string
	Type       QuestionType
}

func (f LibraryFilter) Match(q Question) bool {
	if f.Organizer != "" && q.OrganizerName != f.Organizer {
		return false
	}
	if f.Technology != "" && q.Technology != f.Technology {
		return false
	}
	if f.Skill != "" && q.Skill != f.Skill {
		return false
	}
	if f.Type != "" && q.Type != f.Type {
		return false
	}
	return true
}
