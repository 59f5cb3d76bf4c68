package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 100
	MaxLiveQuestions     = 10
	MaxTagWords          = 2
	DefaultTimeLimit     = 30
	MaxTimeLimit         = 300
	DefaultTag           = "General"
	GeneratedOptionCount = 4
	MaxGeneratedWords    = 20
	MaxGeneratedOptWords = 10
)

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// NormalizeQuestion trims text fields and fills defaults for the time limit and tags.
func NormalizeQuestion(q Question) Question {
	q.Text = strings.TrimSpace(q.Text)
	q.Technology = strings.TrimSpace(q.Technology)
	q.Skill = strings.TrimSpace(q.Skill)
	if q.Technology == "" {
		q.Technology = DefaultTag
	}
	if q.Skill == "" {
		q.Skill = DefaultTag
	}
	if q.TimeLimit <= 0 {
		q.TimeLimit = DefaultTimeLimit
	}
	for i := range q.Options {
		q.Options[i] = strings.TrimSpace(q.Options[i])
	}
	return q
}

// ValidateTag enforces the two-word limit on technology and skill labels.
func ValidateTag(field, value string) error {
	if WordCount(value) > MaxTagWords {
		return invalid(field, fmt.Sprintf("must be at most %d words", MaxTagWords))
	}
	return nil
}

func ValidateQuestion(q Question) error {
	if q.Text == "" {
		return invalid("text", "is required")
	}
	if q.TimeLimit <= 0 || q.TimeLimit > MaxTimeLimit {
		return invalid("timeLimit", fmt.Sprintf("must be between 1 and %d seconds", MaxTimeLimit))
	}
	if err := ValidateTag("technology", q.Technology); err != nil {
		return err
	}
	if err := ValidateTag("skill", q.Skill); err != nil {
		return err
	}
	switch q.Type {
	case QuestionMCQ:
		if len(q.Options) < 2 {
			return invalid("options", "multiple choice needs at least 2 options")
		}
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
			return invalid("correctAnswerIndex", "must point into options")
		}
	case QuestionSurvey:
		if len(q.Options) < 2 {
			return invalid("options", "survey needs at least 2 options")
		}
	case QuestionMatch:
		if len(q.MatchPairs) < 2 {
			return invalid("matchPairs", "matching needs at least 2 pairs")
		}
		for _, pair := range q.MatchPairs {
			if strings.TrimSpace(pair.Prompt) == "" || !contains(q.Options, pair.CorrectMatch) {
				return invalid("matchPairs", "every pair needs a prompt and a match listed in options")
			}
		}
	case QuestionWordCloud:
	default:
		return invalid("type", "unknown question type "+string(q.Type))
	}
	for _, opt := range q.Options {
		if opt == "" {
			return invalid("options", "options cannot be empty")
		}
	}
	return nil
}

// ValidateQuiz checks a quiz before it is stored. Drafts only need one question.
func ValidateQuiz(title string, questions []Question, draft bool) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return invalid("title", "is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return invalid("title", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
	}
	if len(questions) == 0 {
		return invalid("questions", "at least one question is required")
	}
	if !draft && len(questions) > MaxLiveQuestions {
		return invalid("questions", fmt.Sprintf("a live quiz takes at most %d questions", MaxLiveQuestions))
	}
	for i, q := range questions {
		if err := ValidateQuestion(q); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// ValidateGenerationRequest checks the inputs of an AI question request.
func ValidateGenerationRequest(topic, skill string, count int) error {
	if strings.TrimSpace(topic) == "" {
		return invalid("topic", "is required")
	}
	if err := ValidateTag("topic", topic); err != nil {
		return err
	}
	if err := ValidateTag("skill", skill); err != nil {
		return err
	}
	if count < 1 || count > MaxLiveQuestions {
		return invalid("count", fmt.Sprintf("must be between 1 and %d", MaxLiveQuestions))
	}
	return nil
}

// AcceptGenerated reports whether a generated multiple choice question is usable.
func AcceptGenerated(q Question) bool {
	if len(q.Options) != GeneratedOptionCount {
		return false
	}
	if q.Text == "" || WordCount(q.Text) > MaxGeneratedWords {
		return false
	}
	for _, opt := range q.Options {
		if opt == "" || WordCount(opt) > MaxGeneratedOptWords {
			return false
		}
	}
	return q.CorrectAnswerIndex >= 0 && q.CorrectAnswerIndex < len(q.Options)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
