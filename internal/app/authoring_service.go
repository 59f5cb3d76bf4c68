package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"livequiz-service/internal/domain"
	"livequiz-service/internal/logger"
	"livequiz-service/internal/security"
	"github.com/google/uuid"
)

const (
	createAttempts     = 5
	maxOrganizerLength = 60
	maxClanNameLength  = 30
)

// AuthoringStore is the persistence quiz authoring needs.
type AuthoringStore interface {
	QuizStore
	LibraryStore
	UsageStore
}

// AuthoringService owns quiz creation, publishing, the question bank and AI
// question generation.
type AuthoringService struct {
	store      AuthoringStore
	quizzes    QuizRepository
	generator  QuestionGenerator
	dailyLimit int
	newCode    func() string
	now        func() time.Time
}

func NewAuthoringService(store AuthoringStore, quizzes QuizRepository, generator QuestionGenerator, dailyLimit int) *AuthoringService {
	return &AuthoringService{
		store:      store,
		quizzes:    quizzes,
		generator:  generator,
		dailyLimit: dailyLimit,
		newCode:    security.GenerateRoomCode,
		now:        time.Now,
	}
}

// WithCodes swaps the room code source. Tests use it to force collisions.
func (s *AuthoringService) WithCodes(next func() string) *AuthoringService {
	s.newCode = next
	return s
}

type CreateQuizInput struct {
	Title         string            `json:"title"`
	Questions     []domain.Question `json:"questions"`
	Config        domain.QuizConfig `json:"config"`
	Draft         bool              `json:"draft"`
	SaveToLibrary bool              `json:"saveToLibrary"`
}

type GenerateResult struct {
	Questions []domain.Question `json:"questions"`
	Requested int               `json:"requested"`
	Remaining int               `json:"remaining"`
}

// CreateQuiz validates and stores a quiz under a fresh room code. Questions
// are copied by value with new ids.
func (s *AuthoringService) CreateQuiz(ctx context.Context, organizer string, in CreateQuizInput) (domain.Quiz, error) {
	organizer, err := cleanOrganizer(organizer)
	if err != nil {
		return domain.Quiz{}, err
	}
	title := security.CleanText(in.Title, 0)
	questions := make([]domain.Question, len(in.Questions))
	for i, q := range in.Questions {
		q = domain.NormalizeQuestion(q)
		q.ID = uuid.NewString()
		q.OrganizerName = organizer
		questions[i] = q
	}
	if err := domain.ValidateQuiz(title, questions, in.Draft); err != nil {
		return domain.Quiz{}, err
	}

	quiz := domain.Quiz{
		Title:         title,
		OrganizerName: organizer,
		Questions:     questions,
		Config:        normalizeConfig(in.Config),
		IsDraft:       in.Draft,
		CreatedAt:     s.now().UTC(),
		QuizState:     domain.QuizState{Phase: domain.PhaseLobby},
	}
	for attempt := 1; ; attempt++ {
		quiz.ID = s.newCode()
		err = s.store.CreateQuiz(ctx, quiz)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrQuizExists) || attempt == createAttempts {
			return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
		}
		logger.Debug("room code collision", "code", quiz.ID, "attempt", attempt)
	}

	if in.SaveToLibrary {
		if err := s.store.AddToLibrary(ctx, libraryCopies(questions)); err != nil {
			logger.Warn("save questions to library failed", "quiz_id", quiz.ID, "error", err)
		}
	}
	logger.Info("quiz created", "quiz_id", quiz.ID, "organizer", organizer, "questions", len(questions), "draft", quiz.IsDraft)
	return quiz, nil
}

// PublishDraft makes a draft joinable. The live question cap applies now.
func (s *AuthoringService) PublishDraft(ctx context.Context, organizer, quizID string) (domain.Quiz, error) {
	quiz, err := s.owned(ctx, organizer, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !quiz.IsDraft {
		return quiz, nil
	}
	if err := domain.ValidateQuiz(quiz.Title, quiz.Questions, false); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.store.SetFlags(ctx, quizID, false, quiz.IsArchived); err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	quiz.IsDraft = false
	logger.Info("quiz published", "quiz_id", quizID)
	return quiz, nil
}

// ArchiveQuiz hides a quiz from joins and the organizer's active list.
func (s *AuthoringService) ArchiveQuiz(ctx context.Context, organizer, quizID string) error {
	quiz, err := s.owned(ctx, organizer, quizID)
	if err != nil {
		return err
	}
	if err := s.store.SetFlags(ctx, quizID, quiz.IsDraft, true); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	return nil
}

// ListQuizzes returns the organizer's quizzes, newest first.
func (s *AuthoringService) ListQuizzes(ctx context.Context, organizer string) ([]domain.Quiz, error) {
	organizer, err := cleanOrganizer(organizer)
	if err != nil {
		return nil, err
	}
	return s.store.ListQuizzes(ctx, organizer)
}

// AddToLibrary validates and stores questions in the organizer's bank.
func (s *AuthoringService) AddToLibrary(ctx context.Context, organizer string, questions []domain.Question) ([]domain.Question, error) {
	organizer, err := cleanOrganizer(organizer)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, &domain.ValidationError{Field: "questions", Message: "at least one question is required"}
	}
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		q = domain.NormalizeQuestion(q)
		if err := domain.ValidateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		q.OrganizerName = organizer
		out[i] = q
	}
	out = libraryCopies(out)
	if err := s.store.AddToLibrary(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AuthoringService) ListLibrary(ctx context.Context, filter domain.LibraryFilter) ([]domain.Question, error) {
	return s.store.ListLibrary(ctx, filter)
}

// ReuseQuestions returns copies of another quiz's questions for a new quiz.
func (s *AuthoringService) ReuseQuestions(ctx context.Context, organizer, fromQuizID string) ([]domain.Question, error) {
	quiz, err := s.owned(ctx, organizer, fromQuizID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.ID = ""
		q.Options = append([]string(nil), q.Options...)
		q.MatchPairs = append([]domain.MatchPair(nil), q.MatchPairs...)
		out[i] = q
	}
	return out, nil
}

// GenerateQuestions drafts multiple choice questions within the organizer's
// daily allowance. Only questions meeting the authoring rules are returned
// and counted.
func (s *AuthoringService) GenerateQuestions(ctx context.Context, organizer, topic, skill string, count int) (GenerateResult, error) {
	organizer, err := cleanOrganizer(organizer)
	if err != nil {
		return GenerateResult{}, err
	}
	topic = security.CleanText(topic, 0)
	skill = security.CleanText(skill, 0)
	if err := domain.ValidateGenerationRequest(topic, skill, count); err != nil {
		return GenerateResult{}, err
	}
	if s.generator == nil {
		return GenerateResult{}, domain.ErrGenerationUnavailable
	}

	day := s.now().UTC().Format(time.DateOnly)
	used, err := s.store.AIUsage(ctx, organizer, day)
	if err != nil {
		return GenerateResult{}, err
	}
	if used+count > s.dailyLimit {
		return GenerateResult{Remaining: max(0, s.dailyLimit-used)}, domain.ErrDailyLimit
	}

	generated, err := s.generator.GenerateQuestions(ctx, topic, skill, count)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("generate questions: %w", err)
	}

	accepted := make([]domain.Question, 0, len(generated))
	for _, q := range generated {
		q.Type = domain.QuestionMCQ
		if q.Technology == "" {
			q.Technology = topic
		}
		if q.Skill == "" {
			q.Skill = skill
		}
		q = domain.NormalizeQuestion(q)
		if !domain.AcceptGenerated(q) || domain.ValidateQuestion(q) != nil {
			continue
		}
		q.ID = uuid.NewString()
		q.OrganizerName = organizer
		accepted = append(accepted, q)
		if len(accepted) == count {
			break
		}
	}

	total := used
	if len(accepted) > 0 {
		total, err = s.store.AddAIUsage(ctx, organizer, day, len(accepted))
		if err != nil {
			return GenerateResult{}, err
		}
	}
	logger.Info("questions generated", "organizer", organizer, "requested", count, "accepted", len(accepted))
	return GenerateResult{
		Questions: accepted,
		Requested: count,
		Remaining: max(0, s.dailyLimit-total),
	}, nil
}

func (s *AuthoringService) owned(ctx context.Context, organizer, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.OrganizerName != organizer {
		return domain.Quiz{}, domain.ErrForbidden
	}
	return quiz, nil
}

func (s *AuthoringService) invalidate(ctx context.Context, quizID string) {
	if err := s.quizzes.Invalidate(ctx, quizID); err != nil {
		logger.Warn("quiz cache invalidate failed", "quiz_id", quizID, "error", err)
	}
}

func cleanOrganizer(organizer string) (string, error) {
	organizer = security.CleanText(organizer, maxOrganizerLength)
	if organizer == "" {
		return "", &domain.ValidationError{Field: "organizerName", Message: "is required"}
	}
	return organizer, nil
}

func normalizeConfig(cfg domain.QuizConfig) domain.QuizConfig {
	if !cfg.ClanBased {
		cfg.ClanNames = nil
		cfg.ClanAssignment = ""
		return cfg
	}
	if cfg.ClanAssignment != domain.ClanAutoBalance {
		cfg.ClanAssignment = domain.ClanPlayerChoice
	}
	names := make(map[domain.Clan]string, len(domain.Clans))
	for _, clan := range domain.Clans {
		if name := security.CleanText(cfg.ClanNames[clan], maxClanNameLength); name != "" {
			names[clan] = name
		}
	}
	cfg.ClanNames = names
	return cfg
}

// libraryCopies gives bank entries their own ids so they never alias quiz questions.
func libraryCopies(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		q.ID = uuid.NewString()
		out[i] = q
	}
	return out
}
