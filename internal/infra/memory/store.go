package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
)

// Store keeps quizzes, players, the question bank and AI usage in process.
// It implements every app store port and QuizLoader, and backs tests and
// single-instance demo runs.
type Store struct {
	mu        sync.RWMutex
	quizzes   map[string]*domain.Quiz
	players   map[string][]*domain.Player
	lifelines map[answerKey]domain.Lifeline
	library   []domain.Question
	usage     map[string]int
}

type answerKey struct {
	playerID   string
	questionID string
}

func NewStore() *Store {
	return &Store{
		quizzes:   make(map[string]*domain.Quiz),
		players:   make(map[string][]*domain.Player),
		lifelines: make(map[answerKey]domain.Lifeline),
		usage:     make(map[string]int),
	}
}

var (
	_ app.LiveStore      = (*Store)(nil)
	_ app.AuthoringStore = (*Store)(nil)
	_ QuizLoader         = (*Store)(nil)
)

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; ok {
		return domain.ErrQuizExists
	}
	stored := cloneQuiz(quiz)
	s.quizzes[quiz.ID] = &stored
	return nil
}

func (s *Store) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(*quiz), nil
}

func (s *Store) GetState(_ context.Context, quizID string) (domain.QuizState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.QuizState{}, domain.ErrQuizNotFound
	}
	return cloneState(quiz.QuizState), nil
}

func (s *Store) SwapState(_ context.Context, quizID string, from, to domain.QuizState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	if quiz.Phase != from.Phase || quiz.CurrentQuestionIndex != from.CurrentQuestionIndex {
		return fmt.Errorf("%w: quiz moved on to %s", domain.ErrInvalidTransition, quiz.Phase)
	}
	quiz.QuizState = cloneState(to)
	return nil
}

func (s *Store) SetFlags(_ context.Context, quizID string, draft, archived bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	quiz.IsDraft, quiz.IsArchived = draft, archived
	return nil
}

func (s *Store) ListQuizzes(_ context.Context, organizer string) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0)
	for _, quiz := range s.quizzes {
		if quiz.OrganizerName == organizer {
			out = append(out, cloneQuiz(*quiz))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) AddPlayer(_ context.Context, player domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[player.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	stored := clonePlayer(player)
	s.players[player.QuizID] = append(s.players[player.QuizID], &stored)
	return nil
}

func (s *Store) GetPlayer(_ context.Context, quizID, playerID string) (domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.findPlayer(quizID, playerID)
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return clonePlayer(*p), nil
}

func (s *Store) ListPlayers(_ context.Context, quizID string) ([]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return nil, domain.ErrQuizNotFound
	}
	out := make([]domain.Player, 0, len(s.players[quizID]))
	for _, p := range s.players[quizID] {
		out = append(out, clonePlayer(*p))
	}
	return out, nil
}

func (s *Store) RecordAnswer(_ context.Context, rec app.AnswerRecord) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.findPlayer(rec.QuizID, rec.PlayerID)
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if _, answered := p.AnswerFor(rec.Answer.QuestionID); answered {
		return domain.Player{}, domain.ErrAlreadyAnswered
	}

	p.Answers = append(p.Answers, rec.Answer)
	p.Score += rec.Answer.Score
	if rec.Scorable {
		if rec.Answer.IsCorrect {
			p.CorrectStreak++
			if rec.DoublerStreak > 0 && p.CorrectStreak%rec.DoublerStreak == 0 {
				p.PointDoublers++
			}
		} else {
			p.CorrectStreak = 0
		}
	}
	return clonePlayer(*p), nil
}

func (s *Store) UseLifeline(_ context.Context, use app.LifelineUse) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.findPlayer(use.QuizID, use.PlayerID)
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	key := answerKey{playerID: use.PlayerID, questionID: use.QuestionID}
	if _, used := s.lifelines[key]; used {
		return domain.Player{}, domain.ErrLifelineUsed
	}

	switch use.Lifeline {
	case domain.LifelineFiftyFifty:
		if p.Score < use.Cost {
			return domain.Player{}, domain.ErrLifelineUnavailable
		}
		p.Score -= use.Cost
		p.FiftyFiftyUses++
	case domain.LifelinePointDoubler:
		if p.PointDoublers <= 0 {
			return domain.Player{}, domain.ErrLifelineUnavailable
		}
		p.PointDoublers--
	default:
		return domain.Player{}, domain.ErrLifelineUnavailable
	}
	s.lifelines[key] = use.Lifeline
	return clonePlayer(*p), nil
}

func (s *Store) LifelineFor(_ context.Context, playerID, questionID string) (domain.Lifeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lifelines[answerKey{playerID: playerID, questionID: questionID}], nil
}

func (s *Store) AddToLibrary(_ context.Context, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range questions {
		s.library = append(s.library, cloneQuestion(q))
	}
	return nil
}

func (s *Store) ListLibrary(_ context.Context, filter domain.LibraryFilter) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0)
	for i := len(s.library) - 1; i >= 0; i-- {
		if filter.Match(s.library[i]) {
			out = append(out, cloneQuestion(s.library[i]))
		}
	}
	return out, nil
}

func (s *Store) AIUsage(_ context.Context, organizer, day string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage[organizer+"|"+day], nil
}

func (s *Store) AddAIUsage(_ context.Context, organizer, day string, n int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := organizer + "|" + day
	s.usage[key] += n
	return s.usage[key], nil
}

func (s *Store) findPlayer(quizID, playerID string) (*domain.Player, bool) {
	for _, p := range s.players[quizID] {
		if p.ID == playerID {
			return p, true
		}
	}
	return nil, false
}

func cloneState(st domain.QuizState) domain.QuizState {
	if st.QuestionStartedAt != nil {
		started := *st.QuestionStartedAt
		st.QuestionStartedAt = &started
	}
	return st
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = append([]string(nil), q.Options...)
	q.MatchPairs = append([]domain.MatchPair(nil), q.MatchPairs...)
	return q
}

func cloneQuiz(quiz domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		questions[i] = cloneQuestion(q)
	}
	quiz.Questions = questions
	if quiz.Config.ClanNames != nil {
		names := make(map[domain.Clan]string, len(quiz.Config.ClanNames))
		for k, v := range quiz.Config.ClanNames {
			names[k] = v
		}
		quiz.Config.ClanNames = names
	}
	quiz.QuizState = cloneState(quiz.QuizState)
	return quiz
}

func clonePlayer(p domain.Player) domain.Player {
	answers := make([]domain.PlayerAnswer, len(p.Answers))
	copy(answers, p.Answers)
	p.Answers = answers
	return p
}
