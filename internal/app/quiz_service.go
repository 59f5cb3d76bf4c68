package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"livequiz-service/internal/domain"
	"livequiz-service/internal/logger"
	"livequiz-service/internal/ranking"
	"livequiz-service/internal/scoring"
	"livequiz-service/internal/security"
	"github.com/google/uuid"
)

const (
	maxNameLength   = 30
	maxAvatarLength = 64
	maxWordLength   = 40
)

// Rules are the per-deployment lifeline settings.
type Rules struct {
	FiftyFiftyCost   int
	StartingDoublers int
	DoublerStreak    int
}

// LiveStore is the persistence a running quiz needs.
type LiveStore interface {
	QuizStore
	PlayerStore
}

// QuizService contains the live quiz use cases: joining, the host driven
// phase machine, answers, lifelines and the room feed.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	store    LiveStore
	guard    AnswerGuard
	rules    Rules
	now      func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizService(sessions SessionRepository, quizzes QuizRepository, store LiveStore, guard AnswerGuard, rules Rules) *QuizService {
	return NewQuizServiceWithClock(sessions, quizzes, store, guard, rules, time.Now)
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(sessions SessionRepository, quizzes QuizRepository, store LiveStore, guard AnswerGuard, rules Rules, now func() time.Time) *QuizService {
	seed := uint64(time.Now().UnixNano())
	return &QuizService{
		sessions: sessions,
		quizzes:  quizzes,
		store:    store,
		guard:    guard,
		rules:    rules,
		now:      now,
		rnd:      rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

type JoinRequest struct {
	Name   string      `json:"name"`
	Avatar string      `json:"avatar"`
	Clan   domain.Clan `json:"clan,omitempty"`
}

// Submission is a player's answer to the current question.
type Submission struct {
	QuestionID string        `json:"questionId"`
	Answer     domain.Answer `json:"answer"`
}

type AnswerResult struct {
	QuestionID    string          `json:"questionId"`
	Correct       bool            `json:"correct"`
	Awarded       int             `json:"awarded"`
	CorrectPairs  int             `json:"correctPairs,omitempty"`
	TotalScore    int             `json:"totalScore"`
	LifelineUsed  domain.Lifeline `json:"lifelineUsed,omitempty"`
	PointDoublers int             `json:"pointDoublers"`
	EarnedDoubler bool            `json:"earnedDoubler"`
}

type LifelineResult struct {
	Lifeline      domain.Lifeline `json:"lifeline"`
	QuestionID    string          `json:"questionId"`
	Eliminated    []int           `json:"eliminated,omitempty"`
	TotalScore    int             `json:"totalScore"`
	PointDoublers int             `json:"pointDoublers"`
}

// Join adds a player to a published quiz that is still in its lobby.
func (s *QuizService) Join(ctx context.Context, quizID string, req JoinRequest) (domain.Player, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Player{}, err
	}
	if quiz.IsDraft || quiz.IsArchived {
		return domain.Player{}, domain.ErrJoinClosed
	}
	state, err := s.store.GetState(ctx, quizID)
	if err != nil {
		return domain.Player{}, err
	}
	if state.Phase != domain.PhaseLobby {
		return domain.Player{}, domain.ErrJoinClosed
	}

	name := security.CleanText(req.Name, maxNameLength)
	if name == "" {
		return domain.Player{}, &domain.ValidationError{Field: "name", Message: "is required"}
	}

	player := domain.Player{
		ID:            uuid.NewString(),
		QuizID:        quiz.ID,
		Name:          name,
		Avatar:        security.CleanText(req.Avatar, maxAvatarLength),
		PointDoublers: s.rules.StartingDoublers,
		JoinedAt:      s.now(),
	}
	if quiz.Config.ClanBased {
		clan, err := s.pickClan(ctx, quiz, req.Clan)
		if err != nil {
			return domain.Player{}, err
		}
		player.Clan = clan
	}

	if err := s.store.AddPlayer(ctx, player); err != nil {
		return domain.Player{}, fmt.Errorf("add player: %w", err)
	}
	logger.Info("player joined", "quiz_id", quiz.ID, "player_id", player.ID, "clan", player.Clan)
	s.broadcast(ctx, quiz.ID)
	return player, nil
}

func (s *QuizService) pickClan(ctx context.Context, quiz domain.Quiz, requested domain.Clan) (domain.Clan, error) {
	if quiz.Config.ClanAssignment != domain.ClanAutoBalance {
		for _, clan := range domain.Clans {
			if clan == requested {
				return clan, nil
			}
		}
		return "", &domain.ValidationError{Field: "clan", Message: "choose Titans or Defenders"}
	}

	players, err := s.store.ListPlayers(ctx, quiz.ID)
	if err != nil {
		return "", err
	}
	var titans, defenders int
	for _, p := range players {
		switch p.Clan {
		case domain.ClanTitans:
			titans++
		case domain.ClanDefenders:
			defenders++
		}
	}
	if titans <= defenders {
		return domain.ClanTitans, nil
	}
	return domain.ClanDefenders, nil
}

// Advance moves the quiz to the next phase.
func (s *QuizService) Advance(ctx context.Context, quizID string) (RoomState, error) {
	return s.move(ctx, quizID, func(quiz domain.Quiz, state domain.QuizState) (domain.QuizState, error) {
		return domain.NextState(state, quiz.Config.ClanBased, len(quiz.Questions), s.now())
	})
}

// SetPhase moves the quiz to target, which must be the legal next phase.
func (s *QuizService) SetPhase(ctx context.Context, quizID string, target domain.Phase) (RoomState, error) {
	return s.move(ctx, quizID, func(quiz domain.Quiz, state domain.QuizState) (domain.QuizState, error) {
		return domain.Transition(state, target, quiz.Config.ClanBased, len(quiz.Questions), s.now())
	})
}

func (s *QuizService) move(ctx context.Context, quizID string, next func(domain.Quiz, domain.QuizState) (domain.QuizState, error)) (RoomState, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return RoomState{}, err
	}
	if quiz.IsDraft || quiz.IsArchived {
		return RoomState{}, fmt.Errorf("%w: quiz is not live", domain.ErrInvalidTransition)
	}
	state, err := s.store.GetState(ctx, quizID)
	if err != nil {
		return RoomState{}, err
	}
	to, err := next(quiz, state)
	if err != nil {
		return RoomState{}, err
	}
	if err := s.store.SwapState(ctx, quizID, state, to); err != nil {
		return RoomState{}, err
	}
	logger.Info("phase changed", "quiz_id", quizID, "from", state.Phase, "to", to.Phase, "index", to.CurrentQuestionIndex)

	if session, ok := s.sessions.Get(quizID); ok {
		return session.refresh(func() (RoomState, error) { return s.snapshot(ctx, quizID) })
	}
	return s.snapshot(ctx, quizID)
}

// SubmitAnswer scores an answer to the active question. Elapsed time is
// measured from the server side start of the question.
func (s *QuizService) SubmitAnswer(ctx context.Context, quizID, playerID string, sub Submission) (AnswerResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return AnswerResult{}, err
	}
	state, err := s.store.GetState(ctx, quizID)
	if err != nil {
		return AnswerResult{}, err
	}
	quiz.QuizState = state
	question, ok := quiz.CurrentQuestion()
	if state.Phase != domain.PhaseQuestionActive || !ok {
		return AnswerResult{}, domain.ErrAnsweringClosed
	}
	if sub.QuestionID != "" && sub.QuestionID != question.ID {
		return AnswerResult{}, domain.ErrAnsweringClosed
	}

	before, err := s.store.GetPlayer(ctx, quizID, playerID)
	if err != nil {
		return AnswerResult{}, err
	}
	if _, answered := before.AnswerFor(question.ID); answered {
		return AnswerResult{}, domain.ErrAlreadyAnswered
	}

	if question.Type == domain.QuestionWordCloud {
		sub.Answer.Text = security.CleanText(sub.Answer.Text, maxWordLength)
	}
	lifeline, err := s.store.LifelineFor(ctx, playerID, question.ID)
	if err != nil {
		return AnswerResult{}, err
	}
	submittedAt := s.now()
	elapsed := 0.0
	if state.QuestionStartedAt != nil {
		elapsed = submittedAt.Sub(*state.QuestionStartedAt).Seconds()
	}
	result, err := scoring.Score(question, sub.Answer, elapsed, lifeline)
	if err != nil {
		return AnswerResult{}, err
	}

	claimed, err := s.guard.Claim(ctx, quizID, playerID, question.ID)
	if err != nil {
		return AnswerResult{}, fmt.Errorf("claim answer: %w", err)
	}
	if !claimed {
		return AnswerResult{}, domain.ErrAlreadyAnswered
	}

	after, err := s.store.RecordAnswer(ctx, AnswerRecord{
		QuizID:   quizID,
		PlayerID: playerID,
		Answer: domain.PlayerAnswer{
			QuestionID:   question.ID,
			Answer:       sub.Answer,
			TimeTaken:    elapsed,
			Score:        result.Score,
			IsCorrect:    result.IsCorrect,
			CorrectPairs: result.CorrectPairs,
			LifelineUsed: lifeline,
			SubmittedAt:  submittedAt,
		},
		Scorable:      scoring.IsScorable(question),
		DoublerStreak: s.rules.DoublerStreak,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyAnswered) {
			if relErr := s.guard.Release(ctx, quizID, playerID, question.ID); relErr != nil {
				logger.Warn("release answer claim failed", "quiz_id", quizID, "player_id", playerID, "error", relErr)
			}
		}
		return AnswerResult{}, err
	}

	s.broadcast(ctx, quizID)
	return AnswerResult{
		QuestionID:    question.ID,
		Correct:       result.IsCorrect,
		Awarded:       result.Score,
		CorrectPairs:  result.CorrectPairs,
		TotalScore:    after.Score,
		LifelineUsed:  lifeline,
		PointDoublers: after.PointDoublers,
		EarnedDoubler: after.PointDoublers > before.PointDoublers,
	}, nil
}

// UseLifeline spends a lifeline on the active multiple choice question.
func (s *QuizService) UseLifeline(ctx context.Context, quizID, playerID string, lifeline domain.Lifeline) (LifelineResult, error) {
	if lifeline != domain.LifelineFiftyFifty && lifeline != domain.LifelinePointDoubler {
		return LifelineResult{}, &domain.ValidationError{Field: "lifeline", Message: "unknown lifeline " + string(lifeline)}
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return LifelineResult{}, err
	}
	state, err := s.store.GetState(ctx, quizID)
	if err != nil {
		return LifelineResult{}, err
	}
	quiz.QuizState = state
	question, ok := quiz.CurrentQuestion()
	if state.Phase != domain.PhaseQuestionActive || !ok {
		return LifelineResult{}, domain.ErrAnsweringClosed
	}
	if question.Type != domain.QuestionMCQ {
		return LifelineResult{}, domain.ErrLifelineUnavailable
	}

	player, err := s.store.GetPlayer(ctx, quizID, playerID)
	if err != nil {
		return LifelineResult{}, err
	}
	if _, answered := player.AnswerFor(question.ID); answered {
		return LifelineResult{}, domain.ErrAlreadyAnswered
	}

	use := LifelineUse{QuizID: quizID, PlayerID: playerID, QuestionID: question.ID, Lifeline: lifeline}
	if lifeline == domain.LifelineFiftyFifty {
		use.Cost = s.rules.FiftyFiftyCost
	}
	player, err = s.store.UseLifeline(ctx, use)
	if err != nil {
		return LifelineResult{}, err
	}

	res := LifelineResult{
		Lifeline:      lifeline,
		QuestionID:    question.ID,
		TotalScore:    player.Score,
		PointDoublers: player.PointDoublers,
	}
	if lifeline == domain.LifelineFiftyFifty {
		s.rndMu.Lock()
		res.Eliminated = scoring.EliminateOptions(question, s.rnd)
		s.rndMu.Unlock()
	}
	logger.Debug("lifeline used", "quiz_id", quizID, "player_id", playerID, "lifeline", lifeline)
	s.broadcast(ctx, quizID)
	return res, nil
}

// Subscribe returns a channel that receives room snapshots for a quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context, quizID string) (<-chan RoomState, func(), error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, nil, err
	}
	session := s.sessions.GetOrCreate(quizID)
	// The snapshot outlives the request that opened the feed.
	feedCtx := context.WithoutCancel(ctx)
	ch, cancel, err := session.subscribe(func() (RoomState, error) { return s.snapshot(feedCtx, quizID) })
	if err != nil {
		s.sessions.DeleteIfEmpty(quizID)
		return nil, nil, err
	}
	return ch, cancel, nil
}

// Leave drops the session once its last subscriber is gone.
func (s *QuizService) Leave(_ context.Context, quizID string) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return
	}
	if session.IsEmpty() {
		s.sessions.DeleteIfEmpty(quizID)
	}
}

// State returns the current room snapshot.
func (s *QuizService) State(ctx context.Context, quizID string) (RoomState, error) {
	return s.snapshot(ctx, quizID)
}

// Standings is the ranked view of a quiz without question details.
type Standings struct {
	Phase       domain.Phase           `json:"phase"`
	Leaderboard []ranking.Standing     `json:"leaderboard"`
	Clans       []ranking.ClanStanding `json:"clans,omitempty"`
	Awards      []ranking.Award        `json:"awards,omitempty"`
}

// Standings returns the leaderboard, clan board and, once finished, the awards.
func (s *QuizService) Standings(ctx context.Context, quizID string) (Standings, error) {
	rs, err := s.snapshot(ctx, quizID)
	if err != nil {
		return Standings{}, err
	}
	return Standings{Phase: rs.Phase, Leaderboard: rs.Leaderboard, Clans: rs.Clans, Awards: rs.Awards}, nil
}

func (s *QuizService) snapshot(ctx context.Context, quizID string) (RoomState, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return RoomState{}, err
	}
	state, err := s.store.GetState(ctx, quizID)
	if err != nil {
		return RoomState{}, err
	}
	players, err := s.store.ListPlayers(ctx, quizID)
	if err != nil {
		return RoomState{}, err
	}
	return buildRoomState(quiz, state, players, s.now()), nil
}

// broadcast pushes a fresh snapshot to subscribers, if anyone is listening.
func (s *QuizService) broadcast(ctx context.Context, quizID string) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return
	}
	if _, err := session.refresh(func() (RoomState, error) { return s.snapshot(ctx, quizID) }); err != nil {
		logger.Warn("room broadcast failed", "quiz_id", quizID, "error", err)
	}
}
