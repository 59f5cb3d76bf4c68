package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"github.com/uptrace/bun"
)

// Store is the durable implementation of the app store ports on bun.
// Multi-row writes run in one transaction; score and streak changes are
// applied in SQL so concurrent answers never lose an update.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, now: time.Now}
}

var (
	_ app.LiveStore      = (*Store)(nil)
	_ app.AuthoringStore = (*Store)(nil)
)

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(newQuizRow(quiz)).Exec(ctx); err != nil {
			if pgCode(err) == uniqueViolation {
				return domain.ErrQuizExists
			}
			return fmt.Errorf("insert quiz: %w", err)
		}
		rows := make([]questionRow, len(quiz.Questions))
		for i, q := range quiz.Questions {
			rows[i] = newQuestionRow(quiz.ID, i, q)
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
}

func (s *Store) GetState(ctx context.Context, quizID string) (domain.QuizState, error) {
	var row quizRow
	err := s.db.NewSelect().Model(&row).
		Column("phase", "current_question_index", "question_started_at").
		Where("id = ?", quizID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizState{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizState{}, fmt.Errorf("get state: %w", err)
	}
	return domain.QuizState{
		Phase:                domain.Phase(row.Phase),
		CurrentQuestionIndex: row.CurrentQuestionIndex,
		QuestionStartedAt:    row.QuestionStartedAt,
	}, nil
}

func (s *Store) SwapState(ctx context.Context, quizID string, from, to domain.QuizState) error {
	res, err := s.db.NewUpdate().Model((*quizRow)(nil)).
		Set("phase = ?", string(to.Phase)).
		Set("current_question_index = ?", to.CurrentQuestionIndex).
		Set("question_started_at = ?", to.QuestionStartedAt).
		Where("id = ?", quizID).
		Where("phase = ?", string(from.Phase)).
		Where("current_question_index = ?", from.CurrentQuestionIndex).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("swap state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	if _, err := s.GetState(ctx, quizID); err != nil {
		return err
	}
	return fmt.Errorf("%w: quiz is no longer in %s", domain.ErrInvalidTransition, from.Phase)
}

func (s *Store) SetFlags(ctx context.Context, quizID string, draft, archived bool) error {
	res, err := s.db.NewUpdate().Model((*quizRow)(nil)).
		Set("is_draft = ?", draft).
		Set("is_archived = ?", archived).
		Where("id = ?", quizID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set flags: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) ListQuizzes(ctx context.Context, organizer string) ([]domain.Quiz, error) {
	var rows []quizRow
	if err := s.db.NewSelect().Model(&rows).
		Where("organizer_name = ?", organizer).
		Order("created_at DESC", "id").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	if len(rows) == 0 {
		return []domain.Quiz{}, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var questions []questionRow
	if err := s.db.NewSelect().Model(&questions).
		Where("quiz_id IN (?)", bun.In(ids)).
		Order("quiz_id", "position").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	byQuiz := make(map[string][]domain.Question, len(rows))
	for _, q := range questions {
		byQuiz[q.QuizID] = append(byQuiz[q.QuizID], q.toDomain())
	}

	out := make([]domain.Quiz, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain(byQuiz[r.ID])
	}
	return out, nil
}

func (s *Store) AddPlayer(ctx context.Context, player domain.Player) error {
	if _, err := s.db.NewInsert().Model(newPlayerRow(player)).Exec(ctx); err != nil {
		if pgCode(err) == foreignKeyViolation {
			return domain.ErrQuizNotFound
		}
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (s *Store) GetPlayer(ctx context.Context, quizID, playerID string) (domain.Player, error) {
	return s.loadPlayer(ctx, s.db, quizID, playerID)
}

func (s *Store) loadPlayer(ctx context.Context, db bun.IDB, quizID, playerID string) (domain.Player, error) {
	var row playerRow
	err := db.NewSelect().Model(&row).
		Where("id = ?", playerID).
		Where("quiz_id = ?", quizID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("get player: %w", err)
	}
	return s.withAnswers(ctx, db, row)
}

func (s *Store) withAnswers(ctx context.Context, db bun.IDB, row playerRow) (domain.Player, error) {
	var answers []answerRow
	if err := db.NewSelect().Model(&answers).
		Where("player_id = ?", row.ID).
		Order("submitted_at").
		Scan(ctx); err != nil {
		return domain.Player{}, fmt.Errorf("get answers: %w", err)
	}
	out := make([]domain.PlayerAnswer, len(answers))
	for i, a := range answers {
		out[i] = a.toDomain()
	}
	return row.toDomain(out), nil
}

func (s *Store) ListPlayers(ctx context.Context, quizID string) ([]domain.Player, error) {
	var rows []playerRow
	if err := s.db.NewSelect().Model(&rows).
		Where("quiz_id = ?", quizID).
		Order("joined_at", "id").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	var answers []answerRow
	if err := s.db.NewSelect().Model(&answers).
		Where("quiz_id = ?", quizID).
		Order("submitted_at").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	byPlayer := make(map[string][]domain.PlayerAnswer, len(rows))
	for _, a := range answers {
		byPlayer[a.PlayerID] = append(byPlayer[a.PlayerID], a.toDomain())
	}

	out := make([]domain.Player, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain(byPlayer[r.ID])
	}
	return out, nil
}

func (s *Store) RecordAnswer(ctx context.Context, rec app.AnswerRecord) (domain.Player, error) {
	var player domain.Player
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		a := rec.Answer
		_, err := tx.NewInsert().Model(&answerRow{
			PlayerID:     rec.PlayerID,
			QuestionID:   a.QuestionID,
			QuizID:       rec.QuizID,
			Answer:       a.Answer,
			TimeTaken:    a.TimeTaken,
			Score:        a.Score,
			IsCorrect:    a.IsCorrect,
			CorrectPairs: a.CorrectPairs,
			LifelineUsed: string(a.LifelineUsed),
			SubmittedAt:  a.SubmittedAt,
		}).Exec(ctx)
		switch pgCode(err) {
		case "":
		case uniqueViolation:
			return domain.ErrAlreadyAnswered
		case foreignKeyViolation:
			return domain.ErrPlayerNotFound
		}
		if err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}

		earn := rec.Scorable && a.IsCorrect && rec.DoublerStreak > 0
		every := max(rec.DoublerStreak, 1)
		var row playerRow
		err = tx.NewUpdate().Model(&row).
			Set("score = score + ?", a.Score).
			Set("correct_streak = CASE WHEN ? THEN correct_streak WHEN ? THEN correct_streak + 1 ELSE 0 END", !rec.Scorable, a.IsCorrect).
			Set("point_doublers = point_doublers + CASE WHEN ? AND (correct_streak + 1) % ? = 0 THEN 1 ELSE 0 END", earn, every).
			Where("id = ?", rec.PlayerID).
			Where("quiz_id = ?", rec.QuizID).
			Returning("*").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrPlayerNotFound
		}
		if err != nil {
			return fmt.Errorf("update score: %w", err)
		}
		player, err = s.withAnswers(ctx, tx, row)
		return err
	})
	if err != nil {
		return domain.Player{}, err
	}
	return player, nil
}

func (s *Store) UseLifeline(ctx context.Context, use app.LifelineUse) (domain.Player, error) {
	var player domain.Player
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&lifelineRow{
			PlayerID:   use.PlayerID,
			QuestionID: use.QuestionID,
			Lifeline:   string(use.Lifeline),
			UsedAt:     s.now(),
		}).Exec(ctx)
		switch pgCode(err) {
		case "":
		case uniqueViolation:
			return domain.ErrLifelineUsed
		case foreignKeyViolation:
			return domain.ErrPlayerNotFound
		}
		if err != nil {
			return fmt.Errorf("insert lifeline: %w", err)
		}

		var row playerRow
		q := tx.NewUpdate().Model(&row).
			Where("id = ?", use.PlayerID).
			Where("quiz_id = ?", use.QuizID)
		switch use.Lifeline {
		case domain.LifelineFiftyFifty:
			q = q.Set("score = score - ?", use.Cost).
				Set("fifty_fifty_uses = fifty_fifty_uses + 1").
				Where("score >= ?", use.Cost)
		case domain.LifelinePointDoubler:
			q = q.Set("point_doublers = point_doublers - 1").
				Where("point_doublers > 0")
		default:
			return domain.ErrLifelineUnavailable
		}
		err = q.Returning("*").Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrLifelineUnavailable
		}
		if err != nil {
			return fmt.Errorf("spend lifeline: %w", err)
		}
		player, err = s.withAnswers(ctx, tx, row)
		return err
	})
	if err != nil {
		return domain.Player{}, err
	}
	return player, nil
}

func (s *Store) LifelineFor(ctx context.Context, playerID, questionID string) (domain.Lifeline, error) {
	var row lifelineRow
	err := s.db.NewSelect().Model(&row).
		Where("player_id = ?", playerID).
		Where("question_id = ?", questionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LifelineNone, nil
	}
	if err != nil {
		return domain.LifelineNone, fmt.Errorf("get lifeline: %w", err)
	}
	return domain.Lifeline(row.Lifeline), nil
}

func (s *Store) AddToLibrary(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	now := s.now()
	rows := make([]bankRow, len(questions))
	for i, q := range questions {
		rows[i] = newBankRow(q, now)
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert library questions: %w", err)
	}
	return nil
}

func (s *Store) ListLibrary(ctx context.Context, filter domain.LibraryFilter) ([]domain.Question, error) {
	var rows []bankRow
	q := s.db.NewSelect().Model(&rows).Order("created_at DESC", "id")
	if filter.Organizer != "" {
		q = q.Where("organizer_name = ?", filter.Organizer)
	}
	if filter.Technology != "" {
		q = q.Where("technology = ?", filter.Technology)
	}
	if filter.Skill != "" {
		q = q.Where("skill = ?", filter.Skill)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	out := make([]domain.Question, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) AIUsage(ctx context.Context, organizer, day string) (int, error) {
	var used int
	err := s.db.NewSelect().Model((*usageRow)(nil)).
		Column("questions_generated").
		Where("organizer_name = ?", organizer).
		Where("day = ?", day).
		Scan(ctx, &used)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get ai usage: %w", err)
	}
	return used, nil
}

func (s *Store) AddAIUsage(ctx context.Context, organizer, day string, n int) (int, error) {
	var total int
	err := s.db.NewInsert().Model(&usageRow{OrganizerName: organizer, Day: day, QuestionsGenerated: n}).
		On("CONFLICT (organizer_name, day) DO UPDATE").
		Set("questions_generated = ai_usage.questions_generated + EXCLUDED.questions_generated").
		Returning("questions_generated").
		Scan(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("add ai usage: %w", err)
	}
	return total, nil
}
