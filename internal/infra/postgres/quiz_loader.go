package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"livequiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader loads quiz content from Postgres for the read-through caches.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz      domain.Quiz
		config    []byte
		phase     string
		startedAt *time.Time
	)
	err := l.pool.QueryRow(ctx, `
		SELECT id, title, organizer_name, config, is_draft, is_archived,
		       phase, current_question_index, question_started_at, created_at
		FROM quizzes WHERE id = $1`, quizID).
		Scan(&quiz.ID, &quiz.Title, &quiz.OrganizerName, &config, &quiz.IsDraft, &quiz.IsArchived,
			&phase, &quiz.CurrentQuestionIndex, &startedAt, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(config, &quiz.Config); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz config: %w", err)
	}
	quiz.Phase = domain.Phase(phase)
	quiz.QuestionStartedAt = startedAt

	rows, err := l.pool.Query(ctx, `
		SELECT id, text, type, options, correct_answer_index, match_pairs, time_limit, technology, skill
		FROM quiz_questions WHERE quiz_id = $1 ORDER BY position`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q                   domain.Question
			qType               string
			options, matchPairs []byte
		)
		if err := rows.Scan(&q.ID, &q.Text, &qType, &options, &q.CorrectAnswerIndex, &matchPairs,
			&q.TimeLimit, &q.Technology, &q.Skill); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		q.Type = domain.QuestionType(qType)
		q.OrganizerName = quiz.OrganizerName
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return domain.Quiz{}, fmt.Errorf("unmarshal options: %w", err)
		}
		if err := json.Unmarshal(matchPairs, &q.MatchPairs); err != nil {
			return domain.Quiz{}, fmt.Errorf("unmarshal match pairs: %w", err)
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	return quiz, nil
}
