package app

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"livequiz-service/internal/domain"
	"livequiz-service/internal/logger"
	"livequiz-service/internal/report"
	"golang.org/x/sync/errgroup"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ReportView is the organizer facing report of one quiz.
type ReportView struct {
	QuizID   string          `json:"quizId"`
	Title    string          `json:"title"`
	Phase    domain.Phase    `json:"phase"`
	Report   report.Report   `json:"report"`
	Insights report.Insights `json:"insights"`
}

// Export is an encoded report ready to download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService builds post-quiz reports. Insights are best effort and
// never fail a report.
type ReportService struct {
	quizzes  QuizRepository
	store    LiveStore
	insights InsightGenerator
	timeout  time.Duration
}

func NewReportService(quizzes QuizRepository, store LiveStore, insights InsightGenerator, timeout time.Duration) *ReportService {
	return &ReportService{quizzes: quizzes, store: store, insights: insights, timeout: timeout}
}

// Report returns the analytics of quizID to its organizer.
func (s *ReportService) Report(ctx context.Context, organizer, quizID string) (ReportView, error) {
	var (
		quiz    domain.Quiz
		state   domain.QuizState
		players []domain.Player
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		quiz, err = s.quizzes.GetQuiz(gctx, quizID)
		return err
	})
	g.Go(func() (err error) {
		state, err = s.store.GetState(gctx, quizID)
		return err
	})
	g.Go(func() (err error) {
		players, err = s.store.ListPlayers(gctx, quizID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ReportView{}, err
	}
	if quiz.OrganizerName != organizer {
		return ReportView{}, domain.ErrForbidden
	}

	r := report.Build(quiz, players)
	return ReportView{
		QuizID:   quiz.ID,
		Title:    quiz.Title,
		Phase:    state.Phase,
		Report:   r,
		Insights: s.insightsFor(ctx, quiz, r),
	}, nil
}

func (s *ReportService) insightsFor(ctx context.Context, quiz domain.Quiz, r report.Report) report.Insights {
	if !report.HasInsightData(r) {
		return report.Unavailable(report.NotEnoughData)
	}
	if s.insights == nil {
		return report.Unavailable(report.NoInsights)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	text, err := s.insights.Insights(ctx, report.InsightsPrompt(quiz.Title, r))
	if err != nil {
		logger.Warn("insights unavailable", "quiz_id", quiz.ID, "error", err)
		return report.Unavailable(report.NoInsights)
	}
	return report.ParseInsights(text)
}

// Export encodes the report. section only applies to CSV.
func (s *ReportService) Export(ctx context.Context, organizer, quizID string, format ExportFormat, section report.Section) (Export, error) {
	view, err := s.Report(ctx, organizer, quizID)
	if err != nil {
		return Export{}, err
	}
	doc := report.Document{Title: view.Title, QuizID: view.QuizID, Report: view.Report, Insights: view.Insights}

	var buf bytes.Buffer
	out := Export{Filename: fmt.Sprintf("quiz-%s-report", view.QuizID)}
	switch format {
	case FormatCSV, "":
		if section == "" {
			section = report.SectionInsights
		}
		if err := report.WriteCSV(&buf, doc, section); err != nil {
			return Export{}, fmt.Errorf("write csv: %w", err)
		}
		out.Filename += "-" + string(section) + ".csv"
		out.ContentType = "text/csv"
	case FormatXLSX:
		if err := report.WriteXLSX(&buf, doc); err != nil {
			return Export{}, fmt.Errorf("write xlsx: %w", err)
		}
		out.Filename += ".xlsx"
		out.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return Export{}, &domain.ValidationError{Field: "format", Message: "must be csv or xlsx"}
	}
	out.Data = buf.Bytes()
	return out, nil
}
