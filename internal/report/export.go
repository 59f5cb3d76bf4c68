package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"livequiz-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Section selects which part of the report a CSV export carries.
type Section string

const (
	SectionInsights  Section = "insights"
	SectionQuestions Section = "questions"
	SectionEducator  Section = "educator"
)

func ParseSection(raw string) (Section, error) {
	switch s := Section(raw); s {
	case "":
		return SectionInsights, nil
	case SectionInsights, SectionQuestions, SectionEducator:
		return s, nil
	}
	return "", &domain.ValidationError{Field: "section", Message: fmt.Sprintf("unknown report section %q", raw)}
}

// Document is everything an export needs.
type Document struct {
	Title    string
	QuizID   string
	Report   Report
	Insights Insights
}

func pct(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// WriteCSV renders one section of the report as CSV. Blank records separate
// the blocks.
func WriteCSV(w io.Writer, doc Document, section Section) error {
	cw := csv.NewWriter(w)
	r := doc.Report
	rows := [][]string{
		{"Quiz Report: " + doc.Title},
		{"Quiz ID: " + doc.QuizID},
		{},
	}

	switch section {
	case SectionInsights:
		rows = append(rows,
			[]string{"Overall Insights"},
			[]string{"Participants Joined", strconv.Itoa(r.TotalJoined)},
			[]string{"Participants Participated", strconv.Itoa(r.TotalParticipated)},
			[]string{"Average Score", pct(r.AverageScore)},
			[]string{},
		)
		if r.ScoreDistribution != nil {
			rows = append(rows, []string{"Score Distribution"}, []string{"Range (%)", "Count"})
			for i, count := range r.ScoreDistribution {
				rows = append(rows, []string{DistributionLabels[i], strconv.Itoa(count)})
			}
			rows = append(rows, []string{})
		}
		if len(r.BySkill) > 0 {
			rows = append(rows, []string{"Performance by Skill"})
			rows = append(rows, tagRows("Skill", r.BySkill)...)
			rows = append(rows, []string{})
		}
		if len(r.ByTechnology) > 0 {
			rows = append(rows, []string{"Performance by Technology"})
			rows = append(rows, tagRows("Technology", r.ByTechnology)...)
		}
	case SectionQuestions:
		if len(r.QuestionAnalytics) > 0 {
			rows = append(rows,
				[]string{"Question-Level Analytics"},
				[]string{"Question", "Correctness (%)", "Average Score", "Average Time (s)"},
			)
			for _, qa := range r.QuestionAnalytics {
				rows = append(rows, []string{qa.Text, pct(qa.Correctness), pct(qa.AvgScore), pct(qa.AvgTime)})
			}
		}
	case SectionEducator:
		c := Competency{}
		if r.Competency != nil {
			c = *r.Competency
		}
		rows = append(rows,
			[]string{"Competency Achievement"},
			[]string{"Target Competency", fmt.Sprintf("%.0f%%", CompetencyThreshold*100)},
			[]string{"Participants Achieved", strconv.Itoa(c.Achieved)},
			[]string{"Total Participants", strconv.Itoa(c.Total)},
			[]string{"Achievement Rate (%)", pct(c.Percentage)},
			[]string{},
			[]string{"AI-Powered Insights"},
			[]string{insightText(doc.Insights)},
		)
	default:
		return fmt.Errorf("unknown report section %q", section)
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func tagRows(label string, tags []TagPerformance) [][]string {
	rows := [][]string{{label, "Correct Answers", "Total Answers", "Accuracy (%)"}}
	for _, t := range tags {
		rows = append(rows, []string{t.Tag, strconv.Itoa(t.CorrectAnswers), strconv.Itoa(t.TotalAnswers), pct(t.Percentage)})
	}
	return rows
}

func insightText(in Insights) string {
	if in.Text != "" {
		return in.Text
	}
	if in.Message != "" {
		return in.Message
	}
	return NoInsights
}

// WriteXLSX renders the whole report as a workbook with one sheet per block.
func WriteXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	r := doc.Report
	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return err
	}
	summary := [][]any{
		{"Quiz", doc.Title},
		{"Quiz ID", doc.QuizID},
		{"Participants Joined", r.TotalJoined},
		{"Participants Participated", r.TotalParticipated},
		{"Average Score", r.AverageScore},
		{"Max Possible Score", r.MaxPossibleScore},
	}
	if r.Competency != nil {
		summary = append(summary,
			[]any{"Competency Achieved", r.Competency.Achieved},
			[]any{"Competency Rate (%)", r.Competency.Percentage},
		)
	}
	for i, count := range r.ScoreDistribution {
		summary = append(summary, []any{"Score " + DistributionLabels[i] + "%", count})
	}
	if err := writeSheet(f, "Summary", nil, summary); err != nil {
		return err
	}

	tagHeader := []any{"Tag", "Correct Answers", "Total Answers", "Accuracy (%)", "Level"}
	for _, block := range []struct {
		sheet string
		tags  []TagPerformance
	}{{"Skills", r.BySkill}, {"Technologies", r.ByTechnology}} {
		rows := make([][]any, 0, len(block.tags))
		for _, t := range block.tags {
			rows = append(rows, []any{t.Tag, t.CorrectAnswers, t.TotalAnswers, t.Percentage, t.Level})
		}
		if _, err := f.NewSheet(block.sheet); err != nil {
			return err
		}
		if err := writeSheet(f, block.sheet, tagHeader, rows); err != nil {
			return err
		}
	}

	questions := make([][]any, 0, len(r.QuestionAnalytics))
	for _, qa := range r.QuestionAnalytics {
		questions = append(questions, []any{qa.Text, string(qa.Type), qa.Answers, qa.Correctness, qa.AvgScore, qa.AvgTime})
	}
	if _, err := f.NewSheet("Questions"); err != nil {
		return err
	}
	if err := writeSheet(f, "Questions", []any{"Question", "Type", "Answers", "Correctness (%)", "Average Score", "Average Time (s)"}, questions); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	row := 1
	if header != nil {
		if err := sw.SetRow("A1", header); err != nil {
			return err
		}
		row++
	}
	for _, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
		row++
	}
	return sw.Flush()
}
