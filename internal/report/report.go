// Package report aggregates a finished quiz into organizer-facing statistics.
package report

import (
	"sort"

	"livequiz-service/internal/domain"
	"livequiz-service/internal/scoring"
)

const (
	// CompetencyThreshold is the share of scorable questions a player must get right.
	CompetencyThreshold = 0.7
	toughestLimit       = 5
)

const (
	LevelGood             = "Good"
	LevelModerate         = "Moderate"
	LevelNeedsImprovement = "Needs Improvement"
)

// DistributionLabels names the five score distribution buckets.
var DistributionLabels = [5]string{"0-20", "21-40", "41-60", "61-80", "81-100"}

type NonParticipant struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type TagPerformance struct {
	Tag            string  `json:"tag"`
	CorrectAnswers int     `json:"correctAnswers"`
	TotalAnswers   int     `json:"totalAnswers"`
	Percentage     float64 `json:"percentage"`
	Level          string  `json:"level"`
}

type ToughQuestion struct {
	QuestionID string  `json:"questionId"`
	Text       string  `json:"text"`
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type QuestionAnalytics struct {
	QuestionID  string              `json:"questionId"`
	Text        string              `json:"text"`
	Type        domain.QuestionType `json:"type"`
	Answers     int                 `json:"answers"`
	Correctness float64             `json:"correctness"`
	AvgScore    float64             `json:"avgScore"`
	AvgTime     float64             `json:"avgTime"`
}

type Competency struct {
	Achieved   int     `json:"achieved"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type Report struct {
	TotalJoined       int                 `json:"totalJoined"`
	TotalParticipated int                 `json:"totalParticipated"`
	NonParticipants   []NonParticipant    `json:"nonParticipants"`
	AverageScore      float64             `json:"averageScore"`
	MaxPossibleScore  int                 `json:"maxPossibleScore"`
	HasScorableData   bool                `json:"hasScorableData"`
	ScoreDistribution []int               `json:"scoreDistribution,omitempty"`
	BySkill           []TagPerformance    `json:"bySkill"`
	ByTechnology      []TagPerformance    `json:"byTechnology"`
	ToughestQuestions []ToughQuestion     `json:"toughestQuestions"`
	QuestionAnalytics []QuestionAnalytics `json:"questionAnalytics"`
	Competency        *Competency         `json:"competency,omitempty"`
}

type tally struct {
	correct, total int
}

// Build computes the report for quiz over players. It is pure: the same
// inputs always give the same report. Correctness counts only multiple choice
// and matching questions; a matching answer is correct when every pair is.
func Build(quiz domain.Quiz, players []domain.Player) Report {
	scorable := make([]domain.Question, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		if scoring.IsScorable(q) {
			scorable = append(scorable, q)
		}
	}

	r := Report{
		TotalJoined:       len(players),
		NonParticipants:   []NonParticipant{},
		BySkill:           []TagPerformance{},
		ByTechnology:      []TagPerformance{},
		ToughestQuestions: []ToughQuestion{},
		QuestionAnalytics: []QuestionAnalytics{},
		HasScorableData:   len(scorable) > 0,
	}

	totalScore := 0
	for _, p := range players {
		totalScore += p.Score
		if len(p.Answers) > 0 {
			r.TotalParticipated++
		} else {
			r.NonParticipants = append(r.NonParticipants, NonParticipant{Name: p.Name, Avatar: p.Avatar})
		}
	}
	if len(players) > 0 {
		r.AverageScore = float64(totalScore) / float64(len(players))
	}
	for _, q := range scorable {
		r.MaxPossibleScore += scoring.MaxScore(q)
	}

	if !r.HasScorableData {
		return r
	}

	r.ScoreDistribution = distribution(players, r.MaxPossibleScore)

	skills := map[string]*tally{}
	techs := map[string]*tally{}
	for _, q := range scorable {
		qa := QuestionAnalytics{QuestionID: q.ID, Text: q.Text, Type: q.Type}
		var correct int
		var scoreSum, timeSum float64
		for _, p := range players {
			ans, ok := p.AnswerFor(q.ID)
			if !ok {
				continue
			}
			qa.Answers++
			scoreSum += float64(ans.Score)
			timeSum += ans.TimeTaken
			if ans.IsCorrect {
				correct++
			}
			addTally(skills, q.Skill, ans.IsCorrect)
			addTally(techs, q.Technology, ans.IsCorrect)
		}
		if qa.Answers > 0 {
			n := float64(qa.Answers)
			qa.Correctness = float64(correct) / n * 100
			qa.AvgScore = scoreSum / n
			qa.AvgTime = timeSum / n
			r.ToughestQuestions = append(r.ToughestQuestions, ToughQuestion{
				QuestionID: q.ID,
				Text:       q.Text,
				Correct:    correct,
				Total:      qa.Answers,
				Percentage: qa.Correctness,
			})
		}
		r.QuestionAnalytics = append(r.QuestionAnalytics, qa)
	}

	sort.SliceStable(r.ToughestQuestions, func(i, j int) bool {
		return r.ToughestQuestions[i].Percentage < r.ToughestQuestions[j].Percentage
	})
	if len(r.ToughestQuestions) > toughestLimit {
		r.ToughestQuestions = r.ToughestQuestions[:toughestLimit]
	}
	r.BySkill = tagPerformance(skills)
	r.ByTechnology = tagPerformance(techs)
	r.Competency = competency(scorable, players)
	return r
}

// distribution buckets every player by score as a share of the maximum.
func distribution(players []domain.Player, maxScore int) []int {
	buckets := make([]int, len(DistributionLabels))
	for _, p := range players {
		pct := float64(p.Score) / float64(maxScore) * 100
		switch {
		case pct <= 20:
			buckets[0]++
		case pct <= 40:
			buckets[1]++
		case pct <= 60:
			buckets[2]++
		case pct <= 80:
			buckets[3]++
		default:
			buckets[4]++
		}
	}
	return buckets
}

func competency(scorable []domain.Question, players []domain.Player) *Competency {
	c := &Competency{Total: len(players)}
	for _, p := range players {
		correct := 0
		for _, q := range scorable {
			if ans, ok := p.AnswerFor(q.ID); ok && ans.IsCorrect {
				correct++
			}
		}
		if float64(correct)/float64(len(scorable)) >= CompetencyThreshold {
			c.Achieved++
		}
	}
	if c.Total > 0 {
		c.Percentage = float64(c.Achieved) / float64(c.Total) * 100
	}
	return c
}

func addTally(m map[string]*tally, tag string, correct bool) {
	if tag == "" {
		return
	}
	t, ok := m[tag]
	if !ok {
		t = &tally{}
		m[tag] = t
	}
	t.total++
	if correct {
		t.correct++
	}
}

// tagPerformance lists tags weakest first; equal percentages sort by name.
func tagPerformance(m map[string]*tally) []TagPerformance {
	out := make([]TagPerformance, 0, len(m))
	for tag, t := range m {
		pct := 0.0
		if t.total > 0 {
			pct = float64(t.correct) / float64(t.total) * 100
		}
		out = append(out, TagPerformance{
			Tag:            tag,
			CorrectAnswers: t.correct,
			TotalAnswers:   t.total,
			Percentage:     pct,
			Level:          Level(pct),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage < out[j].Percentage
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// Level buckets a correctness percentage.
func Level(pct float64) string {
	switch {
	case pct >= 75:
		return LevelGood
	case pct >= 40:
		return LevelModerate
	}
	return LevelNeedsImprovement
}
