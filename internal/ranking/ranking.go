// Package ranking orders players and clans for the leaderboard reveal.
package ranking

import (
	"sort"

	"livequiz-service/internal/domain"
)

// Standing is one player's place on the leaderboard after a question.
type Standing struct {
	PlayerID     string          `json:"playerId"`
	Name         string          `json:"name"`
	Avatar       string          `json:"avatar"`
	Clan         domain.Clan     `json:"clan,omitempty"`
	Score        int             `json:"score"`
	Awarded      int             `json:"awarded"`
	Correct      bool            `json:"correct"`
	LifelineUsed domain.Lifeline `json:"lifelineUsed,omitempty"`
	Rank         int             `json:"rank"`
	PreviousRank int             `json:"previousRank"`
	Delta        int             `json:"delta"`
}

// ClanStanding aggregates one clan by average member score.
type ClanStanding struct {
	Clan            domain.Clan `json:"clan"`
	Name            string      `json:"name"`
	Members         int         `json:"members"`
	Average         float64     `json:"average"`
	PreviousAverage float64     `json:"previousAverage"`
	Rank            int         `json:"rank"`
	PreviousRank    int         `json:"previousRank"`
	Delta           int         `json:"delta"`
	Top             []Standing  `json:"top"`
}

// Individual ranks players by score, highest first, keeping join order on ties.
// The previous rank comes from the same ordering over scores before questionID
// was awarded. On the first question every delta is zero.
func Individual(players []domain.Player, questionID string, firstQuestion bool) []Standing {
	rows := make([]Standing, len(players))
	prevScores := make([]int, len(players))
	for i, p := range players {
		row := Standing{
			PlayerID: p.ID,
			Name:     p.Name,
			Avatar:   p.Avatar,
			Clan:     p.Clan,
			Score:    p.Score,
		}
		if answer, ok := p.AnswerFor(questionID); ok {
			row.Awarded = answer.Score
			row.Correct = answer.IsCorrect
			row.LifelineUsed = answer.LifelineUsed
		}
		rows[i] = row
		prevScores[i] = p.Score - row.Awarded
	}

	current := order(len(rows), func(i int) float64 { return float64(rows[i].Score) })
	previous := ranks(len(rows), func(i int) float64 { return float64(prevScores[i]) })

	out := make([]Standing, len(rows))
	for rank, idx := range current {
		row := rows[idx]
		row.Rank = rank + 1
		row.PreviousRank = row.Rank
		if !firstQuestion {
			row.PreviousRank = previous[idx]
		}
		row.Delta = row.PreviousRank - row.Rank
		out[rank] = row
	}
	return out
}

// Clans ranks both sides by average member score. Each clan keeps its top
// three players as representatives.
func Clans(players []domain.Player, cfg domain.QuizConfig, questionID string, firstQuestion bool) []ClanStanding {
	standings := Individual(players, questionID, true)
	clans := make([]ClanStanding, len(domain.Clans))
	prevAverages := make([]float64, len(domain.Clans))
	for i, clan := range domain.Clans {
		var total, prevTotal, members int
		var top []Standing
		for _, s := range standings {
			if s.Clan != clan {
				continue
			}
			members++
			total += s.Score
			prevTotal += s.Score - s.Awarded
			if len(top) < 3 {
				s.Rank, s.PreviousRank, s.Delta = 0, 0, 0
				top = append(top, s)
			}
		}
		c := ClanStanding{Clan: clan, Name: cfg.ClanName(clan), Members: members, Top: top}
		if members > 0 {
			c.Average = float64(total) / float64(members)
			c.PreviousAverage = float64(prevTotal) / float64(members)
		}
		clans[i] = c
		prevAverages[i] = c.PreviousAverage
	}

	current := order(len(clans), func(i int) float64 { return clans[i].Average })
	previous := ranks(len(clans), func(i int) float64 { return prevAverages[i] })

	out := make([]ClanStanding, len(clans))
	for rank, idx := range current {
		c := clans[idx]
		c.Rank = rank + 1
		c.PreviousRank = c.Rank
		if !firstQuestion {
			c.PreviousRank = previous[idx]
		}
		c.Delta = c.PreviousRank - c.Rank
		out[rank] = c
	}
	return out
}

// order returns item indices sorted by value, highest first. Equal values keep input order.
func order(n int, value func(int) float64) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return value(idx[a]) > value(idx[b]) })
	return idx
}

// ranks maps each item index to its 1-based position in order.
func ranks(n int, value func(int) float64) []int {
	out := make([]int, n)
	for pos, i := range order(n, value) {
		out[i] = pos + 1
	}
	return out
}
