package ranking

import (
	"sort"

	"livequiz-service/internal/domain"
)

// Award names a standout player on the final leaderboard.
type Award struct {
	Title    string  `json:"title"`
	PlayerID string  `json:"playerId"`
	Name     string  `json:"name"`
	Metric   float64 `json:"metric"`
}

const (
	AwardFastestFinger = "Fastest Finger"
	AwardConsistency   = "Consistency Champ"
	AwardHighRoller    = "High Roller"
	AwardGambler       = "Gambler"
	AwardPlayerOfMatch = "Player of the Match"
)

// Awards computes the end-of-quiz badges. Individual quizzes get the speed,
// streak and lifeline awards; clan quizzes name a single player of the match.
func Awards(quiz domain.Quiz, players []domain.Player) []Award {
	if len(players) == 0 {
		return nil
	}
	if quiz.Config.ClanBased {
		if p, ok := playerOfTheMatch(players); ok {
			return []Award{{Title: AwardPlayerOfMatch, PlayerID: p.ID, Name: p.Name, Metric: float64(p.Score)}}
		}
		return nil
	}

	var awards []Award
	if a, ok := fastestFinger(quiz, players); ok {
		awards = append(awards, a)
	}
	if a, ok := consistencyChamp(quiz, players); ok {
		awards = append(awards, a)
	}
	if a, ok := mostLifelines(players, AwardHighRoller, func(a domain.PlayerAnswer) bool {
		return a.LifelineUsed == domain.LifelineFiftyFifty
	}); ok {
		awards = append(awards, a)
	}
	if a, ok := mostLifelines(players, AwardGambler, func(a domain.PlayerAnswer) bool {
		return a.LifelineUsed == domain.LifelinePointDoubler && a.Score > 0
	}); ok {
		awards = append(awards, a)
	}
	return awards
}

func fastestFinger(quiz domain.Quiz, players []domain.Player) (Award, bool) {
	var best Award
	found := false
	for _, p := range players {
		for _, ans := range p.Answers {
			q, ok := quiz.QuestionByID(ans.QuestionID)
			if !ok || q.Type != domain.QuestionMCQ || !ans.IsCorrect {
				continue
			}
			if !found || ans.TimeTaken < best.Metric {
				best = Award{Title: AwardFastestFinger, PlayerID: p.ID, Name: p.Name, Metric: ans.TimeTaken}
				found = true
			}
		}
	}
	return best, found
}

func consistencyChamp(quiz domain.Quiz, players []domain.Player) (Award, bool) {
	var best Award
	bestStreak := 0
	for _, p := range players {
		current, longest := 0, 0
		for _, q := range quiz.Questions {
			ans, ok := p.AnswerFor(q.ID)
			if ok && q.Type == domain.QuestionMCQ && ans.IsCorrect {
				current++
				if current > longest {
					longest = current
				}
				continue
			}
			current = 0
		}
		if longest > bestStreak {
			bestStreak = longest
			best = Award{Title: AwardConsistency, PlayerID: p.ID, Name: p.Name, Metric: float64(longest)}
		}
	}
	return best, bestStreak > 1
}

// mostLifelines finds the player with the most answers matching used. Ties go
// to the higher score.
func mostLifelines(players []domain.Player, title string, used func(domain.PlayerAnswer) bool) (Award, bool) {
	var best *domain.Player
	bestCount := 0
	for i := range players {
		p := &players[i]
		count := 0
		for _, ans := range p.Answers {
			if used(ans) {
				count++
			}
		}
		if count == 0 || count < bestCount {
			continue
		}
		if count > bestCount || best == nil || p.Score > best.Score {
			best = p
			bestCount = count
		}
	}
	if best == nil {
		return Award{}, false
	}
	return Award{Title: title, PlayerID: best.ID, Name: best.Name, Metric: float64(bestCount)}, true
}

// playerOfTheMatch is the top scorer; ties go to less time spent on scoring answers.
func playerOfTheMatch(players []domain.Player) (domain.Player, bool) {
	sorted := append([]domain.Player(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		ti, tj := scoredTime(sorted[i]), scoredTime(sorted[j])
		if ti == 0 && tj > 0 {
			return false
		}
		if tj == 0 && ti > 0 {
			return true
		}
		return ti < tj
	})
	return sorted[0], true
}

func scoredTime(p domain.Player) float64 {
	total := 0.0
	for _, ans := range p.Answers {
		if ans.Score > 0 {
			total += ans.TimeTaken
		}
	}
	return total
}
