package domain

import (
	"fmt"
	"time"
)

// NextState returns the state that follows s. The host drives the quiz one
// step at a time; the first question is index 0 and FINISHED is terminal.
func NextState(s QuizState, clanBased bool, questionCount int, now time.Time) (QuizState, error) {
	if questionCount == 0 {
		return s, fmt.Errorf("%w: quiz has no questions", ErrInvalidTransition)
	}
	next := QuizState{CurrentQuestionIndex: s.CurrentQuestionIndex, QuestionStartedAt: s.QuestionStartedAt}
	switch s.Phase {
	case PhaseLobby:
		next.CurrentQuestionIndex = 0
		next.QuestionStartedAt = nil
		if clanBased {
			next.Phase = PhaseClanBattleIntro
		} else {
			next.Phase = PhaseQuestionIntro
		}
	case PhaseClanBattleIntro:
		next.Phase = PhaseClanBattleVS
	case PhaseClanBattleVS:
		next.Phase = PhaseQuestionIntro
		next.CurrentQuestionIndex = 0
	case PhaseQuestionIntro:
		started := now
		next.Phase = PhaseQuestionActive
		next.QuestionStartedAt = &started
	case PhaseQuestionActive:
		next.Phase = PhaseQuestionResult
	case PhaseQuestionResult:
		next.Phase = PhaseLeaderboard
	case PhaseLeaderboard:
		if s.CurrentQuestionIndex < questionCount-1 {
			next.Phase = PhaseQuestionIntro
			next.CurrentQuestionIndex = s.CurrentQuestionIndex + 1
			next.QuestionStartedAt = nil
		} else {
			next.Phase = PhaseFinished
		}
	default:
		return s, fmt.Errorf("%w: %s has no successor", ErrInvalidTransition, s.Phase)
	}
	return next, nil
}

// Transition moves s to target when target is the legal successor.
func Transition(s QuizState, target Phase, clanBased bool, questionCount int, now time.Time) (QuizState, error) {
	next, err := NextState(s, clanBased, questionCount, now)
	if err != nil {
		return s, err
	}
	if next.Phase != target {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Phase, target)
	}
	return next, nil
}

// ParsePhase validates a phase name.
func ParsePhase(raw string) (Phase, error) {
	switch p := Phase(raw); p {
	case PhaseLobby, PhaseClanBattleIntro, PhaseClanBattleVS, PhaseQuestionIntro,
		PhaseQuestionActive, PhaseQuestionResult, PhaseLeaderboard, PhaseFinished:
		return p, nil
	}
	return "", invalid("phase", "unknown phase "+raw)
}
