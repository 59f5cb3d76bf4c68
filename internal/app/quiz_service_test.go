package app_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
)

func TestJoinAndScoring(t *testing.T) {
	f := newFixture(t, defaultRules())
	quiz := f.createQuiz(t, domain.QuizConfig{}, mcq("first", 1))
	alice := f.join(t, quiz.ID, "Alice")
	bob := f.join(t, quiz.ID, "Bob")

	f.advanceTo(t, quiz.ID, domain.PhaseQuestionActive)
	f.clock.Add(5 * time.Second)

	res := f.answer(t, quiz.ID, bob.ID, 1)
	if !res.Correct || res.Awarded != 1500 || res.TotalScore != 1500 {
		t.Fatalf("expected 1500 points for a correct answer at half time, got %+v", res)
	}
	res = f.answer(t, quiz.ID, alice.ID, 0)
	if res.Correct || res.Awarded != 0 {
		t.Fatalf("expected no points for a wrong answer, got %+v", res)
	}

	rs := f.advanceTo(t, quiz.ID, domain.PhaseQuestionResult)
	if len(rs.Leaderboard) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(rs.Leaderboard))
	}
	if rs.Leaderboard[0].PlayerID != bob.ID || rs.Leaderboard[0].Score != 1500 {
		t.Fatalf("expected Bob to lead with 1500, got %+v", rs.Leaderboard[0])
	}
	if rs.Results == nil || rs.Results.Answers != 2 || rs.Results.Correct != 1 {
		t.Fatalf("unexpected results %+v", rs.Results)
	}
}

func TestJoinClosedOnceStarted(t *testing.T) {
	f := newFixture(t, defaultRules())
	quiz := f.createQuiz(t, domain.QuizConfig{}, mcq("first", 0))
	f.advanceTo(t, quiz.ID, domain.PhaseQuestionIntro)

	_, err := f.live.Join(context.Background(), quiz.ID, app.JoinRequest{Name: "Late"})
	if !errors.Is(err, domain.ErrJoinClosed) {
		t.Fatalf("expected ErrJoinClosed, got %v", err)
	}
}

func TestJoinRequiresName(t *testing.T) {
	f := newFixture(t, defaultRules())
	quiz := f.createQuiz(t, domain.QuizConfig{}, mcq("first", 0))

	_, err := f.live.Join(context.Background(), quiz.ID, app.JoinRequest{Name: "  <b></b> "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestJoinAutoBalancesClans(t *testing.T) {
	f := newFixture(t, defaultRules())
	quiz := f.createQuiz(t, domain.QuizConfig{ClanBased: true, ClanAssignment: domain.ClanAutoBalance}, mcq("first", 0))

	var got []domain.Clan
	for _, name := range []string{"A", "B", "C"} {
		got = append(got, f.join(t, quiz.ID, name).Clan)
	}
	want := []domain.Clan{domain.ClanTitans, domain.ClanDefenders, domain.ClanTitans}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestJoinPlayerChoiceNeedsClan(t *testing.T) {
	f := newFixture(t, defaultRules())
	quiz := f.createQuiz(t, domain.QuizConfig{ClanBased: true}, mcq("first", 0))

	if _, err := f.live.Join(context.Background(), quiz.ID, app.JoinRequest{Name: "A"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error without a clan, got %v", err)
	}
	p, err := f.live.Join(context.Background(), quiz.ID, app.JoinRequest{Name: "A", Clan: domain.ClanDefenders})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if p.Clan != domain.ClanDefenders {
		t.Fatalf("expected Defenders, got %s", p.Clan)
	}
}

func TestClanQuizPassesThroughBattleIntro(t *testing.T) {
	f := newFixture(t, defaultRules())
	quiz := f.createQuiz(t, domain.QuizConfig{ClanBased: true}, mcq("first", 0))

	var phases []domain.Phase
	for i := 0; i < 3; i++ {
		rs, err := f.live.Advance(context.Background(), quiz.ID)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		phases = append(phases, rs.Phase)
	}
	want := []domain.Phase{domain.PhaseClanBattleIntro, domain.PhaseClanBattleVS, domain.PhaseQuestionIntro}
	if !slices.Equal(phases, want) {
		t.Fatalf("expected %v, got %v", want, phases)
	}
}

func TestSetPhaseRejectsSkips(t *testing.T) {
	f := newFixture(t, defaultRules())
	quiz := f.createQuiz(t, domain.QuizConfig{}, mcq("first", 0))

	_, err := f.live.SetPhase(context.Background(), quiz.ID, domain.PhaseQuestionActive)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	rs, err := f.live.SetPhase(context.Background(), quiz.ID, domain.PhaseQuestionIntro)
	if err != nil {
		t.Fatalf("set phase: %v", err)
	}
	if rs.Phase != domain.PhaseQuestionIntro || rs.Question == nil {
		t.Fatalf("expected intro with question view, got %+v", rs)
	}
}

func TestFinishedRejectsAdvance(t *testing.T) {
	f := newFixture(t, defaultRules())
	quiz := f.createQuiz(t, domain.QuizConfig{}, mcq("only", 0))
	p := f.join(t, quiz.ID, "Alice")
	f.advanceTo(t, quiz.ID, domain.PhaseQuestionActive)
	f.answer(t, quiz.ID, p.ID, 0)

	rs := f.advanceTo(t, quiz.ID, domain.PhaseFinished)
	if len(rs.Awards) == 0 {
		t.Fatalf("expected awards on the final state")
	}
	if _, err := f.live.Advance(context.Background(), quiz.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after finish, got %v", err)
	}
}

func TestSubmitOnlyWhileActive(t *testing.T) {
	f := newFixture(t, defaultRules())
	quiz := f.createQuiz(t, domain.QuizConfig{}, mcq("first", 0))
	p := f.join(t, quiz.ID, "Alice")
	ctx := context.Background()
	sub := app.Submission{Answer: domain.IndexAnswer(0)}

	if _, err := f.live.SubmitAnswer(ctx, quiz.ID, p.ID, sub); !errors.Is(err, domain.ErrAnsweringClosed) {
		t.Fatalf("expected ErrAnsweringClosed in lobby, got %v", err)
	}
	f.advanceTo(t, quiz.ID, domain.PhaseQuestionActive)

	if _, err := f.live.SubmitAnswer(ctx, quiz.ID, p.ID, app.Submission{QuestionID: "stale", Answer: domain.IndexAnswer(0)}); !errors.Is(err, domain.ErrAnsweringClosed) {
		t.Fatalf("expected ErrAnsweringClosed for another question, got %v", err)
	}
	if _, err := f.live.SubmitAnswer(ctx, quiz.ID, p.ID, app.Submission{Answer: domain.TextAnswer("x")}); !errors.Is(err, domain.ErrInvalidAnswer) {
		t.Fatalf("expected ErrInvalidAnswer, got %v", err)
	}
	if _, err := f.live.SubmitAnswer(ctx, quiz.ID, "ghost", sub); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}

	f.answer(t, quiz.ID, p.ID, 0)
	if _, err := f.live.SubmitAnswer(ctx, quiz.ID, p.ID, sub); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}

	f.advanceTo(t, quiz.ID, domain.PhaseQuestionResult)
	if _, err := f.live.SubmitAnswer(ctx, quiz.ID, p.ID, sub); !errors.Is(err, domain.ErrAnsweringClosed) {
		t.Fatalf("expected ErrAnsweringClosed after reveal, got %v", err)
	}
}

func TestLeaderboardHidesOpenQuestion(t *testing.T) {
	f := newFixture(t, defaultRules())
	quiz := f.createQuiz(t, domain.QuizConfig{ShowLiveResponseCount: true}, mcq("first", 0))
	p := f.join(t, quiz.ID, "Alice")
	f.advanceTo(t, quiz.ID, domain.PhaseQuestionActive)
	f.answer(t, quiz.ID, p.ID, 0)

	rs, err := f.live.State(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if rs.Leaderboard[0].Score != 0 {
		t.Fatalf("expected hidden score while active, got %d", rs.Leaderboard[0].Score)
	}
	if rs.ResponseCount == nil || *rs.ResponseCount != 1 {
		t.Fatalf("expected live response count 1, got %v", rs.ResponseCount)
	}
	if rs.Results != nil {
		t.Fatalf("expected no results before the reveal")
	}

	rs = f.advanceTo(t, quiz.ID, domain.PhaseQuestionResult)
	if rs.Leaderboard[0].Score != 2000 {
		t.Fatalf("expected revealed score 2000, got %d", rs.Leaderboard[0].Score)
	}
}

func TestLifelines(t *testing.T) {
	f := newFixture(t, defaultRules())
	quiz := f.createQuiz(t, domain.QuizConfig{}, mcq("first", 2), mcq("second", 3))
	p := f.join(t, quiz.ID, "Alice")
	ctx := context.Background()

	f.advanceTo(t, quiz.ID, domain.PhaseQuestionActive)
	if _, err := f.live.UseLifeline(ctx, quiz.ID, p.ID, domain.LifelineFiftyFifty); !errors.Is(err, domain.ErrLifelineUnavailable) {
		t.Fatalf("expected 50:50 to need points, got %v", err)
	}
	lr, err := f.live.UseLifeline(ctx, quiz.ID, p.ID, domain.LifelinePointDoubler)
	if err != nil {
		t.Fatalf("point doubler: %v", err)
	}
	if lr.PointDoublers != 0 {
		t.Fatalf("expected doubler to be spent, got %d", lr.PointDoublers)
	}
	if _, err := f.live.UseLifeline(ctx, quiz.ID, p.ID, domain.LifelinePointDoubler); !errors.Is(err, domain.ErrLifelineUsed) {
		t.Fatalf("expected ErrLifelineUsed, got %v", err)
	}
	f.clock.Add(5 * time.Second)
	res := f.answer(t, quiz.ID, p.ID, 2)
	if res.Awarded != 3000 || res.LifelineUsed != domain.LifelinePointDoubler {
		t.Fatalf("expected doubled 3000, got %+v", res)
	}

	f.advanceTo(t, quiz.ID, domain.PhaseQuestionActive)
	lr, err = f.live.UseLifeline(ctx, quiz.ID, p.ID, domain.LifelineFiftyFifty)
	if err != nil {
		t.Fatalf("fifty fifty: %v", err)
	}
	if lr.TotalScore != 2500 {
		t.Fatalf("expected 500 deducted, got %d", lr.TotalScore)
	}
	if len(lr.Eliminated) != 2 || slices.Contains(lr.Eliminated, 3) {
		t.Fatalf("expected two wrong options eliminated, got %v", lr.Eliminated)
	}
}

func TestLifelinesOnlyForMultipleChoice(t *testing.T) {
	f := newFixture(t, defaultRules())
	survey := domain.Question{Text: "Favourite?", Type: domain.QuestionSurvey, Options: []string{"x", "y"}}
	quiz := f.createQuiz(t, domain.QuizConfig{}, survey)
	p := f.join(t, quiz.ID, "Alice")
	f.advanceTo(t, quiz.ID, domain.PhaseQuestionActive)

	_, err := f.live.UseLifeline(context.Background(), quiz.ID, p.ID, domain.LifelinePointDoubler)
	if !errors.Is(err, domain.ErrLifelineUnavailable) {
		t.Fatalf("expected ErrLifelineUnavailable, got %v", err)
	}
	_, err = f.live.UseLifeline(context.Background(), quiz.ID, p.ID, "magic")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown lifeline, got %v", err)
	}
}

func TestStreakEarnsDoubler(t *testing.T) {
	f := newFixture(t, app.Rules{FiftyFiftyCost: 500, DoublerStreak: 2})
	quiz := f.createQuiz(t, domain.QuizConfig{}, mcq("one", 0), mcq("two", 0))
	p := f.join(t, quiz.ID, "Alice")

	f.advanceTo(t, quiz.ID, domain.PhaseQuestionActive)
	if res := f.answer(t, quiz.ID, p.ID, 0); res.EarnedDoubler {
		t.Fatalf("no doubler expected after one correct answer")
	}
	f.advanceTo(t, quiz.ID, domain.PhaseQuestionActive)
	res := f.answer(t, quiz.ID, p.ID, 0)
	if !res.EarnedDoubler || res.PointDoublers != 1 {
		t.Fatalf("expected a doubler after two in a row, got %+v", res)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	f := newFixture(t, defaultRules())
	quiz := f.createQuiz(t, domain.QuizConfig{}, mcq("first", 0))
	ctx := context.Background()

	ch, cancel, err := f.live.Subscribe(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	initial := <-ch
	if initial.PlayerCount != 0 || initial.Phase != domain.PhaseLobby {
		t.Fatalf("unexpected initial snapshot %+v", initial)
	}

	f.join(t, quiz.ID, "Alice")

	select {
	case update := <-ch:
		if update.PlayerCount != 1 {
			t.Fatalf("expected 1 player, got %d", update.PlayerCount)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestSubscribeUnknownQuiz(t *testing.T) {
	f := newFixture(t, defaultRules())
	if _, _, err := f.live.Subscribe(context.Background(), "NOPE42"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestStandings(t *testing.T) {
	f := newFixture(t, defaultRules())
	cfg := domain.QuizConfig{ClanBased: true, ClanAssignment: domain.ClanAutoBalance}
	quiz := f.createQuiz(t, cfg, mcq("first", 0))
	a := f.join(t, quiz.ID, "A")
	f.join(t, quiz.ID, "B")
	f.advanceTo(t, quiz.ID, domain.PhaseQuestionActive)
	f.answer(t, quiz.ID, a.ID, 0)
	f.advanceTo(t, quiz.ID, domain.PhaseLeaderboard)

	st, err := f.live.Standings(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(st.Leaderboard) != 2 || st.Leaderboard[0].PlayerID != a.ID {
		t.Fatalf("unexpected leaderboard %+v", st.Leaderboard)
	}
	if len(st.Clans) != 2 || st.Clans[0].Clan != domain.ClanTitans {
		t.Fatalf("expected Titans ahead, got %+v", st.Clans)
	}
}
