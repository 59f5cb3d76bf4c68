package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"livequiz-service/internal/infra/memory"
)

type stubGenerator struct {
	questions []domain.Question
	err       error
	calls     int
}

func (g *stubGenerator) GenerateQuestions(_ context.Context, _, _ string, _ int) ([]domain.Question, error) {
	g.calls++
	return g.questions, g.err
}

func codes(list ...string) func() string {
	i := 0
	return func() string {
		code := list[min(i, len(list)-1)]
		i++
		return code
	}
}

func TestCreateQuizRetriesCodeCollision(t *testing.T) {
	f := newFixture(t, defaultRules())
	f.authoring.WithCodes(codes("AAAAAA", "AAAAAA", "BBBBBB"))

	first := f.createQuiz(t, domain.QuizConfig{}, mcq("one", 0))
	second := f.createQuiz(t, domain.QuizConfig{}, mcq("two", 0))
	if first.ID != "AAAAAA" || second.ID != "BBBBBB" {
		t.Fatalf("expected AAAAAA then BBBBBB, got %s and %s", first.ID, second.ID)
	}
}

func TestCreateQuizGivesUpOnRepeatedCollisions(t *testing.T) {
	f := newFixture(t, defaultRules())
	f.authoring.WithCodes(codes("AAAAAA"))
	f.createQuiz(t, domain.QuizConfig{}, mcq("one", 0))

	_, err := f.authoring.CreateQuiz(context.Background(), "ann", app.CreateQuizInput{Title: "again", Questions: []domain.Question{mcq("x", 0)}})
	if !errors.Is(err, domain.ErrQuizExists) {
		t.Fatalf("expected ErrQuizExists, got %v", err)
	}
}

func TestCreateQuizNormalizes(t *testing.T) {
	f := newFixture(t, defaultRules())
	q := mcq("  padded  ", 0)
	q.Technology, q.TimeLimit = "", 0
	quiz := f.createQuiz(t, domain.QuizConfig{
		ClanBased: true,
		ClanNames: map[domain.Clan]string{domain.ClanTitans: "<i>Owls</i>"},
	}, q)

	got := quiz.Questions[0]
	if got.ID == "" || got.Text != "padded" || got.Technology != domain.DefaultTag || got.TimeLimit != domain.DefaultTimeLimit {
		t.Fatalf("unexpected normalized question %+v", got)
	}
	if quiz.Config.ClanAssignment != domain.ClanPlayerChoice {
		t.Fatalf("expected player choice default, got %q", quiz.Config.ClanAssignment)
	}
	if quiz.Config.ClanName(domain.ClanTitans) != "Owls" || quiz.Config.ClanName(domain.ClanDefenders) != "Defenders" {
		t.Fatalf("unexpected clan names %+v", quiz.Config.ClanNames)
	}
	if quiz.Phase != domain.PhaseLobby {
		t.Fatalf("expected lobby, got %s", quiz.Phase)
	}
}

func TestCreateQuizValidation(t *testing.T) {
	f := newFixture(t, defaultRules())
	ctx := context.Background()

	cases := []struct {
		name      string
		organizer string
		in        app.CreateQuizInput
		field     string
	}{
		{"no organizer", "", app.CreateQuizInput{Title: "t", Questions: []domain.Question{mcq("q", 0)}}, "organizerName"},
		{"no title", "ann", app.CreateQuizInput{Questions: []domain.Question{mcq("q", 0)}}, "title"},
		{"no questions", "ann", app.CreateQuizInput{Title: "t"}, "questions"},
		{"bad answer index", "ann", app.CreateQuizInput{Title: "t", Questions: []domain.Question{mcq("q", 7)}}, "correctAnswerIndex"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.authoring.CreateQuiz(ctx, tc.organizer, tc.in)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected %s validation error, got %v", tc.field, err)
			}
		})
	}
}

func TestDraftPublishLifecycle(t *testing.T) {
	f := newFixture(t, defaultRules())
	ctx := context.Background()

	questions := make([]domain.Question, domain.MaxLiveQuestions+1)
	for i := range questions {
		questions[i] = mcq(fmt.Sprintf("q%d", i), 0)
	}
	if _, err := f.authoring.CreateQuiz(ctx, "ann", app.CreateQuizInput{Title: "big", Questions: questions}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected live cap to apply, got %v", err)
	}
	big, err := f.authoring.CreateQuiz(ctx, "ann", app.CreateQuizInput{Title: "big", Questions: questions, Draft: true})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if _, err := f.authoring.PublishDraft(ctx, "ann", big.ID); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected publish to enforce the live cap, got %v", err)
	}

	draft, err := f.authoring.CreateQuiz(ctx, "ann", app.CreateQuizInput{Title: "small", Questions: []domain.Question{mcq("q", 0)}, Draft: true})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if _, err := f.live.Join(ctx, draft.ID, app.JoinRequest{Name: "A"}); !errors.Is(err, domain.ErrJoinClosed) {
		t.Fatalf("expected drafts to refuse players, got %v", err)
	}
	if _, err := f.authoring.PublishDraft(ctx, "bob", draft.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another organizer, got %v", err)
	}
	published, err := f.authoring.PublishDraft(ctx, "ann", draft.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.IsDraft {
		t.Fatalf("expected published quiz")
	}
	f.join(t, draft.ID, "A")

	if err := f.authoring.ArchiveQuiz(ctx, "ann", draft.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := f.live.Join(ctx, draft.ID, app.JoinRequest{Name: "B"}); !errors.Is(err, domain.ErrJoinClosed) {
		t.Fatalf("expected archived quiz to refuse players, got %v", err)
	}
}

func TestListQuizzesByOrganizer(t *testing.T) {
	f := newFixture(t, defaultRules())
	f.createQuiz(t, domain.QuizConfig{}, mcq("one", 0))
	f.createQuiz(t, domain.QuizConfig{}, mcq("two", 0))

	mine, err := f.authoring.ListQuizzes(context.Background(), "ann")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 quizzes, got %d", len(mine))
	}
	theirs, err := f.authoring.ListQuizzes(context.Background(), "bob")
	if err != nil || len(theirs) != 0 {
		t.Fatalf("expected none for bob, got %d (%v)", len(theirs), err)
	}
}

func TestLibraryAndReuse(t *testing.T) {
	f := newFixture(t, defaultRules())
	ctx := context.Background()

	quiz, err := f.authoring.CreateQuiz(ctx, "ann", app.CreateQuizInput{
		Title:         "saved",
		Questions:     []domain.Question{mcq("one", 1)},
		SaveToLibrary: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bank, err := f.authoring.ListLibrary(ctx, domain.LibraryFilter{Organizer: "ann"})
	if err != nil {
		t.Fatalf("list library: %v", err)
	}
	if len(bank) != 1 || bank[0].ID == quiz.Questions[0].ID {
		t.Fatalf("expected one library copy with its own id, got %+v", bank)
	}

	if _, err := f.authoring.AddToLibrary(ctx, "ann", []domain.Question{{Text: "broken", Type: domain.QuestionMCQ}}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	reused, err := f.authoring.ReuseQuestions(ctx, "ann", quiz.ID)
	if err != nil {
		t.Fatalf("reuse: %v", err)
	}
	if len(reused) != 1 || reused[0].ID != "" || reused[0].CorrectAnswerIndex != 1 {
		t.Fatalf("unexpected reused questions %+v", reused)
	}
	if _, err := f.authoring.ReuseQuestions(ctx, "bob", quiz.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func generated(text string) domain.Question {
	return domain.Question{Text: text, Options: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: 1}
}

func TestGenerateQuestionsDailyLimit(t *testing.T) {
	gen := &stubGenerator{questions: []domain.Question{
		generated("one"),
		generated("two"),
		{Text: "three options only", Options: []string{"a", "b", "c"}},
		generated("three"),
	}}
	store := memory.NewStore()
	svc := app.NewAuthoringService(store, memory.NewQuizRepository(store, 0), gen, 5)
	ctx := context.Background()

	res, err := svc.GenerateQuestions(ctx, "ann", "Go", "Basics", 4)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(res.Questions) != 3 || res.Remaining != 2 {
		t.Fatalf("expected 3 accepted and 2 remaining, got %d and %d", len(res.Questions), res.Remaining)
	}
	for _, q := range res.Questions {
		if q.Type != domain.QuestionMCQ || q.Technology != "Go" || q.ID == "" {
			t.Fatalf("unexpected generated question %+v", q)
		}
	}

	res, err = svc.GenerateQuestions(ctx, "ann", "Go", "Basics", 3)
	if !errors.Is(err, domain.ErrDailyLimit) {
		t.Fatalf("expected ErrDailyLimit, got %v", err)
	}
	if res.Remaining != 2 || gen.calls != 1 {
		t.Fatalf("expected limit check before calling the generator, got remaining %d calls %d", res.Remaining, gen.calls)
	}

	if _, err := svc.GenerateQuestions(ctx, "bob", "Go", "Basics", 3); err != nil {
		t.Fatalf("expected a separate allowance per organizer, got %v", err)
	}
}

func TestGenerateQuestionsErrors(t *testing.T) {
	f := newFixture(t, defaultRules())
	ctx := context.Background()

	if _, err := f.authoring.GenerateQuestions(ctx, "ann", "Go", "Basics", 2); !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
	if _, err := f.authoring.GenerateQuestions(ctx, "ann", "", "Basics", 2); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty topic, got %v", err)
	}

	gen := &stubGenerator{err: errors.New("upstream down")}
	store := memory.NewStore()
	svc := app.NewAuthoringService(store, memory.NewQuizRepository(store, 0), gen, 5)
	if _, err := svc.GenerateQuestions(ctx, "ann", "Go", "Basics", 2); err == nil {
		t.Fatalf("expected generator error")
	}
	used, _ := store.AIUsage(ctx, "ann", time.Now().UTC().Format(time.DateOnly))
	if used != 0 {
		t.Fatalf("expected failed generation not to count, got %d", used)
	}
}
