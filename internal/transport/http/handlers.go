package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"livequiz-service/internal/report"
	"livequiz-service/internal/security"
	"github.com/gin-gonic/gin"
)

type createQuizRequest struct {
	OrganizerName string `json:"organizerName"`
	app.CreateQuizInput
}

type createQuizResponse struct {
	Quiz      domain.Quiz `json:"quiz"`
	HostToken string      `json:"hostToken"`
}

type joinResponse struct {
	Player      domain.Player `json:"player"`
	PlayerToken string        `json:"playerToken"`
}

type quizHeader struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Phase         domain.Phase      `json:"phase"`
	Config        domain.QuizConfig `json:"config"`
	QuestionCount int               `json:"questionCount"`
	PlayerCount   int               `json:"playerCount"`
}

type phaseRequest struct {
	Phase string `json:"phase"`
}

type lifelineRequest struct {
	Lifeline domain.Lifeline `json:"lifeline"`
}

type libraryRequest struct {
	OrganizerName string            `json:"organizerName"`
	Questions     []domain.Question `json:"questions"`
}

type generateRequest struct {
	OrganizerName string `json:"organizerName"`
	Topic         string `json:"topic"`
	Skill         string `json:"skill"`
	Count         int    `json:"count"`
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, &domain.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) createQuiz(c *gin.Context) {
	var req createQuizRequest
	if !bind(c, &req) {
		return
	}
	quiz, err := s.authoring.CreateQuiz(c.Request.Context(), req.OrganizerName, req.CreateQuizInput)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := s.tokens.Issue(security.Identity{Role: security.RoleHost, QuizID: quiz.ID, Subject: quiz.OrganizerName})
	if err != nil {
		writeError(c, fmt.Errorf("issue host token: %w", err))
		return
	}
	c.JSON(http.StatusCreated, createQuizResponse{Quiz: quiz, HostToken: token})
}

func (s *Server) listQuizzes(c *gin.Context) {
	quizzes, err := s.authoring.ListQuizzes(c.Request.Context(), c.Query("organizer"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (s *Server) quizHeader(c *gin.Context) {
	rs, err := s.quizzes.State(c.Request.Context(), quizParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizHeader{
		ID:            rs.QuizID,
		Title:         rs.Title,
		Phase:         rs.Phase,
		Config:        rs.Config,
		QuestionCount: rs.QuestionCount,
		PlayerCount:   rs.PlayerCount,
	})
}

func (s *Server) publish(c *gin.Context) {
	id, _ := identityFrom(c)
	quiz, err := s.authoring.PublishDraft(c.Request.Context(), id.Subject, quizParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (s *Server) archive(c *gin.Context) {
	id, _ := identityFrom(c)
	if err := s.authoring.ArchiveQuiz(c.Request.Context(), id.Subject, quizParam(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) join(c *gin.Context) {
	var req app.JoinRequest
	if !bind(c, &req) {
		return
	}
	player, err := s.quizzes.Join(c.Request.Context(), quizParam(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := s.tokens.Issue(security.Identity{Role: security.RolePlayer, QuizID: player.QuizID, Subject: player.ID})
	if err != nil {
		writeError(c, fmt.Errorf("issue player token: %w", err))
		return
	}
	c.JSON(http.StatusCreated, joinResponse{Player: player, PlayerToken: token})
}

func (s *Server) advance(c *gin.Context) {
	rs, err := s.quizzes.Advance(c.Request.Context(), quizParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (s *Server) setPhase(c *gin.Context) {
	var req phaseRequest
	if !bind(c, &req) {
		return
	}
	target, err := domain.ParsePhase(req.Phase)
	if err != nil {
		writeError(c, err)
		return
	}
	rs, err := s.quizzes.SetPhase(c.Request.Context(), quizParam(c), target)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (s *Server) submitAnswer(c *gin.Context) {
	var sub app.Submission
	if !bind(c, &sub) {
		return
	}
	id, _ := identityFrom(c)
	res, err := s.quizzes.SubmitAnswer(c.Request.Context(), quizParam(c), id.Subject, sub)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) useLifeline(c *gin.Context) {
	var req lifelineRequest
	if !bind(c, &req) {
		return
	}
	id, _ := identityFrom(c)
	res, err := s.quizzes.UseLifeline(c.Request.Context(), quizParam(c), id.Subject, req.Lifeline)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) state(c *gin.Context) {
	rs, err := s.quizzes.State(c.Request.Context(), quizParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (s *Server) standings(c *gin.Context) {
	st, err := s.quizzes.Standings(c.Request.Context(), quizParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) report(c *gin.Context) {
	id, _ := identityFrom(c)
	view, err := s.reports.Report(c.Request.Context(), id.Subject, quizParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) exportReport(c *gin.Context) {
	section, err := report.ParseSection(c.Query("section"))
	if err != nil {
		writeError(c, err)
		return
	}
	id, _ := identityFrom(c)
	out, err := s.reports.Export(c.Request.Context(), id.Subject, quizParam(c), app.ExportFormat(c.DefaultQuery("format", "csv")), section)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

func (s *Server) reuseQuestions(c *gin.Context) {
	id, _ := identityFrom(c)
	questions, err := s.authoring.ReuseQuestions(c.Request.Context(), id.Subject, quizParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (s *Server) listLibrary(c *gin.Context) {
	questions, err := s.authoring.ListLibrary(c.Request.Context(), domain.LibraryFilter{
		Organizer:  c.Query("organizer"),
		Technology: c.Query("technology"),
		Skill:      c.Query("skill"),
		Type:       domain.QuestionType(c.Query("type")),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (s *Server) addToLibrary(c *gin.Context) {
	var req libraryRequest
	if !bind(c, &req) {
		return
	}
	questions, err := s.authoring.AddToLibrary(c.Request.Context(), req.OrganizerName, req.Questions)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, questions)
}

func (s *Server) generateQuestions(c *gin.Context) {
	var req generateRequest
	if !bind(c, &req) {
		return
	}
	res, err := s.authoring.GenerateQuestions(c.Request.Context(), req.OrganizerName, req.Topic, req.Skill, req.Count)
	if err != nil {
		if errors.Is(err, domain.ErrDailyLimit) {
			c.Header("X-Generation-Remaining", strconv.Itoa(res.Remaining))
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
