package http

import (
	"net/http"
	"slices"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/security"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server holds the use cases behind the REST and websocket endpoints.
type Server struct {
	quizzes   *app.QuizService
	authoring *app.AuthoringService
	reports   *app.ReportService
	tokens    *security.Tokens
	ws        *WSHandler
}

func NewServer(quizzes *app.QuizService, authoring *app.AuthoringService, reports *app.ReportService, tokens *security.Tokens) *Server {
	return &Server{
		quizzes:   quizzes,
		authoring: authoring,
		reports:   reports,
		tokens:    tokens,
		ws:        NewWSHandler(quizzes, tokens),
	}
}

// Router builds the gin engine. An empty origin list or "*" allows any origin.
func (s *Server) Router(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", s.ws.Serve)

	api := r.Group("/api", authenticate(s.tokens))
	api.POST("/quizzes", s.createQuiz)
	api.GET("/quizzes", s.listQuizzes)
	api.GET("/library", s.listLibrary)
	api.POST("/library", s.addToLibrary)
	api.POST("/ai/questions", s.generateQuestions)

	quiz := api.Group("/quizzes/:id")
	quiz.GET("", s.quizHeader)
	quiz.GET("/state", s.state)
	quiz.GET("/standings", s.standings)
	quiz.POST("/join", s.join)

	host := quiz.Group("", requireRole(security.RoleHost))
	host.POST("/publish", s.publish)
	host.POST("/archive", s.archive)
	host.POST("/advance", s.advance)
	host.POST("/phase", s.setPhase)
	host.GET("/report", s.report)
	host.GET("/report/export", s.exportReport)
	host.GET("/questions", s.reuseQuestions)

	player := quiz.Group("", requireRole(security.RolePlayer))
	player.POST("/answers", s.submitAnswer)
	player.POST("/lifelines", s.useLifeline)

	return r
}
