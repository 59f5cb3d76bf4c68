package http

import (
	"encoding/json"
	"net/http"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"livequiz-service/internal/logger"
	"livequiz-service/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler streams room snapshots and accepts in-game actions over a
// websocket. Without a token the connection is a read-only spectator.
type WSHandler struct {
	service  *app.QuizService
	tokens   *security.Tokens
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, tokens *security.Tokens) *WSHandler {
	return &WSHandler{
		service: service,
		tokens:  tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"status"`
}

const (
	msgState          = "state"
	msgAnswer         = "answer"
	msgAnswerResult   = "answerResult"
	msgLifeline       = "lifeline"
	msgLifelineResult = "lifelineResult"
	msgAdvance        = "advance"
	msgError          = "error"
)

var errUnsupportedMessage = &domain.ValidationError{Field: "type", Message: "unsupported message type"}

// Serve upgrades the request and wires the connection into the quiz use cases.
func (h *WSHandler) Serve(c *gin.Context) {
	quizID := security.NormalizeRoomCode(c.Query("quizId"))
	if quizID == "" {
		writeError(c, &domain.ValidationError{Field: "quizId", Message: "is required"})
		return
	}
	var id security.Identity
	if raw := c.Query("token"); raw != "" {
		parsed, err := h.tokens.Parse(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		if parsed.QuizID != quizID {
			writeError(c, domain.ErrForbidden)
			return
		}
		id = parsed
	}

	ctx := c.Request.Context()
	updates, cancel, err := h.service.Subscribe(ctx, quizID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer h.service.Leave(ctx, quizID)
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", "quiz_id", quizID, "error", err)
		return
	}
	defer conn.Close()
	logger.Debug("ws connected", "quiz_id", quizID, "role", id.Role, "subject", id.Subject)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only this goroutine writes to conn.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("ws write failed", "quiz_id", quizID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: msgState, Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		reply, err := h.handle(c, quizID, id, inbound)
		switch {
		case err != nil:
			send <- errorMessage(err)
		case reply != nil:
			send <- *reply
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
	logger.Debug("ws disconnected", "quiz_id", quizID, "subject", id.Subject)
}

func (h *WSHandler) handle(c *gin.Context, quizID string, id security.Identity, in inboundMessage) (*outboundMessage[any], error) {
	ctx := c.Request.Context()
	switch in.Type {
	case msgAnswer:
		if !id.IsPlayer(quizID) {
			return nil, domain.ErrForbidden
		}
		var sub app.Submission
		if err := decodePayload(in.Payload, &sub); err != nil {
			return nil, err
		}
		res, err := h.service.SubmitAnswer(ctx, quizID, id.Subject, sub)
		if err != nil {
			return nil, err
		}
		return &outboundMessage[any]{Type: msgAnswerResult, Payload: res}, nil
	case msgLifeline:
		if !id.IsPlayer(quizID) {
			return nil, domain.ErrForbidden
		}
		var req lifelineRequest
		if err := decodePayload(in.Payload, &req); err != nil {
			return nil, err
		}
		res, err := h.service.UseLifeline(ctx, quizID, id.Subject, req.Lifeline)
		if err != nil {
			return nil, err
		}
		return &outboundMessage[any]{Type: msgLifelineResult, Payload: res}, nil
	case msgAdvance:
		if !id.IsHost(quizID) {
			return nil, domain.ErrForbidden
		}
		// The new state reaches this connection through the feed.
		_, err := h.service.Advance(ctx, quizID)
		return nil, err
	default:
		return nil, errUnsupportedMessage
	}
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return &domain.ValidationError{Field: "payload", Message: "is required"}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &domain.ValidationError{Field: "payload", Message: "invalid JSON"}
	}
	return nil
}

func errorMessage(err error) outboundMessage[any] {
	status, body := clientError(err)
	if status == http.StatusInternalServerError {
		logger.Error("ws action failed", "error", err)
	}
	return outboundMessage[any]{Type: msgError, Payload: errorPayload{Message: body.Error, Field: body.Field, Status: status}}
}
