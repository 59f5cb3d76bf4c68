package domain

import "errors"

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrPlayerNotFound        = errors.New("player not found")
	ErrQuizNotFound          = errors.New("quiz not found")
	ErrQuestionNotFound      = errors.New("question not found")
	ErrQuizExists            = errors.New("quiz code already in use")
	ErrInvalidTransition     = errors.New("invalid phase transition")
	ErrJoinClosed            = errors.New("quiz is not accepting players")
	ErrAnsweringClosed       = errors.New("question is not accepting answers")
	ErrAlreadyAnswered       = errors.New("question already answered")
	ErrInvalidAnswer         = errors.New("answer does not match question type")
	ErrLifelineUsed          = errors.New("lifeline already used for this question")
	ErrLifelineUnavailable   = errors.New("lifeline not available")
	ErrDailyLimit            = errors.New("daily AI generation limit reached")
	ErrGenerationUnavailable = errors.New("question generation is not configured")
	ErrForbidden             = errors.New("forbidden")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrValidation            = errors.New("validation failed")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
