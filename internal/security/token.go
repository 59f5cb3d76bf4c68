package security

import (
	"crypto/rand"
	"fmt"
	"time"

	"livequiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

// Identity is who is calling, carried explicitly into every use case.
// Subject is the organizer name for hosts and the player id for players.
type Identity struct {
	Role    Role
	QuizID  string
	Subject string
}

func (i Identity) IsHost(quizID string) bool {
	return i.Role == RoleHost && i.QuizID == quizID
}

func (i Identity) IsPlayer(quizID string) bool {
	return i.Role == RolePlayer && i.QuizID == quizID
}

type Claims struct {
	Role   Role   `json:"role"`
	QuizID string `json:"quiz_id"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies identity tokens with HS256.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(id Identity) (string, error) {
	now := t.now()
	claims := &Claims{
		Role:   id.Role,
		QuizID: id.QuizID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Parse(raw string) (Identity, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Identity{}, domain.ErrUnauthorized
	}
	return Identity{Role: claims.Role, QuizID: claims.QuizID, Subject: claims.Subject}, nil
}

// RandomSecret is used when no signing secret is configured. Tokens then
// do not survive a restart.
func RandomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x", b)
}
