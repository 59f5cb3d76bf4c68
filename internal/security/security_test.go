package security

import (
	"testing"
	"time"

	"livequiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, err := tokens.Issue(Identity{Role: RolePlayer, QuizID: "ABC123", Subject: "p1"})
	require.NoError(t, err)

	id, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.True(t, id.IsPlayer("ABC123"))
	assert.False(t, id.IsHost("ABC123"))
	assert.Equal(t, "p1", id.Subject)
}

func TestTokensRejectForeignAndExpired(t *testing.T) {
	raw, err := NewTokens("other", time.Hour).Issue(Identity{Role: RoleHost, QuizID: "Q", Subject: "ann"})
	require.NoError(t, err)
	_, err = NewTokens("secret", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	tokens := NewTokens("secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	raw, err = tokens.Issue(Identity{Role: RoleHost, QuizID: "Q", Subject: "ann"})
	require.NoError(t, err)
	_, err = NewTokens("secret", time.Minute).Parse(raw)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokensRejectNoneAlgorithm(t *testing.T) {
	claims := &Claims{Role: RoleHost, QuizID: "Q", RegisteredClaims: jwt.RegisteredClaims{Subject: "x"}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewTokens("secret", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Ann", CleanText("  <b>Ann</b>\x00 ", 20))
	assert.Equal(t, "Tom & Jerry", CleanText("Tom & Jerry", 20))
	assert.Equal(t, "héllo", CleanText("héllo wörld", 5))
	assert.Equal(t, "", CleanText("<script>alert(1)</script>", 20))
}

func TestGenerateRoomCode(t *testing.T) {
	code := GenerateRoomCode()
	assert.Len(t, code, RoomCodeLength)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, code)
	assert.Equal(t, "AB12CD", NormalizeRoomCode(" ab12cd "))
}
