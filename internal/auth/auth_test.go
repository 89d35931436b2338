package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahsanfayaz52/notesservice/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("secret")
	in := models.User{ID: 42, Nickname: "alice", Email: "alice@example.com", Password: "ignored"}

	token, err := svc.GenerateToken(in)
	require.NoError(t, err)

	out, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), out.ID)
	assert.Equal(t, "alice", out.Nickname)
	assert.Equal(t, "alice@example.com", out.Email)
	assert.Empty(t, out.Password)
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	token, err := NewJWTService("one").GenerateToken(models.User{ID: 1, Nickname: "a"})
	require.NoError(t, err)

	_, err = NewJWTService("two").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsMissingNickname(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTService("secret").ValidateToken(signed)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "hunter3"))
}

func TestJWTMiddleware(t *testing.T) {
	svc := NewJWTService("secret")
	var seen models.User
	h := JWTMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("get without cookie redirects to login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shrink", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?next=%2Fshrink", rec.Header().Get("Location"))
	})

	t.Run("post without cookie is unauthorized", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid cookie passes the user through", func(t *testing.T) {
		token, err := svc.GenerateToken(models.User{ID: 7, Nickname: "carol"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "carol", seen.Nickname)
	})
}
